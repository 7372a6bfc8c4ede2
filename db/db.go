package db

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"papermill_reel_tracker/models"
)

// Connect opens postgres and checks the connection.
func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := Open(postgres.Open(dsn))
	if err != nil {
		return nil, err
	}
	slog.Info("database connected")
	return gdb, nil
}

// Open wraps any gorm dialector; tests hand in sqlite.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return gdb, nil
}

func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(&models.Reel{}, &models.ReelOption{}); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	// operator dashboards list open reels per operator
	if err := gdb.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_open_by_operator
	  ON %s (assigned_to, created_at)
	  WHERE ruled_date IS NULL;
	`, models.ReelTable, models.ReelTable)).Error; err != nil {
		return err
	}

	// completed reels for the yield report
	if err := gdb.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_ruled_by_operator
	  ON %s (assigned_to, created_at)
	  WHERE ruled_date IS NOT NULL;
	`, models.ReelTable, models.ReelTable)).Error; err != nil {
		return err
	}

	return nil
}
