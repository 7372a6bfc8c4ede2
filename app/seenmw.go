// app/seenmw.go
package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"papermill_reel_tracker/session"
)

// TouchSession slides the session expiry forward while the user is active.
// The refresh runs at most once per throttle window per session.
func TouchSession(appSess *session.AppSessionStore, rdb *redis.Client, throttle time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(CtxSessionID)
		if !ok {
			c.Next()
			return
		}
		sid, _ := v.(string)
		if sid == "" {
			c.Next()
			return
		}

		key := "reeltrack:seen:" + sid
		if ok, _ := rdb.SetNX(c, key, "1", throttle).Result(); ok {
			_ = appSess.Refresh(c, sid) // best effort, never blocks the request
		}
		c.Next()
	}
}
