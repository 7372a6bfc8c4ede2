package yield

// Band is the presentation class of a yield percentage.
type Band string

const (
	BandGood    Band = "good"
	BandWarning Band = "warning"
	BandPoor    Band = "poor"
)

const (
	goodThreshold    = 90.0
	warningThreshold = 85.0
)

func BandOf(yieldPercent float64) Band {
	switch {
	case yieldPercent >= goodThreshold:
		return BandGood
	case yieldPercent >= warningThreshold:
		return BandWarning
	default:
		return BandPoor
	}
}
