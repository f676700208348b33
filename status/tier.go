package status

// Tier is the quantized microphone level shown while recording.
type Tier int

const (
	TierLow Tier = iota
	TierMediumLow
	TierMediumHigh
	TierHigh
)

// Lower bounds are exclusive: a level equal to a threshold falls in the tier below.
const (
	highAbove       = 15
	mediumHighAbove = 7
	mediumLowAbove  = 4
)

// Quantize maps a 0-100 level onto one of four tiers.
func Quantize(level int) Tier {
	switch {
	case level > highAbove:
		return TierHigh
	case level > mediumHighAbove:
		return TierMediumHigh
	case level > mediumLowAbove:
		return TierMediumLow
	default:
		return TierLow
	}
}

func (t Tier) Dots() string {
	switch t {
	case TierHigh:
		return "●●●"
	case TierMediumHigh:
		return "●●○"
	case TierMediumLow:
		return "●○○"
	default:
		return "○○○"
	}
}

func (t Tier) String() string {
	switch t {
	case TierHigh:
		return "high"
	case TierMediumHigh:
		return "medium-high"
	case TierMediumLow:
		return "medium-low"
	default:
		return "low"
	}
}
