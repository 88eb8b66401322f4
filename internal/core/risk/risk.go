// Package risk classifies courier delivery history into risk tiers.
package risk

// Tier is the classified delivery-risk bucket for a customer
type Tier int

// Tiers ordered from least to most information
const (
	TierUnknown Tier = iota
	TierHigh
	TierMedium
	TierSafe
)

// String returns the stable machine name used in tags and order fields
func (t Tier) String() string {
	switch t {
	case TierHigh:
		return "high"
	case TierMedium:
		return "medium"
	case TierSafe:
		return "safe"
	default:
		return "unknown"
	}
}

// Label returns the human label shown to merchants
func (t Tier) Label() string {
	switch t {
	case TierHigh:
		return "High Risk"
	case TierMedium:
		return "Medium Risk"
	case TierSafe:
		return "Safe"
	default:
		return "Unknown"
	}
}

// Icon returns the marker prepended to order notes
func (t Tier) Icon() string {
	switch t {
	case TierHigh:
		return "🔴"
	case TierMedium:
		return "🟡"
	case TierSafe:
		return "🟢"
	default:
		return "⚪"
	}
}

// Thresholds are the success-ratio cutoffs in percent.
// A ratio strictly below Medium is high risk, strictly below Safe is
// medium, and anything at or above Safe is safe
type Thresholds struct {
	Medium float64
	Safe   float64
}

// DefaultThresholds matches the published tier boundaries
func DefaultThresholds() Thresholds {
	return Thresholds{Medium: 50, Safe: 70}
}

// Classify buckets a customer by total parcel count and success ratio.
// A customer with no parcel history is Unknown regardless of ratio
func Classify(totalParcels int, successRatio float64, th Thresholds) Tier {
	if totalParcels == 0 {
		return TierUnknown
	}
	switch {
	case successRatio < th.Medium:
		return TierHigh
	case successRatio < th.Safe:
		return TierMedium
	default:
		return TierSafe
	}
}
