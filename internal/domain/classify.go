package domain

import "math"

// Tier is a magnitude severity classification with its display color.
type Tier struct {
	Name  string  `json:"name"`
	Color string  `json:"color"`
	Below float64 `json:"-"` // exclusive upper bound; +Inf for the last tier
}

// tiers is ordered by strictly increasing threshold.
var tiers = []Tier{
	{Name: "Minor", Color: "#007AFF", Below: 2.5},
	{Name: "Light", Color: "#34C759", Below: 4.0},
	{Name: "Moderate", Color: "#FFFF00", Below: 5.0},
	{Name: "Strong", Color: "#FF9500", Below: 6.0},
	{Name: "Major", Color: "#FF3B30", Below: 7.0},
	{Name: "Great", Color: "#DC143C", Below: math.Inf(1)},
}

// Classify returns the tier for magnitude m. Negative magnitudes fall into
// the lowest tier.
func Classify(m float64) Tier {
	for _, t := range tiers {
		if m < t.Below {
			return t
		}
	}
	return tiers[len(tiers)-1]
}

// Tiers returns a copy of the classification table, lowest tier first.
func Tiers() []Tier {
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return out
}
