package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		magnitude float64
		tier      string
		color     string
	}{
		{"negative", -1.2, "Minor", "#007AFF"},
		{"zero", 0, "Minor", "#007AFF"},
		{"just below light", 2.49, "Minor", "#007AFF"},
		{"light boundary", 2.5, "Light", "#34C759"},
		{"light upper", 3.99, "Light", "#34C759"},
		{"moderate boundary", 4.0, "Moderate", "#FFFF00"},
		{"strong boundary", 5.0, "Strong", "#FF9500"},
		{"strong mid", 5.2, "Strong", "#FF9500"},
		{"major boundary", 6.0, "Major", "#FF3B30"},
		{"great boundary", 7.0, "Great", "#DC143C"},
		{"great large", 9.5, "Great", "#DC143C"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tier := Classify(tt.magnitude)
			assert.Equal(t, tt.tier, tier.Name)
			assert.Equal(t, tt.color, tier.Color)
		})
	}
}

func TestTiers_OrderedAndCopied(t *testing.T) {
	ts := Tiers()
	assert.Len(t, ts, 6)
	for i := 1; i < len(ts); i++ {
		assert.Greater(t, ts[i].Below, ts[i-1].Below, "thresholds must strictly increase")
	}
	assert.True(t, math.IsInf(ts[len(ts)-1].Below, 1))

	ts[0].Name = "changed"
	assert.Equal(t, "Minor", Tiers()[0].Name)
}
