package social_test

import (
	"testing"
	"time"

	social "github.com/goliatone/go-social"
	"github.com/stretchr/testify/assert"
)

func TestIsWithinThresholdPeriod(t *testing.T) {
	tests := []struct {
		name          string
		inputTime     time.Time
		thresholdExpr string
		expected      bool
		expectErr     bool
	}{
		{
			name:          "Within 1 hour threshold",
			inputTime:     time.Now().Add(-30 * time.Minute),
			thresholdExpr: "1h",
			expected:      true,
		},
		{
			name:          "Outside 1 hour threshold",
			inputTime:     time.Now().Add(-90 * time.Minute),
			thresholdExpr: "1h",
			expected:      false,
		},
		{
			name:          "Complex threshold (2h30m)",
			inputTime:     time.Now().Add(-2 * time.Hour),
			thresholdExpr: "2h30m",
			expected:      true,
		},
		{
			name:          "Future time",
			inputTime:     time.Now().Add(1 * time.Hour),
			thresholdExpr: "2h",
			expected:      true,
		},
		{
			name:          "Invalid threshold expression",
			inputTime:     time.Now(),
			thresholdExpr: "invalid",
			expected:      false,
			expectErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := social.IsWithinThresholdPeriod(tt.inputTime, tt.thresholdExpr)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestIsOutsideThresholdPeriod(t *testing.T) {
	outside, err := social.IsOutsideThresholdPeriod(time.Now().Add(-48*time.Hour), "24h")
	assert.NoError(t, err)
	assert.True(t, outside)

	outside, err = social.IsOutsideThresholdPeriod(time.Now().Add(-time.Hour), "24h")
	assert.NoError(t, err)
	assert.False(t, outside)

	_, err = social.IsOutsideThresholdPeriod(time.Now(), "bogus")
	assert.Error(t, err)
}
