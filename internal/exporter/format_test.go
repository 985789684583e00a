package exporter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatRate(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{
			name:     "zero rate",
			input:    0.0,
			expected: "0.0000",
		},
		{
			name:     "full rate",
			input:    1.0,
			expected: "1.0000",
		},
		{
			name:     "short fraction padded",
			input:    0.5,
			expected: "0.5000",
		},
		{
			name:     "repeating fraction rounded",
			input:    2.0 / 3.0,
			expected: "0.6667",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatRate(tt.input))
		})
	}
}

func TestFormatInt(t *testing.T) {
	assert.Equal(t, "0", formatInt(0))
	assert.Equal(t, "3089", formatInt(3089))
	assert.Equal(t, "-7", formatInt(-7))
}

func TestFormatBool(t *testing.T) {
	assert.Equal(t, "true", formatBool(true))
	assert.Equal(t, "false", formatBool(false))
}
