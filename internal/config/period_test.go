package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParsePeriod(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"30s", 30 * time.Second},
		{"5m", 5 * time.Minute},
		{"1h", time.Hour},
		{"1d", 24 * time.Hour},
		{"1m 30s", 90 * time.Second},
		{"1x", 0},
		{"", 0},
		{"0s", 0},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, ParsePeriod(c.in), "ParsePeriod(%q)", c.in)
	}
}
