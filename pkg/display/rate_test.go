package display

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateFromTimings(t *testing.T) {
	tests := []struct {
		name       string
		dotClock   uint32
		hTotal     uint16
		vTotal     uint16
		interlace  bool
		doubleScan bool
		want       int
	}{
		{name: "1080p60", dotClock: 148500000, hTotal: 2200, vTotal: 1125, want: 60},
		{name: "1080p59.94", dotClock: 148352000, hTotal: 2200, vTotal: 1125, want: 60},
		{name: "1440p144", dotClock: 586586000, hTotal: 2720, vTotal: 1497, want: 144},
		{name: "1080i", dotClock: 74250000, hTotal: 2200, vTotal: 1125, interlace: true, want: 60},
		{name: "doublescan", dotClock: 25175000, hTotal: 800, vTotal: 525, doubleScan: true, want: 30},
		{name: "zero clock", dotClock: 0, hTotal: 2200, vTotal: 1125, want: 0},
		{name: "zero totals", dotClock: 148500000, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RateFromTimings(tt.dotClock, tt.hTotal, tt.vTotal, tt.interlace, tt.doubleScan)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRateFromMilliHz(t *testing.T) {
	assert.Equal(t, 60, RateFromMilliHz(59951))
	assert.Equal(t, 144, RateFromMilliHz(143998))
	assert.Equal(t, 0, RateFromMilliHz(0))
}

func TestRateFromHz(t *testing.T) {
	assert.Equal(t, 60, RateFromHz(59.94))
	assert.Equal(t, 75, RateFromHz(74.97))
	assert.Equal(t, 0, RateFromHz(-1))
}

func TestUniqueRates(t *testing.T) {
	modes := []Mode{{RefreshHz: 120}, {RefreshHz: 60}, {RefreshHz: 0}, {RefreshHz: 60}, {RefreshHz: 75}}
	assert.Equal(t, []int{60, 75, 120}, UniqueRates(modes))
	assert.Empty(t, UniqueRates(nil))
}
