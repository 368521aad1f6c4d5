package display

import (
	"math"
	"sort"
)

// RateFromTimings computes the vertical refresh rate in whole Hz from raw
// mode timings. dotClock is in Hz.
func RateFromTimings(dotClock uint32, hTotal, vTotal uint16, interlace, doubleScan bool) int {
	if dotClock == 0 || hTotal == 0 || vTotal == 0 {
		return 0
	}

	v := float64(vTotal)
	if doubleScan {
		v *= 2
	}
	if interlace {
		v /= 2
	}

	return int(math.Round(float64(dotClock) / (float64(hTotal) * v)))
}

// RateFromMilliHz converts a refresh expressed in mHz (wlroots) to whole Hz
func RateFromMilliHz(mhz int) int {
	if mhz <= 0 {
		return 0
	}
	return int(math.Round(float64(mhz) / 1000.0))
}

// RateFromHz rounds a fractional refresh rate to whole Hz
func RateFromHz(hz float64) int {
	if hz <= 0 {
		return 0
	}
	return int(math.Round(hz))
}

// UniqueRates returns the sorted, deduplicated positive refresh rates of modes
func UniqueRates(modes []Mode) []int {
	seen := make(map[int]struct{}, len(modes))
	rates := make([]int, 0, len(modes))
	for _, m := range modes {
		if m.RefreshHz <= 0 {
			continue
		}
		if _, ok := seen[m.RefreshHz]; ok {
			continue
		}
		seen[m.RefreshHz] = struct{}{}
		rates = append(rates, m.RefreshHz)
	}
	sort.Ints(rates)
	return rates
}
