// Package scoring turns winrate and pick order into a single comparable score.
package scoring

import "math"

// Pick order ranks run from 1 (best) to 50 (worst).
const (
	MinPickOrder = 1.0
	MaxPickOrder = 50.0

	winrateWeight   = 0.4
	pickOrderWeight = 0.6
	neutral         = 0.5
)

// NormalizeWinrate returns wr, or the neutral prior when unknown.
func NormalizeWinrate(wr *float64) float64 {
	if wr == nil {
		return neutral
	}
	return *wr
}

// NormalizePickOrder clamps po into [MinPickOrder, MaxPickOrder] and maps it
// onto [0,1] with 1 as the best rank.
func NormalizePickOrder(po *float64) float64 {
	if po == nil {
		return neutral
	}
	v := math.Max(MinPickOrder, math.Min(MaxPickOrder, *po))
	return (MaxPickOrder - v) / (MaxPickOrder - MinPickOrder)
}

// ConsolidatedScore weighs normalised winrate and pick order into [0,1].
func ConsolidatedScore(wr, po *float64) float64 {
	score := winrateWeight*NormalizeWinrate(wr) + pickOrderWeight*NormalizePickOrder(po)
	return math.Max(0, math.Min(1, score))
}
