package engine

import (
	"sort"

	"github.com/dnldd/radar/indicator"
	"github.com/dnldd/radar/shared"
)

const (
	// screenRSIThreshold is the rsi ceiling for the oversold crossover screen.
	screenRSIThreshold = 40
)

// ScreenMatch represents a market matching the oversold crossover screen.
type ScreenMatch struct {
	Market   string
	Price    float64
	RSI      float64
	DIF      float64
	DEA      float64
	Strength float64
}

// OversoldCrossover reports whether the provided daily snapshot shows a
// bullish macd crossover while the rsi sits below the oversold ceiling.
func OversoldCrossover(snapshot *shared.IndicatorSnapshot) bool {
	if !snapshot.HasReversalData {
		return false
	}

	return indicator.Oversold(snapshot.RSI, screenRSIThreshold) && snapshot.DIF > snapshot.DEA
}

// NewScreenMatch builds a screen match from the provided snapshot.
func NewScreenMatch(snapshot *shared.IndicatorSnapshot) ScreenMatch {
	return ScreenMatch{
		Market:   snapshot.Market,
		Price:    snapshot.Close,
		RSI:      snapshot.RSI,
		DIF:      snapshot.DIF,
		DEA:      snapshot.DEA,
		Strength: snapshot.DIF - snapshot.DEA,
	}
}

// RankScreenMatches orders the provided matches by ascending rsi.
func RankScreenMatches(matches []ScreenMatch) {
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].RSI < matches[j].RSI
	})
}
