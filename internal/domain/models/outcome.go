package models

import "strings"

// OutcomeSide is the fixed classification a raw outcome name maps to.
// Pivoting operates on this enumeration, never on raw outcome text.
type OutcomeSide int

const (
	SideUnknown OutcomeSide = iota
	SideHome
	SideAway
	SideDraw
	SideOver
	SideUnder
)

func (s OutcomeSide) String() string {
	switch s {
	case SideHome:
		return "home"
	case SideAway:
		return "away"
	case SideDraw:
		return "draw"
	case SideOver:
		return "over"
	case SideUnder:
		return "under"
	default:
		return "unknown"
	}
}

// ClassifyOutcome maps free-text outcome names to a side, per market type.
// h2h outcomes are exact team names or "Draw". Spread outcomes are team
// names qualified with the line ("Arsenal -1.5"), so a prefix match on the
// team name applies. Totals outcomes are "Over N" / "Under N".
func ClassifyOutcome(marketType, outcomeName, homeTeam, awayTeam string) OutcomeSide {
	name := strings.TrimSpace(outcomeName)
	switch marketType {
	case MarketH2H:
		switch name {
		case homeTeam:
			return SideHome
		case awayTeam:
			return SideAway
		case "Draw":
			return SideDraw
		}
	case MarketSpreads:
		if homeTeam != "" && strings.HasPrefix(name, homeTeam) {
			return SideHome
		}
		if awayTeam != "" && strings.HasPrefix(name, awayTeam) {
			return SideAway
		}
	case MarketTotals:
		if strings.HasPrefix(name, "Over") {
			return SideOver
		}
		if strings.HasPrefix(name, "Under") {
			return SideUnder
		}
	}
	return SideUnknown
}
