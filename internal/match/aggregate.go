package match

import (
	"encoding/json"
	"math"
	"strconv"
)

// Ratio is a kill/death ratio. With deaths it renders as a two-decimal
// string; without deaths it is the raw kill count.
type Ratio struct {
	Kills  int
	Deaths int
}

// Value returns the ratio as a float, or the kill count when deaths is 0.
func (r Ratio) Value() float64 {
	if r.Deaths > 0 {
		return float64(r.Kills) / float64(r.Deaths)
	}
	return float64(r.Kills)
}

func (r Ratio) String() string {
	if r.Deaths > 0 {
		return strconv.FormatFloat(r.Value(), 'f', 2, 64)
	}
	return strconv.Itoa(r.Kills)
}

// MarshalJSON emits "1.25" when deaths > 0 and the integer kill count otherwise.
func (r Ratio) MarshalJSON() ([]byte, error) {
	if r.Deaths > 0 {
		return json.Marshal(r.String())
	}
	return json.Marshal(r.Kills)
}

// Stats aggregates one player's performance over a set of matches.
type Stats struct {
	KD           Ratio `json:"kd"`
	HSPercent    int   `json:"hsPercent"`
	WinRate      int   `json:"winRate"`
	TotalMatches int   `json:"totalMatches"`
	Wins         int   `json:"wins"`
	Losses       int   `json:"losses"`
	Kills        int   `json:"kills"`
	Deaths       int   `json:"deaths"`
}

// Aggregate computes name#tag's stats over records.
//
// A match is a win only when the player's team won strictly more rounds.
// Losses are TotalMatches - Wins, so draws, and matches the player cannot be
// found in, count as losses.
func Aggregate(records []Record, name, tag string) Stats {
	var kills, deaths, headshots, shots, wins int

	for _, rec := range records {
		p, ok := rec.FindPlayer(name, tag)
		if !ok {
			continue
		}
		kills += p.Kills
		deaths += p.Deaths
		headshots += p.Headshots
		shots += p.Headshots + p.Bodyshots + p.Legshots

		if Won(rec, p.Team) {
			wins++
		}
	}

	total := len(records)
	return Stats{
		KD:           Ratio{Kills: kills, Deaths: deaths},
		HSPercent:    percent(headshots, shots),
		WinRate:      percent(wins, total),
		TotalMatches: total,
		Wins:         wins,
		Losses:       total - wins,
		Kills:        kills,
		Deaths:       deaths,
	}
}

// Won reports whether side won strictly more rounds than its opponent.
func Won(rec Record, side Side) bool {
	if side == SideUnknown {
		return false
	}
	return rec.Teams.Of(side).RoundsWon > rec.Teams.Of(side.Opponent()).RoundsWon
}

// HeadshotPercent is the player's headshot share of all hits, 0 without hits.
func HeadshotPercent(p PlayerStats) int {
	return percent(p.Headshots, p.Headshots+p.Bodyshots+p.Legshots)
}

// percent rounds part/whole*100 to the nearest integer; 0 when whole is 0.
func percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}
