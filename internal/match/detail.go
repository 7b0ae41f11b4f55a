package match

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// ACS is the player's average combat score for the match, rounded to the
// nearest integer. It is 0 when no rounds were played.
func ACS(rec Record, p PlayerStats) int {
	rounds := rec.RoundsPlayed()
	if rounds == 0 {
		return 0
	}
	return int(math.Round(float64(p.Score) / float64(rounds)))
}

// Result is a match outcome from one player's point of view.
type Result string

const (
	ResultWin  Result = "Win"
	ResultLoss Result = "Loss"
	ResultDraw Result = "Draw"
)

// Summary is what a match card shows for the searched player.
type Summary struct {
	MatchID     string    `json:"matchId"`
	StartedAt   time.Time `json:"startedAt"`
	Map         string    `json:"map"`
	Mode        string    `json:"mode"`
	Agent       Agent     `json:"agent"`
	Result      Result    `json:"result"`
	MyRounds    int       `json:"myRounds"`
	EnemyRounds int       `json:"enemyRounds"`
	Score       string    `json:"score"`
	KDA         string    `json:"kda"`
	KD          Ratio     `json:"kd"`
	ACS         int       `json:"acs"`
	HSPercent   int       `json:"hsPercent"`
}

// Summarize builds the card for name#tag. ok is false when the player is
// not part of the record.
func Summarize(rec Record, name, tag string) (Summary, bool) {
	p, ok := rec.FindPlayer(name, tag)
	if !ok {
		return Summary{}, false
	}

	// Unknown sides read from blue's perspective, as the provider lists red first.
	side := p.Team
	if side == SideUnknown {
		side = SideBlue
	}
	mine := rec.Teams.Of(side).RoundsWon
	theirs := rec.Teams.Of(side.Opponent()).RoundsWon

	result := ResultLoss
	switch {
	case mine > theirs:
		result = ResultWin
	case mine == theirs:
		result = ResultDraw
	}

	return Summary{
		MatchID:     rec.MatchID,
		StartedAt:   rec.StartedAt,
		Map:         rec.Map,
		Mode:        rec.Mode,
		Agent:       p.Agent,
		Result:      result,
		MyRounds:    mine,
		EnemyRounds: theirs,
		Score:       fmt.Sprintf("%d - %d", mine, theirs),
		KDA:         fmt.Sprintf("%d/%d/%d", p.Kills, p.Deaths, p.Assists),
		KD:          Ratio{Kills: p.Kills, Deaths: p.Deaths},
		ACS:         ACS(rec, p),
		HSPercent:   HeadshotPercent(p),
	}, true
}

// ScoreboardRow is one player's line on the match scoreboard.
type ScoreboardRow struct {
	RiotID    string `json:"riotId"`
	Agent     Agent  `json:"agent"`
	Kills     int    `json:"kills"`
	Deaths    int    `json:"deaths"`
	Assists   int    `json:"assists"`
	KD        Ratio  `json:"kd"`
	ACS       int    `json:"acs"`
	HSPercent int    `json:"hsPercent"`
	Score     int    `json:"score"`
	Current   bool   `json:"current"`
}

// Scoreboard splits the record's players by team, best score first.
type Scoreboard struct {
	MatchID   string          `json:"matchId"`
	Map       string          `json:"map"`
	StartedAt time.Time       `json:"startedAt"`
	Teams     Teams           `json:"teams"`
	Red       []ScoreboardRow `json:"red"`
	Blue      []ScoreboardRow `json:"blue"`
}

// BuildScoreboard renders the record's scoreboard, flagging name#tag.
func BuildScoreboard(rec Record, name, tag string) Scoreboard {
	sb := Scoreboard{
		MatchID:   rec.MatchID,
		Map:       rec.Map,
		StartedAt: rec.StartedAt,
		Teams:     rec.Teams,
		Red:       []ScoreboardRow{},
		Blue:      []ScoreboardRow{},
	}

	for _, p := range rec.Players {
		row := ScoreboardRow{
			RiotID:    p.RiotID(),
			Agent:     p.Agent,
			Kills:     p.Kills,
			Deaths:    p.Deaths,
			Assists:   p.Assists,
			KD:        Ratio{Kills: p.Kills, Deaths: p.Deaths},
			ACS:       ACS(rec, p),
			HSPercent: HeadshotPercent(p),
			Score:     p.Score,
			Current:   p.Is(name, tag),
		}
		switch p.Team {
		case SideRed:
			sb.Red = append(sb.Red, row)
		case SideBlue:
			sb.Blue = append(sb.Blue, row)
		}
	}

	byScore := func(rows []ScoreboardRow) {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Score > rows[j].Score })
	}
	byScore(sb.Red)
	byScore(sb.Blue)

	return sb
}
