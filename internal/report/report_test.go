package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"tracker/internal/dashboard"
	"tracker/internal/match"
)

func TestPrintPage(t *testing.T) {
	newest := time.Date(2025, 3, 1, 18, 30, 0, 0, time.UTC)
	page := &dashboard.Page{
		Profile: &dashboard.Profile{
			Name: "Kira", Tag: "EUW", Region: "eu", AccountLevel: 112,
			Rank: dashboard.Rank{Current: "Gold 2", RR: 41, RRChange: 18, Peak: "Platinum 1", PeakSeason: "e8a2"},
		},
		Season: match.SeasonInfo{Name: "Episode 9 - Act III"},
		Stats: match.Stats{
			KD: match.Ratio{Kills: 21, Deaths: 14}, HSPercent: 25, WinRate: 100,
			TotalMatches: 1, Wins: 1, Kills: 21, Deaths: 14,
		},
		Matches: []match.Summary{{
			MatchID:   "m-1",
			StartedAt: newest,
			Map:       "Ascent",
			Mode:      "Competitive",
			Agent:     match.Agent{DisplayName: "Jett"},
			Result:    match.ResultWin,
			Score:     "13 - 9",
			KDA:       "21/14/4",
			KD:        match.Ratio{Kills: 21, Deaths: 14},
			ACS:       262,
			HSPercent: 25,
		}},
		NewestCached: &newest,
		Warning:      "Rate limit reached. Please try again in a minute.",
	}

	var buf bytes.Buffer
	PrintPage(&buf, page)
	out := buf.String()

	assert.Contains(t, out, "Kira#EUW")
	assert.Contains(t, out, "Gold 2")
	assert.Contains(t, out, "+18")
	assert.Contains(t, out, "Episode 9 - Act III")
	assert.Contains(t, out, "Warning: Rate limit reached")
	assert.Contains(t, out, "1.50")
	assert.Contains(t, out, "Ascent")
	assert.Contains(t, out, "21/14/4")
	assert.Contains(t, out, "2025-03-01 18:30")
}

func TestPrintMatchesEmpty(t *testing.T) {
	var buf bytes.Buffer
	PrintMatches(&buf, nil)
	assert.Equal(t, "No matches this season.\n", buf.String())
}

func TestPrintScoreboardMarksPlayer(t *testing.T) {
	sb := match.BuildScoreboard(match.Record{
		MatchID: "m-1",
		Map:     "Bind",
		Teams:   match.Teams{Red: match.RoundScore{RoundsWon: 13}, Blue: match.RoundScore{RoundsWon: 7}},
		Players: []match.PlayerStats{
			{Name: "Kira", Tag: "EUW", Team: match.SideRed, Kills: 20, Deaths: 10},
			{Name: "Other", Tag: "0001", Team: match.SideBlue, Kills: 10, Deaths: 20},
		},
	}, "Kira", "EUW")

	var buf bytes.Buffer
	PrintScoreboard(&buf, sb)
	out := buf.String()

	assert.Contains(t, out, "Red 13 - Blue 7")
	assert.Contains(t, out, ">")
	assert.Contains(t, out, "Kira#EUW")
	assert.Contains(t, out, "Other#0001")
}

func TestSigned(t *testing.T) {
	assert.Equal(t, "+5", signed(5))
	assert.Equal(t, "-3", signed(-3))
	assert.Equal(t, "0", signed(0))
}
