// Package report renders dashboard pages as terminal tables.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"tracker/internal/dashboard"
	"tracker/internal/match"
)

const timeLayout = "2006-01-02 15:04"

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// PrintPage writes the profile header, stats and match list for a page.
func PrintPage(w io.Writer, page *dashboard.Page) {
	if page.Profile != nil {
		PrintProfile(w, *page.Profile)
	}
	fmt.Fprintf(w, "\nSeason: %s\n", page.Season.Name)
	if page.Warning != "" {
		fmt.Fprintf(w, "Warning: %s\n", page.Warning)
	}
	fmt.Fprintln(w)
	PrintStats(w, page.Stats)
	fmt.Fprintln(w)
	PrintMatches(w, page.Matches)
	if page.NewestCached != nil {
		fmt.Fprintf(w, "\nNewest cached match: %s\n", page.NewestCached.UTC().Format(timeLayout))
	}
}

// PrintProfile prints a one-line identity header and the rank table.
func PrintProfile(w io.Writer, p dashboard.Profile) {
	fmt.Fprintf(w, "\n%s#%s  |  Region: %s  |  Level: %d\n\n", p.Name, p.Tag, p.Region, p.AccountLevel)

	table := newTable(w)
	table.Header("RANK", "RR", "LAST", "PEAK", "PEAK_SEASON", "SEASON_W", "SEASON_G", "SEASON_WR")
	table.Append(
		p.Rank.Current,
		strconv.Itoa(p.Rank.RR),
		signed(p.Rank.RRChange),
		p.Rank.Peak,
		p.Rank.PeakSeason,
		strconv.Itoa(p.Rank.SeasonWins),
		strconv.Itoa(p.Rank.SeasonGames),
		fmt.Sprintf("%d%%", p.Rank.SeasonWinRate),
	)
	table.Render()
}

// PrintStats prints the aggregate stats table.
func PrintStats(w io.Writer, s match.Stats) {
	table := newTable(w)
	table.Header("MATCHES", "W", "L", "WIN%", "K", "D", "K/D", "HS%")
	table.Append(
		strconv.Itoa(s.TotalMatches),
		strconv.Itoa(s.Wins),
		strconv.Itoa(s.Losses),
		fmt.Sprintf("%d%%", s.WinRate),
		strconv.Itoa(s.Kills),
		strconv.Itoa(s.Deaths),
		s.KD.String(),
		fmt.Sprintf("%d%%", s.HSPercent),
	)
	table.Render()
}

// PrintMatches prints one row per match card, newest first as given.
func PrintMatches(w io.Writer, matches []match.Summary) {
	if len(matches) == 0 {
		fmt.Fprintln(w, "No matches this season.")
		return
	}

	table := newTable(w)
	table.Header("DATE", "MAP", "MODE", "AGENT", "RESULT", "SCORE", "KDA", "K/D", "ACS", "HS%", "MATCH_ID")
	for _, m := range matches {
		table.Append(
			m.StartedAt.UTC().Format(timeLayout),
			m.Map,
			m.Mode,
			m.Agent.DisplayName,
			string(m.Result),
			m.Score,
			m.KDA,
			m.KD.String(),
			strconv.Itoa(m.ACS),
			fmt.Sprintf("%d%%", m.HSPercent),
			m.MatchID,
		)
	}
	table.Render()
}

// PrintScoreboard prints both teams of a match, marking name#tag with ">".
func PrintScoreboard(w io.Writer, sb match.Scoreboard) {
	fmt.Fprintf(w, "\nMap: %s  |  Date: %s  |  Score: Red %d - Blue %d\n\n",
		sb.Map, sb.StartedAt.UTC().Format(timeLayout), sb.Teams.Red.RoundsWon, sb.Teams.Blue.RoundsWon)

	for _, team := range []struct {
		name string
		rows []match.ScoreboardRow
	}{{"RED", sb.Red}, {"BLUE", sb.Blue}} {
		fmt.Fprintf(w, "%s\n", team.name)
		table := newTable(w)
		table.Header(" ", "PLAYER", "AGENT", "K", "D", "A", "K/D", "ACS", "HS%")
		for _, r := range team.rows {
			marker := " "
			if r.Current {
				marker = ">"
			}
			table.Append(
				marker,
				r.RiotID,
				r.Agent.DisplayName,
				strconv.Itoa(r.Kills),
				strconv.Itoa(r.Deaths),
				strconv.Itoa(r.Assists),
				r.KD.String(),
				strconv.Itoa(r.ACS),
				fmt.Sprintf("%d%%", r.HSPercent),
			)
		}
		table.Render()
		fmt.Fprintln(w)
	}
}

func signed(n int) string {
	if n > 0 {
		return "+" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
