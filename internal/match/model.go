package match

import (
	"encoding/json"
	"strings"
	"time"
)

// Placeholders used when the provider omits a field.
const (
	UnknownName = "Unknown"
	DefaultMode = "Competitive"
)

// Side identifies a team in a match.
type Side string

const (
	SideRed     Side = "red"
	SideBlue    Side = "blue"
	SideUnknown Side = ""
)

// ParseSide maps provider team identifiers ("Red", "blue", ...) to a Side.
func ParseSide(s string) Side {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "red":
		return SideRed
	case "blue":
		return SideBlue
	default:
		return SideUnknown
	}
}

// Opponent returns the other side, or SideUnknown when s is unknown.
func (s Side) Opponent() Side {
	switch s {
	case SideRed:
		return SideBlue
	case SideBlue:
		return SideRed
	default:
		return SideUnknown
	}
}

// RoundEndType is how a round finished.
type RoundEndType string

const (
	EndEliminated    RoundEndType = "Eliminated"
	EndBombDefused   RoundEndType = "BombDefused"
	EndBombDetonated RoundEndType = "BombDetonated"
	EndTimeExpired   RoundEndType = "TimeExpired"
	EndSurrendered   RoundEndType = "Surrendered"
	EndUnknown       RoundEndType = "Unknown"
)

// RoundScore is the number of rounds a team won.
type RoundScore struct {
	RoundsWon int `json:"roundsWon"`
}

// Teams holds both sides' round scores.
type Teams struct {
	Red  RoundScore `json:"red"`
	Blue RoundScore `json:"blue"`
}

// Of returns the score for side. Unknown sides score zero.
func (t Teams) Of(side Side) RoundScore {
	switch side {
	case SideRed:
		return t.Red
	case SideBlue:
		return t.Blue
	default:
		return RoundScore{}
	}
}

// Agent is the character a player picked.
type Agent struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	IconURL     string `json:"iconUrl,omitempty"`
}

// PlayerStats is one player's line in a match.
type PlayerStats struct {
	Name        string `json:"name"`
	Tag         string `json:"tag"`
	PUUID       string `json:"puuid"`
	Team        Side   `json:"teamSide"`
	Kills       int    `json:"kills"`
	Deaths      int    `json:"deaths"`
	Assists     int    `json:"assists"`
	Score       int    `json:"score"`
	Headshots   int    `json:"headshots"`
	Bodyshots   int    `json:"bodyshots"`
	Legshots    int    `json:"legshots"`
	DamageDealt int    `json:"damageDealt"`
	Agent       Agent  `json:"agent"`
	RankLabel   string `json:"rankLabel,omitempty"`
}

// RiotID renders the player as Name#Tag.
func (p PlayerStats) RiotID() string {
	if p.Tag == "" {
		return p.Name
	}
	return p.Name + "#" + p.Tag
}

// Is reports whether the player matches name and tag, ignoring case.
func (p PlayerStats) Is(name, tag string) bool {
	return strings.EqualFold(p.Name, name) && strings.EqualFold(p.Tag, tag)
}

// RoundPlayerKills is a player's kill count in one round.
type RoundPlayerKills struct {
	PlayerName string `json:"playerName"`
	Kills      int    `json:"kills"`
}

// RoundEvent summarizes one round.
type RoundEvent struct {
	WinningTeam Side               `json:"winningTeam"`
	EndType     RoundEndType       `json:"endType"`
	PlayerStats []RoundPlayerKills `json:"perPlayerStats"`
}

// Record is the canonical, normalized match record.
type Record struct {
	MatchID         string        `json:"matchId"`
	StartedAt       time.Time     `json:"startedAt"`
	SeasonID        string        `json:"seasonId"`
	Map             string        `json:"map"`
	Mode            string        `json:"mode"`
	DurationMinutes int           `json:"durationMinutes"`
	Teams           Teams         `json:"teams"`
	Players         []PlayerStats `json:"players"`
	Rounds          []RoundEvent  `json:"rounds,omitempty"`
	// Slim is set when Players was synthesized from a single-player stats block.
	Slim bool `json:"slim,omitempty"`
}

// MarshalJSON writes an unknown season as null.
func (r Record) MarshalJSON() ([]byte, error) {
	type plain Record
	out := struct {
		plain
		SeasonID *string `json:"seasonId"`
	}{plain: plain(r)}
	if r.SeasonID != "" {
		out.SeasonID = &r.SeasonID
	}
	return json.Marshal(out)
}

// FindPlayer locates name#tag in the record. A slim record only ever holds
// the player it was fetched for, so its single entry always matches.
func (r Record) FindPlayer(name, tag string) (PlayerStats, bool) {
	if r.Slim && len(r.Players) == 1 {
		return r.Players[0], true
	}
	for _, p := range r.Players {
		if p.Is(name, tag) {
			return p, true
		}
	}
	return PlayerStats{}, false
}

// RoundsPlayed is the number of recorded rounds, or the sum of both
// teams' rounds won when round detail is absent.
func (r Record) RoundsPlayed() int {
	if n := len(r.Rounds); n > 0 {
		return n
	}
	return r.Teams.Red.RoundsWon + r.Teams.Blue.RoundsWon
}
