package match

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// AgentIconURL is the media template an agent id is composed into.
const AgentIconURL = "https://media.valorant-api.com/agents/%s/displayicon.png"

// Rule resolves one canonical field from a source document. Path names the
// provider field the rule reads.
type Rule[S, T any] struct {
	Path string
	Get  func(S) (T, bool)
}

// resolve returns the value of the first rule that yields one, else fallback.
func resolve[S, T any](src S, rules []Rule[S, T], fallback T) T {
	for _, r := range rules {
		if v, ok := r.Get(src); ok {
			return v
		}
	}
	return fallback
}

// resolvedBy reports which rule produced the value, or "" for the fallback.
func resolvedBy[S, T any](src S, rules []Rule[S, T]) string {
	for _, r := range rules {
		if _, ok := r.Get(src); ok {
			return r.Path
		}
	}
	return ""
}

func str(s flexString) (string, bool) {
	return string(s), s != ""
}

func text(s string) (string, bool) {
	return s, s != ""
}

func num(n flexNumber) (int, bool) {
	return n.count()
}

// Match-level rules.

var matchIDRules = []Rule[*RawMatch, string]{
	{"metadata.match_id", func(m *RawMatch) (string, bool) {
		if m.Metadata == nil {
			return "", false
		}
		return str(m.Metadata.MatchID)
	}},
	{"meta.id", func(m *RawMatch) (string, bool) {
		if m.Meta == nil {
			return "", false
		}
		return str(m.Meta.ID)
	}},
}

var startedAtRules = []Rule[*RawMatch, time.Time]{
	{"metadata.started_at", func(m *RawMatch) (time.Time, bool) {
		if m.Metadata == nil {
			return time.Time{}, false
		}
		return m.Metadata.StartedAt.Time, m.Metadata.StartedAt.Valid
	}},
	{"meta.started_at", func(m *RawMatch) (time.Time, bool) {
		if m.Meta == nil {
			return time.Time{}, false
		}
		return m.Meta.StartedAt.Time, m.Meta.StartedAt.Valid
	}},
	{"metadata.game_start", func(m *RawMatch) (time.Time, bool) {
		if m.Metadata == nil {
			return time.Time{}, false
		}
		return m.Metadata.GameStart.Time, m.Metadata.GameStart.Valid
	}},
}

var seasonIDRules = []Rule[*RawMatch, string]{
	{"metadata.season.id", func(m *RawMatch) (string, bool) {
		if b := m.block(); b != nil {
			return text(strings.ToLower(b.Season.ID))
		}
		return "", false
	}},
	{"metadata.season_id", func(m *RawMatch) (string, bool) {
		if b := m.block(); b != nil {
			return text(strings.ToLower(string(b.SeasonID)))
		}
		return "", false
	}},
}

var mapRules = []Rule[*RawMatch, string]{
	{"metadata.map.name", func(m *RawMatch) (string, bool) {
		if b := m.block(); b != nil {
			return text(b.Map.Name)
		}
		return "", false
	}},
	{"metadata.map", func(m *RawMatch) (string, bool) {
		if b := m.block(); b != nil {
			return text(b.Map.Text)
		}
		return "", false
	}},
}

var modeRules = []Rule[*RawMatch, string]{
	{"metadata.queue.name", func(m *RawMatch) (string, bool) {
		if b := m.block(); b != nil {
			return text(b.Queue.Name)
		}
		return "", false
	}},
	{"metadata.mode", func(m *RawMatch) (string, bool) {
		if b := m.block(); b != nil {
			return str(b.Mode)
		}
		return "", false
	}},
}

var durationRules = []Rule[*RawMatch, int]{
	{"metadata.game_length_in_ms", func(m *RawMatch) (int, bool) {
		if b := m.block(); b != nil && b.GameLengthMS.Valid {
			return int(b.GameLengthMS.Value / 60000), true
		}
		return 0, false
	}},
	{"metadata.game_length", func(m *RawMatch) (int, bool) {
		if b := m.block(); b != nil && b.GameLength.Valid {
			return int(b.GameLength.Value / 60), true
		}
		return 0, false
	}},
}

// Team score rules, tried in order: plain numbers, the per-team array, then
// nested {rounds_won} objects.
var teamRules = []Rule[json.RawMessage, Teams]{
	{"teams.red|blue (number)", numericTeams},
	{"teams[].rounds.won", arrayTeams},
	{"teams.red|blue.rounds_won", nestedTeams},
}

func numericTeams(raw json.RawMessage) (Teams, bool) {
	var obj struct {
		Red  json.RawMessage `json:"red"`
		Blue json.RawMessage `json:"blue"`
	}
	if json.Unmarshal(raw, &obj) != nil || !isNumber(obj.Red) {
		return Teams{}, false
	}
	var red, blue flexNumber
	_ = red.UnmarshalJSON(obj.Red)
	_ = blue.UnmarshalJSON(obj.Blue)
	return Teams{Red: RoundScore{red.Int()}, Blue: RoundScore{blue.Int()}}, true
}

func arrayTeams(raw json.RawMessage) (Teams, bool) {
	var list []struct {
		TeamID flexString `json:"team_id"`
		Rounds struct {
			Won flexNumber `json:"won"`
		} `json:"rounds"`
	}
	if json.Unmarshal(raw, &list) != nil || len(list) == 0 {
		return Teams{}, false
	}
	var t Teams
	found := false
	for _, entry := range list {
		switch ParseSide(string(entry.TeamID)) {
		case SideRed:
			t.Red.RoundsWon = entry.Rounds.Won.Int()
			found = true
		case SideBlue:
			t.Blue.RoundsWon = entry.Rounds.Won.Int()
			found = true
		}
	}
	return t, found
}

func nestedTeams(raw json.RawMessage) (Teams, bool) {
	type side struct {
		RoundsWon flexNumber `json:"rounds_won"`
	}
	var obj struct {
		Red  *side `json:"red"`
		Blue *side `json:"blue"`
	}
	if json.Unmarshal(raw, &obj) != nil || obj.Red == nil || !obj.Red.RoundsWon.Valid {
		return Teams{}, false
	}
	t := Teams{Red: RoundScore{obj.Red.RoundsWon.Int()}}
	if obj.Blue != nil {
		t.Blue.RoundsWon = obj.Blue.RoundsWon.Int()
	}
	return t, true
}

func isNumber(b []byte) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 0 && (b[0] == '-' || (b[0] >= '0' && b[0] <= '9'))
}

// Player-level rules.

var playerTeamRules = []Rule[*rawPlayer, Side]{
	{"team_id", func(p *rawPlayer) (Side, bool) {
		s := ParseSide(string(p.TeamID))
		return s, s != SideUnknown
	}},
	{"team", func(p *rawPlayer) (Side, bool) {
		s := ParseSide(string(p.Team))
		return s, s != SideUnknown
	}},
}

// combatRule reads a counter from player.stats first, then from the
// flattened legacy block.
func combatRule(path string, get func(*rawCombat) flexNumber) []Rule[*rawPlayer, int] {
	return []Rule[*rawPlayer, int]{
		{"stats." + path, func(p *rawPlayer) (int, bool) {
			if p.Stats == nil {
				return 0, false
			}
			return num(get(p.Stats))
		}},
		{path, func(p *rawPlayer) (int, bool) {
			return num(get(&p.rawCombat))
		}},
	}
}

var (
	killsRules   = combatRule("kills", func(c *rawCombat) flexNumber { return c.Kills })
	deathsRules  = combatRule("deaths", func(c *rawCombat) flexNumber { return c.Deaths })
	assistsRules = combatRule("assists", func(c *rawCombat) flexNumber { return c.Assists })
	scoreRules   = combatRule("score", func(c *rawCombat) flexNumber { return c.Score })
)

var headshotRules = append(
	combatRule("headshots", func(c *rawCombat) flexNumber { return c.Headshots }),
	combatRule("shots.head", func(c *rawCombat) flexNumber { return c.Shots.Head })...,
)

var bodyshotRules = append(
	combatRule("bodyshots", func(c *rawCombat) flexNumber { return c.Bodyshots }),
	combatRule("shots.body", func(c *rawCombat) flexNumber { return c.Shots.Body })...,
)

var legshotRules = append(
	combatRule("legshots", func(c *rawCombat) flexNumber { return c.Legshots }),
	combatRule("shots.leg", func(c *rawCombat) flexNumber { return c.Shots.Leg })...,
)

var damageRules = []Rule[*rawPlayer, int]{
	{"stats.damage.dealt", func(p *rawPlayer) (int, bool) {
		if p.Stats == nil {
			return 0, false
		}
		return num(p.Stats.Damage.Dealt)
	}},
	{"damage_made", func(p *rawPlayer) (int, bool) { return num(p.DamageMade) }},
	{"stats.damage.made", func(p *rawPlayer) (int, bool) {
		if p.Stats != nil && p.Stats.Damage.Made.Valid {
			return num(p.Stats.Damage.Made)
		}
		return num(p.Damage.Made)
	}},
}

var agentIDRules = []Rule[*rawPlayer, string]{
	{"agent.id", func(p *rawPlayer) (string, bool) { return text(p.Agent.ID) }},
	{"character.id", func(p *rawPlayer) (string, bool) { return text(p.Character.ID) }},
}

var agentNameRules = []Rule[*rawPlayer, string]{
	{"agent.name", func(p *rawPlayer) (string, bool) { return text(p.Agent.Name) }},
	{"character", func(p *rawPlayer) (string, bool) { return text(p.Character.Text) }},
	{"character.name", func(p *rawPlayer) (string, bool) { return text(p.Character.Name) }},
}

var agentIconRules = []Rule[*rawPlayer, string]{
	{"agent.id", func(p *rawPlayer) (string, bool) {
		id := resolve(p, agentIDRules, "")
		if id == "" {
			return "", false
		}
		return fmt.Sprintf(AgentIconURL, id), true
	}},
	{"assets.agent.small", func(p *rawPlayer) (string, bool) { return str(p.Assets.Agent.Small) }},
}

var rankLabelRules = []Rule[*rawPlayer, string]{
	{"tier.name", func(p *rawPlayer) (string, bool) { return text(p.Tier.Name) }},
	{"currenttier_patched", func(p *rawPlayer) (string, bool) { return str(p.CurrentTierPatched) }},
}

// Round-level rules.

var roundEndRules = []Rule[*rawRound, RoundEndType]{
	{"result", func(r *rawRound) (RoundEndType, bool) { return parseEndType(string(r.Result)) }},
	{"end_type", func(r *rawRound) (RoundEndType, bool) { return parseEndType(string(r.EndType)) }},
}

func parseEndType(s string) (RoundEndType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "elimination", "eliminated":
		return EndEliminated, true
	case "bomb defused", "defused":
		return EndBombDefused, true
	case "bomb detonated", "detonated":
		return EndBombDetonated, true
	case "round timer expired", "time expired", "timer expired":
		return EndTimeExpired, true
	case "surrendered", "surrender":
		return EndSurrendered, true
	default:
		return EndUnknown, false
	}
}

var roundPlayerNameRules = []Rule[*rawRoundStat, string]{
	{"player.name", func(s *rawRoundStat) (string, bool) { return text(s.Player.Name) }},
	{"player_display_name", func(s *rawRoundStat) (string, bool) {
		name, _, _ := strings.Cut(string(s.PlayerDisplayName), "#")
		return text(name)
	}},
}

var roundPlayerKillRules = []Rule[*rawRoundStat, int]{
	{"stats.kills", func(s *rawRoundStat) (int, bool) { return num(s.Stats.Kills) }},
	{"kills", func(s *rawRoundStat) (int, bool) { return num(s.Kills) }},
}
