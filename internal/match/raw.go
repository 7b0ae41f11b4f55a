package match

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Shape identifies which provider schema a raw match document follows.
type Shape int

const (
	ShapeUnknown Shape = iota
	// ShapeCurrent is the metadata / players / teams document (match APIs v2-v4).
	ShapeCurrent
	// ShapeLegacy is the meta / stats / teams document returned by stored-match
	// lookups, which only carries the searched player's stats.
	ShapeLegacy
)

func (s Shape) String() string {
	switch s {
	case ShapeCurrent:
		return "current"
	case ShapeLegacy:
		return "legacy"
	default:
		return "unknown"
	}
}

// RawMatch is a provider match document decoded into the union of the
// known schema variants. Sections that fail to decode are left empty.
type RawMatch struct {
	Metadata *rawMetadata
	Meta     *rawMetadata
	Players  rawPlayers
	Stats    *rawPlayer
	Teams    json.RawMessage
	Rounds   []rawRound
}

// Decode parses a raw provider document. It only fails when raw is not a
// JSON object; malformed sections are skipped.
func Decode(raw json.RawMessage) (*RawMatch, error) {
	var sections map[string]json.RawMessage
	if err := json.Unmarshal(raw, &sections); err != nil {
		return nil, fmt.Errorf("decode match document: %w", err)
	}
	if sections == nil {
		return nil, fmt.Errorf("decode match document: null")
	}

	m := &RawMatch{}
	if b, ok := present(sections, "metadata"); ok {
		var md rawMetadata
		if json.Unmarshal(b, &md) == nil {
			m.Metadata = &md
		}
	}
	if b, ok := present(sections, "meta"); ok {
		var md rawMetadata
		if json.Unmarshal(b, &md) == nil {
			m.Meta = &md
		}
	}
	if b, ok := present(sections, "players"); ok {
		_ = json.Unmarshal(b, &m.Players)
	}
	if b, ok := present(sections, "stats"); ok {
		var p rawPlayer
		if json.Unmarshal(b, &p) == nil {
			m.Stats = &p
		}
	}
	if b, ok := present(sections, "teams"); ok {
		m.Teams = b
	}
	if b, ok := present(sections, "rounds"); ok {
		var rounds []rawRound
		if json.Unmarshal(b, &rounds) == nil {
			m.Rounds = rounds
		}
	}
	return m, nil
}

// Shape reports which schema variant the document follows.
func (m *RawMatch) Shape() Shape {
	switch {
	case m.Metadata != nil:
		return ShapeCurrent
	case m.Meta != nil, m.Stats != nil:
		return ShapeLegacy
	default:
		return ShapeUnknown
	}
}

// block is the metadata section, falling back to the legacy meta section.
func (m *RawMatch) block() *rawMetadata {
	if m.Metadata != nil {
		return m.Metadata
	}
	return m.Meta
}

func present(sections map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	b, ok := sections[key]
	if !ok || isNull(b) {
		return nil, false
	}
	return b, true
}

func isNull(b []byte) bool {
	b = bytes.TrimSpace(b)
	return len(b) == 0 || bytes.Equal(b, []byte("null"))
}

type rawMetadata struct {
	MatchID      flexString `json:"match_id"`
	ID           flexString `json:"id"`
	StartedAt    flexTime   `json:"started_at"`
	GameStart    flexTime   `json:"game_start"`
	Season       rawNamed   `json:"season"`
	SeasonID     flexString `json:"season_id"`
	Map          rawNamed   `json:"map"`
	Mode         flexString `json:"mode"`
	Queue        rawNamed   `json:"queue"`
	GameLengthMS flexNumber `json:"game_length_in_ms"`
	GameLength   flexNumber `json:"game_length"`
}

// rawPlayers is either a plain player list or the {all_players: [...]} object.
type rawPlayers struct {
	List       []rawPlayer
	AllPlayers []rawPlayer
}

func (p *rawPlayers) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}
	switch b[0] {
	case '[':
		var list []rawPlayer
		if json.Unmarshal(b, &list) == nil {
			p.List = list
		}
	case '{':
		var grouped struct {
			AllPlayers []rawPlayer `json:"all_players"`
		}
		if json.Unmarshal(b, &grouped) == nil {
			p.AllPlayers = grouped.AllPlayers
		}
	}
	return nil
}

// rawCombat holds per-player combat counters. It appears as player.stats in
// the current shape and flattened into the legacy stats block.
type rawCombat struct {
	Score     flexNumber `json:"score"`
	Kills     flexNumber `json:"kills"`
	Deaths    flexNumber `json:"deaths"`
	Assists   flexNumber `json:"assists"`
	Headshots flexNumber `json:"headshots"`
	Bodyshots flexNumber `json:"bodyshots"`
	Legshots  flexNumber `json:"legshots"`
	Shots     struct {
		Head flexNumber `json:"head"`
		Body flexNumber `json:"body"`
		Leg  flexNumber `json:"leg"`
	} `json:"shots"`
	Damage rawDamage `json:"damage"`
}

type rawDamage struct {
	Dealt flexNumber
	Made  flexNumber
}

func (d *rawDamage) UnmarshalJSON(b []byte) error {
	var obj struct {
		Dealt flexNumber `json:"dealt"`
		Made  flexNumber `json:"made"`
	}
	if json.Unmarshal(b, &obj) == nil {
		d.Dealt, d.Made = obj.Dealt, obj.Made
	}
	return nil
}

type rawPlayer struct {
	rawCombat
	PUUID              flexString `json:"puuid"`
	Name               flexString `json:"name"`
	Tag                flexString `json:"tag"`
	TeamID             flexString `json:"team_id"`
	Team               flexString `json:"team"`
	Agent              rawNamed   `json:"agent"`
	Character          rawNamed   `json:"character"`
	Tier               rawNamed   `json:"tier"`
	CurrentTierPatched flexString `json:"currenttier_patched"`
	DamageMade         flexNumber `json:"damage_made"`
	Assets             struct {
		Agent struct {
			Small flexString `json:"small"`
		} `json:"agent"`
	} `json:"assets"`
	Stats *rawCombat `json:"stats"`
}

type rawRound struct {
	WinningTeam flexString     `json:"winning_team"`
	Result      flexString     `json:"result"`
	EndType     flexString     `json:"end_type"`
	Stats       []rawRoundStat `json:"stats"`
	PlayerStats []rawRoundStat `json:"player_stats"`
}

type rawRoundStat struct {
	Player            rawNamed   `json:"player"`
	PlayerDisplayName flexString `json:"player_display_name"`
	Kills             flexNumber `json:"kills"`
	Stats             struct {
		Kills flexNumber `json:"kills"`
	} `json:"stats"`
}

// rawNamed is an {id, name, short} object that some schema versions
// collapse into a bare string.
type rawNamed struct {
	Text  string
	ID    string
	Name  string
	Short string
}

func (n *rawNamed) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if json.Unmarshal(b, &s) == nil {
			n.Text = strings.TrimSpace(s)
		}
	case '{':
		var obj struct {
			ID    flexString `json:"id"`
			Name  flexString `json:"name"`
			Short flexString `json:"short"`
		}
		if json.Unmarshal(b, &obj) == nil {
			n.ID, n.Name, n.Short = string(obj.ID), string(obj.Name), string(obj.Short)
		}
	}
	return nil
}

// flexString accepts strings and numbers; anything else decodes to "".
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}
	switch {
	case b[0] == '"':
		var v string
		if json.Unmarshal(b, &v) == nil {
			*s = flexString(strings.TrimSpace(v))
		}
	case b[0] == '-' || (b[0] >= '0' && b[0] <= '9'):
		*s = flexString(b)
	}
	return nil
}

// flexNumber accepts numbers and numeric strings. Valid is false when the
// field was absent, null or not numeric.
type flexNumber struct {
	Value float64
	Valid bool
}

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || isNull(b) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if json.Unmarshal(b, &s) != nil {
			return nil
		}
		b = []byte(strings.TrimSpace(s))
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	n.Value, n.Valid = v, true
	return nil
}

// Int rounds toward zero. Values outside the int32 range are not plausible
// counts and read as 0.
func (n flexNumber) Int() int {
	v, _ := n.count()
	return v
}

func (n flexNumber) count() (int, bool) {
	if !n.Valid || math.Abs(n.Value) > math.MaxInt32 {
		return 0, false
	}
	return int(n.Value), true
}

// flexTime accepts RFC 3339 strings and unix timestamps in seconds or
// milliseconds.
type flexTime struct {
	Time  time.Time
	Valid bool
}

// Timestamps above this are treated as milliseconds (year 33658 in seconds).
const millisThreshold = 1e12

func (t *flexTime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || isNull(b) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if json.Unmarshal(b, &s) != nil {
			return nil
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
			if parsed, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
				t.Time, t.Valid = parsed.UTC(), true
				return nil
			}
		}
		return nil
	}
	var n flexNumber
	_ = n.UnmarshalJSON(b)
	if !n.Valid || n.Value <= 0 {
		return nil
	}
	if n.Value >= millisThreshold {
		t.Time = time.UnixMilli(int64(n.Value)).UTC()
	} else {
		t.Time = time.Unix(int64(n.Value), 0).UTC()
	}
	t.Valid = true
	return nil
}
