package match

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const currentDoc = `{
  "metadata": {
    "match_id": "m-current",
    "map": {"id": "map-1", "name": "Ascent"},
    "game_length_in_ms": 2460000,
    "started_at": "2025-03-01T18:30:00.000Z",
    "queue": {"id": "competitive", "name": "Competitive"},
    "season": {"id": "4C4B8CFF-43EB-13D3-8F14-96B783C90CD2", "short": "e9a3"}
  },
  "players": [
    {
      "puuid": "p-1", "name": "Kira", "tag": "EUW", "team_id": "Red",
      "agent": {"id": "agent-jett", "name": "Jett"},
      "tier": {"id": 18, "name": "Diamond 1"},
      "stats": {"score": 5200, "kills": 21, "deaths": 14, "assists": 4,
                "headshots": 20, "bodyshots": 55, "legshots": 5,
                "damage": {"dealt": 3400, "received": 2900}}
    },
    {
      "puuid": "p-2", "name": "Other", "tag": "0001", "team_id": "Blue",
      "agent": {"id": "agent-sova", "name": "Sova"},
      "stats": {"score": 3100, "kills": 12, "deaths": 18, "assists": 9}
    }
  ],
  "teams": [
    {"team_id": "Red", "rounds": {"won": 13, "lost": 9}, "won": true},
    {"team_id": "Blue", "rounds": {"won": 9, "lost": 13}, "won": false}
  ],
  "rounds": [
    {"id": 0, "result": "Elimination", "winning_team": "Red",
     "stats": [{"player": {"name": "Kira", "tag": "EUW"}, "stats": {"kills": 2}}]},
    {"id": 1, "result": "Bomb defused", "winning_team": "Blue", "stats": []}
  ]
}`

const legacyDoc = `{
  "meta": {
    "id": "m-legacy",
    "map": {"id": "map-2", "name": "Haven"},
    "mode": "Competitive",
    "started_at": "2025-02-20T10:00:00Z",
    "season": {"id": "4c4b8cff-43eb-13d3-8f14-96b783c90cd2", "short": "e9a3"}
  },
  "stats": {
    "puuid": "p-1", "team": "Blue", "level": 120,
    "character": {"id": "agent-omen", "name": "Omen"},
    "tier": 18, "score": 4100, "kills": 17, "deaths": 15, "assists": 6,
    "shots": {"head": 10, "body": 30, "leg": 2},
    "damage": {"made": 2800, "received": 2600}
  },
  "teams": {"red": 13, "blue": 7}
}`

const v3Doc = `{
  "metadata": {
    "matchid": "ignored",
    "map": "Bind",
    "mode": "Competitive",
    "game_start": 1740000000,
    "game_length": 1980,
    "season_id": "f2e32730-4655-8ff2-24f7-c5a8eb68f503"
  },
  "players": {
    "all_players": [
      {"puuid": "p-9", "name": "Vet", "tag": "NA1", "team": "Red",
       "character": "Sage", "currenttier_patched": "Gold 2",
       "assets": {"agent": {"small": "https://cdn.example/sage.png"}},
       "damage_made": 2100,
       "stats": {"score": 3900, "kills": 15, "deaths": 12, "assists": 8,
                 "headshots": 9, "bodyshots": 40, "legshots": 3}}
    ]
  },
  "teams": {"red": {"has_won": false, "rounds_won": 11, "rounds_lost": 13},
            "blue": {"has_won": true, "rounds_won": 13, "rounds_lost": 11}},
  "rounds": [
    {"winning_team": "Blue", "end_type": "Bomb detonated",
     "player_stats": [{"player_display_name": "Vet#NA1", "kills": 1}]}
  ]
}`

func TestNormalizeCurrentShape(t *testing.T) {
	rec := Normalize(json.RawMessage(currentDoc))

	assert.Equal(t, "m-current", rec.MatchID)
	assert.Equal(t, time.Date(2025, 3, 1, 18, 30, 0, 0, time.UTC), rec.StartedAt)
	assert.Equal(t, "4c4b8cff-43eb-13d3-8f14-96b783c90cd2", rec.SeasonID, "season id is lower-cased")
	assert.Equal(t, "Ascent", rec.Map)
	assert.Equal(t, "Competitive", rec.Mode)
	assert.Equal(t, 41, rec.DurationMinutes)
	assert.Equal(t, Teams{Red: RoundScore{13}, Blue: RoundScore{9}}, rec.Teams)
	assert.False(t, rec.Slim)

	require.Len(t, rec.Players, 2)
	kira := rec.Players[0]
	assert.Equal(t, "Kira", kira.Name)
	assert.Equal(t, SideRed, kira.Team)
	assert.Equal(t, 21, kira.Kills)
	assert.Equal(t, 14, kira.Deaths)
	assert.Equal(t, 20, kira.Headshots)
	assert.Equal(t, 3400, kira.DamageDealt)
	assert.Equal(t, "Jett", kira.Agent.DisplayName)
	assert.Equal(t, "https://media.valorant-api.com/agents/agent-jett/displayicon.png", kira.Agent.IconURL)
	assert.Equal(t, "Diamond 1", kira.RankLabel)
	assert.Empty(t, rec.Players[1].RankLabel)

	require.Len(t, rec.Rounds, 2)
	assert.Equal(t, RoundEvent{
		WinningTeam: SideRed,
		EndType:     EndEliminated,
		PlayerStats: []RoundPlayerKills{{PlayerName: "Kira", Kills: 2}},
	}, rec.Rounds[0])
	assert.Equal(t, EndBombDefused, rec.Rounds[1].EndType)
	assert.Nil(t, rec.Rounds[1].PlayerStats)
}

func TestNormalizeLegacyShape(t *testing.T) {
	m, err := Decode(json.RawMessage(legacyDoc))
	require.NoError(t, err)
	assert.Equal(t, ShapeLegacy, m.Shape())

	rec := m.Normalize()
	assert.Equal(t, "m-legacy", rec.MatchID)
	assert.Equal(t, "4c4b8cff-43eb-13d3-8f14-96b783c90cd2", rec.SeasonID)
	assert.Equal(t, "Haven", rec.Map)
	assert.Equal(t, Teams{Red: RoundScore{13}, Blue: RoundScore{7}}, rec.Teams)
	assert.True(t, rec.Slim)
	assert.Nil(t, rec.Rounds)

	require.Len(t, rec.Players, 1)
	p := rec.Players[0]
	assert.Equal(t, UnknownName, p.Name)
	assert.Equal(t, SideBlue, p.Team)
	assert.Equal(t, 17, p.Kills)
	assert.Equal(t, 10, p.Headshots)
	assert.Equal(t, 30, p.Bodyshots)
	assert.Equal(t, 2, p.Legshots)
	assert.Equal(t, 2800, p.DamageDealt)
	assert.Equal(t, "Omen", p.Agent.DisplayName)
	assert.Equal(t, "agent-omen", p.Agent.ID)
	assert.Empty(t, p.RankLabel, "numeric tiers carry no label")
}

func TestNormalizeAllPlayersShape(t *testing.T) {
	m, err := Decode(json.RawMessage(v3Doc))
	require.NoError(t, err)
	assert.Equal(t, ShapeCurrent, m.Shape())

	rec := m.Normalize()
	assert.Empty(t, rec.MatchID)
	assert.Equal(t, time.Unix(1740000000, 0).UTC(), rec.StartedAt)
	assert.Equal(t, "f2e32730-4655-8ff2-24f7-c5a8eb68f503", rec.SeasonID)
	assert.Equal(t, "Bind", rec.Map)
	assert.Equal(t, 33, rec.DurationMinutes)
	assert.Equal(t, Teams{Red: RoundScore{11}, Blue: RoundScore{13}}, rec.Teams)

	require.Len(t, rec.Players, 1)
	p := rec.Players[0]
	assert.Equal(t, SideRed, p.Team)
	assert.Equal(t, "Sage", p.Agent.DisplayName)
	assert.Equal(t, "https://cdn.example/sage.png", p.Agent.IconURL)
	assert.Equal(t, "Gold 2", p.RankLabel)
	assert.Equal(t, 2100, p.DamageDealt)

	require.Len(t, rec.Rounds, 1)
	assert.Equal(t, EndBombDetonated, rec.Rounds[0].EndType)
	assert.Equal(t, []RoundPlayerKills{{PlayerName: "Vet", Kills: 1}}, rec.Rounds[0].PlayerStats)
}

func TestNormalizeTeamShapes(t *testing.T) {
	tests := []struct {
		name  string
		teams string
		want  Teams
		rule  string
	}{
		{"numbers", `{"red": 13, "blue": 7}`, Teams{Red: RoundScore{13}, Blue: RoundScore{7}}, "teams.red|blue (number)"},
		{
			"array",
			`[{"team_id": "Red", "rounds": {"won": 9}}, {"team_id": "Blue", "rounds": {"won": 13}}]`,
			Teams{Red: RoundScore{9}, Blue: RoundScore{13}},
			"teams[].rounds.won",
		},
		{
			"nested",
			`{"red": {"rounds_won": 4}, "blue": {"rounds_won": 13}}`,
			Teams{Red: RoundScore{4}, Blue: RoundScore{13}},
			"teams.red|blue.rounds_won",
		},
		{"unresolvable", `{"attackers": 3}`, Teams{}, ""},
		{"wrong type", `"13-7"`, Teams{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := json.RawMessage(`{"metadata": {"match_id": "x"}, "teams": ` + tt.teams + `}`)
			rec := Normalize(raw)
			assert.Equal(t, tt.want, rec.Teams)

			m, err := Decode(raw)
			require.NoError(t, err)
			assert.Equal(t, tt.rule, resolvedBy(m.Teams, teamRules))
		})
	}
}

func TestResolutionPrecedence(t *testing.T) {
	raw := json.RawMessage(`{
	  "metadata": {"match_id": "new-id", "started_at": "2025-01-02T00:00:00Z",
	               "season": {"id": "s-obj"}, "season_id": "s-flat"},
	  "meta": {"id": "old-id", "started_at": "2024-01-01T00:00:00Z"}
	}`)
	m, err := Decode(raw)
	require.NoError(t, err)

	assert.Equal(t, "metadata.match_id", resolvedBy(m, matchIDRules))
	assert.Equal(t, "metadata.started_at", resolvedBy(m, startedAtRules))
	assert.Equal(t, "metadata.season.id", resolvedBy(m, seasonIDRules))

	rec := m.Normalize()
	assert.Equal(t, "new-id", rec.MatchID)
	assert.Equal(t, "s-obj", rec.SeasonID)

	onlyFlat := json.RawMessage(`{"metadata": {"season_id": "S-FLAT"}, "meta": {"id": "old-id"}}`)
	rec = Normalize(onlyFlat)
	assert.Equal(t, "old-id", rec.MatchID)
	assert.Equal(t, "s-flat", rec.SeasonID)
}

func TestNormalizeNeverFails(t *testing.T) {
	inputs := []string{
		``,
		`null`,
		`[]`,
		`"match"`,
		`{}`,
		`{"metadata": "broken", "players": 7, "teams": null, "rounds": {"a": 1}}`,
		`{"metadata": {"started_at": "yesterday", "game_length_in_ms": "n/a"}}`,
		`{"players": [{"stats": {"kills": "12", "deaths": null}}]}`,
	}

	for _, in := range inputs {
		rec := Normalize(json.RawMessage(in))
		assert.Equal(t, time.Unix(0, 0).UTC(), rec.StartedAt, "input %q", in)
		assert.Equal(t, UnknownName, rec.Map, "input %q", in)
		assert.NotNil(t, rec.Players, "input %q", in)
		assert.Equal(t, Teams{}, rec.Teams, "input %q", in)
	}

	rec := Normalize(json.RawMessage(inputs[len(inputs)-1]))
	require.Len(t, rec.Players, 1)
	assert.Equal(t, 12, rec.Players[0].Kills, "numeric strings are accepted")
	assert.Equal(t, 0, rec.Players[0].Deaths)
	assert.Equal(t, UnknownName, rec.Players[0].Name)
	assert.Equal(t, UnknownName, rec.Players[0].Agent.DisplayName)
	assert.Empty(t, rec.Players[0].Agent.IconURL)
}

func TestStartedAtMilliseconds(t *testing.T) {
	rec := Normalize(json.RawMessage(`{"meta": {"id": "x", "started_at": 1740000000123}}`))
	assert.Equal(t, time.UnixMilli(1740000000123).UTC(), rec.StartedAt)
}

func TestRecordMarshalNullSeason(t *testing.T) {
	b, err := json.Marshal(Record{MatchID: "a"})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"seasonId":null`)

	b, err = json.Marshal(Record{MatchID: "a", SeasonID: "s"})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"seasonId":"s"`)
}

func TestFlexNumberRange(t *testing.T) {
	tests := []struct {
		in    string
		want  int
		valid bool
	}{
		{`12`, 12, true},
		{`"-3.9"`, -3, true},
		{`2147483647`, math.MaxInt32, true},
		{`1e30`, 0, false},
		{`"-1e30"`, 0, false},
		{`null`, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var n flexNumber
			require.NoError(t, n.UnmarshalJSON([]byte(tt.in)))
			got, ok := num(n)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.valid, ok)
			assert.Equal(t, tt.want, n.Int())
		})
	}
}

func TestNormalizeOutOfRangeCounts(t *testing.T) {
	rec := Normalize(json.RawMessage(`{
	  "teams": {"red": 1e30, "blue": 11},
	  "players": [{"name": "Kira", "tag": "EUW", "team_id": "Red",
	               "stats": {"kills": 1e30, "deaths": 9, "score": 4000,
	                         "headshots": 1e40, "shots": {"head": 6}}}]
	}`))

	require.Len(t, rec.Players, 1)
	p := rec.Players[0]
	assert.Equal(t, 0, p.Kills)
	assert.Equal(t, 9, p.Deaths)
	assert.Equal(t, 6, p.Headshots, "falls through to the next alternative")
	assert.Equal(t, 0, rec.Teams.Red.RoundsWon)
	assert.Equal(t, 11, rec.Teams.Blue.RoundsWon)
}
