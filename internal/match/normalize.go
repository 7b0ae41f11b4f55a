package match

import (
	"encoding/json"
	"time"
)

// Normalize maps one provider match document onto a Record. It never fails:
// missing or undecodable fields take their defaults.
func Normalize(raw json.RawMessage) Record {
	m, err := Decode(raw)
	if err != nil {
		return defaultRecord()
	}
	return m.Normalize()
}

// NormalizeAll normalizes every document in order.
func NormalizeAll(raws []json.RawMessage) []Record {
	out := make([]Record, 0, len(raws))
	for _, raw := range raws {
		out = append(out, Normalize(raw))
	}
	return out
}

// Normalize builds the canonical record from the decoded document.
func (m *RawMatch) Normalize() Record {
	rec := Record{
		MatchID:         resolve(m, matchIDRules, ""),
		StartedAt:       resolve(m, startedAtRules, time.Unix(0, 0).UTC()),
		SeasonID:        resolve(m, seasonIDRules, ""),
		Map:             resolve(m, mapRules, UnknownName),
		Mode:            resolve(m, modeRules, DefaultMode),
		DurationMinutes: resolve(m, durationRules, 0),
		Teams:           resolve(m.Teams, teamRules, Teams{}),
	}

	switch {
	case len(m.Players.List) > 0:
		rec.Players = normalizePlayers(m.Players.List)
	case len(m.Players.AllPlayers) > 0:
		rec.Players = normalizePlayers(m.Players.AllPlayers)
	case m.Stats != nil:
		rec.Players = []PlayerStats{normalizePlayer(m.Stats)}
		rec.Slim = true
	default:
		rec.Players = []PlayerStats{}
	}

	if len(m.Rounds) > 0 {
		rec.Rounds = make([]RoundEvent, 0, len(m.Rounds))
		for i := range m.Rounds {
			rec.Rounds = append(rec.Rounds, normalizeRound(&m.Rounds[i]))
		}
	}

	return rec
}

func defaultRecord() Record {
	return Record{
		StartedAt: time.Unix(0, 0).UTC(),
		Map:       UnknownName,
		Mode:      DefaultMode,
		Players:   []PlayerStats{},
	}
}

func normalizePlayers(raw []rawPlayer) []PlayerStats {
	out := make([]PlayerStats, 0, len(raw))
	for i := range raw {
		out = append(out, normalizePlayer(&raw[i]))
	}
	return out
}

func normalizePlayer(p *rawPlayer) PlayerStats {
	name := string(p.Name)
	if name == "" {
		name = UnknownName
	}
	return PlayerStats{
		Name:        name,
		Tag:         string(p.Tag),
		PUUID:       string(p.PUUID),
		Team:        resolve(p, playerTeamRules, SideUnknown),
		Kills:       resolve(p, killsRules, 0),
		Deaths:      resolve(p, deathsRules, 0),
		Assists:     resolve(p, assistsRules, 0),
		Score:       resolve(p, scoreRules, 0),
		Headshots:   resolve(p, headshotRules, 0),
		Bodyshots:   resolve(p, bodyshotRules, 0),
		Legshots:    resolve(p, legshotRules, 0),
		DamageDealt: resolve(p, damageRules, 0),
		Agent: Agent{
			ID:          resolve(p, agentIDRules, ""),
			DisplayName: resolve(p, agentNameRules, UnknownName),
			IconURL:     resolve(p, agentIconRules, ""),
		},
		RankLabel: resolve(p, rankLabelRules, ""),
	}
}

func normalizeRound(r *rawRound) RoundEvent {
	ev := RoundEvent{
		WinningTeam: ParseSide(string(r.WinningTeam)),
		EndType:     resolve(r, roundEndRules, EndUnknown),
	}
	stats := r.Stats
	if len(stats) == 0 {
		stats = r.PlayerStats
	}
	if len(stats) > 0 {
		ev.PlayerStats = make([]RoundPlayerKills, 0, len(stats))
		for i := range stats {
			ev.PlayerStats = append(ev.PlayerStats, RoundPlayerKills{
				PlayerName: resolve(&stats[i], roundPlayerNameRules, UnknownName),
				Kills:      resolve(&stats[i], roundPlayerKillRules, 0),
			})
		}
	}
	return ev
}
