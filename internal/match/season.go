package match

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// SeasonInfo names a competitive act.
type SeasonInfo struct {
	ID    string `json:"id"`
	Short string `json:"short"`
	Name  string `json:"name"`
}

// KnownSeasons lists the acts the dashboard can label, newest first.
var KnownSeasons = []SeasonInfo{
	{ID: "4c4b8cff-43eb-13d3-8f14-96b783c90cd2", Short: "v25a6", Name: "Episode 9 - Act III"},
	{ID: "52dd6f00-463a-18a1-80aa-649c3e38a59e", Short: "v25a6", Name: "Episode 9 - Act III"},
	{ID: "f2e32730-4655-8ff2-24f7-c5a8eb68f503", Short: "v25a5", Name: "Episode 9 - Act II"},
	{ID: "10067180-4a7b-e509-0993-ca9f24ea1b07", Short: "v25a4", Name: "Episode 9 - Act I"},
	{ID: "e94d2ea8-4b13-5819-98fe-8d920d0f5fc5", Short: "v24a3", Name: "Episode 8 - Act III"},
}

// Season is the competitive season the tracker keeps matches for.
type Season struct {
	id string
}

// NewSeason validates id as a season uuid.
func NewSeason(id string) (Season, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return Season{}, fmt.Errorf("parse season id %q: %w", id, err)
	}
	return Season{id: parsed.String()}, nil
}

// MustSeason is NewSeason for constants and tests.
func MustSeason(id string) Season {
	s, err := NewSeason(id)
	if err != nil {
		panic(err)
	}
	return s
}

// ID returns the canonical lower-case season uuid.
func (s Season) ID() string {
	return s.id
}

// IsCurrent reports whether rec belongs to this season. Records without a
// season never do.
func (s Season) IsCurrent(rec Record) bool {
	return s.id != "" && rec.SeasonID == s.id
}

// Info returns the catalog entry for the season, or a bare entry when the
// id is not catalogued.
func (s Season) Info() SeasonInfo {
	for _, info := range KnownSeasons {
		if info.ID == s.id {
			return info
		}
	}
	return SeasonInfo{ID: s.id, Name: "Current season"}
}
