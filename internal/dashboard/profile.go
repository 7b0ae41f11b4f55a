package dashboard

import (
	"math"
	"strings"

	"tracker/internal/henrik"
)

const (
	unranked       = "Unranked"
	noPeakSeason   = "-"
	fallbackRegion = "eu"
)

// Rank is the competitive summary shown on the profile card.
type Rank struct {
	Current       string `json:"current"`
	RR            int    `json:"rr"`
	RRChange      int    `json:"rrChange"`
	Peak          string `json:"peak"`
	PeakSeason    string `json:"peakSeason"`
	SeasonWins    int    `json:"seasonWins"`
	SeasonGames   int    `json:"seasonGames"`
	SeasonWinRate int    `json:"seasonWinRate"`
}

// Profile is the player card: identity, art and rank.
type Profile struct {
	PUUID        string `json:"puuid"`
	Name         string `json:"name"`
	Tag          string `json:"tag"`
	Region       string `json:"region"`
	AccountLevel int    `json:"accountLevel"`
	CardWide     string `json:"cardWide,omitempty"`
	CardSmall    string `json:"cardSmall,omitempty"`
	Rank         Rank   `json:"rank"`
}

// BuildProfile derives the card from the account and an optional rank.
func BuildProfile(account *henrik.Account, mmr *henrik.MMR, defaultRegion string) Profile {
	return Profile{
		PUUID:        account.PUUID,
		Name:         account.Name,
		Tag:          account.Tag,
		Region:       regionOf(account, defaultRegion),
		AccountLevel: account.AccountLevel,
		CardWide:     account.Card.WideURL(),
		CardSmall:    account.Card.SmallURL(),
		Rank:         BuildRank(mmr),
	}
}

// BuildRank reads the rank payload. Without one the player is Unranked.
func BuildRank(mmr *henrik.MMR) Rank {
	r := Rank{Current: unranked, PeakSeason: noPeakSeason}
	if mmr == nil {
		r.Peak = r.Current
		return r
	}

	if name := mmr.Current.Tier.Name; name != "" {
		r.Current = name
	}
	r.RR = mmr.Current.RR
	r.RRChange = mmr.Current.RRChange

	r.Peak = r.Current
	if name := mmr.Peak.Tier.Name; name != "" {
		r.Peak = name
	}
	if short := mmr.Peak.Season.Short; short != "" {
		r.PeakSeason = short
	}

	if len(mmr.Seasonal) > 0 {
		first := mmr.Seasonal[0]
		r.SeasonWins = first.Wins
		r.SeasonGames = first.Games
		if first.Games > 0 {
			r.SeasonWinRate = int(math.Round(float64(first.Wins) / float64(first.Games) * 100))
		}
	}
	return r
}

func regionOf(account *henrik.Account, defaultRegion string) string {
	if region := strings.ToLower(strings.TrimSpace(account.Region)); region != "" {
		return region
	}
	if defaultRegion != "" {
		return defaultRegion
	}
	return fallbackRegion
}
