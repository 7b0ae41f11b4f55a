package henrik

import (
	"encoding/json"
	"fmt"
)

const playerCardURL = "https://media.valorant-api.com/playercards/%s/%s.png"

// envelope is the wrapper every provider response carries.
type envelope struct {
	Status int             `json:"status"`
	Errors []apiMessage    `json:"errors"`
	Data   json.RawMessage `json:"data"`
}

type apiMessage struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// Account is the v2 account payload.
type Account struct {
	PUUID        string `json:"puuid"`
	Region       string `json:"region"`
	AccountLevel int    `json:"account_level"`
	Name         string `json:"name"`
	Tag          string `json:"tag"`
	Card         Card   `json:"card"`
	LastUpdate   string `json:"last_update"`
}

// Card is a player card. The provider sends either the card uuid as a
// string or an object of image URLs.
type Card struct {
	ID    string `json:"id,omitempty"`
	Wide  string `json:"wide,omitempty"`
	Small string `json:"small,omitempty"`
	Large string `json:"large,omitempty"`
}

func (c *Card) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var id string
		if err := json.Unmarshal(b, &id); err != nil {
			return err
		}
		*c = Card{ID: id}
		return nil
	}

	type plain Card
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return nil
	}
	*c = Card(p)
	return nil
}

// WideURL returns the banner art URL, or "" when unknown.
func (c Card) WideURL() string {
	if c.Wide != "" {
		return c.Wide
	}
	if c.ID != "" {
		return fmt.Sprintf(playerCardURL, c.ID, "wideart")
	}
	return ""
}

// SmallURL returns the avatar art URL, or "" when unknown.
func (c Card) SmallURL() string {
	if c.Small != "" {
		return c.Small
	}
	if c.ID != "" {
		return fmt.Sprintf(playerCardURL, c.ID, "smallart")
	}
	return ""
}

// Tier is a competitive rank.
type Tier struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// MMR is the v3 rank payload.
type MMR struct {
	Current struct {
		Tier     Tier `json:"tier"`
		RR       int  `json:"rr"`
		RRChange int  `json:"rr_change_to_last_game"`
		ELO      int  `json:"elo"`
	} `json:"current"`
	Peak struct {
		Tier   Tier `json:"tier"`
		Season struct {
			ID    string `json:"id"`
			Short string `json:"short"`
		} `json:"season"`
	} `json:"peak"`
	Seasonal []SeasonResult `json:"seasonal"`
}

// SeasonResult is one act's competitive record.
type SeasonResult struct {
	Season struct {
		ID    string `json:"id"`
		Short string `json:"short"`
	} `json:"season"`
	Wins  int `json:"wins"`
	Games int `json:"games"`
}
