// Package swiggy is the source A client.
package swiggy

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"dishprice-workers/internal/common/errors"
	httpclient "dishprice-workers/internal/common/http"
	"dishprice-workers/internal/common/logger"
	"dishprice-workers/internal/models"
	"dishprice-workers/internal/sources"
)

// Client talks to the Swiggy dapi endpoints.
type Client struct {
	settings sources.Settings
	http     *httpclient.Client
	log      logger.Logger
}

var _ sources.Client = (*Client)(nil)

func NewClient(settings sources.Settings, log logger.Logger) *Client {
	if settings.Name == "" {
		settings.Name = "Swiggy"
	}
	return &Client{
		settings: settings,
		http:     settings.NewHTTPClient(),
		log:      log,
	}
}

func (c *Client) Name() string {
	return c.settings.Name
}

// SearchRestaurants returns up to ResultLimit restaurants in upstream order,
// or an empty slice when every attempt failed.
func (c *Client) SearchRestaurants(ctx context.Context, coord models.Coordinate, dish string) []models.CandidateRestaurant {
	endpoint := fmt.Sprintf("%s/dapi/restaurants/search/v11?lat=%v&lng=%v&str=%s&submitAction=SEARCH",
		c.settings.BaseURL, coord.Lat, coord.Lng, sources.EscapeQuery(dish))

	found, _ := sources.Run(ctx, c.log, c.settings, sources.OperationSearch,
		func(ctx context.Context) ([]models.CandidateRestaurant, error) {
			var resp searchResponse
			if err := c.http.GetJSON(ctx, endpoint, sources.OperationSearch, &resp); err != nil {
				return nil, err
			}
			return c.settings.Limit(resp.candidates()), nil
		})

	if found == nil {
		return []models.CandidateRestaurant{}
	}
	return found
}

// GetMenu returns the restaurant's full menu with prices in rupees, or an
// empty menu when every attempt failed.
func (c *Client) GetMenu(ctx context.Context, restaurantID string, coord models.Coordinate) models.Menu {
	endpoint := fmt.Sprintf("%s/dapi/menu/pl?page-type=REGULAR_MENU&complete-menu=true&lat=%v&lng=%v&restaurantId=%s",
		c.settings.BaseURL, coord.Lat, coord.Lng, sources.EscapeQuery(restaurantID))

	menu, outcome := sources.Run(ctx, c.log, c.settings, sources.OperationMenu,
		func(ctx context.Context) (models.Menu, error) {
			var resp menuResponse
			if err := c.http.GetJSON(ctx, endpoint, sources.OperationMenu, &resp); err != nil {
				return models.Menu{}, err
			}
			menu, err := resp.menu()
			if err != nil {
				return models.Menu{}, errors.NewMalformedResponseError(c.settings.Name, sources.OperationMenu, err)
			}
			return menu, nil
		})

	if outcome.Err != nil {
		return models.NewMenu()
	}
	return menu
}

// --- wire types ---

type searchResponse struct {
	Data struct {
		Cards []json.RawMessage `json:"cards"`
	} `json:"data"`
}

// searchCard is one entry of the heterogeneous cards list. Only cards whose
// data.data is an object describe a restaurant.
type searchCard struct {
	Data struct {
		Data json.RawMessage `json:"data"`
	} `json:"data"`
}

type restaurantInfo struct {
	ID       json.RawMessage `json:"id"`
	Name     string          `json:"name"`
	AreaName *string         `json:"areaName"`
}

func (r searchResponse) candidates() []models.CandidateRestaurant {
	out := make([]models.CandidateRestaurant, 0, len(r.Data.Cards))
	for _, raw := range r.Data.Cards {
		var card searchCard
		if !sources.IsObject(raw) || json.Unmarshal(raw, &card) != nil {
			continue
		}
		if !sources.IsObject(card.Data.Data) {
			continue
		}
		var info restaurantInfo
		if err := json.Unmarshal(card.Data.Data, &info); err != nil {
			continue
		}
		id, name := sources.ID(info.ID), strings.TrimSpace(info.Name)
		if id == "" || name == "" {
			continue
		}
		out = append(out, models.CandidateRestaurant{ID: id, Name: name, Area: info.AreaName})
	}
	return out
}

type menuResponse struct {
	Data struct {
		Cards []json.RawMessage `json:"cards"`
	} `json:"data"`
}

type menuCard struct {
	GroupedCard *struct {
		CardGroupMap json.RawMessage `json:"cardGroupMap"`
	} `json:"groupedCard"`
}

type menuGroup struct {
	ItemCards []struct {
		Card struct {
			Info *struct {
				Name  string          `json:"name"`
				Price json.RawMessage `json:"price"`
			} `json:"info"`
		} `json:"card"`
	} `json:"itemCards"`
}

// menu walks groupedCard.cardGroupMap in document order. Map values that are
// not arrays carry no items and are skipped.
func (r menuResponse) menu() (models.Menu, error) {
	menu := models.NewMenu()
	for _, raw := range r.Data.Cards {
		var card menuCard
		if !sources.IsObject(raw) {
			continue
		}
		if err := json.Unmarshal(raw, &card); err != nil {
			return models.Menu{}, fmt.Errorf("card: %w", err)
		}
		if card.GroupedCard == nil {
			continue
		}
		values, err := sources.OrderedValues(card.GroupedCard.CardGroupMap)
		if err != nil {
			return models.Menu{}, fmt.Errorf("cardGroupMap: %w", err)
		}
		for _, value := range values {
			if !sources.IsArray(value) {
				continue
			}
			var elements []json.RawMessage
			if err := json.Unmarshal(value, &elements); err != nil {
				return models.Menu{}, fmt.Errorf("item group: %w", err)
			}
			for _, element := range elements {
				if !sources.IsObject(element) {
					continue
				}
				var group menuGroup
				if err := json.Unmarshal(element, &group); err != nil {
					return models.Menu{}, fmt.Errorf("item group: %w", err)
				}
				for _, item := range group.ItemCards {
					if item.Card.Info == nil {
						continue
					}
					paise, err := sources.Amount(item.Card.Info.Price)
					if err != nil {
						return models.Menu{}, fmt.Errorf("price of %q: %w", item.Card.Info.Name, err)
					}
					menu.Set(item.Card.Info.Name, paise/100)
				}
			}
		}
	}
	return menu, nil
}
