// Package zomato is the source B client. When its search API is exhausted it
// falls back to extracting restaurants from the rendered search page.
package zomato

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"dishprice-workers/internal/common/errors"
	httpclient "dishprice-workers/internal/common/http"
	"dishprice-workers/internal/common/logger"
	"dishprice-workers/internal/common/retry"
	"dishprice-workers/internal/models"
	"dishprice-workers/internal/sources"
)

// Client talks to the Zomato webrapi endpoints.
type Client struct {
	settings sources.Settings
	http     *httpclient.Client
	fallback *Fallback
	log      logger.Logger
}

var _ sources.Client = (*Client)(nil)

// NewClient creates a client. fallback may be nil, in which case an exhausted
// search simply yields no restaurants.
func NewClient(settings sources.Settings, fallback *Fallback, log logger.Logger) *Client {
	if settings.Name == "" {
		settings.Name = "Zomato"
	}
	return &Client{
		settings: settings,
		http:     settings.NewHTTPClient(),
		fallback: fallback,
		log:      log,
	}
}

func (c *Client) Name() string {
	return c.settings.Name
}

// SearchRestaurants returns up to ResultLimit restaurants sorted by rating.
func (c *Client) SearchRestaurants(ctx context.Context, coord models.Coordinate, dish string) []models.CandidateRestaurant {
	endpoint := fmt.Sprintf("%s/webrapi/restaurants/search?lat=%v&lon=%v&q=%s&sort=rating",
		c.settings.BaseURL, coord.Lat, coord.Lng, sources.EscapeQuery(dish))

	found, outcome := sources.Run(ctx, c.log, c.settings, sources.OperationSearch,
		func(ctx context.Context) ([]models.CandidateRestaurant, error) {
			var resp searchResponse
			if err := c.http.GetJSON(ctx, endpoint, sources.OperationSearch, &resp); err != nil {
				return nil, err
			}
			return c.settings.Limit(resp.candidates()), nil
		})

	if outcome.State == retry.Succeeded {
		return found
	}

	if c.fallback == nil || ctx.Err() != nil {
		return []models.CandidateRestaurant{}
	}
	return c.settings.Limit(c.fallback.Search(ctx, coord, dish))
}

// GetMenu returns the menu keyed by lower-cased dish name. The coordinates are
// not part of the Zomato menu request.
func (c *Client) GetMenu(ctx context.Context, restaurantID string, _ models.Coordinate) models.Menu {
	endpoint := fmt.Sprintf("%s/webrapi/restaurant/%s/menu", c.settings.BaseURL, url.PathEscape(restaurantID))

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

	if outcome.State != retry.Succeeded {
		return models.NewMenu()
	}
	return menu
}

// --- wire types ---

type searchResponse struct {
	Restaurants []struct {
		Restaurant struct {
			ID       json.RawMessage `json:"id"`
			Name     string          `json:"name"`
			Location *struct {
				Locality *string `json:"locality"`
			} `json:"location"`
		} `json:"restaurant"`
	} `json:"restaurants"`
}

func (r searchResponse) candidates() []models.CandidateRestaurant {
	out := make([]models.CandidateRestaurant, 0, len(r.Restaurants))
	for _, entry := range r.Restaurants {
		rest := entry.Restaurant
		id, name := sources.ID(rest.ID), strings.TrimSpace(rest.Name)
		if id == "" || name == "" {
			continue
		}
		candidate := models.CandidateRestaurant{ID: id, Name: name}
		if rest.Location != nil {
			candidate.Area = rest.Location.Locality
		}
		out = append(out, candidate)
	}
	return out
}

type menuResponse struct {
	Menu *struct {
		Sections []struct {
			Items []struct {
				Name  string `json:"name"`
				Price *struct {
					Amount json.RawMessage `json:"amount"`
				} `json:"price"`
			} `json:"items"`
		} `json:"sections"`
	} `json:"menu"`
}

func (r menuResponse) menu() (models.Menu, error) {
	menu := models.NewMenu()
	if r.Menu == nil {
		return menu, nil
	}
	for _, section := range r.Menu.Sections {
		for _, item := range section.Items {
			var amount float64
			if item.Price != nil {
				v, err := sources.Amount(item.Price.Amount)
				if err != nil {
					return models.Menu{}, fmt.Errorf("price of %q: %w", item.Name, err)
				}
				amount = v
			}
			menu.Set(item.Name, amount)
		}
	}
	return menu, nil
}
