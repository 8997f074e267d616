package zomato

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"dishprice-workers/internal/common/errors"
	"dishprice-workers/internal/common/logger"
	"dishprice-workers/internal/common/metrics"
	"dishprice-workers/internal/geo"
	"dishprice-workers/internal/models"
	"dishprice-workers/internal/sources"
)

// Renderer returns the fully rendered HTML of a page.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// Fallback searches restaurants by rendering the public search results page.
// Its selectors track markup that changes without notice, so it is strictly
// best effort.
type Fallback struct {
	source   string
	baseURL  string
	renderer Renderer
	log      logger.Logger
}

func NewFallback(source, baseURL string, renderer Renderer, log logger.Logger) *Fallback {
	return &Fallback{
		source:   source,
		baseURL:  strings.TrimRight(baseURL, "/"),
		renderer: renderer,
		log:      log,
	}
}

// SearchURL is the results page for dish in the city nearest to coord.
func (f *Fallback) SearchURL(coord models.Coordinate, dish string) string {
	return fmt.Sprintf("%s/%s/restaurants?q=%s", f.baseURL, geo.CityAt(coord), sources.EscapeQuery(dish))
}

// Search never fails: render or extraction problems yield an empty slice.
func (f *Fallback) Search(ctx context.Context, coord models.Coordinate, dish string) []models.CandidateRestaurant {
	pageURL := f.SearchURL(coord, dish)
	log := f.log.With(map[string]interface{}{"source": f.source, "url": pageURL})

	if f.renderer == nil {
		return []models.CandidateRestaurant{}
	}

	doc, err := f.renderer.Render(ctx, pageURL)
	if err != nil {
		stdErr := errors.NewFallbackFailedError(f.source, err)
		log.Warn("Fallback render failed", map[string]interface{}{
			"errorCode": string(stdErr.Code),
			"details":   stdErr.Details,
		})
		metrics.SourceFallback.WithLabelValues(f.source, "error").Inc()
		return []models.CandidateRestaurant{}
	}

	found := Extract(doc)
	outcome := "ok"
	if len(found) == 0 {
		outcome = "empty"
	}
	metrics.SourceFallback.WithLabelValues(f.source, outcome).Inc()
	log.Info("Fallback search completed", map[string]interface{}{"restaurants": len(found)})
	return found
}

// restaurantHref matches links to a restaurant page such as
// /mumbai/spice-hub-bandra/order or https://www.zomato.com/mumbai/spice-hub-bandra/info.
var restaurantHref = regexp.MustCompile(`^(?:https?://[^/]+)?/[^/]+/([^/?#]+)/(?:order|info)(?:[/?#].*)?$`)

// Extract reads restaurant cards from a rendered results page. A card is a
// restaurant link; its name is the first heading inside it, or the link text,
// and its area the first paragraph. The URL slug serves as the ID.
func Extract(doc string) []models.CandidateRestaurant {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return []models.CandidateRestaurant{}
	}

	out := []models.CandidateRestaurant{}
	seen := make(map[string]bool)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if candidate, ok := cardFromLink(n); ok {
				if !seen[candidate.ID] {
					seen[candidate.ID] = true
					out = append(out, candidate)
				}
				return
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)

	return out
}

func cardFromLink(a *html.Node) (models.CandidateRestaurant, bool) {
	m := restaurantHref.FindStringSubmatch(attr(a, "href"))
	if m == nil {
		return models.CandidateRestaurant{}, false
	}

	name := ""
	if heading := find(a, "h4", "h3", "h2"); heading != nil {
		name = text(heading)
	}
	if name == "" {
		name = text(a)
	}
	if name == "" {
		return models.CandidateRestaurant{}, false
	}

	candidate := models.CandidateRestaurant{ID: m[1], Name: name}
	if p := find(a, "p"); p != nil {
		if area := text(p); area != "" {
			candidate.Area = &area
		}
	}
	return candidate, true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// find returns the first descendant element with one of the given tags.
func find(n *html.Node, tags ...string) *html.Node {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.ElementNode {
			for _, tag := range tags {
				if child.Data == tag {
					return child
				}
			}
		}
		if found := find(child, tags...); found != nil {
			return found
		}
	}
	return nil
}

// text is the whitespace-collapsed text content of n.
func text(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			collect(child)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
