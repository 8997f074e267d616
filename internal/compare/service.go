// Package compare runs both source pipelines for a dish and shapes the
// reconciled comparison.
package compare

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"dishprice-workers/internal/common/config"
	"dishprice-workers/internal/common/errors"
	"dishprice-workers/internal/common/logger"
	"dishprice-workers/internal/common/metrics"
	"dishprice-workers/internal/common/observability"
	"dishprice-workers/internal/geo"
	"dishprice-workers/internal/matcher"
	"dishprice-workers/internal/models"
	"dishprice-workers/internal/reconcile"
	"dishprice-workers/internal/sources"
)

const (
	OutcomeMatched      = "matched"
	OutcomeFallbackNote = "fallback_note"
)

// Request is a comparison query. Blank fields take the configured defaults.
type Request struct {
	City string `json:"city"`
	Dish string `json:"dish"`
}

// Options tunes the orchestrator.
type Options struct {
	DefaultCity        string
	DefaultDish        string
	RequestTimeout     time.Duration // 0 disables the overall deadline
	MaxConcurrentMenus int
	MatchCutoff        float64
	ChartLabelLength   int
}

// OptionsFromConfig converts the compare config section.
func OptionsFromConfig(cfg config.CompareConfig) Options {
	return Options{
		DefaultCity:        cfg.DefaultCity,
		DefaultDish:        cfg.DefaultDish,
		RequestTimeout:     config.GetDuration(cfg.RequestTimeout),
		MaxConcurrentMenus: cfg.MaxConcurrentMenus,
		MatchCutoff:        cfg.MatchCutoff,
		ChartLabelLength:   cfg.ChartLabelLength,
	}
}

// Service is safe for concurrent use; all state is request scoped.
type Service struct {
	sourceA sources.Client
	sourceB sources.Client
	matcher *matcher.Matcher
	engine  *reconcile.Engine
	obs     *observability.Observability
	log     logger.Logger
	opts    Options
}

// NewService wires the two sources. obs may be nil.
func NewService(sourceA, sourceB sources.Client, opts Options, obs *observability.Observability, log logger.Logger) *Service {
	if opts.DefaultCity == "" {
		opts.DefaultCity = config.DefaultCity
	}
	if opts.DefaultDish == "" {
		opts.DefaultDish = config.DefaultDish
	}
	if opts.MaxConcurrentMenus <= 0 {
		opts.MaxConcurrentMenus = 5
	}
	if opts.ChartLabelLength <= 0 {
		opts.ChartLabelLength = 20
	}

	return &Service{
		sourceA: sourceA,
		sourceB: sourceB,
		matcher: matcher.New(opts.MatchCutoff),
		engine:  reconcile.New(sourceA.Name(), sourceB.Name()),
		obs:     obs,
		log:     log,
		opts:    opts,
	}
}

// pipelineResult is what one source contributes to a comparison.
type pipelineResult struct {
	candidates int
	priced     models.PricedRestaurants
}

// Compare always produces a result. Source failures and an expired deadline
// only shrink the data the result is built from.
func (s *Service) Compare(ctx context.Context, req Request) *models.ComparisonResult {
	start := time.Now()
	requestID := uuid.NewString()

	city := strings.TrimSpace(req.City)
	if city == "" {
		city = s.opts.DefaultCity
	}
	dish := strings.TrimSpace(req.Dish)
	if dish == "" {
		dish = s.opts.DefaultDish
	}
	coord := geo.Lookup(city)

	log := s.log.With(map[string]interface{}{
		"requestId": requestID,
		"city":      city,
		"dish":      dish,
	})

	if s.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RequestTimeout)
		defer cancel()
	}

	ctx, span := s.obs.StartSpan(ctx, "compare.dish",
		attribute.String("requestId", requestID),
		attribute.String("dish", dish),
	)
	defer span.End()

	var resultA, resultB pipelineResult
	var g errgroup.Group
	g.Go(func() error {
		resultA = s.runPipeline(ctx, s.sourceA, coord, dish)
		return nil
	})
	g.Go(func() error {
		resultB = s.runPipeline(ctx, s.sourceB, coord, dish)
		return nil
	})
	_ = g.Wait()

	rec := s.engine.Reconcile(dish, resultA.priced, resultB.priced)

	result := &models.ComparisonResult{
		RequestID:   requestID,
		City:        city,
		Dish:        dish,
		Coordinate:  coord,
		SourceA:     s.sourceA.Name(),
		SourceB:     s.sourceB.Name(),
		Rows:        rec.Rows,
		Note:        rec.Note,
		Chart:       s.chart(rec.Rows),
		CandidatesA: resultA.candidates,
		CandidatesB: resultB.candidates,
		PricedA:     resultA.priced.Len(),
		PricedB:     resultB.priced.Len(),
	}
	if rec.Note != nil {
		result.NoteText = rec.Note.String()
	}

	if resultB.candidates == 0 && resultB.priced.IsEmpty() {
		result.SourceBUnavailable = true
		result.Advisory = fmt.Sprintf("%s data is currently unavailable; showing %s results only.",
			result.SourceB, result.SourceA)
	}

	outcome := OutcomeMatched
	if !result.HasRows() {
		outcome = OutcomeFallbackNote
	}
	elapsed := time.Since(start)
	metrics.Comparisons.WithLabelValues(outcome).Inc()
	metrics.ComparisonDuration.Observe(elapsed.Seconds())
	s.obs.RecordComparison(ctx, outcome, result.SourceBUnavailable)
	s.obs.RecordComparisonDuration(ctx, elapsed, outcome)

	log.Info("Comparison completed", map[string]interface{}{
		"outcome":     outcome,
		"rows":        len(result.Rows),
		"pricedA":     result.PricedA,
		"pricedB":     result.PricedB,
		"degraded":    result.SourceBUnavailable,
		"duration_ms": elapsed.Milliseconds(),
	})

	return result
}

// runPipeline searches one source, then fetches and prices every candidate's
// menu with bounded concurrency. Prices land in per-candidate slots so the
// mapping is assembled in search rank order regardless of completion order.
func (s *Service) runPipeline(ctx context.Context, client sources.Client, coord models.Coordinate, dish string) pipelineResult {
	ctx, span := s.obs.StartSpan(ctx, "compare.pipeline", attribute.String("source", client.Name()))
	defer span.End()

	candidates := client.SearchRestaurants(ctx, coord, dish)
	span.SetAttributes(attribute.Int("candidates", len(candidates)))

	prices := make([]*float64, len(candidates))

	var g errgroup.Group
	g.SetLimit(s.opts.MaxConcurrentMenus)
	for i, candidate := range candidates {
		i, candidate := i, candidate
		g.Go(func() error {
			menu := client.GetMenu(ctx, candidate.ID, coord)
			price, found := s.matcher.FindPrice(menu, dish)
			// a zero price is a placeholder, not an offer
			if !found || price == 0 {
				miss := errors.NewNoMatchError(dish)
				metrics.DishMatches.WithLabelValues(client.Name(), strings.ToLower(string(miss.Code))).Inc()
				s.log.Debug(miss.Message, map[string]interface{}{
					"source":     client.Name(),
					"restaurant": candidate.Name,
					"errorCode":  string(miss.Code),
					"details":    miss.Details,
				})
				return nil
			}
			metrics.DishMatches.WithLabelValues(client.Name(), "found").Inc()
			prices[i] = &price
			return nil
		})
	}
	_ = g.Wait()

	var priced models.PricedRestaurants
	for i, candidate := range candidates {
		if prices[i] != nil {
			priced.Add(candidate.Name, *prices[i])
		}
	}

	return pipelineResult{candidates: len(candidates), priced: priced}
}

func (s *Service) chart(rows []models.ComparisonRow) models.ChartData {
	chart := models.ChartData{
		Restaurants: make([]string, 0, len(rows)),
		PricesA:     make([]float64, 0, len(rows)),
		PricesB:     make([]float64, 0, len(rows)),
	}
	for _, row := range rows {
		chart.Restaurants = append(chart.Restaurants, truncate(row.Restaurant, s.opts.ChartLabelLength))
		chart.PricesA = append(chart.PricesA, row.PriceA)
		chart.PricesB = append(chart.PricesB, row.PriceB)
	}
	return chart
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
