package compare

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"dishprice-workers/internal/common/logger"
	"dishprice-workers/internal/geo"
	"dishprice-workers/internal/models"
	"dishprice-workers/internal/reconcile"
)

// fakeSource serves canned search results and menus.
type fakeSource struct {
	name       string
	candidates []models.CandidateRestaurant
	menus      map[string]map[string]float64
	menuDelay  map[string]time.Duration
	block      bool

	mu          sync.Mutex
	dishes      []string
	coords      []models.Coordinate
	menuCalls   int32
	inFlight    int32
	maxInFlight int32
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) SearchRestaurants(ctx context.Context, coord models.Coordinate, dish string) []models.CandidateRestaurant {
	f.mu.Lock()
	f.dishes = append(f.dishes, dish)
	f.coords = append(f.coords, coord)
	f.mu.Unlock()
	out := make([]models.CandidateRestaurant, len(f.candidates))
	copy(out, f.candidates)
	return out
}

func (f *fakeSource) GetMenu(ctx context.Context, restaurantID string, _ models.Coordinate) models.Menu {
	atomic.AddInt32(&f.menuCalls, 1)
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		max := atomic.LoadInt32(&f.maxInFlight)
		if n <= max || atomic.CompareAndSwapInt32(&f.maxInFlight, max, n) {
			break
		}
	}

	if f.block {
		<-ctx.Done()
		return models.NewMenu()
	}
	if d := f.menuDelay[restaurantID]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return models.NewMenu()
		}
	}

	menu := models.NewMenu()
	for name, price := range f.menus[restaurantID] {
		menu.Set(name, price)
	}
	return menu
}

// source builds a fake whose restaurants each list a single dish at the given price.
func source(name, dish string, entries ...interface{}) *fakeSource {
	f := &fakeSource{name: name, menus: map[string]map[string]float64{}, menuDelay: map[string]time.Duration{}}
	for i := 0; i < len(entries); i += 2 {
		restaurant := entries[i].(string)
		id := name + "-" + restaurant
		f.candidates = append(f.candidates, models.CandidateRestaurant{ID: id, Name: restaurant})
		f.menus[id] = map[string]float64{dish: entries[i+1].(float64), "plain rice": 60}
	}
	return f
}

func newService(a, b *fakeSource, opts Options) *Service {
	return NewService(a, b, opts, nil, logger.NewNoOpLogger())
}

func TestCompare_SingleOverlap(t *testing.T) {
	defer goleak.VerifyNone(t)

	a := source("Swiggy", "butter chicken", "Spice Hub", 200.0)
	b := source("Zomato", "butter chicken", "Spice Hub", 180.0)

	got := newService(a, b, Options{}).Compare(context.Background(), Request{City: "mumbai", Dish: "Butter Chicken"})

	require.Len(t, got.Rows, 1)
	assert.Nil(t, got.Note)
	assert.Equal(t, models.SideB, got.Rows[0].Cheaper)
	assert.Equal(t, 20.0, got.Rows[0].Savings)
	assert.False(t, got.SourceBUnavailable)
	assert.Empty(t, got.Advisory)
	assert.Equal(t, models.ChartData{
		Restaurants: []string{"Spice Hub"},
		PricesA:     []float64{200},
		PricesB:     []float64{180},
	}, got.Chart)
	assert.NotEmpty(t, got.RequestID)
	assert.Equal(t, "Swiggy", got.SourceA)
	assert.Equal(t, "Zomato", got.SourceB)
}

func TestCompare_NoOverlapProducesNote(t *testing.T) {
	defer goleak.VerifyNone(t)

	a := source("Swiggy", "paneer", "X", 100.0)
	b := source("Zomato", "paneer", "Y", 90.0)

	got := newService(a, b, Options{}).Compare(context.Background(), Request{City: "delhi", Dish: "Paneer"})

	assert.Empty(t, got.Rows)
	require.NotNil(t, got.Note)
	assert.Equal(t, []models.Deal{{Name: "X", Price: 100}}, got.Note.CheapestA)
	assert.Equal(t, []models.Deal{{Name: "Y", Price: 90}}, got.Note.CheapestB)
	assert.Equal(t, `No common restaurants for "Paneer". Swiggy deals: [(X, 100)]. Zomato deals: [(Y, 90)].`, got.NoteText)
	assert.Empty(t, got.Chart.Restaurants)
	assert.False(t, got.SourceBUnavailable)
}

func TestCompare_SourceBUnavailable(t *testing.T) {
	defer goleak.VerifyNone(t)

	a := source("Swiggy", "butter chicken", "Spice Hub", 200.0, "Punjab Grill", 320.0, "Cafe Madras", 150.0, "Dhaba", 410.0)
	b := source("Zomato", "butter chicken")

	got := newService(a, b, Options{}).Compare(context.Background(), Request{Dish: "Butter Chicken"})

	assert.True(t, got.SourceBUnavailable)
	assert.Equal(t, "Zomato data is currently unavailable; showing Swiggy results only.", got.Advisory)
	require.NotNil(t, got.Note)
	assert.Equal(t, []models.Deal{
		{Name: "Cafe Madras", Price: 150},
		{Name: "Spice Hub", Price: 200},
		{Name: "Punjab Grill", Price: 320},
	}, got.Note.CheapestA)
	assert.Empty(t, got.Note.CheapestB)
	assert.Equal(t, 0, got.PricedB)
}

func TestCompare_AdvisoryOnlyWhenSearchAndPricesEmpty(t *testing.T) {
	defer goleak.VerifyNone(t)

	a := source("Swiggy", "biryani", "Paradise", 300.0)

	// candidates found but none priced: not an outage
	b := source("Zomato", "biryani", "Bawarchi", 0.0)
	b.menus["Zomato-Bawarchi"] = map[string]float64{"ice cream": 90}
	got := newService(a, b, Options{}).Compare(context.Background(), Request{Dish: "Biryani"})
	assert.False(t, got.SourceBUnavailable)
	assert.Empty(t, got.Advisory)

	// any priced restaurant clears the flag
	b = source("Zomato", "biryani", "Bawarchi", 280.0)
	got = newService(a, b, Options{}).Compare(context.Background(), Request{Dish: "Biryani"})
	assert.False(t, got.SourceBUnavailable)
	assert.Equal(t, 1, got.PricedB)
}

func TestCompare_ZeroPriceCountsAsNotFound(t *testing.T) {
	defer goleak.VerifyNone(t)

	a := source("Swiggy", "masala dosa", "Cafe Madras", 0.0, "Udupi", 80.0)
	b := source("Zomato", "masala dosa", "Cafe Madras", 95.0, "Udupi", 85.0)

	got := newService(a, b, Options{}).Compare(context.Background(), Request{Dish: "Masala Dosa"})

	require.Len(t, got.Rows, 1)
	assert.Equal(t, "Udupi", got.Rows[0].Restaurant)
	assert.Equal(t, models.SideA, got.Rows[0].Cheaper)
	assert.Equal(t, 1, got.PricedA)
	assert.Equal(t, 2, got.CandidatesA)
}

func TestCompare_MissingDishLogsNoMatch(t *testing.T) {
	defer goleak.VerifyNone(t)

	core, logs := observer.New(zapcore.DebugLevel)
	a := source("Swiggy", "masala dosa", "Cafe Madras", 0.0, "Udupi", 80.0)
	b := source("Zomato", "masala dosa", "Udupi", 85.0)

	svc := NewService(a, b, Options{}, nil, logger.NewZapAdapter(zap.New(core)))
	got := svc.Compare(context.Background(), Request{Dish: "Masala Dosa"})
	require.Len(t, got.Rows, 1)

	misses := logs.FilterMessage("Dish not found on menu").All()
	require.Len(t, misses, 1)
	fields := misses[0].ContextMap()
	assert.Equal(t, "NO_MATCH", fields["errorCode"])
	assert.Equal(t, "Swiggy", fields["source"])
	assert.Equal(t, "Cafe Madras", fields["restaurant"])
	assert.Equal(t, "dish: Masala Dosa", fields["details"])
}

func TestCompare_Defaults(t *testing.T) {
	defer goleak.VerifyNone(t)

	a := source("Swiggy", "butter chicken")
	b := source("Zomato", "butter chicken")

	got := newService(a, b, Options{}).Compare(context.Background(), Request{City: "  ", Dish: ""})

	assert.Equal(t, "mumbai", got.City)
	assert.Equal(t, "Butter Chicken", got.Dish)
	assert.Equal(t, []string{"Butter Chicken"}, a.dishes)
	assert.Equal(t, []models.Coordinate{geo.Lookup("mumbai")}, b.coords)
}

func TestCompare_UnknownCityUsesMumbai(t *testing.T) {
	defer goleak.VerifyNone(t)

	a := source("Swiggy", "vada pav")
	b := source("Zomato", "vada pav")

	got := newService(a, b, Options{}).Compare(context.Background(), Request{City: "Gotham", Dish: "Vada Pav"})

	assert.Equal(t, "Gotham", got.City)
	assert.Equal(t, geo.Lookup("mumbai"), got.Coordinate)
	assert.Equal(t, geo.Lookup("mumbai"), a.coords[0])
}

func TestCompare_ParallelMatchesSequential(t *testing.T) {
	defer goleak.VerifyNone(t)

	build := func() (*fakeSource, *fakeSource) {
		a := source("Swiggy", "butter chicken",
			"Spice Hub", 200.0, "Punjab Grill", 320.0, "Cafe Madras", 150.0, "Dhaba", 410.0, "Bombay Canteen", 380.0)
		b := source("Zomato", "butter chicken",
			"Dhaba", 400.0, "Cafe Madras", 160.0, "Spice Hub", 210.0, "Bombay Canteen", 380.0)
		// later-ranked menus finish first
		for i, c := range a.candidates {
			a.menuDelay[c.ID] = time.Duration(len(a.candidates)-i) * 5 * time.Millisecond
		}
		return a, b
	}

	a, b := build()
	parallel := newService(a, b, Options{MaxConcurrentMenus: 5}).Compare(context.Background(), Request{Dish: "Butter Chicken"})
	a2, b2 := build()
	sequential := newService(a2, b2, Options{MaxConcurrentMenus: 1}).Compare(context.Background(), Request{Dish: "Butter Chicken"})

	assert.Equal(t, sequential.Rows, parallel.Rows)
	assert.Equal(t, sequential.Chart, parallel.Chart)
	assert.Equal(t, int32(1), atomic.LoadInt32(&a2.maxInFlight))

	names := make([]string, 0, len(parallel.Rows))
	for _, row := range parallel.Rows {
		names = append(names, row.Restaurant)
	}
	assert.Equal(t, []string{"Spice Hub", "Cafe Madras", "Dhaba", "Bombay Canteen"}, names)
	assert.Equal(t, models.SideTie, parallel.Rows[3].Cheaper)
}

func TestCompare_ConcurrencyLimit(t *testing.T) {
	defer goleak.VerifyNone(t)

	a := source("Swiggy", "thali", "R1", 1.0, "R2", 2.0, "R3", 3.0, "R4", 4.0, "R5", 5.0, "R6", 6.0)
	for _, c := range a.candidates {
		a.menuDelay[c.ID] = 20 * time.Millisecond
	}
	b := source("Zomato", "thali")

	newService(a, b, Options{MaxConcurrentMenus: 2}).Compare(context.Background(), Request{Dish: "Thali"})

	assert.Equal(t, int32(6), atomic.LoadInt32(&a.menuCalls))
	assert.LessOrEqual(t, atomic.LoadInt32(&a.maxInFlight), int32(2))
}

func TestCompare_DeadlineDegradesInsteadOfFailing(t *testing.T) {
	defer goleak.VerifyNone(t)

	a := source("Swiggy", "butter chicken", "Spice Hub", 200.0)
	b := source("Zomato", "butter chicken", "Spice Hub", 180.0)
	b.block = true

	start := time.Now()
	got := newService(a, b, Options{RequestTimeout: 50 * time.Millisecond}).Compare(context.Background(), Request{Dish: "Butter Chicken"})

	assert.Less(t, time.Since(start), time.Second)
	require.NotNil(t, got)
	assert.Empty(t, got.Rows)
	require.NotNil(t, got.Note)
	assert.Equal(t, []models.Deal{{Name: "Spice Hub", Price: 200}}, got.Note.CheapestA)
	assert.Equal(t, 0, got.PricedB)
}

func TestCompare_DuplicateNamesKeepLastPrice(t *testing.T) {
	defer goleak.VerifyNone(t)

	a := &fakeSource{
		name: "Swiggy",
		candidates: []models.CandidateRestaurant{
			{ID: "1", Name: "Dominos"},
			{ID: "2", Name: "Dominos"},
		},
		menus: map[string]map[string]float64{
			"1": {"farmhouse pizza": 300},
			"2": {"farmhouse pizza": 320},
		},
	}
	b := source("Zomato", "farmhouse pizza", "Dominos", 310.0)

	got := newService(a, b, Options{}).Compare(context.Background(), Request{Dish: "Farmhouse Pizza"})

	require.Len(t, got.Rows, 1)
	assert.Equal(t, 320.0, got.Rows[0].PriceA)
	assert.Equal(t, models.SideB, got.Rows[0].Cheaper)
}

func TestCompare_ChartLabelsAreTruncated(t *testing.T) {
	defer goleak.VerifyNone(t)

	long := "Shree Krishna Bhojanalaya Pure Veg"
	unicode := "श्री कृष्ण भोजनालय शुद्ध शाकाहारी"
	a := source("Swiggy", "thali", long, 150.0, unicode, 140.0)
	b := source("Zomato", "thali", long, 160.0, unicode, 135.0)

	got := newService(a, b, Options{}).Compare(context.Background(), Request{Dish: "Thali"})

	require.Len(t, got.Rows, 2)
	assert.Equal(t, long, got.Rows[0].Restaurant)
	assert.Equal(t, "Shree Krishna Bhojan", got.Chart.Restaurants[0])
	assert.Equal(t, []rune(unicode)[:20], []rune(got.Chart.Restaurants[1]))
	assert.Equal(t, []float64{150, 140}, got.Chart.PricesA)
}

func TestCompare_RowsMatchReconcile(t *testing.T) {
	defer goleak.VerifyNone(t)

	a := source("Swiggy", "pav bhaji", "Sardar", 150.0, "Cannon", 140.0, "Only A", 90.0)
	b := source("Zomato", "pav bhaji", "Cannon", 150.0, "Sardar", 150.0, "Only B", 80.0)

	got := newService(a, b, Options{}).Compare(context.Background(), Request{Dish: "Pav Bhaji"})

	want := reconcile.Reconcile(
		models.NewPricedRestaurants(
			models.Deal{Name: "Sardar", Price: 150}, models.Deal{Name: "Cannon", Price: 140}, models.Deal{Name: "Only A", Price: 90}),
		models.NewPricedRestaurants(
			models.Deal{Name: "Cannon", Price: 150}, models.Deal{Name: "Sardar", Price: 150}, models.Deal{Name: "Only B", Price: 80}),
	)
	assert.Equal(t, want.Rows, got.Rows)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 20))
	assert.Equal(t, "ab", truncate("abc", 2))
	assert.Equal(t, "é", truncate("éa", 1))
}
