package swiggy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpclient "dishprice-workers/internal/common/http"
	"dishprice-workers/internal/common/logger"
	"dishprice-workers/internal/common/retry"
	"dishprice-workers/internal/models"
	"dishprice-workers/internal/sources"
)

var mumbai = models.Coordinate{Lat: 19.076, Lng: 72.8777}

func testSettings(baseURL string, attempts int) sources.Settings {
	return sources.Settings{
		Name:        "Swiggy",
		BaseURL:     baseURL,
		Policy:      retry.Policy{MaxAttempts: attempts, Backoff: 10 * time.Millisecond},
		ResultLimit: 5,
		HTTP:        httpclient.Options{Timeout: time.Second, UserAgent: "test-agent"},
	}
}

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return data
}

func TestSearchRestaurants(t *testing.T) {
	body := fixture(t, "search.json")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dapi/restaurants/search/v11", r.URL.Path)
		assert.Equal(t, "19.076", r.URL.Query().Get("lat"))
		assert.Equal(t, "72.8777", r.URL.Query().Get("lng"))
		assert.Equal(t, "Butter Chicken", r.URL.Query().Get("str"))
		assert.Contains(t, r.URL.RawQuery, "str=Butter%20Chicken")
		assert.Equal(t, "SEARCH", r.URL.Query().Get("submitAction"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		_, _ = w.Write(body)
	}))
	defer server.Close()

	client := NewClient(testSettings(server.URL, 2), logger.NewTestLogger(t))
	got := client.SearchRestaurants(context.Background(), mumbai, "Butter Chicken")

	require.Len(t, got, 5)
	assert.Equal(t, "1001", got[0].ID)
	assert.Equal(t, "Spice Hub", got[0].Name)
	assert.Equal(t, "Bandra", got[0].AreaOrEmpty())
	assert.Equal(t, "1002", got[1].ID)
	assert.Nil(t, got[1].Area)
	assert.Equal(t, "Cafe Madras", got[2].Name)
	assert.Equal(t, "Britannia & Co", got[4].Name)
}

func TestSearchRestaurants_Idempotent(t *testing.T) {
	body := fixture(t, "search.json")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	}))
	defer server.Close()

	client := NewClient(testSettings(server.URL, 2), logger.NewNoOpLogger())
	first := client.SearchRestaurants(context.Background(), mumbai, "paneer")
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, client.SearchRestaurants(context.Background(), mumbai, "paneer"))
	}
}

func TestGetMenu(t *testing.T) {
	body := fixture(t, "menu.json")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dapi/menu/pl", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "REGULAR_MENU", q.Get("page-type"))
		assert.Equal(t, "true", q.Get("complete-menu"))
		assert.Equal(t, "1001", q.Get("restaurantId"))
		assert.Equal(t, "19.076", q.Get("lat"))
		_, _ = w.Write(body)
	}))
	defer server.Close()

	client := NewClient(testSettings(server.URL, 2), logger.NewTestLogger(t))
	menu := client.GetMenu(context.Background(), "1001", mumbai)

	assert.Equal(t, []string{"butter chicken", "butter naan", "dal makhani", "lassi"}, menu.Names())
	price, ok := menu.Price("butter chicken")
	require.True(t, ok)
	assert.Equal(t, 260.0, price) // last write wins
	price, _ = menu.Price("dal makhani")
	assert.Equal(t, 180.5, price)
	price, _ = menu.Price("butter naan")
	assert.Equal(t, 40.0, price)

	again := client.GetMenu(context.Background(), "1001", mumbai)
	assert.Equal(t, menu, again)
}

func TestExhaustionReturnsEmptyAfterExactAttempts(t *testing.T) {
	for _, attempts := range []int{2, 3} {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusBadGateway)
		}))

		client := NewClient(testSettings(server.URL, attempts), logger.NewTestLogger(t))

		got := client.SearchRestaurants(context.Background(), mumbai, "biryani")
		assert.NotNil(t, got)
		assert.Empty(t, got)
		assert.Equal(t, int32(attempts), atomic.LoadInt32(&calls))

		atomic.StoreInt32(&calls, 0)
		menu := client.GetMenu(context.Background(), "1001", mumbai)
		assert.True(t, menu.IsEmpty())
		assert.Equal(t, int32(attempts), atomic.LoadInt32(&calls))

		server.Close()
	}
}

func TestMalformedBodyIsRetried(t *testing.T) {
	var calls int32
	menu := fixture(t, "menu.json")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			_, _ = w.Write([]byte(`{"data": {"cards": [{"groupedCard": {"cardGroupMap": {"REGULAR": [{"itemCards": [{"card": {"info": {"name": "x", "price": "abc"}}}]}]}}}]}}`))
			return
		}
		_, _ = w.Write(menu)
	}))
	defer server.Close()

	client := NewClient(testSettings(server.URL, 2), logger.NewTestLogger(t))
	got := client.GetMenu(context.Background(), "1001", mumbai)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, 4, got.Len())
}

func TestCancelledContextReturnsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(testSettings(server.URL, 3), logger.NewNoOpLogger())
	assert.Empty(t, client.SearchRestaurants(ctx, mumbai, "dosa"))
	assert.True(t, client.GetMenu(ctx, "1", mumbai).IsEmpty())
}

func TestName(t *testing.T) {
	client := NewClient(sources.Settings{BaseURL: "http://example.invalid"}, logger.NewNoOpLogger())
	assert.Equal(t, "Swiggy", client.Name())
}
