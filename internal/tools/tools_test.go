package tools

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripforge/trip-planner/internal/model"
	"github.com/tripforge/trip-planner/pkg/logger"
)

type stubTool struct {
	name string
	run  func(ctx context.Context, args map[string]any) (string, error)
}

func (s stubTool) Name() string        { return s.name }
func (s stubTool) Description() string { return "stub" }
func (s stubTool) Parameters() Schema  { return Schema{Type: "object"} }
func (s stubTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	return s.run(ctx, args)
}

func newSearchServer(t *testing.T, body string, check func(q url.Values)) *SearchClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r.URL.Query())
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewSearchClient(SearchConfig{APIKey: "test-key", BaseURL: srv.URL, Timeout: 5 * time.Second})
}

func TestNewRegistry_RejectsDuplicates(t *testing.T) {
	a := stubTool{name: "search_flights"}
	_, err := NewRegistry(a, a)
	assert.Error(t, err)

	_, err = NewRegistry(stubTool{name: ""})
	assert.Error(t, err)
}

func TestRegistry_NamesSorted(t *testing.T) {
	client := NewSearchClient(SearchConfig{})
	r, err := NewRegistry(NewHotelSearch(client), NewFlightSearch(client))
	require.NoError(t, err)

	assert.Equal(t, []string{"search_flights", "search_hotels"}, r.Names())
	descs := r.Descriptors()
	require.Len(t, descs, 2)
	assert.Equal(t, "search_flights", descs[0].Name)
	assert.IsType(t, Schema{}, descs[0].Parameters)
}

func TestBridge_UnknownTool(t *testing.T) {
	client := NewSearchClient(SearchConfig{})
	r, err := NewRegistry(NewFlightSearch(client), NewHotelSearch(client))
	require.NoError(t, err)
	b := NewBridge(r, logger.NewNop())

	msg := b.Invoke(context.Background(), model.ToolCall{ID: "c9", Name: "bogus_tool"})

	assert.Equal(t, model.RoleTool, msg.Role)
	assert.Equal(t, "c9", msg.ToolCallID)
	assert.Equal(t, "bogus_tool", msg.ToolName)
	assert.Equal(t, "Tool not available: bogus_tool. Available tools: [search_flights search_hotels]", msg.Content)
}

func TestBridge_ToolErrorAndPanic(t *testing.T) {
	r, err := NewRegistry(
		stubTool{name: "fails", run: func(context.Context, map[string]any) (string, error) {
			return "", errors.New("upstream down")
		}},
		stubTool{name: "explodes", run: func(context.Context, map[string]any) (string, error) {
			panic("boom")
		}},
	)
	require.NoError(t, err)
	b := NewBridge(r, logger.NewNop())

	msg := b.Invoke(context.Background(), model.ToolCall{ID: "1", Name: "fails"})
	assert.Equal(t, "Error executing tool fails: upstream down", msg.Content)

	msg = b.Invoke(context.Background(), model.ToolCall{ID: "2", Name: "explodes"})
	assert.Equal(t, "Error executing tool explodes: boom", msg.Content)
	assert.Equal(t, "2", msg.ToolCallID)
}

func TestFlightSearch_MissingKey(t *testing.T) {
	tool := NewFlightSearch(NewSearchClient(SearchConfig{}))
	out, err := tool.Execute(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "Error: SERPAPI_API_KEY not found in environment variables", out)
}

func TestFlightSearch_ValidatesArgs(t *testing.T) {
	tool := NewFlightSearch(newSearchServer(t, `{}`, nil))

	_, err := tool.Execute(context.Background(), map[string]any{
		"departure_city": "Delhi",
		"arrival_city":   "GOI",
		"departure_date": "2026-12-01",
	})
	assert.Error(t, err)

	_, err = tool.Execute(context.Background(), map[string]any{
		"departure_city": "DEL",
		"arrival_city":   "GOI",
		"departure_date": "01/12/2026",
	})
	assert.Error(t, err)
}

func TestFlightSearch_FormatsTopOptions(t *testing.T) {
	body := `{
	  "best_flights": [
	    {"flights":[{"airline":"IndiGo","flight_number":"6E 123","travel_class":"Economy",
	      "departure_airport":{"name":"Indira Gandhi International Airport","id":"DEL","time":"2026-12-01 06:00"},
	      "arrival_airport":{"name":"Dabolim Airport","id":"GOI","time":"2026-12-01 08:40"},
	      "duration":160}],
	     "total_duration":160,"price":5400,"type":"One way","departure_token":"tok1"},
	    {"flights":[],"layovers":[{"name":"Mumbai","duration":90,"overnight":true}],"price":6100},
	    {"price":7000},
	    {"price":9999}
	  ]
	}`
	client := newSearchServer(t, body, func(q url.Values) {
		assert.Equal(t, "google_flights", q.Get("engine"))
		assert.Equal(t, "DEL", q.Get("departure_id"))
		assert.Equal(t, "2", q.Get("adults"))
		assert.Equal(t, "INR", q.Get("currency"))
		assert.Equal(t, "1", q.Get("travel_class"))
		assert.Equal(t, "false", q.Get("deep_search"))
		assert.Equal(t, "2", q.Get("type"))
	})
	tool := NewFlightSearch(client)

	out, err := tool.Execute(context.Background(), map[string]any{
		"departure_city": "del",
		"arrival_city":   "GOI",
		"departure_date": "2026-12-01",
		"adults":         "2",
	})
	require.NoError(t, err)

	assert.Contains(t, out, "Flight Option 1:")
	assert.Contains(t, out, "Airline: IndiGo (6E 123)")
	assert.Contains(t, out, "From: Indira Gandhi International Airport (DEL) at 2026-12-01 06:00")
	assert.Contains(t, out, "Layover 1: Mumbai, Duration: 90 mins (overnight)")
	assert.Contains(t, out, "Price: 7000")
	assert.NotContains(t, out, "9999")
	assert.NotContains(t, out, "Flight Option 4:")
}

func TestFlightSearch_FallsBackToOtherFlights(t *testing.T) {
	tool := NewFlightSearch(newSearchServer(t, `{"best_flights":[],"other_flights":[{"price":4200}]}`, nil))
	out, err := tool.Execute(context.Background(), map[string]any{
		"departure_city": "DEL", "arrival_city": "GOI", "departure_date": "2026-12-01",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Price: 4200")
}

func TestFlightSearch_NoResults(t *testing.T) {
	tool := NewFlightSearch(newSearchServer(t, `{"search_metadata":{}}`, nil))
	out, err := tool.Execute(context.Background(), map[string]any{
		"departure_city": "DEL", "arrival_city": "GOI", "departure_date": "2026-12-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "No flights found from DEL to GOI on 2026-12-01", out)
}

func TestHotelSearch_FormatsProperties(t *testing.T) {
	body := `{"properties":[{
	  "name":"Sea Breeze","type":"hotel","overall_rating":4.4,"reviews":812,
	  "rate_per_night":{"lowest":"₹4,200","before_taxes_fees":"₹3,800"},
	  "prices":[{"num_guests":2,"source":"Booking.com"}],
	  "gps_coordinates":{"latitude":15.5,"longitude":73.8},
	  "amenities":["Pool","Free Wi-Fi"],
	  "nearby_places":[{"name":"Baga Beach","transportations":[{"type":"Walking","duration":"5 min"}]}]
	}]}`
	client := newSearchServer(t, body, func(q url.Values) {
		assert.Equal(t, "google_hotels", q.Get("engine"))
		assert.Equal(t, "2", q.Get("adults"))
		assert.Equal(t, "8", q.Get("rating"))
		assert.Empty(t, q.Get("sort_by"))
	})
	tool := NewHotelSearch(client)

	out, err := tool.Execute(context.Background(), map[string]any{
		"query":          "Goa, India",
		"check_in_date":  "2026-12-01",
		"check_out_date": "2026-12-05",
		"rating":         8,
	})
	require.NoError(t, err)

	assert.Contains(t, out, "Hotel: Sea Breeze (hotel)")
	assert.Contains(t, out, "Rating: 4.4 (812 reviews)")
	assert.Contains(t, out, "Price per night for 2 guests: ₹4,200 (Before taxes: ₹3,800) via Booking.com")
	assert.Contains(t, out, "Amenities: Pool, Free Wi-Fi")
	assert.Contains(t, out, "Nearby Places: Baga Beach - Walking (5 min)")
}

func TestHotelSearch_RejectsInvertedDates(t *testing.T) {
	tool := NewHotelSearch(newSearchServer(t, `{}`, nil))
	_, err := tool.Execute(context.Background(), map[string]any{
		"query": "Goa", "check_in_date": "2026-12-05", "check_out_date": "2026-12-01",
	})
	assert.Error(t, err)
}

func TestHotelSearch_NoResults(t *testing.T) {
	tool := NewHotelSearch(newSearchServer(t, `{"error":"Google Hotels hasn't returned any results for this query."}`, nil))
	out, err := tool.Execute(context.Background(), map[string]any{
		"query": "Nowhere", "check_in_date": "2026-12-01", "check_out_date": "2026-12-02",
	})
	require.NoError(t, err)
	assert.Equal(t, "No hotels found for Nowhere from 2026-12-01 to 2026-12-02", out)
}

func TestSearchClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Invalid API key."}`))
	}))
	defer srv.Close()

	c := NewSearchClient(SearchConfig{APIKey: "bad", BaseURL: srv.URL})
	_, err := c.Search(context.Background(), "google_flights", url.Values{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid API key.")
}

func TestFlexInt(t *testing.T) {
	var args struct {
		A flexInt `json:"a"`
		B flexInt `json:"b"`
		C flexInt `json:"c"`
	}
	require.NoError(t, decodeArgs(map[string]any{"a": "3", "b": 2.0, "c": nil}, &args))
	assert.Equal(t, flexInt(3), args.A)
	assert.Equal(t, flexInt(2), args.B)
	assert.Equal(t, flexInt(0), args.C)

	assert.Error(t, decodeArgs(map[string]any{"a": "three"}, &args))
}

func TestFlexInt_RejectsFractions(t *testing.T) {
	tests := []struct {
		name string
		in   any
	}{
		{"number", 2.7},
		{"string", "1.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var args struct {
				A flexInt `json:"a"`
			}
			err := decodeArgs(map[string]any{"a": tt.in}, &args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "whole number")
		})
	}
}
