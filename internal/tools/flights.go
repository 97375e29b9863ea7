package tools

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

const maxResults = 3

// FlightSearch is the search_flights tool.
type FlightSearch struct {
	client *SearchClient
}

// NewFlightSearch creates the search_flights tool.
func NewFlightSearch(client *SearchClient) *FlightSearch {
	return &FlightSearch{client: client}
}

type flightArgs struct {
	DepartureCity string   `json:"departure_city" validate:"required,len=3,alpha"`
	ArrivalCity   string   `json:"arrival_city" validate:"required,len=3,alpha"`
	DepartureDate string   `json:"departure_date" validate:"required,datetime=2006-01-02"`
	Adults        flexInt  `json:"adults" validate:"min=1,max=9"`
	Children      flexInt  `json:"children" validate:"min=0,max=9"`
	Currency      string   `json:"currency" validate:"required,len=3,alpha"`
	TravelClass   flexInt  `json:"travel_class" validate:"min=1,max=4"`
	DeepSearch    flexBool `json:"deep_search"`
	SortBy        flexInt  `json:"sort_by" validate:"min=1,max=6"`
}

func (t *FlightSearch) Name() string { return "search_flights" }

func (t *FlightSearch) Description() string {
	return "Search flights between two airports on a date using Google Flights. " +
		"Returns up to three options with legs, layovers, duration and price."
}

func (t *FlightSearch) Parameters() Schema {
	return Schema{
		Type: "object",
		Properties: map[string]Property{
			"departure_city": {Type: "string", Description: `Departure airport IATA code, e.g. "DEL"`},
			"arrival_city":   {Type: "string", Description: `Arrival airport IATA code, e.g. "GOI"`},
			"departure_date": {Type: "string", Description: "Departure date in YYYY-MM-DD format"},
			"adults":         {Type: "integer", Description: "Number of adults (default 1)"},
			"children":       {Type: "integer", Description: "Number of children (default 0)"},
			"currency":       {Type: "string", Description: `Currency code (default "INR")`},
			"travel_class":   {Type: "integer", Description: "1 Economy (default), 2 Premium economy, 3 Business, 4 First"},
			"deep_search":    {Type: "boolean", Description: "Run a full-depth search (default false)"},
			"sort_by":        {Type: "integer", Description: "1 Top (default), 2 Price, 3 Departure, 4 Arrival, 5 Duration, 6 Emissions"},
		},
		Required: []string{"departure_city", "arrival_city", "departure_date"},
	}
}

func (t *FlightSearch) Execute(ctx context.Context, raw map[string]any) (string, error) {
	if !t.client.Configured() {
		return "Error: " + ErrMissingAPIKey.Error(), nil
	}

	args := flightArgs{Adults: 1, Currency: "INR", TravelClass: 1, SortBy: 1}
	if err := decodeArgs(raw, &args); err != nil {
		return "", err
	}
	args.DepartureCity = strings.ToUpper(args.DepartureCity)
	args.ArrivalCity = strings.ToUpper(args.ArrivalCity)
	if args.DepartureCity == args.ArrivalCity {
		return "", errors.New("departure_city and arrival_city must differ")
	}

	params := url.Values{}
	params.Set("departure_id", args.DepartureCity)
	params.Set("arrival_id", args.ArrivalCity)
	params.Set("outbound_date", args.DepartureDate)
	params.Set("adults", args.Adults.String())
	params.Set("children", args.Children.String())
	params.Set("currency", strings.ToUpper(args.Currency))
	params.Set("travel_class", args.TravelClass.String())
	params.Set("deep_search", strconv.FormatBool(bool(args.DeepSearch)))
	params.Set("sort_by", args.SortBy.String())
	params.Set("gl", "in")
	params.Set("hl", "en")
	// one-way
	params.Set("type", "2")

	res, err := t.client.Search(ctx, "google_flights", params)
	if err != nil {
		return "", err
	}

	options := res.Get("best_flights").Array()
	if len(options) == 0 {
		options = res.Get("other_flights").Array()
	}
	if len(options) == 0 {
		return fmt.Sprintf("No flights found from %s to %s on %s", args.DepartureCity, args.ArrivalCity, args.DepartureDate), nil
	}
	if len(options) > maxResults {
		options = options[:maxResults]
	}

	var b strings.Builder
	for i, opt := range options {
		if i > 0 {
			b.WriteString("\n")
		}
		writeFlightOption(&b, i+1, opt)
	}
	return b.String(), nil
}

func writeFlightOption(b *strings.Builder, n int, opt gjson.Result) {
	fmt.Fprintf(b, "Flight Option %d:\n", n)
	for i, leg := range opt.Get("flights").Array() {
		fmt.Fprintf(b, "  Leg %d:\n", i+1)
		fmt.Fprintf(b, "    Airline: %s (%s)\n", field(leg, "airline", "Unknown Airline"), field(leg, "flight_number", "N/A"))
		fmt.Fprintf(b, "    Class: %s\n", field(leg, "travel_class", "N/A"))
		fmt.Fprintf(b, "    From: %s (%s) at %s\n",
			field(leg, "departure_airport.name", "Unknown"),
			field(leg, "departure_airport.id", "N/A"),
			field(leg, "departure_airport.time", "Unknown"))
		fmt.Fprintf(b, "    To: %s (%s) at %s\n",
			field(leg, "arrival_airport.name", "Unknown"),
			field(leg, "arrival_airport.id", "N/A"),
			field(leg, "arrival_airport.time", "Unknown"))
		fmt.Fprintf(b, "    Duration: %s mins\n", field(leg, "duration", "Unknown"))
	}
	for i, layover := range opt.Get("layovers").Array() {
		overnight := ""
		if layover.Get("overnight").Bool() {
			overnight = " (overnight)"
		}
		fmt.Fprintf(b, "  Layover %d: %s, Duration: %s mins%s\n",
			i+1, field(layover, "name", "Unknown airport"), field(layover, "duration", "Unknown"), overnight)
	}
	fmt.Fprintf(b, "  Total Duration: %s mins\n", field(opt, "total_duration", "Unknown"))
	fmt.Fprintf(b, "  Price: %s\n", field(opt, "price", "Price not available"))
	fmt.Fprintf(b, "  Type: %s\n", field(opt, "type", "Unknown"))
	fmt.Fprintf(b, "  Airline Logo: %s\n", field(opt, "airline_logo", "N/A"))
	fmt.Fprintf(b, "  Departure Token: %s\n", field(opt, "departure_token", "N/A"))
	b.WriteString(strings.Repeat("-", 50))
}
