package tools

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"
)

// HotelSearch is the search_hotels tool.
type HotelSearch struct {
	client *SearchClient
}

// NewHotelSearch creates the search_hotels tool.
func NewHotelSearch(client *SearchClient) *HotelSearch {
	return &HotelSearch{client: client}
}

type hotelArgs struct {
	Query        string     `json:"query" validate:"required"`
	CheckInDate  string     `json:"check_in_date" validate:"required,datetime=2006-01-02"`
	CheckOutDate string     `json:"check_out_date" validate:"required,datetime=2006-01-02"`
	Adults       flexInt    `json:"adults" validate:"min=1,max=20"`
	Children     flexInt    `json:"children" validate:"min=0,max=20"`
	SortBy       flexInt    `json:"sort_by" validate:"omitempty,oneof=3 8 13"`
	Currency     string     `json:"currency" validate:"required,len=3,alpha"`
	Rating       flexInt    `json:"rating" validate:"omitempty,oneof=7 8 9"`
	HotelClass   flexString `json:"hotel_class"`
}

func (t *HotelSearch) Name() string { return "search_hotels" }

func (t *HotelSearch) Description() string {
	return "Search hotels for a location and stay dates using Google Hotels. " +
		"Returns up to three properties with rating, nightly price, amenities and nearby places."
}

func (t *HotelSearch) Parameters() Schema {
	return Schema{
		Type: "object",
		Properties: map[string]Property{
			"query":          {Type: "string", Description: `Location to search, e.g. "Goa, India"`},
			"check_in_date":  {Type: "string", Description: "Check-in date in YYYY-MM-DD format"},
			"check_out_date": {Type: "string", Description: "Check-out date in YYYY-MM-DD format"},
			"adults":         {Type: "integer", Description: "Number of adults (default 2)"},
			"children":       {Type: "integer", Description: "Number of children (default 0)"},
			"sort_by":        {Type: "integer", Description: "3 Lowest price, 8 Highest rating, 13 Most reviewed"},
			"currency":       {Type: "string", Description: `Currency code (default "INR")`},
			"rating":         {Type: "integer", Description: "Minimum rating: 7 for 3.5+, 8 for 4.0+, 9 for 4.5+"},
			"hotel_class":    {Type: "string", Description: `Star class filter, e.g. "4" or "3,4,5"`},
		},
		Required: []string{"query", "check_in_date", "check_out_date"},
	}
}

func (t *HotelSearch) Execute(ctx context.Context, raw map[string]any) (string, error) {
	if !t.client.Configured() {
		return "Error: " + ErrMissingAPIKey.Error(), nil
	}

	args := hotelArgs{Adults: 2, Currency: "INR"}
	if err := decodeArgs(raw, &args); err != nil {
		return "", err
	}
	// ISO dates compare correctly as strings
	if args.CheckOutDate <= args.CheckInDate {
		return "", errors.New("check_out_date must be after check_in_date")
	}

	params := url.Values{}
	params.Set("q", args.Query)
	params.Set("check_in_date", args.CheckInDate)
	params.Set("check_out_date", args.CheckOutDate)
	params.Set("adults", args.Adults.String())
	params.Set("children", args.Children.String())
	params.Set("currency", strings.ToUpper(args.Currency))
	params.Set("gl", "in")
	params.Set("hl", "en")
	if args.SortBy != 0 {
		params.Set("sort_by", args.SortBy.String())
	}
	if args.Rating != 0 {
		params.Set("rating", args.Rating.String())
	}
	if args.HotelClass != "" {
		params.Set("hotel_class", string(args.HotelClass))
	}

	res, err := t.client.Search(ctx, "google_hotels", params)
	if err != nil {
		return "", err
	}

	properties := res.Get("properties").Array()
	if len(properties) == 0 {
		return fmt.Sprintf("No hotels found for %s from %s to %s", args.Query, args.CheckInDate, args.CheckOutDate), nil
	}
	if len(properties) > maxResults {
		properties = properties[:maxResults]
	}

	var b strings.Builder
	for i, p := range properties {
		if i > 0 {
			b.WriteString("\n")
		}
		writeHotel(&b, p, args.Adults.String())
	}
	return b.String(), nil
}

func writeHotel(b *strings.Builder, p gjson.Result, adults string) {
	link := field(p, "link", field(p, "serpapi_property_details_link", "N/A"))

	nearby := lo.Map(p.Get("nearby_places").Array(), func(place gjson.Result, _ int) string {
		transports := lo.Map(place.Get("transportations").Array(), func(tr gjson.Result, _ int) string {
			return fmt.Sprintf("%s (%s)", tr.Get("type").String(), tr.Get("duration").String())
		})
		return place.Get("name").String() + " - " + strings.Join(transports, "; ")
	})
	nearbySummary := "None"
	if len(nearby) > 0 {
		nearbySummary = strings.Join(nearby, "; ")
	}

	fmt.Fprintf(b, "Hotel: %s (%s)\n", field(p, "name", "Unknown Hotel"), field(p, "type", "Unknown Type"))
	fmt.Fprintf(b, "Rating: %s (%s reviews)\n", field(p, "overall_rating", "No rating"), field(p, "reviews", "N/A"))
	fmt.Fprintf(b, "Price per night for %s guests: %s (Before taxes: %s) via %s\n",
		field(p, "prices.0.num_guests", adults),
		field(p, "rate_per_night.lowest", "N/A"),
		field(p, "rate_per_night.before_taxes_fees", "N/A"),
		field(p, "prices.0.source", "N/A"))
	fmt.Fprintf(b, "Amenities: %s\n", joinStrings(p.Get("amenities")))
	fmt.Fprintf(b, "Excluded Amenities: %s\n", joinStrings(p.Get("excluded_amenities")))
	fmt.Fprintf(b, "Essential Info: %s\n", joinStrings(p.Get("essential_info")))
	fmt.Fprintf(b, "Location: Latitude %s, Longitude %s\n",
		field(p, "gps_coordinates.latitude", "N/A"), field(p, "gps_coordinates.longitude", "N/A"))
	fmt.Fprintf(b, "Check-in Time: %s, Check-out Time: %s\n",
		field(p, "check_in_time", "N/A"), field(p, "check_out_time", "N/A"))
	fmt.Fprintf(b, "Nearby Places: %s\n", nearbySummary)
	fmt.Fprintf(b, "Booking Link: %s\n", link)
	fmt.Fprintf(b, "Property Token: %s\n", field(p, "property_token", "N/A"))
	fmt.Fprintf(b, "Image: %s\n", field(p, "images.0.original_image", "N/A"))
	b.WriteString(strings.Repeat("-", 43))
}

func joinStrings(arr gjson.Result) string {
	return strings.Join(lo.Map(arr.Array(), func(r gjson.Result, _ int) string {
		return r.String()
	}), ", ")
}
