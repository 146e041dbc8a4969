package catalog

import "context"

// Platform identifies the marketplace a listing belongs to. The set is
// closed; anything else coming back from the model is rejected.
type Platform string

const (
	PlatformAmazon   Platform = "Amazon"
	PlatformFlipkart Platform = "Flipkart"
	PlatformMyntra   Platform = "Myntra"
	PlatformAjio     Platform = "Ajio"
)

// Platforms lists every known marketplace.
var Platforms = []Platform{PlatformAmazon, PlatformFlipkart, PlatformMyntra, PlatformAjio}

// Valid reports whether p is one of the known marketplaces.
func (p Platform) Valid() bool {
	switch p {
	case PlatformAmazon, PlatformFlipkart, PlatformMyntra, PlatformAjio:
		return true
	default:
		return false
	}
}

// SortMode selects the ordering applied to a filtered result set.
type SortMode string

const (
	SortPriceAsc   SortMode = "price-asc"
	SortPriceDesc  SortMode = "price-desc"
	SortRatingDesc SortMode = "rating-desc"
)

// Valid reports whether m is a known sort mode.
func (m SortMode) Valid() bool {
	switch m {
	case SortPriceAsc, SortPriceDesc, SortRatingDesc:
		return true
	default:
		return false
	}
}

// Product is a single fabricated listing. Identity is the ID: two
// products with the same ID are the same entity for caching and
// de-duplication.
type Product struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Platform      Platform `json:"platform"`
	Price         float64  `json:"price"`
	Rating        float64  `json:"rating"`
	ReviewCount   int      `json:"reviewCount"`
	ImageURL      string   `json:"imageUrl"`
	ProductURL    string   `json:"productUrl"`
	InStock       bool     `json:"inStock"`
	BestCardOffer string   `json:"bestCardOffer"`
	BestEMIPlan   string   `json:"bestEmiPlan"`
}

// PriceHistoryPoint is one day of trailing price data.
type PriceHistoryPoint struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

// PricePredictionPoint is one day of forecast data with its confidence band.
type PricePredictionPoint struct {
	Date           string  `json:"date"`
	PredictedPrice float64 `json:"predictedPrice"`
	ConfidenceMin  float64 `json:"confidenceMin"`
	ConfidenceMax  float64 `json:"confidenceMax"`
}

// ProductDetails extends a Product with its price history and forecast.
// Immutable once created; owned by the detail store for the session.
type ProductDetails struct {
	Product
	PriceHistory          []PriceHistoryPoint    `json:"priceHistory"`
	PricePrediction       []PricePredictionPoint `json:"pricePrediction"`
	PredictionExplanation string                 `json:"predictionExplanation"`
}

// PriceRange bounds the filter on listing price, inclusive.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// FilterOptions is the full filter and sort configuration. The zero
// value is not useful; use DefaultFilters.
type FilterOptions struct {
	PriceRange PriceRange `json:"priceRange"`
	Rating     float64    `json:"rating"`
	Platforms  []Platform `json:"platforms"`
	InStock    bool       `json:"inStock"`
	SortBy     SortMode   `json:"sortBy"`
}

// DefaultFilters returns the configuration every session starts with.
func DefaultFilters() FilterOptions {
	return FilterOptions{
		PriceRange: PriceRange{Min: 0, Max: 50000},
		Rating:     0,
		Platforms:  nil,
		InStock:    true,
		SortBy:     SortPriceAsc,
	}
}

// Gateway fabricates product data through the remote model. All failures
// carry the remote_error code.
type Gateway interface {
	SearchProducts(ctx context.Context, query string) ([]Product, error)
	FetchMoreProducts(ctx context.Context, query string, existingIDs []string) ([]Product, error)
	FetchProductDetails(ctx context.Context, product Product) (ProductDetails, error)
}

// DetailStore holds fetched detail records for the lifetime of a session
// plus the query trending counters.
type DetailStore interface {
	Get(ctx context.Context, id string) (ProductDetails, bool, error)
	Put(ctx context.Context, id string, details ProductDetails) error
	IncrementQuery(ctx context.Context, canonical, display string) error
	TopQueries(ctx context.Context, limit int) ([]TrendingQuery, error)
}

// TrendingQuery is a search term with the number of times it stabilized.
type TrendingQuery struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}
