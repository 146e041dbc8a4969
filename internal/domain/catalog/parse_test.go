package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodePayloadDirect(t *testing.T) {
	var products []Product
	err := decodePayload(`[{"id":"p1","name":"Test","platform":"Amazon","price":1500,"rating":4.2,"reviewCount":120,"inStock":true}]`, &products)
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, "p1", products[0].ID)
	require.Equal(t, PlatformAmazon, products[0].Platform)
}

func TestDecodePayloadFencedFallback(t *testing.T) {
	raw := "Here you go:\n```json\n[{\"id\":\"p1\",\"name\":\"Test\",\"platform\":\"Myntra\",\"price\":2000,\"rating\":4.0,\"reviewCount\":80,\"inStock\":false}]\n```"
	var products []Product
	err := decodePayload(raw, &products)
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, PlatformMyntra, products[0].Platform)
}

func TestDecodePayloadEmpty(t *testing.T) {
	var products []Product
	err := decodePayload("   ", &products)
	require.Error(t, err)
}

func TestDecodePayloadUnparseable(t *testing.T) {
	var products []Product
	err := decodePayload("sorry, I cannot do that", &products)
	require.Error(t, err)

	err = decodePayload("```json\nstill not json\n```", &products)
	require.Error(t, err)
}

func TestSanitizeProductsDropsInvalid(t *testing.T) {
	products := []Product{
		{ID: "p1", Name: "Good", Platform: PlatformAmazon, Price: 1500, Rating: 4.2},
		{ID: "", Name: "No ID", Platform: PlatformAmazon, Price: 1500, Rating: 4.2},
		{ID: "p2", Name: "Bad platform", Platform: Platform("eBay"), Price: 1500, Rating: 4.2},
		{ID: "p3", Name: "Negative price", Platform: PlatformAjio, Price: -5, Rating: 4.2},
		{ID: "p4", Name: "Rating clamped", Platform: PlatformFlipkart, Price: 900, Rating: 7.5},
	}

	out, err := sanitizeProducts(products)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, "p1", out[0].ID)
	require.Equal(t, "p4", out[1].ID)
	require.Equal(t, 5.0, out[1].Rating)
}

func TestSanitizeProductsAllInvalid(t *testing.T) {
	_, err := sanitizeProducts([]Product{{ID: "", Name: ""}})
	require.Error(t, err)
}

func TestDetailPayloadValidateOrdersDates(t *testing.T) {
	payload := detailPayload{
		PriceHistory: []PriceHistoryPoint{
			{Date: "2025-05-03", Price: 2100},
			{Date: "2025-05-01", Price: 2000},
			{Date: "2025-05-02", Price: 2050},
			{Date: "2025-05-02", Price: 2075},
		},
		PricePrediction: []PricePredictionPoint{
			{Date: "2025-05-05", PredictedPrice: 2150, ConfidenceMin: 2000, ConfidenceMax: 2300},
			{Date: "2025-05-04", PredictedPrice: 2120, ConfidenceMin: 1990, ConfidenceMax: 2250},
		},
	}

	require.NoError(t, payload.validate())
	require.Len(t, payload.PriceHistory, 3, "duplicate dates collapsed")
	for i := 1; i < len(payload.PriceHistory); i++ {
		require.Less(t, payload.PriceHistory[i-1].Date, payload.PriceHistory[i].Date)
	}
	for i := 1; i < len(payload.PricePrediction); i++ {
		require.Less(t, payload.PricePrediction[i-1].Date, payload.PricePrediction[i].Date)
	}
}

func TestDetailPayloadValidateMissingSeries(t *testing.T) {
	require.Error(t, (&detailPayload{}).validate())
	require.Error(t, (&detailPayload{PriceHistory: []PriceHistoryPoint{{Date: "2025-05-01", Price: 1}}}).validate())
}
