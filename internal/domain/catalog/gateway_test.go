package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dealscout/dealscout/internal/infra/llm/genai"
	apperrors "github.com/dealscout/dealscout/pkg/errors"
)

type stubGenerateClient struct {
	responses []genai.GenerateResponse
	err       error
	calls     int
	prompts   []string
}

func (s *stubGenerateClient) GenerateContent(_ context.Context, req genai.GenerateRequest) (genai.GenerateResponse, error) {
	if len(req.Contents) > 0 && len(req.Contents[0].Parts) > 0 {
		s.prompts = append(s.prompts, req.Contents[0].Parts[0].Text)
	}
	if s.err != nil {
		return genai.GenerateResponse{}, s.err
	}
	if s.calls >= len(s.responses) {
		return genai.GenerateResponse{}, nil
	}
	resp := s.responses[s.calls]
	s.calls++
	return resp, nil
}

func genResponse(text string) genai.GenerateResponse {
	var resp genai.GenerateResponse
	resp.Candidates = append(resp.Candidates, struct {
		Content      genai.Content `json:"content"`
		FinishReason string        `json:"finishReason"`
	}{Content: genai.Content{Role: "model", Parts: []genai.Part{{Text: text}}}})
	return resp
}

func newTestGateway(client GenerateClient) Gateway {
	return NewGateway(GatewayConfig{BatchSize: 8, MoreBatchSize: 4, HistoryDays: 14, PredictionDays: 14},
		client, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGatewaySearchProducts(t *testing.T) {
	stub := &stubGenerateClient{responses: []genai.GenerateResponse{genResponse(
		`[{"id":"p1","name":"Aurora Buds","platform":"Amazon","price":2999,"rating":4.6,"reviewCount":320,"imageUrl":"https://source.unsplash.com/400x300/?headphones","productUrl":"https://www.amazon.in/s?k=Aurora+Buds","inStock":true,"bestCardOffer":"10% off SBI","bestEmiPlan":"No Cost EMI"}]`,
	)}}

	gw := newTestGateway(stub)
	products, err := gw.SearchProducts(context.Background(), "headphones")
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, "p1", products[0].ID)
	require.Equal(t, 1, stub.calls)
	require.Contains(t, stub.prompts[0], "'headphones'")
	require.Contains(t, stub.prompts[0], "8 realistic but fictional")
}

func TestGatewayFetchMoreEmbedsExistingIDs(t *testing.T) {
	stub := &stubGenerateClient{responses: []genai.GenerateResponse{genResponse(
		`[{"id":"p9","name":"Flux Over-Ear","platform":"Ajio","price":1999,"rating":4.0,"reviewCount":92,"inStock":true}]`,
	)}}

	gw := newTestGateway(stub)
	products, err := gw.FetchMoreProducts(context.Background(), "headphones", []string{"p1", "p2"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Contains(t, stub.prompts[0], "p1, p2")
	require.Contains(t, stub.prompts[0], "4 NEW realistic")
	require.Contains(t, stub.prompts[0], "NOT in the existing IDs list")
}

func TestGatewayFetchProductDetails(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(`{"priceHistory":[`)
	for i := 1; i <= 14; i++ {
		if i > 1 {
			sb.WriteString(",")
		}
		sb.WriteString(`{"date":"2025-05-` + pad(i) + `","price":2900}`)
	}
	sb.WriteString(`],"pricePrediction":[`)
	for i := 15; i <= 28; i++ {
		if i > 15 {
			sb.WriteString(",")
		}
		sb.WriteString(`{"date":"2025-05-` + pad(i) + `","predictedPrice":2850,"confidenceMin":2700,"confidenceMax":3000}`)
	}
	sb.WriteString(`],"predictionExplanation":"Prices should dip slightly next week."}`)

	stub := &stubGenerateClient{responses: []genai.GenerateResponse{genResponse(sb.String())}}
	gw := newTestGateway(stub)

	product := Product{ID: "p3", Name: "Clarity ANC", Platform: PlatformMyntra, Price: 2999, Rating: 4.8}
	details, err := gw.FetchProductDetails(context.Background(), product)
	require.NoError(t, err)
	require.Equal(t, product, details.Product)
	require.Len(t, details.PriceHistory, 14)
	require.Len(t, details.PricePrediction, 14)
	for i := 1; i < len(details.PriceHistory); i++ {
		require.Less(t, details.PriceHistory[i-1].Date, details.PriceHistory[i].Date)
	}
	for i := 1; i < len(details.PricePrediction); i++ {
		require.Less(t, details.PricePrediction[i-1].Date, details.PricePrediction[i].Date)
	}
	require.NotEmpty(t, details.PredictionExplanation)
	require.Contains(t, stub.prompts[0], "'Clarity ANC'")
	require.Contains(t, stub.prompts[0], "'p3'")
}

func TestGatewayFailureModesCollapseToRemoteError(t *testing.T) {
	cases := map[string]*stubGenerateClient{
		"transport error": {err: errors.New("connection refused")},
		"empty response":  {responses: []genai.GenerateResponse{genResponse("")}},
		"unparseable":     {responses: []genai.GenerateResponse{genResponse("sorry, no can do")}},
	}
	for name, stub := range cases {
		gw := newTestGateway(stub)
		_, err := gw.SearchProducts(context.Background(), "headphones")
		require.Error(t, err, name)
		require.True(t, apperrors.IsCode(err, apperrors.CodeRemoteError), name)
	}
}

func pad(day int) string {
	return fmt.Sprintf("%02d", day)
}
