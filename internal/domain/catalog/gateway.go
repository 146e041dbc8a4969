package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dealscout/dealscout/internal/infra/llm/genai"
	apperrors "github.com/dealscout/dealscout/pkg/errors"
	"github.com/dealscout/dealscout/pkg/metrics"
)

// GatewayConfig wires runtime settings for the remote query gateway.
type GatewayConfig struct {
	Temperature    float32
	BatchSize      int
	MoreBatchSize  int
	HistoryDays    int
	PredictionDays int
}

// GenerateClient is the slice of the genai client the gateway needs.
type GenerateClient interface {
	GenerateContent(ctx context.Context, req genai.GenerateRequest) (genai.GenerateResponse, error)
}

type gateway struct {
	cfg    GatewayConfig
	client GenerateClient
	logger *slog.Logger
}

// NewGateway wires up the model-backed product gateway.
func NewGateway(cfg GatewayConfig, client GenerateClient, logger *slog.Logger) Gateway {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 8
	}
	if cfg.MoreBatchSize <= 0 {
		cfg.MoreBatchSize = 4
	}
	if cfg.HistoryDays <= 0 {
		cfg.HistoryDays = 14
	}
	if cfg.PredictionDays <= 0 {
		cfg.PredictionDays = 14
	}
	return &gateway{
		cfg:    cfg,
		client: client,
		logger: logger.With("component", "catalog.gateway"),
	}
}

func (g *gateway) SearchProducts(ctx context.Context, query string) ([]Product, error) {
	prompt := g.buildSearchPrompt(query, g.cfg.BatchSize, nil)

	var products []Product
	if err := g.generate(ctx, "search", prompt, &products); err != nil {
		return nil, err
	}
	sanitized, err := sanitizeProducts(products)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeRemoteError, "model returned no usable products", err)
	}
	g.logger.Info("search products fetched", "query", query, "count", len(sanitized))
	return sanitized, nil
}

func (g *gateway) FetchMoreProducts(ctx context.Context, query string, existingIDs []string) ([]Product, error) {
	prompt := g.buildSearchPrompt(query, g.cfg.MoreBatchSize, existingIDs)

	var products []Product
	if err := g.generate(ctx, "more", prompt, &products); err != nil {
		return nil, err
	}
	sanitized, err := sanitizeProducts(products)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeRemoteError, "model returned no usable products", err)
	}
	g.logger.Info("more products fetched", "query", query, "count", len(sanitized))
	return sanitized, nil
}

func (g *gateway) FetchProductDetails(ctx context.Context, product Product) (ProductDetails, error) {
	prompt := g.buildDetailPrompt(product)

	var payload detailPayload
	if err := g.generate(ctx, "details", prompt, &payload); err != nil {
		return ProductDetails{}, err
	}
	if err := payload.validate(); err != nil {
		return ProductDetails{}, apperrors.Wrap(apperrors.CodeRemoteError, "model returned malformed detail payload", err)
	}
	g.logger.Info("product details fetched", "id", product.ID,
		"history", len(payload.PriceHistory), "prediction", len(payload.PricePrediction))
	return ProductDetails{
		Product:               product,
		PriceHistory:          payload.PriceHistory,
		PricePrediction:       payload.PricePrediction,
		PredictionExplanation: strings.TrimSpace(payload.PredictionExplanation),
	}, nil
}

// generate issues one model call and decodes the structured payload into
// out. Every failure mode collapses to the remote_error code; the
// underlying cause stays in the wrapped error for diagnostics.
func (g *gateway) generate(ctx context.Context, op, prompt string, out any) error {
	resp, err := g.client.GenerateContent(ctx, genai.GenerateRequest{
		Contents: []genai.Content{
			{Role: "user", Parts: []genai.Part{{Text: prompt}}},
		},
		GenerationConfig: &genai.GenerationConfig{
			Temperature:      g.cfg.Temperature,
			ResponseMIMEType: "application/json",
		},
	})
	if err != nil {
		g.logger.Error("model call failed", "op", op, "error", err)
		return apperrors.Wrap(apperrors.CodeRemoteError, "model request failed", err)
	}

	usage := metrics.TokenUsage{
		PromptTokens:   resp.UsageMetadata.PromptTokenCount,
		ResponseTokens: resp.UsageMetadata.CandidatesTokenCount,
		TotalTokens:    resp.UsageMetadata.TotalTokenCount,
	}
	if !usage.IsZero() {
		g.logger.Debug("model usage", "op", op, "prompt_tokens", usage.PromptTokens, "total_tokens", usage.TotalTokens)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		g.logger.Error("model returned empty response", "op", op)
		return apperrors.Wrap(apperrors.CodeRemoteError, "model returned empty response", nil)
	}
	if err := decodePayload(text, out); err != nil {
		g.logger.Error("model payload unparseable", "op", op, "error", err)
		return apperrors.Wrap(apperrors.CodeRemoteError, "model returned unparseable payload", err)
	}
	return nil
}

func (g *gateway) buildSearchPrompt(query string, count int, existingIDs []string) string {
	var sb strings.Builder
	sb.WriteString("You are a product data aggregation API. A user is searching for '")
	sb.WriteString(query)
	sb.WriteString("'. ")
	if len(existingIDs) > 0 {
		fmt.Fprintf(&sb, "They already have products with these IDs: %s. ", strings.Join(existingIDs, ", "))
		fmt.Fprintf(&sb, "Return a JSON array of %d NEW realistic but fictional product listings that are NOT in the existing IDs list. ", count)
	} else {
		fmt.Fprintf(&sb, "Return a JSON array of %d realistic but fictional product listings from 'Amazon', 'Flipkart', 'Myntra', and 'Ajio'. ", count)
	}
	sb.WriteString(`Each product must have these fields:
- id: a unique string`)
	if len(existingIDs) > 0 {
		sb.WriteString(" NOT in the provided list of existing IDs")
	}
	sb.WriteString(`
- name: a relevant and specific product name related to the query
- platform: 'Amazon' | 'Flipkart' | 'Myntra' | 'Ajio'
- price: a number between 1000 and 50000
- rating: a number between 3.5 and 5.0, with one decimal place
- reviewCount: a number between 50 and 5000
- imageUrl: a relevant image URL from source.unsplash.com/400x300/?{search_term}. The {search_term} should be a simple, one- or two-word lowercase description of the product category (e.g., 'headphones', 'running-shoes', 'smartwatch'). This is critical to ensure images load correctly.
- productUrl: a valid search URL on the product's platform for the Indian version of the site. For a product named 'XYZ ABC', the URL should be constructed like this:
  - Amazon: 'https://www.amazon.in/s?k=XYZ+ABC'
  - Flipkart: 'https://www.flipkart.com/search?q=XYZ+ABC'
  - Myntra: 'https://www.myntra.com/XYZ-ABC'
  - Ajio: 'https://www.ajio.com/search/?text=XYZ+ABC'
- inStock: boolean
- bestCardOffer: a short, catchy bank offer string, e.g., '10% Instant Discount on SBI Card' or 'Flat ₹1500 Off on HDFC EMI'.
- bestEmiPlan: a concise EMI plan description, e.g., 'No Cost EMI from ₹4,165/month' or 'EMI starts at ₹1,999/month'.
Respond ONLY with the JSON array, no prose. Ensure the JSON is well-formed.`)
	return sb.String()
}

func (g *gateway) buildDetailPrompt(product Product) string {
	return fmt.Sprintf(`You are a price prediction API. For the product named '%s' with ID '%s', generate its price history for the last %d days and a price prediction for the next %d days. The current price is %.0f.

Return a JSON object with these keys: "priceHistory", "pricePrediction", and "predictionExplanation".
- "priceHistory": An array of objects, one for each of the last %d days, with "date" (YYYY-MM-DD format, ending yesterday) and "price" (a number fluctuating realistically around the current price).
- "pricePrediction": An array of objects for today and the next %d days, with "date", "predictedPrice", "confidenceMin" (lower bound), and "confidenceMax" (upper bound). The prediction should show a plausible trend.
- "predictionExplanation": A short, user-friendly text (2-3 sentences) explaining the price prediction trend (e.g., 'Prices are expected to slightly decrease over the next week due to seasonal demand changes.').

Respond ONLY with the JSON object, no prose. Ensure the JSON is well-formed.`,
		product.Name, product.ID, g.cfg.HistoryDays, g.cfg.PredictionDays, product.Price,
		g.cfg.HistoryDays, g.cfg.PredictionDays-1)
}
