package catalog

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"
)

// decodePayload unmarshals raw model output into out. The model is asked
// for a bare JSON payload, but it sometimes wraps the payload in a fenced
// code block; if direct parsing fails the fenced interior is tried once
// before giving up.
func decodePayload(raw string, out any) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return errors.New("empty model response")
	}
	direct := json.Unmarshal([]byte(trimmed), out)
	if direct == nil {
		return nil
	}
	inner, ok := extractFenced(trimmed)
	if !ok {
		return direct
	}
	return json.Unmarshal([]byte(inner), out)
}

// extractFenced returns the interior of the first fenced code block,
// tolerating a "json" language tag after the opening fence.
func extractFenced(raw string) (string, bool) {
	start := strings.Index(raw, "```")
	if start < 0 {
		return "", false
	}
	rest := raw[start+3:]
	if after, ok := strings.CutPrefix(rest, "json"); ok {
		rest = after
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

// sanitizeProducts drops entries that violate the wire contract and
// clamps ratings into [0, 5]. An error is returned only when nothing
// usable remains.
func sanitizeProducts(products []Product) ([]Product, error) {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		p.ID = strings.TrimSpace(p.ID)
		p.Name = strings.TrimSpace(p.Name)
		if p.ID == "" || p.Name == "" {
			continue
		}
		if !p.Platform.Valid() {
			continue
		}
		if p.Price < 0 || p.ReviewCount < 0 {
			continue
		}
		if p.Rating < 0 {
			p.Rating = 0
		}
		if p.Rating > 5 {
			p.Rating = 5
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, errors.New("no valid products in model response")
	}
	return out, nil
}

// detailPayload is the shape returned by the detail prompt; the product
// fields are merged in by the gateway.
type detailPayload struct {
	PriceHistory          []PriceHistoryPoint    `json:"priceHistory"`
	PricePrediction       []PricePredictionPoint `json:"pricePrediction"`
	PredictionExplanation string                 `json:"predictionExplanation"`
}

func (d *detailPayload) validate() error {
	if len(d.PriceHistory) == 0 {
		return errors.New("price history missing")
	}
	if len(d.PricePrediction) == 0 {
		return errors.New("price prediction missing")
	}
	// Dates must be strictly increasing within each series; re-order
	// rather than reject when the model shuffles them.
	sort.SliceStable(d.PriceHistory, func(i, j int) bool {
		return d.PriceHistory[i].Date < d.PriceHistory[j].Date
	})
	sort.SliceStable(d.PricePrediction, func(i, j int) bool {
		return d.PricePrediction[i].Date < d.PricePrediction[j].Date
	})
	d.PriceHistory = dedupeHistory(d.PriceHistory)
	d.PricePrediction = dedupePrediction(d.PricePrediction)
	return nil
}

func dedupeHistory(points []PriceHistoryPoint) []PriceHistoryPoint {
	out := points[:0]
	for i, pt := range points {
		if i > 0 && pt.Date == out[len(out)-1].Date {
			continue
		}
		out = append(out, pt)
	}
	return out
}

func dedupePrediction(points []PricePredictionPoint) []PricePredictionPoint {
	out := points[:0]
	for i, pt := range points {
		if i > 0 && pt.Date == out[len(out)-1].Date {
			continue
		}
		out = append(out, pt)
	}
	return out
}
