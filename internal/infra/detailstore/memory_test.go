package detailstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dealscout/dealscout/internal/domain/catalog"
)

func sampleDetails(id string, price float64) catalog.ProductDetails {
	return catalog.ProductDetails{
		Product: catalog.Product{
			ID:       id,
			Name:     "Sample Product",
			Platform: catalog.PlatformAmazon,
			Price:    price,
			Rating:   4.2,
			InStock:  true,
		},
		PriceHistory: []catalog.PriceHistoryPoint{
			{Date: "2025-05-01", Price: price},
		},
		PricePrediction: []catalog.PricePredictionPoint{
			{Date: "2025-06-01", PredictedPrice: price, ConfidenceMin: price * 0.9, ConfidenceMax: price * 1.1},
		},
		PredictionExplanation: "Stable demand keeps the price flat.",
	}
}

func TestMemoryStoreGetPut(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	_, ok, err := store.Get(ctx, "p1")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Put(ctx, "p1", sampleDetails("p1", 1999)))

	got, ok, err := store.Get(ctx, "p1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "p1", got.ID)
	require.Len(t, got.PriceHistory, 1)

	// Last write wins.
	require.NoError(t, store.Put(ctx, "p1", sampleDetails("p1", 1499)))
	got, ok, err = store.Get(ctx, "p1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1499.0, got.Price)
}

func TestMemoryStoreIgnoresEmptyID(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	require.NoError(t, store.Put(ctx, "", sampleDetails("", 100)))
	_, ok, err := store.Get(ctx, "")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(20 * time.Millisecond)

	require.NoError(t, store.Put(ctx, "p1", sampleDetails("p1", 1999)))
	_, ok, err := store.Get(ctx, "p1")
	require.NoError(t, err)
	require.True(t, ok)

	require.Eventually(t, func() bool {
		_, ok, err := store.Get(ctx, "p1")
		return err == nil && !ok
	}, time.Second, 5*time.Millisecond, "entry must expire after the TTL")
}

func TestMemoryStoreZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	require.NoError(t, store.Put(ctx, "p1", sampleDetails("p1", 1999)))
	time.Sleep(30 * time.Millisecond)

	_, ok, err := store.Get(ctx, "p1")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemoryStoreTopQueries(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.IncrementQuery(ctx, "oled tv", "OLED TV"))
	}
	require.NoError(t, store.IncrementQuery(ctx, "headphones", "Headphones"))
	require.NoError(t, store.IncrementQuery(ctx, "headphones", "headphones"))
	require.NoError(t, store.IncrementQuery(ctx, "air fryer", "Air Fryer"))
	require.NoError(t, store.IncrementQuery(ctx, "", "blank"))

	top, err := store.TopQueries(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	require.Equal(t, "OLED TV", top[0].Query, "first recorded display string sticks")
	require.Equal(t, int64(3), top[0].Count)
	require.Equal(t, "Headphones", top[1].Query)
	require.Equal(t, int64(2), top[1].Count)

	all, err := store.TopQueries(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3, "a blank canonical query is never counted")
}
