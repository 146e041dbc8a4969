package catalog

import "sort"

// ApplyFilters derives the displayed subset from the full result set.
// Predicates apply conjunctively; an empty platform set passes every
// platform. The sort is stable so ties keep their insertion order. The
// input slice is never mutated.
func ApplyFilters(products []Product, opts FilterOptions) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if p.Price < opts.PriceRange.Min || p.Price > opts.PriceRange.Max {
			continue
		}
		if p.Rating < opts.Rating {
			continue
		}
		if len(opts.Platforms) > 0 && !containsPlatform(opts.Platforms, p.Platform) {
			continue
		}
		if opts.InStock && !p.InStock {
			continue
		}
		out = append(out, p)
	}

	switch opts.SortBy {
	case SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	case SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	case SortRatingDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	}
	return out
}

func containsPlatform(allowed []Platform, p Platform) bool {
	for _, candidate := range allowed {
		if candidate == p {
			return true
		}
	}
	return false
}

// MergeByID appends additions to existing, dropping any addition whose ID
// is already present. The first occurrence of an ID always wins and
// insertion order is preserved. The remote source promises disjoint IDs
// for pagination batches but that promise is never trusted.
func MergeByID(existing, additions []Product) []Product {
	seen := make(map[string]struct{}, len(existing)+len(additions))
	merged := make([]Product, 0, len(existing)+len(additions))
	for _, p := range existing {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		merged = append(merged, p)
	}
	for _, p := range additions {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		merged = append(merged, p)
	}
	return merged
}
