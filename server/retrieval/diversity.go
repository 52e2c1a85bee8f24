package retrieval

import (
	"math/rand"
	"strings"
)

// Diversify reorders a relevance-sorted candidate pool so no single brand
// dominates the output and brands the user has not seen yet come first.
//
// The pool is split into items whose brand is absent from seenBrands and
// items whose brand has been shown before. Each half is interleaved by brand
// in round-robin order (brands keep their first-seen order, items within a
// brand keep relevance order), the unseen half is concatenated ahead of the
// seen half, and the top 2×limit of that concatenation is shuffled before
// truncating to limit. The shuffle keeps repeated identical queries from
// returning the identical ordering without undoing the brand fairness.
func Diversify(pool []Product, seenBrands []string, limit int) []Product {
	if limit <= 0 || len(pool) == 0 {
		return []Product{}
	}

	seen := make(map[string]bool, len(seenBrands))
	for _, b := range seenBrands {
		seen[strings.ToLower(b)] = true
	}

	newBrand := make([]Product, 0, len(pool))
	oldBrand := make([]Product, 0, len(pool))
	for _, p := range pool {
		if seen[strings.ToLower(p.Brand)] {
			oldBrand = append(oldBrand, p)
		} else {
			newBrand = append(newBrand, p)
		}
	}

	merged := append(interleaveByBrand(newBrand), interleaveByBrand(oldBrand)...)

	sample := 2 * limit
	if sample > len(merged) {
		sample = len(merged)
	}
	candidates := make([]Product, sample)
	copy(candidates, merged[:sample])

	rand.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	// The shuffle must not cost the user their only unseen brand: if none
	// survived the cut, swap one in.
	if len(newBrand) > 0 && !containsUnseen(candidates, seen) {
		candidates[len(candidates)-1] = newBrand[0]
	}

	return ensureBrandSpread(candidates, merged)
}

// minBrandSpread is the floor on distinct brands in the output, when the
// pool has that many.
const minBrandSpread = 4

// ensureBrandSpread repairs the random sample so that no single brand crowds
// the others out entirely: items of missing brands replace duplicate-brand
// items until the output covers min(minBrandSpread, brands in pool) brands.
func ensureBrandSpread(result, pool []Product) []Product {
	target := len(distinctBrandSet(pool))
	if target > minBrandSpread {
		target = minBrandSpread
	}
	if target > len(result) {
		target = len(result)
	}

	for {
		counts := map[string]int{}
		for _, p := range result {
			counts[strings.ToLower(p.Brand)]++
		}
		if len(counts) >= target {
			return result
		}

		var pick *Product
		for i, p := range pool {
			if counts[strings.ToLower(p.Brand)] == 0 {
				pick = &pool[i]
				break
			}
		}
		if pick == nil {
			return result
		}

		evict := -1
		for i := len(result) - 1; i >= 0; i-- {
			if counts[strings.ToLower(result[i].Brand)] > 1 {
				evict = i
				break
			}
		}
		if evict < 0 {
			return result
		}
		result[evict] = *pick
	}
}

func distinctBrandSet(products []Product) map[string]bool {
	set := map[string]bool{}
	for _, p := range products {
		set[strings.ToLower(p.Brand)] = true
	}
	return set
}

func containsUnseen(products []Product, seen map[string]bool) bool {
	for _, p := range products {
		if !seen[strings.ToLower(p.Brand)] {
			return true
		}
	}
	return false
}

// interleaveByBrand groups items by brand preserving first-seen brand order,
// then emits one item per brand per round until all groups are drained.
func interleaveByBrand(items []Product) []Product {
	if len(items) <= 1 {
		return items
	}

	order := []string{}
	groups := map[string][]Product{}
	for _, p := range items {
		brand := strings.ToLower(p.Brand)
		if _, ok := groups[brand]; !ok {
			order = append(order, brand)
		}
		groups[brand] = append(groups[brand], p)
	}

	out := make([]Product, 0, len(items))
	for len(out) < len(items) {
		for _, brand := range order {
			if group := groups[brand]; len(group) > 0 {
				out = append(out, group[0])
				groups[brand] = group[1:]
			}
		}
	}
	return out
}
