package provider

import "sort"

// RankCandidates orders providers for auto-assignment. Providers serving
// location come first and exclusively; the full set is used only when no
// provider serves it. Within the pool, higher rating wins and ties keep
// their input order.
func RankCandidates(providers []*Provider, location string) []*Provider {
	pool := make([]*Provider, 0, len(providers))
	for _, p := range providers {
		if p.ServesArea(location) {
			pool = append(pool, p)
		}
	}
	if len(pool) == 0 {
		pool = append(pool, providers...)
	}

	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].rating > pool[j].rating
	})
	return pool
}
