package main

import "sort"

// sortedByCount orders slugs by descending count, then by slug.
func sortedByCount(counts map[string]int) []string {
	slugs := make([]string, 0, len(counts))
	for slug := range counts {
		slugs = append(slugs, slug)
	}
	sort.Slice(slugs, func(i, j int) bool {
		if counts[slugs[i]] != counts[slugs[j]] {
			return counts[slugs[i]] > counts[slugs[j]]
		}
		return slugs[i] < slugs[j]
	})
	return slugs
}
