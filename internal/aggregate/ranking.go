// Package aggregate derives rankings and composite health from registry state.
package aggregate

import (
	"sort"

	"minetrack/internal/registry"
)

// Ranked is one entity's position in the player ranking.
type Ranked struct {
	ID      string `json:"id"`
	Rank    int    `json:"rank"`
	Players int    `json:"players"`
}

// RankEntities orders counts by players descending. Ties keep their input
// order. Ranks start at 1.
func RankEntities(counts []registry.Count) []Ranked {
	sorted := append([]registry.Count(nil), counts...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Players > sorted[j].Players
	})
	out := make([]Ranked, len(sorted))
	for i, c := range sorted {
		out[i] = Ranked{ID: c.ID, Rank: i + 1, Players: c.Players}
	}
	return out
}
