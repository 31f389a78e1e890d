package resolver

import (
	"sync"

	"github.com/superdango/ecojourney"
)

type statsKey struct {
	category ecojourney.Category
	source   ecojourney.Source
}

type stats struct {
	mu     sync.Mutex
	counts map[statsKey]int
}

func newStats() *stats {
	return &stats{counts: make(map[statsKey]int)}
}

func (s *stats) record(category ecojourney.Category, source ecojourney.Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[statsKey{category, source}]++
}

// Count returns how many estimates of the category were produced by source.
func (r *Resolver) Count(category ecojourney.Category, source ecojourney.Source) int {
	r.stats.mu.Lock()
	defer r.stats.mu.Unlock()
	return r.stats.counts[statsKey{category, source}]
}

// Collect sends the estimate counters on metrics, zero counts included, and
// the size of the remote estimation cache.
func (r *Resolver) Collect(metrics chan *ecojourney.Metric) {
	r.stats.mu.Lock()
	counts := make(map[statsKey]int, len(r.stats.counts))
	for key, count := range r.stats.counts {
		counts[key] = count
	}
	r.stats.mu.Unlock()

	for _, category := range ecojourney.Categories {
		for _, source := range ecojourney.Sources {
			metrics <- &ecojourney.Metric{
				Name: "ecojourney_estimates_total",
				Labels: map[string]string{
					"category": string(category),
					"source":   string(source),
				},
				Value: float64(counts[statsKey{category, source}]),
			}
		}
	}

	if r.cache != nil {
		metrics <- &ecojourney.Metric{Name: "ecojourney_cache_entries", Value: float64(r.cache.Len())}
	}
}
