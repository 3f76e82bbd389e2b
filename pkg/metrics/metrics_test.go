package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/storefront-labs/catalog-client/pkg/cache"
)

func TestRegistry(t *testing.T) {
	if Registry == nil {
		t.Error("Registry should not be nil")
	}

	if Registry != prometheus.DefaultRegisterer {
		t.Error("Registry should be the default Prometheus registerer")
	}
}

// TestCatalogFamiliesGatherable verifies that the metric families this
// package documents actually land in the default registry once their
// owning packages are linked in. Plain counters register eagerly; vector
// metrics appear after their first labeled observation.
func TestCatalogFamiliesGatherable(t *testing.T) {
	cache.CacheMisses.Add(0)
	cache.CacheHits.WithLabelValues("memory").Add(0)

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	found := map[string]bool{}
	for _, f := range families {
		found[f.GetName()] = true
	}

	for _, name := range []string{
		"catalog_cache_misses_total",
		"catalog_cache_hits_total",
	} {
		if !found[name] {
			t.Errorf("Gather() missing family %q", name)
		}
	}
}
