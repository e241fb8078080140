package resolver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultCacheHit        = "cache_hit"
	resultCachedRejection = "cached_rejection"
	resultFetched         = "fetched"
	resultRejected        = "rejected"
	resultError           = "error"
)

var resolveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "lineage_resolver_resolutions_total",
	Help: "Artist resolutions by result",
}, []string{"result"})
