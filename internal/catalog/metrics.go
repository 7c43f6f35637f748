package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch outcomes.
const (
	outcomeOK    = "ok"
	outcomeError = "error"
	outcomeStale = "stale"
)

var fetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "storefront_catalog_fetch_total",
	Help: "Catalog product fetches by outcome.",
}, []string{"outcome"})
