package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every SitFit series on the default registry.
const Namespace = "sitfit_"

var (
	once       sync.Once
	collectors []prometheus.Collector
)

// register is called by init() in each metrics file to enqueue collectors.
func register(cs ...prometheus.Collector) {
	collectors = append(collectors, cs...)
}

// MustRegister registers the enqueued collectors under Namespace exactly once.
func MustRegister() {
	once.Do(func() {
		if len(collectors) > 0 {
			prometheus.WrapRegistererWithPrefix(Namespace, prometheus.DefaultRegisterer).MustRegister(collectors...)
		}
	})
}
