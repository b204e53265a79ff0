package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	validationPasses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "servicepulse",
		Name:      "validation_passes_total",
		Help:      "Number of full validation passes run over the dataset.",
	})

	openIssues = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "servicepulse",
		Name:      "open_issues",
		Help:      "Issues in the current validation report.",
	})

	datasetRows = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "servicepulse",
		Name:      "dataset_rows",
		Help:      "Rows in the loaded dataset.",
	})

	resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "servicepulse",
		Name:      "resolutions_total",
		Help:      "Operator actions by kind and outcome.",
	}, []string{"action", "outcome"})

	storeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "servicepulse",
		Name:      "store_errors_total",
		Help:      "Failed persistence operations by operation.",
	}, []string{"op"})
)

// observeReport updates the gauges after a validation pass.
func observeReport(ds *Dataset, r Report) {
	openIssues.Set(float64(len(r.Issues)))
	datasetRows.Set(float64(ds.Len()))
}

func observeAction(a Action, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	resolutions.WithLabelValues(string(a), outcome).Inc()
}
