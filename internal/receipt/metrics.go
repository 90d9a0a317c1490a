package receipt

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "travel_receipt"

// Metrics counts scans by how their amount was found and the category they
// were given. A nil *Metrics records nothing.
type Metrics struct {
	scanned      *prometheus.CounterVec
	classified   *prometheus.CounterVec
	scanFailures prometheus.Counter
}

// NewMetrics creates the receipt counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		scanned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipts_scanned_total",
			Help:      "Receipts analysed, by the amount tier that produced the total.",
		}, []string{"tier"}),
		classified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipts_classified_total",
			Help:      "Receipts analysed, by suggested category.",
		}, []string{"category"}),
		scanFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_failures_total",
			Help:      "Uploads the OCR engine could not read.",
		}),
	}
	reg.MustRegister(m.scanned, m.classified, m.scanFailures)
	return m
}

func (m *Metrics) observeAnalysis(a Analysis) {
	if m == nil {
		return
	}
	m.scanned.WithLabelValues(string(a.Parsed.AmountTier)).Inc()
	m.classified.WithLabelValues(string(a.Classification.Category)).Inc()
}

func (m *Metrics) observeScanFailure() {
	if m == nil {
		return
	}
	m.scanFailures.Inc()
}
