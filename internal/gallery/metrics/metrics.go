package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the gallery reconciler.
type Metrics struct {
	ImagesAdded     *prometheus.CounterVec
	LocalFallbacks  prometheus.Counter
	UploadDuration  prometheus.Histogram
	RefreshDuration prometheus.Histogram
	RefreshFailures prometheus.Counter
}

// New creates a Metrics instance with all gallery metrics registered.
func New() *Metrics {
	return &Metrics{
		ImagesAdded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "atelier_gallery_images_added_total",
			Help: "Images accepted into the gallery by persistence tier",
		}, []string{"tier"}),
		LocalFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "atelier_gallery_local_fallbacks_total",
			Help: "Batches that fell back to local-only persistence",
		}),
		UploadDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "atelier_gallery_upload_duration_seconds",
			Help:    "Duration of durable image uploads",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		RefreshDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "atelier_gallery_refresh_duration_seconds",
			Help:    "Duration of authoritative gallery refreshes",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		RefreshFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "atelier_gallery_refresh_failures_total",
			Help: "Gallery refreshes that failed",
		}),
	}
}

// ObserveUpload records the duration of one durable upload.
func (m *Metrics) ObserveUpload(start time.Time) {
	m.UploadDuration.Observe(time.Since(start).Seconds())
}

// ObserveRefresh records the duration of one refresh.
func (m *Metrics) ObserveRefresh(start time.Time) {
	m.RefreshDuration.Observe(time.Since(start).Seconds())
}
