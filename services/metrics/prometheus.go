package metricsvc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/trezcool/darasa/core/content"
)

// PrometheusContentMetrics exposes content streaming activity as Prometheus
// counters on the default registry; the debug mux serves them on /metrics.
type PrometheusContentMetrics struct {
	chunksStreamed prometheus.Counter
	bytesStreamed  prometheus.Counter
	assetsSaved    prometheus.Counter
	bytesSaved     prometheus.Counter
}

var _ content.Metrics = (*PrometheusContentMetrics)(nil)

func NewPrometheusContentMetrics() *PrometheusContentMetrics {
	return &PrometheusContentMetrics{
		chunksStreamed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "darasa_content_chunks_streamed_total",
			Help: "Chunks served out of the content store.",
		}),
		bytesStreamed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "darasa_content_bytes_streamed_total",
			Help: "Bytes served out of the content store.",
		}),
		assetsSaved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "darasa_content_assets_saved_total",
			Help: "Assets stored, uploads and imports alike.",
		}),
		bytesSaved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "darasa_content_bytes_saved_total",
			Help: "Bytes stored, uploads and imports alike.",
		}),
	}
}

func (m *PrometheusContentMetrics) ChunksStreamed(n int) {
	m.chunksStreamed.Add(float64(n))
}

func (m *PrometheusContentMetrics) BytesStreamed(n int64) {
	m.bytesStreamed.Add(float64(n))
}

func (m *PrometheusContentMetrics) AssetSaved(length int64) {
	m.assetsSaved.Inc()
	m.bytesSaved.Add(float64(length))
}
