package content

// Metrics observes content activity. Implementations must be safe for
// concurrent use.
type Metrics interface {
	ChunksStreamed(n int)
	BytesStreamed(n int64)
	AssetSaved(length int64)
}

var _ Metrics = noOpMetrics{}

type noOpMetrics struct{}

func (noOpMetrics) ChunksStreamed(int)  {}
func (noOpMetrics) BytesStreamed(int64) {}
func (noOpMetrics) AssetSaved(int64)    {}
