package s3

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/EgorLis/asset-catalog/internal/domain"
)

// Observer собирает телеметрию операций шлюза.
type Observer interface {
	RecordUpload(kind domain.ResourceKind, duration time.Duration, sizeBytes int64, err error)
	RecordDelete(kind domain.ResourceKind, duration time.Duration, err error)
	RecordDownloadURL(kind domain.ResourceKind, duration time.Duration, err error)
}

type PrometheusObserver struct {
	duration    *prometheus.HistogramVec
	errors      *prometheus.CounterVec
	uploadBytes *prometheus.CounterVec
}

func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if namespace == "" {
		namespace = "asset_storage"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	o := &PrometheusObserver{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Latency of object storage operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "kind"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_errors_total",
			Help:      "Count of failed object storage operations.",
		}, []string{"operation", "kind"}),
		uploadBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_bytes_total",
			Help:      "Bytes successfully uploaded to object storage.",
		}, []string{"kind"}),
	}
	if err := register(reg, &o.duration); err != nil {
		return nil, err
	}
	if err := register(reg, &o.errors); err != nil {
		return nil, err
	}
	if err := register(reg, &o.uploadBytes); err != nil {
		return nil, err
	}
	return o, nil
}

// при повторной регистрации берём уже существующий коллектор
func register[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			*c = existing
			return nil
		}
	}
	return fmt.Errorf("register storage metric: %w", err)
}

func (o *PrometheusObserver) RecordUpload(kind domain.ResourceKind, d time.Duration, size int64, err error) {
	if o == nil {
		return
	}
	o.record("upload", kind, d, err)
	if err == nil && size > 0 {
		o.uploadBytes.WithLabelValues(string(kind)).Add(float64(size))
	}
}

func (o *PrometheusObserver) RecordDelete(kind domain.ResourceKind, d time.Duration, err error) {
	o.record("delete", kind, d, err)
}

func (o *PrometheusObserver) RecordDownloadURL(kind domain.ResourceKind, d time.Duration, err error) {
	o.record("download_url", kind, d, err)
}

func (o *PrometheusObserver) record(op string, kind domain.ResourceKind, d time.Duration, err error) {
	if o == nil {
		return
	}
	o.duration.WithLabelValues(op, string(kind)).Observe(d.Seconds())
	if err != nil {
		o.errors.WithLabelValues(op, string(kind)).Inc()
	}
}

type nopObserver struct{}

func (nopObserver) RecordUpload(domain.ResourceKind, time.Duration, int64, error) {}
func (nopObserver) RecordDelete(domain.ResourceKind, time.Duration, error)        {}
func (nopObserver) RecordDownloadURL(domain.ResourceKind, time.Duration, error)   {}
