package semsearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Values of the status label.
const (
	statusOK       = "ok"
	statusNotFound = "not_found"
	statusInvalid  = "invalid"
	statusCanceled = "canceled"
	statusError    = "error"
)

// observer logs client operations and, when a registerer was given, counts and times them.
// A nil observer ignores everything.
type observer struct {
	logger     *zap.Logger
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newObserver(logger *zap.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if reg == nil {
		return o, nil
	}

	ops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "semsearch",
		Subsystem: "client",
		Name:      "operations_total",
		Help:      "Client operations by name and outcome.",
	}, []string{"operation", "status"})
	dur := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "semsearch",
		Subsystem: "client",
		Name:      "operation_duration_seconds",
		Help:      "Client operation latency.",
		Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"operation"})

	var err error
	if o.operations, err = register(reg, ops); err != nil {
		return nil, err
	}
	if o.duration, err = register(reg, dur); err != nil {
		return nil, err
	}
	return o, nil
}

// register adds c to reg. When a second client registers on the same registry,
// the first client's collector is returned so both report into it.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var dup prometheus.AlreadyRegisteredError
	if !errors.As(err, &dup) {
		return c, fmt.Errorf("semsearch: register metric: %w", err)
	}
	existing, ok := dup.ExistingCollector.(C)
	if !ok {
		return c, fmt.Errorf("semsearch: metric registered with a different type: %T", dup.ExistingCollector)
	}
	return existing, nil
}

// track starts timing op. Call the returned function with the operation's final error:
//
//	defer c.obs.track("put")(&err)
func (o *observer) track(op string) func(*error) {
	if o == nil {
		return func(*error) {}
	}
	start := time.Now()
	return func(errp *error) {
		var err error
		if errp != nil {
			err = *errp
		}
		o.record(op, time.Since(start), err)
	}
}

func (o *observer) record(op string, d time.Duration, err error) {
	status := statusOf(err)
	if o.operations != nil {
		o.operations.WithLabelValues(op, status).Inc()
		o.duration.WithLabelValues(op).Observe(d.Seconds())
	}

	fields := []zap.Field{zap.String("op", op), zap.Duration("duration", d)}
	switch status {
	case statusOK:
		o.logger.Debug("Operation completed", fields...)
	case statusNotFound, statusInvalid, statusCanceled:
		o.logger.Debug("Operation rejected", append(fields, zap.String("status", status), zap.Error(err))...)
	default:
		o.logger.Warn("Operation failed", append(fields, zap.Error(err))...)
	}
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return statusOK
	case errors.Is(err, ErrNotFound):
		return statusNotFound
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrVectorDimMismatch):
		return statusInvalid
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return statusCanceled
	default:
		return statusError
	}
}
