// Package metrics defines business counters. Methods are safe on a nil *Business.
package metrics

import "github.com/prometheus/client_golang/prometheus"

type Business struct {
	bookingsCreated prometheus.Counter
	proofsUploaded  prometheus.Counter
	verifications   *prometheus.CounterVec
	cancellations   *prometheus.CounterVec
	rateLimited     *prometheus.CounterVec
}

func NewBusiness(reg prometheus.Registerer) *Business {
	b := &Business{
		bookingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "studiobook", Name: "bookings_created_total",
			Help: "Bookings created.",
		}),
		proofsUploaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "studiobook", Name: "payment_proofs_uploaded_total",
			Help: "Payment proofs uploaded.",
		}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studiobook", Name: "payment_verifications_total",
			Help: "Payment proof verifications by result.",
		}, []string{"result"}),
		cancellations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studiobook", Name: "bookings_cancelled_total",
			Help: "Bookings cancelled by actor type.",
		}, []string{"actor"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studiobook", Name: "rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		}, []string{"action"}),
	}
	reg.MustRegister(b.bookingsCreated, b.proofsUploaded, b.verifications, b.cancellations, b.rateLimited)
	return b
}

func (b *Business) BookingCreated() {
	if b != nil {
		b.bookingsCreated.Inc()
	}
}

func (b *Business) ProofUploaded() {
	if b != nil {
		b.proofsUploaded.Inc()
	}
}

func (b *Business) Verified(result string) {
	if b != nil {
		b.verifications.WithLabelValues(result).Inc()
	}
}

func (b *Business) Cancelled(actor string) {
	if b != nil {
		b.cancellations.WithLabelValues(actor).Inc()
	}
}

func (b *Business) RateLimited(action string) {
	if b != nil {
		b.rateLimited.WithLabelValues(action).Inc()
	}
}
