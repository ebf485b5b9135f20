package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	PaymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fbgw_payments_total",
			Help: "Payment confirmation events by outcome",
		},
		[]string{"outcome"}, // accepted|invalid|error
	)

	GreetingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fbgw_greetings_total",
			Help: "Greeting notification lifecycle counter by stage",
		},
		[]string{"stage"}, // queued|sent|failed
	)

	FeedbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fbgw_feedback_total",
			Help: "Feedback submissions by outcome",
		},
		[]string{"outcome"}, // stored|unknown_customer|error
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		PaymentsTotal,
		GreetingsTotal,
		FeedbackTotal,
	)
}
