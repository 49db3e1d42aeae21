package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CartAdds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stockroom_cart_adds_total",
		Help: "Lines added to the shared request list.",
	})
	Completions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stockroom_completions_total",
		Help: "Request lists completed with stock deducted.",
	})
	InsufficientStock = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stockroom_insufficient_stock_total",
		Help: "Completions rejected by the validate phase.",
	})
)
