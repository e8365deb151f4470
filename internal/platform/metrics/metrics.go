package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the platform.
type Metrics struct {
	CampaignsCreated     prometheus.Counter
	CampaignsDeactivated prometheus.Counter
	Donations            prometheus.Counter
	Distributions        prometheus.Counter
	DonatedAmount        prometheus.Counter
	DistributedAmount    prometheus.Counter
	FeesCollected        prometheus.Counter
	EscrowTotal          prometheus.Gauge
	RequestDuration      *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		CampaignsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wrldrelief_campaigns_created_total",
			Help: "Total number of campaigns created through the factory",
		}),
		CampaignsDeactivated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wrldrelief_campaigns_deactivated_total",
			Help: "Total number of campaigns administratively deactivated",
		}),
		Donations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wrldrelief_donations_total",
			Help: "Total number of accepted donations",
		}),
		Distributions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wrldrelief_distributions_total",
			Help: "Total number of completed distributions",
		}),
		DonatedAmount: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wrldrelief_donated_amount_total",
			Help: "Sum of net donation amounts credited to escrow",
		}),
		DistributedAmount: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wrldrelief_distributed_amount_total",
			Help: "Sum of amounts distributed to recipients",
		}),
		FeesCollected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wrldrelief_fees_collected_total",
			Help: "Sum of platform fees retained in campaign custody",
		}),
		EscrowTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "wrldrelief_escrow_total",
			Help: "Net escrowed amount across all campaigns",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wrldrelief_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// ObserveDonation updates donation counters for one accepted donation.
func (m *Metrics) ObserveDonation(fee, net int64) {
	m.Donations.Inc()
	m.DonatedAmount.Add(float64(net))
	m.FeesCollected.Add(float64(fee))
	m.EscrowTotal.Add(float64(net))
}

// ObserveDistribution updates distribution counters for one payout.
func (m *Metrics) ObserveDistribution(amount int64) {
	m.Distributions.Inc()
	m.DistributedAmount.Add(float64(amount))
	m.EscrowTotal.Sub(float64(amount))
}
