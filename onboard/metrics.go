package onboard

import (
	"strconv"

	"github.com/CodedInternet/gomixer/onboard/hardware"
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	writes    *prometheus.CounterVec
	duty      *prometheus.GaugeVec
	stops     prometheus.Counter
	failsafes prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gomixer",
			Name:      "sink_writes_total",
			Help:      "Duty values written to the pulse sink.",
		}, []string{"channel"}),
		duty: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "gomixer",
			Name:      "motor_duty",
			Help:      "Last duty value written per channel.",
		}, []string{"channel"}),
		stops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gomixer",
			Name:      "stops_total",
			Help:      "Explicit stop requests.",
		}),
		failsafes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gomixer",
			Name:      "failsafes_total",
			Help:      "Stops triggered by stale commands.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.writes, m.duty, m.stops, m.failsafes)
	}
	return m
}

// InstrumentedSink records metrics for every write before passing it on.
// The per-channel collectors are resolved once so a write costs no label lookup.
type InstrumentedSink struct {
	next    hardware.PulseSink
	metrics *Metrics
	writes  [256]prometheus.Counter
	duty    [256]prometheus.Gauge
}

var _ hardware.PulseSink = (*InstrumentedSink)(nil)

func NewInstrumentedSink(next hardware.PulseSink, metrics *Metrics) *InstrumentedSink {
	return &InstrumentedSink{next: next, metrics: metrics}
}

func (s *InstrumentedSink) Write(ch hardware.ChannelID, duty uint8) {
	if s.writes[ch] == nil {
		label := strconv.Itoa(int(ch))
		s.writes[ch] = s.metrics.writes.WithLabelValues(label)
		s.duty[ch] = s.metrics.duty.WithLabelValues(label)
	}
	s.writes[ch].Inc()
	s.duty[ch].Set(float64(duty))

	s.next.Write(ch, duty)
}
