package onboard

import (
	"sync"

	"github.com/CodedInternet/gomixer/onboard/hardware"
)

const SIM_HISTORY = 1024

type SimulatedWrite struct {
	Channel hardware.ChannelID `json:"channel"`
	Duty    uint8              `json:"duty"`
}

// SimulatedSink stands in for the PWM hardware. It keeps the latest duty per
// channel and a bounded history of writes.
type SimulatedSink struct {
	lock    sync.Mutex
	duty    map[hardware.ChannelID]uint8
	history []SimulatedWrite
	next    int
	total   uint64
}

var _ hardware.PulseSink = (*SimulatedSink)(nil)

func NewSimulatedSink() *SimulatedSink {
	return &SimulatedSink{
		duty:    make(map[hardware.ChannelID]uint8),
		history: make([]SimulatedWrite, 0, SIM_HISTORY),
	}
}

func (s *SimulatedSink) Write(ch hardware.ChannelID, duty uint8) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.duty[ch] = duty
	s.total++

	w := SimulatedWrite{Channel: ch, Duty: duty}
	if len(s.history) < SIM_HISTORY {
		s.history = append(s.history, w)
		return
	}
	s.history[s.next] = w
	s.next = (s.next + 1) % SIM_HISTORY
}

// Duty returns the last duty written to ch.
func (s *SimulatedSink) Duty(ch hardware.ChannelID) (duty uint8, ok bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	duty, ok = s.duty[ch]
	return
}

// Writes returns the retained history, oldest first.
func (s *SimulatedSink) Writes() []SimulatedWrite {
	s.lock.Lock()
	defer s.lock.Unlock()

	out := make([]SimulatedWrite, 0, len(s.history))
	out = append(out, s.history[s.next:]...)
	out = append(out, s.history[:s.next]...)
	return out
}

func (s *SimulatedSink) Total() uint64 {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.total
}
