package onboard

import (
	"fmt"
	"sync"

	"github.com/CodedInternet/gomixer/onboard/hardware"
)

// Multirotor owns every motor of a frame. The motors themselves are not
// safe for concurrent use, so all access goes through the device lock.
type Multirotor struct {
	Name   string
	motors []*hardware.Motor
	names  []string
	lock   sync.Mutex
}

type MotorGains struct {
	Name    string             `json:"name"`
	Channel hardware.ChannelID `json:"channel"`
	Spin    int16              `json:"spin"`
	X       hardware.Q15       `json:"x"`
	Y       hardware.Q15       `json:"y"`
}

type NamedMotorState struct {
	Name string `json:"name"`
	hardware.MotorState
}

// NewMultirotor creates a motor per config entry and stops them all so the
// outputs start at the minimum pulse.
func NewMultirotor(config FrameConfig, sink hardware.PulseSink) (d *Multirotor, err error) {
	policy, err := config.MixPolicy()
	if err != nil {
		return
	}
	if len(config.Motors) == 0 {
		return nil, fmt.Errorf("frame %q has no motors", config.Name)
	}

	d = &Multirotor{
		Name:   config.Name,
		motors: make([]*hardware.Motor, len(config.Motors)),
		names:  make([]string, len(config.Motors)),
	}

	for i, mc := range config.Motors {
		d.motors[i] = hardware.NewMotor(hardware.MotorConfig{
			Position: mc.Position,
			Spin:     mc.Spin,
			Channel:  mc.Channel,
			Policy:   policy,
		}, sink)

		name := mc.Name
		if name == "" {
			name = fmt.Sprintf("m%d", i)
		}
		d.names[i] = name
	}

	d.Stop()

	return
}

// Update applies the same command to every motor, in configuration order.
func (d *Multirotor) Update(cmd hardware.Command) {
	d.lock.Lock()
	defer d.lock.Unlock()

	for _, m := range d.motors {
		m.Apply(cmd)
	}
}

func (d *Multirotor) Stop() {
	d.lock.Lock()
	defer d.lock.Unlock()

	for _, m := range d.motors {
		m.Stop()
	}
}

func (d *Multirotor) State() []NamedMotorState {
	d.lock.Lock()
	defer d.lock.Unlock()

	state := make([]NamedMotorState, len(d.motors))
	for i, m := range d.motors {
		state[i] = NamedMotorState{Name: d.names[i], MotorState: m.GetState()}
	}
	return state
}

func (d *Multirotor) Gains() []MotorGains {
	gains := make([]MotorGains, len(d.motors))
	for i, m := range d.motors {
		gx, gy := m.Gains()
		gains[i] = MotorGains{
			Name:    d.names[i],
			Channel: m.Channel(),
			Spin:    m.Spin(),
			X:       gx,
			Y:       gy,
		}
	}
	return gains
}

// Preview computes the pulse every motor would receive for cmd without
// writing anything.
func (d *Multirotor) Preview(cmd hardware.Command) map[string]int16 {
	pulses := make(map[string]int16, len(d.motors))
	for i, m := range d.motors {
		pulses[d.names[i]] = m.Pulse(cmd.X, cmd.Y, cmd.Yaw, cmd.Throttle)
	}
	return pulses
}

func (d *Multirotor) Len() int {
	return len(d.motors)
}
