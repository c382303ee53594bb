package hardware

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// DEGENERATE_L1 is the L1 norm of a motor position at or below which the
// motor is treated as a central lift rotor with no torque arm.
const DEGENERATE_L1 = 0.01

type MotorMode int

const (
	MotorStopped MotorMode = iota
	MotorRunning
)

func (m MotorMode) String() string {
	switch m {
	case MotorStopped:
		return "stopped"
	case MotorRunning:
		return "running"
	}
	return fmt.Sprintf("MotorMode(%d)", int(m))
}

func (m MotorMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *MotorMode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "stopped":
		*m = MotorStopped
	case "running":
		*m = MotorRunning
	default:
		return fmt.Errorf("unknown motor mode %q", text)
	}
	return nil
}

// MotorState is the output most recently written for a motor.
type MotorState struct {
	Channel ChannelID `json:"channel"`
	Mode    MotorMode `json:"mode"`
	Pulse   int16     `json:"pulse"`
	Duty    uint8     `json:"duty"`
}

// Command is one control cycle's worth of per-axis inputs, in microseconds.
type Command struct {
	X        int16 `json:"x"`
	Y        int16 `json:"y"`
	Yaw      int16 `json:"yaw"`
	Throttle int16 `json:"throttle"`
}

type MotorInterface interface {
	Update(compX, compY, compYaw, throttle int16)
	Stop()
	GetState() (state MotorState)
}

type MotorConfig struct {
	Position mgl64.Vec2
	Spin     int16
	Channel  ChannelID
	Policy   MixPolicy
}

// Motor mixes control commands into a duty value for a single rotor.
// It is not safe for concurrent use; one control context owns each motor.
type Motor struct {
	channel ChannelID
	spin    int16
	gainX   Q15
	gainY   Q15
	yaw     YawMode
	limits  PulseLimits
	sink    PulseSink
	state   MotorState
}

var _ MotorInterface = (*Motor)(nil)

// MixGains converts a motor position into Q15 roll/pitch gains: the unit
// vector of pos, or zero for a motor at the centre of the frame.
func MixGains(pos mgl64.Vec2) (gx, gy Q15) {
	if math.Abs(pos.X())+math.Abs(pos.Y()) <= DEGENERATE_L1 {
		return 0, 0
	}

	l := pos.Len()
	return ToQ15(pos.X() / l), ToQ15(pos.Y() / l)
}

// NewMotor computes the motor's gains. It never writes to the sink; the
// motor starts Stopped with its state preset to the minimum pulse.
func NewMotor(cfg MotorConfig, sink PulseSink) *Motor {
	if sink == nil {
		sink = discardSink{}
	}

	m := &Motor{
		channel: cfg.Channel,
		spin:    cfg.Spin,
		yaw:     cfg.Policy.Yaw,
		limits:  cfg.Policy.Limits.normalized(),
		sink:    sink,
	}
	m.gainX, m.gainY = MixGains(cfg.Position)
	m.state = MotorState{
		Channel: m.channel,
		Mode:    MotorStopped,
		Pulse:   m.limits.Min,
		Duty:    toDuty(m.limits.Min),
	}

	return m
}

// Pulse returns the saturated pulse width for the given commands without
// touching the sink.
func (m *Motor) Pulse(compX, compY, compYaw, throttle int16) int16 {
	// S15.0 << 1 * S0.15 = S15.16, MulHigh keeps the top S15
	pulse := int32(MulHigh(double(compX), int16(m.gainX)))
	pulse += int32(MulHigh(double(compY), int16(m.gainY)))

	switch m.yaw {
	case YawByMultiply:
		pulse += int32(compYaw) * int32(m.spin)
	default:
		if m.spin > 0 {
			pulse += int32(compYaw)
		} else {
			pulse -= int32(compYaw)
		}
	}

	pulse += int32(throttle)

	return int16(clamp(pulse, int32(m.limits.Floor), int32(m.limits.Ceiling)))
}

// Update mixes the commands and writes the resulting duty to the sink.
func (m *Motor) Update(compX, compY, compYaw, throttle int16) {
	pulse := m.Pulse(compX, compY, compYaw, throttle)
	m.write(MotorRunning, pulse)
}

// Apply is Update taking a Command.
func (m *Motor) Apply(cmd Command) {
	m.Update(cmd.X, cmd.Y, cmd.Yaw, cmd.Throttle)
}

// Stop bypasses mixing and writes the minimum pulse.
func (m *Motor) Stop() {
	m.write(MotorStopped, m.limits.Min)
}

func (m *Motor) write(mode MotorMode, pulse int16) {
	duty := toDuty(pulse)
	m.state.Mode = mode
	m.state.Pulse = pulse
	m.state.Duty = duty
	m.sink.Write(m.channel, duty)
}

func (m *Motor) GetState() (state MotorState) {
	return m.state
}

func (m *Motor) Channel() ChannelID {
	return m.channel
}

func (m *Motor) Spin() int16 {
	return m.spin
}

func (m *Motor) Gains() (gx, gy Q15) {
	return m.gainX, m.gainY
}

func (m *Motor) Limits() PulseLimits {
	return m.limits
}

// toDuty scales a pulse already within [0, PULSE_LIMIT] down to 8 bits.
func toDuty(pulse int16) uint8 {
	return uint8(pulse >> DUTY_SHIFT)
}
