package hardware

import "fmt"

// Pulse widths are in microseconds.
const (
	PULSE_MIN  = 1000 // absolute minimum, used by Stop
	PULSE_MAX  = 2000 // full throttle
	PULSE_IDLE = 1100 // idle floor of the legacy mixer

	DUTY_SHIFT  = 3                        // 1000-2000us -> 125-250 duty
	PULSE_LIMIT = 255<<DUTY_SHIFT | 0b111 // largest pulse whose duty fits in a byte
)

// YawMode selects how a motor's spin direction is applied to the yaw command.
type YawMode int

const (
	// YawBySign adds the yaw command for positive spin and subtracts it otherwise.
	YawBySign YawMode = iota
	// YawByMultiply multiplies the yaw command by the spin value, so the
	// magnitude of spin scales the yaw contribution.
	YawByMultiply
)

func (m YawMode) String() string {
	switch m {
	case YawBySign:
		return "sign"
	case YawByMultiply:
		return "multiply"
	}
	return fmt.Sprintf("YawMode(%d)", int(m))
}

// PulseLimits bounds the pulse width sent to a motor.
// Normal updates are clamped to [Floor, Ceiling]; Stop always sends Min.
type PulseLimits struct {
	Min     int16 `yaml:"min" json:"min"`
	Floor   int16 `yaml:"floor" json:"floor"`
	Ceiling int16 `yaml:"ceiling" json:"ceiling"`
}

var (
	DefaultLimits = PulseLimits{Min: PULSE_MIN, Floor: PULSE_MIN, Ceiling: PULSE_MAX}
	LegacyLimits  = PulseLimits{Min: PULSE_MIN, Floor: PULSE_IDLE, Ceiling: PULSE_MAX}
)

func (l PulseLimits) Validate() error {
	if l.Min < 0 || l.Min > l.Floor {
		return fmt.Errorf("pulse min %d must be within [0, floor %d]", l.Min, l.Floor)
	}
	if l.Floor >= l.Ceiling {
		return fmt.Errorf("pulse floor %d must be below ceiling %d", l.Floor, l.Ceiling)
	}
	if l.Ceiling > PULSE_LIMIT {
		return fmt.Errorf("pulse ceiling %d exceeds %d", l.Ceiling, PULSE_LIMIT)
	}
	return nil
}

// normalized forces the limits into the envelope where every clamped pulse
// maps onto a valid duty byte and Min <= Floor <= Ceiling.
func (l PulseLimits) normalized() PulseLimits {
	l.Ceiling = clamp(l.Ceiling, 0, PULSE_LIMIT)
	l.Floor = clamp(l.Floor, 0, l.Ceiling)
	l.Min = clamp(l.Min, 0, l.Floor)
	return l
}

// MixPolicy captures the behaviour that differed between revisions of the mixer.
type MixPolicy struct {
	Yaw    YawMode
	Limits PulseLimits
}

var (
	StandardPolicy = MixPolicy{Yaw: YawBySign, Limits: DefaultLimits}
	LegacyPolicy   = MixPolicy{Yaw: YawByMultiply, Limits: LegacyLimits}
)

// PolicyByName resolves the policy names used in frame configuration.
func PolicyByName(name string) (policy MixPolicy, ok bool) {
	switch name {
	case "", "standard":
		return StandardPolicy, true
	case "legacy":
		return LegacyPolicy, true
	}
	return
}

func clamp[T ~int16 | ~int32](value, min, max T) T {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
