package onboard

import (
	"fmt"
	"io/ioutil"
	"time"

	"github.com/CodedInternet/gomixer/onboard/errors"
	"github.com/CodedInternet/gomixer/onboard/hardware"
	"github.com/Masterminds/semver"
	"github.com/go-gl/mathgl/mgl64"
	pkgerrors "github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	FRAME_VERSION = "~1.0"

	DEFAULT_RATE_HZ     = 488
	DEFAULT_FAILSAFE_MS = 500
	DEFAULT_BAUD        = 115200
)

// EnvConfig is read from the environment with caarlos0/env.
type EnvConfig struct {
	FrameConfig string `env:"FRAME_CONFIG" envDefault:"./frame.yaml"`
	Listen      string `env:"LISTEN" envDefault:"127.0.0.1:8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"text"`
	Simulated   bool   `env:"SIMULATED" envDefault:"false"`
}

type SinkConfig struct {
	Kind string `yaml:"kind"` // sim, serial or can
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
	Bus  string `yaml:"bus"`
	Node uint32 `yaml:"node"`
}

type FrameConfig struct {
	Version  string                `yaml:"version"`
	Name     string                `yaml:"name"`
	Policy   string                `yaml:"policy"`
	Limits   *hardware.PulseLimits `yaml:"limits"`
	RateHz   int                   `yaml:"rate"`
	Failsafe *int                  `yaml:"failsafe"` // milliseconds, 0 disables
	Sink     SinkConfig            `yaml:"sink"`
	Motors   []FrameMotor          `yaml:"motors"`
}

type FrameMotor struct {
	Name     string
	Position mgl64.Vec2
	Spin     int16
	Channel  hardware.ChannelID
}

type YAMLMotor struct {
	Name     string    `yaml:"name,omitempty"`
	Position []float64 `yaml:"pos,flow"`
	Spin     int16     `yaml:"spin"`
	Channel  uint8     `yaml:"channel"`
}

func (fm FrameMotor) MarshalYAML() (interface{}, error) {
	return &YAMLMotor{
		Name:     fm.Name,
		Position: []float64{fm.Position.X(), fm.Position.Y()},
		Spin:     fm.Spin,
		Channel:  uint8(fm.Channel),
	}, nil
}

func (fm *FrameMotor) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var ym YAMLMotor
	if err := unmarshal(&ym); err != nil {
		return err
	}
	if len(ym.Position) != 2 {
		return fmt.Errorf("motor position needs 2 coordinates, got %d", len(ym.Position))
	}
	fm.Name = ym.Name
	fm.Position = mgl64.Vec2{ym.Position[0], ym.Position[1]}
	fm.Spin = ym.Spin
	fm.Channel = hardware.ChannelID(ym.Channel)
	return nil
}

func LoadFrameConfig(filename string) (config FrameConfig, err error) {
	raw, err := ioutil.ReadFile(filename)
	if err != nil {
		return config, pkgerrors.Wrap(err, "unable to read frame config")
	}

	config, err = ParseFrameConfig(raw)
	return config, pkgerrors.Wrapf(err, "frame config %s", filename)
}

// ParseFrameConfig unmarshals, defaults and validates a frame definition.
func ParseFrameConfig(raw []byte) (config FrameConfig, err error) {
	if err = yaml.Unmarshal(raw, &config); err != nil {
		return config, pkgerrors.Wrap(err, "unable to unmarshal yaml")
	}

	config.setDefaults()
	err = config.Validate()
	return
}

func (c *FrameConfig) setDefaults() {
	if c.RateHz == 0 {
		c.RateHz = DEFAULT_RATE_HZ
	}
	if c.Failsafe == nil {
		failsafe := DEFAULT_FAILSAFE_MS
		c.Failsafe = &failsafe
	}
	if c.Sink.Kind == "" {
		c.Sink.Kind = SINK_SIM
	}
	if c.Sink.Baud == 0 {
		c.Sink.Baud = DEFAULT_BAUD
	}
	for i := range c.Motors {
		if c.Motors[i].Name == "" {
			c.Motors[i].Name = fmt.Sprintf("m%d", i)
		}
	}
}

func (c *FrameConfig) Validate() error {
	version, err := semver.NewVersion(c.Version)
	if err != nil {
		return errors.FrameVersionError{Version: c.Version, Constraint: FRAME_VERSION}
	}
	constraint, err := semver.NewConstraint(FRAME_VERSION)
	if err != nil {
		return err
	}
	if !constraint.Check(version) {
		return errors.FrameVersionError{Version: c.Version, Constraint: FRAME_VERSION}
	}

	if _, err := c.MixPolicy(); err != nil {
		return err
	}

	if c.RateHz < 0 || c.FailsafeTimeout() < 0 {
		return fmt.Errorf("rate and failsafe must be positive")
	}

	if len(c.Motors) == 0 {
		return fmt.Errorf("frame %q has no motors", c.Name)
	}

	channels := make(map[hardware.ChannelID]int, len(c.Motors))
	names := make(map[string]int, len(c.Motors))
	for i, m := range c.Motors {
		if prev, ok := channels[m.Channel]; ok {
			return errors.MotorConfigError{Index: i, Name: m.Name, Reason: fmt.Sprintf("channel %d already used by motor %d", m.Channel, prev)}
		}
		if prev, ok := names[m.Name]; ok {
			return errors.MotorConfigError{Index: i, Name: m.Name, Reason: fmt.Sprintf("name already used by motor %d", prev)}
		}
		channels[m.Channel] = i
		names[m.Name] = i
	}

	return nil
}

// FailsafeTimeout is how long a command stays valid. Zero disables the
// failsafe.
func (c *FrameConfig) FailsafeTimeout() time.Duration {
	if c.Failsafe == nil {
		return DEFAULT_FAILSAFE_MS * time.Millisecond
	}
	return time.Duration(*c.Failsafe) * time.Millisecond
}

// MixPolicy resolves the named policy and applies any limits override.
func (c *FrameConfig) MixPolicy() (policy hardware.MixPolicy, err error) {
	policy, ok := hardware.PolicyByName(c.Policy)
	if !ok {
		return policy, errors.UnknownPolicyError{Name: c.Policy}
	}

	if c.Limits != nil {
		if err = c.Limits.Validate(); err != nil {
			return policy, errors.LimitsError{Reason: err.Error()}
		}
		policy.Limits = *c.Limits
	}

	return policy, nil
}
