package errors

import "fmt"

type FrameVersionError struct {
	Version    string
	Constraint string
}

func (err FrameVersionError) Error() string {
	if len(err.Version) == 0 {
		err.Version = "UNKNOWN"
	}
	return fmt.Sprintf("unsupported frame config version %s - require %s", err.Version, err.Constraint)
}

type UnknownPolicyError struct {
	Name string
}

func (err UnknownPolicyError) Error() string {
	return fmt.Sprintf("no such mixing policy %s", err.Name)
}

type LimitsError struct {
	Reason string
}

func (err LimitsError) Error() string {
	return fmt.Sprintf("invalid pulse limits: %s", err.Reason)
}

type MotorConfigError struct {
	Index  int
	Name   string
	Reason string
}

func (err MotorConfigError) Error() string {
	if len(err.Name) == 0 {
		return fmt.Sprintf("motor %d: %s", err.Index, err.Reason)
	}
	return fmt.Sprintf("motor %d (%s): %s", err.Index, err.Name, err.Reason)
}

type SinkKindError struct {
	Kind string
}

func (err SinkKindError) Error() string {
	if len(err.Kind) == 0 {
		err.Kind = "UNKNOWN"
	}
	return fmt.Sprintf("unable to create pulse sink of kind %s", err.Kind)
}
