package sequencer

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration = errors.New("invalid configuration")
	ErrScaleDegree   = errors.New("illegal scale degree")
	ErrVoiceUpdate   = errors.New("voice update failed")
	ErrCallback      = errors.New("callback failed")
)

// ConfigurationError rejects a trigger registration. The registration is a no-op.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "bad arguments for trigger: " + e.Reason
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// ScaleDegreeError reports a degree of zero or one outside [-2*len, 2*len].
type ScaleDegreeError struct {
	Degree int
	Len    int
}

func (e *ScaleDegreeError) Error() string {
	return fmt.Sprintf("illegal scale degree %d for %d-note scale", e.Degree, e.Len)
}

func (e *ScaleDegreeError) Unwrap() error { return ErrScaleDegree }

// VoiceUpdateError wraps a failure inside one voice's update. The voice is stopped.
type VoiceUpdateError struct {
	Channel int
	Err     error
}

func (e *VoiceUpdateError) Error() string {
	return fmt.Sprintf("voice on channel %d: %v", e.Channel, e.Err)
}

func (e *VoiceUpdateError) Unwrap() []error { return []error{ErrVoiceUpdate, e.Err} }

// CallbackError wraps a failure in user code run by the clock (triggers,
// tween completions, control handlers).
type CallbackError struct {
	Source string
	Err    error
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("%s callback: %v", e.Source, e.Err)
}

func (e *CallbackError) Unwrap() []error { return []error{ErrCallback, e.Err} }

// recovered converts a recovered panic value into an error
func recovered(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", r)
}

// safeCall runs f, converting a panic into a CallbackError
func safeCall(source string, f func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &CallbackError{Source: source, Err: recovered(r)}
		}
	}()
	f()
	return nil
}
