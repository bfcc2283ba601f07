package sonar

import (
	"errors"
	"fmt"
)

var (
	ErrEnginePathNotFound       = errors.New("sonar: SteelSeries Engine 3 not installed or not in the default location")
	ErrServerNotAccessible      = errors.New("sonar: server not accessible")
	ErrSonarNotEnabled          = errors.New("sonar: Sonar is not enabled")
	ErrServerNotReady           = errors.New("sonar: Sonar is not ready yet")
	ErrServerNotRunning         = errors.New("sonar: Sonar is not running")
	ErrWebServerAddressNotFound = errors.New("sonar: web server address not found")
	ErrDeserialization          = errors.New("sonar: unexpected response body")
	ErrChannelNotFound          = errors.New("sonar: channel not found")
	ErrSliderNotFound           = errors.New("sonar: slider not found")
	ErrInvalidVolume            = errors.New("sonar: invalid volume")
	ErrInvalidMixVolume         = errors.New("sonar: invalid mix volume")
)

// ErrConfigNotFound is returned when coreProps.json does not exist.
var ErrConfigNotFound = ErrEnginePathNotFound

// ConfigError reports an unreadable or malformed coreProps.json.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("sonar: read core props %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// StatusError is a non-2xx response from the engine or the Sonar web server.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sonar: server not accessible: %s %s returned status %d", e.Method, e.Path, e.StatusCode)
}

func (e *StatusError) Is(target error) bool { return target == ErrServerNotAccessible }

// RequestError is a transport level failure.
type RequestError struct {
	Method string
	Path   string
	Err    error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("sonar: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// DecodeError is a response body that did not match the expected shape.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("sonar: decode %s response: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() []error { return []error{ErrDeserialization, e.Err} }

// ChannelError rejects a channel name outside Channels.
type ChannelError struct {
	Channel Channel
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("sonar: channel %q not found", string(e.Channel))
}

func (e *ChannelError) Is(target error) bool { return target == ErrChannelNotFound }

// SliderError rejects a slider name outside Sliders.
type SliderError struct {
	Slider Slider
}

func (e *SliderError) Error() string {
	return fmt.Sprintf("sonar: slider %q not found", string(e.Slider))
}

func (e *SliderError) Is(target error) bool { return target == ErrSliderNotFound }

// RangeError rejects a volume or chat mix value outside [Min, Max].
type RangeError struct {
	Value float64
	Min   float64
	Max   float64
	kind  error
}

func (e *RangeError) Error() string {
	name := "volume"
	if e.kind == ErrInvalidMixVolume {
		name = "mix volume"
	}
	return fmt.Sprintf("sonar: invalid %s %v, value must be between %.1f and %.1f", name, e.Value, e.Min, e.Max)
}

func (e *RangeError) Is(target error) bool { return target == e.kind }

// IsValidation reports whether err was produced by local validation and never
// reached the network.
func IsValidation(err error) bool {
	return errors.Is(err, ErrChannelNotFound) ||
		errors.Is(err, ErrSliderNotFound) ||
		errors.Is(err, ErrInvalidVolume) ||
		errors.Is(err, ErrInvalidMixVolume)
}

// IsDiscovery reports whether err means the engine or Sonar is unavailable.
func IsDiscovery(err error) bool {
	return errors.Is(err, ErrEnginePathNotFound) ||
		errors.Is(err, ErrSonarNotEnabled) ||
		errors.Is(err, ErrServerNotReady) ||
		errors.Is(err, ErrServerNotRunning) ||
		errors.Is(err, ErrWebServerAddressNotFound)
}
