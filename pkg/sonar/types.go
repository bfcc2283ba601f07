package sonar

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Mode is the Sonar output mode as reported by the /mode endpoint.
type Mode string

const (
	ModeClassic  Mode = "classic"
	ModeStreamer Mode = "stream"
)

const (
	classicVolumePath  = "/volumeSettings/classic"
	streamerVolumePath = "/volumeSettings/streamer"
)

// VolumePath returns the volume settings prefix for the mode.
func (m Mode) VolumePath() string {
	if m == ModeStreamer {
		return streamerVolumePath
	}
	return classicVolumePath
}

// IsStreamer reports whether m is streamer mode.
func (m Mode) IsStreamer() bool {
	return m == ModeStreamer
}

func (m Mode) String() string {
	return string(m)
}

// ModeFromBool maps a streamer flag to a Mode.
func ModeFromBool(streamer bool) Mode {
	if streamer {
		return ModeStreamer
	}
	return ModeClassic
}

// ParseMode accepts "classic", "stream" and "streamer" in any case.
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "classic":
		return ModeClassic, nil
	case "stream", "streamer":
		return ModeStreamer, nil
	default:
		return "", fmt.Errorf("sonar: unknown mode %q", raw)
	}
}

// Channel names an audio channel.
type Channel string

const (
	ChannelMaster      Channel = "master"
	ChannelGame        Channel = "game"
	ChannelChatRender  Channel = "chatRender"
	ChannelMedia       Channel = "media"
	ChannelAux         Channel = "aux"
	ChannelChatCapture Channel = "chatCapture"
)

// Channels lists every channel the service accepts, in display order.
var Channels = []Channel{
	ChannelMaster,
	ChannelGame,
	ChannelChatRender,
	ChannelMedia,
	ChannelAux,
	ChannelChatCapture,
}

// Slider names one of the two streamer mode outputs.
type Slider string

const (
	SliderStreaming  Slider = "streaming"
	SliderMonitoring Slider = "monitoring"
)

// Sliders lists the streamer mode sliders.
var Sliders = []Slider{SliderStreaming, SliderMonitoring}

// DefaultSlider is used when no slider is given in streamer mode.
const DefaultSlider = SliderStreaming

// ValidChannel reports whether name is a known channel.
func ValidChannel(name Channel) bool {
	for _, ch := range Channels {
		if ch == name {
			return true
		}
	}
	return false
}

// ValidSlider reports whether name is a known slider.
func ValidSlider(name Slider) bool {
	for _, s := range Sliders {
		if s == name {
			return true
		}
	}
	return false
}

// CoreProps is the part of the engine's coreProps.json the client needs.
type CoreProps struct {
	EncryptedAddress string `json:"ggEncryptedAddress"`
}

// SubAppMetadata carries the sub-app's web server address.
type SubAppMetadata struct {
	WebServerAddress string `json:"webServerAddress"`
}

// SubApp is the health block of one engine sub-application.
type SubApp struct {
	IsEnabled bool           `json:"isEnabled"`
	IsReady   bool           `json:"isReady"`
	IsRunning bool           `json:"isRunning"`
	Metadata  SubAppMetadata `json:"metadata"`
}

// SubApps holds the sub-apps the client cares about.
type SubApps struct {
	Sonar SubApp `json:"sonar"`
}

// SubAppsResponse is the body of GET /subApps.
type SubAppsResponse struct {
	SubApps SubApps `json:"subApps"`
}

// Config controls client construction.
type Config struct {
	// CorePropsPath overrides DefaultCorePropsPath().
	CorePropsPath string
	// Mode skips the mode query when set.
	Mode Mode
	// HTTPClient defaults to NewHTTPClient(Timeout).
	HTTPClient *http.Client
	Timeout    time.Duration
}
