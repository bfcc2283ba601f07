package sonar

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	modePath    = "/mode/"
	chatMixPath = "/chatMix"

	volumeKeyword        = "Volume"
	classicMuteKeyword   = "Mute"
	streamerMuteKeyword  = "isMuted"
	streamerModeResponse = "stream"
)

// Client is the blocking Sonar API client.
type Client struct {
	session *Session
	http    requester
	logger  *zap.Logger
}

// New discovers the Sonar web server and, unless cfg.Mode is set, queries the
// current mode. Nothing is sent when coreProps.json is missing.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = NewHTTPClient(cfg.Timeout)
	}

	addr, err := NewResolver(cfg.CorePropsPath, httpClient, logger).Resolve(ctx)
	if err != nil {
		return nil, err
	}
	logger.Debug("sonar web server resolved", zap.String("address", addr))

	cfg.HTTPClient = httpClient
	return NewWithAddress(ctx, addr, cfg, logger)
}

// NewWithAddress builds a client for a known web server address, skipping
// discovery. cfg.CorePropsPath is ignored.
func NewWithAddress(ctx context.Context, addr string, cfg Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = NewHTTPClient(cfg.Timeout)
	}

	c := &Client{
		http:   requester{client: httpClient, logger: logger},
		logger: logger,
	}
	addr = strings.TrimRight(strings.TrimSpace(addr), "/")

	mode := cfg.Mode
	if mode == "" {
		detected, err := c.queryMode(ctx, addr)
		if err != nil {
			return nil, err
		}
		mode = detected
	}
	c.session = newSession(addr, mode)
	return c, nil
}

// Session exposes the client's state.
func (c *Client) Session() *Session {
	return c.session
}

// Mode returns the mode the client is routing requests for.
func (c *Client) Mode() Mode {
	return c.session.Mode()
}

// VolumePath returns the current volume settings prefix.
func (c *Client) VolumePath() string {
	return c.session.VolumePath()
}

// BaseURL returns the Sonar web server address.
func (c *Client) BaseURL() string {
	return c.session.BaseURL()
}

// IsStreamerMode asks the server for its current mode. Any answer other than
// "stream" is treated as classic.
func (c *Client) IsStreamerMode(ctx context.Context) (bool, error) {
	mode, err := c.queryMode(ctx, c.session.BaseURL())
	if err != nil {
		return false, err
	}
	return mode.IsStreamer(), nil
}

// SetStreamerMode switches the server mode and adopts the mode it reports back.
func (c *Client) SetStreamerMode(ctx context.Context, enable bool) (bool, error) {
	path := modePath + string(ModeFromBool(enable))
	var confirmed string
	if err := c.http.decode(ctx, http.MethodPut, c.session.BaseURL(), path, &confirmed); err != nil {
		return false, err
	}
	c.session.adopt(ModeFromBool(confirmed == streamerModeResponse))
	mode := c.session.Mode()
	c.logger.Debug("sonar mode changed", zap.String("requested", string(ModeFromBool(enable))), zap.String("mode", string(mode)))
	return mode.IsStreamer(), nil
}

// VolumeData returns the channel volume tree for the current mode.
func (c *Client) VolumeData(ctx context.Context) (json.RawMessage, error) {
	base, _, prefix := c.session.snapshot()
	return c.http.raw(ctx, http.MethodGet, base, prefix)
}

// SetVolume sets a channel volume in [0, 1]. The slider is only used in
// streamer mode and defaults to DefaultSlider.
func (c *Client) SetVolume(ctx context.Context, channel Channel, volume float64, slider Slider) (json.RawMessage, error) {
	if err := ValidateChannel(channel); err != nil {
		return nil, err
	}
	if err := ValidateVolume(volume); err != nil {
		return nil, err
	}
	base, _, prefix, err := c.routeChannel(channel, slider)
	if err != nil {
		return nil, err
	}
	return c.http.raw(ctx, http.MethodPut, base, prefix+"/"+volumeKeyword+"/"+formatNumber(volume))
}

// MuteChannel mutes or unmutes a channel.
func (c *Client) MuteChannel(ctx context.Context, channel Channel, muted bool, slider Slider) (json.RawMessage, error) {
	if err := ValidateChannel(channel); err != nil {
		return nil, err
	}
	base, mode, prefix, err := c.routeChannel(channel, slider)
	if err != nil {
		return nil, err
	}
	keyword := classicMuteKeyword
	if mode.IsStreamer() {
		keyword = streamerMuteKeyword
	}
	return c.http.raw(ctx, http.MethodPut, base, prefix+"/"+keyword+"/"+strconv.FormatBool(muted))
}

// ChatMixData returns the chat mix state.
func (c *Client) ChatMixData(ctx context.Context) (json.RawMessage, error) {
	return c.http.raw(ctx, http.MethodGet, c.session.BaseURL(), chatMixPath)
}

// SetChatMix sets the game/chat balance in [-1, 1].
func (c *Client) SetChatMix(ctx context.Context, balance float64) (json.RawMessage, error) {
	if err := ValidateChatMix(balance); err != nil {
		return nil, err
	}
	return c.http.raw(ctx, http.MethodPut, c.session.BaseURL(), chatMixPath+"?balance="+formatNumber(balance))
}

func (c *Client) queryMode(ctx context.Context, baseURL string) (Mode, error) {
	var mode string
	if err := c.http.decode(ctx, http.MethodGet, baseURL, modePath, &mode); err != nil {
		return "", err
	}
	return ModeFromBool(mode == streamerModeResponse), nil
}

// routeChannel returns the base URL, mode and "{prefix[/slider]}/{channel}"
// from a single session snapshot.
func (c *Client) routeChannel(channel Channel, slider Slider) (string, Mode, string, error) {
	base, mode, prefix := c.session.snapshot()
	if mode.IsStreamer() {
		if slider == "" {
			slider = DefaultSlider
		}
		if err := ValidateSlider(slider); err != nil {
			return "", mode, "", err
		}
		prefix += "/" + string(slider)
	}
	return base, mode, prefix + "/" + string(channel), nil
}

// ValidateChannel returns a *ChannelError for unknown channels.
func ValidateChannel(channel Channel) error {
	if !ValidChannel(channel) {
		return &ChannelError{Channel: channel}
	}
	return nil
}

// ValidateSlider returns a *SliderError for unknown sliders.
func ValidateSlider(slider Slider) error {
	if !ValidSlider(slider) {
		return &SliderError{Slider: slider}
	}
	return nil
}

// ValidateVolume rejects volumes outside [0, 1].
func ValidateVolume(volume float64) error {
	return checkRange(volume, 0, 1, ErrInvalidVolume)
}

// ValidateChatMix rejects balances outside [-1, 1].
func ValidateChatMix(balance float64) error {
	return checkRange(balance, -1, 1, ErrInvalidMixVolume)
}

func checkRange(value float64, lo float64, hi float64, kind error) error {
	if math.IsNaN(value) || value < lo || value > hi {
		return &RangeError{Value: value, Min: lo, Max: hi, kind: kind}
	}
	return nil
}

// formatNumber prints a float the way a JSON encoder does, keeping ".0" on
// integral values.
func formatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
