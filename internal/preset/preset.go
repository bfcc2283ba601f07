// Package preset reads YAML mixer presets and applies them through a Sonar
// controller.
package preset

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/saker-ai/sonar-bridge/pkg/sonar"
)

// ChannelSetting is the desired state of one channel. Nil fields are left alone.
type ChannelSetting struct {
	Volume *float64 `yaml:"volume,omitempty" json:"volume,omitempty"`
	Muted  *bool    `yaml:"muted,omitempty" json:"muted,omitempty"`
	Slider string   `yaml:"slider,omitempty" json:"slider,omitempty"`
}

// Preset is a named set of mixer settings.
type Preset struct {
	Name     string                    `yaml:"name" json:"name"`
	Mode     string                    `yaml:"mode,omitempty" json:"mode,omitempty"`
	ChatMix  *float64                  `yaml:"chat_mix,omitempty" json:"chat_mix,omitempty"`
	Channels map[string]ChannelSetting `yaml:"channels,omitempty" json:"channels,omitempty"`
}

// Controller is the subset of *sonar.Client a preset needs.
type Controller interface {
	SetStreamerMode(ctx context.Context, enable bool) (bool, error)
	SetVolume(ctx context.Context, channel sonar.Channel, volume float64, slider sonar.Slider) (json.RawMessage, error)
	MuteChannel(ctx context.Context, channel sonar.Channel, muted bool, slider sonar.Slider) (json.RawMessage, error)
	SetChatMix(ctx context.Context, balance float64) (json.RawMessage, error)
}

// Step records one applied operation.
type Step struct {
	Action  string `json:"action"`
	Channel string `json:"channel,omitempty"`
	Slider  string `json:"slider,omitempty"`
	Value   any    `json:"value"`
}

// Result lists the steps applied, including those before a failure.
type Result struct {
	Preset string `json:"preset"`
	Steps  []Step `json:"steps"`
}

// Read decodes a preset file. Unknown keys are rejected; a missing name
// defaults to the file name without extension.
func Read(path string) (Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Preset{}, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var p Preset
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return Preset{}, fmt.Errorf("preset %s is empty", path)
		}
		return Preset{}, fmt.Errorf("decode preset %s: %w", path, err)
	}
	if strings.TrimSpace(p.Name) == "" {
		p.Name = stem(path)
	}
	return p, nil
}

// Validate checks every value locally so that an invalid preset sends nothing.
// Sliders are checked whatever the mode, since the preset may switch modes.
func (p Preset) Validate() error {
	if p.Mode != "" {
		if _, err := sonar.ParseMode(p.Mode); err != nil {
			return err
		}
	}
	for name, setting := range p.Channels {
		if err := sonar.ValidateChannel(sonar.Channel(name)); err != nil {
			return err
		}
		if setting.Volume != nil {
			if err := sonar.ValidateVolume(*setting.Volume); err != nil {
				return fmt.Errorf("channel %s: %w", name, err)
			}
		}
		if setting.Slider != "" {
			if err := sonar.ValidateSlider(sonar.Slider(setting.Slider)); err != nil {
				return fmt.Errorf("channel %s: %w", name, err)
			}
		}
	}
	if p.ChatMix != nil {
		if err := sonar.ValidateChatMix(*p.ChatMix); err != nil {
			return err
		}
	}
	return nil
}

// Apply sets the mode, then each channel in sonar.Channels order (volume
// before mute), then the chat mix. It stops at the first failure.
func Apply(ctx context.Context, ctl Controller, p Preset) (Result, error) {
	result := Result{Preset: p.Name, Steps: []Step{}}
	if err := p.Validate(); err != nil {
		return result, fmt.Errorf("preset %s: %w", p.Name, err)
	}

	if p.Mode != "" {
		mode, _ := sonar.ParseMode(p.Mode)
		streamer, err := ctl.SetStreamerMode(ctx, mode.IsStreamer())
		if err != nil {
			return result, fmt.Errorf("preset %s: set mode: %w", p.Name, err)
		}
		result.Steps = append(result.Steps, Step{Action: "mode", Value: string(sonar.ModeFromBool(streamer))})
	}

	for _, channel := range sonar.Channels {
		setting, ok := p.Channels[string(channel)]
		if !ok {
			continue
		}
		slider := sonar.Slider(setting.Slider)
		if setting.Volume != nil {
			if _, err := ctl.SetVolume(ctx, channel, *setting.Volume, slider); err != nil {
				return result, fmt.Errorf("preset %s: set %s volume: %w", p.Name, channel, err)
			}
			result.Steps = append(result.Steps, Step{Action: "volume", Channel: string(channel), Slider: setting.Slider, Value: *setting.Volume})
		}
		if setting.Muted != nil {
			if _, err := ctl.MuteChannel(ctx, channel, *setting.Muted, slider); err != nil {
				return result, fmt.Errorf("preset %s: mute %s: %w", p.Name, channel, err)
			}
			result.Steps = append(result.Steps, Step{Action: "mute", Channel: string(channel), Slider: setting.Slider, Value: *setting.Muted})
		}
	}

	if p.ChatMix != nil {
		if _, err := ctl.SetChatMix(ctx, *p.ChatMix); err != nil {
			return result, fmt.Errorf("preset %s: set chat mix: %w", p.Name, err)
		}
		result.Steps = append(result.Steps, Step{Action: "chat_mix", Value: *p.ChatMix})
	}
	return result, nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
