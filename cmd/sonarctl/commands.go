package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/saker-ai/sonar-bridge/internal/preset"
	"github.com/saker-ai/sonar-bridge/pkg/runtime"
	"github.com/saker-ai/sonar-bridge/pkg/sonar"
)

const shutdownTimeout = 5 * time.Second

type command struct {
	args    string
	summary string
	run     func(ctx context.Context, env *cliEnv, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"status":     {"", "show server address and mode", runStatus},
		"volume":     {"", "print the volume tree", runVolume},
		"set-volume": {"<channel> <0..1> [--slider s]", "set a channel volume", runSetVolume},
		"mute":       {"<channel> <true|false> [--slider s]", "mute or unmute a channel", runMute},
		"chatmix":    {"[-1..1]", "print or set the chat mix", runChatMix},
		"mode":       {"[stream|classic]", "print or set the mode", runMode},
		"channels":   {"", "list channels and sliders", runChannels},
		"preset":     {"list | apply <name|file>", "list or apply presets", runPreset},
		"config":     {"", "print the merged configuration", runConfig},
		"serve":      {"", "run the REST bridge", runServe},
	}
}

func (e *cliEnv) client(ctx context.Context) (*sonar.Client, error) {
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	return sonar.New(ctx, cfg.SonarConfig(), e.log().Named("sonar"))
}

func runStatus(ctx context.Context, env *cliEnv, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	client, err := env.client(ctx)
	if err != nil {
		return err
	}
	return env.printJSON(map[string]any{
		"base_url":    client.BaseURL(),
		"mode":        client.Mode(),
		"streamer":    client.Mode().IsStreamer(),
		"volume_path": client.VolumePath(),
	})
}

func runVolume(ctx context.Context, env *cliEnv, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	client, err := env.client(ctx)
	if err != nil {
		return err
	}
	data, err := client.VolumeData(ctx)
	if err != nil {
		return err
	}
	return env.printRaw(data)
}

func runSetVolume(ctx context.Context, env *cliEnv, args []string) error {
	fs, slider := sliderFlags("set-volume")
	if err := fs.Parse(args); err != nil || fs.NArg() != 2 {
		return errUsage
	}
	channel := sonar.Channel(fs.Arg(0))
	volume, err := strconv.ParseFloat(fs.Arg(1), 64)
	if err != nil {
		return fmt.Errorf("volume %q is not a number", fs.Arg(1))
	}
	if err := sonar.ValidateChannel(channel); err != nil {
		return err
	}
	if err := sonar.ValidateVolume(volume); err != nil {
		return err
	}
	client, err := env.client(ctx)
	if err != nil {
		return err
	}
	data, err := client.SetVolume(ctx, channel, volume, sonar.Slider(*slider))
	if err != nil {
		return err
	}
	return env.printRaw(data)
}

func runMute(ctx context.Context, env *cliEnv, args []string) error {
	fs, slider := sliderFlags("mute")
	if err := fs.Parse(args); err != nil || fs.NArg() != 2 {
		return errUsage
	}
	channel := sonar.Channel(fs.Arg(0))
	muted, err := strconv.ParseBool(fs.Arg(1))
	if err != nil {
		return fmt.Errorf("muted %q is not a boolean", fs.Arg(1))
	}
	if err := sonar.ValidateChannel(channel); err != nil {
		return err
	}
	client, err := env.client(ctx)
	if err != nil {
		return err
	}
	data, err := client.MuteChannel(ctx, channel, muted, sonar.Slider(*slider))
	if err != nil {
		return err
	}
	return env.printRaw(data)
}

func runChatMix(ctx context.Context, env *cliEnv, args []string) error {
	if len(args) > 1 {
		return errUsage
	}
	var balance float64
	if len(args) == 1 {
		v, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("balance %q is not a number", args[0])
		}
		if err := sonar.ValidateChatMix(v); err != nil {
			return err
		}
		balance = v
	}
	client, err := env.client(ctx)
	if err != nil {
		return err
	}
	var data json.RawMessage
	if len(args) == 1 {
		data, err = client.SetChatMix(ctx, balance)
	} else {
		data, err = client.ChatMixData(ctx)
	}
	if err != nil {
		return err
	}
	return env.printRaw(data)
}

func runMode(ctx context.Context, env *cliEnv, args []string) error {
	if len(args) > 1 {
		return errUsage
	}
	var target sonar.Mode
	if len(args) == 1 {
		mode, err := sonar.ParseMode(args[0])
		if err != nil {
			return err
		}
		target = mode
	}
	client, err := env.client(ctx)
	if err != nil {
		return err
	}
	var streamer bool
	if target != "" {
		streamer, err = client.SetStreamerMode(ctx, target.IsStreamer())
	} else {
		streamer, err = client.IsStreamerMode(ctx)
	}
	if err != nil {
		return err
	}
	return env.printJSON(map[string]any{"mode": sonar.ModeFromBool(streamer), "streamer": streamer})
}

func runChannels(_ context.Context, env *cliEnv, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	return env.printJSON(map[string]any{"channels": sonar.Channels, "sliders": sonar.Sliders})
}

func runPreset(ctx context.Context, env *cliEnv, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cfg, err := env.config()
	if err != nil {
		return err
	}
	switch args[0] {
	case "list":
		if len(args) != 1 {
			return errUsage
		}
		presets, err := preset.Scan(cfg.PresetsDir)
		if err != nil {
			return err
		}
		return env.printJSON(presets)
	case "apply":
		if len(args) != 2 {
			return errUsage
		}
		p, err := preset.Load(cfg.PresetsDir, args[1])
		if err != nil {
			return err
		}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("preset %s: %w", p.Name, err)
		}
		client, err := env.client(ctx)
		if err != nil {
			return err
		}
		result, err := preset.Apply(ctx, client, p)
		if err != nil {
			_ = env.printJSON(result)
			return err
		}
		return env.printJSON(result)
	default:
		return errUsage
	}
}

func runConfig(_ context.Context, env *cliEnv, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	cfg, err := env.config()
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(env.stdout)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

func runServe(ctx context.Context, env *cliEnv, args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	srv, err := runtime.New(ctx, env.configPath, env.flags)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

func sliderFlags(name string) (*pflag.FlagSet, *string) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	slider := fs.String("slider", "", "streamer slider (streaming|monitoring)")
	return fs, slider
}

func (e *cliEnv) printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(e.stdout, "%s\n", data)
	return err
}

func (e *cliEnv) printRaw(data json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err := e.stdout.Write(buf.Bytes())
	return err
}
