package preset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/saker-ai/sonar-bridge/pkg/sonar"
)

type fakeController struct {
	calls  []string
	failOn string
}

func (f *fakeController) record(call string) error {
	f.calls = append(f.calls, call)
	if f.failOn != "" && strings.HasPrefix(call, f.failOn) {
		return &sonar.StatusError{StatusCode: 500}
	}
	return nil
}

func (f *fakeController) SetStreamerMode(_ context.Context, enable bool) (bool, error) {
	return enable, f.record(fmt.Sprintf("mode %t", enable))
}

func (f *fakeController) SetVolume(_ context.Context, ch sonar.Channel, v float64, s sonar.Slider) (json.RawMessage, error) {
	return json.RawMessage(`{}`), f.record(fmt.Sprintf("volume %s %v %s", ch, v, s))
}

func (f *fakeController) MuteChannel(_ context.Context, ch sonar.Channel, muted bool, s sonar.Slider) (json.RawMessage, error) {
	return json.RawMessage(`{}`), f.record(fmt.Sprintf("mute %s %t %s", ch, muted, s))
}

func (f *fakeController) SetChatMix(_ context.Context, b float64) (json.RawMessage, error) {
	return json.RawMessage(`{}`), f.record(fmt.Sprintf("chatmix %v", b))
}

func writePreset(t *testing.T, dir string, name string, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

const nightPreset = `name: night
mode: stream
chat_mix: -0.2
channels:
  chatCapture:
    muted: true
    slider: streaming
  game:
    volume: 0.6
    slider: monitoring
  master:
    volume: 1
`

func TestReadAndApplyOrder(t *testing.T) {
	path := writePreset(t, t.TempDir(), "night.yaml", nightPreset)
	p, err := Read(path)
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}

	ctl := &fakeController{}
	result, err := Apply(context.Background(), ctl, p)
	if err != nil {
		t.Fatalf("Apply error: %v", err)
	}

	want := []string{
		"mode true",
		"volume master 1 ",
		"volume game 0.6 monitoring",
		"mute chatCapture true streaming",
		"chatmix -0.2",
	}
	if strings.Join(ctl.calls, "|") != strings.Join(want, "|") {
		t.Fatalf("calls=%q, want %q", ctl.calls, want)
	}
	if len(result.Steps) != len(want) || result.Preset != "night" {
		t.Fatalf("result=%+v, want %d steps for night", result, len(want))
	}
}

func TestValidateRejectsBeforeAnyCall(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    error
	}{
		{name: "channel", content: "channels:\n  voice:\n    volume: 0.5\n", want: sonar.ErrChannelNotFound},
		{name: "volume", content: "channels:\n  game:\n    volume: 1.5\n", want: sonar.ErrInvalidVolume},
		{name: "slider", content: "channels:\n  game:\n    slider: broadcast\n", want: sonar.ErrSliderNotFound},
		{name: "chatmix", content: "chat_mix: -2\n", want: sonar.ErrInvalidMixVolume},
	}
	dir := t.TempDir()
	for _, tt := range tests {
		p, err := Read(writePreset(t, dir, tt.name+".yaml", tt.content))
		if err != nil {
			t.Fatalf("%s: Read error: %v", tt.name, err)
		}
		ctl := &fakeController{}
		if _, err := Apply(context.Background(), ctl, p); !errors.Is(err, tt.want) {
			t.Fatalf("%s: Apply error=%v, want %v", tt.name, err, tt.want)
		}
		if len(ctl.calls) != 0 {
			t.Fatalf("%s: calls=%q, want none", tt.name, ctl.calls)
		}
	}
}

func TestApplyStopsAtFirstFailure(t *testing.T) {
	p, err := Read(writePreset(t, t.TempDir(), "night.yaml", nightPreset))
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	ctl := &fakeController{failOn: "volume game"}
	result, err := Apply(context.Background(), ctl, p)
	if !errors.Is(err, sonar.ErrServerNotAccessible) {
		t.Fatalf("Apply error=%v, want %v", err, sonar.ErrServerNotAccessible)
	}
	if len(result.Steps) != 2 {
		t.Fatalf("steps=%d, want 2 applied before failure", len(result.Steps))
	}
}

func TestReadRejectsUnknownKeys(t *testing.T) {
	path := writePreset(t, t.TempDir(), "typo.yaml", "chatmix: 0.5\n")
	if _, err := Read(path); err == nil {
		t.Fatal("Read error=nil, want unknown field error")
	}
}

func TestScanAndFind(t *testing.T) {
	dir := t.TempDir()
	writePreset(t, dir, "night.yaml", nightPreset)
	writePreset(t, dir, "quiet.yml", "channels:\n  master:\n    volume: 0.2\n")
	writePreset(t, dir, "broken.yaml", "channels: [")
	writePreset(t, dir, "notes.txt", "ignored")

	presets, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}
	if len(presets) != 3 {
		t.Fatalf("Scan returned %d presets, want 3", len(presets))
	}
	if presets[0].Name != "broken" || presets[0].Error == "" {
		t.Fatalf("presets[0]=%+v, want broken with error", presets[0])
	}
	if presets[1].Name != "night" || presets[2].Name != "quiet" {
		t.Fatalf("presets=%+v, want sorted night, quiet", presets)
	}

	p, err := Find(dir, "quiet")
	if err != nil {
		t.Fatalf("Find error: %v", err)
	}
	if p.Channels["master"].Volume == nil || *p.Channels["master"].Volume != 0.2 {
		t.Fatalf("quiet master volume=%v, want 0.2", p.Channels["master"].Volume)
	}
	if _, err := Find(dir, "broken"); err == nil {
		t.Fatal("Find(broken) error=nil, want error")
	}
	if _, err := Find(dir, "absent"); err == nil {
		t.Fatal("Find(absent) error=nil, want error")
	}

	p, err = Load(dir, filepath.Join(dir, "night.yaml"))
	if err != nil || p.Name != "night" {
		t.Fatalf("Load(path)=%+v,%v, want night", p, err)
	}
}

func TestScanMissingDir(t *testing.T) {
	presets, err := Scan(filepath.Join(t.TempDir(), "none"))
	if err != nil || len(presets) != 0 {
		t.Fatalf("Scan(missing)=%v,%v, want empty,nil", presets, err)
	}
}
