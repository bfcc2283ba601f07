package preset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Info describes a preset file found by Scan.
type Info struct {
	Filename string `json:"filename"`
	Name     string `json:"name"`
	Error    string `json:"error,omitempty"`
}

// Scan lists *.yaml and *.yml presets under dir, sorted by name. A missing
// directory yields an empty list. Unreadable presets are listed with Error set.
func Scan(dir string) ([]Info, error) {
	presets := []Info{}
	if dir == "" {
		return presets, nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return presets, nil
	}

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !isPresetFile(d.Name()) {
			return nil
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			rel = d.Name()
		}
		info := Info{Filename: rel, Name: stem(path)}
		if p, err := Read(path); err != nil {
			info.Error = err.Error()
		} else {
			info.Name = p.Name
		}
		presets = append(presets, info)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan presets %s: %w", dir, err)
	}

	sort.Slice(presets, func(i, j int) bool {
		return presets[i].Name < presets[j].Name
	})
	return presets, nil
}

// Find loads the preset whose name or file stem matches name.
func Find(dir string, name string) (Preset, error) {
	presets, err := Scan(dir)
	if err != nil {
		return Preset{}, err
	}
	for _, info := range presets {
		if info.Name != name && stem(info.Filename) != name {
			continue
		}
		if info.Error != "" {
			return Preset{}, fmt.Errorf("preset %s: %s", name, info.Error)
		}
		return Read(filepath.Join(dir, info.Filename))
	}
	return Preset{}, fmt.Errorf("preset %q not found in %s", name, dir)
}

// Load reads ref as a file path when it names an existing file, otherwise it
// looks ref up by name in dir.
func Load(dir string, ref string) (Preset, error) {
	if isPresetFile(ref) {
		if info, err := os.Stat(ref); err == nil && !info.IsDir() {
			return Read(ref)
		}
	}
	return Find(dir, ref)
}

func isPresetFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
