package sonar

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"
)

const subAppsPath = "/subApps"

// LoadCoreProps reads the engine's coreProps.json. A missing file yields
// ErrEnginePathNotFound; anything unreadable or malformed yields *ConfigError.
func LoadCoreProps(path string) (CoreProps, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return CoreProps{}, ErrEnginePathNotFound
		}
		return CoreProps{}, &ConfigError{Path: path, Err: err}
	}
	var props CoreProps
	if err := json.Unmarshal(data, &props); err != nil {
		return CoreProps{}, &ConfigError{Path: path, Err: err}
	}
	if strings.TrimSpace(props.EncryptedAddress) == "" {
		return CoreProps{}, &ConfigError{Path: path, Err: errors.New("ggEncryptedAddress is empty")}
	}
	return props, nil
}

// WebServerAddress checks the sub-app health flags in order and returns its
// web server address.
func (a SubApp) WebServerAddress() (string, error) {
	if !a.IsEnabled {
		return "", ErrSonarNotEnabled
	}
	if !a.IsReady {
		return "", ErrServerNotReady
	}
	if !a.IsRunning {
		return "", ErrServerNotRunning
	}
	addr := strings.TrimSpace(a.Metadata.WebServerAddress)
	if addr == "" || addr == "null" {
		return "", ErrWebServerAddressNotFound
	}
	return strings.TrimRight(addr, "/"), nil
}

// Resolver finds the Sonar web server through the engine's discovery endpoint.
type Resolver struct {
	corePropsPath string
	http          requester
}

// NewResolver builds a resolver. An empty path means DefaultCorePropsPath().
func NewResolver(corePropsPath string, client *http.Client, logger *zap.Logger) *Resolver {
	if corePropsPath == "" {
		corePropsPath = DefaultCorePropsPath()
	}
	if client == nil {
		client = NewHTTPClient(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		corePropsPath: corePropsPath,
		http:          requester{client: client, logger: logger},
	}
}

// Resolve returns the Sonar web server base URL.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	props, err := LoadCoreProps(r.corePropsPath)
	if err != nil {
		return "", err
	}

	var status SubAppsResponse
	if err := r.http.decode(ctx, http.MethodGet, "https://"+props.EncryptedAddress, subAppsPath, &status); err != nil {
		return "", err
	}
	return status.SubApps.Sonar.WebServerAddress()
}
