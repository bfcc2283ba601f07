//go:build !windows && !darwin

package sonar

// DefaultCorePropsPath has no engine install to point at on this platform;
// callers are expected to pass an explicit path.
func DefaultCorePropsPath() string {
	return "/tmp/coreProps.json"
}
