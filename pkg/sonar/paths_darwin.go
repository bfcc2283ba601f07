//go:build darwin

package sonar

// DefaultCorePropsPath returns where SteelSeries Engine 3 writes coreProps.json.
func DefaultCorePropsPath() string {
	return "/Library/Application Support/SteelSeries Engine 3/coreProps.json"
}
