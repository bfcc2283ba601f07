//go:build windows

package sonar

// DefaultCorePropsPath returns where SteelSeries Engine 3 writes coreProps.json.
func DefaultCorePropsPath() string {
	return `C:\ProgramData\SteelSeries\SteelSeries Engine 3\coreProps.json`
}
