// Package config embeds the default configuration shipped with the binary.
package config

import _ "embed"

// Default is the lowest configuration layer.
//
//go:embed conf.default.yaml
var Default []byte
