package config

import _ "embed"

// Default is the built-in configuration every loaded config is merged over.
//
//go:embed conf.default.yaml
var Default []byte
