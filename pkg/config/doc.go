// Package config resolves plugsync's engine settings from built-in
// defaults, an optional YAML config file, and PLUGSYNC_* environment
// variables, in that order of precedence (later layers win).
package config
