// Package shell exposes fetched plugins to zsh sessions.
//
// The loader resolves each plugin's entry script by convention
// (<repo>.plugin.zsh first) and maintains a generated init script of
// source lines. The user's rc file sources that script; reconciliation
// rewrites it atomically.
package shell
