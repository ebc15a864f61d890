// Package telemetry provides structured logging for plugsync built on
// zerolog: component child loggers, plugin/spec field helpers, and
// context embedding so deeply nested code can log without threading a
// logger through every signature.
package telemetry
