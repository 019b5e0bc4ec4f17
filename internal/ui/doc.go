// Package ui provides helpers for human-readable console interaction.
//
// The helpers translate request lifecycle events into concise messages and
// collect operator confirmations, so that CLI feedback remains actionable
// while detailed telemetry continues to flow through structured loggers.
package ui
