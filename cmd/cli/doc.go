// Package cli constructs the trustx-migration command-line interface, wiring
// the Cobra command hierarchy, configuration loader, and structured logging
// primitives. Configuration layers embedded defaults, an optional YAML or
// JSON file, and TRUSTX-prefixed environment variables.
package cli
