// Package utils exposes reusable helpers consumed across the CLI.
//
// It houses the ConfigurationLoader and LoggerFactory abstractions that
// integrate Viper configuration layering, TRUSTX environment overrides, and
// zap logging, plus the context accessor used to hand command metadata to
// subcommands.
package utils
