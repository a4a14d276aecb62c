// Package version holds the tool version recorded in summaries and
// printed by the version subcommand.
package version

// Version is overridden at build time via -ldflags.
var Version = "1.1.0"
