// Package commands defines the vowelscore CLI.
//
// Commands
//
//   - assess     Score one JSON request and print the result
//   - batch      Score a JSON Lines file, one result per line, in input order
//   - inventory  Print the vowel table of the active phoneme inventory
//   - normalize  Print the normalized phonemes of an IPA or ARPAbet string
//
// # Implementation
//
// The root command loads .env, the YAML config and the phoneme inventory,
// initialises OpenTelemetry and builds one [assess.Assessor] before any
// subcommand runs. Flags override environment variables, which override the
// config file.
package commands
