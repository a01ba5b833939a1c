// Package config defines configuration for the crawl CLI.
//
// Configuration can be provided via:
//   - Command-line flags
//   - Environment variables (CRAWL_ prefix, optionally from a .env file)
//   - Batch files (plain URL lists or YAML request lists)
//
// Flags take precedence over environment variables, which take precedence
// over defaults.
package config
