// Package config loads, validates, and holds the Skyhook configuration.
//
// Configuration comes from a YAML file with SKYHOOK_* environment variable
// overrides on top. Loading applies defaults, then file values, then
// environment values, then validates the result. The proxy section supplies
// compiled-in defaults for the proxy configuration store; values persisted
// through the store's admin surface take precedence over them at runtime.
//
// A process-wide singleton is available through Initialize/GetConfig for
// the CLI entry points; library consumers should pass Config values
// explicitly.
package config
