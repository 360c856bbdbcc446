// Package config loads and validates the pushwire gateway configuration.
//
// Configuration comes from a YAML file with ${VAR} expansion, optionally
// overlaid by a .env file and PUSHWIRE_* environment variables. Defaults
// are applied before validation, so a minimal file only needs the account
// ID and the endpoint URL.
package config
