// Package config provides configuration structures and utilities for mdlinkcheck.
// It defines the options of a check run, their defaults and validation, and
// the optional rules file (.mdlinkcheck in YAML, or .mdlinkcheck.toml).
package config
