// Package config provides configuration structures and utilities for
// backcheck. It defines the main options for a verification run, the
// proxy provider settings, and the optional .backcheck YAML file.
package config
