// Package config provides configuration loading and validation for the VAD pipeline.
// It handles YAML-based configuration with struct validation and supports all parameters
// defined in the specification section 5.1.
package config 