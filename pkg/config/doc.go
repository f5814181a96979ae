// Package config holds the typed base configuration of each provider category,
// the normalization of caller-supplied configuration into those types, and the
// loading of a memory stack configuration from files and the environment.
package config
