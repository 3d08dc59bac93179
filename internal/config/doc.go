// Package config loads the optional .assigngen.yaml file controlling which
// marker call is expanded and which build tags are enabled during loading.
package config
