// Package file provides the TOML-backed driven.ConfigStore.
package file
