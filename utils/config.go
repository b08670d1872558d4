package utils

import (
	"bytes"
	"encoding/json"
	"os"
)

// LoadConfig reads a JSON configuration file into a value of type T.
// Decoding is strict: a key the config struct does not declare is a
// mistake worth failing on. Any failure here is fatal, a module cannot
// run half-configured.
func LoadConfig[T any](path string) *T {
	InfoLog.Info("Loading configuration", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		ErrorLog.Error("Could not read configuration file", "error", err, "file", path)
		os.Exit(1)
	}

	var config T
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&config); err != nil {
		ErrorLog.Error("Could not decode configuration", "error", err, "file", path)
		os.Exit(1)
	}

	InfoLog.Info("Configuration loaded", "file", path)
	return &config
}
