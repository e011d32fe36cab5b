// Package domain defines the PlayReady CDM proxy model: configured devices,
// live CDM sessions and the keys extracted from licenses.
package domain

// Device is a configured CDM profile. Devices are loaded once at startup and
// never change for the lifetime of the process.
type Device struct {
	Name string `yaml:"name" json:"name"`
	// Path locates the credential material of the device. It is opaque to the
	// proxy and only handed to the engine.
	Path string `yaml:"path" json:"path"`
}
