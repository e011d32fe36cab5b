// Package repository loads the configured CDM devices.
package repository

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/allisson/playready-proxy/internal/playready/domain"
)

// ErrInvalidDeviceConfig indicates a malformed or inconsistent device list.
var ErrInvalidDeviceConfig = errors.New("invalid device configuration")

// devicesFile is the YAML layout of the devices file:
//
//	devices:
//	  - name: sl2000
//	    path: /etc/playready/sl2000.prd
type devicesFile struct {
	Devices []domain.Device `yaml:"devices"`
}

// DeviceCatalogue is the immutable set of devices configured at startup.
type DeviceCatalogue struct {
	byName map[string]*domain.Device
	names  []string
}

// NewDeviceCatalogue validates devices and builds a catalogue. Names must be
// non-empty and unique.
func NewDeviceCatalogue(devices []domain.Device) (*DeviceCatalogue, error) {
	c := &DeviceCatalogue{byName: make(map[string]*domain.Device, len(devices))}
	for i := range devices {
		d := devices[i]
		d.Name = strings.TrimSpace(d.Name)
		if d.Name == "" {
			return nil, fmt.Errorf("%w: device #%d has no name", ErrInvalidDeviceConfig, i+1)
		}
		if _, dup := c.byName[d.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate device name %q", ErrInvalidDeviceConfig, d.Name)
		}
		c.byName[d.Name] = &d
		c.names = append(c.names, d.Name)
	}
	sort.Strings(c.names)
	return c, nil
}

// LoadDeviceCatalogue reads the YAML devices file at path. When that file does
// not exist it falls back to the single fallbackName/fallbackPath device.
func LoadDeviceCatalogue(path, fallbackName, fallbackPath string) (*DeviceCatalogue, error) {
	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // operator supplied path
		switch {
		case err == nil:
			var file devicesFile
			if err := yaml.Unmarshal(data, &file); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDeviceConfig, path, err)
			}
			return NewDeviceCatalogue(file.Devices)
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("failed to read devices file %s: %w", path, err)
		}
	}

	if fallbackName == "" {
		return NewDeviceCatalogue(nil)
	}
	return NewDeviceCatalogue([]domain.Device{{Name: fallbackName, Path: fallbackPath}})
}

// Get returns the device called name.
func (c *DeviceCatalogue) Get(name string) (*domain.Device, error) {
	d, ok := c.byName[name]
	if !ok {
		return nil, domain.ErrUnknownDevice
	}
	return d, nil
}

// List returns every device sorted by name.
func (c *DeviceCatalogue) List() []*domain.Device {
	out := make([]*domain.Device, 0, len(c.names))
	for _, name := range c.names {
		out = append(out, c.byName[name])
	}
	return out
}

// Len returns the number of devices.
func (c *DeviceCatalogue) Len() int {
	return len(c.names)
}
