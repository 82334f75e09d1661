package yamlbind

import (
	"sync"

	"github.com/reoring/yamlbind/event"
	"github.com/reoring/yamlbind/source/yamlv3"
)

// EventSource yields raw parser events for one input: anchors and
// aliases unresolved, scalar text exactly as written, io.EOF at the end
// of the stream.
type EventSource interface {
	Next() (event.Event, error)
}

// Driver turns YAML input into an EventSource via a pluggable SPI. The
// default implementation is based on gopkg.in/yaml.v3, whose node model
// delivers duplicate mapping keys and complex keys to the adapter instead
// of rejecting them at parse time. It may be swapped with SetDriver;
// source/goccyast provides an alternative on github.com/goccy/go-yaml
// with byte-accurate span offsets.
type Driver interface {
	NewBytes(b []byte) (EventSource, error)
	Name() string
}

var (
	driverMu      sync.RWMutex
	currentDriver Driver = defaultDriver{}
)

// SetDriver replaces the global driver; nil values are ignored.
func SetDriver(d Driver) {
	if d == nil {
		return
	}
	driverMu.Lock()
	currentDriver = d
	driverMu.Unlock()
}

// UseDefaultDriver restores the built-in driver.
func UseDefaultDriver() {
	driverMu.Lock()
	currentDriver = defaultDriver{}
	driverMu.Unlock()
}

// DriverName reports the name of the driver in use.
func DriverName() string {
	driverMu.RLock()
	defer driverMu.RUnlock()
	return currentDriver.Name()
}

func getDriver() Driver {
	driverMu.RLock()
	defer driverMu.RUnlock()
	return currentDriver
}

type defaultDriver struct{}

func (defaultDriver) NewBytes(b []byte) (EventSource, error) {
	return yamlv3.Parse(b)
}

func (defaultDriver) Name() string { return "yaml-v3" }
