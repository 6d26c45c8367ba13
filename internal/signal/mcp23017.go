package signal

import (
	"sync"

	"github.com/jkaflik/valve2mqtt/internal/valve"
	"github.com/pkg/errors"
	"github.com/racerxdl/go-mcp23017"
	"github.com/sirupsen/logrus"
)

// Pins is the part of an MCP23017 device the pin source drives.
type Pins interface {
	PinMode(pin uint8, mode mcp23017.PinMode) error
	DigitalWrite(pin uint8, level mcp23017.PinLevel) error
	DigitalRead(pin uint8) (mcp23017.PinLevel, error)
}

// Pin is one expander pin. ActiveLow inverts its level, the way a normally
// closed relay contact does.
type Pin struct {
	Pin       uint8
	ActiveLow bool
}

func (p Pin) level(value bool) mcp23017.PinLevel {
	if value != p.ActiveLow {
		return mcp23017.HIGH
	}
	return mcp23017.LOW
}

func (p Pin) value(level mcp23017.PinLevel) bool {
	return (level == mcp23017.HIGH) != p.ActiveLow
}

// Mcp23017 reads status flags from input pins and drives command signals on
// output pins of an I2C expander. Flags without a pin read as false.
type Mcp23017 struct {
	Name string

	mu      sync.Mutex
	device  Pins
	flags   map[valve.Flag]Pin
	signals map[valve.Command]Pin
}

func NewMcp23017(name string, device Pins, flags map[valve.Flag]Pin, signals map[valve.Command]Pin) (*Mcp23017, error) {
	m := &Mcp23017{Name: name, device: device, flags: flags, signals: signals}

	for id, p := range flags {
		if err := device.PinMode(p.Pin, mcp23017.INPUT); err != nil {
			return nil, errors.Wrapf(err, "%s: flag %s pin %d mode", name, id, p.Pin)
		}
	}
	for id, p := range signals {
		if err := device.PinMode(p.Pin, mcp23017.OUTPUT); err != nil {
			return nil, errors.Wrapf(err, "%s: signal %s pin %d mode", name, id, p.Pin)
		}
		if err := device.DigitalWrite(p.Pin, p.level(false)); err != nil {
			return nil, errors.Wrapf(err, "%s: signal %s pin %d release", name, id, p.Pin)
		}
	}

	return m, nil
}

func (m *Mcp23017) ReadFlag(id valve.Flag) (bool, error) {
	p, ok := m.flags[id]
	if !ok {
		return false, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	level, err := m.device.DigitalRead(p.Pin)
	if err != nil {
		return false, errors.Wrapf(err, "%s: flag %s pin %d read", m.Name, id, p.Pin)
	}
	return p.value(level), nil
}

func (m *Mcp23017) WriteSignal(id valve.Command, value bool) error {
	p, ok := m.signals[id]
	if !ok {
		return errors.Errorf("%s: no pin wired for %s signal", m.Name, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.device.DigitalWrite(p.Pin, p.level(value)); err != nil {
		return errors.Wrapf(err, "%s: signal %s pin %d write", m.Name, id, p.Pin)
	}
	logrus.Debugf("%s: pin %d set for %s signal %t", m.Name, p.Pin, id, value)
	return nil
}

// Release drops every output signal.
func (m *Mcp23017) Release() error {
	for id := range m.signals {
		if err := m.WriteSignal(id, false); err != nil {
			return err
		}
	}
	return nil
}
