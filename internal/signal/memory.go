// Package signal provides the sources valve flags are read from and command
// signals are written to.
package signal

import (
	"sync"

	"github.com/jkaflik/valve2mqtt/internal/valve"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type WriteHandler func(cmd valve.Command, value bool)

// Memory keeps flags and signals in memory. It backs the terminal preview
// and tests, and stands in for hardware that is not wired yet.
type Memory struct {
	Name string

	mu      sync.Mutex
	flags   map[valve.Flag]bool
	signals map[valve.Command]bool
	history []Write
	err     error
	onWrite WriteHandler
}

// Write is one recorded WriteSignal call.
type Write struct {
	Command valve.Command
	Value   bool
}

func NewMemory(name string) *Memory {
	return &Memory{
		Name:    name,
		flags:   map[valve.Flag]bool{},
		signals: map[valve.Command]bool{},
	}
}

func (m *Memory) ReadFlag(id valve.Flag) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return false, errors.Wrapf(m.err, "%s: read %s", m.Name, id)
	}
	return m.flags[id], nil
}

func (m *Memory) WriteSignal(id valve.Command, value bool) error {
	m.mu.Lock()
	if m.err != nil {
		m.mu.Unlock()
		return errors.Wrapf(m.err, "%s: write %s", m.Name, id)
	}
	m.signals[id] = value
	m.history = append(m.history, Write{id, value})
	h := m.onWrite
	m.mu.Unlock()

	logrus.Debugf("%s: memory signal %s set to %t", m.Name, id, value)
	if h != nil {
		h(id, value)
	}
	return nil
}

func (m *Memory) Set(id valve.Flag, value bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flags[id] = value
}

// SetAll replaces every flag at once.
func (m *Memory) SetAll(values map[valve.Flag]bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flags = map[valve.Flag]bool{}
	for k, v := range values {
		m.flags[k] = v
	}
}

func (m *Memory) Toggle(id valve.Flag) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flags[id] = !m.flags[id]
	return m.flags[id]
}

func (m *Memory) Flag(id valve.Flag) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flags[id]
}

func (m *Memory) Signal(id valve.Command) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.signals[id]
}

// Asserted returns the signals currently set.
func (m *Memory) Asserted() []valve.Command {
	m.mu.Lock()
	defer m.mu.Unlock()

	var on []valve.Command
	for _, c := range valve.Commands() {
		if m.signals[c] {
			on = append(on, c)
		}
	}
	return on
}

func (m *Memory) History() []Write {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Write(nil), m.history...)
}

// Fail makes every following call return err, nil restores the source.
func (m *Memory) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *Memory) OnWrite(h WriteHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onWrite = h
}
