package signal

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/jkaflik/valve2mqtt/internal/valve"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const DefaultTopicPrefix = "valve2mqtt"

// DefaultPublishTimeout bounds how long a publish may hold the widget loop.
const DefaultPublishTimeout = time.Second

// Client is the part of the paho client the MQTT source and bridge use.
// IsConnected stays true while paho reconnects on its own, only
// IsConnectionOpen tells whether the broker is reachable right now.
type Client interface {
	IsConnected() bool
	IsConnectionOpen() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
	Unsubscribe(topics ...string) paho.Token
}

// MQTT reads valve flags from retained topics and writes command signals as
// plain messages:
//
//	<prefix>/<name>/flags/<flag>      1|0, true|false, on|off
//	<prefix>/<name>/signals/<command> 1|0
type MQTT struct {
	Name           string
	PublishTimeout time.Duration

	client Client
	prefix string

	mu    sync.Mutex
	flags map[valve.Flag]bool
}

func NewMQTT(client Client, prefix, name string) *MQTT {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}

	return &MQTT{
		Name:           name,
		PublishTimeout: DefaultPublishTimeout,
		client:         client,
		prefix:         prefix,
		flags:          map[valve.Flag]bool{},
	}
}

func (m *MQTT) FlagTopic(id valve.Flag) string {
	return fmt.Sprintf("%s/%s/flags/%s", m.prefix, m.Name, id)
}

func (m *MQTT) SignalTopic(id valve.Command) string {
	return fmt.Sprintf("%s/%s/signals/%s", m.prefix, m.Name, id)
}

func (m *MQTT) flagsFilter() string {
	return fmt.Sprintf("%s/%s/flags/+", m.prefix, m.Name)
}

// Subscribe starts following the flag topics. Call it again after a
// reconnect, the broker replays the retained values.
func (m *MQTT) Subscribe() error {
	if token := m.client.Subscribe(m.flagsFilter(), 1, m.onFlag); token.Wait() && token.Error() != nil {
		return errors.Wrapf(token.Error(), "%s: MQTT flag topics subscription failed", m.Name)
	}
	logrus.Infof("%s: MQTT flag topics subscribed", m.Name)
	return nil
}

// Unsubscribe stops following the flag topics, on shutdown.
func (m *MQTT) Unsubscribe() error {
	if err := Wait(m.client.Unsubscribe(m.flagsFilter()), m.PublishTimeout); err != nil {
		return errors.Wrapf(err, "%s: MQTT flag topics unsubscribe failed", m.Name)
	}
	return nil
}

// ReadFlag returns the last value seen on the flag topic. A missing broker
// connection is a read error, the widget shows it as a lost connection.
func (m *MQTT) ReadFlag(id valve.Flag) (bool, error) {
	if !m.client.IsConnectionOpen() {
		return false, errors.Errorf("%s: MQTT broker not connected", m.Name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flags[id], nil
}

// WriteSignal publishes the signal level. Without an open connection the
// signal is dropped instead of queued, a command must not reach the valve
// once the broker comes back.
func (m *MQTT) WriteSignal(id valve.Command, value bool) error {
	if !m.client.IsConnectionOpen() {
		return errors.Errorf("%s: MQTT broker not connected, %s signal dropped", m.Name, id)
	}

	payload := "0"
	if value {
		payload = "1"
	}

	if err := Wait(m.client.Publish(m.SignalTopic(id), 1, false, payload), m.PublishTimeout); err != nil {
		return errors.Wrapf(err, "%s: MQTT %s signal publish failed", m.Name, id)
	}
	return nil
}

// Wait waits for token at most timeout. A token still pending after that is
// an error.
func Wait(token paho.Token, timeout time.Duration) error {
	if !token.WaitTimeout(timeout) {
		return errors.Errorf("no broker acknowledgement within %s", timeout)
	}
	return token.Error()
}

func (m *MQTT) onFlag(_ paho.Client, msg paho.Message) {
	name := msg.Topic()[strings.LastIndex(msg.Topic(), "/")+1:]
	id, err := valve.ParseFlag(name)
	if err != nil {
		logrus.Warnf("%s: MQTT unknown flag topic %s", m.Name, msg.Topic())
		return
	}

	value, err := ParseBool(string(msg.Payload()))
	if err != nil {
		logrus.Errorf("%s: MQTT flag %s: %s", m.Name, id, err)
		return
	}

	m.mu.Lock()
	m.flags[id] = value
	m.mu.Unlock()

	logrus.Debugf("%s: MQTT flag %s set to %t", m.Name, id, value)
}

// ParseBool accepts the payloads devices and Home Assistant publish for
// binary values.
func ParseBool(payload string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(payload)) {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}

	v, err := strconv.ParseBool(strings.TrimSpace(payload))
	if err != nil {
		return false, errors.Errorf("%q is not a binary value", payload)
	}
	return v, nil
}
