package signal

import (
	"errors"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Published is one message seen by FakeClient.
type Published struct {
	Topic    string
	QoS      byte
	Retained bool
	Payload  []byte
}

// FakeClient is an in-process stand-in for a paho client. Deliver routes a
// message to the matching subscriptions, wildcards included.
type FakeClient struct {
	mu            sync.Mutex
	connected     bool
	open          bool
	stalled       chan struct{}
	published     []Published
	subscriptions map[string]paho.MessageHandler

	// PublishError, if set, is returned by every Publish token.
	PublishError error
	// SubscribeError, if set, is returned by every Subscribe token.
	SubscribeError error
}

var errNotConnected = errors.New("not Connected")

func NewFakeClient() *FakeClient {
	return &FakeClient{connected: true, open: true, subscriptions: map[string]paho.MessageHandler{}}
}

// SetConnected opens or drops the connection. Opening it completes every
// stalled publish.
func (f *FakeClient) SetConnected(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = on
	f.open = on
	if on && f.stalled != nil {
		close(f.stalled)
		f.stalled = nil
	}
}

// SetReconnecting behaves like paho with auto reconnect after the broker went
// away: IsConnected stays true, the connection is not open and publishes stay
// pending until SetConnected(true).
func (f *FakeClient) SetReconnecting() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = true
	f.open = false
	f.stallLocked()
}

// Stall keeps the following publishes pending until SetConnected(true).
func (f *FakeClient) Stall() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stallLocked()
}

func (f *FakeClient) stallLocked() {
	if f.stalled == nil {
		f.stalled = make(chan struct{})
	}
}

func (f *FakeClient) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *FakeClient) IsConnectionOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *FakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.PublishError != nil {
		return fakeToken{f.PublishError}
	}
	if !f.connected {
		return fakeToken{errNotConnected}
	}
	if f.stalled != nil {
		return pendingToken{f.stalled}
	}

	var data []byte
	switch p := payload.(type) {
	case string:
		data = []byte(p)
	case []byte:
		data = append([]byte(nil), p...)
	}
	f.published = append(f.published, Published{topic, qos, retained, data})
	return fakeToken{}
}

func (f *FakeClient) Subscribe(topic string, _ byte, callback paho.MessageHandler) paho.Token {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.SubscribeError != nil {
		return fakeToken{f.SubscribeError}
	}
	f.subscriptions[topic] = callback
	return fakeToken{}
}

func (f *FakeClient) Unsubscribe(topics ...string) paho.Token {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, t := range topics {
		delete(f.subscriptions, t)
	}
	return fakeToken{}
}

// Subscribed reports whether a subscription exists for the exact filter.
func (f *FakeClient) Subscribed(filter string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.subscriptions[filter]
	return ok
}

// Deliver hands a message to every matching subscription and returns how
// many handlers ran.
func (f *FakeClient) Deliver(topic string, payload string) int {
	f.mu.Lock()
	var handlers []paho.MessageHandler
	for filter, h := range f.subscriptions {
		if TopicMatches(filter, topic) {
			handlers = append(handlers, h)
		}
	}
	f.mu.Unlock()

	msg := fakeMessage{topic: topic, payload: []byte(payload)}
	for _, h := range handlers {
		h(nil, msg)
	}
	return len(handlers)
}

// Published returns the messages published so far.
func (f *FakeClient) Published() []Published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Published(nil), f.published...)
}

// Last returns the last message published on topic.
func (f *FakeClient) Last(topic string) (Published, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.published) - 1; i >= 0; i-- {
		if f.published[i].Topic == topic {
			return f.published[i], true
		}
	}
	return Published{}, false
}

// TopicMatches applies the MQTT filter rules for + and #.
func TopicMatches(filter, topic string) bool {
	fp := strings.Split(filter, "/")
	tp := strings.Split(topic, "/")

	for i, f := range fp {
		if f == "#" {
			return true
		}
		if i >= len(tp) {
			return false
		}
		if f != "+" && f != tp[i] {
			return false
		}
	}
	return len(fp) == len(tp)
}

type fakeToken struct {
	err error
}

func (t fakeToken) Wait() bool                     { return true }
func (t fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t fakeToken) Done() <-chan struct{}          { return closedDone }
func (t fakeToken) Error() error                   { return t.err }

var closedDone = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

// pendingToken completes when done is closed.
type pendingToken struct {
	done chan struct{}
}

func (t pendingToken) Wait() bool {
	<-t.done
	return true
}

func (t pendingToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (t pendingToken) Done() <-chan struct{} { return t.done }
func (t pendingToken) Error() error          { return nil }

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}
