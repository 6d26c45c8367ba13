package signal

import (
	"errors"
	"testing"
	"time"

	"github.com/jkaflik/valve2mqtt/internal/valve"
	"github.com/racerxdl/go-mcp23017"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	m := NewMemory("v1")

	var hooked []Write
	m.OnWrite(func(cmd valve.Command, value bool) { hooked = append(hooked, Write{cmd, value}) })

	m.Set(valve.FlagOpened, true)
	assert.True(t, m.Toggle(valve.FlagClosed))
	assert.False(t, m.Toggle(valve.FlagClosed))

	v, err := m.ReadFlag(valve.FlagOpened)
	require.NoError(t, err)
	assert.True(t, v)

	require.NoError(t, m.WriteSignal(valve.Close, true))
	assert.Equal(t, []valve.Command{valve.Close}, m.Asserted())
	assert.Equal(t, []Write{{valve.Close, true}}, hooked)

	m.Fail(errors.New("bus error"))
	_, err = m.ReadFlag(valve.FlagOpened)
	assert.EqualError(t, err, "v1: read opened: bus error")
	assert.Error(t, m.WriteSignal(valve.Close, false))
	assert.Len(t, m.History(), 1)

	m.Fail(nil)
	m.SetAll(map[valve.Flag]bool{valve.FlagClosed: true})
	assert.False(t, m.Flag(valve.FlagOpened))
	assert.True(t, m.Flag(valve.FlagClosed))
}

func TestMQTTSource(t *testing.T) {
	client := NewFakeClient()
	src := NewMQTT(client, "", "boiler_inlet")
	require.NoError(t, src.Subscribe())

	assert.Equal(t, "valve2mqtt/boiler_inlet/flags/connection_ok", src.FlagTopic(valve.FlagConnectionOk))
	assert.Equal(t, "valve2mqtt/boiler_inlet/signals/open_smoothly", src.SignalTopic(valve.OpenSmoothly))

	assert.Equal(t, 1, client.Deliver(src.FlagTopic(valve.FlagConnectionOk), "1"))
	client.Deliver(src.FlagTopic(valve.FlagOpened), "ON")
	client.Deliver(src.FlagTopic(valve.FlagClosed), "garbage")
	client.Deliver("valve2mqtt/boiler_inlet/flags/unknown", "1")
	assert.Equal(t, 0, client.Deliver("valve2mqtt/other/flags/opened", "1"))

	s, smooth, err := valve.Poll(src)
	require.NoError(t, err)
	assert.False(t, smooth)
	assert.Equal(t, valve.Status{ConnectionOk: true, Opened: true}, s)

	t.Run("signals are published as plain messages", func(t *testing.T) {
		require.NoError(t, src.WriteSignal(valve.Open, true))
		require.NoError(t, src.WriteSignal(valve.Open, false))

		msgs := client.Published()
		require.Len(t, msgs, 2)
		assert.Equal(t, Published{"valve2mqtt/boiler_inlet/signals/open", 1, false, []byte("1")}, msgs[0])
		assert.Equal(t, []byte("0"), msgs[1].Payload)
	})

	t.Run("publish failure", func(t *testing.T) {
		client.PublishError = errors.New("timeout")
		defer func() { client.PublishError = nil }()
		assert.EqualError(t, src.WriteSignal(valve.Close, true), "boiler_inlet: MQTT close signal publish failed: timeout")
	})

	t.Run("disconnected broker is a read error", func(t *testing.T) {
		client.SetConnected(false)
		defer client.SetConnected(true)
		_, _, err := valve.Poll(src)
		assert.Error(t, err)
	})

	require.NoError(t, src.Unsubscribe())
	assert.False(t, client.Subscribed("valve2mqtt/boiler_inlet/flags/+"))
}

func TestMQTTSourceWhileReconnecting(t *testing.T) {
	client := NewFakeClient()
	src := NewMQTT(client, "", "boiler_inlet")
	src.PublishTimeout = 20 * time.Millisecond
	require.NoError(t, src.Subscribe())
	client.Deliver(src.FlagTopic(valve.FlagConnectionOk), "1")

	client.SetReconnecting()
	require.True(t, client.IsConnected())

	_, _, err := valve.Poll(src)
	assert.EqualError(t, err, "boiler_inlet: MQTT broker not connected")

	written := make(chan error, 1)
	go func() { written <- src.WriteSignal(valve.Open, true) }()
	select {
	case err := <-written:
		assert.EqualError(t, err, "boiler_inlet: MQTT broker not connected, open signal dropped")
	case <-time.After(time.Second):
		t.Fatal("signal write blocked while the client reconnects")
	}

	t.Run("unacknowledged publish times out", func(t *testing.T) {
		client.SetConnected(true)
		client.Stall()
		defer client.SetConnected(true)

		started := time.Now()
		err := src.WriteSignal(valve.Close, true)
		assert.EqualError(t, err, "boiler_inlet: MQTT close signal publish failed: no broker acknowledgement within 20ms")
		assert.Less(t, time.Since(started), time.Second)
	})

	client.SetConnected(true)
	s, _, err := valve.Poll(src)
	require.NoError(t, err)
	assert.True(t, s.ConnectionOk)
	require.NoError(t, src.WriteSignal(valve.Open, false))
	assert.Len(t, client.Published(), 1, "dropped and stalled signals are not sent")
}

func TestParseBool(t *testing.T) {
	for in, want := range map[string]bool{"1": true, "0": false, "true": true, "FALSE": false, "on": true, " OFF ": false} {
		got, err := ParseBool(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseBool("open")
	assert.Error(t, err)
}

func TestTopicMatches(t *testing.T) {
	assert.True(t, TopicMatches("a/+/c", "a/b/c"))
	assert.True(t, TopicMatches("a/#", "a/b/c"))
	assert.False(t, TopicMatches("a/+", "a/b/c"))
	assert.False(t, TopicMatches("a/b/c", "a/b"))
}

type fakePins struct {
	modes  map[uint8]mcp23017.PinMode
	levels map[uint8]mcp23017.PinLevel
	err    error
}

func newFakePins() *fakePins {
	return &fakePins{modes: map[uint8]mcp23017.PinMode{}, levels: map[uint8]mcp23017.PinLevel{}}
}

func (f *fakePins) PinMode(pin uint8, mode mcp23017.PinMode) error {
	f.modes[pin] = mode
	return nil
}

func (f *fakePins) DigitalWrite(pin uint8, level mcp23017.PinLevel) error {
	if f.err != nil {
		return f.err
	}
	f.levels[pin] = level
	return nil
}

func (f *fakePins) DigitalRead(pin uint8) (mcp23017.PinLevel, error) {
	if f.err != nil {
		return mcp23017.LOW, f.err
	}
	if l, ok := f.levels[pin]; ok {
		return l, nil
	}
	return mcp23017.LOW, nil
}

func TestMcp23017Source(t *testing.T) {
	pins := newFakePins()
	src, err := NewMcp23017("v1", pins,
		map[valve.Flag]Pin{
			valve.FlagConnectionOk: {Pin: 0},
			valve.FlagOpened:       {Pin: 1, ActiveLow: true},
		},
		map[valve.Command]Pin{
			valve.Open:  {Pin: 8},
			valve.Close: {Pin: 9, ActiveLow: true},
		},
	)
	require.NoError(t, err)

	assert.Equal(t, mcp23017.INPUT, pins.modes[0])
	assert.Equal(t, mcp23017.PinMode(mcp23017.OUTPUT), pins.modes[8])
	assert.Equal(t, mcp23017.LOW, pins.levels[8], "outputs start released")
	assert.Equal(t, mcp23017.PinLevel(mcp23017.HIGH), pins.levels[9], "active low outputs start high")

	pins.levels[0] = mcp23017.HIGH
	pins.levels[1] = mcp23017.LOW

	s, _, err := valve.Poll(src)
	require.NoError(t, err)
	assert.Equal(t, valve.Status{ConnectionOk: true, Opened: true}, s)

	require.NoError(t, src.WriteSignal(valve.Close, true))
	assert.Equal(t, mcp23017.LOW, pins.levels[9])
	require.NoError(t, src.Release())
	assert.Equal(t, mcp23017.PinLevel(mcp23017.HIGH), pins.levels[9])

	assert.Error(t, src.WriteSignal(valve.OpenSmoothly, true), "no pin wired")

	pins.err = errors.New("i2c nack")
	_, err = src.ReadFlag(valve.FlagOpened)
	assert.EqualError(t, err, "v1: flag opened pin 1 read: i2c nack")
}
