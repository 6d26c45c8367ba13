package mqtt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/jkaflik/valve2mqtt/internal/render/raster"
	"github.com/jkaflik/valve2mqtt/internal/signal"
	"github.com/jkaflik/valve2mqtt/internal/valve"
	"github.com/jkaflik/valve2mqtt/internal/widget"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	PayloadOnline  = "online"
	PayloadOffline = "offline"
)

// Poster queues work on the event loop owning the widget.
type Poster interface {
	Post(e widget.Event)
}

// Bridge publishes the rendered widget and its state, and turns messages on
// the command topic into clicks.
type Bridge struct {
	mqtt   signal.Client
	widget *widget.Widget
	loop   Poster

	StateTopic        string
	AttributesTopic   string
	SnapshotTopic     string
	CommandTopic      string
	AvailabilityTopic string

	PublishTimeout time.Duration

	discoveryPrefix string
	announced       []valve.Command
}

func NewBridge(client signal.Client, loop Poster, w *widget.Widget, prefix string) *Bridge {
	if prefix == "" {
		prefix = signal.DefaultTopicPrefix
	}

	bridge := &Bridge{mqtt: client, widget: w, loop: loop, PublishTimeout: signal.DefaultPublishTimeout}
	bridge.StateTopic = fmt.Sprintf("%s/%s/state", prefix, w.Name())
	bridge.AttributesTopic = fmt.Sprintf("%s/%s/attributes", prefix, w.Name())
	bridge.SnapshotTopic = fmt.Sprintf("%s/%s/snapshot", prefix, w.Name())
	bridge.CommandTopic = fmt.Sprintf("%s/%s/set", prefix, w.Name())
	bridge.AvailabilityTopic = AvailabilityTopic(prefix)

	w.OnRedraw(func(*widget.Widget) {
		if err := bridge.Publish(); err != nil {
			logrus.Error(err)
		}
		if err := bridge.Announce(false); err != nil {
			logrus.Error(err)
		}
	})

	return bridge
}

// AvailabilityTopic is shared by every valve of the process and doubles as
// the last will topic.
func AvailabilityTopic(prefix string) string {
	if prefix == "" {
		prefix = signal.DefaultTopicPrefix
	}
	return prefix + "/availability"
}

func (b *Bridge) Name() string {
	return b.widget.Name()
}

type attributes struct {
	Kind           string   `json:"kind"`
	Blinking       bool     `json:"blinking"`
	Light          bool     `json:"light"`
	Buttons        []string `json:"buttons"`
	ConnectionOk   bool     `json:"connection_ok"`
	NotOpened      bool     `json:"not_opened"`
	NotClosed      bool     `json:"not_closed"`
	Collision      bool     `json:"collision"`
	UsedByAutoMode bool     `json:"used_by_auto_mode"`
	OpenedSmoothly bool     `json:"opened_smoothly"`
	ForceClose     bool     `json:"force_close"`
	BlockClosing   bool     `json:"block_closing"`
	BlockOpening   bool     `json:"block_opening"`
	AnyError       bool     `json:"any_error"`
}

func (b *Bridge) attributes() attributes {
	s := b.widget.Status()
	a := attributes{
		Kind:           b.widget.Kind().String(),
		Blinking:       b.widget.Machine().Blinking(),
		Light:          b.widget.Machine().Light(),
		ConnectionOk:   s.ConnectionOk,
		NotOpened:      s.NotOpened,
		NotClosed:      s.NotClosed,
		Collision:      s.Collision,
		UsedByAutoMode: s.UsedByAutoMode,
		OpenedSmoothly: s.OpenedSmoothly,
		ForceClose:     s.ForceClose,
		BlockClosing:   s.BlockClosing,
		BlockOpening:   s.BlockOpening,
		AnyError:       s.AnyError(),
	}
	for _, cmd := range b.widget.Buttons() {
		a.Buttons = append(a.Buttons, cmd.String())
	}
	return a
}

// Snapshot renders the widget into a PNG image.
func (b *Bridge) Snapshot() ([]byte, error) {
	canvas := raster.NewCanvas(b.widget.SurfaceSize())
	b.widget.Draw(canvas)

	var buf bytes.Buffer
	if err := canvas.EncodePNG(&buf); err != nil {
		return nil, errors.Wrapf(err, "%s: snapshot", b.Name())
	}
	return buf.Bytes(), nil
}

// Publish sends the state, the attributes and a fresh snapshot. It must run
// on the widget event loop. Nothing is sent while the broker connection is
// down, the next connect publishes everything again.
func (b *Bridge) Publish() error {
	if !b.mqtt.IsConnectionOpen() {
		logrus.Debugf("%s: MQTT broker not connected, publish skipped", b.Name())
		return nil
	}

	if err := signal.Wait(b.mqtt.Publish(b.StateTopic, 0, true, b.widget.Status().State().String()), b.PublishTimeout); err != nil {
		return errors.Wrapf(err, "%s: MQTT state publish failed", b.Name())
	}

	payload, err := json.Marshal(b.attributes())
	if err != nil {
		return err
	}
	if err := signal.Wait(b.mqtt.Publish(b.AttributesTopic, 0, true, payload), b.PublishTimeout); err != nil {
		return errors.Wrapf(err, "%s: MQTT attributes publish failed", b.Name())
	}

	snapshot, err := b.Snapshot()
	if err != nil {
		return err
	}
	if err := signal.Wait(b.mqtt.Publish(b.SnapshotTopic, 0, true, snapshot), b.PublishTimeout); err != nil {
		return errors.Wrapf(err, "%s: MQTT snapshot publish failed", b.Name())
	}

	return nil
}

// EnableDiscovery makes the bridge announce its Home Assistant entities under
// prefix.
func (b *Bridge) EnableDiscovery(prefix string) {
	b.discoveryPrefix = prefix
}

// Announce publishes the discovery documents when the buttons changed since
// the last announcement, or always when forced. Buttons gone since then lose
// their entity. It must run on the widget event loop.
func (b *Bridge) Announce(force bool) error {
	if b.discoveryPrefix == "" || !b.mqtt.IsConnectionOpen() {
		return nil
	}

	buttons := b.widget.Buttons()
	if !force && b.announced != nil && slices.Equal(buttons, b.announced) {
		return nil
	}

	for _, entity := range NewHAEntitiesFromMQTTBridge(b) {
		if err := PublishHAAutoDiscovery(b.mqtt, b.discoveryPrefix, entity); err != nil {
			return err
		}
	}
	for _, cmd := range b.announced {
		if slices.Contains(buttons, cmd) {
			continue
		}
		if err := RemoveHAAutoDiscovery(b.mqtt, b.discoveryPrefix, newHAButton(b, cmd)); err != nil {
			return err
		}
	}

	logrus.Infof("%s: Home Assistant entities announced for %v", b.Name(), buttons)
	b.announced = buttons
	return nil
}

// Subscribe follows the command topic until ctx is done.
func (b *Bridge) Subscribe(ctx context.Context) error {
	if token := b.mqtt.Subscribe(b.CommandTopic, 0, b.onCommandHandler()); token.Wait() && token.Error() != nil {
		return errors.Wrapf(token.Error(), "%s: MQTT command topic subscription failed", b.Name())
	}
	logrus.Infof("%s: MQTT command topic subscribed", b.Name())

	go func() {
		<-ctx.Done()
		if token := b.mqtt.Unsubscribe(b.CommandTopic); token.Wait() && token.Error() != nil {
			logrus.Errorf("%s: MQTT command topic unsubscribe failed: %s", b.Name(), token.Error())
		}
	}()

	return nil
}

func (b *Bridge) onCommandHandler() paho.MessageHandler {
	return func(_ paho.Client, msg paho.Message) {
		cmd, err := valve.ParseCommand(strings.TrimSpace(string(msg.Payload())))
		if err != nil {
			logrus.Errorf("%s: MQTT unsupported command received: %s", b.Name(), err)
			return
		}

		b.loop.Post(func(now time.Time) {
			b.widget.Click(now, cmd)
		})
	}
}

// PublishAvailability marks every valve of the process online or offline.
func PublishAvailability(client signal.Client, prefix string, online bool) error {
	payload := PayloadOffline
	if online {
		payload = PayloadOnline
	}

	if err := signal.Wait(client.Publish(AvailabilityTopic(prefix), 1, true, payload), signal.DefaultPublishTimeout); err != nil {
		return errors.Wrap(err, "MQTT availability publish failed")
	}
	return nil
}
