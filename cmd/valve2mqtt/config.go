package main

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/jkaflik/valve2mqtt/internal/geometry"
	"github.com/jkaflik/valve2mqtt/internal/mqtt"
	"github.com/jkaflik/valve2mqtt/internal/signal"
	"github.com/jkaflik/valve2mqtt/internal/valve"
	"github.com/jkaflik/valve2mqtt/internal/widget"
	"github.com/pkg/errors"
	"github.com/racerxdl/go-mcp23017"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

type cfgPin struct {
	Pin       uint8 `yaml:"pin"`
	ActiveLow bool  `yaml:"active_low"`
}

type cfgMcp23017Source struct {
	Device  int               `yaml:"device"`
	Flags   map[string]cfgPin `yaml:"flags"`
	Signals map[string]cfgPin `yaml:"signals"`
}

type cfgSource struct {
	Kind string `yaml:"kind" default:"mqtt"`

	Mcp23017 cfgMcp23017Source `yaml:"mcp23017"`

	// Flags seeds a memory source.
	Flags map[string]bool `yaml:"flags"`
}

type cfgValve struct {
	Name              string                     `yaml:"name"`
	Orientation       geometry.Orientation       `yaml:"orientation"`
	ButtonOrientation geometry.ButtonOrientation `yaml:"button_orientation"`
	SlideGate         bool                       `yaml:"slide_gate"`
	Width             float64                    `yaml:"width"`
	Height            float64                    `yaml:"height"`

	Source cfgSource `yaml:"source"`
}

type cfgDrivers struct {
	Mcp23017 map[int]struct {
		Bus          uint8 `yaml:"bus" default:"1"`
		DeviceNumber uint8 `yaml:"device_number" default:"0"`
	} `yaml:"mcp23017"`
}

type cfgMQTT struct {
	ClientID    string `yaml:"client_id" default:"valve2mqtt" env:"CLIENT_ID"`
	Broker      string `yaml:"broker" default:"127.0.0.1:1883" env:"BROKER"`
	Username    string `yaml:"username" env:"USERNAME"`
	Password    string `yaml:"password" env:"PASSWORD"`
	TopicPrefix string `yaml:"topic_prefix" default:"valve2mqtt" env:"TOPIC_PREFIX"`
}

type cfgHASS struct {
	Enabled     bool   `yaml:"enabled" default:"true" env:"ENABLED"`
	TopicPrefix string `yaml:"topic_prefix" default:"homeassistant" env:"TOPIC_PREFIX"`
}

type cfgMetrics struct {
	Listen string `yaml:"listen" default:":9177" env:"LISTEN"`
}

var Cfg struct {
	LogLevel     string        `yaml:"log_level" default:"info" env:"LOG_LEVEL"`
	PollInterval time.Duration `yaml:"poll_interval" default:"100ms" env:"POLL_INTERVAL"`

	MQTT    cfgMQTT    `yaml:"mqtt" env:"MQTT"`
	HASS    cfgHASS    `yaml:"hass" env:"HASS"`
	Metrics cfgMetrics `yaml:"metrics" env:"METRICS"`

	Timing widget.Timing `yaml:"timing"`

	Valves []cfgValve `yaml:"valves"`

	Drivers cfgDrivers `yaml:"drivers"`
}

var configLoader = aconfig.LoaderFor(&Cfg, aconfig.Config{
	EnvPrefix: "V2M",
	SkipFlags: true,
})

func loadConfigFromYamlFile(filename string) {
	f, err := os.Open(filename)
	if err != nil {
		logrus.Error(err)
		return
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(&Cfg); err != nil {
		logrus.Fatal(err)
		return
	}
}

func pahoOptsFromConfig() *paho.ClientOptions {
	return paho.NewClientOptions().
		SetClientID(Cfg.MQTT.ClientID).
		AddBroker(Cfg.MQTT.Broker).
		SetUsername(Cfg.MQTT.Username).
		SetPassword(Cfg.MQTT.Password).
		SetConnectTimeout(time.Second).
		SetPingTimeout(time.Second).
		SetWriteTimeout(time.Second).
		SetAutoReconnect(true).
		SetWill(mqtt.AvailabilityTopic(Cfg.MQTT.TopicPrefix), mqtt.PayloadOffline, 1, true)
}

// subscriber is a source following broker topics, resubscribed on every
// connect.
type subscriber interface {
	Subscribe() error
	Unsubscribe() error
}

// releaser is a source driving outputs that must be dropped on exit.
type releaser interface {
	Release() error
}

func widgetsFromConfig(client paho.Client, observer widget.Observer) (widgets []*widget.Widget, sources []valve.Source) {
	for _, cfg := range Cfg.Valves {
		src, err := sourceFromConfig(client, cfg)
		if err != nil {
			logrus.Fatal(err)
		}
		sources = append(sources, src)

		w := widget.New(cfg.Name, widget.Config{
			Width:             cfg.Width,
			Height:            cfg.Height,
			Orientation:       cfg.Orientation,
			ButtonOrientation: cfg.ButtonOrientation,
			SlideGate:         cfg.SlideGate,
			Timing:            Cfg.Timing,
		}, src, widget.WithObserver(observer))
		widgets = append(widgets, w)
	}

	return widgets, sources
}

func subscribersOf(sources []valve.Source) (subscribers []subscriber) {
	for _, src := range sources {
		if s, ok := src.(subscriber); ok {
			subscribers = append(subscribers, s)
		}
	}
	return subscribers
}

// release unsubscribes every source and drops its outputs. The widgets must
// be closed already.
func release(sources []valve.Source) {
	for _, src := range sources {
		if s, ok := src.(subscriber); ok {
			if err := s.Unsubscribe(); err != nil {
				logrus.Error(err)
			}
		}
		if r, ok := src.(releaser); ok {
			if err := r.Release(); err != nil {
				logrus.Error(err)
			}
		}
	}
}

func sourceFromConfig(client paho.Client, cfg cfgValve) (valve.Source, error) {
	switch cfg.Source.Kind {
	case "mqtt":
		return signal.NewMQTT(client, Cfg.MQTT.TopicPrefix, cfg.Name), nil
	case "mcp23017":
		return mcp23017SourceFromConfig(cfg)
	case "memory":
		src := signal.NewMemory(cfg.Name)
		for name, v := range cfg.Source.Flags {
			id, err := valve.ParseFlag(name)
			if err != nil {
				return nil, errors.Wrapf(err, "%s: memory source", cfg.Name)
			}
			src.Set(id, v)
		}
		return src, nil
	}

	return nil, errors.Errorf("%s: %s is not supported source kind", cfg.Name, cfg.Source.Kind)
}

func mcp23017SourceFromConfig(cfg cfgValve) (valve.Source, error) {
	flags := map[valve.Flag]signal.Pin{}
	for name, p := range cfg.Source.Mcp23017.Flags {
		id, err := valve.ParseFlag(name)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: mcp23017 source", cfg.Name)
		}
		flags[id] = signal.Pin{Pin: p.Pin, ActiveLow: p.ActiveLow}
	}

	signals := map[valve.Command]signal.Pin{}
	for name, p := range cfg.Source.Mcp23017.Signals {
		id, err := valve.ParseCommand(name)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: mcp23017 source", cfg.Name)
		}
		signals[id] = signal.Pin{Pin: p.Pin, ActiveLow: p.ActiveLow}
	}

	device := mcp23017DeviceFromConfigByID(cfg.Source.Mcp23017.Device)
	return signal.NewMcp23017(cfg.Name, device, flags, signals)
}

var mcpDevices = map[int]*mcp23017.Device{}

func mcp23017DeviceFromConfigByID(id int) *mcp23017.Device {
	if Cfg.Drivers.Mcp23017 == nil {
		logrus.Fatal("drivers.mcp23017 not defined")
	}

	cfg, found := Cfg.Drivers.Mcp23017[id]
	if !found {
		logrus.Fatalf("%d is not valid defined drivers.mcp23017", id)
		return nil
	}

	dev := mcpDevices[id]
	if dev == nil {
		var err error
		dev, err = mcp23017.Open(cfg.Bus, cfg.DeviceNumber)
		if err != nil {
			logrus.Fatal(err)
		}
		if err := dev.Reset(); err != nil {
			logrus.Fatal(err)
		}

		mcpDevices[id] = dev
	}

	return dev
}

func closeMcp23017Devices() {
	for id, dev := range mcpDevices {
		if err := dev.Close(); err != nil {
			logrus.Errorf("mcp23017: %d close failed %s", id, err)
			continue
		}

		logrus.Infof("mcp23017: %d close", id)
	}
}
