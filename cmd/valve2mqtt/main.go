package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/jkaflik/valve2mqtt/internal/metrics"
	"github.com/jkaflik/valve2mqtt/internal/mqtt"
	"github.com/jkaflik/valve2mqtt/internal/widget"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableColors: false,
		FullTimestamp: true,
	})

	configPath := flag.String("config", "config.yaml", "config.yaml file path")
	flag.Parse()

	if err := configLoader.Load(); err != nil {
		logrus.Fatal(err)
	}
	loadConfigFromYamlFile(*configPath)

	level, err := logrus.ParseLevel(Cfg.LogLevel)
	if err != nil {
		logrus.Fatal(err)
	}
	logrus.SetLevel(level)

	ctx, cancel := context.WithCancel(context.Background())

	collector := metrics.NewCollector()
	registry := prometheus.NewRegistry()
	registry.MustRegister(collector, collectors.NewGoCollector())

	var (
		host        *widget.Host
		bridges     []*mqtt.Bridge
		subscribers []subscriber
	)
	cfg := pahoOptsFromConfig()
	cfg.OnConnect = func(m paho.Client) {
		logrus.Info("MQTT broker connected")
		subscribe(ctx, m, host, bridges, subscribers)
	}
	cfg.OnConnectionLost = func(_ paho.Client, err error) {
		logrus.Errorf("MQTT broker connection lost: %s", err.Error())
	}
	m := paho.NewClient(cfg)

	widgets, sources := widgetsFromConfig(m, collector)
	host = widget.NewHost(Cfg.PollInterval, widgets...)
	for _, w := range widgets {
		bridge := mqtt.NewBridge(m, host, w, Cfg.MQTT.TopicPrefix)
		if Cfg.HASS.Enabled {
			bridge.EnableDiscovery(Cfg.HASS.TopicPrefix)
		}
		bridges = append(bridges, bridge)
	}
	subscribers = subscribersOf(sources)

	if token := m.Connect(); token.Wait() && token.Error() != nil {
		logrus.Fatal(token.Error())
	}

	if Cfg.Metrics.Listen != "" {
		go serveMetrics(ctx, registry)
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	go func() {
		oscall := <-c
		logrus.Infof("system call: %+v", oscall)
		cancel()
	}()

	if err := host.Run(ctx); err != nil {
		logrus.Error(err)
	}

	release(sources)
	closeMcp23017Devices()

	if err := mqtt.PublishAvailability(m, Cfg.MQTT.TopicPrefix, false); err != nil {
		logrus.Error(err)
	}

	cleanupTime := time.Second
	logrus.Infof("cleanups for %s...", cleanupTime.String())
	m.Disconnect(uint(cleanupTime.Milliseconds()))
}

// subscribe runs on every broker connect. Discovery and the first publish go
// through the host loop, after the widgets read their flags.
func subscribe(ctx context.Context, m paho.Client, host *widget.Host, bridges []*mqtt.Bridge, subscribers []subscriber) {
	for _, s := range subscribers {
		if err := s.Subscribe(); err != nil {
			logrus.Error(err)
		}
	}

	for _, bridge := range bridges {
		if err := bridge.Subscribe(ctx); err != nil {
			logrus.Error(err)
		}
	}

	if err := mqtt.PublishAvailability(m, Cfg.MQTT.TopicPrefix, true); err != nil {
		logrus.Error(err)
	}

	host.Post(func(time.Time) {
		for _, bridge := range bridges {
			if err := bridge.Announce(true); err != nil {
				logrus.Error(err)
			}
			if err := bridge.Publish(); err != nil {
				logrus.Error(err)
			}
		}
	})
}

func serveMetrics(ctx context.Context, registry *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(registry))
	server := &http.Server{Addr: Cfg.Metrics.Listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		if err := server.Close(); err != nil {
			logrus.Errorf("metrics server close failed: %s", err)
		}
	}()

	logrus.Infof("metrics listening on %s", Cfg.Metrics.Listen)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logrus.Error(err)
	}
}
