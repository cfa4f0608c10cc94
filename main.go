package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"reflect"
	"syscall"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/sync/errgroup"

	"github.com/elijahnyp/meetdeck/bridge"
	"github.com/elijahnyp/meetdeck/deck"
	"github.com/elijahnyp/meetdeck/icons"
	"github.com/elijahnyp/meetdeck/light"
	"github.com/elijahnyp/meetdeck/state"
	"github.com/elijahnyp/meetdeck/tracker"
	. "github.com/elijahnyp/meetdeck/util"
)

var model Model

// daemon holds every long-lived component.
type daemon struct {
	loop      *tracker.Loop
	deck      *deck.Deck
	hid       *deck.HIDPanel
	icons     *icons.Store
	tracker   *tracker.Tracker
	bridge    *bridge.Bridge
	hub       *WSHub
	events    *EventStream
	publisher *statePublisher
	monitor   *MonitorServer

	// owned by the config reload goroutine after startup
	model Model
	light state.Light
}

func buildPanel(m Model, loop *tracker.Loop, redraw func()) (deck.Panel, *deck.HIDPanel, error) {
	switch m.Panel.Backend {
	case "hid", "":
		return nil, deck.NewHIDPanel(m.Panel.Serial, m.Panel.Brightness), nil
	case "mqtt":
		if !MQTTEnabled() {
			return nil, nil, errors.New("panel backend mqtt needs broker_uri")
		}
		p := deck.NewMQTTPanel(CurrentClient, m.Panel.MQTTPrefix, m.Panel.KeySize)
		p.OnOnline(func() { loop.Post(redraw) })
		p.Subscribe()
		return p, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown panel backend %q", m.Panel.Backend)
	}
}

func buildLight(m Model) state.Light {
	l, err := light.New(m.Light, CurrentClient)
	if err != nil {
		Logger.Warn().Msgf("lighting disabled: %v", err)
		return nil
	}
	if l != nil {
		Logger.Info().Msgf("lighting backend %s (auto %v, buttons %v)", m.Light.Backend, l.Auto(), l.Controllable())
	}
	return l
}

func newDaemon(m Model) (*daemon, error) {
	d := &daemon{loop: tracker.NewLoop(64), model: m, light: buildLight(m)}

	store, err := icons.NewStore(m.Icons.Dir, m.Panel.KeySize, m.Icons.Cache)
	if err != nil {
		return nil, fmt.Errorf("icon store: %w", err)
	}
	d.icons = store

	panel, hid, err := buildPanel(m, d.loop, d.redraw)
	if err != nil {
		return nil, err
	}
	d.hid = hid
	if hid != nil {
		panel = hid
	}
	d.deck = deck.New(panel, m.Layouts)

	d.tracker = tracker.New(d.loop, d.deck, d.light, d.icons, m.Selectors)
	d.bridge = bridge.New(d.loop, d.tracker, m.Selectors)
	d.hub = NewHub(d.tracker.Snapshot)
	d.events = NewEventStream(d.tracker.Snapshot)
	d.publisher = newStatePublisher(CurrentClient, func() string { return Config.GetString("state_prefix") })
	d.tracker.OnChange(func(s state.Snapshot) {
		d.hub.BroadcastUpdate("snapshot", s)
		d.events.Publish(s)
		d.publisher.Publish(s)
	})

	d.monitor = NewMonitorServer()
	d.monitor.AddRawHandler("/agent", d.bridge)
	d.monitor.AddHandler("/ws", d.hub.ServeWebSocket)
	d.monitor.AddHandler("/status", APIStatus(d.tracker.Snapshot, d.bridge.Agents))
	d.monitor.AddRawHandler("/events", d.events)
	d.monitor.OnShutdown(d.events.Disconnect)
	return d, nil
}

// redraw runs on the loop after the panel (re)connects.
func (d *daemon) redraw() {
	if size := d.deck.KeySize(); size > 0 {
		d.icons.Resize(size)
	}
	d.tracker.Redraw()
}

// reload applies a changed model to the running components. The session is
// restarted only when the selectors or the light settings changed, and only
// once; a layout change just repaints.
func (d *daemon) reload(m Model) {
	selectorsChanged := !reflect.DeepEqual(m.Selectors, d.model.Selectors)
	lightChanged := m.Light != d.model.Light
	layoutsChanged := !reflect.DeepEqual(m.Layouts, d.model.Layouts)
	d.model = m

	if layoutsChanged {
		d.deck.SetLayouts(m.Layouts)
	}
	if selectorsChanged {
		d.bridge.SetSelectors(m.Selectors)
	}
	if lightChanged {
		d.light = buildLight(m)
	}
	switch {
	case selectorsChanged || lightChanged:
		l := d.light
		d.loop.Post(func() { d.tracker.Reconfigure(m.Selectors, l) })
	case layoutsChanged:
		d.loop.Post(d.tracker.Redraw)
	}
}

func (d *daemon) run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return d.loop.Run(ctx) })
	g.Go(func() error { return d.tracker.Run(ctx, d.deck.Presses()) })
	g.Go(func() error { return d.hub.Run(ctx) })
	if d.hid != nil {
		g.Go(func() error {
			return d.hid.Run(ctx, func() { d.loop.Post(d.redraw) })
		})
	}
	if MQTTEnabled() {
		g.Go(func() error { return d.publisher.Run(ctx) })
	}
	g.Go(func() error {
		if err := d.monitor.Start(); err != nil {
			return fmt.Errorf("monitor server: %w", err)
		}
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return d.monitor.Shutdown(shutdown)
	})

	Logger.Info().Msg("ready")
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func main() {
	if err := ParseFlags(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	LogInit(Config.GetString("log_level"))
	SetupConfig()
	LogInit(Config.GetString("log_level"))

	if err := model.BuildModel(); err != nil {
		Logger.Fatal().Msgf("Error building model: %v", err)
	}
	d, err := newDaemon(model)
	if err != nil {
		Logger.Fatal().Msgf("Error starting: %v", err)
	}

	RegisterNewConfigListener(func() { LogInit(Config.GetString("log_level")) })
	RegisterNewConfigListener(func() {
		if err := model.BuildModel(); err != nil {
			Logger.Error().Msgf("Error building model: %v", err)
			return
		}
		d.reload(model)
	})
	RegisterNewConfigListener(func() { d.monitor.Restart() })

	if MQTTEnabled() {
		RegisterMQTTConnectHook("haadvertise", d.publisher.advertise)
		RegisterMQTTConnectHook("state", func(MQTT.Client) { d.publisher.Republish() })
		if err := MqttInit(); err != nil {
			Logger.Error().Msgf("MQTT unavailable: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := d.run(ctx); err != nil {
		Logger.Error().Msgf("stopped: %v", err)
		os.Exit(1)
	}
}
