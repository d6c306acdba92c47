// Command panel-power runs the control panel inactivity power controller.
// It scans the panel inputs, drives the illumination and display enables,
// and publishes power state changes to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/panel-power/internal/clock"
	"github.com/sweeney/panel-power/internal/config"
	"github.com/sweeney/panel-power/internal/display"
	"github.com/sweeney/panel-power/internal/gpio"
	"github.com/sweeney/panel-power/internal/led"
	"github.com/sweeney/panel-power/internal/logic"
	"github.com/sweeney/panel-power/internal/mqtt"
	"github.com/sweeney/panel-power/internal/status"
	"github.com/sweeney/panel-power/internal/web"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (empty uses built-in defaults)")
	poll := flag.Duration("poll", 0, "Input polling interval (overrides config)")
	broker := flag.String("broker", "", "MQTT broker address (overrides config)")
	httpAddr := flag.String("http", "", `HTTP status address (overrides config, "off" disables)`)
	heartbeat := flag.Duration("heartbeat", -1, "Heartbeat interval, 0 to disable (overrides config)")
	printState := flag.Bool("print-state", false, "Print current input state and exit")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	applyFlags(&cfg, *poll, *broker, *httpAddr, *heartbeat)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("fatal: %v", err)
	}

	if err := run(cfg, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// applyFlags overlays command line overrides onto the loaded config.
// Zero values leave the config untouched.
func applyFlags(cfg *config.Config, poll time.Duration, broker, httpAddr string, heartbeat time.Duration) {
	if poll > 0 {
		cfg.PollMs = poll.Milliseconds()
	}
	if broker != "" {
		cfg.MQTT.Broker = broker
	}
	switch httpAddr {
	case "":
	case "off":
		cfg.HTTP.Addr = ""
	default:
		cfg.HTTP.Addr = httpAddr
	}
	if heartbeat >= 0 {
		cfg.HeartbeatMs = heartbeat.Milliseconds()
	}
}

func encoderPins(cfg config.Config) []gpio.EncoderPins {
	pins := make([]gpio.EncoderPins, len(cfg.Inputs.Encoders))
	for i, e := range cfg.Inputs.Encoders {
		pins[i] = gpio.EncoderPins{A: e.A, B: e.B}
	}
	return pins
}

func openSwitch(chip string, offset int) (gpio.Switch, error) {
	if offset < 0 {
		return gpio.NopSwitch{}, nil
	}
	sw, err := gpio.NewRealSwitch(chip, offset)
	if err != nil {
		return nil, err
	}
	return sw, nil
}

func run(cfg config.Config, printState bool) error {
	// Initialize GPIO
	reader, err := gpio.NewRealReader(cfg.Inputs.Chip, cfg.Inputs.Buttons, encoderPins(cfg))
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer reader.Close()

	if printState {
		s, err := reader.Read()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		fmt.Print(formatSample(s))
		return nil
	}

	rotaryEnable, err := openSwitch(cfg.Inputs.Chip, cfg.Outputs.RotaryLEDs)
	if err != nil {
		return fmt.Errorf("init rotary leds: %w", err)
	}
	defer rotaryEnable.Close()

	backlight, err := openSwitch(cfg.Inputs.Chip, cfg.Outputs.Backlight)
	if err != nil {
		return fmt.Errorf("init backlight: %w", err)
	}
	defer backlight.Close()

	primary := cfg.Power.Primary.Logic()
	rotary := cfg.Power.Rotary.Logic()
	controller, err := logic.NewController(primary, rotary)
	if err != nil {
		return fmt.Errorf("init controller: %w", err)
	}

	clk := clock.NewSystemClock()

	// Initialize MQTT
	publisher, err := mqtt.NewRealPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID, cfg.MQTT.BufferSize, clk.Start())
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(clk.Start(), status.Config{
		PollMs:      cfg.PollMs,
		DebounceMs:  cfg.Inputs.DebounceMs,
		HeartbeatMs: cfg.HeartbeatMs,
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTP.Addr,
		Primary:     primary,
		Rotary:      rotary,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()
		log.Printf("http status server listening on %s", cfg.HTTP.Addr)
	}

	log.Printf("started: poll=%v debounce=%dms broker=%s heartbeat=%v buttons=%d encoders=%d",
		cfg.Poll(), cfg.Inputs.DebounceMs, cfg.MQTT.Broker, cfg.Heartbeat(),
		len(cfg.Inputs.Buttons), len(cfg.Inputs.Encoders))

	ticker := time.NewTicker(cfg.Poll())
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	d := &daemon{
		reader:      reader,
		detector:    logic.NewInputDetector(len(cfg.Inputs.Buttons), len(cfg.Inputs.Encoders), cfg.Inputs.DebounceMs),
		controller:  controller,
		clock:       clk,
		start:       clk.Start(),
		publisher:   publisher,
		mqttStatus:  publisher,
		tracker:     tracker,
		leds:        led.NewDriver(rotaryEnable),
		display:     display.NewGate(display.NewSwitchRenderer(backlight)),
		heartbeatMs: cfg.HeartbeatMs,
	}
	return d.runLoop(ticker.C, sigCh)
}

// statusPage is the only page the daemon renders.
const statusPage = 0

// daemon holds everything the poll loop drives.
type daemon struct {
	reader     gpio.Reader
	detector   *logic.InputDetector
	controller *logic.Controller
	clock      clock.Clock
	start      time.Time // wall time of clock epoch
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus // may be nil
	tracker    *status.Tracker       // may be nil
	leds       *led.Driver
	display    *display.Gate

	heartbeatMs   int64 // 0 disables
	lastHeartbeat int64

	prev    logic.FrameOutput
	hasPrev bool
}

func (d *daemon) wallTime(ms int64) time.Time {
	return d.start.Add(time.Duration(ms) * time.Millisecond)
}

func (d *daemon) refreshMQTT() {
	if d.tracker != nil && d.mqttStatus != nil {
		d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
	}
}

func (d *daemon) runLoop(tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			d.shutdown(s)
			return nil

		case <-tick:
			d.step()
		}
	}
}

func (d *daemon) shutdown(s os.Signal) {
	log.Printf("received %v, shutting down", s)
	signalName := "UNKNOWN"
	if s == syscall.SIGINT {
		signalName = "SIGINT"
	} else if s == syscall.SIGTERM {
		signalName = "SIGTERM"
	}
	event := mqtt.SystemEvent{
		Timestamp: d.wallTime(d.clock.NowMs()),
		Event:     "SHUTDOWN",
		Reason:    signalName,
		Retained:  true,
	}
	if d.tracker != nil {
		d.refreshMQTT()
		event.RawPayload = status.FormatStatusEvent(d.tracker.Snapshot(), "SHUTDOWN", signalName)
	}
	if err := d.publisher.PublishSystem(event); err != nil {
		log.Printf("failed to publish shutdown event: %v", err)
	} else {
		log.Printf("published shutdown event")
	}
}

// step runs one poll tick.
func (d *daemon) step() {
	now := d.clock.NowMs()

	s, err := d.reader.Read()
	if err != nil {
		// Time keeps running; the panel still dims without input.
		log.Printf("gpio read error: %v", err)
	} else {
		for _, in := range d.detector.Process(toInputSample(s, now)) {
			d.interact(in, now)
		}
	}

	frame := d.controller.EvaluateFrame(now)

	levels, changed, err := d.leds.Apply(frame)
	if err != nil {
		log.Printf("led error: %v", err)
	} else if changed {
		if err := d.publisher.PublishState(frame); err != nil {
			log.Printf("state publish error: %v", err)
		}
	}

	if err := d.display.Update(statusPage, frame.DisplayActive); err != nil {
		log.Printf("display error: %v", err)
	}

	if d.hasPrev {
		for _, event := range logic.Transitions(d.prev, frame) {
			log.Printf("event: %s (elapsed=%dms primary=%.1f rotary=%.1f)",
				event.Type, frame.Elapsed, frame.Primary.Luminance, frame.Rotary.Luminance)
			if err := d.publisher.Publish(event); err != nil {
				log.Printf("publish error: %v", err)
			}
		}
	}
	d.prev = frame
	d.hasPrev = true

	if d.tracker != nil {
		d.tracker.Update(frame, levels, d.controller.LastInteraction(), d.detector.IsBaselined())
		d.refreshMQTT()
	}

	d.checkHeartbeat(now)
}

// interact gates one interaction through the controller and reports it.
func (d *daemon) interact(in logic.Interaction, now int64) {
	dispatched := d.controller.OnInteraction(now)
	typ := logic.EventWake
	if dispatched {
		typ = logic.EventAction
	}
	input := in
	event := logic.Event{
		Time:  now,
		Type:  typ,
		Frame: d.controller.EvaluateFrame(now),
		Input: &input,
	}
	log.Printf("event: %s %s", typ, in)
	if err := d.publisher.Publish(event); err != nil {
		log.Printf("publish error: %v", err)
	}
	if d.tracker != nil {
		d.tracker.RecordInteraction(dispatched)
	}
}

func (d *daemon) checkHeartbeat(now int64) {
	if d.heartbeatMs <= 0 || !d.detector.IsBaselined() {
		return
	}
	if now-d.lastHeartbeat < d.heartbeatMs {
		return
	}
	d.lastHeartbeat = now

	hbEvent := mqtt.SystemEvent{
		Timestamp: d.wallTime(now),
		Event:     "HEARTBEAT",
	}
	if d.tracker != nil {
		d.refreshMQTT()
		// Refresh network info for heartbeat
		if net := readNetworkInfo(); net != nil {
			d.tracker.SetNetwork(net)
		}
		snap := d.tracker.Snapshot()
		log.Printf("heartbeat: uptime=%v wakes=%d actions=%d",
			snap.Uptime().Truncate(time.Second), snap.Counts.Wakes, snap.Counts.Actions)
		hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
	}
	if err := d.publisher.PublishSystem(hbEvent); err != nil {
		log.Printf("heartbeat publish error: %v", err)
	}
}

func toInputSample(s gpio.Sample, now int64) logic.InputSample {
	in := logic.InputSample{Time: now, Buttons: s.Buttons}
	n := len(s.EncoderA)
	if len(s.EncoderB) < n {
		n = len(s.EncoderB)
	}
	in.Encoders = make([]logic.Quadrature, n)
	for i := 0; i < n; i++ {
		in.Encoders[i] = logic.Quadrature{A: s.EncoderA[i], B: s.EncoderB[i]}
	}
	return in
}

func formatSample(s gpio.Sample) string {
	out := ""
	for i, p := range s.Buttons {
		out += fmt.Sprintf("BUTTON[%d]: %s\n", i, pressedString(p))
	}
	for i := range s.EncoderA {
		b := false
		if i < len(s.EncoderB) {
			b = s.EncoderB[i]
		}
		out += fmt.Sprintf("ENCODER[%d]: A=%d B=%d\n", i, bit(s.EncoderA[i]), bit(b))
	}
	return out
}

func pressedString(p bool) string {
	if p {
		return "PRESSED"
	}
	return "RELEASED"
}

func bit(v bool) int {
	if v {
		return 1
	}
	return 0
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
