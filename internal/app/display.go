package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log"
	"math"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/rover_nav/internal/config"
	"github.com/relabs-tech/rover_nav/internal/display"
	"github.com/relabs-tech/rover_nav/internal/nav"
	"github.com/relabs-tech/rover_nav/internal/orientation"
)

// handleStatusPNG renders the status panel the way the rover's OLED shows it.
func (s *navService) handleStatusPNG(w http.ResponseWriter, r *http.Request) {
	v := s.view()
	img := display.Render(display.StatusLines(v.Status, s.hdg.Current()))

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := png.Encode(w, img); err != nil {
		log.Printf("web: png encode error: %v", err)
	}
}

// panel is the part of ssd1306.Dev the update loop draws through.
type panel interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
}

// DisplayData holds the latest status and heading seen on MQTT.
type DisplayData struct {
	mu      sync.RWMutex
	status  nav.Status
	heading float64 // NaN until the first orientation sample
}

func newDisplayData() *DisplayData {
	return &DisplayData{status: nav.Status{Phase: nav.PhaseIdle}, heading: math.NaN()}
}

func (d *DisplayData) onStatus(_ mqtt.Client, msg mqtt.Message) {
	var st nav.Status
	if err := json.Unmarshal(msg.Payload(), &st); err != nil {
		log.Printf("display: status unmarshal error: %v", err)
		return
	}
	d.mu.Lock()
	d.status = st
	d.mu.Unlock()
}

func (d *DisplayData) onOrientation(_ mqtt.Client, msg mqtt.Message) {
	var o orientation.Orientation
	if err := json.Unmarshal(msg.Payload(), &o); err != nil {
		log.Printf("display: orientation unmarshal error: %v", err)
		return
	}
	if err := o.Validate(); err != nil {
		log.Printf("display: dropping orientation: %v", err)
		return
	}
	d.mu.Lock()
	d.heading = o.Heading
	d.mu.Unlock()
}

func (d *DisplayData) lines() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return display.StatusLines(d.status, d.heading)
}

func drawLines(dev panel, lines []string) error {
	return dev.Draw(dev.Bounds(), display.Frame(lines), image.Point{})
}

// RunDisplay shows the navigator status and current heading on the
// SSD1306 OLED until SIGINT/SIGTERM, then blanks the panel.
func RunDisplay() error {
	cfg := config.Get()
	if cfg == nil {
		return errors.New("display: config not initialized")
	}

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus
	bus, err := i2creg.Open(cfg.DisplayI2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Printf("display: initialized on I2C bus %q", cfg.DisplayI2CBus)

	if err := drawLines(dev, []string{"Rover nav", "Waiting..."}); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	data := newDisplayData()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDDisplay)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("display: connected to MQTT broker at %s", cfg.MQTTBroker)

	for topic, handler := range map[string]mqtt.MessageHandler{
		cfg.TopicNavStatus:   data.onStatus,
		cfg.TopicOrientation: data.onOrientation,
	} {
		token := client.Subscribe(topic, 0, handler)
		token.Wait()
		if token.Error() != nil {
			return fmt.Errorf("display: subscribe %s: %w", topic, token.Error())
		}
		log.Printf("display: subscribed to %s", topic)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(cfg.DisplayUpdateInterval)
	defer ticker.Stop()

	log.Println("display: starting update loop")
	for {
		select {
		case <-ctx.Done():
			log.Println("display: shutting down")
			return dev.Halt()
		case <-ticker.C:
			if err := drawLines(dev, data.lines()); err != nil {
				log.Printf("display: error updating display: %v", err)
			}
		}
	}
}
