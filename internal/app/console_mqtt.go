package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/rover_nav/internal/config"
	"github.com/relabs-tech/rover_nav/internal/gps"
	"github.com/relabs-tech/rover_nav/internal/nav"
	"github.com/relabs-tech/rover_nav/internal/orientation"
)

var (
	tagStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("51"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	activeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	arrivalStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))
)

func phaseStyle(p nav.Phase) lipgloss.Style {
	switch p {
	case nav.PhaseAligning:
		return activeStyle
	case nav.PhaseCompleted:
		return doneStyle
	case nav.PhaseCancelled, nav.PhaseTimedOut:
		return failedStyle
	default:
		return dimStyle
	}
}

func formatStatus(s nav.Status) string {
	line := fmt.Sprintf("%s %s", tagStyle.Render("[NAV ]"), phaseStyle(s.Phase).Render(s.Phase.String()))
	if s.Phase == nav.PhaseAligning {
		line += fmt.Sprintf(" target=%6.2f°", s.TargetHeading)
	}
	if s.Waypoint != nil {
		line += fmt.Sprintf(" wp=%s", s.Waypoint)
	}
	return line + dimStyle.Render(fmt.Sprintf("  remaining=%d reached=%d", s.Remaining, s.Reached))
}

func formatFix(f gps.Fix) string {
	line := fmt.Sprintf("%s time=%s lat=%.6f lng=%.6f speed=%.1fkn course=%.1f° validity=%s",
		tagStyle.Render("[GPS ]"), f.Time, f.Latitude, f.Longitude, f.SpeedKnots, f.CourseDeg, f.Validity)
	if f.HDOP != nil {
		line += dimStyle.Render(fmt.Sprintf(" hdop=%.1f", *f.HDOP))
	}
	return line
}

func formatOrientation(o orientation.Orientation) string {
	return fmt.Sprintf("%s HDG=%6.2f  YAW=%6.2f  PITCH=%6.2f  ROLL=%6.2f",
		tagStyle.Render("[IMU ]"), o.Heading, o.Yaw, o.Pitch, o.Roll)
}

func formatArrival(a Arrival) string {
	line := fmt.Sprintf("%s reached %s", arrivalStyle.Render("[ARRV]"), a.Waypoint)
	if a.Heading != nil {
		line += fmt.Sprintf(" at heading %.1f°", *a.Heading)
	}
	return line
}

// consoleHandler decodes a JSON payload into T and prints it.
func consoleHandler[T any](name string, format func(T) string) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		var v T
		if err := json.Unmarshal(msg.Payload(), &v); err != nil {
			log.Printf("console: %s unmarshal error: %v", name, err)
			return
		}
		fmt.Println(format(v))
	}
}

// RunConsoleMQTT prints navigation status, arrivals, GPS fixes and
// orientation as they are published.
func RunConsoleMQTT() error {
	cfg := config.Get()
	if cfg == nil {
		return errors.New("console: config not initialized")
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	subs := map[string]mqtt.MessageHandler{
		cfg.TopicNavStatus:   consoleHandler("status", formatStatus),
		cfg.TopicNavArrival:  consoleHandler("arrival", formatArrival),
		cfg.TopicGPS:         consoleHandler("gps", formatFix),
		cfg.TopicOrientation: consoleHandler("orientation", formatOrientation),
	}
	for topic, handler := range subs {
		token := client.Subscribe(topic, 0, handler)
		token.Wait()
		if token.Error() != nil {
			return token.Error()
		}
		log.Printf("console: subscribed to %s", topic)
	}

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
