package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"periph.io/x/conn/v3/physic"

	"github.com/relabs-tech/rover_nav/internal/config"
	"github.com/relabs-tech/rover_nav/internal/drive"
	"github.com/relabs-tech/rover_nav/internal/gps"
	"github.com/relabs-tech/rover_nav/internal/heading"
	"github.com/relabs-tech/rover_nav/internal/nav"
	"github.com/relabs-tech/rover_nav/internal/orientation"
	"github.com/relabs-tech/rover_nav/internal/waypoint"
)

const publishTimeout = 250 * time.Millisecond

// RunNavigator runs the navigation service: it ingests GPS and orientation
// from MQTT, drives the rover through the configured sink, and serves the
// HTTP/WebSocket API. It returns after SIGINT/SIGTERM, once the running
// session has been stopped.
func RunNavigator() error {
	cfg := config.Get()
	if cfg == nil {
		return errors.New("navigator: config not initialized")
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDNavigator).
		SetOrderMatters(false)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("navigator: connected to MQTT broker at %s", cfg.MQTTBroker)

	sink, err := newCommandSink(cfg, client)
	if err != nil {
		return err
	}
	log.Printf("navigator: drive sink %q", cfg.DriveSink)

	n := nav.New(navConfig(cfg))
	if cfg.NavRouteFile != "" {
		route, err := waypoint.LoadRoute(cfg.NavRouteFile)
		if err != nil {
			return fmt.Errorf("navigator: %w", err)
		}
		added, err := n.EnqueueWaypoints(route, false)
		if err != nil {
			log.Printf("navigator: route %s: %v", cfg.NavRouteFile, err)
		}
		log.Printf("navigator: queued %d waypoints from %s", added, cfg.NavRouteFile)
	}

	svc := newNavService(n, sink)
	svc.publish = mqttPublisher(client)
	svc.statusTopic = cfg.TopicNavStatus
	svc.arrivalTopic = cfg.TopicNavArrival

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := subscribeNavigator(ctx, client, cfg, svc); err != nil {
		return err
	}

	ticker := time.NewTicker(cfg.NavTickInterval)
	defer ticker.Stop()
	go svc.run(ctx, ticker.C)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.WebServerPort),
		Handler: svc.routes(),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("navigator: web server listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		stop()
		<-svc.done
		return err
	}

	<-svc.done
	log.Println("navigator: shutting down")
	return nil
}

func navConfig(cfg *config.Config) nav.Config {
	return nav.Config{
		Heading: heading.Config{
			Tolerance:  cfg.NavTolerance,
			TurnRate:   cfg.NavTurnRate,
			MaxTicks:   cfg.NavMaxTicks,
			Timeout:    cfg.NavTimeout,
			Correction: cfg.NavHeadingCorrection,
		},
		ArrivalEpsilon: cfg.NavArrivalEpsilon,
	}
}

// newCommandSink builds the drivetrain output named by DRIVE_SINK.
func newCommandSink(cfg *config.Config, client mqtt.Client) (nav.CommandSink, error) {
	switch cfg.DriveSink {
	case config.SinkMQTT:
		return drive.NewMQTTSink(client, cfg.TopicDrive, publishTimeout), nil
	case config.SinkGPIO:
		sink, err := drive.NewTankSink(drive.TankPins{
			LeftForward:   cfg.DriveLeftForwardPin,
			LeftBackward:  cfg.DriveLeftBackwardPin,
			RightForward:  cfg.DriveRightForwardPin,
			RightBackward: cfg.DriveRightBackwardPin,
		}, physic.Frequency(cfg.DrivePWMFrequency)*physic.Hertz)
		if err != nil {
			return nil, fmt.Errorf("navigator: %w", err)
		}
		return sink, nil
	case config.SinkLog:
		return &drive.LogSink{}, nil
	default:
		return nil, fmt.Errorf("navigator: unknown drive sink %q", cfg.DriveSink)
	}
}

// mqttPublisher returns a publish func that never blocks the control loop
// for longer than publishTimeout.
func mqttPublisher(client mqtt.Client) func(topic string, v any) {
	return func(topic string, v any) {
		payload, err := json.Marshal(v)
		if err != nil {
			log.Printf("navigator: json marshal error: %v", err)
			return
		}
		token := client.Publish(topic, 0, false, payload)
		if !token.WaitTimeout(publishTimeout) {
			log.Printf("navigator: publish to %s timed out", topic)
			return
		}
		if token.Error() != nil {
			log.Printf("navigator: publish to %s: %v", topic, token.Error())
		}
	}
}

func subscribeNavigator(ctx context.Context, client mqtt.Client, cfg *config.Config, svc *navService) error {
	handlers := []struct {
		topic   string
		handler mqtt.MessageHandler
	}{
		{cfg.TopicGPS, func(_ mqtt.Client, msg mqtt.Message) {
			var f gps.Fix
			if err := json.Unmarshal(msg.Payload(), &f); err != nil {
				svc.warnf("navigator: gps unmarshal error: %v", err)
				return
			}
			if err := svc.pos.Update(f, time.Now()); err != nil {
				svc.warnf("navigator: dropping GPS fix: %v", err)
			}
		}},
		{cfg.TopicOrientation, func(_ mqtt.Client, msg mqtt.Message) {
			var o orientation.Orientation
			if err := json.Unmarshal(msg.Payload(), &o); err != nil {
				svc.warnf("navigator: orientation unmarshal error: %v", err)
				return
			}
			if err := svc.hdg.Update(o, time.Now()); err != nil {
				svc.warnf("navigator: dropping orientation: %v", err)
			}
		}},
		{cfg.TopicNavWaypoints, func(_ mqtt.Client, msg mqtt.Message) {
			var list WaypointList
			if err := json.Unmarshal(msg.Payload(), &list); err != nil {
				log.Printf("navigator: waypoints unmarshal error: %v", err)
				return
			}
			if _, err := svc.enqueue(ctx, list); err != nil {
				log.Printf("navigator: waypoints: %v", err)
			}
		}},
		{cfg.TopicNavCmd, func(_ mqtt.Client, msg mqtt.Message) {
			var c NavCommand
			if err := json.Unmarshal(msg.Payload(), &c); err != nil {
				log.Printf("navigator: command unmarshal error: %v", err)
				return
			}
			if err := svc.command(ctx, c.Action); err != nil {
				log.Printf("navigator: command %q: %v", c.Action, err)
			}
		}},
	}

	for _, h := range handlers {
		token := client.Subscribe(h.topic, 0, h.handler)
		token.Wait()
		if token.Error() != nil {
			return fmt.Errorf("navigator: subscribe %s: %w", h.topic, token.Error())
		}
		log.Printf("navigator: subscribed to %s", h.topic)
	}
	return nil
}
