package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/rover_nav/internal/config"
	"github.com/relabs-tech/rover_nav/internal/drive"
	"github.com/relabs-tech/rover_nav/internal/geo"
	"github.com/relabs-tech/rover_nav/internal/orientation"
	"github.com/relabs-tech/rover_nav/internal/sim"
)

// RunSimProducer runs a simulated rover in place of the GPS receiver, IMU
// and drivetrain: it applies drive commands from MQTT and publishes the
// resulting fixes and orientation.
func RunSimProducer() error {
	cfg := config.Get()
	if cfg == nil {
		return errors.New("sim: config not initialized")
	}

	start, err := geo.NewCoordinate(cfg.SimStartLat, cfg.SimStartLng)
	if err != nil {
		return fmt.Errorf("sim: start position: %w", err)
	}
	simCfg := sim.DefaultConfig()
	simCfg.TurnSpeed = cfg.SimTurnSpeed
	simCfg.Declination = cfg.MagDeclination
	rover := sim.New(simCfg, start, cfg.SimStartHeading)

	// 1) Connect to MQTT broker
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDSim)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("sim: connected to MQTT broker at %s", cfg.MQTTBroker)

	// 2) Drive commands latch into the rover
	token := client.Subscribe(cfg.TopicDrive, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var c drive.Command
		if err := json.Unmarshal(msg.Payload(), &c); err != nil {
			log.Printf("sim: drive unmarshal error: %v", err)
			return
		}
		rover.Send(c)
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("sim: subscribed to %s", cfg.TopicDrive)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(cfg.SimStepInterval)
	defer ticker.Stop()

	publish := func(topic string, v any) {
		payload, err := json.Marshal(v)
		if err != nil {
			log.Printf("sim: json marshal error: %v", err)
			return
		}
		token := client.Publish(topic, 0, false, payload)
		token.Wait()
		if token.Error() != nil {
			log.Printf("sim: publish to %s: %v", topic, token.Error())
		}
	}

	last := time.Now()
	var lastCmd drive.Command
	for {
		select {
		case <-ctx.Done():
			log.Println("sim: shutting down")
			return nil
		case now := <-ticker.C:
			rover.Step(now.Sub(last))
			last = now

			accel, gyro, mag := rover.IMU()
			o := orientation.FromIMU(accel, gyro, mag, cfg.MagDeclination)
			if err := o.Validate(); err != nil {
				log.Printf("sim: orientation: %v", err)
				continue
			}
			publish(cfg.TopicGPS, rover.Fix(now))
			publish(cfg.TopicOrientation, o)

			if c := rover.Command(); c != lastCmd {
				log.Printf("sim: %s heading %.1f° at %s", c, o.Heading, rover.Position())
				lastCmd = c
			}
		}
	}
}
