// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/rover_nav/internal/config"
	"github.com/relabs-tech/rover_nav/internal/waypoint"
)

// RunRoutePublisher loads a CSV or YAML route and sends it to the
// navigator's waypoint topic, optionally followed by a start command.
func RunRoutePublisher(path string, clearQueue, start bool) error {
	cfg := config.Get()
	if cfg == nil {
		return errors.New("route: config not initialized")
	}

	route, err := waypoint.LoadRoute(path)
	if err != nil {
		return fmt.Errorf("route: %w", err)
	}
	if len(route) == 0 && !clearQueue {
		return fmt.Errorf("route: %s has no waypoints", path)
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole + "-route")

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)

	send := func(topic string, v any) error {
		payload, err := json.Marshal(v)
		if err != nil {
			return err
		}
		// QoS 1 so the request survives a busy broker.
		token := client.Publish(topic, 1, false, payload)
		token.Wait()
		return token.Error()
	}

	if err := send(cfg.TopicNavWaypoints, WaypointList{Waypoints: route, Clear: clearQueue}); err != nil {
		return fmt.Errorf("route: publish waypoints: %w", err)
	}
	log.Printf("route: sent %d waypoints from %s to %s (clear=%v)", len(route), path, cfg.TopicNavWaypoints, clearQueue)

	if start {
		if err := send(cfg.TopicNavCmd, NavCommand{Action: "start"}); err != nil {
			return fmt.Errorf("route: publish start: %w", err)
		}
		log.Printf("route: sent start to %s", cfg.TopicNavCmd)
	}
	return nil
}
