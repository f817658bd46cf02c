// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package drive

import (
	"encoding/json"
	"errors"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTSink publishes commands as JSON to a drivetrain topic, where the
// motor controller process picks them up.
type MQTTSink struct {
	client  mqtt.Client
	topic   string
	timeout time.Duration
}

// NewMQTTSink creates a sink publishing on topic with QoS 0.
// timeout bounds how long Send waits for the publish to complete.
func NewMQTTSink(client mqtt.Client, topic string, timeout time.Duration) *MQTTSink {
	if timeout <= 0 {
		timeout = 250 * time.Millisecond
	}
	return &MQTTSink{client: client, topic: topic, timeout: timeout}
}

// Send publishes one command. Commands are not retained so a reconnecting
// drivetrain never replays a stale turn.
func (s *MQTTSink) Send(c Command) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return &SinkError{Sink: "mqtt", Command: c, Err: err}
	}

	token := s.client.Publish(s.topic, 0, false, payload)
	if !token.WaitTimeout(s.timeout) {
		return &SinkError{Sink: "mqtt", Command: c, Err: errors.New("publish timed out")}
	}
	if token.Error() != nil {
		return &SinkError{Sink: "mqtt", Command: c, Err: token.Error()}
	}
	return nil
}
