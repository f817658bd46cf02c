package app

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/rover_nav/internal/config"
	"github.com/relabs-tech/rover_nav/internal/gps"
)

// RunGPSProducer opens the GPS serial port, assembles NMEA sentences into
// fixes, and publishes each position fix as JSON to the GPS topic.
func RunGPSProducer() error {
	cfg := config.Get()
	if cfg == nil {
		return errors.New("gps: config not initialized")
	}

	// ---- 1) Connect to MQTT broker ----
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDGPS)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("gps: connected to MQTT broker at %s", cfg.MQTTBroker)

	// ---- 2) Open GPS serial port ----
	serialOpts := serial.OpenOptions{
		PortName:              cfg.GPSSerialPort,
		BaudRate:              uint(cfg.GPSBaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return fmt.Errorf("gps: open %s: %w", serialOpts.PortName, err)
	}
	defer port.Close()
	log.Printf("gps: serial port opened on %s at %d baud", serialOpts.PortName, serialOpts.BaudRate)

	return streamFixes(port, func(fix gps.Fix) error {
		payload, err := json.Marshal(fix)
		if err != nil {
			return err
		}
		token := client.Publish(cfg.TopicGPS, 0, true, payload)
		token.Wait()
		return token.Error()
	})
}

// streamFixes reads NMEA lines from r until it fails and hands every new
// position fix to publish. Publish errors are logged, not fatal.
func streamFixes(r io.Reader, publish func(gps.Fix) error) error {
	reader := bufio.NewReader(r)
	var asm gps.Assembler

	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			if fix, ok := asm.ParseLine(line); ok {
				if perr := publish(fix); perr != nil {
					log.Printf("gps: publish error: %v", perr)
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("gps: read: %w", err)
		}
	}
}
