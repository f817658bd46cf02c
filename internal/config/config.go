package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultPath is the config file the launchers load.
const DefaultPath = "rover_config.txt"

// Drive sink kinds accepted by DRIVE_SINK.
const (
	SinkMQTT = "mqtt"
	SinkGPIO = "gpio"
	SinkLog  = "log"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker            string
	MQTTClientIDNavigator string
	MQTTClientIDGPS       string
	MQTTClientIDSim       string
	MQTTClientIDConsole   string
	MQTTClientIDDisplay   string

	// Topics
	TopicGPS          string
	TopicOrientation  string
	TopicDrive        string
	TopicNavStatus    string
	TopicNavArrival   string
	TopicNavWaypoints string
	TopicNavCmd       string

	// GPS
	GPSSerialPort string
	GPSBaudRate   int

	// Navigation. Angles are in degrees; NavTurnRate is on the drive
	// scale 0..100. NavTimeout of 0 leaves only the tick budget.
	NavTickInterval      time.Duration
	NavTolerance         float64
	NavTurnRate          float64
	NavMaxTicks          int
	NavTimeout           time.Duration
	NavHeadingCorrection float64
	NavArrivalEpsilon    float64
	NavRouteFile         string // optional CSV/YAML route queued at startup
	MagDeclination       float64

	// Drivetrain
	DriveSink             string // "mqtt", "gpio" or "log"
	DriveLeftForwardPin   string
	DriveLeftBackwardPin  string
	DriveRightForwardPin  string
	DriveRightBackwardPin string
	DrivePWMFrequency     int // Hz

	// Simulated rover
	SimStartLat     float64
	SimStartLng     float64
	SimStartHeading float64
	SimTurnSpeed    float64 // degrees per second at full turn rate
	SimStepInterval time.Duration

	// Display
	DisplayI2CBus         string // "" opens the first bus
	DisplayUpdateInterval time.Duration

	// Web Server
	WebServerPort int
}

// Package-level singleton: InitGlobal sets it once, Get reads it under a
// read lock.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns a configuration with every value but MQTT_BROKER set.
func Default() *Config {
	return &Config{
		MQTTClientIDNavigator: "rover-navigator",
		MQTTClientIDGPS:       "rover-gps-producer",
		MQTTClientIDSim:       "rover-sim",
		MQTTClientIDConsole:   "rover-console",
		MQTTClientIDDisplay:   "rover-display",

		TopicGPS:          "rover/gps",
		TopicOrientation:  "rover/orientation",
		TopicDrive:        "rover/drive",
		TopicNavStatus:    "rover/nav/status",
		TopicNavArrival:   "rover/nav/arrival",
		TopicNavWaypoints: "rover/nav/waypoints",
		TopicNavCmd:       "rover/nav/cmd",

		GPSSerialPort: "/dev/serial0",
		GPSBaudRate:   9600,

		NavTickInterval:   100 * time.Millisecond,
		NavTolerance:      6.5,
		NavTurnRate:       15,
		NavMaxTicks:       600,
		NavArrivalEpsilon: 1e-7,

		DriveSink:         SinkMQTT,
		DrivePWMFrequency: 1000,

		SimTurnSpeed:    90,
		SimStepInterval: 50 * time.Millisecond,

		DisplayUpdateInterval: 200 * time.Millisecond,

		WebServerPort: 8080,
	}
}

// Load reads the configuration file on top of Default.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()
	return Parse(file)
}

// Parse reads KEY=VALUE lines. Blank lines and # comments are skipped;
// unknown keys are an error.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}
		if err := cfg.setValue(strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_NAVIGATOR":
		c.MQTTClientIDNavigator = value
	case "MQTT_CLIENT_ID_GPS":
		c.MQTTClientIDGPS = value
	case "MQTT_CLIENT_ID_SIM":
		c.MQTTClientIDSim = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value

	// Topics
	case "TOPIC_GPS":
		c.TopicGPS = value
	case "TOPIC_ORIENTATION":
		c.TopicOrientation = value
	case "TOPIC_DRIVE":
		c.TopicDrive = value
	case "TOPIC_NAV_STATUS":
		c.TopicNavStatus = value
	case "TOPIC_NAV_ARRIVAL":
		c.TopicNavArrival = value
	case "TOPIC_NAV_WAYPOINTS":
		c.TopicNavWaypoints = value
	case "TOPIC_NAV_CMD":
		c.TopicNavCmd = value

	// GPS
	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		return parseInt(key, value, &c.GPSBaudRate)

	// Navigation
	case "NAV_TICK_INTERVAL":
		return parseMillis(key, value, &c.NavTickInterval)
	case "NAV_TOLERANCE":
		return parseFloat(key, value, &c.NavTolerance)
	case "NAV_TURN_RATE":
		if err := parseFloat(key, value, &c.NavTurnRate); err != nil {
			return err
		}
		if c.NavTurnRate <= 0 || c.NavTurnRate > 100 {
			return fmt.Errorf("NAV_TURN_RATE must be in (0, 100], got %v", c.NavTurnRate)
		}
	case "NAV_MAX_TICKS":
		return parseInt(key, value, &c.NavMaxTicks)
	case "NAV_TIMEOUT":
		return parseMillis(key, value, &c.NavTimeout)
	case "NAV_HEADING_CORRECTION":
		return parseFloat(key, value, &c.NavHeadingCorrection)
	case "NAV_ARRIVAL_EPSILON":
		return parseFloat(key, value, &c.NavArrivalEpsilon)
	case "NAV_ROUTE_FILE":
		c.NavRouteFile = value
	case "MAG_DECLINATION":
		return parseFloat(key, value, &c.MagDeclination)

	// Drivetrain
	case "DRIVE_SINK":
		switch value {
		case SinkMQTT, SinkGPIO, SinkLog:
			c.DriveSink = value
		default:
			return fmt.Errorf("DRIVE_SINK must be %q, %q or %q, got %q", SinkMQTT, SinkGPIO, SinkLog, value)
		}
	case "DRIVE_LEFT_FORWARD_PIN":
		c.DriveLeftForwardPin = value
	case "DRIVE_LEFT_BACKWARD_PIN":
		c.DriveLeftBackwardPin = value
	case "DRIVE_RIGHT_FORWARD_PIN":
		c.DriveRightForwardPin = value
	case "DRIVE_RIGHT_BACKWARD_PIN":
		c.DriveRightBackwardPin = value
	case "DRIVE_PWM_FREQUENCY":
		return parseInt(key, value, &c.DrivePWMFrequency)

	// Simulated rover
	case "SIM_START_LAT":
		return parseFloat(key, value, &c.SimStartLat)
	case "SIM_START_LNG":
		return parseFloat(key, value, &c.SimStartLng)
	case "SIM_START_HEADING":
		return parseFloat(key, value, &c.SimStartHeading)
	case "SIM_TURN_SPEED":
		return parseFloat(key, value, &c.SimTurnSpeed)
	case "SIM_STEP_INTERVAL":
		return parseMillis(key, value, &c.SimStepInterval)

	// Display
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value
	case "DISPLAY_UPDATE_INTERVAL":
		return parseMillis(key, value, &c.DisplayUpdateInterval)

	// Web Server
	case "WEB_SERVER_PORT":
		return parseInt(key, value, &c.WebServerPort)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}
	return nil
}

func parseInt(key, value string, dst *int) error {
	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	*dst = v
	return nil
}

func parseFloat(key, value string, dst *float64) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	*dst = v
	return nil
}

// parseMillis reads a whole number of milliseconds.
func parseMillis(key, value string, dst *time.Duration) error {
	ms, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if ms < 0 {
		return fmt.Errorf("%s must not be negative, got %d", key, ms)
	}
	*dst = time.Duration(ms) * time.Millisecond
	return nil
}

// validate checks that required fields are set and tunables are usable.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.NavTickInterval <= 0 {
		return fmt.Errorf("NAV_TICK_INTERVAL must be positive")
	}
	if c.NavTolerance <= 0 {
		return fmt.Errorf("NAV_TOLERANCE must be positive, got %v", c.NavTolerance)
	}
	if c.NavMaxTicks <= 0 {
		return fmt.Errorf("NAV_MAX_TICKS must be positive, got %d", c.NavMaxTicks)
	}
	if c.NavArrivalEpsilon <= 0 {
		return fmt.Errorf("NAV_ARRIVAL_EPSILON must be positive, got %v", c.NavArrivalEpsilon)
	}
	if c.DriveSink == SinkGPIO {
		if c.DriveLeftForwardPin == "" || c.DriveLeftBackwardPin == "" ||
			c.DriveRightForwardPin == "" || c.DriveRightBackwardPin == "" {
			return fmt.Errorf("DRIVE_SINK=gpio requires all four DRIVE_*_PIN keys")
		}
		if c.DrivePWMFrequency <= 0 {
			return fmt.Errorf("DRIVE_PWM_FREQUENCY must be positive, got %d", c.DrivePWMFrequency)
		}
	}
	if c.SimStepInterval <= 0 {
		return fmt.Errorf("SIM_STEP_INTERVAL must be positive")
	}
	if c.DisplayUpdateInterval <= 0 {
		return fmt.Errorf("DISPLAY_UPDATE_INTERVAL must be positive")
	}
	return nil
}

// InitGlobal initializes the global configuration from file. Only the
// first call loads; later calls are no-ops.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
