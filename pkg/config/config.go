package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendGPIO = "gpio"
	BackendMQTT = "mqtt"
	BackendSim  = "sim"

	ModelSourceFile       = "file"
	ModelSourceClickHouse = "clickhouse"
)

type Config struct {
	// Controller
	HardwareBackend   string
	DeviceID          string
	DebugMode         bool
	CyclePeriod       time.Duration
	DebugCyclePeriod  time.Duration
	SensorReadTimeout time.Duration

	// Sensor calibration
	WaterADCChannel int
	LightADCChannel int
	WaterADCMax     int
	LightADCMax     int
	ClampFeatures   bool

	// Local GPIO/SPI hardware
	RelayPin       int
	RelayActiveLow bool
	ServoPin       int
	ServoAngleMin  int
	ServoAngleMax  int
	ServoDutyMin   int
	ServoDutyMax   int
	ServoStepDelay time.Duration
	SPIPort        string

	// MQTT plant node
	MQTTBroker           string
	MQTTClientID         string
	MQTTUsername         string
	MQTTPassword         string
	MQTTTopicADCRequest  string
	MQTTTopicADCResponse string
	MQTTTopicRelay       string
	MQTTTopicServo       string

	// Models
	ModelSource     string
	WaterModelPath  string
	ShadeModelPath  string
	ModelActivation string
	WaterModelName  string
	ShadeModelName  string

	// ClickHouse model registry
	ClickHouseAddr string
	ClickHouseDB   string
	ClickHouseUser string
	ClickHousePass string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		// Controller
		HardwareBackend:   getEnv("HARDWARE_BACKEND", BackendGPIO),
		DeviceID:          getEnv("DEVICE_ID", "plant-001"),
		DebugMode:         getEnvBool("DEBUG_MODE", false),
		CyclePeriod:       getEnvDuration("CYCLE_PERIOD", time.Hour),
		DebugCyclePeriod:  getEnvDuration("DEBUG_CYCLE_PERIOD", 5*time.Second),
		SensorReadTimeout: getEnvDuration("SENSOR_READ_TIMEOUT", 2*time.Second),

		// Sensor calibration
		WaterADCChannel: getEnvInt("WATER_ADC_CHANNEL", 0),
		LightADCChannel: getEnvInt("LIGHT_ADC_CHANNEL", 1),
		WaterADCMax:     getEnvInt("WATER_ADC_MAX", 3500),
		LightADCMax:     getEnvInt("LIGHT_ADC_MAX", 3038),
		ClampFeatures:   getEnvBool("CLAMP_FEATURES", false),

		// Local GPIO/SPI hardware
		RelayPin:       getEnvInt("RELAY_PIN", 17),
		RelayActiveLow: getEnvBool("RELAY_ACTIVE_LOW", false),
		ServoPin:       getEnvInt("SERVO_PIN", 18),
		ServoAngleMin:  getEnvInt("SERVO_ANGLE_MIN", 0),
		ServoAngleMax:  getEnvInt("SERVO_ANGLE_MAX", 200),
		ServoDutyMin:   getEnvInt("SERVO_DUTY_MIN", 1000),
		ServoDutyMax:   getEnvInt("SERVO_DUTY_MAX", 2000),
		ServoStepDelay: getEnvDuration("SERVO_STEP_DELAY", 15*time.Millisecond),
		SPIPort:        getEnv("SPI_PORT", ""),

		// MQTT plant node
		MQTTBroker:           getEnv("MQTT_BROKER", "tcp://localhost:1883"),
		MQTTClientID:         getEnv("MQTT_CLIENT_ID", "garden-controller"),
		MQTTUsername:         getEnv("MQTT_USERNAME", ""),
		MQTTPassword:         getEnv("MQTT_PASSWORD", ""),
		MQTTTopicADCRequest:  getEnv("MQTT_TOPIC_ADC_REQUEST", "plant/{device_id}/adc/request"),
		MQTTTopicADCResponse: getEnv("MQTT_TOPIC_ADC_RESPONSE", "plant/{device_id}/adc/response"),
		MQTTTopicRelay:       getEnv("MQTT_TOPIC_RELAY", "plant/{device_id}/relay"),
		MQTTTopicServo:       getEnv("MQTT_TOPIC_SERVO", "plant/{device_id}/servo"),

		// Models
		ModelSource:     getEnv("MODEL_SOURCE", ModelSourceFile),
		WaterModelPath:  getEnv("WATER_MODEL_PATH", "./model/water.json"),
		ShadeModelPath:  getEnv("SHADE_MODEL_PATH", "./model/shade.json"),
		ModelActivation: getEnv("MODEL_ACTIVATION", "sigmoid"),
		WaterModelName:  getEnv("WATER_MODEL_NAME", "water"),
		ShadeModelName:  getEnv("SHADE_MODEL_NAME", "shade"),

		// ClickHouse model registry
		ClickHouseAddr: getEnv("CLICKHOUSE_ADDR", "localhost:9000"),
		ClickHouseDB:   getEnv("CLICKHOUSE_DB", "garden"),
		ClickHouseUser: getEnv("CLICKHOUSE_USER", "default"),
		ClickHousePass: getEnv("CLICKHOUSE_PASS", ""),
	}
}

// Period returns the cycle period, honouring debug mode
func (c *Config) Period() time.Duration {
	if c.DebugMode {
		return c.DebugCyclePeriod
	}
	return c.CyclePeriod
}

// Validate checks enumerations and ranges
func (c *Config) Validate() error {
	switch c.HardwareBackend {
	case BackendGPIO, BackendMQTT, BackendSim:
	default:
		return fmt.Errorf("unknown HARDWARE_BACKEND %q (want %s, %s or %s)", c.HardwareBackend, BackendGPIO, BackendMQTT, BackendSim)
	}

	switch c.ModelSource {
	case ModelSourceFile, ModelSourceClickHouse:
	default:
		return fmt.Errorf("unknown MODEL_SOURCE %q (want %s or %s)", c.ModelSource, ModelSourceFile, ModelSourceClickHouse)
	}

	if c.Period() <= 0 {
		return fmt.Errorf("cycle period must be positive, got %v", c.Period())
	}
	if c.WaterADCChannel == c.LightADCChannel {
		return fmt.Errorf("WATER_ADC_CHANNEL and LIGHT_ADC_CHANNEL must differ, both are %d", c.WaterADCChannel)
	}
	if c.WaterADCChannel < 0 || c.LightADCChannel < 0 {
		return fmt.Errorf("ADC channels must not be negative")
	}
	if c.ServoAngleMin == c.ServoAngleMax {
		return fmt.Errorf("SERVO_ANGLE_MIN and SERVO_ANGLE_MAX must differ")
	}
	if c.ServoDutyMin == c.ServoDutyMax {
		return fmt.Errorf("SERVO_DUTY_MIN and SERVO_DUTY_MAX must differ")
	}
	if c.DeviceID == "" {
		return fmt.Errorf("DEVICE_ID must not be empty")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as int, using default: %v", key, err)
		return defaultValue
	}
	return intValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as bool, using default: %v", key, err)
		return defaultValue
	}
	return boolValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as duration, using default: %v", key, err)
		return defaultValue
	}
	return duration
}
