package main

import (
	"fmt"
	"log"
	"sync/atomic"

	"garden-controller/internal/actuator"
	"garden-controller/internal/clock"
	"garden-controller/internal/control"
	"garden-controller/internal/hardware"
	"garden-controller/internal/mqtt"
	"garden-controller/internal/simulator"
	"garden-controller/pkg/config"
)

// backend bundles the peripherals of one hardware backend
type backend struct {
	sensor  control.Sensor
	relay   actuator.Relay
	servo   actuator.Servo
	closers []func()
}

// Close releases the backend's resources in reverse order of acquisition
func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// servoMapper maps the configured angle range onto the configured pulse widths
func servoMapper(cfg *config.Config) actuator.DutyMapper {
	return actuator.DutyMapper{
		AngleMin: cfg.ServoAngleMin,
		AngleMax: cfg.ServoAngleMax,
		DutyMin:  cfg.ServoDutyMin,
		DutyMax:  cfg.ServoDutyMax,
	}
}

func openBackend(cfg *config.Config, mapper actuator.DutyMapper, clk clock.Clock) (*backend, error) {
	switch cfg.HardwareBackend {
	case config.BackendGPIO:
		return openGPIOBackend(cfg)
	case config.BackendMQTT:
		return openMQTTBackend(cfg)
	case config.BackendSim:
		return openSimBackend(cfg, mapper, clk)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.HardwareBackend)
	}
}

func openGPIOBackend(cfg *config.Config) (*backend, error) {
	gpio, err := hardware.OpenGPIO()
	if err != nil {
		return nil, err
	}

	adc, err := hardware.OpenMCP3208(cfg.SPIPort)
	if err != nil {
		gpio.Close()
		return nil, err
	}

	relay := gpio.Relay(cfg.RelayPin, cfg.RelayActiveLow)
	return &backend{
		sensor: adc,
		relay:  relay,
		servo:  gpio.Servo(cfg.ServoPin),
		closers: []func(){
			func() { gpio.Close() },
			func() {
				// Never leave the pump running
				relay.Off()
				adc.Close()
			},
		},
	}, nil
}

func openMQTTBackend(cfg *config.Config) (*backend, error) {
	topics := mqtt.Topics{
		ADCRequest:  cfg.MQTTTopicADCRequest,
		ADCResponse: cfg.MQTTTopicADCResponse,
		Relay:       cfg.MQTTTopicRelay,
		Servo:       cfg.MQTTTopicServo,
	}.For(cfg.DeviceID)

	// Set once the first subscription succeeds; read from paho's connect callback
	var subscriber atomic.Pointer[mqtt.Subscriber]
	client, err := mqtt.NewClient(mqtt.ClientConfig{
		Broker:   cfg.MQTTBroker,
		ClientID: cfg.MQTTClientID,
		Username: cfg.MQTTUsername,
		Password: cfg.MQTTPassword,
		OnConnect: func() {
			// Restore the subscription after an automatic reconnect
			sub := subscriber.Load()
			if sub == nil {
				return
			}
			if err := sub.Subscribe(); err != nil {
				log.Printf("MQTT: %v", err)
			}
		},
	})
	if err != nil {
		return nil, err
	}

	native := client.GetNativeClient()
	sub := mqtt.NewSubscriber(native, topics.ADCResponse)
	if err := sub.Subscribe(); err != nil {
		client.Close()
		return nil, err
	}
	subscriber.Store(sub)

	node := mqtt.NewNode(mqtt.NewPublisher(native, topics), sub)

	log.Printf("MQTT Topics:")
	log.Printf("  - ADC Request:  %s", topics.ADCRequest)
	log.Printf("  - ADC Response: %s", topics.ADCResponse)
	log.Printf("  - Relay:        %s", topics.Relay)
	log.Printf("  - Servo:        %s", topics.Servo)

	return &backend{
		sensor: node,
		relay:  node,
		servo:  node,
		closers: []func(){
			client.Close,
			func() {
				if err := node.SetState(false); err != nil {
					log.Printf("ACTUATOR FAULT: failed to switch relay off on shutdown: %v", err)
				}
			},
		},
	}, nil
}

func openSimBackend(cfg *config.Config, mapper actuator.DutyMapper, clk clock.Clock) (*backend, error) {
	plantCfg := simulator.DefaultPlantConfig()
	plantCfg.WaterChannel = cfg.WaterADCChannel
	plantCfg.LightChannel = cfg.LightADCChannel
	plantCfg.WaterADCMax = cfg.WaterADCMax
	plantCfg.LightADCMax = cfg.LightADCMax
	plantCfg.ShadedDuty = mapper.Duty(actuator.ShadeClosedAngle)

	plant, err := simulator.NewPlant(plantCfg, clk)
	if err != nil {
		return nil, err
	}
	log.Println("Simulator: Bench plant ready")

	return &backend{sensor: plant, relay: plant, servo: plant}, nil
}
