package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"garden-controller/internal/actuator"
	"garden-controller/internal/clock"
	"garden-controller/internal/control"
	"garden-controller/internal/decision"
	"garden-controller/internal/sensor"
	"garden-controller/pkg/config"
)

func main() {
	log.Println("Starting Garden Controller...")

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancel on SIGINT/SIGTERM; the startup sweep and the loop both honour ctx
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Shutdown signal received, stopping controller...")
		cancel()
	}()

	// === Load inference models ===
	log.Printf("Loading models from %s...", cfg.ModelSource)
	waterModel, shadeModel, err := loadModels(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to load models: %v", err)
	}

	clk := clock.Real{}

	// === Initialize hardware backend ===
	log.Printf("Initializing %s backend...", cfg.HardwareBackend)
	mapper := servoMapper(cfg)
	if err := mapper.Validate(); err != nil {
		log.Fatalf("Invalid servo mapping: %v", err)
	}
	hw, err := openBackend(cfg, mapper, clk)
	if err != nil {
		log.Fatalf("Failed to initialize %s backend: %v", cfg.HardwareBackend, err)
	}
	defer hw.Close()

	// === Build the control pipeline ===
	normalizer, err := sensor.NewNormalizer(sensor.Calibration{
		WaterADCMax: cfg.WaterADCMax,
		LightADCMax: cfg.LightADCMax,
		Clamp:       cfg.ClampFeatures,
	})
	if err != nil {
		log.Fatalf("Invalid sensor calibration: %v", err)
	}

	sweeper, err := actuator.NewSweeper(hw.servo, mapper, clk, cfg.ServoStepDelay)
	if err != nil {
		log.Fatalf("Invalid servo mapping: %v", err)
	}
	waterer := actuator.NewWaterer(hw.relay, clk, actuator.DefaultPulse)

	controlCfg := control.DefaultConfig()
	controlCfg.WaterChannel = cfg.WaterADCChannel
	controlCfg.LightChannel = cfg.LightADCChannel
	controlCfg.CyclePeriod = cfg.Period()
	controlCfg.ReadTimeout = cfg.SensorReadTimeout

	controller, err := control.NewController(
		controlCfg,
		hw.sensor,
		normalizer,
		decision.NewEngine(waterModel, shadeModel),
		sweeper,
		waterer,
		clk,
	)
	if err != nil {
		log.Fatalf("Failed to create controller: %v", err)
	}

	// Park the shade in the position the state machine starts in
	if err := sweeper.OpenShade(ctx); err != nil {
		log.Printf("ACTUATOR FAULT: failed to open shade at startup: %v", err)
	}

	// === Log startup info ===
	log.Println("=== Garden Controller is running ===")
	log.Printf("Backend: %s, device: %s", cfg.HardwareBackend, cfg.DeviceID)
	log.Printf("Cycle period: %v (debug mode: %v)", cfg.Period(), cfg.DebugMode)
	log.Printf("ADC channels: water=%d, light=%d", cfg.WaterADCChannel, cfg.LightADCChannel)
	log.Printf("Thresholds: water>=%.2f, shade>%.2f, shade dwell %v",
		decision.WaterThreshold, decision.ShadeThreshold, control.ShadeDwell)
	log.Println("Press Ctrl+C to exit...")

	controller.Run(ctx)

	log.Println("Shutdown complete. Goodbye!")
}
