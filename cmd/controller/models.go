package main

import (
	"context"
	"fmt"

	"garden-controller/internal/database"
	"garden-controller/internal/decision"
	"garden-controller/internal/ml"
	"garden-controller/pkg/config"
)

// loadModels loads and shape-checks the water and shade networks
func loadModels(ctx context.Context, cfg *config.Config) (*ml.Network, *ml.Network, error) {
	activation, err := ml.ParseActivation(cfg.ModelActivation)
	if err != nil {
		return nil, nil, err
	}

	var water, shade *ml.Network
	switch cfg.ModelSource {
	case config.ModelSourceClickHouse:
		db, err := database.NewClickHouseDB(cfg.ClickHouseAddr, cfg.ClickHouseDB, cfg.ClickHouseUser, cfg.ClickHousePass)
		if err != nil {
			return nil, nil, err
		}
		defer db.Close()

		if water, err = loadRegistryModel(ctx, db, cfg.WaterModelName, activation); err != nil {
			return nil, nil, err
		}
		if shade, err = loadRegistryModel(ctx, db, cfg.ShadeModelName, activation); err != nil {
			return nil, nil, err
		}
	default:
		if water, err = ml.LoadFile(cfg.WaterModelPath, activation); err != nil {
			return nil, nil, fmt.Errorf("water model: %w", err)
		}
		if shade, err = ml.LoadFile(cfg.ShadeModelPath, activation); err != nil {
			return nil, nil, fmt.Errorf("shade model: %w", err)
		}
	}

	if err := water.CheckShape(decision.FeatureCount, 1); err != nil {
		return nil, nil, fmt.Errorf("water model: %w", err)
	}
	if err := shade.CheckShape(decision.FeatureCount, 1); err != nil {
		return nil, nil, fmt.Errorf("shade model: %w", err)
	}
	return water, shade, nil
}

// loadRegistryModel fetches the latest version of name. The stored activation
// wins over the configured one when present.
func loadRegistryModel(ctx context.Context, db *database.ClickHouseDB, name string, fallback ml.Activation) (*ml.Network, error) {
	record, err := db.LoadLatestModel(ctx, name)
	if err != nil {
		return nil, err
	}

	activation := fallback
	if record.Activation != "" {
		if activation, err = ml.ParseActivation(record.Activation); err != nil {
			return nil, fmt.Errorf("model %q v%d: %w", name, record.Version, err)
		}
	}

	net, err := ml.Deserialize(record.Network, activation)
	if err != nil {
		return nil, fmt.Errorf("model %q v%d: %w", name, record.Version, err)
	}
	return net, nil
}
