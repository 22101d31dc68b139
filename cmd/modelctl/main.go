// Command modelctl writes sample models and manages the ClickHouse model registry.
//
//	modelctl sample -out DIR
//	modelctl publish -name NAME -file PATH [-activation sigmoid]
//	modelctl show -name NAME
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"garden-controller/internal/database"
	"garden-controller/internal/decision"
	"garden-controller/internal/ml"
	"garden-controller/internal/models"
	"garden-controller/pkg/config"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := config.Load()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "sample":
		err = runSample(os.Args[2:])
	case "publish":
		err = runPublish(ctx, cfg, os.Args[2:])
	case "show":
		err = runShow(ctx, cfg, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatalf("modelctl %s: %v", os.Args[1], err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: modelctl sample -out DIR")
	fmt.Fprintln(os.Stderr, "       modelctl publish -name NAME -file PATH [-activation ACT]")
	fmt.Fprintln(os.Stderr, "       modelctl show -name NAME")
}

func runSample(args []string) error {
	fs := flag.NewFlagSet("sample", flag.ExitOnError)
	out := fs.String("out", "./model", "directory to write water.json and shade.json into")
	fs.Parse(args)

	if err := os.MkdirAll(*out, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", *out, err)
	}
	if err := ml.CreateSampleModel(filepath.Join(*out, "water.json"), ml.SampleWaterNetwork()); err != nil {
		return err
	}
	return ml.CreateSampleModel(filepath.Join(*out, "shade.json"), ml.SampleShadeNetwork())
}

func runPublish(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("publish", flag.ExitOnError)
	name := fs.String("name", "", "registry name, e.g. water or shade")
	file := fs.String("file", "", "serialized model file")
	act := fs.String("activation", cfg.ModelActivation, "expected activation; fills in a file that does not name one")
	fs.Parse(args)

	if *name == "" || *file == "" {
		return fmt.Errorf("-name and -file are required")
	}

	activation, err := ml.ParseActivation(*act)
	if err != nil {
		return err
	}

	// Refuse to publish anything the controller would refuse to load
	net, err := ml.LoadFile(*file, activation)
	if err != nil {
		return err
	}
	if err := net.CheckShape(decision.FeatureCount, 1); err != nil {
		return err
	}
	serialized, err := net.Serialize()
	if err != nil {
		return err
	}

	db, err := openRegistry(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	version, err := db.SaveModel(ctx, &models.ModelRecord{
		Name:       *name,
		Activation: string(net.Activation),
		Network:    serialized,
		CreatedAt:  time.Now(),
	})
	if err != nil {
		return err
	}

	fmt.Printf("published %s version %d\n", *name, version)
	return nil
}

func runShow(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	name := fs.String("name", "", "registry name")
	fs.Parse(args)

	if *name == "" {
		return fmt.Errorf("-name is required")
	}

	db, err := openRegistry(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	record, err := db.LoadLatestModel(ctx, *name)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(record)
}

func openRegistry(cfg *config.Config) (*database.ClickHouseDB, error) {
	return database.NewClickHouseDB(cfg.ClickHouseAddr, cfg.ClickHouseDB, cfg.ClickHouseUser, cfg.ClickHousePass)
}
