// Command relocate-media copies locally stored media into the configured
// object store and repoints every image-bearing record at the stored key.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/kendall-kelly/artisan-marketplace-api/config"
	"github.com/kendall-kelly/artisan-marketplace-api/services"
)

func main() {
	log.Println("Starting media relocation...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if !cfg.HasS3() {
		log.Fatalf("AWS_S3_BUCKET is required to relocate media")
	}

	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := services.InitS3Service(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize S3 service: %v", err)
	}

	relocator := services.NewMediaRelocator(
		config.GetDB(),
		store,
		cfg.MediaRoot,
		cfg.MediaRelocationWorkers,
		cfg.MediaRelocationTimeout,
	)

	report, err := relocator.Run(ctx)
	for _, entry := range report {
		fmt.Printf("Re-saved %d %s images.\n", entry.Relocated, entry.Entity)
		if entry.Failed > 0 {
			fmt.Printf("  %d %s images failed, see log.\n", entry.Failed, entry.Entity)
		}
	}
	if err != nil {
		log.Fatalf("Media relocation interrupted: %v", err)
	}
	fmt.Println("Done.")
}
