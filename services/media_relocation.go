package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kendall-kelly/artisan-marketplace-api/utils"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// RelocationTarget is one image column of one entity type
type RelocationTarget struct {
	Entity string
	Table  string
	Column string
}

// DefaultRelocationTargets lists every image-bearing column in the schema
func DefaultRelocationTargets() []RelocationTarget {
	return []RelocationTarget{
		{Entity: "Inventory", Table: "inventories", Column: "image"},
		{Entity: "Profile", Table: "profiles", Column: "image"},
		{Entity: "PortfolioImage", Table: "portfolio_images", Column: "image"},
		{Entity: "ArtisanUploadImage", Table: "artisan_upload_images", Column: "image"},
		{Entity: "OrderStatus", Table: "order_statuses", Column: "image"},
		{Entity: "CustomDesignRequest", Table: "custom_design_requests", Column: "reference_image"},
	}
}

// EntityRelocation counts the outcome of one entity type
type EntityRelocation struct {
	Entity    string
	Relocated int
	Skipped   int
	Failed    int
}

// RelocationReport holds one entry per target, in target order
type RelocationReport []EntityRelocation

// Relocated returns the number of relocated records for entity
func (r RelocationReport) Relocated(entity string) int {
	for _, e := range r {
		if e.Entity == entity {
			return e.Relocated
		}
	}
	return 0
}

type relocationOutcome int

const (
	outcomeRelocated relocationOutcome = iota
	outcomeSkipped
	outcomeFailed
)

type mediaRecord struct {
	ID   uint
	Path string
}

// MediaRelocator re-uploads locally stored media into the configured object store
type MediaRelocator struct {
	db        *gorm.DB
	store     S3Interface
	mediaRoot string
	workers   int
	timeout   time.Duration
	targets   []RelocationTarget
}

// NewMediaRelocator creates a relocator over every default target.
// workers bounds parallel records; timeout bounds each record.
func NewMediaRelocator(db *gorm.DB, store S3Interface, mediaRoot string, workers int, timeout time.Duration) *MediaRelocator {
	if workers < 1 {
		workers = 1
	}
	return &MediaRelocator{
		db:        db,
		store:     store,
		mediaRoot: mediaRoot,
		workers:   workers,
		timeout:   timeout,
		targets:   DefaultRelocationTargets(),
	}
}

// Run relocates every target. A failing record or entity type is logged and
// skipped; only cancellation of ctx makes Run return an error.
func (r *MediaRelocator) Run(ctx context.Context) (RelocationReport, error) {
	report := make(RelocationReport, 0, len(r.targets))

	for _, target := range r.targets {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		entry := r.relocateTarget(ctx, target)
		log.Printf("Re-saved %d %s images (%d skipped, %d failed).", entry.Relocated, entry.Entity, entry.Skipped, entry.Failed)
		report = append(report, entry)
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}
	log.Println("Media relocation done.")
	return report, nil
}

func (r *MediaRelocator) relocateTarget(ctx context.Context, target RelocationTarget) EntityRelocation {
	entry := EntityRelocation{Entity: target.Entity}

	var records []mediaRecord
	err := r.db.WithContext(ctx).
		Table(target.Table).
		Select(fmt.Sprintf("id, %s AS path", target.Column)).
		Where(fmt.Sprintf("%s IS NOT NULL AND %s <> ''", target.Column, target.Column)).
		Order("id ASC").
		Scan(&records).Error
	if err != nil {
		log.Printf("Failed to list %s records: %v", target.Entity, err)
		return entry
	}

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(r.workers)

	for _, rec := range records {
		rec := rec
		g.Go(func() error {
			outcome := r.relocateRecord(ctx, target, rec)

			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case outcomeRelocated:
				entry.Relocated++
			case outcomeSkipped:
				entry.Skipped++
			default:
				entry.Failed++
			}
			return nil
		})
	}
	_ = g.Wait()

	return entry
}

// relocateRecord uploads one record's file and then repoints the record.
// The row is not locked while the upload is in flight.
func (r *MediaRelocator) relocateRecord(ctx context.Context, target RelocationTarget, rec mediaRecord) relocationOutcome {
	key := utils.CleanMediaKey(rec.Path)
	if key == "" {
		log.Printf("Skipping %s %d: unusable media path %q", target.Entity, rec.ID, rec.Path)
		return outcomeSkipped
	}

	recordCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	content, err := readMediaFile(recordCtx, filepath.Join(r.mediaRoot, filepath.FromSlash(key)))
	if errors.Is(err, os.ErrNotExist) {
		return outcomeSkipped
	}
	if err != nil {
		log.Printf("Failed to read %s %d (%s): %v", target.Entity, rec.ID, key, err)
		return outcomeFailed
	}

	if err := r.store.PutObject(recordCtx, key, content); err != nil {
		log.Printf("Failed to upload %s %d (%s): %v", target.Entity, rec.ID, key, err)
		return outcomeFailed
	}

	err = r.db.WithContext(recordCtx).
		Table(target.Table).
		Where("id = ?", rec.ID).
		Update(target.Column, key).Error
	if err != nil {
		log.Printf("Failed to update %s %d reference: %v", target.Entity, rec.ID, err)
		return outcomeFailed
	}

	return outcomeRelocated
}

// readMediaFile reads path, giving up once ctx is done
func readMediaFile(ctx context.Context, path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(contextReader{ctx: ctx, r: f})
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}
