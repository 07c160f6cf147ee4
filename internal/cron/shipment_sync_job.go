package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/parcelflow-backend/internal/statussync"
	"github.com/angelmondragon/parcelflow-backend/pkg/db/models"
	"github.com/angelmondragon/parcelflow-backend/pkg/logger"
	"github.com/google/uuid"
)

const (
	defaultSyncBatchSize    = 50
	defaultSyncBatchDelay   = time.Second
	maxSyncCandidatesPerRun = 1000
)

type statusSyncer interface {
	Candidates(ctx context.Context, limit int) ([]models.Shipment, error)
	SyncBatch(ctx context.Context, shipmentIDs []uuid.UUID) (*statussync.BatchResult, error)
}

// ShipmentSyncJobParams configure the carrier status reconciliation job.
type ShipmentSyncJobParams struct {
	Logger     *logger.Logger
	Syncer     statusSyncer
	BatchSize  int
	BatchDelay time.Duration
}

// NewShipmentSyncJob builds the job that reconciles active shipments against
// the carrier in throttled batches.
func NewShipmentSyncJob(params ShipmentSyncJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Syncer == nil {
		return nil, fmt.Errorf("status syncer required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultSyncBatchSize
	}
	batchDelay := params.BatchDelay
	if batchDelay < 0 {
		batchDelay = defaultSyncBatchDelay
	}
	return &shipmentSyncJob{
		logg:       params.Logger,
		syncer:     params.Syncer,
		batchSize:  batchSize,
		batchDelay: batchDelay,
	}, nil
}

type shipmentSyncJob struct {
	logg       *logger.Logger
	syncer     statusSyncer
	batchSize  int
	batchDelay time.Duration
}

func (j *shipmentSyncJob) Name() string { return "shipment-status-sync" }

// Run loads the active shipments that are due for a refresh, oldest sync
// first, and walks them in carrier-sized batches. A failed batch is logged
// and skipped so one bad waybill cannot stall the rest of the run.
func (j *shipmentSyncJob) Run(ctx context.Context) error {
	candidates, err := j.syncer.Candidates(ctx, maxSyncCandidatesPerRun)
	if err != nil {
		return fmt.Errorf("load sync candidates: %w", err)
	}
	if len(candidates) == 0 {
		j.logg.Info(ctx, "no shipments due for status sync")
		return nil
	}

	ids := make([]uuid.UUID, 0, len(candidates))
	for _, shipment := range candidates {
		ids = append(ids, shipment.ID)
	}

	var synced, changed, failedBatches int
	for batchIndex := 0; len(ids) > 0; batchIndex++ {
		if batchIndex > 0 && j.batchDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(j.batchDelay):
			}
		}

		size := j.batchSize
		if size > len(ids) {
			size = len(ids)
		}
		batch := ids[:size]
		ids = ids[size:]

		result, err := j.syncer.SyncBatch(ctx, batch)
		if err != nil {
			failedBatches++
			batchCtx := j.logg.WithFields(ctx, map[string]any{
				"batch":        batchIndex,
				"shipment_ids": batch,
			})
			j.logg.Error(batchCtx, "status sync batch failed", err)
		}
		if result != nil {
			synced += len(result.Shipments)
			changed += len(result.StatusChanges)
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"candidates":     len(candidates),
		"synced":         synced,
		"status_changes": changed,
		"failed_batches": failedBatches,
	})
	j.logg.Info(logCtx, "shipment status sync complete")
	return nil
}
