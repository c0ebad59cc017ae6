package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/feedlot-ap/feedlot-ap/internal/pipeline"
	"github.com/feedlot-ap/feedlot-ap/internal/shared"
)

// PackageProcessor handles package:process tasks: load the package, run the
// full resolution pipeline, persist the decision artifact. Asynq owns the
// retry policy; the idempotency store keeps a retried task from persisting a
// second artifact for an unchanged run.
type PackageProcessor struct {
	logger      *slog.Logger
	service     *pipeline.Service
	packages    pipeline.PackageStore
	artifacts   pipeline.ArtifactStore
	idempotency *shared.IdempotencyStore
}

// NewPackageProcessor constructs the handler.
func NewPackageProcessor(logger *slog.Logger, service *pipeline.Service, packages pipeline.PackageStore, artifacts pipeline.ArtifactStore, idempotency *shared.IdempotencyStore) *PackageProcessor {
	return &PackageProcessor{
		logger:      logger,
		service:     service,
		packages:    packages,
		artifacts:   artifacts,
		idempotency: idempotency,
	}
}

// Handle implements the asynq handler for TaskTypePackageProcess.
func (p *PackageProcessor) Handle(ctx context.Context, t *asynq.Task) error {
	var payload pipeline.PackageTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	pkg, err := p.packages.GetPackage(ctx, payload.PackageID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			p.logger.Warn("package vanished before processing", slog.String("package_id", payload.PackageID.String()))
			return asynq.SkipRetry
		}
		return err
	}

	idemKey := payload.PackageID.String() + ":" + t.ResultWriter().TaskID()
	if p.idempotency != nil {
		if err := p.idempotency.CheckAndInsert(ctx, idemKey, "package_process"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				p.logger.Info("package task already processed", slog.String("package_id", payload.PackageID.String()))
				return nil
			}
			return err
		}
	}

	result, err := p.service.ProcessPackage(ctx, pkg)
	if err != nil {
		if p.idempotency != nil {
			_ = p.idempotency.Delete(ctx, idemKey)
		}
		return err
	}
	if err := p.artifacts.SaveResult(ctx, result); err != nil {
		if p.idempotency != nil {
			_ = p.idempotency.Delete(ctx, idemKey)
		}
		return err
	}
	return nil
}
