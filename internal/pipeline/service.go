package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/feedlot-ap/feedlot-ap/internal/coding"
	"github.com/feedlot-ap/feedlot-ap/internal/document"
	"github.com/feedlot-ap/feedlot-ap/internal/entity"
	"github.com/feedlot-ap/feedlot-ap/internal/observability"
	"github.com/feedlot-ap/feedlot-ap/internal/recon"
	"github.com/feedlot-ap/feedlot-ap/internal/refdata"
	"github.com/feedlot-ap/feedlot-ap/internal/vendor"
)

const defaultWorkers = 4

// Service wires the four resolution stages together.
type Service struct {
	logger   *slog.Logger
	bundle   *refdata.Bundle
	recon    *recon.Engine
	entities *entity.Resolver
	vendors  *vendor.Resolver
	coder    *coding.Engine
	aliases  vendor.AliasStore
	metrics  *observability.Metrics
	workers  int
	now      func() time.Time
}

// NewService builds the pipeline from validated reference data. The alias
// store is the only stateful collaborator.
func NewService(logger *slog.Logger, bundle *refdata.Bundle, aliases vendor.AliasStore, catalog vendor.Catalog, metrics *observability.Metrics, workers int) (*Service, error) {
	coder, err := coding.NewEngine(bundle.Mappings, bundle.DimensionRules)
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Service{
		logger:   logger,
		bundle:   bundle,
		recon:    recon.NewEngine(bundle.Exceptions),
		entities: entity.NewResolver(),
		vendors:  vendor.NewResolver(aliases, catalog),
		coder:    coder,
		aliases:  aliases,
		metrics:  metrics,
		workers:  workers,
		now:      time.Now,
	}, nil
}

// Reconcile runs the reconciliation engine for one package.
func (s *Service) Reconcile(pkg document.Package) (recon.Report, error) {
	if err := document.ValidatePackage(pkg); err != nil {
		return recon.Report{}, err
	}
	return s.recon.Reconcile(pkg.Statement, pkg.Invoices, pkg.ScopeKey)
}

// ResolveEntity scores an invoice's routing signals against the loaded
// profiles.
func (s *Service) ResolveEntity(signals []entity.Signal) entity.Resolution {
	return s.entities.Resolve(signals, s.bundle.Profiles)
}

// ResolveVendor matches a raw vendor name under an entity.
func (s *Service) ResolveVendor(ctx context.Context, entityID, rawName, rawAddress string) (vendor.Resolution, error) {
	return s.vendors.Resolve(ctx, entityID, rawName, rawAddress)
}

// ConfirmVendor records a human-confirmed vendor match as an alias.
func (s *Service) ConfirmVendor(ctx context.Context, entityID, rawName string, v vendor.Vendor) (vendor.Alias, error) {
	return s.vendors.Confirm(ctx, entityID, rawName, v)
}

// CodeInvoice maps one invoice's lines to GL accounts and dimensions.
func (s *Service) CodeInvoice(inv document.Invoice, entityID, vendorID string) coding.InvoiceCoding {
	return s.coder.CodeInvoice(inv, entityID, vendorID)
}

// ProcessPackage runs the full pipeline: reconciliation once, then
// entity→vendor→coding per invoice, invoices in parallel on a bounded pool.
// A data-quality finding on one invoice never aborts its siblings; only
// infrastructure failures (store errors, cancellation) propagate.
func (s *Service) ProcessPackage(ctx context.Context, pkg document.Package) (PackageResult, error) {
	started := s.now().UTC()

	report, err := s.Reconcile(pkg)
	if err != nil {
		return PackageResult{}, err
	}

	decisions := make([]InvoiceDecision, len(pkg.Invoices))
	sem := semaphore.NewWeighted(int64(s.workers))
	g, gctx := errgroup.WithContext(ctx)
	for i := range pkg.Invoices {
		if err := sem.Acquire(gctx, 1); err != nil {
			_ = g.Wait()
			return PackageResult{}, err
		}
		g.Go(func() error {
			defer sem.Release(1)
			decision, err := s.resolveInvoice(gctx, pkg.Invoices[i])
			if err != nil {
				return err
			}
			decisions[i] = decision
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return PackageResult{}, fmt.Errorf("process package %s: %w", pkg.ScopeKey, err)
	}

	result := PackageResult{
		PackageID:   pkg.ID,
		ScopeKey:    pkg.ScopeKey,
		Report:      report,
		Invoices:    decisions,
		StartedAt:   started,
		CompletedAt: s.now().UTC(),
	}
	s.observe(result)
	return result, nil
}

// resolveInvoice runs the per-invoice stages in order: vendor matching is
// scoped to the resolved entity, and coding precedence depends on both.
func (s *Service) resolveInvoice(ctx context.Context, inv document.Invoice) (InvoiceDecision, error) {
	decision := InvoiceDecision{InvoiceNumber: inv.InvoiceNumber}

	aliasEntities, err := s.aliases.EntitiesFor(ctx, vendor.Normalize(inv.VendorName))
	if err != nil {
		return InvoiceDecision{}, fmt.Errorf("invoice %s: alias signal: %w", inv.InvoiceNumber, err)
	}
	signals := entity.ExtractSignals(inv, aliasEntities)
	decision.Entity = s.entities.Resolve(signals, s.bundle.Profiles)

	if !decision.Entity.IsAutoAssigned {
		decision.NeedsReview = true
		decision.ReviewReasons = append(decision.ReviewReasons, "entity not auto-assigned")
		return decision, nil
	}

	vres, err := s.vendors.Resolve(ctx, decision.Entity.EntityID, inv.VendorName, remitAddress(inv))
	if err != nil {
		return InvoiceDecision{}, fmt.Errorf("invoice %s: %w", inv.InvoiceNumber, err)
	}
	decision.Vendor = &vres

	var vendorID string
	if vres.Vendor != nil {
		vendorID = vres.Vendor.ID
	} else {
		decision.NeedsReview = true
		decision.ReviewReasons = append(decision.ReviewReasons, "vendor unmatched")
	}

	codingResult := s.coder.CodeInvoice(inv, decision.Entity.EntityID, vendorID)
	if profile, ok := s.bundle.Profile(decision.Entity.EntityID); ok {
		applyDefaultDimensions(&codingResult, profile.DefaultDimensions)
	}
	decision.Coding = &codingResult
	if !codingResult.IsComplete {
		decision.NeedsReview = true
		decision.ReviewReasons = append(decision.ReviewReasons, codingResult.Gaps...)
	}
	return decision, nil
}

// applyDefaultDimensions fills entity-level default dimension values into
// every line that does not already carry the dimension. Rule-computed values
// always win.
func applyDefaultDimensions(out *coding.InvoiceCoding, defaults map[string]string) {
	if len(defaults) == 0 {
		return
	}
	for i := range out.Lines {
		if out.Lines[i].Dimensions == nil {
			out.Lines[i].Dimensions = make(map[string]string, len(defaults))
		}
		for code, value := range defaults {
			if _, ok := out.Lines[i].Dimensions[code]; !ok {
				out.Lines[i].Dimensions[code] = value
			}
		}
	}
}

func remitAddress(inv document.Invoice) string {
	parts := make([]string, 0, 2)
	if inv.RemitToCity != "" {
		parts = append(parts, inv.RemitToCity)
	}
	if inv.RemitToState != "" {
		parts = append(parts, inv.RemitToState)
	}
	return strings.Join(parts, ", ")
}

func (s *Service) observe(result PackageResult) {
	if s.metrics != nil {
		s.metrics.ObservePackage(result.Report, result.CompletedAt.Sub(result.StartedAt))
		for _, d := range result.Invoices {
			s.metrics.ObserveInvoice(d.Entity.IsAutoAssigned, d.NeedsReview)
		}
	}
	if s.logger != nil {
		s.logger.Info("package processed",
			slog.String("scope", result.ScopeKey),
			slog.String("status", string(result.Report.Status)),
			slog.Int("invoices", len(result.Invoices)),
			slog.Int("blocking", result.Report.Summary.Blocking),
			slog.Int("warnings", result.Report.Summary.Warnings),
		)
	}
}
