// Package pipeline sequences the resolution core for one package:
// reconciliation once, then entity, vendor and coding resolution per invoice
// on a bounded worker pool. Retries belong to the orchestration layer above.
package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/feedlot-ap/feedlot-ap/internal/coding"
	"github.com/feedlot-ap/feedlot-ap/internal/entity"
	"github.com/feedlot-ap/feedlot-ap/internal/recon"
	"github.com/feedlot-ap/feedlot-ap/internal/vendor"
)

// InvoiceDecision is the audit-ready outcome for one invoice. Low-confidence
// resolutions carry their candidates so a reviewer can decide without
// re-deriving anything.
type InvoiceDecision struct {
	InvoiceNumber string                `json:"invoice_number"`
	Entity        entity.Resolution     `json:"entity"`
	Vendor        *vendor.Resolution    `json:"vendor,omitempty"`
	Coding        *coding.InvoiceCoding `json:"coding,omitempty"`
	NeedsReview   bool                  `json:"needs_review"`
	ReviewReasons []string              `json:"review_reasons,omitempty"`
}

// PackageResult is the full decision artifact for one package.
type PackageResult struct {
	PackageID   uuid.UUID         `json:"package_id"`
	ScopeKey    string            `json:"scope_key"`
	Report      recon.Report      `json:"report"`
	Invoices    []InvoiceDecision `json:"invoices"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt time.Time         `json:"completed_at"`
}
