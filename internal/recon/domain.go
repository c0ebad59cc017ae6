// Package recon validates a statement package: intra-invoice consistency and
// cross-document reconciliation against the governing statement. Every
// data-quality anomaly becomes a check result; nothing here throws on bad
// numbers.
package recon

// Severity grades a check finding.
type Severity string

const (
	SeverityBlock Severity = "BLOCK"
	SeverityWarn  Severity = "WARN"
	SeverityInfo  Severity = "INFO"
)

// Status is the package-level outcome derived from failing checks.
type Status string

const (
	StatusPass Status = "PASS"
	StatusWarn Status = "WARN"
	StatusFail Status = "FAIL"
)

// Check identifiers, fixed taxonomy. Evaluation order is defined in checks.go.
const (
	CheckPackageCompleteness = "package_completeness"
	CheckUnexpectedInvoices  = "unexpected_invoices"
	CheckPeriodConsistency   = "period_consistency"
	CheckOwnerConsistency    = "owner_consistency"
	CheckRequiredFields      = "required_fields"
	CheckLineSum             = "line_sum_match"
	CheckStatementAmount     = "statement_amount_match"
	CheckPackageTotal        = "package_total"
	CheckLotCoverage         = "lot_coverage"
	CheckDuplicateInvoices   = "duplicate_invoices"
)

// CheckResult records one finding. Append-only: results are never mutated
// after creation.
type CheckResult struct {
	CheckID  string         `json:"check_id"`
	Severity Severity       `json:"severity"`
	Passed   bool           `json:"passed"`
	Message  string         `json:"message"`
	Evidence map[string]any `json:"evidence,omitempty"`
}

// Summary counts findings for quick triage.
type Summary struct {
	Passed   int `json:"passed"`
	Total    int `json:"total"`
	Blocking int `json:"blocking"`
	Warnings int `json:"warnings"`
}

// Report is the full reconciliation outcome for one package.
type Report struct {
	ScopeKey string        `json:"scope_key"`
	Status   Status        `json:"status"`
	Checks   []CheckResult `json:"checks"`
	Summary  Summary       `json:"summary"`
}

// deriveStatus applies the monotonic severity rule: FAIL on any failed BLOCK,
// else WARN on any failed WARN, else PASS. INFO findings never change status.
func deriveStatus(checks []CheckResult) (Status, Summary) {
	sum := Summary{Total: len(checks)}
	for _, c := range checks {
		if c.Passed {
			sum.Passed++
			continue
		}
		switch c.Severity {
		case SeverityBlock:
			sum.Blocking++
		case SeverityWarn:
			sum.Warnings++
		}
	}
	switch {
	case sum.Blocking > 0:
		return StatusFail, sum
	case sum.Warnings > 0:
		return StatusWarn, sum
	default:
		return StatusPass, sum
	}
}
