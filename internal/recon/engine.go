package recon

import (
	"fmt"
	"strings"

	"github.com/feedlot-ap/feedlot-ap/internal/document"
)

// Engine runs the check library against one package.
type Engine struct {
	exceptions ExceptionRegistry
}

// NewEngine constructs an Engine. A nil registry behaves as empty.
func NewEngine(exceptions ExceptionRegistry) *Engine {
	if exceptions == nil {
		exceptions = NoExceptions
	}
	return &Engine{exceptions: exceptions}
}

// Reconcile evaluates every check against the statement and its invoices.
// Data-quality anomalies become check results; the only hard error is a
// structurally malformed statement.
func (e *Engine) Reconcile(statement document.Statement, invoices []document.Invoice, scopeKey string) (Report, error) {
	if err := document.ValidateStatement(statement); err != nil {
		return Report{}, fmt.Errorf("reconcile %s: %w", scopeKey, err)
	}

	view := newPackageView(statement, invoices, scopeKey, e.exceptions)

	var checks []CheckResult
	for _, spec := range checkOrder {
		checks = append(checks, spec.run(view)...)
	}

	status, summary := deriveStatus(checks)
	return Report{
		ScopeKey: scopeKey,
		Status:   status,
		Checks:   checks,
		Summary:  summary,
	}, nil
}

// matchedRef pairs a statement lot reference with the invoice it matched.
type matchedRef struct {
	ref     document.LotReference
	invoice *document.Invoice
}

// missingRef is a lot reference with no extracted invoice, partitioned by the
// exception registry.
type missingRef struct {
	ref    document.LotReference
	reason string
}

// packageView precomputes the statement/invoice join every check reads.
type packageView struct {
	scopeKey  string
	statement document.Statement
	invoices  []document.Invoice

	matched        []matchedRef
	missingKnown   []missingRef
	missingUnknown []document.LotReference
	extras         []*document.Invoice
}

func newPackageView(statement document.Statement, invoices []document.Invoice, scopeKey string, exceptions ExceptionRegistry) *packageView {
	v := &packageView{
		scopeKey:  scopeKey,
		statement: statement,
		invoices:  invoices,
	}

	byNumber := make(map[string]*document.Invoice, len(invoices))
	for i := range invoices {
		num := strings.TrimSpace(invoices[i].InvoiceNumber)
		if num == "" {
			continue
		}
		if _, exists := byNumber[num]; !exists {
			byNumber[num] = &invoices[i]
		}
	}

	referenced := make(map[string]bool, len(statement.LotReferences))
	for _, ref := range statement.LotReferences {
		num := strings.TrimSpace(ref.InvoiceNumber)
		referenced[num] = true
		if inv, ok := byNumber[num]; ok {
			v.matched = append(v.matched, matchedRef{ref: ref, invoice: inv})
			continue
		}
		if reason, ok := exceptions.Reason(scopeKey, num); ok {
			v.missingKnown = append(v.missingKnown, missingRef{ref: ref, reason: reason})
		} else {
			v.missingUnknown = append(v.missingUnknown, ref)
		}
	}

	for i := range invoices {
		if !referenced[strings.TrimSpace(invoices[i].InvoiceNumber)] {
			v.extras = append(v.extras, &invoices[i])
		}
	}
	return v
}
