package recon

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// checkSpec tags a check function with its identifier. Checks run in the
// order listed in checkOrder; the order affects evidence readability only.
type checkSpec struct {
	id  string
	run func(*packageView) []CheckResult
}

var checkOrder = []checkSpec{
	{CheckPackageCompleteness, checkCompleteness},
	{CheckUnexpectedInvoices, checkUnexpectedInvoices},
	{CheckPeriodConsistency, checkPeriodConsistency},
	{CheckOwnerConsistency, checkOwnerConsistency},
	{CheckRequiredFields, checkRequiredFields},
	{CheckLineSum, checkLineSum},
	{CheckStatementAmount, checkStatementAmount},
	{CheckPackageTotal, checkPackageTotal},
	{CheckLotCoverage, checkLotCoverage},
	{CheckDuplicateInvoices, checkDuplicateInvoices},
}

// checkCompleteness verifies every statement lot reference has an extracted
// invoice. Registered exceptions downgrade the finding to WARN; an
// unregistered gap is a likely extraction failure and blocks.
func checkCompleteness(v *packageView) []CheckResult {
	if len(v.missingKnown) == 0 && len(v.missingUnknown) == 0 {
		return []CheckResult{{
			CheckID:  CheckPackageCompleteness,
			Severity: SeverityBlock,
			Passed:   true,
			Message:  fmt.Sprintf("all %d statement lot references matched an invoice", len(v.statement.LotReferences)),
			Evidence: map[string]any{
				"references": len(v.statement.LotReferences),
				"matched":    len(v.matched),
			},
		}}
	}

	evidence := map[string]any{
		"references": len(v.statement.LotReferences),
		"matched":    len(v.matched),
	}
	if len(v.missingKnown) > 0 {
		known := make([]map[string]any, 0, len(v.missingKnown))
		for _, m := range v.missingKnown {
			known = append(known, map[string]any{
				"invoice_number": m.ref.InvoiceNumber,
				"lot_number":     m.ref.LotNumber,
				"reason":         m.reason,
			})
		}
		evidence["known_exceptions"] = known
	}
	if len(v.missingUnknown) > 0 {
		unknown := make([]map[string]any, 0, len(v.missingUnknown))
		for _, ref := range v.missingUnknown {
			unknown = append(unknown, map[string]any{
				"invoice_number": ref.InvoiceNumber,
				"lot_number":     ref.LotNumber,
			})
		}
		evidence["unexplained_gaps"] = unknown
	}

	severity := SeverityWarn
	message := fmt.Sprintf("%d invoice(s) absent but registered as known exceptions", len(v.missingKnown))
	if len(v.missingUnknown) > 0 {
		severity = SeverityBlock
		message = fmt.Sprintf("%d statement lot reference(s) have no extracted invoice", len(v.missingUnknown))
	}
	return []CheckResult{{
		CheckID:  CheckPackageCompleteness,
		Severity: severity,
		Passed:   false,
		Message:  message,
		Evidence: evidence,
	}}
}

// checkUnexpectedInvoices flags invoices with no matching statement lot
// reference.
func checkUnexpectedInvoices(v *packageView) []CheckResult {
	if len(v.extras) == 0 {
		return []CheckResult{{
			CheckID:  CheckUnexpectedInvoices,
			Severity: SeverityWarn,
			Passed:   true,
			Message:  "every invoice matches a statement lot reference",
		}}
	}
	numbers := make([]string, 0, len(v.extras))
	for _, inv := range v.extras {
		numbers = append(numbers, inv.InvoiceNumber)
	}
	return []CheckResult{{
		CheckID:  CheckUnexpectedInvoices,
		Severity: SeverityWarn,
		Passed:   false,
		Message:  fmt.Sprintf("%d invoice(s) not referenced by the statement", len(v.extras)),
		Evidence: map[string]any{"invoice_numbers": numbers},
	}}
}

// checkPeriodConsistency verifies each dated invoice falls inside the
// statement period, inclusive on both ends.
func checkPeriodConsistency(v *packageView) []CheckResult {
	results := make([]CheckResult, 0, len(v.invoices))
	for i := range v.invoices {
		inv := &v.invoices[i]
		if inv.InvoiceDate == nil {
			continue
		}
		inPeriod := !inv.InvoiceDate.Before(v.statement.PeriodStart) && !inv.InvoiceDate.After(v.statement.PeriodEnd)
		result := CheckResult{
			CheckID:  CheckPeriodConsistency,
			Severity: SeverityWarn,
			Passed:   inPeriod,
			Message:  fmt.Sprintf("invoice %s dated inside statement period", inv.InvoiceNumber),
			Evidence: map[string]any{
				"invoice_number": inv.InvoiceNumber,
				"invoice_date":   inv.InvoiceDate.Format("2006-01-02"),
				"period_start":   v.statement.PeriodStart.Format("2006-01-02"),
				"period_end":     v.statement.PeriodEnd.Format("2006-01-02"),
			},
		}
		if !inPeriod {
			result.Message = fmt.Sprintf("invoice %s dated outside statement period", inv.InvoiceNumber)
		}
		results = append(results, result)
	}
	return results
}

// checkOwnerConsistency compares feedlot and owner identifiers between the
// statement and every invoice. A mismatch indicates cross-contaminated
// extraction and blocks.
func checkOwnerConsistency(v *packageView) []CheckResult {
	results := make([]CheckResult, 0, len(v.invoices))
	for i := range v.invoices {
		inv := &v.invoices[i]
		var mismatches []string
		if inv.FeedlotName != "" && !looseEqual(inv.FeedlotName, v.statement.FeedlotName) {
			mismatches = append(mismatches, "feedlot_name")
		}
		if inv.OwnerNumber != "" && v.statement.OwnerNumber != "" && !looseEqual(inv.OwnerNumber, v.statement.OwnerNumber) {
			mismatches = append(mismatches, "owner_number")
		}
		result := CheckResult{
			CheckID:  CheckOwnerConsistency,
			Severity: SeverityBlock,
			Passed:   len(mismatches) == 0,
			Message:  fmt.Sprintf("invoice %s identifiers match the statement", inv.InvoiceNumber),
			Evidence: map[string]any{
				"invoice_number":    inv.InvoiceNumber,
				"statement_feedlot": v.statement.FeedlotName,
				"invoice_feedlot":   inv.FeedlotName,
			},
		}
		if len(mismatches) > 0 {
			result.Message = fmt.Sprintf("invoice %s does not belong to this statement (%s differ)", inv.InvoiceNumber, strings.Join(mismatches, ", "))
			result.Evidence["mismatched_fields"] = mismatches
			result.Evidence["statement_owner_number"] = v.statement.OwnerNumber
			result.Evidence["invoice_owner_number"] = inv.OwnerNumber
		}
		results = append(results, result)
	}
	return results
}

// checkRequiredFields verifies each invoice carries the structure later
// stages depend on.
func checkRequiredFields(v *packageView) []CheckResult {
	results := make([]CheckResult, 0, len(v.invoices))
	for i := range v.invoices {
		inv := &v.invoices[i]
		var missing []string
		if strings.TrimSpace(inv.InvoiceNumber) == "" {
			missing = append(missing, "invoice_number")
		}
		if strings.TrimSpace(inv.LotNumber) == "" {
			missing = append(missing, "lot_number")
		}
		if inv.InvoiceDate == nil && inv.DueDate == nil {
			missing = append(missing, "date")
		}
		if len(inv.LineItems) == 0 {
			missing = append(missing, "line_items")
		}
		if inv.ResolvedTotal() == nil {
			missing = append(missing, "total")
		}
		result := CheckResult{
			CheckID:  CheckRequiredFields,
			Severity: SeverityBlock,
			Passed:   len(missing) == 0,
			Message:  fmt.Sprintf("invoice %s has all required fields", inv.InvoiceNumber),
			Evidence: map[string]any{"invoice_number": inv.InvoiceNumber},
		}
		if len(missing) > 0 {
			result.Message = fmt.Sprintf("invoice %s missing required fields: %s", inv.InvoiceNumber, strings.Join(missing, ", "))
			result.Evidence["missing_fields"] = missing
		}
		results = append(results, result)
	}
	return results
}

// checkLineSum re-sums line items against the declared invoice total. When
// either side is unavailable the check cannot refute anything, so it warns
// instead of blocking.
func checkLineSum(v *packageView) []CheckResult {
	results := make([]CheckResult, 0, len(v.invoices))
	for i := range v.invoices {
		inv := &v.invoices[i]
		sum, counted := inv.LineSum()
		total := inv.ResolvedTotal()
		if counted == 0 || total == nil {
			results = append(results, CheckResult{
				CheckID:  CheckLineSum,
				Severity: SeverityWarn,
				Passed:   false,
				Message:  fmt.Sprintf("invoice %s line sum not evaluable", inv.InvoiceNumber),
				Evidence: map[string]any{
					"invoice_number":    inv.InvoiceNumber,
					"lines_with_amount": counted,
					"total_present":     total != nil,
				},
			})
			continue
		}
		lineSum := dec(sum)
		declared := dec(*total)
		diff := lineSum.Sub(declared).Abs()
		results = append(results, CheckResult{
			CheckID:  CheckLineSum,
			Severity: SeverityBlock,
			Passed:   diff.LessThanOrEqual(lineSumTolerance),
			Message:  lineSumMessage(inv.InvoiceNumber, diff),
			Evidence: map[string]any{
				"invoice_number": inv.InvoiceNumber,
				"line_sum":       money(lineSum),
				"declared_total": money(declared),
				"difference":     money(diff),
				"tolerance":      money(lineSumTolerance),
			},
		})
	}
	return results
}

func lineSumMessage(invoiceNumber string, diff decimal.Decimal) string {
	if diff.LessThanOrEqual(lineSumTolerance) {
		return fmt.Sprintf("invoice %s line items sum to the declared total", invoiceNumber)
	}
	return fmt.Sprintf("invoice %s line items differ from the declared total by %s", invoiceNumber, money(diff))
}

// checkStatementAmount compares each matched invoice total against the
// statement's declared charge for that lot. The invoice is ground truth: its
// lines are independently re-summed, while the statement figure is a single
// extracted scalar. A mismatch therefore warns about the statement value.
func checkStatementAmount(v *packageView) []CheckResult {
	results := make([]CheckResult, 0, len(v.matched))
	for _, m := range v.matched {
		total := m.invoice.ResolvedTotal()
		if total == nil || m.ref.AmountDue == nil {
			continue
		}
		invoiceTotal := dec(*total)
		statementAmount := dec(*m.ref.AmountDue)
		diff := invoiceTotal.Sub(statementAmount).Abs()
		result := CheckResult{
			CheckID:  CheckStatementAmount,
			Severity: SeverityWarn,
			Passed:   diff.LessThanOrEqual(statementTolerance),
			Message:  fmt.Sprintf("invoice %s agrees with the statement charge", m.invoice.InvoiceNumber),
			Evidence: map[string]any{
				"invoice_number":   m.invoice.InvoiceNumber,
				"invoice_total":    money(invoiceTotal),
				"statement_amount": money(statementAmount),
				"difference":       money(diff),
				"tolerance":        money(statementTolerance),
			},
		}
		if !result.Passed {
			result.Message = fmt.Sprintf("statement charge %s for invoice %s deviates from invoice total %s",
				money(statementAmount), m.invoice.InvoiceNumber, money(invoiceTotal))
			result.Evidence["suspect_value"] = "statement_amount"
		}
		results = append(results, result)
	}
	return results
}

// checkPackageTotal compares the sum of all invoice totals against the
// statement's declared balance, attributing any delta to known-missing
// invoices where possible.
func checkPackageTotal(v *packageView) []CheckResult {
	if v.statement.TotalBalance == nil {
		return []CheckResult{{
			CheckID:  CheckPackageTotal,
			Severity: SeverityWarn,
			Passed:   false,
			Message:  "statement declares no total balance; package total not evaluable",
		}}
	}

	invoiceSum := decimal.Zero
	for i := range v.invoices {
		if total := v.invoices[i].ResolvedTotal(); total != nil {
			invoiceSum = invoiceSum.Add(dec(*total))
		}
	}
	declared := dec(*v.statement.TotalBalance)
	diff := declared.Sub(invoiceSum)

	explained := decimal.Zero
	var missingNumbers []string
	for _, m := range v.missingKnown {
		missingNumbers = append(missingNumbers, m.ref.InvoiceNumber)
		if m.ref.AmountDue != nil {
			explained = explained.Add(dec(*m.ref.AmountDue))
		}
	}
	for _, ref := range v.missingUnknown {
		missingNumbers = append(missingNumbers, ref.InvoiceNumber)
		if ref.AmountDue != nil {
			explained = explained.Add(dec(*ref.AmountDue))
		}
	}
	residual := diff.Sub(explained)

	passed := diff.Abs().LessThanOrEqual(packageTotalTolerance) ||
		(len(missingNumbers) > 0 && !explained.IsZero() && residual.Abs().LessThanOrEqual(packageTotalTolerance))

	result := CheckResult{
		CheckID:  CheckPackageTotal,
		Severity: SeverityWarn,
		Passed:   passed,
		Message:  "invoice totals reconcile with the statement balance",
		Evidence: map[string]any{
			"statement_total": money(declared),
			"invoice_sum":     money(invoiceSum),
			"delta":           money(diff.Abs()),
			"tolerance":       money(packageTotalTolerance),
		},
	}
	if len(missingNumbers) > 0 {
		result.Evidence["missing_invoices"] = missingNumbers
	}
	if !passed {
		result.Message = fmt.Sprintf("invoice totals differ from the statement balance by %s", money(diff.Abs()))
		if len(missingNumbers) > 0 {
			result.Message += fmt.Sprintf("; %d invoice(s) missing (%s)", len(missingNumbers), strings.Join(missingNumbers, ", "))
		}
	}
	return []CheckResult{result}
}

// checkLotCoverage is an informational cross-check that every lot mentioned
// anywhere in the package has at least one invoice.
func checkLotCoverage(v *packageView) []CheckResult {
	covered := make(map[string]bool)
	for i := range v.invoices {
		if lot := strings.TrimSpace(v.invoices[i].LotNumber); lot != "" {
			covered[lot] = true
		}
	}
	mentioned := make(map[string]bool)
	for _, ref := range v.statement.LotReferences {
		if lot := strings.TrimSpace(ref.LotNumber); lot != "" {
			mentioned[lot] = true
		}
	}
	var uncovered []string
	for lot := range mentioned {
		if !covered[lot] {
			uncovered = append(uncovered, lot)
		}
	}
	sort.Strings(uncovered)
	if len(uncovered) == 0 {
		return []CheckResult{{
			CheckID:  CheckLotCoverage,
			Severity: SeverityInfo,
			Passed:   true,
			Message:  fmt.Sprintf("all %d lot(s) have at least one invoice", len(mentioned)),
		}}
	}
	return []CheckResult{{
		CheckID:  CheckLotCoverage,
		Severity: SeverityInfo,
		Passed:   false,
		Message:  fmt.Sprintf("%d lot(s) have no invoice", len(uncovered)),
		Evidence: map[string]any{"lots_without_invoice": uncovered},
	}}
}

// checkDuplicateInvoices blocks when two invoices in the package share a
// number.
func checkDuplicateInvoices(v *packageView) []CheckResult {
	seen := make(map[string]int)
	for i := range v.invoices {
		num := strings.TrimSpace(v.invoices[i].InvoiceNumber)
		if num == "" {
			continue
		}
		seen[num]++
	}
	var duplicates []string
	for num, count := range seen {
		if count > 1 {
			duplicates = append(duplicates, num)
		}
	}
	sort.Strings(duplicates)
	if len(duplicates) == 0 {
		return []CheckResult{{
			CheckID:  CheckDuplicateInvoices,
			Severity: SeverityBlock,
			Passed:   true,
			Message:  "no duplicate invoice numbers in the package",
		}}
	}
	return []CheckResult{{
		CheckID:  CheckDuplicateInvoices,
		Severity: SeverityBlock,
		Passed:   false,
		Message:  fmt.Sprintf("duplicate invoice number(s): %s", strings.Join(duplicates, ", ")),
		Evidence: map[string]any{"invoice_numbers": duplicates},
	}}
}

func looseEqual(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
