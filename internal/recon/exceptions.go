package recon

// ExceptionRegistry answers whether a missing invoice is a documented source
// defect rather than an extraction failure. External configuration, not
// learned data.
type ExceptionRegistry interface {
	// Reason returns the documented reason an invoice is known to be absent
	// from the given scope, and whether such an exception exists.
	Reason(scopeKey, invoiceNumber string) (string, bool)
}

// StaticExceptions is a map-backed registry loaded from configuration.
type StaticExceptions map[string]map[string]string

// Reason implements ExceptionRegistry.
func (s StaticExceptions) Reason(scopeKey, invoiceNumber string) (string, bool) {
	byInvoice, ok := s[scopeKey]
	if !ok {
		return "", false
	}
	reason, ok := byInvoice[invoiceNumber]
	return reason, ok
}

// NoExceptions is the registry used when no exceptions are configured.
var NoExceptions = StaticExceptions{}
