package entity

import (
	"strings"

	"github.com/feedlot-ap/feedlot-ap/internal/document"
)

// ExtractSignals derives routing signals from an extracted invoice.
// aliasEntityIDs lists entities under which the invoice's raw vendor name is
// already known; the caller looks those up before resolution.
func ExtractSignals(inv document.Invoice, aliasEntityIDs []string) []Signal {
	var signals []Signal
	if v := strings.TrimSpace(inv.OwnerNumber); v != "" {
		signals = append(signals, Signal{Type: SignalOwnerNumber, Value: v})
	}
	if v := strings.TrimSpace(inv.RemitToState); v != "" {
		signals = append(signals, Signal{Type: SignalRemitState, Value: v})
	}
	if v := strings.TrimSpace(inv.FeedlotName); v != "" {
		signals = append(signals, Signal{Type: SignalNameFragment, Value: v})
	}
	if v := strings.TrimSpace(inv.LotNumber); v != "" {
		signals = append(signals, Signal{Type: SignalLotPrefix, Value: v})
	}
	for _, id := range aliasEntityIDs {
		if id = strings.TrimSpace(id); id != "" {
			signals = append(signals, Signal{Type: SignalVendorName, Value: id})
		}
	}
	return signals
}
