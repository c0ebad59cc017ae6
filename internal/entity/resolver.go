package entity

import (
	"sort"
	"strings"

	"github.com/feedlot-ap/feedlot-ap/internal/matching"
)

// Scoring thresholds and default weights. Owner-number weight is
// profile-configurable between minOwnerWeight and maxOwnerWeight; the rest
// are fixed.
const (
	autoAssignScore  = 70
	autoAssignMargin = 15
	maxCandidates    = 3

	defaultOwnerWeight = 30
	minOwnerWeight     = 25
	maxOwnerWeight     = 40
	vendorNameWeight   = 30
	remitStateWeight   = 15
	nameFragmentWeight = 15
	lotPrefixWeight    = 10

	nameMatchThreshold = 0.8
)

// Resolver scores signals against entity profiles. Stateless and
// deterministic: same signals and profiles always yield the same resolution.
type Resolver struct{}

// NewResolver constructs a Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve scores every candidate profile and auto-assigns only when the top
// score clears the threshold with a clear margin over the runner-up.
func (r *Resolver) Resolve(signals []Signal, profiles []Profile) Resolution {
	candidates := make([]Candidate, 0, len(profiles))
	for _, p := range profiles {
		score, reasons := scoreProfile(signals, p)
		if score == 0 {
			continue
		}
		candidates = append(candidates, Candidate{
			EntityID:   p.ID,
			EntityCode: p.Code,
			EntityName: p.Name,
			Score:      score,
			Reasons:    reasons,
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].EntityID < candidates[j].EntityID
	})

	if len(candidates) == 0 {
		return Resolution{}
	}

	top := candidates[0]
	margin := top.Score
	if len(candidates) > 1 {
		margin = top.Score - candidates[1].Score
	}

	if top.Score >= autoAssignScore && margin >= autoAssignMargin {
		return Resolution{
			EntityID:       top.EntityID,
			IsAutoAssigned: true,
			Score:          top.Score,
			Margin:         margin,
			Reasons:        top.Reasons,
		}
	}

	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}
	return Resolution{
		IsAutoAssigned: false,
		Score:          top.Score,
		Margin:         margin,
		Candidates:     candidates,
	}
}

func scoreProfile(signals []Signal, p Profile) (int, []SignalReason) {
	var score int
	var reasons []SignalReason
	add := func(reason SignalReason) {
		score += reason.Points
		reasons = append(reasons, reason)
	}

	for _, sig := range signals {
		value := strings.TrimSpace(sig.Value)
		if value == "" {
			continue
		}
		switch sig.Type {
		case SignalOwnerNumber:
			if weight, ok := ownerNumberWeight(p, value); ok {
				add(SignalReason{Type: sig.Type, Value: value, Points: weight})
			}
		case SignalVendorName:
			// Emitted upstream when the raw vendor name already has an alias
			// under an entity; the signal value is that entity's id.
			if strings.EqualFold(value, p.ID) {
				add(SignalReason{Type: sig.Type, Value: value, Points: vendorNameWeight, Detail: "vendor known under entity"})
			}
		case SignalRemitState:
			if ruleMatches(p, SignalRemitState, value) {
				add(SignalReason{Type: sig.Type, Value: value, Points: remitStateWeight})
			}
		case SignalNameFragment:
			if name, ok := bestNameMatch(p, value); ok {
				add(SignalReason{Type: sig.Type, Value: value, Points: nameFragmentWeight, Detail: "matched " + name})
			}
		case SignalLotPrefix:
			if prefix, ok := lotPrefixMatch(p, value); ok {
				add(SignalReason{Type: sig.Type, Value: value, Points: lotPrefixWeight, Detail: "prefix " + prefix})
			}
		}
	}
	return score, reasons
}

func ownerNumberWeight(p Profile, value string) (int, bool) {
	for _, rule := range p.Rules {
		if rule.Type != SignalOwnerNumber || !strings.EqualFold(strings.TrimSpace(rule.Value), value) {
			continue
		}
		weight := rule.Weight
		if weight == 0 {
			weight = defaultOwnerWeight
		}
		if weight < minOwnerWeight {
			weight = minOwnerWeight
		}
		if weight > maxOwnerWeight {
			weight = maxOwnerWeight
		}
		return weight, true
	}
	return 0, false
}

func ruleMatches(p Profile, typ SignalType, value string) bool {
	for _, rule := range p.Rules {
		if rule.Type == typ && strings.EqualFold(strings.TrimSpace(rule.Value), value) {
			return true
		}
	}
	return false
}

func bestNameMatch(p Profile, fragment string) (string, bool) {
	names := append([]string{p.Name}, p.Aliases...)
	for _, name := range names {
		if name == "" {
			continue
		}
		if matching.TokenSetSimilarity(fragment, name) >= nameMatchThreshold ||
			matching.StringSimilarity(fragment, name) >= nameMatchThreshold {
			return name, true
		}
	}
	return "", false
}

func lotPrefixMatch(p Profile, lotNumber string) (string, bool) {
	folded := matching.Fold(lotNumber)
	for _, rule := range p.Rules {
		if rule.Type != SignalLotPrefix {
			continue
		}
		prefix := matching.Fold(strings.TrimSpace(rule.Value))
		if prefix != "" && strings.HasPrefix(folded, prefix) {
			return rule.Value, true
		}
	}
	return "", false
}
