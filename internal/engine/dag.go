// Package engine orders generation rules by their declared dependencies and
// computes record fields rule by rule.
package engine

import "github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"

// Ordering is the execution order for a template's rules.
type Ordering struct {
	Rules []*domain.GenerationRule
	// Cyclic reports that the dependency graph had no complete topological
	// order and the remaining rules were appended in declaration order.
	Cyclic bool
}

// OrderRules performs a stable topological sort: each pass takes every
// unprocessed rule whose dependencies are satisfied, preserving declaration
// order, then marks the produced fields satisfied. Dependencies no rule
// produces count as pre-satisfied external inputs. When a pass makes no
// progress the remaining rules are appended in declaration order and the
// ordering is flagged cyclic; generation proceeds on a best-effort basis
// rather than hanging or aborting.
func OrderRules(rules []domain.GenerationRule) Ordering {
	produced := make(map[string]bool, len(rules))
	for i := range rules {
		produced[rules[i].Field] = true
	}

	satisfied := make(map[string]bool, len(rules))
	done := make([]bool, len(rules))
	ordered := make([]*domain.GenerationRule, 0, len(rules))
	remaining := len(rules)

	for remaining > 0 {
		progressed := false
		for i := range rules {
			if done[i] {
				continue
			}
			if !depsSatisfied(&rules[i], produced, satisfied) {
				continue
			}
			ordered = append(ordered, &rules[i])
			satisfied[rules[i].Field] = true
			done[i] = true
			remaining--
			progressed = true
		}
		if !progressed {
			for i := range rules {
				if !done[i] {
					ordered = append(ordered, &rules[i])
				}
			}
			return Ordering{Rules: ordered, Cyclic: true}
		}
	}
	return Ordering{Rules: ordered, Cyclic: false}
}

func depsSatisfied(r *domain.GenerationRule, produced, satisfied map[string]bool) bool {
	for _, dep := range r.Params.Dependencies {
		if !produced[dep] {
			continue // external input, nothing to wait for
		}
		if !satisfied[dep] {
			return false
		}
	}
	return true
}
