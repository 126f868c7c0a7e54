package declarative

import "sort"

// Action is a single planned change to the server's template state.
type Action struct {
	Operation    Operation
	ResourceKind ResourceKind
	ResourceName string
	FilePath     string // source YAML file path (empty for deletes of server-only resources)
	Changes      []FieldDiff
}

// FieldDiff describes a single field change within an Update action.
type FieldDiff struct {
	Field    string `json:"field"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
}

// Plan holds the actions that would bring the server in line with a desired
// state, plus the problems that made some resources unplannable.
type Plan struct {
	Actions []Action
	Errors  []PlanError
}

// PlanError is a resource the differ refused to plan, with the reason.
type PlanError struct {
	ResourceKind ResourceKind `json:"resource_type"`
	ResourceName string       `json:"resource_name"`
	Message      string       `json:"message"`
}

// PlanSummary holds counts of planned operations.
type PlanSummary struct {
	Creates int `json:"creates"`
	Updates int `json:"updates"`
	Deletes int `json:"deletes"`
	Errors  int `json:"errors"`
}

func (s *PlanSummary) count(op Operation) {
	switch op {
	case OpCreate:
		s.Creates++
	case OpUpdate:
		s.Updates++
	case OpDelete:
		s.Deletes++
	}
}

// Summary tallies the plan's operations and errors.
func (p *Plan) Summary() PlanSummary {
	s := PlanSummary{Errors: len(p.Errors)}
	for _, a := range p.Actions {
		s.count(a.Operation)
	}
	return s
}

// HasChanges reports whether applying the plan would do anything, counting
// errors as changes so callers never treat a broken plan as converged.
func (p *Plan) HasChanges() bool {
	return len(p.Actions) > 0 || len(p.Errors) > 0
}

// applyRank maps an action to its execution phase. Creates and updates run
// first, lookup tables before the templates whose rules reference them;
// deletes run last in the reverse direction so a template is removed before
// the tables it depends on.
func applyRank(a Action) int {
	if a.Operation == OpDelete {
		return 2*numLayers - 1 - a.ResourceKind.Layer()
	}
	return a.ResourceKind.Layer()
}

// SortActions puts the plan into execution order: phase first, resource name
// as the tiebreak within a phase.
func (p *Plan) SortActions() {
	sort.SliceStable(p.Actions, func(i, j int) bool {
		ri, rj := applyRank(p.Actions[i]), applyRank(p.Actions[j])
		if ri != rj {
			return ri < rj
		}
		return p.Actions[i].ResourceName < p.Actions[j].ResourceName
	})
}
