package declarative

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
)

// ActualState is the registry's current view, gathered before planning.
type ActualState struct {
	Templates []*domain.Template
	Lookups   map[string][]string
}

// Diff compares the desired state (from YAML) against the actual state (from
// the running registry) and returns a Plan describing the changes needed.
// Lookup tables are never planned for deletion: the registry carries builtin
// tables that no YAML file declares.
func Diff(desired *DesiredState, actual *ActualState) *Plan {
	plan := &Plan{}

	diffLookupTables(plan, desired.LookupTables, actual.Lookups)
	diffTemplates(plan, desired.Templates, actual.Templates)

	plan.SortActions()
	return plan
}

func addCreate(plan *Plan, kind ResourceKind, name, filePath string) {
	plan.Actions = append(plan.Actions, Action{
		Operation:    OpCreate,
		ResourceKind: kind,
		ResourceName: name,
		FilePath:     filePath,
	})
}

func addUpdate(plan *Plan, kind ResourceKind, name, filePath string, changes []FieldDiff) {
	plan.Actions = append(plan.Actions, Action{
		Operation:    OpUpdate,
		ResourceKind: kind,
		ResourceName: name,
		FilePath:     filePath,
		Changes:      changes,
	})
}

func addDelete(plan *Plan, kind ResourceKind, name string) {
	plan.Actions = append(plan.Actions, Action{
		Operation:    OpDelete,
		ResourceKind: kind,
		ResourceName: name,
	})
}

func addError(plan *Plan, kind ResourceKind, name, msg string) {
	plan.Errors = append(plan.Errors, PlanError{
		ResourceKind: kind,
		ResourceName: name,
		Message:      msg,
	})
}

func diffField(changes *[]FieldDiff, field, oldVal, newVal string) {
	if oldVal != newVal {
		*changes = append(*changes, FieldDiff{Field: field, OldValue: oldVal, NewValue: newVal})
	}
}

func diffBoolField(changes *[]FieldDiff, field string, oldVal, newVal bool) {
	diffField(changes, field, fmt.Sprintf("%t", oldVal), fmt.Sprintf("%t", newVal))
}

// jsonValue renders a nested block for comparison and display. Marshal
// failures can only come from unsupported value kinds, which the spec types
// exclude.
func jsonValue(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func diffLookupTables(plan *Plan, desired []LookupTableResource, actual map[string][]string) {
	for _, d := range desired {
		values, exists := actual[d.Spec.Name]
		if !exists {
			addCreate(plan, KindLookupTable, d.Spec.Name, d.FilePath)
			continue
		}
		var changes []FieldDiff
		diffField(&changes, "values", strings.Join(values, ", "), strings.Join(d.Spec.Values, ", "))
		if len(changes) > 0 {
			addUpdate(plan, KindLookupTable, d.Spec.Name, d.FilePath, changes)
		}
	}
}

func diffTemplates(plan *Plan, desired []TemplateResource, actual []*domain.Template) {
	actualMap := make(map[string]*domain.Template, len(actual))
	for _, a := range actual {
		actualMap[a.ID] = a
	}

	seen := make(map[string]bool, len(desired))
	for _, d := range desired {
		seen[d.Name] = true

		want, err := d.ToDomain()
		if err != nil {
			addError(plan, KindTemplate, d.Name, err.Error())
			continue
		}

		a, exists := actualMap[d.Name]
		if !exists {
			addCreate(plan, KindTemplate, d.Name, d.FilePath)
			continue
		}

		var changes []FieldDiff
		diffField(&changes, "data_type", a.DataType, want.DataType)
		diffField(&changes, "target_audience",
			strings.Join(a.TargetAudience, ", "), strings.Join(want.TargetAudience, ", "))
		diffField(&changes, "rules", jsonValue(a.Rules), jsonValue(want.Rules))
		diffField(&changes, "constraints", jsonValue(a.Constraints), jsonValue(want.Constraints))
		diffField(&changes, "quality", jsonValue(a.Quality), jsonValue(want.Quality))
		diffBoolField(&changes, "include_metadata", a.IncludeMetadata, want.IncludeMetadata)
		diffField(&changes, "backfill_cron", a.BackfillCron, want.BackfillCron)
		diffField(&changes, "backfill_count",
			fmt.Sprintf("%d", a.BackfillCount), fmt.Sprintf("%d", want.BackfillCount))
		if len(changes) > 0 {
			addUpdate(plan, KindTemplate, d.Name, d.FilePath, changes)
		}
	}

	// Registered templates no YAML file declares. Callers decide whether
	// deletes are executed (prune) or reported only.
	names := make([]string, 0, len(actualMap))
	for name := range actualMap {
		if !seen[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		addDelete(plan, KindTemplate, name)
	}
}
