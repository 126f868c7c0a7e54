package declarative

import (
	"encoding/json"
	"fmt"
	"io"
)

// ANSI color codes.
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
	colorDim    = "\033[2m"
)

// palette wraps the ANSI codes so "no color" is one switch instead of a
// condition at every print site.
type palette bool

func (p palette) wrap(code, s string) string {
	if !bool(p) {
		return s
	}
	return code + s + colorReset
}

func (p palette) marker(op Operation) string {
	switch op {
	case OpCreate:
		return p.wrap(colorGreen, "+")
	case OpUpdate:
		return p.wrap(colorYellow, "~")
	default:
		return p.wrap(colorRed, "-")
	}
}

// FormatText writes a human-readable plan to w.
// If noColor is true, ANSI codes are suppressed.
func FormatText(w io.Writer, plan *Plan, noColor bool) {
	pal := palette(!noColor)

	if !plan.HasChanges() {
		fmt.Fprintln(w, "No changes. Templates are up-to-date.")
		return
	}

	// One section per source file, in the order the sorted actions first
	// mention each file. Registry-only actions (deletes of resources no YAML
	// file declares) collect under their own header.
	var order []string
	byPath := make(map[string][]Action)
	for _, a := range plan.Actions {
		if _, ok := byPath[a.FilePath]; !ok {
			order = append(order, a.FilePath)
		}
		byPath[a.FilePath] = append(byPath[a.FilePath], a)
	}

	for _, path := range order {
		header := path
		if header == "" {
			header = "(registry-only)"
		}
		fmt.Fprintf(w, "\n%s\n", pal.wrap(colorCyan, "# "+header))
		for _, a := range byPath[path] {
			writeAction(w, pal, a)
		}
	}

	for _, e := range plan.Errors {
		fmt.Fprintf(w, "  %s %s %q: %s\n",
			pal.wrap(colorRed, "✗"), e.ResourceKind, e.ResourceName, e.Message)
	}

	s := plan.Summary()
	fmt.Fprintf(w, "\n%s %d to create, %d to update, %d to delete.",
		pal.wrap(colorDim, "Plan:"), s.Creates, s.Updates, s.Deletes)
	if s.Errors > 0 {
		fmt.Fprintf(w, " %s", pal.wrap(colorRed, fmt.Sprintf("%d error(s).", s.Errors)))
	}
	fmt.Fprintln(w)
}

func writeAction(w io.Writer, pal palette, a Action) {
	verb := map[Operation]string{
		OpCreate: "created",
		OpUpdate: "updated",
		OpDelete: "deleted",
	}[a.Operation]
	fmt.Fprintf(w, "  %s %s %q will be %s\n", pal.marker(a.Operation), a.ResourceKind, a.ResourceName, verb)
	for _, d := range a.Changes {
		fmt.Fprintf(w, "      %s: %q → %q\n", d.Field, d.OldValue, d.NewValue)
	}
}

type jsonAction struct {
	Operation    string      `json:"operation"`
	ResourceType string      `json:"resource_type"`
	ResourceName string      `json:"resource_name"`
	Path         string      `json:"path,omitempty"`
	Changes      []FieldDiff `json:"changes,omitempty"`
}

type jsonPlan struct {
	Actions []jsonAction `json:"actions"`
	Errors  []PlanError  `json:"errors,omitempty"`
	Summary PlanSummary  `json:"summary"`
}

// FormatJSON writes the plan as JSON to w.
func FormatJSON(w io.Writer, plan *Plan) error {
	jp := jsonPlan{
		Actions: make([]jsonAction, 0, len(plan.Actions)),
		Summary: plan.Summary(),
	}
	if len(plan.Errors) > 0 {
		jp.Errors = plan.Errors
	}
	for _, a := range plan.Actions {
		jp.Actions = append(jp.Actions, jsonAction{
			Operation:    a.Operation.String(),
			ResourceType: a.ResourceKind.String(),
			ResourceName: a.ResourceName,
			Path:         a.FilePath,
			Changes:      a.Changes,
		})
	}

	data, err := json.MarshalIndent(jp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write plan: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}
