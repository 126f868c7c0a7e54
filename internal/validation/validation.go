// Package validation merges constraint blocks and checks generated records
// against their rules' declared validation entries.
package validation

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
)

// Merge applies caller overrides to the template's constraints. The merge is
// shallow: each overridden sub-block replaces the template's block whole.
func Merge(base domain.DataConstraints, overrides *domain.ConstraintOverrides) domain.DataConstraints {
	if overrides == nil {
		return base
	}
	merged := base
	if overrides.Temporal != nil {
		merged.Temporal = *overrides.Temporal
	}
	if overrides.Business != nil {
		merged.Business = *overrides.Business
	}
	if overrides.Quality != nil {
		merged.Quality = *overrides.Quality
	}
	return merged
}

// PolicyFunc is a named correlation or business-logic hook. It returns a
// non-nil error when the record violates the policy.
type PolicyFunc func(field string, record domain.Record) error

// PolicyRegistry resolves the policy names referenced by correlation and
// business-logic validation entries. Unregistered names pass: the entries are
// declared extension points, not implemented checks.
type PolicyRegistry struct {
	mu       sync.RWMutex
	policies map[string]PolicyFunc
}

// NewPolicyRegistry returns an empty registry.
func NewPolicyRegistry() *PolicyRegistry {
	return &PolicyRegistry{policies: make(map[string]PolicyFunc)}
}

// Register stores fn under name, overwriting any previous hook.
func (p *PolicyRegistry) Register(name string, fn PolicyFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.policies[name] = fn
}

func (p *PolicyRegistry) lookup(name string) (PolicyFunc, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	fn, ok := p.policies[name]
	return fn, ok
}

// Checker validates records against one template's rules. Regexes are
// compiled once at construction, not per record.
type Checker struct {
	checks   []fieldCheck
	policies *PolicyRegistry
}

type fieldCheck struct {
	field   string
	rule    domain.ValidationRule
	pattern *regexp.Regexp // compiled for pattern checks
}

// NewChecker compiles the validation entries of every rule in the template.
// A malformed regex fails here, at registration time.
func NewChecker(t *domain.Template, policies *PolicyRegistry) (*Checker, error) {
	c := &Checker{policies: policies}
	for i := range t.Rules {
		rule := &t.Rules[i]
		for _, v := range rule.Validation {
			check := fieldCheck{field: rule.Field, rule: v}
			if v.Type == domain.ValidationPattern {
				compiled, err := regexp.Compile(v.Pattern)
				if err != nil {
					return nil, domain.ErrValidation("field %q: invalid pattern %q: %v", rule.Field, v.Pattern, err)
				}
				check.pattern = compiled
			}
			c.checks = append(c.checks, check)
		}
	}
	return c, nil
}

// ValidateRecord evaluates every compiled check. An empty result means the
// record is accepted.
func (c *Checker) ValidateRecord(recordIndex int, record domain.Record) []domain.RecordValidationError {
	var errs []domain.RecordValidationError
	for i := range c.checks {
		check := &c.checks[i]
		if msg := c.evaluate(check, record); msg != "" {
			errs = append(errs, domain.RecordValidationError{
				RecordIndex: recordIndex,
				Field:       check.field,
				RuleType:    check.rule.Type,
				Message:     msg,
				Severity:    check.rule.EffectiveSeverity(),
			})
		}
	}
	return errs
}

func (c *Checker) evaluate(check *fieldCheck, record domain.Record) string {
	value, present := record[check.field]

	switch check.rule.Type {
	case domain.ValidationRange:
		if !present {
			return fmt.Sprintf("field %q missing from record", check.field)
		}
		num, ok := asFloat(value)
		if !ok {
			return fmt.Sprintf("field %q is not numeric (%T)", check.field, value)
		}
		if check.rule.Min != nil && num < *check.rule.Min {
			return fmt.Sprintf("value %g below minimum %g", num, *check.rule.Min)
		}
		if check.rule.Max != nil && num > *check.rule.Max {
			return fmt.Sprintf("value %g above maximum %g", num, *check.rule.Max)
		}

	case domain.ValidationPattern:
		if !present {
			return fmt.Sprintf("field %q missing from record", check.field)
		}
		if !check.pattern.MatchString(fmt.Sprint(value)) {
			return fmt.Sprintf("value %q does not match pattern %q", fmt.Sprint(value), check.rule.Pattern)
		}

	case domain.ValidationCorrelation, domain.ValidationBusinessLogic:
		if c.policies == nil {
			return ""
		}
		fn, ok := c.policies.lookup(check.rule.Policy)
		if !ok {
			return "" // declared but unimplemented policy: pass-through
		}
		if err := fn(check.field, record); err != nil {
			return err.Error()
		}
	}
	return ""
}

func asFloat(v any) (float64, bool) {
	switch value := v.(type) {
	case float64:
		return value, true
	case float32:
		return float64(value), true
	case int:
		return float64(value), true
	case int64:
		return float64(value), true
	default:
		return 0, false
	}
}
