package declarative

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
)

// ImportOptions select and shape an OpenAPI schema import.
type ImportOptions struct {
	// Schema names the component schema to import. Required when the
	// document declares more than one.
	Schema string
	// TemplateID overrides the derived template ID. Defaults to the
	// snake-cased schema name.
	TemplateID string
}

// ImportResult is a template skeleton derived from an OpenAPI schema, plus
// the lookup tables its rules reference. The skeleton is a starting point:
// distribution parameters beyond the schema's bounds are defaults the author
// refines.
type ImportResult struct {
	Template     *domain.Template
	LookupTables map[string][]string
	// Skipped lists properties no rule could be inferred for.
	Skipped []string
}

// ImportOpenAPI derives a generation template from one component schema of an
// OpenAPI document:
//
//   - numeric properties become statistical rules, bounds from minimum/maximum
//   - enum properties become lookup-table rules with the enum as the table
//   - date-time strings become business-hours pattern rules
//   - booleans become two-value lookup tables
//
// Free-form strings and nested objects are skipped.
func ImportOpenAPI(ctx context.Context, data []byte, opts ImportOptions) (*ImportResult, error) {
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, domain.ErrValidation("parse openapi document: %v", err)
	}
	if doc.Components == nil || len(doc.Components.Schemas) == 0 {
		return nil, domain.ErrValidation("openapi document declares no component schemas")
	}

	name := opts.Schema
	if name == "" {
		if len(doc.Components.Schemas) > 1 {
			return nil, domain.ErrValidation(
				"openapi document declares %d schemas; name one to import", len(doc.Components.Schemas))
		}
		for n := range doc.Components.Schemas {
			name = n
		}
	}
	ref, ok := doc.Components.Schemas[name]
	if !ok {
		return nil, domain.ErrNotFound("schema %q not found in openapi document", name)
	}
	schema := ref.Value
	if schema == nil || len(schema.Properties) == 0 {
		return nil, domain.ErrValidation("schema %q has no properties", name)
	}

	templateID := opts.TemplateID
	if templateID == "" {
		templateID = snakeCase(name)
	}

	result := &ImportResult{LookupTables: map[string][]string{}}
	tmpl := &domain.Template{
		ID:       templateID,
		DataType: snakeCase(name),
	}

	// Deterministic rule order regardless of map iteration.
	props := make([]string, 0, len(schema.Properties))
	for p := range schema.Properties {
		props = append(props, p)
	}
	sort.Strings(props)

	for _, prop := range props {
		propSchema := schema.Properties[prop].Value
		if propSchema == nil {
			result.Skipped = append(result.Skipped, prop)
			continue
		}
		rule, table, ok := inferRule(templateID, prop, propSchema)
		if !ok {
			result.Skipped = append(result.Skipped, prop)
			continue
		}
		if table != nil {
			result.LookupTables[rule.Params.LookupTable] = table
		}
		tmpl.Rules = append(tmpl.Rules, rule)
	}

	if len(tmpl.Rules) == 0 {
		return nil, domain.ErrValidation("schema %q yields no generation rules", name)
	}

	result.Template = tmpl
	return result, nil
}

// inferRule maps one schema property onto a generation rule. The returned
// value list is non-nil when the rule needs a lookup table registered.
func inferRule(templateID, field string, prop *openapi3.Schema) (domain.GenerationRule, []string, bool) {
	if len(prop.Enum) > 0 {
		values := make([]string, 0, len(prop.Enum))
		for _, v := range prop.Enum {
			if v == nil {
				continue
			}
			values = append(values, fmt.Sprint(v))
		}
		if len(values) == 0 {
			return domain.GenerationRule{}, nil, false
		}
		table := templateID + "_" + field
		return domain.GenerationRule{
			Field:  field,
			Method: domain.MethodLookupTable,
			Params: domain.RuleParams{LookupTable: table},
		}, values, true
	}

	switch schemaType(prop.Type) {
	case "number", "integer":
		params := domain.RuleParams{
			Distribution: domain.DistributionNormal,
			Mean:         0,
			StdDev:       1,
		}
		if prop.Min != nil {
			v := *prop.Min
			params.Min = &v
		}
		if prop.Max != nil {
			v := *prop.Max
			params.Max = &v
		}
		if params.Min != nil && params.Max != nil {
			params.Mean = (*params.Min + *params.Max) / 2
			params.StdDev = (*params.Max - *params.Min) / 8
		}
		return domain.GenerationRule{
			Field:  field,
			Method: domain.MethodStatistical,
			Params: params,
		}, nil, true

	case "string":
		if prop.Format == "date-time" || prop.Format == "date" {
			return domain.GenerationRule{
				Field:  field,
				Method: domain.MethodPatternBased,
				Params: domain.RuleParams{Pattern: domain.PatternBusinessHours},
			}, nil, true
		}
		return domain.GenerationRule{}, nil, false

	case "boolean":
		table := templateID + "_" + field
		return domain.GenerationRule{
			Field:  field,
			Method: domain.MethodLookupTable,
			Params: domain.RuleParams{LookupTable: table},
		}, []string{"true", "false"}, true

	default:
		return domain.GenerationRule{}, nil, false
	}
}

// schemaType extracts the primary type of a property.
func schemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	values := types.Slice()
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// snakeCase converts CamelCase schema names to snake_case identifiers.
func snakeCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
