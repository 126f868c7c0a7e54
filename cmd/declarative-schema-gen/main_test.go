package main

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/declarative"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
)

func TestApplyKindConstraints_TemplateAddsEnums(t *testing.T) {
	defs := map[string]map[string]interface{}{
		"RuleSpec": {
			"properties": map[string]interface{}{
				"method": map[string]interface{}{"type": "string"},
			},
		},
		"ParamsSpec": {
			"properties": map[string]interface{}{
				"distribution": map[string]interface{}{"type": "string"},
				"pattern":      map[string]interface{}{"type": "string"},
			},
		},
		"ValidationSpec": {
			"properties": map[string]interface{}{
				"type":     map[string]interface{}{"type": "string"},
				"severity": map[string]interface{}{"type": "string"},
			},
		},
	}

	applyKindConstraints(declarative.KindNameTemplate, defs)

	method := getDefProperty(defs, "RuleSpec", "method")
	require.NotNil(t, method)
	assert.Contains(t, method["enum"], domain.MethodStatistical)
	assert.Contains(t, method["enum"], domain.MethodFormula)

	distribution := getDefProperty(defs, "ParamsSpec", "distribution")
	require.NotNil(t, distribution)
	assert.Contains(t, distribution["enum"], domain.DistributionNormal)
	assert.Contains(t, distribution["enum"], domain.DistributionPoisson)

	severity := getDefProperty(defs, "ValidationSpec", "severity")
	require.NotNil(t, severity)
	assert.Contains(t, severity["enum"], domain.SeverityCritical)
}

func TestApplyKindConstraints_TemplateAddsCategoricalConditional(t *testing.T) {
	defs := map[string]map[string]interface{}{
		"ParamsSpec": {
			"properties": map[string]interface{}{
				"pattern":     map[string]interface{}{"type": "string"},
				"key_field":   map[string]interface{}{"type": "string"},
				"multipliers": map[string]interface{}{"type": "object"},
			},
		},
	}

	applyKindConstraints(declarative.KindNameTemplate, defs)

	paramsSpec := defs["ParamsSpec"]
	rules, ok := paramsSpec["allOf"].([]interface{})
	require.True(t, ok)
	require.NotEmpty(t, rules)
}

func TestApplyKindConstraints_TemplateBoundsName(t *testing.T) {
	defs := map[string]map[string]interface{}{
		"ObjectMeta": {
			"properties": map[string]interface{}{
				"name": map[string]interface{}{"type": "string"},
			},
		},
	}

	applyKindConstraints(declarative.KindNameTemplate, defs)

	name := getDefProperty(defs, "ObjectMeta", "name")
	require.NotNil(t, name)
	assert.Equal(t, domain.MaxTemplateIDLen, name["maxLength"])
}

func TestApplyKindConstraints_LookupTableListRequiresValues(t *testing.T) {
	defs := map[string]map[string]interface{}{
		"LookupTableSpec": {
			"properties": map[string]interface{}{
				"name":   map[string]interface{}{"type": "string"},
				"values": map[string]interface{}{"type": "array"},
			},
		},
	}

	applyKindConstraints(declarative.KindNameLookupTableList, defs)

	values := getDefProperty(defs, "LookupTableSpec", "values")
	require.NotNil(t, values)
	assert.Equal(t, 1, values["minItems"])
}

func TestSchemaGenerator_WalksTemplateDoc(t *testing.T) {
	gen := newSchemaGenerator()
	root := gen.typeSchema(reflect.TypeOf(declarative.TemplateDoc{}))

	assert.Equal(t, "#/$defs/TemplateDoc", root["$ref"])
	for _, def := range []string{"TemplateDoc", "ObjectMeta", "TemplateSpec", "RuleSpec", "ParamsSpec"} {
		assert.Contains(t, gen.defs, def)
	}

	ruleSpec := gen.defs["RuleSpec"]
	required, ok := ruleSpec["required"].([]string)
	require.True(t, ok)
	assert.Contains(t, required, "field")
	assert.Contains(t, required, "method")

	// Optional parameter bags stay optional.
	params := getDefProperty(gen.defs, "RuleSpec", "params")
	require.NotNil(t, params)
	assert.Equal(t, "#/$defs/ParamsSpec", params["$ref"])
}
