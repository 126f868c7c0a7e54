// Command declarative-schema-gen generates JSON Schema artifacts for the
// synthgen/v1 YAML kinds.
package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/declarative"
	"github.com/skinclarityclub/Future-MarketingAI-sub004/internal/domain"
)

const draft2020 = "https://json-schema.org/draft/2020-12/schema"

// schemaObject is one JSON Schema node.
type schemaObject = map[string]any

var (
	ruleMethods = []string{
		domain.MethodStatistical,
		domain.MethodPatternBased,
		domain.MethodLookupTable,
		domain.MethodFormula,
		domain.MethodMLModel,
		domain.MethodRandom,
	}
	distributions = []string{
		domain.DistributionNormal,
		domain.DistributionUniform,
		domain.DistributionExponential,
		domain.DistributionPoisson,
	}
	patterns = []string{
		domain.PatternBusinessHours,
		domain.PatternSeasonalMultiplier,
		domain.PatternCategoricalMultiplier,
	}
	validationTypes = []string{
		domain.ValidationRange,
		domain.ValidationPattern,
		domain.ValidationCorrelation,
		domain.ValidationBusinessLogic,
	}
	severities = []string{
		domain.SeverityLow,
		domain.SeverityMedium,
		domain.SeverityHigh,
		domain.SeverityCritical,
	}
	frequencies = []string{
		domain.FrequencyHourly,
		domain.FrequencyDaily,
		domain.FrequencyWeekly,
	}
	trendDirections = []string{
		domain.TrendIncreasing,
		domain.TrendDecreasing,
		domain.TrendStable,
	}
	relationshipPolicies = []string{
		domain.PolicyNotExceeds,
		domain.PolicyAtLeast,
	}
)

// schemaGenerator reflects Go document types into JSON Schema, keeping
// one $defs entry per named struct.
type schemaGenerator struct {
	defs map[string]schemaObject
}

func newSchemaGenerator() *schemaGenerator {
	return &schemaGenerator{defs: map[string]schemaObject{}}
}

func (g *schemaGenerator) typeSchema(t reflect.Type) schemaObject {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch k := t.Kind(); k {
	case reflect.Slice, reflect.Array:
		return schemaObject{"type": "array", "items": g.typeSchema(t.Elem())}
	case reflect.Map:
		return schemaObject{"type": "object", "additionalProperties": g.typeSchema(t.Elem())}
	case reflect.Struct:
		return g.structRef(t)
	default:
		if name, ok := scalarTypeName(k); ok {
			return schemaObject{"type": name}
		}
		return schemaObject{}
	}
}

func scalarTypeName(k reflect.Kind) (string, bool) {
	switch k {
	case reflect.String:
		return "string", true
	case reflect.Bool:
		return "boolean", true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer", true
	case reflect.Float32, reflect.Float64:
		return "number", true
	}
	return "", false
}

// structRef registers a $defs entry for t on first sight and returns a
// reference to it. Anonymous structs get an open object schema instead.
func (g *schemaGenerator) structRef(t reflect.Type) schemaObject {
	name := t.Name()
	if name == "" {
		return schemaObject{"type": "object", "additionalProperties": true}
	}
	if _, seen := g.defs[name]; !seen {
		g.defs[name] = g.structDef(t)
	}
	return schemaObject{"$ref": "#/$defs/" + name}
}

func (g *schemaGenerator) structDef(t reflect.Type) schemaObject {
	props := schemaObject{}
	var required []string

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, omitEmpty, ok := fieldKey(f)
		if !ok {
			continue
		}
		props[name] = g.typeSchema(f.Type)
		if requiredField(f, omitEmpty) {
			required = append(required, name)
		}
	}
	sort.Strings(required)

	def := schemaObject{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		def["required"] = required
	}
	return def
}

// fieldKey resolves the YAML key for a struct field. ok is false for
// unexported fields and fields excluded from serialization.
func fieldKey(f reflect.StructField) (name string, omitEmpty, ok bool) {
	if !f.IsExported() {
		return "", false, false
	}
	tag := f.Tag.Get("yaml")
	switch tag {
	case "":
		return lowerFirst(f.Name), false, true
	case "-":
		return "", false, false
	}
	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		return "", false, false
	}
	return name, strings.Contains(","+opts+",", ",omitempty,"), true
}

// requiredField reports whether a field must appear in the YAML.
// Pointers, slices, maps, and omitempty fields never are.
func requiredField(f reflect.StructField, omitEmpty bool) bool {
	if omitEmpty {
		return false
	}
	switch f.Type.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map:
		return false
	}
	return true
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// pinEnvelope fixes the apiVersion and kind properties of the root
// document to their only legal values.
func (g *schemaGenerator) pinEnvelope(doc declarative.SchemaDocument) {
	props, ok := g.defs[doc.Type.Name()]["properties"].(schemaObject)
	if !ok {
		return
	}
	if p, ok := props["apiVersion"].(schemaObject); ok {
		p["enum"] = []string{declarative.SupportedAPIVersion}
	}
	if p, ok := props["kind"].(schemaObject); ok {
		p["enum"] = []string{doc.Kind}
	}
}

func getDefProperty(defs map[string]schemaObject, defName, propName string) schemaObject {
	props, ok := defs[defName]["properties"].(schemaObject)
	if !ok {
		return nil
	}
	prop, _ := props[propName].(schemaObject)
	return prop
}

func setEnum(defs map[string]schemaObject, defName, propName string, values []string) {
	if prop := getDefProperty(defs, defName, propName); prop != nil {
		prop["enum"] = values
	}
}

func appendConditional(def schemaObject, rule schemaObject) {
	rules, _ := def["allOf"].([]any)
	def["allOf"] = append(rules, rule)
}

// requireWhen builds an if/then rule: when prop equals value, the listed
// fields become required.
func requireWhen(prop, value string, fields ...string) schemaObject {
	return schemaObject{
		"if": schemaObject{
			"properties": schemaObject{prop: schemaObject{"const": value}},
			"required":   []string{prop},
		},
		"then": schemaObject{"required": fields},
	}
}

// applyKindConstraints layers hand-maintained value constraints on top of
// the reflected structural schema. Enum sets mirror the domain constants
// so the editor rejects what registration would reject.
func applyKindConstraints(kind string, defs map[string]schemaObject) {
	switch kind {
	case declarative.KindNameTemplate:
		constrainTemplate(defs)
	case declarative.KindNameLookupTableList:
		constrainLookupTables(defs)
	}
}

func constrainTemplate(defs map[string]schemaObject) {
	if name := getDefProperty(defs, "ObjectMeta", "name"); name != nil {
		name["minLength"] = 1
		name["maxLength"] = domain.MaxTemplateIDLen
	}

	enums := []struct {
		def, prop string
		values    []string
	}{
		{"RuleSpec", "method", ruleMethods},
		{"ParamsSpec", "distribution", distributions},
		{"ParamsSpec", "pattern", patterns},
		{"ValidationSpec", "type", validationTypes},
		{"ValidationSpec", "severity", severities},
		{"TemporalSpec", "frequency", frequencies},
		{"TemporalSpec", "trend_direction", trendDirections},
		{"RelationshipSpec", "policy", relationshipPolicies},
	}
	for _, e := range enums {
		setEnum(defs, e.def, e.prop, e.values)
	}

	if params, ok := defs["ParamsSpec"]; ok {
		appendConditional(params, requireWhen("pattern", domain.PatternCategoricalMultiplier, "key_field", "multipliers"))
	}
	if rule, ok := defs["RuleSpec"]; ok {
		appendConditional(rule, requireWhen("method", domain.MethodLookupTable, "params"))
	}
}

func constrainLookupTables(defs map[string]schemaObject) {
	if values := getDefProperty(defs, "LookupTableSpec", "values"); values != nil {
		values["minItems"] = 1
	}
	if name := getDefProperty(defs, "LookupTableSpec", "name"); name != nil {
		name["minLength"] = 1
	}
}

// writeJSON marshals content with stable indentation, writes it to path,
// and returns the hex sha256 of the marshaled bytes.
func writeJSON(path string, content any) (string, error) {
	data, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func emitKindSchema(outDir string, doc declarative.SchemaDocument) (relPath, hash string, err error) {
	gen := newSchemaGenerator()
	rootRef := gen.typeSchema(doc.Type)
	gen.pinEnvelope(doc)
	applyKindConstraints(doc.Kind, gen.defs)

	schema := schemaObject{
		"$schema": draft2020,
		"$id":     "schemas/declarative/v1/kinds/" + doc.FileName + ".schema.json",
		"title":   "Synthgen declarative " + doc.Kind,
		"allOf":   []schemaObject{rootRef},
		"$defs":   gen.defs,
	}

	relPath = filepath.ToSlash(filepath.Join("kinds", doc.FileName+".schema.json"))
	hash, err = writeJSON(filepath.Join(outDir, relPath), schema)
	return relPath, hash, err
}

func run(outDir string) error {
	if err := os.MkdirAll(filepath.Join(outDir, "kinds"), 0o750); err != nil {
		return fmt.Errorf("create output directories: %w", err)
	}

	checksums := map[string]string{}
	var union []schemaObject

	for _, doc := range declarative.SchemaDocumentTypes() {
		relPath, hash, err := emitKindSchema(outDir, doc)
		if err != nil {
			return err
		}
		checksums[relPath] = hash
		union = append(union, schemaObject{"$ref": relPath})
	}

	root := schemaObject{
		"$schema":     draft2020,
		"$id":         "schemas/declarative/v1/synthgen.declarative.schema.json",
		"title":       "Synthgen declarative document",
		"description": "Union schema for all declarative synthgen/v1 YAML documents.",
		"oneOf":       union,
	}
	rootHash, err := writeJSON(filepath.Join(outDir, "synthgen.declarative.schema.json"), root)
	if err != nil {
		return err
	}
	checksums["synthgen.declarative.schema.json"] = rootHash

	manifest := schemaObject{
		"version":    "v1",
		"apiVersion": declarative.SupportedAPIVersion,
		"files":      checksums,
	}
	_, err = writeJSON(filepath.Join(outDir, "index.json"), manifest)
	return err
}

func main() {
	outDir := flag.String("outdir", "schemas/declarative/v1", "Output schema directory")
	flag.Parse()

	if err := run(*outDir); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
