// Package declarative renders markdown authoring docs from the generated
// synthgen/v1 JSON Schema artifacts.
package declarative

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const editWarning = "<!-- Code generated by cmd/docsgen. DO NOT EDIT. -->\n\n"

type manifest struct {
	APIVersion string            `json:"apiVersion"`
	Version    string            `json:"version"`
	Files      map[string]string `json:"files"`
}

type fieldDoc struct {
	Name     string
	Type     string
	Required bool
}

type typeDoc struct {
	Name   string
	Fields []fieldDoc
}

type kindDoc struct {
	Title    string
	KindName string
	File     string
	Checksum string
	Spec     []fieldDoc
	Nested   []typeDoc
}

// node wraps a decoded JSON object with tolerant accessors. Missing or
// mistyped keys read as zero values.
type node map[string]any

func (n node) obj(key string) node {
	m, _ := n[key].(map[string]any)
	return node(m)
}

func (n node) str(key string) string {
	s, _ := n[key].(string)
	return s
}

func (n node) list(key string) []any {
	s, _ := n[key].([]any)
	return s
}

func toNode(v any) node {
	m, _ := v.(map[string]any)
	return node(m)
}

// Generate renders one markdown page per kind plus an index page.
func Generate(indexPath, schemaDir, outDir string) error {
	m, err := readManifest(indexPath)
	if err != nil {
		return err
	}

	if err := os.RemoveAll(outDir); err != nil {
		return fmt.Errorf("clean output dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(outDir, "kinds"), 0o755); err != nil {
		return fmt.Errorf("create kinds dir: %w", err)
	}

	var docs []kindDoc
	for _, relFile := range kindSchemaFiles(m) {
		doc, err := parseKindSchema(filepath.Join(schemaDir, relFile))
		if err != nil {
			return fmt.Errorf("parse kind schema %q: %w", relFile, err)
		}
		doc.File = relFile
		doc.Checksum = m.Files[relFile]
		docs = append(docs, doc)

		page := filepath.Join(outDir, "kinds", slug(trimSchemaSuffix(filepath.Base(relFile)))+".md")
		if err := writeFile(page, renderKindPage(doc)); err != nil {
			return err
		}
	}

	return writeFile(filepath.Join(outDir, "index.md"), renderIndexPage(m, docs))
}

func readManifest(path string) (manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	var m manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return manifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	return m, nil
}

func kindSchemaFiles(m manifest) []string {
	var files []string
	for file := range m.Files {
		if strings.HasPrefix(file, "kinds/") && strings.HasSuffix(file, ".schema.json") {
			files = append(files, file)
		}
	}
	sort.Strings(files)
	return files
}

func parseKindSchema(path string) (kindDoc, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return kindDoc{}, fmt.Errorf("read file: %w", err)
	}
	var payload node
	if err := json.Unmarshal(raw, &payload); err != nil {
		return kindDoc{}, fmt.Errorf("decode json: %w", err)
	}

	var rootName string
	if allOf := payload.list("allOf"); len(allOf) > 0 {
		rootName = refBase(toNode(allOf[0]).str("$ref"))
	}
	if rootName == "" {
		return kindDoc{}, fmt.Errorf("could not resolve root definition")
	}

	defs := payload.obj("$defs")
	rootDef := defs.obj(rootName)
	rootProps := rootDef.obj("properties")

	kindName := strings.TrimSuffix(rootName, "Doc")
	if enums := rootProps.obj("kind").list("enum"); len(enums) > 0 {
		if s, ok := enums[0].(string); ok {
			kindName = s
		}
	}

	// Spec fields come from the spec $ref when the kind has one
	// (Template); list kinds carry their payload directly on the document.
	specName := refBase(rootProps.obj("spec").str("$ref"))
	var specFields []fieldDoc
	if specName != "" {
		specFields = fieldRows(defs.obj(specName))
	} else {
		inline := node{"required": rootDef["required"]}
		props := map[string]any{}
		for name, value := range rootProps {
			switch name {
			case "apiVersion", "kind", "metadata":
			default:
				props[name] = value
			}
		}
		inline["properties"] = props
		specFields = fieldRows(inline)
	}

	// Every other definition becomes a nested-type table so rule parameters
	// are documented without chasing refs by hand.
	skip := map[string]bool{rootName: true, specName: true, "ObjectMeta": true}
	var nestedNames []string
	for name := range defs {
		if !skip[name] {
			nestedNames = append(nestedNames, name)
		}
	}
	sort.Strings(nestedNames)

	nested := make([]typeDoc, 0, len(nestedNames))
	for _, name := range nestedNames {
		nested = append(nested, typeDoc{Name: name, Fields: fieldRows(defs.obj(name))})
	}

	return kindDoc{
		Title:    payload.str("title"),
		KindName: kindName,
		Spec:     specFields,
		Nested:   nested,
	}, nil
}

func fieldRows(def node) []fieldDoc {
	props := def.obj("properties")
	required := map[string]bool{}
	for _, v := range def.list("required") {
		if s, ok := v.(string); ok {
			required[s] = true
		}
	}

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([]fieldDoc, 0, len(names))
	for _, name := range names {
		rows = append(rows, fieldDoc{
			Name:     name,
			Type:     typeLabel(props.obj(name)),
			Required: required[name],
		})
	}
	return rows
}

// typeLabel renders a compact human-readable type for one schema node.
func typeLabel(schema node) string {
	if ref := schema.str("$ref"); ref != "" {
		return refBase(ref)
	}
	if enums := schema.list("enum"); len(enums) > 0 {
		vals := make([]string, 0, len(enums))
		for _, v := range enums {
			vals = append(vals, fmt.Sprintf("%v", v))
		}
		return "enum(" + strings.Join(vals, ", ") + ")"
	}

	switch t := schema["type"].(type) {
	case string:
		switch t {
		case "array":
			if items := schema.obj("items"); len(items) > 0 {
				return "array[" + typeLabel(items) + "]"
			}
			return "array"
		case "object":
			if extra := schema.obj("additionalProperties"); len(extra) > 0 {
				return "map[string]" + typeLabel(extra)
			}
		}
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, v := range t {
			parts = append(parts, fmt.Sprintf("%v", v))
		}
		sort.Strings(parts)
		return strings.Join(parts, " | ")
	}
	return "object"
}

func renderIndexPage(m manifest, docs []kindDoc) string {
	var b strings.Builder
	b.WriteString(editWarning)
	b.WriteString("# Template Authoring Reference\n\n")
	b.WriteString("Generated from the versioned JSON Schema artifacts for declarative YAML documents.\n\n")
	fmt.Fprintf(&b, "- API version: `%s`\n- Schema version: `%s`\n\n", m.APIVersion, m.Version)

	b.WriteString("## Kinds\n\n")
	for _, doc := range docs {
		name := trimSchemaSuffix(filepath.Base(doc.File))
		fmt.Fprintf(&b, "- [%s](./kinds/%s) (`%s`)\n", doc.KindName, slug(name), doc.File)
	}

	b.WriteString("\n## Checksums\n\n")
	b.WriteString("| File | SHA256 |\n| --- | --- |\n")
	for _, doc := range docs {
		fmt.Fprintf(&b, "| `%s` | `%s` |\n", doc.File, doc.Checksum)
	}
	return b.String()
}

func renderKindPage(doc kindDoc) string {
	var b strings.Builder
	b.WriteString(editWarning)
	fmt.Fprintf(&b, "# Kind: `%s`\n\n", doc.KindName)
	if doc.Title != "" {
		fmt.Fprintf(&b, "%s\n\n", doc.Title)
	}
	fmt.Fprintf(&b, "- Schema file: `%s`\n- SHA256: `%s`\n\n", doc.File, doc.Checksum)

	b.WriteString("## Spec Fields\n\n")
	fieldTable(&b, doc.Spec)

	for _, nested := range doc.Nested {
		fmt.Fprintf(&b, "\n## %s\n\n", nested.Name)
		fieldTable(&b, nested.Fields)
	}
	return b.String()
}

func fieldTable(b *strings.Builder, fields []fieldDoc) {
	b.WriteString("| Name | Type | Required |\n| --- | --- | --- |\n")
	for _, f := range fields {
		fmt.Fprintf(b, "| `%s` | `%s` | `%t` |\n", f.Name, f.Type, f.Required)
	}
}

func refBase(ref string) string {
	if i := strings.LastIndexByte(ref, '/'); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

func trimSchemaSuffix(name string) string {
	return strings.TrimSuffix(name, ".schema.json")
}

// slug lowercases a name and folds separator runs into single dashes.
func slug(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch r {
		case ' ', '/', '_', '-':
			pendingDash = b.Len() > 0
		default:
			if pendingDash {
				b.WriteByte('-')
				pendingDash = false
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %q: %w", path, err)
	}
	return nil
}
