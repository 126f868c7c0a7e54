package declarative

import "reflect"

// SchemaDocument pairs a YAML kind with the Go type its documents decode
// into. The schema generator walks these types to emit the JSON Schema
// artifacts editors use for completion and validation.
type SchemaDocument struct {
	Kind     string
	FileName string
	Type     reflect.Type
}

// SchemaDocumentTypes returns the document types of every supported kind,
// ordered by dependency layer.
func SchemaDocumentTypes() []SchemaDocument {
	return []SchemaDocument{
		{Kind: KindNameLookupTableList, FileName: "lookup-table-list", Type: reflect.TypeOf(LookupTableListDoc{})},
		{Kind: KindNameTemplate, FileName: "template", Type: reflect.TypeOf(TemplateDoc{})},
	}
}
