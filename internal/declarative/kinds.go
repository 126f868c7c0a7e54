package declarative

// ResourceKind identifies a type of managed resource.
type ResourceKind int

// Kinds are ordered by dependency layer: lookup tables must exist before
// the templates whose rules reference them.
const (
	KindLookupTable ResourceKind = iota
	KindTemplate
)

var kindNames = [...]string{
	KindLookupTable: "lookup-table",
	KindTemplate:    "template",
}

// String returns the kebab-case name used in plan output.
func (k ResourceKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// numLayers is the count of dependency layers.
const numLayers = 2

// Layer returns the dependency layer used for apply ordering. Creates run
// lowest layer first; deletes run in reverse.
func (k ResourceKind) Layer() int {
	if k == KindLookupTable {
		return 0
	}
	return 1
}

// Operation is the type of planned change.
type Operation int

const (
	OpCreate Operation = iota
	OpUpdate
	OpDelete
)

var opNames = [...]string{
	OpCreate: "create",
	OpUpdate: "update",
	OpDelete: "delete",
}

// String returns the lowercase verb used in plan output.
func (o Operation) String() string {
	if o < 0 || int(o) >= len(opNames) {
		return "unknown"
	}
	return opNames[o]
}

// Kind strings accepted in YAML document envelopes.
const (
	KindNameTemplate        = "Template"
	KindNameLookupTableList = "LookupTableList"
)

// SupportedAPIVersion is the apiVersion every YAML document must carry.
const SupportedAPIVersion = "synthgen/v1"
