package declarative

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// LookupsFileName is the reserved file declaring shared lookup tables.
const LookupsFileName = "lookups.yaml"

// LoadOptions configures YAML loading behavior.
type LoadOptions struct {
	AllowUnknownFields bool
}

// LoadDirectory reads a templates directory. Every top-level .yaml file is
// one Template document, except lookups.yaml, which declares shared lookup
// tables. Subdirectories are ignored.
func LoadDirectory(dir string) (*DesiredState, error) {
	return LoadDirectoryWithOptions(dir, LoadOptions{})
}

// LoadDirectoryWithOptions reads all YAML files from the given directory using
// caller-provided loading options.
func LoadDirectoryWithOptions(dir string, opts LoadOptions) (*DesiredState, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("templates directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("templates directory: %s is not a directory", dir)
	}

	state := &DesiredState{}

	if err := loadLookups(dir, state, opts); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read templates directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") || entry.Name() == LookupsFileName {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		res, err := LoadTemplateFileWithOptions(filepath.Join(dir, name), opts)
		if err != nil {
			return nil, err
		}
		state.Templates = append(state.Templates, *res)
	}

	return state, nil
}

// LoadTemplateFile reads a single Template document.
func LoadTemplateFile(path string) (*TemplateResource, error) {
	return LoadTemplateFileWithOptions(path, LoadOptions{})
}

// LoadTemplateFileWithOptions reads a single Template document using
// caller-provided loading options.
func LoadTemplateFileWithOptions(path string, opts LoadOptions) (*TemplateResource, error) {
	var doc TemplateDoc
	found, err := loadYAMLFile(path, &doc, opts)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("read %s: %w", path, os.ErrNotExist)
	}
	if err := validateDocument(path, doc.APIVersion, doc.Kind, KindNameTemplate); err != nil {
		return nil, err
	}

	fileName := strings.TrimSuffix(filepath.Base(path), ".yaml")
	if doc.Metadata.Name == "" {
		return nil, fmt.Errorf("%s: metadata.name is required", path)
	}
	if doc.Metadata.Name != fileName {
		return nil, fmt.Errorf("%s: metadata.name %q does not match file name %q", path, doc.Metadata.Name, fileName)
	}

	return &TemplateResource{
		Name:     doc.Metadata.Name,
		FilePath: path,
		Spec:     doc.Spec,
	}, nil
}

// loadLookups reads the optional lookups.yaml file.
func loadLookups(dir string, state *DesiredState, opts LoadOptions) error {
	path := filepath.Join(dir, LookupsFileName)
	var doc LookupTableListDoc
	found, err := loadYAMLFile(path, &doc, opts)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	if err := validateDocument(path, doc.APIVersion, doc.Kind, KindNameLookupTableList); err != nil {
		return err
	}
	for _, table := range doc.Tables {
		state.LookupTables = append(state.LookupTables, LookupTableResource{
			FilePath: path,
			Spec:     table,
		})
	}
	return nil
}

// loadYAMLFile reads and unmarshals a YAML file into the given target.
// Returns (false, nil) if file doesn't exist (optional files).
// Returns (false, err) on read/parse errors.
// Returns (true, nil) on success.
func loadYAMLFile(path string, target interface{}, opts LoadOptions) (bool, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the --config-dir flag
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", path, err)
	}
	if opts.AllowUnknownFields {
		if err := yaml.Unmarshal(data, target); err != nil {
			return false, fmt.Errorf("parse %s: %w", path, err)
		}
		return true, nil
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(target); err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	return true, nil
}

// validateDocument checks the apiVersion and kind fields.
func validateDocument(path string, apiVersion, kind, expectedKind string) error {
	if apiVersion != SupportedAPIVersion {
		return fmt.Errorf("%s: unsupported apiVersion %q (expected %q)", path, apiVersion, SupportedAPIVersion)
	}
	if kind != expectedKind {
		return fmt.Errorf("%s: unexpected kind %q (expected %q)", path, kind, expectedKind)
	}
	return nil
}
