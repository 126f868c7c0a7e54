package declarative

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testdataDir returns the absolute path to testdata relative to this test file.
func testdataDir(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "runtime.Caller failed")
	return filepath.Join(filepath.Dir(filename), "testdata")
}

func TestLoader_ValidDirectory(t *testing.T) {
	dir := filepath.Join(testdataDir(t), "valid")
	state, err := LoadDirectory(dir)
	require.NoError(t, err)

	t.Run("lookup tables loaded", func(t *testing.T) {
		require.Len(t, state.LookupTables, 2)
		assert.Equal(t, "channels", state.LookupTables[0].Spec.Name)
		assert.Equal(t, []string{"search", "social", "email", "display"}, state.LookupTables[0].Spec.Values)
		assert.Equal(t, "devices", state.LookupTables[1].Spec.Name)
	})

	t.Run("templates loaded in file order", func(t *testing.T) {
		require.Len(t, state.Templates, 2)
		assert.Equal(t, "campaign", state.Templates[0].Name)
		assert.Equal(t, "social", state.Templates[1].Name)
	})

	t.Run("campaign spec decoded", func(t *testing.T) {
		spec := state.Templates[0].Spec
		assert.Equal(t, "campaign_performance", spec.DataType)
		assert.True(t, spec.IncludeMetadata)
		require.Len(t, spec.Rules, 4)

		spend := spec.Rules[0]
		assert.Equal(t, "spend", spend.Field)
		assert.Equal(t, "statistical", spend.Method)
		require.NotNil(t, spend.Params.Min)
		assert.Equal(t, 100.0, *spend.Params.Min)
		require.Len(t, spend.Validation, 1)
		assert.Equal(t, "high", spend.Validation[0].Severity)

		channel := spec.Rules[1]
		assert.Equal(t, "channels", channel.Params.LookupTable)
		assert.Equal(t, 0.4, channel.Params.Weights["search"])

		conversions := spec.Rules[2]
		assert.Equal(t, "spend / 25.0", conversions.Params.Formula)
		assert.Equal(t, []string{"spend"}, conversions.Params.Dependencies)
	})

	t.Run("nested blocks decoded", func(t *testing.T) {
		spec := state.Templates[0].Spec
		require.NotNil(t, spec.Constraints)
		require.NotNil(t, spec.Constraints.Temporal)
		assert.Equal(t, "2025-01-01", spec.Constraints.Temporal.StartDate)
		require.NotNil(t, spec.Constraints.Business)
		assert.Equal(t, RangeSpec{Min: 100, Max: 10000}, spec.Constraints.Business.RealisticRanges["spend"])
		require.NotNil(t, spec.Quality)
		assert.Equal(t, 0.85, spec.Quality.TargetRealism)
		require.NotNil(t, spec.Backfill)
		assert.Equal(t, "0 2 * * *", spec.Backfill.Cron)
		assert.Equal(t, 500, spec.Backfill.Count)
	})
}

func TestLoader_BadYAML(t *testing.T) {
	dir := filepath.Join(testdataDir(t), "invalid", "bad-yaml")
	_, err := LoadDirectory(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

func TestLoader_NameMismatch(t *testing.T) {
	dir := filepath.Join(testdataDir(t), "invalid", "name-mismatch")
	_, err := LoadDirectory(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match file name")
}

func TestLoader_WrongKind(t *testing.T) {
	dir := filepath.Join(testdataDir(t), "invalid", "wrong-kind")
	_, err := LoadDirectory(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected kind")
}

func TestLoader_UnknownFieldRejected(t *testing.T) {
	dir := filepath.Join(testdataDir(t), "invalid", "unknown-field")

	_, err := LoadDirectory(dir)
	require.Error(t, err, "strict decoding must reject unknown fields")

	state, err := LoadDirectoryWithOptions(dir, LoadOptions{AllowUnknownFields: true})
	require.NoError(t, err)
	require.Len(t, state.Templates, 1)
	assert.Equal(t, "extra", state.Templates[0].Name)
}

func TestLoader_UnsupportedAPIVersion(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	doc := []byte(`apiVersion: synthgen/v2
kind: Template
metadata:
  name: future
spec:
  data_type: campaign_performance
  rules:
    - field: spend
      method: statistical
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "future.yaml"), doc, 0o644))

	_, err := LoadDirectory(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported apiVersion")
}

func TestLoader_EmptyDirectory(t *testing.T) {
	state, err := LoadDirectory(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, state.Templates)
	assert.Empty(t, state.LookupTables)
}

func TestLoader_NonexistentDir(t *testing.T) {
	_, err := LoadDirectory("/nonexistent/path")
	require.Error(t, err)
}

func TestLoadTemplateFile_Single(t *testing.T) {
	path := filepath.Join(testdataDir(t), "valid", "campaign.yaml")
	res, err := LoadTemplateFile(path)
	require.NoError(t, err)
	assert.Equal(t, "campaign", res.Name)
	assert.Equal(t, path, res.FilePath)
	assert.Len(t, res.Spec.Rules, 4)
}

func TestLoadTemplateFile_Missing(t *testing.T) {
	_, err := LoadTemplateFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestTemplateResourceToDomain(t *testing.T) {
	dir := filepath.Join(testdataDir(t), "valid")
	state, err := LoadDirectory(dir)
	require.NoError(t, err)

	tmpl, err := state.Templates[0].ToDomain()
	require.NoError(t, err)

	assert.Equal(t, "campaign", tmpl.ID)
	assert.Equal(t, "campaign_performance", tmpl.DataType)
	assert.True(t, tmpl.IncludeMetadata)
	assert.Equal(t, "0 2 * * *", tmpl.BackfillCron)
	assert.Equal(t, 500, tmpl.BackfillCount)

	require.Len(t, tmpl.Rules, 4)
	assert.Equal(t, "channels", tmpl.Rules[1].Params.LookupTable)

	assert.Equal(t, 2025, tmpl.Constraints.Temporal.StartDate.Year())
	assert.Equal(t, 6, int(tmpl.Constraints.Temporal.EndDate.Month()))
	assert.Equal(t, 0.95, tmpl.Constraints.Quality.CompletenessTarget)
	assert.Equal(t, 0.85, tmpl.Quality.TargetRealism)

	require.NoError(t, tmpl.Validate())
}

func TestTemplateResourceToDomainBadDate(t *testing.T) {
	res := TemplateResource{
		Name: "bad_dates",
		Spec: TemplateSpec{
			DataType: "campaign_performance",
			Rules:    []RuleSpec{{Field: "spend", Method: "statistical"}},
			Constraints: &ConstraintsSpec{
				Temporal: &TemporalSpec{StartDate: "January 1st"},
			},
		},
	}
	_, err := res.ToDomain()
	require.Error(t, err)
}
