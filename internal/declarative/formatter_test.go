package declarative

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePlan() *Plan {
	return &Plan{
		Actions: []Action{
			{Operation: OpCreate, ResourceKind: KindLookupTable,
				ResourceName: "channels", FilePath: "templates/lookups.yaml"},
			{Operation: OpUpdate, ResourceKind: KindTemplate,
				ResourceName: "campaign", FilePath: "templates/campaign.yaml",
				Changes: []FieldDiff{{Field: "data_type", OldValue: "social_content", NewValue: "campaign_performance"}}},
			{Operation: OpDelete, ResourceKind: KindTemplate, ResourceName: "abandoned"},
		},
		Errors: []PlanError{
			{ResourceKind: KindTemplate, ResourceName: "broken", Message: "temporal start_date: bad date"},
		},
	}
}

func TestFormatText_NoChanges(t *testing.T) {
	var buf bytes.Buffer
	FormatText(&buf, &Plan{}, true)
	assert.Equal(t, "No changes. Templates are up-to-date.\n", buf.String())
}

func TestFormatText_GroupsByFile(t *testing.T) {
	var buf bytes.Buffer
	FormatText(&buf, samplePlan(), true)
	out := buf.String()

	assert.Contains(t, out, "# templates/lookups.yaml")
	assert.Contains(t, out, `+ lookup-table "channels" will be created`)
	assert.Contains(t, out, "# templates/campaign.yaml")
	assert.Contains(t, out, `~ template "campaign" will be updated`)
	assert.Contains(t, out, `data_type: "social_content" → "campaign_performance"`)
	assert.Contains(t, out, "# (registry-only)")
	assert.Contains(t, out, `- template "abandoned" will be deleted`)
	assert.Contains(t, out, `✗ template "broken": temporal start_date: bad date`)
	assert.Contains(t, out, "Plan: 1 to create, 1 to update, 1 to delete. 1 error(s).")

	// No ANSI escapes leak through when color is off.
	assert.NotContains(t, out, "\033[")
}

func TestFormatText_ColorCodes(t *testing.T) {
	var buf bytes.Buffer
	FormatText(&buf, samplePlan(), false)
	out := buf.String()

	assert.Contains(t, out, colorGreen+"+")
	assert.Contains(t, out, colorYellow+"~")
	assert.Contains(t, out, colorRed+"-")
}

func TestFormatText_SectionOrderFollowsActions(t *testing.T) {
	var buf bytes.Buffer
	FormatText(&buf, samplePlan(), true)
	out := buf.String()

	lookupIdx := strings.Index(out, "lookups.yaml")
	campaignIdx := strings.Index(out, "campaign.yaml")
	registryIdx := strings.Index(out, "(registry-only)")
	require.True(t, lookupIdx >= 0 && campaignIdx >= 0 && registryIdx >= 0)
	assert.Less(t, lookupIdx, campaignIdx)
	assert.Less(t, campaignIdx, registryIdx)
}

func TestFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatJSON(&buf, samplePlan()))

	var decoded struct {
		Actions []struct {
			Operation    string      `json:"operation"`
			ResourceType string      `json:"resource_type"`
			ResourceName string      `json:"resource_name"`
			Path         string      `json:"path"`
			Changes      []FieldDiff `json:"changes"`
		} `json:"actions"`
		Errors []struct {
			ResourceName string `json:"resource_name"`
			Message      string `json:"message"`
		} `json:"errors"`
		Summary PlanSummary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	require.Len(t, decoded.Actions, 3)
	assert.Equal(t, "create", decoded.Actions[0].Operation)
	assert.Equal(t, "lookup-table", decoded.Actions[0].ResourceType)
	assert.Equal(t, "update", decoded.Actions[1].Operation)
	require.Len(t, decoded.Actions[1].Changes, 1)
	assert.Equal(t, "data_type", decoded.Actions[1].Changes[0].Field)
	assert.Equal(t, "delete", decoded.Actions[2].Operation)
	assert.Empty(t, decoded.Actions[2].Path)

	require.Len(t, decoded.Errors, 1)
	assert.Equal(t, "broken", decoded.Errors[0].ResourceName)
	assert.Equal(t, PlanSummary{Creates: 1, Updates: 1, Deletes: 1, Errors: 1}, decoded.Summary)
}

func TestFormatJSON_EmptyPlan(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatJSON(&buf, &Plan{}))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, []any{}, decoded["actions"])
	assert.NotContains(t, decoded, "errors")
}
