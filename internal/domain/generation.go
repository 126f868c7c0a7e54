package domain

import "time"

// GeneratorVersion is stamped into provenance metadata.
const GeneratorVersion = "1.4.0"

// Generation run status constants.
const (
	RunStatusSuccess = "SUCCESS"
	RunStatusPartial = "PARTIAL"
	RunStatusFailed  = "FAILED"
)

// Run trigger constants.
const (
	RunTriggerManual    = "MANUAL"
	RunTriggerScheduled = "SCHEDULED"
)

// Field failure kind constants (per-field degradation causes).
const (
	FailureDistributionInfeasible = "distribution_infeasible"
	FailureLookupNotFound         = "lookup_not_found"
	FailureFormula                = "formula_error"
	FailureInternal               = "internal_error"
)

// GenerateOptions tune a single generation call.
type GenerateOptions struct {
	// Seed makes the call deterministic: the same template, count, options,
	// and seed reproduce bit-identical output. Nil draws a random seed.
	Seed *int64 `json:"seed,omitempty"`
	// Constraints overrides the template's constraint blocks for this call.
	Constraints *ConstraintOverrides `json:"constraints,omitempty"`
	// Quality overrides the template's quality parameters for this call.
	Quality *QualityParameters `json:"quality,omitempty"`
}

// GenerationResult is the terminal artifact of one generation call.
type GenerationResult struct {
	ID               string                 `json:"id"`
	TemplateID       string                 `json:"template_id"`
	RecordsGenerated int                    `json:"records_generated"`
	GeneratedAt      time.Time              `json:"generated_at"`
	QualityMetrics   SyntheticQualityMetrics `json:"quality_metrics"`
	Data             []Record               `json:"data"`
	Metadata         *SyntheticDataMetadata `json:"metadata,omitempty"`
	Validation       ValidationResults      `json:"validation_results"`
	FieldFailures    []FieldFailure         `json:"field_failures,omitempty"`
}

// SyntheticQualityMetrics are batch-level scores in [0,1], computed from the
// accepted records against the template's declared targets.
type SyntheticQualityMetrics struct {
	RealismScore           float64 `json:"realism_score"`
	DiversityIndex         float64 `json:"diversity_index"`
	CorrelationScore       float64 `json:"correlation_score"`
	BusinessRuleCompliance float64 `json:"business_rule_compliance"`
	StatisticalSimilarity  float64 `json:"statistical_similarity"`
	PrivacyScore           float64 `json:"privacy_score"`
}

// ValidationResults summarise record-level validation for one batch.
// Accepted + Rejected always equals the attempted record count.
type ValidationResults struct {
	Accepted      int                     `json:"passed_validations"`
	Rejected      int                     `json:"failed_validations"`
	Errors        []RecordValidationError `json:"errors,omitempty"`
	ValidityRatio float64                 `json:"validity_ratio"`
}

// RecordValidationError describes one failed validation check.
type RecordValidationError struct {
	RecordIndex int    `json:"record_index"`
	Field       string `json:"field"`
	RuleType    string `json:"rule_type"`
	Message     string `json:"message"`
	Severity    string `json:"severity"`
}

// FieldFailure describes one per-field generation degradation (the field fell
// back to its declared minimum or was omitted).
type FieldFailure struct {
	RecordIndex int    `json:"record_index"`
	Field       string `json:"field"`
	Kind        string `json:"kind"`
	Message     string `json:"message"`
}

// SyntheticDataMetadata carries provenance, per-field quality indicators, and
// lineage for a generated batch.
type SyntheticDataMetadata struct {
	Provenance        Provenance        `json:"provenance"`
	QualityIndicators QualityIndicators `json:"quality_indicators"`
	Lineage           Lineage           `json:"lineage"`
}

// Provenance records how a batch was produced.
type Provenance struct {
	Method           string    `json:"method"`
	TemplateID       string    `json:"template_id"`
	GeneratedAt      time.Time `json:"generated_at"`
	GeneratorVersion string    `json:"generator_version"`
	Seed             *int64    `json:"seed,omitempty"`
}

// QualityIndicators hold per-field confidence (success ratio across the batch)
// and its complementary uncertainty.
type QualityIndicators struct {
	FieldConfidence  map[string]float64 `json:"field_confidence"`
	FieldUncertainty map[string]float64 `json:"field_uncertainty"`
}

// Lineage links a batch to its inputs.
type Lineage struct {
	ParentDatasets       []string        `json:"parent_datasets"`
	Transformations      []string        `json:"transformations"`
	EffectiveConstraints DataConstraints `json:"effective_constraints"`
}

// GenerationRun is the persisted control-plane record of one generation call.
type GenerationRun struct {
	ID             string    `json:"id"`
	TemplateID     string    `json:"template_id"`
	Status         string    `json:"status"`
	TriggerType    string    `json:"trigger_type"`
	RequestedCount int       `json:"requested_count"`
	Accepted       int       `json:"accepted"`
	Rejected       int       `json:"rejected"`
	Seed           *int64    `json:"seed,omitempty"`
	DurationMillis int64     `json:"duration_ms"`
	MetricsJSON    string    `json:"-"`
	CreatedBy      string    `json:"created_by,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
