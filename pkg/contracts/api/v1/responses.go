package api

import (
	"time"

	"creditfile/pkg/contracts/domain"
)

// ReportResponse is the result of scoring one uploaded report
type ReportResponse struct {
	Filename            string                  `json:"filename"`
	Record              domain.NormalizedRecord `json:"record"`
	Features            domain.FeatureVector    `json:"features"`
	MissingFields       map[string][]string     `json:"missing_fields"`
	SkippedSections     []string                `json:"skipped_sections,omitempty"`
	AmortizationImputed bool                    `json:"amortization_imputed"`
	CreditScore         *int                    `json:"credit_score,omitempty"`
	ScoreModel          string                  `json:"score_model,omitempty"`
	ProcessedAt         time.Time               `json:"processed_at"`
	TraceID             string                  `json:"trace_id,omitempty"`
}

// FeatureListResponse lists the published features in classifier order
type FeatureListResponse struct {
	Features []string `json:"features"`
	Count    int      `json:"count"`
}
