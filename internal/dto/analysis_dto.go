package dto

import (
	"time"

	"rravin-be/internal/entity"

	"github.com/google/uuid"
)

type AnalyzeRequest struct {
	SessionId    string `json:"session_id" validate:"required"`
	Instructions string `json:"instructions"`
}

type AnalysisResponse struct {
	AnalysisId      uuid.UUID              `json:"analysis_id"`
	SessionId       uuid.UUID              `json:"session_id"`
	Summary         string                 `json:"summary"`
	KeyMetrics      []entity.Metric        `json:"key_metrics"`
	Visualizations  []entity.Visualization `json:"visualizations"`
	Problems        []string               `json:"problems"`
	Recommendations []string               `json:"recommendations"`
	ExecutiveReport string                 `json:"executive_report"`
	CreatedAt       time.Time              `json:"created_at"`
}
