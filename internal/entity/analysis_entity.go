package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	TrendUp   = "up"
	TrendDown = "down"
	TrendFlat = "flat"
)

const (
	VisualizationTypeBar      = "bar"
	VisualizationTypeLine     = "line"
	VisualizationTypeArea     = "area"
	VisualizationTypePie      = "pie"
	VisualizationTypeComposed = "composed"
)

type Metric struct {
	Name           string `json:"name"`
	Value          string `json:"value"`
	Change         string `json:"change,omitempty"`
	Trend          string `json:"trend,omitempty"`
	Interpretation string `json:"interpretation,omitempty"`
}

type Visualization struct {
	Type        string           `json:"type"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	XKey        string           `json:"xKey"`
	YKey        string           `json:"yKey"`
	Data        []map[string]any `json:"data"`
}

// Analysis is the canonical artifact of one analyze call. Immutable once
// persisted: either fully present at its id or not found, never partial.
type Analysis struct {
	Id              uuid.UUID
	SessionId       uuid.UUID
	Summary         string
	KeyMetrics      []Metric
	Visualizations  []Visualization
	Problems        []string
	Recommendations []string
	ExecutiveReport string
	Instructions    string
	CreatedAt       time.Time
}
