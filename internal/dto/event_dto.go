package dto

import (
	"time"

	"github.com/google/uuid"
)

// AnalysisCreatedMessage is published on the in-process event bus after an
// artifact is committed, for listeners that react to finished analyses.
type AnalysisCreatedMessage struct {
	AnalysisId uuid.UUID `json:"analysis_id"`
	SessionId  uuid.UUID `json:"session_id"`
	Metrics    int       `json:"metrics"`
	Charts     int       `json:"charts"`
	CreatedAt  time.Time `json:"created_at"`
}
