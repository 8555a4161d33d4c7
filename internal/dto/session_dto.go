package dto

import (
	"time"

	"github.com/google/uuid"
)

// CreateSessionRequest carries an optional client-remembered id. A stale or
// unknown id silently yields a fresh session.
type CreateSessionRequest struct {
	SessionId string `json:"session_id"`
}

type AnalysisRef struct {
	AnalysisId uuid.UUID `json:"analysis_id"`
	CreatedAt  time.Time `json:"created_at"`
}

type SessionResponse struct {
	SessionId     uuid.UUID     `json:"session_id"`
	FilesUploaded int           `json:"files_uploaded"`
	MaxFiles      int           `json:"max_files"`
	CreatedAt     time.Time     `json:"created_at"`
	Analyses      []AnalysisRef `json:"analyses"`
}
