package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChatTurn is one completed user message plus its AI response, ordered by
// CreatedAt within a session. Pending turns (response not yet received) are
// never persisted; they live only in the in-memory session state until the
// LLM call settles.
type ChatTurn struct {
	Id          uuid.UUID
	SessionId   uuid.UUID
	UserMessage string
	AiResponse  string
	CreatedAt   time.Time
}
