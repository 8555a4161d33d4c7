package model

import (
	"time"

	"github.com/google/uuid"
)

type ChatTurn struct {
	Id          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId   uuid.UUID `gorm:"type:uuid;not null;index"`
	UserMessage string    `gorm:"type:text;not null"`
	AiResponse  string    `gorm:"type:text;not null"` // Only completed turns are persisted
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (ChatTurn) TableName() string {
	return "chat_turns"
}
