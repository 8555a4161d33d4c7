package entity

import (
	"time"

	"github.com/google/uuid"
)

type Session struct {
	Id            uuid.UUID
	FilesUploaded int
	MaxFiles      int
	CreatedAt     time.Time
	UpdatedAt     *time.Time
	DeletedAt     *time.Time
	IsDeleted     bool
}

// Remaining is the number of files the session may still upload.
func (s *Session) Remaining() int {
	remaining := s.MaxFiles - s.FilesUploaded
	if remaining < 0 {
		return 0
	}
	return remaining
}
