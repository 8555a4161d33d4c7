package dto

import (
	"time"

	"github.com/google/uuid"
)

type UploadedFileResponse struct {
	FileId       uuid.UUID `json:"file_id"`
	OriginalName string    `json:"original_name"`
	Rows         int       `json:"rows"`
	Columns      int       `json:"columns"`
	ColumnNames  []string  `json:"column_names"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

type UploadResponse struct {
	Files            []UploadedFileResponse `json:"files"`
	TotalFiles       int                    `json:"total_files"`
	RemainingUploads int                    `json:"remaining_uploads"`
}
