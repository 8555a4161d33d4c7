package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	FileKindCSV  = "csv"
	FileKindXLSX = "xlsx"
)

// UploadedFile records one raw file accepted against a session's quota. File
// bytes live on disk at StoredPath; only metadata is persisted here.
type UploadedFile struct {
	Id           uuid.UUID
	SessionId    uuid.UUID
	OriginalName string
	Kind         string // FileKindCSV | FileKindXLSX
	ByteSize     int64
	Rows         int
	Columns      int
	ColumnNames  []string
	StoredPath   string
	UploadedAt   time.Time
}
