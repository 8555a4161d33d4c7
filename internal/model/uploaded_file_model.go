package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type UploadedFile struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId    uuid.UUID      `gorm:"type:uuid;not null;index"` // Session ownership, survives session reset
	OriginalName string         `gorm:"type:text;not null"`
	Kind         string         `gorm:"type:varchar(8);not null"`
	ByteSize     int64          `gorm:"not null"`
	Rows         int            `gorm:"not null;default:0"`
	Columns      int            `gorm:"not null;default:0"`
	ColumnNames  datatypes.JSON `gorm:"type:jsonb"`
	StoredPath   string         `gorm:"type:text;not null"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
}

func (UploadedFile) TableName() string {
	return "uploaded_files"
}
