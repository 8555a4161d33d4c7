package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Analysis struct {
	Id              uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId       uuid.UUID      `gorm:"type:uuid;not null;index"`
	Summary         string         `gorm:"type:text;not null"`
	KeyMetrics      datatypes.JSON `gorm:"type:jsonb"`
	Visualizations  datatypes.JSON `gorm:"type:jsonb"`
	Problems        datatypes.JSON `gorm:"type:jsonb"`
	Recommendations datatypes.JSON `gorm:"type:jsonb"`
	ExecutiveReport string         `gorm:"type:text;not null"`
	Instructions    string         `gorm:"type:text"`
	CreatedAt       time.Time      `gorm:"autoCreateTime"`
}

func (Analysis) TableName() string {
	return "analyses"
}
