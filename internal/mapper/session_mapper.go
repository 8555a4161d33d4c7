package mapper

import (
	"encoding/json"
	"time"

	"rravin-be/internal/entity"
	"rravin-be/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SessionMapper struct{}

func NewSessionMapper() *SessionMapper {
	return &SessionMapper{}
}

func (m *SessionMapper) SessionToEntity(s *model.Session) *entity.Session {
	if s == nil {
		return nil
	}

	var deletedAt *time.Time
	if s.DeletedAt.Valid {
		t := s.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.Session{
		Id:            s.Id,
		FilesUploaded: s.FilesUploaded,
		MaxFiles:      s.MaxFiles,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     updatedAt,
		DeletedAt:     deletedAt,
		IsDeleted:     s.DeletedAt.Valid,
	}
}

func (m *SessionMapper) SessionToModel(s *entity.Session) *model.Session {
	if s == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if s.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *s.DeletedAt, Valid: true}
	} else if s.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.Session{
		Id:            s.Id,
		FilesUploaded: s.FilesUploaded,
		MaxFiles:      s.MaxFiles,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     updatedAt,
		DeletedAt:     deletedAt,
	}
}

// UploadedFile mappers

func (m *SessionMapper) UploadedFileToEntity(f *model.UploadedFile) *entity.UploadedFile {
	if f == nil {
		return nil
	}

	var columnNames []string
	if len(f.ColumnNames) > 0 {
		// Column names were marshalled by us on the way in; a decode failure
		// here means manual tampering, so an empty slice is acceptable.
		_ = json.Unmarshal(f.ColumnNames, &columnNames)
	}

	return &entity.UploadedFile{
		Id:           f.Id,
		SessionId:    f.SessionId,
		OriginalName: f.OriginalName,
		Kind:         f.Kind,
		ByteSize:     f.ByteSize,
		Rows:         f.Rows,
		Columns:      f.Columns,
		ColumnNames:  columnNames,
		StoredPath:   f.StoredPath,
		UploadedAt:   f.CreatedAt,
	}
}

func (m *SessionMapper) UploadedFileToModel(f *entity.UploadedFile) *model.UploadedFile {
	if f == nil {
		return nil
	}

	columnNames, _ := json.Marshal(f.ColumnNames)

	return &model.UploadedFile{
		Id:           f.Id,
		SessionId:    f.SessionId,
		OriginalName: f.OriginalName,
		Kind:         f.Kind,
		ByteSize:     f.ByteSize,
		Rows:         f.Rows,
		Columns:      f.Columns,
		ColumnNames:  datatypes.JSON(columnNames),
		StoredPath:   f.StoredPath,
		CreatedAt:    f.UploadedAt,
	}
}
