package service

import (
	"context"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"rravin-be/internal/apperror"
	"rravin-be/internal/dto"
	"rravin-be/internal/entity"
	"rravin-be/internal/pkg/logger"
	"rravin-be/internal/repository/specification"
	"rravin-be/internal/repository/unitofwork"
	"rravin-be/pkg/tabular"

	"github.com/google/uuid"
)

// IUploadService is the upload ledger: it records which raw files belong to
// which session and enforces the per-session quota atomically.
type IUploadService interface {
	Register(ctx context.Context, sessionId uuid.UUID, files []*multipart.FileHeader) (*dto.UploadResponse, error)
}

type uploadService struct {
	uowFactory  unitofwork.RepositoryFactory
	summarizers *tabular.Registry
	uploadDir   string
	sysLogger   logger.ILogger
}

func NewUploadService(
	uowFactory unitofwork.RepositoryFactory,
	summarizers *tabular.Registry,
	uploadDir string,
	sysLogger logger.ILogger,
) IUploadService {
	return &uploadService{
		uowFactory:  uowFactory,
		summarizers: summarizers,
		uploadDir:   uploadDir,
		sysLogger:   sysLogger,
	}
}

func kindForFilename(name string) (string, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return entity.FileKindCSV, true
	case ".xlsx", ".xls":
		return entity.FileKindXLSX, true
	default:
		return "", false
	}
}

func (s *uploadService) Register(ctx context.Context, sessionId uuid.UUID, files []*multipart.FileHeader) (*dto.UploadResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, &apperror.StoreUnavailableError{Cause: err}
	}
	if session == nil {
		return nil, apperror.NewNotFound("session", sessionId.String())
	}

	// Reject unsupported types before any quota is spent.
	kinds := make([]string, len(files))
	for i, fh := range files {
		kind, ok := kindForFilename(fh.Filename)
		if !ok {
			return nil, &apperror.InvalidFileError{
				Filename: fh.Filename,
				Reason:   "only CSV and Excel files are supported",
			}
		}
		kinds[i] = kind
	}

	// The check and the increment are one guarded UPDATE: concurrent uploads
	// on the same session cannot double-spend the quota.
	accepted, err := uow.SessionRepository().ConsumeQuota(ctx, sessionId, len(files))
	if err != nil {
		return nil, &apperror.StoreUnavailableError{Cause: err}
	}
	if !accepted {
		current, findErr := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
		if findErr != nil {
			return nil, &apperror.StoreUnavailableError{Cause: findErr}
		}
		if current == nil {
			return nil, apperror.NewNotFound("session", sessionId.String())
		}
		return nil, &apperror.QuotaExceededError{
			MaxFiles:  current.MaxFiles,
			Uploaded:  current.FilesUploaded,
			Requested: len(files),
		}
	}

	uploaded, err := s.persistBatch(ctx, uow, sessionId, files, kinds)
	if err != nil {
		// Quota was consumed but the batch never landed; give it back so the
		// session is not charged for files it cannot analyze.
		if _, releaseErr := uow.SessionRepository().ConsumeQuota(ctx, sessionId, -len(files)); releaseErr != nil {
			s.sysLogger.Error("upload", "failed to release quota after batch failure", map[string]interface{}{
				"session_id": sessionId.String(),
				"error":      releaseErr.Error(),
			})
		}
		return nil, err
	}

	current, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, &apperror.StoreUnavailableError{Cause: err}
	}

	s.sysLogger.Info("upload", "batch accepted", map[string]interface{}{
		"session_id": sessionId.String(),
		"files":      len(files),
		"remaining":  current.Remaining(),
	})

	responses := make([]dto.UploadedFileResponse, 0, len(uploaded))
	for _, f := range uploaded {
		responses = append(responses, dto.UploadedFileResponse{
			FileId:       f.Id,
			OriginalName: f.OriginalName,
			Rows:         f.Rows,
			Columns:      f.Columns,
			ColumnNames:  f.ColumnNames,
			UploadedAt:   f.UploadedAt,
		})
	}

	return &dto.UploadResponse{
		Files:            responses,
		TotalFiles:       current.FilesUploaded,
		RemainingUploads: current.Remaining(),
	}, nil
}

func (s *uploadService) persistBatch(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	sessionId uuid.UUID,
	files []*multipart.FileHeader,
	kinds []string,
) ([]*entity.UploadedFile, error) {
	if err := os.MkdirAll(s.uploadDir, 0755); err != nil {
		return nil, &apperror.StoreUnavailableError{Cause: err}
	}

	var storedPaths []string
	cleanup := func() {
		for _, p := range storedPaths {
			_ = os.Remove(p)
		}
	}

	entities := make([]*entity.UploadedFile, 0, len(files))
	for i, fh := range files {
		fileId := uuid.New()
		storedPath := filepath.Join(s.uploadDir, fileId.String()+strings.ToLower(filepath.Ext(fh.Filename)))

		if err := s.saveFile(fh, storedPath); err != nil {
			cleanup()
			return nil, &apperror.InvalidFileError{Filename: fh.Filename, Reason: err.Error()}
		}
		storedPaths = append(storedPaths, storedPath)

		file := &entity.UploadedFile{
			Id:           fileId,
			SessionId:    sessionId,
			OriginalName: fh.Filename,
			Kind:         kinds[i],
			ByteSize:     fh.Size,
			ColumnNames:  make([]string, 0),
			StoredPath:   storedPath,
			UploadedAt:   time.Now(),
		}

		// Tabular metadata is advisory; a summarizer miss (e.g. xlsx without
		// an adapter) still leaves a valid ledger entry.
		if summarizer, ok := s.summarizers.For(kinds[i]); ok {
			if summary, sumErr := s.summarize(ctx, summarizer, fh); sumErr == nil {
				file.Rows = summary.Rows
				file.Columns = summary.Columns
				file.ColumnNames = summary.ColumnNames
			} else {
				cleanup()
				return nil, &apperror.InvalidFileError{Filename: fh.Filename, Reason: sumErr.Error()}
			}
		}

		entities = append(entities, file)
	}

	if err := uow.Begin(ctx); err != nil {
		cleanup()
		return nil, &apperror.StoreUnavailableError{Cause: err}
	}
	defer uow.Rollback()

	for _, file := range entities {
		if err := uow.UploadedFileRepository().Create(ctx, file); err != nil {
			cleanup()
			return nil, &apperror.StoreUnavailableError{Cause: err}
		}
	}

	if err := uow.Commit(); err != nil {
		cleanup()
		return nil, &apperror.StoreUnavailableError{Cause: err}
	}

	return entities, nil
}

func (s *uploadService) saveFile(fh *multipart.FileHeader, storedPath string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(storedPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

func (s *uploadService) summarize(ctx context.Context, summarizer tabular.Summarizer, fh *multipart.FileHeader) (*tabular.Summary, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return summarizer.Summarize(ctx, fh.Filename, src)
}
