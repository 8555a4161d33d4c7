package service

import (
	"context"
	"os"
	"time"

	"rravin-be/internal/apperror"
	"rravin-be/internal/dto"
	"rravin-be/internal/entity"
	"rravin-be/internal/pkg/logger"
	"rravin-be/internal/repository/memory"
	"rravin-be/internal/repository/specification"
	"rravin-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// ISessionService is the session registry: identity plus upload quota
// bookkeeping for a visiting client.
type ISessionService interface {
	CreateOrResume(ctx context.Context, clientSuppliedId string) (*dto.SessionResponse, error)
	Get(ctx context.Context, sessionId uuid.UUID) (*dto.SessionResponse, error)
	Reset(ctx context.Context, sessionId uuid.UUID) (*dto.SessionResponse, error)
}

type sessionService struct {
	uowFactory unitofwork.RepositoryFactory
	stateRepo  *memory.SessionStateRepository
	maxFiles   int
	sysLogger  logger.ILogger
}

func NewSessionService(
	uowFactory unitofwork.RepositoryFactory,
	stateRepo *memory.SessionStateRepository,
	maxFiles int,
	sysLogger logger.ILogger,
) ISessionService {
	return &sessionService{
		uowFactory: uowFactory,
		stateRepo:  stateRepo,
		maxFiles:   maxFiles,
		sysLogger:  sysLogger,
	}
}

func (s *sessionService) CreateOrResume(ctx context.Context, clientSuppliedId string) (*dto.SessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	// A resumable id must parse and resolve; anything else means start fresh.
	if id, err := uuid.Parse(clientSuppliedId); err == nil {
		existing, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: id})
		if err != nil {
			return nil, &apperror.StoreUnavailableError{Cause: err}
		}
		if existing != nil {
			return s.toResponse(ctx, uow, existing)
		}
	}

	session := entity.Session{
		Id:            uuid.New(),
		FilesUploaded: 0,
		MaxFiles:      s.maxFiles,
		CreatedAt:     time.Now(),
	}
	if err := uow.SessionRepository().Create(ctx, &session); err != nil {
		return nil, &apperror.StoreUnavailableError{Cause: err}
	}

	s.sysLogger.Info("session", "session created", map[string]interface{}{
		"session_id": session.Id.String(),
		"max_files":  session.MaxFiles,
	})

	return s.toResponse(ctx, uow, &session)
}

func (s *sessionService) Get(ctx context.Context, sessionId uuid.UUID) (*dto.SessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, &apperror.StoreUnavailableError{Cause: err}
	}
	if session == nil {
		return nil, apperror.NewNotFound("session", sessionId.String())
	}

	return s.toResponse(ctx, uow, session)
}

// Reset destroys the identity and hands back a fresh one in a single
// transaction. Analyses and turns of the old session stay addressable by
// their old ids; only the session row is replaced.
func (s *sessionService) Reset(ctx context.Context, sessionId uuid.UUID) (*dto.SessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, &apperror.StoreUnavailableError{Cause: err}
	}
	if session == nil {
		return nil, apperror.NewNotFound("session", sessionId.String())
	}

	oldFiles, err := uow.UploadedFileRepository().FindAll(ctx, specification.BySessionID{SessionID: sessionId})
	if err != nil {
		return nil, &apperror.StoreUnavailableError{Cause: err}
	}

	replacement := entity.Session{
		Id:            uuid.New(),
		FilesUploaded: 0,
		MaxFiles:      s.maxFiles,
		CreatedAt:     time.Now(),
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, &apperror.StoreUnavailableError{Cause: err}
	}
	defer uow.Rollback()

	if err := uow.SessionRepository().Delete(ctx, sessionId); err != nil {
		return nil, &apperror.StoreUnavailableError{Cause: err}
	}
	if err := uow.SessionRepository().Create(ctx, &replacement); err != nil {
		return nil, &apperror.StoreUnavailableError{Cause: err}
	}

	if err := uow.Commit(); err != nil {
		return nil, &apperror.StoreUnavailableError{Cause: err}
	}

	// Raw upload bytes are no longer reachable through any session; remove
	// them best-effort. Metadata rows stay for artifact provenance.
	for _, f := range oldFiles {
		if removeErr := os.Remove(f.StoredPath); removeErr != nil && !os.IsNotExist(removeErr) {
			s.sysLogger.Warn("session", "failed to remove uploaded file", map[string]interface{}{
				"path":  f.StoredPath,
				"error": removeErr.Error(),
			})
		}
	}
	s.stateRepo.Forget(sessionId.String())

	s.sysLogger.Info("session", "session reset", map[string]interface{}{
		"old_session_id": sessionId.String(),
		"new_session_id": replacement.Id.String(),
	})

	return s.toResponse(ctx, uow, &replacement)
}

func (s *sessionService) toResponse(ctx context.Context, uow unitofwork.UnitOfWork, session *entity.Session) (*dto.SessionResponse, error) {
	analyses, err := uow.AnalysisRepository().FindAll(ctx,
		specification.BySessionID{SessionID: session.Id},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, &apperror.StoreUnavailableError{Cause: err}
	}

	refs := make([]dto.AnalysisRef, 0, len(analyses))
	for _, a := range analyses {
		refs = append(refs, dto.AnalysisRef{
			AnalysisId: a.Id,
			CreatedAt:  a.CreatedAt,
		})
	}

	return &dto.SessionResponse{
		SessionId:     session.Id,
		FilesUploaded: session.FilesUploaded,
		MaxFiles:      session.MaxFiles,
		CreatedAt:     session.CreatedAt,
		Analyses:      refs,
	}, nil
}
