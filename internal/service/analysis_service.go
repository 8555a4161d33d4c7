package service

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"time"

	"rravin-be/internal/apperror"
	"rravin-be/internal/dto"
	"rravin-be/internal/entity"
	"rravin-be/internal/pkg/logger"
	"rravin-be/internal/repository/specification"
	"rravin-be/internal/repository/unitofwork"
	"rravin-be/pkg/analysis/artifact"
	"rravin-be/pkg/analysis/prompt"
	"rravin-be/pkg/llm"
	"rravin-be/pkg/tabular"

	"github.com/google/uuid"
)

// IAnalysisService orchestrates one analyze call: bounded data context in,
// exactly one artifact out. Each call produces a new immutable analysis;
// previous ones stay addressable by id.
type IAnalysisService interface {
	Analyze(ctx context.Context, req *dto.AnalyzeRequest) (*dto.AnalysisResponse, error)
	Get(ctx context.Context, analysisId uuid.UUID) (*dto.AnalysisResponse, error)
}

type analysisService struct {
	uowFactory       unitofwork.RepositoryFactory
	provider         llm.LLMProvider
	validator        *artifact.Validator
	summarizers      *tabular.Registry
	publisherService IPublisherService
	requestTimeout   time.Duration
	retryBackoff     time.Duration
	sysLogger        logger.ILogger
}

func NewAnalysisService(
	uowFactory unitofwork.RepositoryFactory,
	provider llm.LLMProvider,
	validator *artifact.Validator,
	summarizers *tabular.Registry,
	publisherService IPublisherService,
	requestTimeout time.Duration,
	sysLogger logger.ILogger,
) IAnalysisService {
	return &analysisService{
		uowFactory:       uowFactory,
		provider:         provider,
		validator:        validator,
		summarizers:      summarizers,
		publisherService: publisherService,
		requestTimeout:   requestTimeout,
		retryBackoff:     2 * time.Second,
		sysLogger:        sysLogger,
	}
}

func (s *analysisService) Analyze(ctx context.Context, req *dto.AnalyzeRequest) (*dto.AnalysisResponse, error) {
	sessionId, err := uuid.Parse(req.SessionId)
	if err != nil {
		return nil, apperror.NewNotFound("session", req.SessionId)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, &apperror.StoreUnavailableError{Cause: err}
	}
	if session == nil {
		return nil, apperror.NewNotFound("session", req.SessionId)
	}

	files, err := uow.UploadedFileRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, &apperror.StoreUnavailableError{Cause: err}
	}
	if len(files) == 0 {
		return nil, &apperror.EmptyBatchError{SessionId: req.SessionId}
	}

	summaries := s.summarize(ctx, files)
	builder := prompt.NewAnalysisBuilder(summaries, req.Instructions)

	result, err := s.callWithRetry(ctx, builder, sessionId)
	if err != nil {
		return nil, err
	}

	result.Id = uuid.New()
	result.SessionId = sessionId
	result.Instructions = req.Instructions
	result.CreatedAt = time.Now()

	if err := uow.Begin(ctx); err != nil {
		return nil, &apperror.StoreUnavailableError{Cause: err}
	}
	defer uow.Rollback()

	if err := uow.AnalysisRepository().Create(ctx, result); err != nil {
		return nil, &apperror.StoreUnavailableError{Cause: err}
	}

	if err := uow.Commit(); err != nil {
		return nil, &apperror.StoreUnavailableError{Cause: err}
	}

	s.publishCreated(ctx, result)

	s.sysLogger.Info("analysis", "artifact committed", map[string]interface{}{
		"analysis_id": result.Id.String(),
		"session_id":  sessionId.String(),
		"metrics":     len(result.KeyMetrics),
		"charts":      len(result.Visualizations),
	})

	return toAnalysisResponse(result), nil
}

func (s *analysisService) Get(ctx context.Context, analysisId uuid.UUID) (*dto.AnalysisResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	result, err := uow.AnalysisRepository().FindOne(ctx, specification.ByID{ID: analysisId})
	if err != nil {
		return nil, &apperror.StoreUnavailableError{Cause: err}
	}
	if result == nil {
		return nil, apperror.NewNotFound("analysis", analysisId.String())
	}

	return toAnalysisResponse(result), nil
}

// callWithRetry makes at most two LLM round trips: the normal prompt, then one
// strict re-prompt if the first response failed transport or could not be
// repaired into an artifact.
func (s *analysisService) callWithRetry(ctx context.Context, builder *prompt.AnalysisBuilder, sessionId uuid.UUID) (*entity.Analysis, error) {
	result, firstErr := s.callOnce(ctx, builder, false)
	if firstErr == nil {
		return result, nil
	}

	var malformed *apperror.MalformedAnalysisError
	strict := errors.As(firstErr, &malformed)

	s.sysLogger.Warn("analysis", "first attempt failed, retrying", map[string]interface{}{
		"session_id": sessionId.String(),
		"strict":     strict,
		"error":      firstErr.Error(),
	})

	select {
	case <-time.After(s.retryBackoff):
	case <-ctx.Done():
		return nil, &apperror.AnalysisFailedError{Cause: ctx.Err()}
	}

	result, retryErr := s.callOnce(ctx, builder, strict)
	if retryErr != nil {
		return nil, &apperror.AnalysisFailedError{Cause: retryErr}
	}
	return result, nil
}

func (s *analysisService) callOnce(ctx context.Context, builder *prompt.AnalysisBuilder, strict bool) (*entity.Analysis, error) {
	// Detach from the request context so a client disconnect does not abandon
	// an in-flight call; the timeout is the only cancellation.
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.requestTimeout)
	defer cancel()

	response, err := s.provider.Chat(callCtx, []llm.Message{
		{Role: "system", Content: builder.SystemMessage()},
		{Role: "user", Content: builder.Build(strict)},
	}, llm.WithTemperature(0.2))
	if err != nil {
		return nil, err
	}

	return s.validator.Validate(response)
}

// summarize rebuilds the bounded data context from the stored files. A file
// whose bytes are gone or unparseable still contributes its persisted
// metadata, so one bad file never blocks the whole batch.
func (s *analysisService) summarize(ctx context.Context, files []*entity.UploadedFile) []*tabular.Summary {
	summaries := make([]*tabular.Summary, 0, len(files))
	for _, f := range files {
		if summary := s.summarizeFile(ctx, f); summary != nil {
			summaries = append(summaries, summary)
			continue
		}
		summaries = append(summaries, &tabular.Summary{
			Filename:    f.OriginalName,
			Rows:        f.Rows,
			Columns:     f.Columns,
			ColumnNames: f.ColumnNames,
		})
	}
	return summaries
}

func (s *analysisService) summarizeFile(ctx context.Context, f *entity.UploadedFile) *tabular.Summary {
	summarizer, ok := s.summarizers.For(f.Kind)
	if !ok {
		return nil
	}

	src, err := os.Open(f.StoredPath)
	if err != nil {
		s.sysLogger.Warn("analysis", "stored file unreadable, using metadata only", map[string]interface{}{
			"file_id": f.Id.String(),
			"error":   err.Error(),
		})
		return nil
	}
	defer src.Close()

	summary, err := summarizer.Summarize(ctx, f.OriginalName, src)
	if err != nil {
		s.sysLogger.Warn("analysis", "stored file unparseable, using metadata only", map[string]interface{}{
			"file_id": f.Id.String(),
			"error":   err.Error(),
		})
		return nil
	}
	return summary
}

func (s *analysisService) publishCreated(ctx context.Context, result *entity.Analysis) {
	payload, err := json.Marshal(dto.AnalysisCreatedMessage{
		AnalysisId: result.Id,
		SessionId:  result.SessionId,
		Metrics:    len(result.KeyMetrics),
		Charts:     len(result.Visualizations),
		CreatedAt:  result.CreatedAt,
	})
	if err != nil {
		return
	}
	if err := s.publisherService.Publish(ctx, payload); err != nil {
		s.sysLogger.Warn("analysis", "failed to publish analysis.created", map[string]interface{}{
			"analysis_id": result.Id.String(),
			"error":       err.Error(),
		})
	}
}

func toAnalysisResponse(a *entity.Analysis) *dto.AnalysisResponse {
	return &dto.AnalysisResponse{
		AnalysisId:      a.Id,
		SessionId:       a.SessionId,
		Summary:         a.Summary,
		KeyMetrics:      a.KeyMetrics,
		Visualizations:  a.Visualizations,
		Problems:        a.Problems,
		Recommendations: a.Recommendations,
		ExecutiveReport: a.ExecutiveReport,
		CreatedAt:       a.CreatedAt,
	}
}
