package service

import (
	"context"
	"time"

	"rravin-be/internal/apperror"
	"rravin-be/internal/dto"
	"rravin-be/internal/entity"
	"rravin-be/internal/pkg/logger"
	"rravin-be/internal/repository/memory"
	"rravin-be/internal/repository/specification"
	"rravin-be/internal/repository/unitofwork"
	"rravin-be/pkg/analysis/prompt"
	"rravin-be/pkg/llm"

	"github.com/google/uuid"
)

// IChatService answers follow-up questions grounded in the session's latest
// analysis. Turns in one session are strictly sequential; a turn is either
// fully completed and persisted or discarded, never half-recorded.
type IChatService interface {
	Ask(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error)
	History(ctx context.Context, sessionId uuid.UUID) (*dto.ChatHistoryResponse, error)
}

type chatService struct {
	uowFactory     unitofwork.RepositoryFactory
	provider       llm.LLMProvider
	stateRepo      *memory.SessionStateRepository
	historyWindow  int
	requestTimeout time.Duration
	retryBackoff   time.Duration
	sysLogger      logger.ILogger
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	provider llm.LLMProvider,
	stateRepo *memory.SessionStateRepository,
	historyWindow int,
	requestTimeout time.Duration,
	sysLogger logger.ILogger,
) IChatService {
	return &chatService{
		uowFactory:     uowFactory,
		provider:       provider,
		stateRepo:      stateRepo,
		historyWindow:  historyWindow,
		requestTimeout: requestTimeout,
		retryBackoff:   2 * time.Second,
		sysLogger:      sysLogger,
	}
}

func (s *chatService) Ask(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error) {
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

	// The context precondition is checked before anything about the turn is
	// recorded: without an analysis nothing changes.
	latest, err := uow.AnalysisRepository().FindOne(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, &apperror.StoreUnavailableError{Cause: err}
	}
	if latest == nil {
		return nil, &apperror.NoAnalysisError{SessionId: req.SessionId}
	}

	// One turn at a time per session; other sessions proceed independently.
	lock := s.stateRepo.Lock(sessionId.String())
	lock.Lock()
	defer lock.Unlock()

	s.stateRepo.SetPending(sessionId.String(), req.Message)

	history, err := s.recentTurns(ctx, uow, sessionId)
	if err != nil {
		s.stateRepo.ClearPending(sessionId.String())
		return nil, &apperror.StoreUnavailableError{Cause: err}
	}

	builder := prompt.NewChatBuilder(latest, history)
	answer, err := s.callWithRetry(ctx, builder, req.Message, sessionId)
	if err != nil {
		// The pending turn is dropped entirely; the user resubmits the same
		// message and the conversation record shows no trace of the failure.
		s.stateRepo.ClearPending(sessionId.String())
		return nil, &apperror.ChatFailedError{Cause: err}
	}

	turn := &entity.ChatTurn{
		Id:          uuid.New(),
		SessionId:   sessionId,
		UserMessage: req.Message,
		AiResponse:  answer,
		CreatedAt:   time.Now(),
	}

	if err := s.persistTurn(ctx, uow, turn); err != nil {
		s.stateRepo.ClearPending(sessionId.String())
		return nil, err
	}

	s.stateRepo.ClearPending(sessionId.String())

	return &dto.ChatResponse{
		Response:  answer,
		Timestamp: turn.CreatedAt,
	}, nil
}

func (s *chatService) History(ctx context.Context, sessionId uuid.UUID) (*dto.ChatHistoryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.SessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, &apperror.StoreUnavailableError{Cause: err}
	}
	if session == nil {
		return nil, apperror.NewNotFound("session", sessionId.String())
	}

	turns, err := uow.ChatTurnRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, &apperror.StoreUnavailableError{Cause: err}
	}

	history := make([]dto.ChatTurnResponse, 0, len(turns))
	for _, turn := range turns {
		history = append(history, dto.ChatTurnResponse{
			UserMessage: turn.UserMessage,
			AiResponse:  turn.AiResponse,
			CreatedAt:   turn.CreatedAt,
		})
	}

	return &dto.ChatHistoryResponse{History: history}, nil
}

// recentTurns loads the newest completed turns up to the window, returned
// oldest first so they read as a conversation.
func (s *chatService) recentTurns(ctx context.Context, uow unitofwork.UnitOfWork, sessionId uuid.UUID) ([]*entity.ChatTurn, error) {
	turns, err := uow.ChatTurnRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: s.historyWindow},
	)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

func (s *chatService) callWithRetry(ctx context.Context, builder *prompt.ChatBuilder, question string, sessionId uuid.UUID) (string, error) {
	answer, firstErr := s.callOnce(ctx, builder, question)
	if firstErr == nil {
		return answer, nil
	}

	s.sysLogger.Warn("chat", "first attempt failed, retrying", map[string]interface{}{
		"session_id": sessionId.String(),
		"error":      firstErr.Error(),
	})

	select {
	case <-time.After(s.retryBackoff):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	return s.callOnce(ctx, builder, question)
}

func (s *chatService) callOnce(ctx context.Context, builder *prompt.ChatBuilder, question string) (string, error) {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.requestTimeout)
	defer cancel()

	messages := make([]llm.Message, 0, 2*len(builder.History())+2)
	messages = append(messages, llm.Message{Role: "system", Content: builder.SystemMessage()})
	for _, pair := range builder.History() {
		messages = append(messages,
			llm.Message{Role: "user", Content: pair[0]},
			llm.Message{Role: "assistant", Content: pair[1]},
		)
	}
	messages = append(messages, llm.Message{Role: "user", Content: question})

	return s.provider.Chat(callCtx, messages, llm.WithTemperature(0.7))
}

func (s *chatService) persistTurn(ctx context.Context, uow unitofwork.UnitOfWork, turn *entity.ChatTurn) error {
	if err := uow.Begin(ctx); err != nil {
		return &apperror.StoreUnavailableError{Cause: err}
	}
	defer uow.Rollback()

	if err := uow.ChatTurnRepository().Create(ctx, turn); err != nil {
		return &apperror.StoreUnavailableError{Cause: err}
	}

	if err := uow.Commit(); err != nil {
		return &apperror.StoreUnavailableError{Cause: err}
	}
	return nil
}
