package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"rravin-be/internal/apperror"
	"rravin-be/internal/dto"
	"rravin-be/internal/entity"
	"rravin-be/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChatService(store *fakeStore, provider *fakeLLM) (IChatService, *memory.SessionStateRepository) {
	stateRepo := memory.NewSessionStateRepository()
	svc := NewChatService(newFakeFactory(store), provider, stateRepo, 10, 5*time.Second, nopLogger{})
	svc.(*chatService).retryBackoff = time.Millisecond
	return svc, stateRepo
}

func seedAnalysis(store *fakeStore, sessionId uuid.UUID) *entity.Analysis {
	a := &entity.Analysis{
		Id:        uuid.New(),
		SessionId: sessionId,
		Summary:   "Sales peaked in December.",
		CreatedAt: time.Now(),
	}
	store.analyses = append(store.analyses, a)
	return a
}

func TestAskAnswersAndPersistsTurn(t *testing.T) {
	store := newFakeStore()
	provider := &fakeLLM{responses: []fakeLLMResponse{{content: "December had a holiday spike."}}}
	svc, stateRepo := newChatService(store, provider)

	session := store.addSession(3)
	seedAnalysis(store, session.Id)

	res, err := svc.Ask(context.Background(), &dto.ChatRequest{
		SessionId: session.Id.String(),
		Message:   "Why did December spike?",
	})
	require.NoError(t, err)

	assert.Equal(t, "December had a holiday spike.", res.Response)
	require.Len(t, store.chatTurns, 1)
	assert.Equal(t, "Why did December spike?", store.chatTurns[0].UserMessage)

	// Settled turns leave no pending marker behind.
	_, pending := stateRepo.GetPending(session.Id.String())
	assert.False(t, pending)

	// Context came from the latest artifact.
	system := provider.lastChat[0]
	assert.Equal(t, "system", system.Role)
	assert.Contains(t, system.Content, "Sales peaked in December.")
}

func TestAskWithoutAnalysis(t *testing.T) {
	store := newFakeStore()
	provider := &fakeLLM{responses: []fakeLLMResponse{{content: "irrelevant"}}}
	svc, _ := newChatService(store, provider)

	session := store.addSession(3)

	_, err := svc.Ask(context.Background(), &dto.ChatRequest{
		SessionId: session.Id.String(),
		Message:   "Anything?",
	})
	var noAnalysis *apperror.NoAnalysisError
	require.True(t, errors.As(err, &noAnalysis), "expected NoAnalysisError, got %v", err)

	// Precondition failures record nothing about the turn.
	assert.Equal(t, 0, provider.calls)
	assert.Empty(t, store.chatTurns)
}

func TestAskUnknownSession(t *testing.T) {
	store := newFakeStore()
	svc, _ := newChatService(store, &fakeLLM{responses: []fakeLLMResponse{{content: "x"}}})

	for _, id := range []string{uuid.NewString(), "garbage"} {
		_, err := svc.Ask(context.Background(), &dto.ChatRequest{SessionId: id, Message: "hi"})
		_, ok := apperror.AsNotFound(err)
		assert.True(t, ok, "id %q: expected NotFoundError, got %v", id, err)
	}
}

func TestAskDiscardsFailedTurn(t *testing.T) {
	store := newFakeStore()
	provider := &fakeLLM{responses: []fakeLLMResponse{
		{err: errors.New("model unavailable")},
		{err: errors.New("model unavailable")},
	}}
	svc, stateRepo := newChatService(store, provider)

	session := store.addSession(3)
	seedAnalysis(store, session.Id)

	_, err := svc.Ask(context.Background(), &dto.ChatRequest{
		SessionId: session.Id.String(),
		Message:   "Will this work?",
	})
	var chatFailed *apperror.ChatFailedError
	require.True(t, errors.As(err, &chatFailed), "expected ChatFailedError, got %v", err)

	assert.Equal(t, 2, provider.calls)
	assert.Empty(t, store.chatTurns)
	_, pending := stateRepo.GetPending(session.Id.String())
	assert.False(t, pending)
}

func TestAskRetriesOnce(t *testing.T) {
	store := newFakeStore()
	provider := &fakeLLM{responses: []fakeLLMResponse{
		{err: errors.New("transient")},
		{content: "Recovered answer."},
	}}
	svc, _ := newChatService(store, provider)

	session := store.addSession(3)
	seedAnalysis(store, session.Id)

	res, err := svc.Ask(context.Background(), &dto.ChatRequest{
		SessionId: session.Id.String(),
		Message:   "Retry?",
	})
	require.NoError(t, err)
	assert.Equal(t, "Recovered answer.", res.Response)
	assert.Equal(t, 2, provider.calls)
}

func TestAskDiscardsTurnWhenPersistFails(t *testing.T) {
	store := newFakeStore()
	provider := &fakeLLM{responses: []fakeLLMResponse{{content: "fine answer"}}}
	svc, stateRepo := newChatService(store, provider)

	session := store.addSession(3)
	seedAnalysis(store, session.Id)
	store.failCreateTurn = true

	_, err := svc.Ask(context.Background(), &dto.ChatRequest{
		SessionId: session.Id.String(),
		Message:   "Persist this",
	})
	var unavailable *apperror.StoreUnavailableError
	require.True(t, errors.As(err, &unavailable), "expected StoreUnavailableError, got %v", err)

	assert.Empty(t, store.chatTurns)
	_, pending := stateRepo.GetPending(session.Id.String())
	assert.False(t, pending)
}

func TestAskUsesBoundedHistoryWindow(t *testing.T) {
	store := newFakeStore()
	provider := &fakeLLM{responses: []fakeLLMResponse{{content: "windowed"}}}
	svc, _ := newChatService(store, provider)

	session := store.addSession(3)
	seedAnalysis(store, session.Id)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 15; i++ {
		store.chatTurns = append(store.chatTurns, &entity.ChatTurn{
			Id:          uuid.New(),
			SessionId:   session.Id,
			UserMessage: fmt.Sprintf("q%d", i),
			AiResponse:  fmt.Sprintf("a%d", i),
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		})
	}

	_, err := svc.Ask(context.Background(), &dto.ChatRequest{
		SessionId: session.Id.String(),
		Message:   "latest question",
	})
	require.NoError(t, err)

	// system + 10 pairs + new question
	require.Len(t, provider.lastChat, 22)
	// Oldest turn in the window is q5; q0..q4 fell out.
	assert.Equal(t, "q5", provider.lastChat[1].Content)
	assert.Equal(t, "q14", provider.lastChat[19].Content)
	assert.Equal(t, "latest question", provider.lastChat[21].Content)
}

func TestHistoryChronological(t *testing.T) {
	store := newFakeStore()
	svc, _ := newChatService(store, &fakeLLM{responses: []fakeLLMResponse{{content: "x"}}})

	session := store.addSession(3)
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		store.chatTurns = append(store.chatTurns, &entity.ChatTurn{
			Id:          uuid.New(),
			SessionId:   session.Id,
			UserMessage: fmt.Sprintf("q%d", i),
			AiResponse:  fmt.Sprintf("a%d", i),
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		})
	}

	res, err := svc.History(context.Background(), session.Id)
	require.NoError(t, err)

	require.Len(t, res.History, 3)
	assert.Equal(t, "q0", res.History[0].UserMessage)
	assert.Equal(t, "q2", res.History[2].UserMessage)
}

func TestHistoryUnknownSession(t *testing.T) {
	store := newFakeStore()
	svc, _ := newChatService(store, &fakeLLM{responses: []fakeLLMResponse{{content: "x"}}})

	_, err := svc.History(context.Background(), uuid.New())
	_, ok := apperror.AsNotFound(err)
	assert.True(t, ok)
}

func TestAskSequentialTurnsShareOneLock(t *testing.T) {
	store := newFakeStore()
	provider := &fakeLLM{responses: []fakeLLMResponse{{content: "serialized"}}}
	svc, _ := newChatService(store, provider)

	session := store.addSession(3)
	seedAnalysis(store, session.Id)

	done := make(chan error, 4)
	for i := 0; i < 4; i++ {
		go func(i int) {
			_, err := svc.Ask(context.Background(), &dto.ChatRequest{
				SessionId: session.Id.String(),
				Message:   fmt.Sprintf("concurrent %d", i),
			})
			done <- err
		}(i)
	}
	for i := 0; i < 4; i++ {
		require.NoError(t, <-done)
	}

	// Every turn completed and was recorded exactly once.
	assert.Len(t, store.chatTurns, 4)
}
