package mapper

import (
	"rravin-be/internal/entity"
	"rravin-be/internal/model"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

func (m *ChatMapper) ChatTurnToEntity(t *model.ChatTurn) *entity.ChatTurn {
	if t == nil {
		return nil
	}

	return &entity.ChatTurn{
		Id:          t.Id,
		SessionId:   t.SessionId,
		UserMessage: t.UserMessage,
		AiResponse:  t.AiResponse,
		CreatedAt:   t.CreatedAt,
	}
}

func (m *ChatMapper) ChatTurnToModel(t *entity.ChatTurn) *model.ChatTurn {
	if t == nil {
		return nil
	}

	return &model.ChatTurn{
		Id:          t.Id,
		SessionId:   t.SessionId,
		UserMessage: t.UserMessage,
		AiResponse:  t.AiResponse,
		CreatedAt:   t.CreatedAt,
	}
}
