package dto

import "time"

type ChatRequest struct {
	SessionId string `json:"session_id" validate:"required"`
	Message   string `json:"message" validate:"required"`
}

type ChatResponse struct {
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

type ChatTurnResponse struct {
	UserMessage string    `json:"user_message"`
	AiResponse  string    `json:"ai_response"`
	CreatedAt   time.Time `json:"created_at"`
}

type ChatHistoryResponse struct {
	History []ChatTurnResponse `json:"history"`
}
