package unitofwork

import (
	"context"

	"rravin-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	SessionRepository() contract.SessionRepository
	UploadedFileRepository() contract.UploadedFileRepository
	AnalysisRepository() contract.AnalysisRepository
	ChatTurnRepository() contract.ChatTurnRepository
}
