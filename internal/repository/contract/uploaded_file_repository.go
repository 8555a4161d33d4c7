package contract

import (
	"context"

	"rravin-be/internal/entity"
	"rravin-be/internal/repository/specification"
)

type UploadedFileRepository interface {
	Create(ctx context.Context, file *entity.UploadedFile) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.UploadedFile, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
