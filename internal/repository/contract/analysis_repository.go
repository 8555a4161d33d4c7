package contract

import (
	"context"

	"rravin-be/internal/entity"
	"rravin-be/internal/repository/specification"
)

type AnalysisRepository interface {
	Create(ctx context.Context, analysis *entity.Analysis) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Analysis, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Analysis, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
