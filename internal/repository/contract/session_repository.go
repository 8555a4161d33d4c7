package contract

import (
	"context"

	"rravin-be/internal/entity"
	"rravin-be/internal/repository/specification"

	"github.com/google/uuid"
)

type SessionRepository interface {
	Create(ctx context.Context, session *entity.Session) error
	Update(ctx context.Context, session *entity.Session) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Session, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// ConsumeQuota atomically bumps files_uploaded by count iff the result
	// stays within [0, max_files]. Returns false when the quota does not fit;
	// the guarded UPDATE makes concurrent uploads on one session safe without
	// a process-level lock. A negative count releases quota (compensation
	// when persisting an accepted batch fails).
	ConsumeQuota(ctx context.Context, id uuid.UUID, count int) (bool, error)
}
