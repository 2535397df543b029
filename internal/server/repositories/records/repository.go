package records

import (
	"context"

	"github.com/dmitrijs2005/wellkeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, rec *models.HealthRecord) (*models.HealthRecord, error)
	ListByUser(ctx context.Context, userID string) ([]*models.HealthRecord, error)
	GetByID(ctx context.Context, userID, id string) (*models.HealthRecord, error)
	GetForUpdate(ctx context.Context, userID, id string) (*models.HealthRecord, error)
	Update(ctx context.Context, rec *models.HealthRecord) (*models.HealthRecord, error)
	Delete(ctx context.Context, userID, id string) (*string, error)
}
