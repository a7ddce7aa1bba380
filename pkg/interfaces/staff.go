package interfaces

import (
	"context"

	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/types"
)

// StaffRepository defines staff profile persistence operations
type StaffRepository interface {
	Create(ctx context.Context, profile *types.StaffProfile) error
	GetByID(ctx context.Context, id string) (*types.StaffProfile, error)
	GetByUserID(ctx context.Context, userID string) (*types.StaffProfile, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) error
	List(ctx context.Context, department string, limit, offset int) ([]*types.StaffProfile, error)
}
