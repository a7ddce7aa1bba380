package interfaces

import (
	"context"

	"github.com/davidmanaloto/LifeXCapstoneProject/pkg/types"
)

// AuditLogger records security-relevant events. Append must never surface
// an error to the calling request path; failures are logged out-of-band.
type AuditLogger interface {
	Append(ctx context.Context, entry *types.AuditEntry)
	Query(ctx context.Context, filter *types.AuditFilter) ([]*types.AuditEntry, error)
	Purge(ctx context.Context, retentionDays int) (int64, error)
}
