package postgresql

import (
	"context"
	"fmt"

	"github.com/shoptrack/shoptrack-backend-go/internal/domain/workorder"
	"github.com/shoptrack/shoptrack-backend-go/internal/pkg/database"
)

type workOrderRepository struct {
	db *database.DB
}

// Exists implements workorder.WorkOrderRepository.
func (r *workOrderRepository) Exists(ctx context.Context, workOrderID string, shopID string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM work_orders WHERE id = $1 AND shop_id = $2)`,
		workOrderID, shopID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check work order: %w", err)
	}
	return exists, nil
}

func NewWorkOrderRepository(db *database.DB) workorder.WorkOrderRepository {
	return &workOrderRepository{db: db}
}
