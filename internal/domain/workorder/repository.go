package workorder

import (
	"context"
	"errors"
)

var ErrWorkOrderNotFound = errors.New("work order not found")

// WorkOrderRepository is the narrow view of the work-order store needed for
// billable linkage. Only existence is checked; business rules stay there.
type WorkOrderRepository interface {
	Exists(ctx context.Context, workOrderID string, shopID string) (bool, error)
}
