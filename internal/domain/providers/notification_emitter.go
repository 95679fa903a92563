package providers

import "context"

// NotificationEmitter is the sink the occupancy ledger reports admissions and discharges to.
// Emit is best effort from the caller's point of view.
type NotificationEmitter interface {
	Emit(ctx context.Context, hospitalID, title, message string) error
}
