package audit

import "context"

// Store persists audit events in append order.
type Store interface {
	Append(ctx context.Context, event Event) error
	List(ctx context.Context) ([]Event, error)
	ListByEduID(ctx context.Context, eduID string) ([]Event, error)
}
