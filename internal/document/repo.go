package document

import "context"

type Store interface {
	// Latest returns the newest record for the tuple, ErrNotFound if none.
	Latest(ctx context.Context, learnerID, trainingID string, typ Type) (Record, error)
	Insert(ctx context.Context, r Record) (Record, error)
	ListForLearner(ctx context.Context, learnerID string) ([]Record, error)
}
