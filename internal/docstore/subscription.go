package docstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Subscription delivers the full result set of a query each time the
// collection changes. Only the newest undelivered snapshot is kept.
type Subscription struct {
	snapshots chan Snapshot
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

func (subscription *Subscription) Snapshots() <-chan Snapshot {
	return subscription.snapshots
}

// Done is closed after the last snapshot was sent.
func (subscription *Subscription) Done() <-chan struct{} {
	return subscription.done
}

func (subscription *Subscription) Close() {
	subscription.closeOnce.Do(func() {
		subscription.cancel()
	})
	<-subscription.done
}

func (store *GormStore) Subscribe(ctx context.Context, collection string, query Query) (*Subscription, error) {
	if err := ValidateCollectionPath(collection); err != nil {
		return nil, err
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}

	subscriptionCtx, cancel := context.WithCancel(ctx)
	// Listen first so a write landing during the initial query still wakes us.
	events, err := store.feed.Listen(subscriptionCtx, collection)
	if err != nil {
		cancel()
		return nil, err
	}

	subscription := &Subscription{
		snapshots: make(chan Snapshot, 1),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	go store.runSubscription(subscriptionCtx, subscription, collection, query, events)
	return subscription, nil
}

func (store *GormStore) runSubscription(
	ctx context.Context,
	subscription *Subscription,
	collection string,
	query Query,
	events <-chan ChangeEvent,
) {
	defer close(subscription.done)
	defer close(subscription.snapshots)

	var sequence uint64
	deliver := func(trigger string) {
		docs, err := store.listShared(ctx, collection, query, trigger)
		if ctx.Err() != nil {
			return
		}
		sequence++
		snapshot := Snapshot{Sequence: sequence, Docs: docs, Err: err}
		if err != nil {
			snapshot.Docs = []Document{}
		}
		offerLatest(subscription.snapshots, snapshot)
	}

	deliver("initial:" + uuid.NewString())
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			deliver(event.ID)
		}
	}
}
