package docstore

import (
	"context"
	"errors"
	"sync"
)

var ErrLiveQueryClosed = errors.New("live query closed")

type LiveState struct {
	Generation uint64
	Docs       []Document
	Err        error
	Loading    bool
}

// LiveQuery holds the latest result of one subscription at a time.
// Resubscribe cancels the current subscription before opening the next one,
// and snapshots from a cancelled generation are dropped.
type LiveQuery struct {
	ctx   context.Context
	store Store

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	state      LiveState
	updates    chan LiveState
	closed     bool
}

func NewLiveQuery(ctx context.Context, store Store) *LiveQuery {
	return &LiveQuery{
		ctx:     ctx,
		store:   store,
		updates: make(chan LiveState, 1),
		state:   LiveState{Docs: []Document{}},
	}
}

// Resubscribe switches the cell to a new path and query. An empty path
// clears the cell without subscribing.
func (live *LiveQuery) Resubscribe(path string, query Query) error {
	live.mu.Lock()
	defer live.mu.Unlock()

	if live.closed {
		return ErrLiveQueryClosed
	}
	if live.cancel != nil {
		live.cancel()
		live.cancel = nil
	}
	live.generation++
	generation := live.generation

	if path == "" {
		live.publishLocked(LiveState{Generation: generation, Docs: []Document{}})
		return nil
	}

	subscriptionCtx, cancel := context.WithCancel(live.ctx)
	subscription, err := live.store.Subscribe(subscriptionCtx, path, query)
	if err != nil {
		cancel()
		live.publishLocked(LiveState{Generation: generation, Docs: []Document{}, Err: err})
		return err
	}
	live.cancel = cancel
	live.publishLocked(LiveState{Generation: generation, Docs: []Document{}, Loading: true})

	go func() {
		for snapshot := range subscription.Snapshots() {
			live.accept(generation, snapshot)
		}
	}()
	return nil
}

func (live *LiveQuery) accept(generation uint64, snapshot Snapshot) {
	live.mu.Lock()
	defer live.mu.Unlock()

	if live.closed || generation != live.generation {
		return
	}
	docs := snapshot.Docs
	if docs == nil {
		docs = []Document{}
	}
	live.publishLocked(LiveState{Generation: generation, Docs: docs, Err: snapshot.Err})
}

func (live *LiveQuery) publishLocked(state LiveState) {
	live.state = state
	offerLatest(live.updates, state)
}

func (live *LiveQuery) Latest() LiveState {
	live.mu.Lock()
	defer live.mu.Unlock()
	return live.state
}

// Updates yields accepted states, newest only. It is closed by Close.
func (live *LiveQuery) Updates() <-chan LiveState {
	return live.updates
}

func (live *LiveQuery) Close() {
	live.mu.Lock()
	defer live.mu.Unlock()

	if live.closed {
		return
	}
	live.closed = true
	live.generation++
	if live.cancel != nil {
		live.cancel()
		live.cancel = nil
	}
	close(live.updates)
}
