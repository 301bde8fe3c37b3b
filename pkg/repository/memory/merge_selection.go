package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/riskreg/pkg/domain/interfaces"
	"github.com/secmon-lab/riskreg/pkg/domain/model"
)

type mergeSelectionRepository struct {
	mu         sync.Mutex
	selections map[string]*model.MergeSelection
}

func newMergeSelectionRepository() *mergeSelectionRepository {
	return &mergeSelectionRepository{
		selections: make(map[string]*model.MergeSelection),
	}
}

func (r *mergeSelectionRepository) Put(ctx context.Context, selection *model.MergeSelection) error {
	if selection == nil || selection.SessionID == "" {
		return goerr.New("session id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.selections[selection.SessionID] = selection.Copy()
	return nil
}

func (r *mergeSelectionRepository) Get(ctx context.Context, sessionID string) (*model.MergeSelection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	selection, exists := r.selections[sessionID]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "merge selection not found", goerr.V("session_id", sessionID))
	}
	if selection.IsExpired(time.Now().UTC()) {
		delete(r.selections, sessionID)
		return nil, goerr.Wrap(interfaces.ErrNotFound, "merge selection expired", goerr.V("session_id", sessionID))
	}

	return selection.Copy(), nil
}

func (r *mergeSelectionRepository) Delete(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.selections, sessionID)
	return nil
}
