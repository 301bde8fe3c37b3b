package http_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/riskreg/pkg/domain/interfaces"
	"github.com/secmon-lab/riskreg/pkg/domain/model"
	"github.com/secmon-lab/riskreg/pkg/repository/memory"
)

type selectionDownRepository struct {
	*memory.Memory
}

func (r *selectionDownRepository) MergeSelection() interfaces.MergeSelectionRepository {
	return &selectionDownStore{MergeSelectionRepository: r.Memory.MergeSelection()}
}

type selectionDownStore struct {
	interfaces.MergeSelectionRepository
}

func (s *selectionDownStore) Get(ctx context.Context, sessionID string) (*model.MergeSelection, error) {
	return nil, errors.New("datastore unavailable")
}

func TestMatchUnavailableStore(t *testing.T) {
	c := newTestServerWithRepo(t, &selectionDownRepository{Memory: memory.New()})

	resp, body := c.do(http.MethodGet, "/api/reports/match?category=Fraud", "", nil)
	gt.V(t, resp.StatusCode).Equal(http.StatusServiceUnavailable)
	gt.V(t, decode[errorBody](t, body).Error).Equal("Unable to check existing risks, contact support")
}
