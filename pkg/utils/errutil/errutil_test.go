package errutil_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/riskreg/pkg/utils/errutil"
)

func TestHandle(t *testing.T) {
	err := goerr.New("boom", goerr.V("report_id", 3))
	gt.Value(t, errutil.Handle(context.Background(), err, "failed")).Equal(error(err))
	gt.NoError(t, errutil.Handle(context.Background(), nil, "nothing"))
}

func TestHandleHTTP(t *testing.T) {
	t.Run("client error keeps message", func(t *testing.T) {
		w := httptest.NewRecorder()
		errutil.HandleHTTP(context.Background(), w, goerr.New("invalid report id"), http.StatusBadRequest)
		gt.Value(t, w.Code).Equal(http.StatusBadRequest)
		gt.Bool(t, strings.Contains(w.Body.String(), "invalid report id")).True()
	})

	t.Run("server error hides message", func(t *testing.T) {
		w := httptest.NewRecorder()
		errutil.HandleHTTP(context.Background(), w, goerr.New("dsn=postgres://secret"), http.StatusInternalServerError)
		gt.Value(t, w.Code).Equal(http.StatusInternalServerError)
		gt.Bool(t, strings.Contains(w.Body.String(), "secret")).False()
	})
}
