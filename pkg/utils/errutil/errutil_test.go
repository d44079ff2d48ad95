package errutil_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/stackscout/pkg/domain/model"
	"github.com/secmon-lab/stackscout/pkg/utils/errutil"
)

func TestStatusCode(t *testing.T) {
	gt.Value(t, errutil.StatusCode(goerr.Wrap(model.ErrInvalidArgument, "bad top_k"))).Equal(http.StatusBadRequest)
	gt.Value(t, errutil.StatusCode(goerr.Wrap(context.DeadlineExceeded, "slow"))).Equal(http.StatusGatewayTimeout)
	gt.Value(t, errutil.StatusCode(errors.New("boom"))).Equal(http.StatusInternalServerError)
}

func TestHandleHTTP(t *testing.T) {
	w := httptest.NewRecorder()
	errutil.HandleHTTP(context.Background(), w, goerr.New("top_k must be positive"), http.StatusBadRequest)

	gt.Value(t, w.Code).Equal(http.StatusBadRequest)
	gt.Value(t, w.Header().Get("Content-Type")).Equal("application/json")

	var body map[string]string
	gt.NoError(t, json.Unmarshal(w.Body.Bytes(), &body)).Required()
	gt.Value(t, body["error"]).Equal("top_k must be positive")
}

func TestHandleNil(t *testing.T) {
	errutil.Handle(context.Background(), nil, "nothing")

	w := httptest.NewRecorder()
	errutil.HandleHTTP(context.Background(), w, nil, http.StatusInternalServerError)
	gt.Value(t, w.Body.Len()).Equal(0)
}
