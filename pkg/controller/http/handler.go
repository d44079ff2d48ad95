package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/stackscout/pkg/domain/model"
	"github.com/secmon-lab/stackscout/pkg/usecase"
	"github.com/secmon-lab/stackscout/pkg/utils/errutil"
	"github.com/secmon-lab/stackscout/pkg/utils/safe"
)

const maxRequestBody = 1 << 20

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(r.Context(), w, data)
}

func decodeJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		return goerr.Wrap(err, "failed to read request body")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return goerr.Wrap(model.ErrInvalidArgument, "invalid JSON body", goerr.V("error", err.Error()))
	}
	return nil
}

func handleError(w http.ResponseWriter, r *http.Request, err error) {
	errutil.HandleHTTP(r.Context(), w, err, errutil.StatusCode(err))
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

type retrieveResponse struct {
	Results []*model.QueryResult `json:"results"`
}

func (s *Server) retrieveHandler(w http.ResponseWriter, r *http.Request) {
	if s.retrieve == nil {
		errutil.HandleHTTP(r.Context(), w, goerr.New("retrieval is not configured"), http.StatusServiceUnavailable)
		return
	}

	var input model.RetrieveInput
	if err := decodeJSON(r, &input); err != nil {
		handleError(w, r, err)
		return
	}
	if input.Namespace == "" {
		input.Namespace = s.pipeline.Namespace
	}
	if input.TopK == 0 {
		input.TopK = s.pipeline.TopK
	}

	results, err := s.retrieve.Retrieve(r.Context(), input)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, retrieveResponse{Results: results})
}

type opportunitiesResponse struct {
	Namespace     string   `json:"namespace"`
	Opportunities []string `json:"opportunities"`
}

func (s *Server) opportunitiesHandler(w http.ResponseWriter, r *http.Request) {
	if s.retrieve == nil {
		errutil.HandleHTTP(r.Context(), w, goerr.New("retrieval is not configured"), http.StatusServiceUnavailable)
		return
	}

	namespace := r.URL.Query().Get("namespace")
	if namespace == "" {
		namespace = s.pipeline.Namespace
	}

	limit := usecase.DefaultOpportunityListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			handleError(w, r, goerr.Wrap(model.ErrInvalidArgument, "limit must be a positive integer", goerr.V("limit", v)))
			return
		}
		limit = n
	}

	ids, err := s.retrieve.ListOpportunities(r.Context(), namespace, limit)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, opportunitiesResponse{Namespace: namespace, Opportunities: ids})
}

type extractResponse struct {
	Result *model.ExtractionResult `json:"result"`
	Score  *float64                `json:"score,omitempty"`
}

func (s *Server) extractHandler(w http.ResponseWriter, r *http.Request) {
	if s.extract == nil {
		errutil.HandleHTTP(r.Context(), w, goerr.New("extraction is not configured"), http.StatusServiceUnavailable)
		return
	}

	var input usecase.ExtractInput
	if err := decodeJSON(r, &input); err != nil {
		handleError(w, r, err)
		return
	}
	if input.Namespace == "" {
		input.Namespace = s.pipeline.Namespace
	}

	result, err := s.extract.Extract(r.Context(), input)
	if err != nil {
		handleError(w, r, err)
		return
	}

	resp := extractResponse{Result: result}
	if input.WithoutEvidence {
		score := usecase.Score(result, s.pipeline.ConfidenceCeiling)
		resp.Score = &score
	}
	writeJSON(w, r, http.StatusOK, resp)
}

type scoreRequest struct {
	Result            *model.ExtractionResult `json:"result"`
	ConfidenceCeiling *float64                `json:"confidence_ceiling,omitempty"`
	Expected          *model.TechStack        `json:"expected,omitempty"`
}

type scoreResponse struct {
	Score    float64           `json:"score"`
	Accuracy *usecase.Accuracy `json:"accuracy,omitempty"`
}

func (s *Server) scoreHandler(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if req.Result == nil {
		handleError(w, r, goerr.Wrap(model.ErrInvalidArgument, "result is required"))
		return
	}
	if err := req.Result.Validate(); err != nil {
		handleError(w, r, goerr.Wrap(model.ErrInvalidArgument, "invalid extraction result", goerr.V("error", err.Error())))
		return
	}

	ceiling := s.pipeline.ConfidenceCeiling
	if req.ConfidenceCeiling != nil {
		ceiling = *req.ConfidenceCeiling
	}

	resp := scoreResponse{Score: usecase.Score(req.Result, ceiling)}
	if req.Expected != nil {
		accuracy := usecase.Compare(req.Result, *req.Expected)
		resp.Accuracy = &accuracy
	}
	writeJSON(w, r, http.StatusOK, resp)
}
