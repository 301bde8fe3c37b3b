package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/secmon-lab/riskreg/pkg/usecase"
)

// maxJSONBodySize bounds request bodies that carry no attachment
const maxJSONBodySize int64 = 1 << 20

// decodeJSON reads and validates a JSON request body
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &usecase.ValidationError{Field: "body", Message: "request body is not valid JSON"}
	}
	return s.validate.Struct(v)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &usecase.ValidationError{Field: "id", Message: "report id must be a positive integer"}
	}
	return id, nil
}

// queryList accepts both repeated parameters and comma separated values
func queryList(r *http.Request, key string) []string {
	var values []string
	for _, raw := range r.URL.Query()[key] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}
	}
	return values
}

func queryBool(r *http.Request, key string) (bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, &usecase.ValidationError{Field: key, Message: "must be true or false"}
	}
	return v, nil
}
