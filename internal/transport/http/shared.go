// Package httptransport is the thin HTTP layer. Handlers decode, delegate to
// the domain services and encode; business rules live below.
package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "pawsport/pkg/domain-errors"
)

// errorBody is the JSON error envelope shared by every endpoint.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError translates the domain error taxonomy to an HTTP status and a
// stable error envelope.
func writeError(w http.ResponseWriter, err error) {
	var dErr *dErrors.Error
	if errors.As(err, &dErr) {
		writeJSON(w, dErrors.ToHTTPStatus(dErr.Code), errorBody{
			Error: dErr.Message,
			Code:  string(dErr.Code),
		})
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorBody{
		Error: "internal error",
		Code:  string(dErrors.CodeInternal),
	})
}

// decode parses the JSON request body into dst, rejecting unknown fields.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body")
	}
	return nil
}

type receiptBody struct {
	TxHash      string `json:"txHash"`
	BlockNumber uint64 `json:"blockNumber"`
}
