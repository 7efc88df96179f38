package http

import (
	"encoding/json"
	"net/http"

	"github.com/wolfeidau/certenroll/internal/apierr"
)

// ContentTypeJSON is used for every JSON body.
const ContentTypeJSON = "application/json"

// ErrorBody is the JSON body of every failed request.
type ErrorBody struct {
	Error string `json:"error"`
}

// EncodeError renders the JSON body for err. When redact is set server side
// failures lose their detail.
func EncodeError(err error, redact bool) (int, []byte) {
	msg := apierr.Message(err)
	if redact {
		msg = apierr.Redacted(err)
	}

	body, _ := json.Marshal(ErrorBody{Error: msg})
	return apierr.StatusCode(err), body
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(status)
	_, err = w.Write(body)
	return err
}

// WriteError writes err as a JSON error response.
func WriteError(w http.ResponseWriter, err error, redact bool) {
	status, body := EncodeError(err, redact)

	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
