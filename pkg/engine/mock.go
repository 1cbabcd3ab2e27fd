// The mock catch-all handler.

package engine

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/getlagd/lagd/pkg/dispatch"
)

// maxEchoBody bounds how much of a request body is read back into the
// response payload.
const maxEchoBody = 1 << 20 // 1 MiB

// handleMock serves every path not claimed by the admin surface.
func (s *Server) handleMock(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxEchoBody))
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	headers := make(map[string]string, len(r.Header))
	for name := range r.Header {
		headers[name] = r.Header.Get(name)
	}

	query := r.URL.Query()
	params := make(map[string]string, len(query))
	for name := range query {
		params[name] = query.Get(name)
	}

	res, err := s.dispatcher.Dispatch(r.Context(), dispatch.Request{
		Path:    r.URL.Path,
		Headers: headers,
		Params:  params,
		Body:    string(body),
	})
	if err != nil {
		// Client went away mid-delay; nothing useful to write.
		if errors.Is(err, r.Context().Err()) {
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	for name, value := range res.Headers {
		w.Header().Set(name, value)
	}
	writeJSON(w, res.StatusCode, res.Body)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}
