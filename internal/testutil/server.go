package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// RecordedRequest is a request captured by a JSONServer
type RecordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   map[string]any

	// Raw is the undecoded request body; Body is nil unless it held a JSON object.
	Raw []byte
}

// JSONHandler answers a request with a status code and a value encoded as JSON.
// A nil value writes no body.
type JSONHandler func(req RecordedRequest) (int, any)

// JSONServer is an httptest server that records every request and delegates
// the response to a JSONHandler. Handler calls are serialized, so stateful
// handlers need no locking of their own.
type JSONServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []RecordedRequest
}

// NewJSONServer starts a JSONServer closed automatically at test end
func NewJSONServer(t *testing.T, handler JSONHandler) *JSONServer {
	t.Helper()
	s := &JSONServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := RecordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
		}
		rec.Raw, _ = io.ReadAll(r.Body)
		if len(rec.Raw) > 0 {
			_ = json.Unmarshal(rec.Raw, &rec.Body)
		}

		s.mu.Lock()
		s.requests = append(s.requests, rec)
		status, out := handler(rec)
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if out != nil {
			_ = json.NewEncoder(w).Encode(out)
		}
	}))
	t.Cleanup(s.Close)
	return s
}

// Requests returns a copy of the recorded requests in arrival order
func (s *JSONServer) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// Last returns the most recent request, or a zero value if none arrived
func (s *JSONServer) Last() RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return RecordedRequest{}
	}
	return s.requests[len(s.requests)-1]
}
