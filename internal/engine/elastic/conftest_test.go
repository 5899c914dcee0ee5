package elastic

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
)

type recorded struct {
	method string
	path   string
	query  string
	body   string
}

type reply struct {
	status int
	body   string
}

// fakeTransport answers every request with the reply chosen by route and records what was sent.
type fakeTransport struct {
	mu       sync.Mutex
	requests []recorded
	route    func(method, path string) reply
	err      error
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
	}
	f.mu.Lock()
	f.requests = append(f.requests, recorded{
		method: req.Method,
		path:   req.URL.Path,
		query:  req.URL.RawQuery,
		body:   string(body),
	})
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	r := reply{status: http.StatusOK, body: `{}`}
	if f.route != nil {
		r = f.route(req.Method, req.URL.Path)
	}
	return &http.Response{
		StatusCode: r.status,
		Header: http.Header{
			"Content-Type":      []string{"application/json"},
			"X-Elastic-Product": []string{"Elasticsearch"},
		},
		Body:    io.NopCloser(strings.NewReader(r.body)),
		Request: req,
	}, nil
}

func (f *fakeTransport) last() recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return recorded{}
	}
	return f.requests[len(f.requests)-1]
}

func newTestGateway(t *testing.T, route func(method, path string) reply) (*Gateway, *fakeTransport) {
	t.Helper()
	ft := &fakeTransport{route: route}
	g, err := New(Config{Addresses: []string{"http://es.test:9200"}, Transport: ft}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g, ft
}

func always(status int, body string) func(string, string) reply {
	return func(string, string) reply { return reply{status: status, body: body} }
}

var errDial = errors.New("dial tcp: connection refused")
