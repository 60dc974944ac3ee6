// Copyright (c) 2023 The KBase Project and its Contributors
// Copyright (c) 2023 Cohere Consulting, LLC
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// This package contains testing utilities for ckan2felt.
package dtstest

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
)

// Enables DEBUG log messages for the structured log (slog).
func EnableDebugLogging() {
	logLevel := new(slog.LevelVar)
	logLevel.Set(slog.LevelDebug)
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(h))
}

// Wraps the given JSON result in a successful CKAN action envelope.
func Success(result string) string {
	return fmt.Sprintf(`{"help": "https://ckan.example.org/api/3/action/help_show", "success": true, "result": %s}`, result)
}

// Returns an unsuccessful CKAN action envelope with the given error message.
func Failure(message string) string {
	return fmt.Sprintf(`{"help": "https://ckan.example.org/api/3/action/help_show", "success": false, "error": {"message": %q, "__type": "Validation Error"}}`, message)
}

//--------------------
// CKAN test fixture
//--------------------

// a canned response returned by a CKAN test fixture
type Response struct {
	Status int // HTTP status code (0 means 200)
	Body   string
}

// This type implements a fake CKAN portal serving canned responses. Responses
// are keyed by action name (e.g. "package_search"); a key of the form
// "package_show?id=<id>" answers only for the package with that ID and takes
// precedence over a key naming the action alone. Unknown actions yield a 404.
type CkanServer struct {
	Server    *httptest.Server
	Responses map[string]Response
	mu        sync.Mutex
	requests  []*url.URL
}

// Starts a CKAN test fixture serving the given canned response bodies with
// status 200. Call Close when done with it.
func NewCkanServer(bodies map[string]string) *CkanServer {
	responses := make(map[string]Response)
	for key, body := range bodies {
		responses[key] = Response{Body: body}
	}
	return NewCkanServerWithResponses(responses)
}

// Starts a CKAN test fixture serving the given canned responses.
func NewCkanServerWithResponses(responses map[string]Response) *CkanServer {
	s := &CkanServer{
		Responses: responses,
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// returns the fixture's CKAN API root
func (s *CkanServer) BaseURL() string {
	return s.Server.URL + "/api/3/"
}

// shuts down the fixture
func (s *CkanServer) Close() {
	s.Server.Close()
}

// returns the URLs of all requests received so far, in order
func (s *CkanServer) Requests() []*url.URL {
	s.mu.Lock()
	defer s.mu.Unlock()
	requests := make([]*url.URL, len(s.requests))
	copy(requests, s.requests)
	return requests
}

// returns the URL of the most recent request, or nil if there were none
func (s *CkanServer) LastRequest() *url.URL {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return nil
	}
	return s.requests[len(s.requests)-1]
}

func (s *CkanServer) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	u := *r.URL
	s.requests = append(s.requests, &u)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	prefix := "/api/3/action/"
	if r.Method != http.MethodGet || !strings.HasPrefix(r.URL.Path, prefix) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, Failure("Not found"))
		return
	}
	action := strings.TrimPrefix(r.URL.Path, prefix)

	response, found := Response{}, false
	if id := r.URL.Query().Get("id"); id != "" {
		response, found = s.Responses[action+"?id="+id]
	}
	if !found {
		response, found = s.Responses[action]
	}
	if !found {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, Failure("Not found"))
		return
	}
	if response.Status != 0 {
		w.WriteHeader(response.Status)
	}
	fmt.Fprint(w, response.Body)
}
