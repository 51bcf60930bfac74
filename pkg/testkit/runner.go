package testkit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
)

// TokenFunc mints a bearer token for email.
type TokenFunc func(email string) (string, error)

// Runner holds the handler under test and the variables saved by earlier
// scenarios of the same flow.
type Runner struct {
	handler http.Handler
	token   TokenFunc
	vars    map[string]string
}

// New returns a Runner for handler. token may be nil when no scenario sets "as".
func New(handler http.Handler, token TokenFunc) *Runner {
	return &Runner{handler: handler, token: token, vars: map[string]string{}}
}

// Set defines a flow variable, e.g. the id of a record seeded by the test.
func (r *Runner) Set(name, value string) *Runner {
	r.vars[name] = value
	return r
}

// Var returns a saved flow variable.
func (r *Runner) Var(name string) string { return r.vars[name] }

// ─── Public API ───────────────────────────────────────────────────────────────

// RunFile runs every scenario of a flow file in order. A failing scenario
// stops the flow, since later steps usually depend on it.
func (r *Runner) RunFile(t *testing.T, path string) {
	t.Helper()

	flow, err := LoadFlow(path)
	if err != nil {
		t.Fatalf("%v", err)
	}

	for _, s := range flow {
		if !t.Run(s.Name, func(t *testing.T) { r.Run(t, s) }) {
			return
		}
	}
}

// RunDir runs each *.json flow in dir as a subtest. newRunner is called per
// flow so flows do not share state.
func RunDir(t *testing.T, dir string, newRunner func(t *testing.T) *Runner) {
	t.Helper()

	entries, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil || len(entries) == 0 {
		t.Fatalf("testkit: no flow files found in %q", dir)
	}

	for _, path := range entries {
		path := path
		t.Run(filepath.Base(path), func(t *testing.T) {
			newRunner(t).RunFile(t, path)
		})
	}
}

// Run fires one scenario and asserts its response.
func (r *Runner) Run(t *testing.T, s Scenario) {
	t.Helper()

	// ── 1. Build request ──────────────────────────────────────────────────

	var body io.Reader
	if len(s.Body) > 0 {
		body = bytes.NewReader([]byte(expand(string(s.Body), r.vars)))
	}

	req := httptest.NewRequest(s.Method, expand(s.URL, r.vars), body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if s.As != "" {
		if r.token == nil {
			t.Fatalf("[%s] scenario sets \"as\" but the runner has no TokenFunc", s.Name)
		}
		token, err := r.token(s.As)
		if err != nil {
			t.Fatalf("[%s] mint token: %v", s.Name, err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range s.Headers {
		req.Header.Set(k, expand(v, r.vars))
	}

	// ── 2. Fire ───────────────────────────────────────────────────────────

	rec := httptest.NewRecorder()
	r.handler.ServeHTTP(rec, req)

	// ── 3. Assert ─────────────────────────────────────────────────────────

	AssertStatusCode(t, s, rec.Code)
	if len(s.Expect) > 0 {
		AssertJSONSubset(t, s, []byte(expand(string(s.Expect), r.vars)), rec.Body.Bytes())
	}

	// ── 4. Save variables ─────────────────────────────────────────────────

	if len(s.Save) == 0 {
		return
	}
	var decoded interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("[%s] response is not JSON, cannot save variables: %s", s.Name, rec.Body.String())
	}
	for name, path := range s.Save {
		v, ok := lookup(decoded, path)
		if !ok {
			t.Fatalf("[%s] save %q: path %q not in response %s", s.Name, name, path, rec.Body.String())
		}
		r.vars[name] = fmt.Sprint(v)
	}
}
