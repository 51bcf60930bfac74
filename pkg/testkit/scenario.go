// Package testkit drives REST API tests from JSON flow files.
//
// A flow file is an array of scenarios fired in order against one
// http.Handler, so later steps see the state earlier steps created:
//
//	testdata/
//	  apply_and_pay.json
//
//	[
//	  {"name": "apply", "method": "POST", "url": "/apply-scholarships",
//	   "as": "ana@example.com", "body": {"scholarshipId": "{{scholarshipId}}"},
//	   "expectedCode": 201, "save": {"appId": "data.insertedId"}},
//	  {"name": "fetch", "url": "/my-applications/{{appId}}", "as": "ana@example.com",
//	   "expectedCode": 200, "expect": {"data": {"paymentStatus": "pending"}}}
//	]
//
// Example _test.go:
//
//	func TestAPI(t *testing.T) {
//	    testkit.RunDir(t, "testdata", func(t *testing.T) *testkit.Runner {
//	        return testkit.New(k.Handler(), tokens)
//	    })
//	}
package testkit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ─── Schema ───────────────────────────────────────────────────────────────────

// Scenario is one request and what its response must look like.
type Scenario struct {
	Name string `json:"name"`

	// Request
	Method  string            `json:"method"` // defaults to GET
	URL     string            `json:"url"`
	As      string            `json:"as"`   // principal email; a bearer token is minted for it
	Body    json.RawMessage   `json:"body"` // inline JSON body
	Headers map[string]string `json:"headers"`

	// Response assertions
	ExpectedCode int             `json:"expectedCode"`
	Expect       json.RawMessage `json:"expect"` // subset the response body must contain

	// Save copies response values into flow variables: name → dotted path,
	// e.g. {"appId": "data.insertedId"}. Variables are substituted as
	// {{name}} in url, body and headers of later scenarios.
	Save map[string]string `json:"save"`
}

// ─── Loading ──────────────────────────────────────────────────────────────────

// LoadFlow reads and validates an array of scenarios from a JSON file.
func LoadFlow(path string) ([]Scenario, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("testkit: resolve path %q: %w", path, err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("testkit: read %q: %w", abs, err)
	}

	var flow []Scenario
	if err := json.Unmarshal(data, &flow); err != nil {
		return nil, fmt.Errorf("testkit: parse %q: %w", abs, err)
	}

	for i := range flow {
		if err := flow[i].validate(); err != nil {
			return nil, fmt.Errorf("testkit: invalid scenario %d in %q: %w", i, abs, err)
		}
	}
	return flow, nil
}

// validate performs basic sanity checks on a loaded scenario.
func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.URL == "" {
		return fmt.Errorf("url is required")
	}
	if s.ExpectedCode == 0 {
		return fmt.Errorf("expectedCode is required")
	}
	if s.Method == "" {
		s.Method = "GET"
	}
	s.Method = strings.ToUpper(s.Method)
	return nil
}

// expand replaces every {{name}} in s with its value from vars.
func expand(s string, vars map[string]string) string {
	for k, v := range vars {
		s = strings.ReplaceAll(s, "{{"+k+"}}", v)
	}
	return s
}

// lookup walks a dotted path ("data.items.0.id") through decoded JSON.
func lookup(v interface{}, path string) (interface{}, bool) {
	if path == "" {
		return v, true
	}
	for _, part := range strings.Split(path, ".") {
		switch node := v.(type) {
		case map[string]interface{}:
			next, ok := node[part]
			if !ok {
				return nil, false
			}
			v = next
		case []interface{}:
			var i int
			if _, err := fmt.Sscanf(part, "%d", &i); err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			v = node[i]
		default:
			return nil, false
		}
	}
	return v, true
}
