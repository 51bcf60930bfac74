package testkit

import (
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// notesHandler is a tiny stateful API: POST /notes stores a note for the
// bearer, GET /notes/{n} returns it.
func notesHandler() http.Handler {
	var (
		mu    sync.Mutex
		notes []map[string]string
	)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		mu.Lock()
		defer mu.Unlock()

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/notes":
			if r.Header.Get("Authorization") == "" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"success":false,"message":"unauthorized access"}`)) //nolint:errcheck
				return
			}
			var in map[string]string
			_ = json.NewDecoder(r.Body).Decode(&in)
			in["owner"] = r.Header.Get("Authorization")
			notes = append(notes, in)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]any{"success": true, "data": map[string]any{"id": len(notes) - 1}}) //nolint:errcheck
		case r.Method == http.MethodGet && r.URL.Path == "/notes/0":
			json.NewEncoder(w).Encode(map[string]any{"success": true, "data": notes[0]}) //nolint:errcheck
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"success":false,"message":"Not found"}`)) //nolint:errcheck
		}
	})
}

func token(email string) (string, error) { return "tok-" + email, nil }

func TestRunDir_Notes(t *testing.T) {
	RunDir(t, "testdata", func(t *testing.T) *Runner {
		return New(notesHandler(), token).Set("title", "groceries")
	})
}

func TestRunner_SavesVariables(t *testing.T) {
	r := New(notesHandler(), token)
	r.RunFile(t, "testdata/notes.json")
	assert.Equal(t, "0", r.Var("noteId"))
}

func TestLoadFlow_Validates(t *testing.T) {
	flow, err := LoadFlow("testdata/notes.json")
	require.NoError(t, err)
	require.NotEmpty(t, flow)
	assert.Equal(t, "GET", flow[len(flow)-1].Method)
}

func TestDiffJSON_Wildcards(t *testing.T) {
	var exp, act interface{}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"*","b":"re:^PRCL-\\d+$","c":[1,2]}`), &exp))
	require.NoError(t, json.Unmarshal([]byte(`{"a":null,"b":"PRCL-20250101","c":[1,2],"d":true}`), &act))
	assert.Empty(t, DiffJSON("", exp, act))

	require.NoError(t, json.Unmarshal([]byte(`{"a":null,"b":"nope","c":[1]}`), &act))
	assert.Len(t, DiffJSON("", exp, act), 2)
}

func TestLookup(t *testing.T) {
	var v interface{}
	require.NoError(t, json.Unmarshal([]byte(`{"data":{"items":[{"id":"x"}]}}`), &v))

	got, ok := lookup(v, "data.items.0.id")
	assert.True(t, ok)
	assert.Equal(t, "x", got)

	_, ok = lookup(v, "data.items.3.id")
	assert.False(t, ok)
}
