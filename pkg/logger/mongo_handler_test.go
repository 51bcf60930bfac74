package logger

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type captureCol struct {
	mu   sync.Mutex
	docs []LogDocument
}

func (c *captureCol) InsertMany(_ context.Context, docs []interface{}, _ ...*options.InsertManyOptions) (*mongo.InsertManyResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range docs {
		c.docs = append(c.docs, d.(LogDocument))
	}
	return &mongo.InsertManyResult{}, nil
}

func TestMongoHandler_FlushOnClose(t *testing.T) {
	col := &captureCol{}
	h := newMongoHandler(col)
	log := slog.New(h).With("request_id", "rid-1")

	log.Info("payment completed", "tracking_id", "PRCL-20250101-ABCDEF", "error", errors.New("none"))
	log.Debug("dropped below info")
	h.Close()
	h.Close()

	require.Len(t, col.docs, 1)
	doc := col.docs[0]
	assert.Equal(t, "payment completed", doc.Msg)
	assert.Equal(t, "rid-1", doc.RequestID)
	assert.Equal(t, "PRCL-20250101-ABCDEF", doc.Attrs["tracking_id"])
	assert.Equal(t, "none", doc.Attrs["error"])
}

func TestMongoHandler_GroupPrefix(t *testing.T) {
	col := &captureCol{}
	h := newMongoHandler(col)
	slog.New(h).WithGroup("http").Info("request", "status", 200)
	h.Close()

	require.Len(t, col.docs, 1)
	assert.EqualValues(t, 200, col.docs[0].Attrs["http.status"])
}

func TestWithCtx_FallsBackToBase(t *testing.T) {
	assert.Same(t, L, WithCtx(context.Background()))

	tagged := L.With("request_id", "x")
	ctx := InjectLogger(context.Background(), tagged)
	assert.Same(t, tagged, WithCtx(ctx))
}
