package seeders

import (
	"bytes"
	"context"
	"testing"

	"github.com/scholarstream/scholarstream/app/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAll_SeedsEmptyCatalogOnce(t *testing.T) {
	store := repositories.NewMemoryStore()
	ctx := context.Background()
	var out bytes.Buffer

	require.NoError(t, RunAll(ctx, store, &out))
	first, err := store.Scholarships.All(ctx)
	require.NoError(t, err)
	assert.Len(t, first, 3)
	assert.Contains(t, out.String(), "scholarships")

	require.NoError(t, RunAll(ctx, store, &out))
	second, err := store.Scholarships.All(ctx)
	require.NoError(t, err)
	assert.Len(t, second, 3)
}
