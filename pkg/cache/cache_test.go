package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisabledCacheAlwaysMisses(t *testing.T) {
	ctx := context.Background()
	c := Disabled()

	c.Set(ctx, "scholarship:1", map[string]string{"a": "b"})
	var out map[string]string
	assert.False(t, c.Get(ctx, "scholarship:1", &out))
	assert.Nil(t, out)
	c.Forget(ctx, "scholarship:1")
	assert.NoError(t, c.Close())

	var nilCache *Cache
	assert.False(t, nilCache.Enabled())
}

func TestFamily(t *testing.T) {
	assert.Equal(t, "scholarship", family("scholarship:65f0"))
	assert.Equal(t, "latest", family("latest"))
}
