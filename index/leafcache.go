package index

import (
	"github.com/dgraph-io/ristretto/v2"
	"github.com/pkg/errors"
)

// Serving traffic hits a small set of hot leaf pages (cities, junctions).
// A cost-bounded cache in front of the leaf file turns most loadLeafFromDisk calls
// into memory reads. 64 MiB holds roughly 1300 pages.
const leafCacheMaxCost = 64 << 20

type leafCache struct {
	cache *ristretto.Cache[uint32, *LeafNode]
}

func newLeafCache() (*leafCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[uint32, *LeafNode]{
		NumCounters: 10 * leafCacheMaxCost / leafNodeBytes,
		MaxCost:     leafCacheMaxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, errors.Wrap(err, "Unable to create leaf node cache")
	}
	return &leafCache{cache: cache}, nil
}

func (c *leafCache) get(leafID uint32) (*LeafNode, bool) {
	return c.cache.Get(leafID)
}

func (c *leafCache) set(leafID uint32, leaf *LeafNode) {
	c.cache.Set(leafID, leaf, leafNodeBytes)
}

func (c *leafCache) close() {
	c.cache.Close()
}
