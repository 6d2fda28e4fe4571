// CachingRepository layers two repositories behind the same Repository
// contract: Front is checked first, Back is the fallback. A caching layer
// is just another composable backend rather than a special case wired
// into the database itself.
package kivis

import "context"

// CachingRepository reads through Front to Back and writes through to
// both. Remove deletes from both layers rather than leaving a stale
// tombstone in front of the fallback.
type CachingRepository struct {
	Front Repository
	Back  Repository
}

// NewCachingRepository returns a CachingRepository with the given layers.
func NewCachingRepository(front, back Repository) *CachingRepository {
	return &CachingRepository{Front: front, Back: back}
}

// Insert writes to both layers.
func (c *CachingRepository) Insert(ctx context.Context, key, value View) error {
	if err := c.Back.Insert(ctx, key, value); err != nil {
		return err
	}
	return c.Front.Insert(ctx, key, value)
}

// Get checks Front first; on a Back hit, it populates Front before
// returning.
func (c *CachingRepository) Get(ctx context.Context, key View) (View, bool, error) {
	if v, ok, err := c.Front.Get(ctx, key); err != nil {
		return nil, false, err
	} else if ok {
		return v, true, nil
	}

	v, ok, err := c.Back.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	if err := c.Front.Insert(ctx, key, v); err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// Remove deletes key from both layers, returning the prior value if either
// layer had one (preferring Front's, since it is authoritative for
// anything already promoted into it).
func (c *CachingRepository) Remove(ctx context.Context, key View) (View, bool, error) {
	frontVal, frontOK, err := c.Front.Remove(ctx, key)
	if err != nil {
		return nil, false, err
	}
	backVal, backOK, err := c.Back.Remove(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if frontOK {
		return frontVal, true, nil
	}
	return backVal, backOK, nil
}

// Scan always reads through Back: Front may hold only a partial view of
// the key space (whatever has been read-through or written-through so
// far), so only Back can be trusted to enumerate a full range.
func (c *CachingRepository) Scan(ctx context.Context, start, end View) (ScanIterator, error) {
	return c.Back.Scan(ctx, start, end)
}

// BatchMixed writes through to both layers sequentially, Back first so a
// crash between the two leaves Front, the cache, behind rather than ahead.
func (c *CachingRepository) BatchMixed(ctx context.Context, ops []BatchOp) ([]View, error) {
	if _, err := BatchMixed(ctx, c.Back, ops); err != nil {
		return nil, err
	}
	return BatchMixed(ctx, c.Front, ops)
}
