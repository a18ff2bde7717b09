package stash

import (
	"context"
	"strconv"
	"strings"

	"github.com/kasuganosora/stashcount/cache"
)

// CacheStore mirrors the snapshot into a Redis (or local) hash. The counts
// live in the hash at key; key+":order" holds the type IDs in insertion order
// and doubles as the marker that a snapshot was saved.
type CacheStore struct {
	c   cache.Cache
	key string
}

// NewCacheStore creates a CacheStore under key.
func NewCacheStore(c cache.Cache, key string) *CacheStore {
	return &CacheStore{c: c, key: key}
}

func (s *CacheStore) Name() string { return "cache" }

func (s *CacheStore) orderKey() string { return s.key + ":order" }

func (s *CacheStore) Save(ctx context.Context, entries []Entry) error {
	if err := s.c.Del(ctx, s.key, s.orderKey()); err != nil {
		return err
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		id := strconv.Itoa(e.TypeID)
		if err := s.c.HSet(ctx, s.key, id, strconv.Itoa(e.Count)); err != nil {
			return err
		}
		ids = append(ids, id)
	}
	return s.c.Set(ctx, s.orderKey(), strings.Join(ids, ","), 0)
}

func (s *CacheStore) Load(ctx context.Context) ([]Entry, error) {
	ok, err := s.c.Exists(ctx, s.orderKey())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoSnapshot
	}
	order, err := s.c.Get(ctx, s.orderKey())
	if err != nil {
		return nil, err
	}
	counts, err := s.c.HGetAll(ctx, s.key)
	if err != nil {
		return nil, err
	}
	var out []Entry
	for _, id := range strings.Split(order, ",") {
		if id == "" {
			continue
		}
		if e, ok := ParseLine(id + "=" + counts[id]); ok {
			out = append(out, e)
		}
	}
	return out, nil
}
