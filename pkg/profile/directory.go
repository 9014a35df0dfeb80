package profile

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/bookwormlabs/jarvisbot/pkg/store"
)

// Directory is the set of known users, rebuilt by scanning the store's key
// namespace. It is a lookup cache over the store, not a second source of
// truth; Refresh has explicit on-demand semantics rather than being a
// construction side effect.
type Directory struct {
	store store.Store
	root  string

	mu    sync.RWMutex
	users map[string]struct{}
}

func NewDirectory(s store.Store, rootKey string) *Directory {
	return &Directory{
		store: s,
		root:  rootKey,
		users: make(map[string]struct{}),
	}
}

// Refresh rescans the namespace and replaces the user set. Scanning the
// same store state twice yields the same set.
func (d *Directory) Refresh(ctx context.Context) error {
	keys, err := d.store.Keys(ctx, d.root+":*")
	if err != nil {
		return err
	}

	users := make(map[string]struct{})
	prefix := d.root + ":"
	for _, key := range keys {
		rest := strings.TrimPrefix(key, prefix)
		if rest == key {
			continue
		}
		id, _, ok := strings.Cut(rest, ":")
		if !ok || id == "" {
			continue
		}
		users[id] = struct{}{}
	}

	d.mu.Lock()
	d.users = users
	d.mu.Unlock()
	return nil
}

// Users returns the known user ids, sorted for stable iteration.
func (d *Directory) Users() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ids := make([]string, 0, len(d.users))
	for id := range d.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (d *Directory) Contains(userID string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.users[userID]
	return ok
}
