package profile

import (
	"context"
	"strings"
	"sync"
)

// fakeStore is an in-memory store.Store with redis list semantics, plus
// per-operation failure injection for error-path tests.
type fakeStore struct {
	mu      sync.Mutex
	lists   map[string][]string
	scalars map[string]string
	fail    map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		lists:   make(map[string][]string),
		scalars: make(map[string]string),
		fail:    make(map[string]error),
	}
}

func (f *fakeStore) failWith(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[op] = err
}

func (f *fakeStore) Append(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail["append"]; err != nil {
		return err
	}
	f.lists[key] = append(f.lists[key], value)
	return nil
}

func (f *fakeStore) Prepend(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail["prepend"]; err != nil {
		return err
	}
	f.lists[key] = append([]string{value}, f.lists[key]...)
	return nil
}

func (f *fakeStore) Range(ctx context.Context, key string, start, stop int64) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail["range"]; err != nil {
		return nil, err
	}
	list := f.lists[key]
	lo, hi, ok := clampRange(int64(len(list)), start, stop)
	if !ok {
		return nil, nil
	}
	out := make([]string, hi-lo+1)
	copy(out, list[lo:hi+1])
	return out, nil
}

func (f *fakeStore) Trim(ctx context.Context, key string, start, stop int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail["trim"]; err != nil {
		return err
	}
	list := f.lists[key]
	lo, hi, ok := clampRange(int64(len(list)), start, stop)
	if !ok {
		delete(f.lists, key)
		return nil
	}
	f.lists[key] = append([]string(nil), list[lo:hi+1]...)
	return nil
}

func (f *fakeStore) Len(ctx context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail["len"]; err != nil {
		return 0, err
	}
	return int64(len(f.lists[key])), nil
}

func (f *fakeStore) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail["get"]; err != nil {
		return "", false, err
	}
	v, ok := f.scalars[key]
	return v, ok, nil
}

func (f *fakeStore) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail["set"]; err != nil {
		return err
	}
	f.scalars[key] = value
	return nil
}

func (f *fakeStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail["keys"]; err != nil {
		return nil, err
	}
	prefix := strings.TrimSuffix(pattern, "*")
	var keys []string
	for k := range f.lists {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	for k := range f.scalars {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (f *fakeStore) Close() error { return nil }

// clampRange resolves redis-style list indices to concrete bounds.
func clampRange(n, start, stop int64) (int64, int64, bool) {
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if n == 0 || start > stop || start >= n {
		return 0, 0, false
	}
	return start, stop, true
}
