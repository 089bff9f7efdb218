package redisx

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Fake implements the string and list commands Launchpad uses, in memory.
// Calling any other redis.Cmdable method panics.
type Fake struct {
	redis.Cmdable

	mu    sync.Mutex
	vals  map[string]string
	lists map[string][]string
	TTLs  map[string]time.Duration
	// Err, when set, fails every command.
	Err error
}

func NewFake() *Fake {
	return &Fake{
		vals:  make(map[string]string),
		lists: make(map[string][]string),
		TTLs:  make(map[string]time.Duration),
	}
}

func toString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

func (f *Fake) Set(_ context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return redis.NewStatusResult("", f.Err)
	}
	f.vals[key] = toString(value)
	f.TTLs[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *Fake) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return redis.NewStringResult("", f.Err)
	}
	v, ok := f.vals[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *Fake) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return redis.NewIntResult(0, f.Err)
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.vals[k]; ok {
			delete(f.vals, k)
			n++
		}
		if _, ok := f.lists[k]; ok {
			delete(f.lists, k)
			n++
		}
		delete(f.TTLs, k)
	}
	return redis.NewIntResult(n, nil)
}

func (f *Fake) RPush(_ context.Context, key string, values ...any) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return redis.NewIntResult(0, f.Err)
	}
	for _, v := range values {
		f.lists[key] = append(f.lists[key], toString(v))
	}
	return redis.NewIntResult(int64(len(f.lists[key])), nil)
}

func (f *Fake) Expire(_ context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return redis.NewBoolResult(false, f.Err)
	}
	_, isList := f.lists[key]
	_, isVal := f.vals[key]
	if !isList && !isVal {
		return redis.NewBoolResult(false, nil)
	}
	f.TTLs[key] = expiration
	return redis.NewBoolResult(true, nil)
}

// span converts Redis start/stop indexes, which may be negative, to a slice
// range over n elements.
func span(start, stop int64, n int) (int, int) {
	if start < 0 {
		start += int64(n)
	}
	if stop < 0 {
		stop += int64(n)
	}
	start = max(start, 0)
	stop = min(stop, int64(n)-1)
	if start > stop {
		return 0, 0
	}
	return int(start), int(stop) + 1
}

func (f *Fake) LRange(_ context.Context, key string, start, stop int64) *redis.StringSliceCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return redis.NewStringSliceResult(nil, f.Err)
	}
	l := f.lists[key]
	i, j := span(start, stop, len(l))
	return redis.NewStringSliceResult(append([]string(nil), l[i:j]...), nil)
}

func (f *Fake) LTrim(_ context.Context, key string, start, stop int64) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return redis.NewStatusResult("", f.Err)
	}
	l := f.lists[key]
	i, j := span(start, stop, len(l))
	f.lists[key] = append([]string(nil), l[i:j]...)
	return redis.NewStatusResult("OK", nil)
}

func (f *Fake) LLen(_ context.Context, key string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return redis.NewIntResult(0, f.Err)
	}
	return redis.NewIntResult(int64(len(f.lists[key])), nil)
}
