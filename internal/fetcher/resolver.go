package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lepinkainen/coce/internal/cache"
	"github.com/lepinkainen/coce/internal/metrics"
)

// cacheWriteTimeout bounds a single cache write made on behalf of a resolver.
const cacheWriteTimeout = 5 * time.Second

type lookupReply struct {
	id    string
	entry cache.Entry
	err   error
}

// resolve runs the cache-aside lookup of ids for one provider. Hits are
// emitted as they arrive; misses are fenced, fetched in one adapter call and
// emitted as a single batch.
func (f *Fetcher) resolve(ctx context.Context, src Source, ids []string, emit func(report)) {
	misses := f.lookup(ctx, src, ids, emit)
	if len(misses) == 0 {
		return
	}

	urls := f.callAdapter(ctx, src, misses)
	for id, url := range urls {
		f.write(ctx, src.Adapter.Name(), id, url, src.TTL)
	}

	emit(report{provider: src.Adapter.Name(), urls: urls, done: misses})
}

// lookup queries the cache for every id concurrently and waits for the
// replies at most cacheTimeout. Absent keys get a negative entry before
// lookup returns, so the write happens before any adapter call for them.
// Errored and unanswered keys are returned as misses without a fence.
func (f *Fetcher) lookup(ctx context.Context, src Source, ids []string, emit func(report)) []string {
	name := src.Adapter.Name()

	lookupCtx, cancel := context.WithTimeout(ctx, f.cacheTimeout)
	defer cancel()

	replies := make(chan lookupReply, len(ids))
	for _, id := range ids {
		go func(id string) {
			entry, err := f.store.Get(lookupCtx, cache.Key(name, id))
			replies <- lookupReply{id: id, entry: entry, err: err}
		}(id)
	}

	answered := make(map[string]bool, len(ids))
	var misses []string
	var fences sync.WaitGroup

collect:
	for len(answered) < len(ids) {
		select {
		case r := <-replies:
			answered[r.id] = true
			switch {
			case r.err != nil:
				slog.Warn("Cache lookup failed, treating as miss",
					"provider", name, "id", r.id, "error", r.err)
				metrics.IncCacheLookup(name, metrics.CacheError)
				misses = append(misses, r.id)
			case r.entry.Status == cache.Positive:
				metrics.IncCacheLookup(name, metrics.CacheHit)
				emit(report{provider: name, urls: map[string]string{r.id: r.entry.URL}, done: []string{r.id}})
			case r.entry.Status == cache.Negative:
				metrics.IncCacheLookup(name, metrics.CacheNegative)
				emit(report{provider: name, done: []string{r.id}})
			default:
				metrics.IncCacheLookup(name, metrics.CacheMiss)
				misses = append(misses, r.id)
				fences.Add(1)
				go func(id string) {
					defer fences.Done()
					f.write(ctx, name, id, "", src.TTL)
				}(r.id)
			}
		case <-lookupCtx.Done():
			break collect
		}
	}

	for _, id := range ids {
		if !answered[id] {
			slog.Debug("Cache lookup timed out, treating as miss", "provider", name, "id", id)
			metrics.IncCacheLookup(name, metrics.CacheTimeout)
			misses = append(misses, id)
		}
	}

	fences.Wait()
	return misses
}

// callAdapter asks the provider for misses. Errors and panics are logged and
// degrade to whatever URLs were returned; only URLs for requested ids are kept.
func (f *Fetcher) callAdapter(ctx context.Context, src Source, misses []string) map[string]string {
	name := src.Adapter.Name()

	callCtx, cancel := context.WithTimeout(ctx, f.adapterTimeout)
	defer cancel()

	start := time.Now()
	found, err := safeFetch(callCtx, src, misses)
	metrics.ObserveProviderCall(name, err, time.Since(start))
	if err != nil {
		slog.Warn("Provider lookup failed", "provider", name, "ids", len(misses), "found", len(found), "error", err)
	}

	urls := make(map[string]string, len(found))
	for _, id := range misses {
		if url := found[id]; url != "" {
			urls[id] = url
		}
	}
	slog.Debug("Provider lookup finished", "provider", name, "requested", len(misses), "found", len(urls))
	return urls
}

func safeFetch(ctx context.Context, src Source, ids []string) (found map[string]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Provider adapter panicked", "provider", src.Adapter.Name(), "panic", r)
			found = nil
			err = fmt.Errorf("%s adapter panicked: %v", src.Adapter.Name(), r)
		}
	}()
	return src.Adapter.Fetch(ctx, ids)
}

// write stores url (empty for a negative entry) for one key. Failures are
// logged only: a lost write costs one extra upstream lookup later.
func (f *Fetcher) write(ctx context.Context, name, id, url string, ttl time.Duration) {
	writeCtx, cancel := context.WithTimeout(ctx, cacheWriteTimeout)
	defer cancel()

	if err := f.store.SetWithTTL(writeCtx, cache.Key(name, id), url, ttl); err != nil {
		slog.Warn("Cache write failed", "key", cache.Key(name, id), "negative", url == "", "error", err)
	}
}
