package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	coceerrors "github.com/lepinkainen/coce/internal/errors"
)

func TestIncCacheLookup(t *testing.T) {
	before := testutil.ToFloat64(cacheLookups.WithLabelValues("gb", CacheHit))
	IncCacheLookup("gb", CacheHit)
	assert.Equal(t, before+1, testutil.ToFloat64(cacheLookups.WithLabelValues("gb", CacheHit)))
}

func TestObserveProviderCall(t *testing.T) {
	okBefore := testutil.ToFloat64(providerCalls.WithLabelValues("ol", "success"))
	errBefore := testutil.ToFloat64(providerCalls.WithLabelValues("ol", "error"))

	ObserveProviderCall("ol", nil, 120*time.Millisecond)
	ObserveProviderCall("ol", errors.New("boom"), time.Second)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(providerCalls.WithLabelValues("ol", "success")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(providerCalls.WithLabelValues("ol", "error")))
}

func TestObserveProviderCallRateLimited(t *testing.T) {
	before := testutil.ToFloat64(providerCalls.WithLabelValues("gb", "rate_limited"))
	ObserveProviderCall("gb", &coceerrors.RateLimitError{Provider: "gb"}, time.Second)
	assert.Equal(t, before+1, testutil.ToFloat64(providerCalls.WithLabelValues("gb", "rate_limited")))
}

func TestIncFetch(t *testing.T) {
	before := testutil.ToFloat64(fetches.WithLabelValues(FetchPartial))
	IncFetch(FetchPartial)
	assert.Equal(t, before+1, testutil.ToFloat64(fetches.WithLabelValues(FetchPartial)))
}

func TestRegisterIsIdempotent(t *testing.T) {
	Register()
	Register()
}
