package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccessors_ZeroValuesWhenUnset(t *testing.T) {
	ctx := context.Background()

	assert.Empty(t, ClientID(ctx))
	assert.Empty(t, ClientIP(ctx))
	assert.Empty(t, UserAgent(ctx))
	assert.Empty(t, Device(ctx))
	assert.Empty(t, RequestID(ctx))
	assert.WithinDuration(t, time.Now(), Now(ctx), time.Second)
}

func TestAccessors_RoundTrip(t *testing.T) {
	fixed := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

	ctx := context.Background()
	ctx = WithClientID(ctx, "loan-portal")
	ctx = WithClientMetadata(ctx, "10.0.0.1", "curl/8.4.0")
	ctx = WithDevice(ctx, "Unknown Device")
	ctx = WithRequestID(ctx, "req-123")
	ctx = WithTime(ctx, fixed)

	assert.Equal(t, "loan-portal", ClientID(ctx))
	assert.Equal(t, "10.0.0.1", ClientIP(ctx))
	assert.Equal(t, "curl/8.4.0", UserAgent(ctx))
	assert.Equal(t, "Unknown Device", Device(ctx))
	assert.Equal(t, "req-123", RequestID(ctx))
	assert.Equal(t, fixed, Now(ctx))
}
