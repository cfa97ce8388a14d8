package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/votetripling/ambassador-api/internal/config"
	"github.com/votetripling/ambassador-api/internal/mocks"
	"github.com/votetripling/ambassador-api/internal/ratelimit"
)

func TestNewHTTPClient_Disabled(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := mocks.NewMockHTTPClient(ctrl)

	client := ratelimit.NewHTTPClient(inner, "twilio", config.RateLimitConfig{})
	assert.Equal(t, inner, client)
}

func TestHTTPClient_WithinBurst(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := mocks.NewMockHTTPClient(ctrl)

	client := ratelimit.NewHTTPClient(inner, "twilio", config.RateLimitConfig{RequestsPerSecond: 1, Burst: 2})

	inner.EXPECT().Post(gomock.Any(), "https://api.example/sms", gomock.Nil(), []byte("a")).Return([]byte("ok"), nil)
	inner.EXPECT().Get(gomock.Any(), "https://api.example/lookup", gomock.Nil(), gomock.Any()).Return(nil)

	body, err := client.Post(context.Background(), "https://api.example/sms", nil, []byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), body)

	var out map[string]string
	require.NoError(t, client.Get(context.Background(), "https://api.example/lookup", nil, &out))
}

func TestHTTPClient_QueueTimeExceeded(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := mocks.NewMockHTTPClient(ctrl)

	client := ratelimit.NewHTTPClient(inner, "geocoder", config.RateLimitConfig{
		RequestsPerSecond: 0.1,
		Burst:             1,
		MaxQueueTime:      20 * time.Millisecond,
	})

	// the burst admits one call; the next would wait ten seconds
	inner.EXPECT().Post(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).Times(1)

	_, err := client.Post(context.Background(), "https://api.example", nil, nil)
	require.NoError(t, err)

	_, err = client.Post(context.Background(), "https://api.example", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit for geocoder")
}

func TestHTTPClient_ContextCanceled(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := mocks.NewMockHTTPClient(ctrl)

	client := ratelimit.NewHTTPClient(inner, "ekata", config.RateLimitConfig{RequestsPerSecond: 0.1, Burst: 1})
	inner.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(1)

	require.NoError(t, client.Get(context.Background(), "https://api.example", nil, nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, client.Get(ctx, "https://api.example", nil, nil))
}
