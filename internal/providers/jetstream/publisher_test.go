package jetstream_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	natsjs "github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/votetripling/ambassador-api/internal/adapter"
	"github.com/votetripling/ambassador-api/internal/domain"
	"github.com/votetripling/ambassador-api/internal/mocks"
	"github.com/votetripling/ambassador-api/internal/providers/jetstream"
)

func testConfig() jetstream.Config {
	return jetstream.Config{
		URL:            "nats://localhost:4222",
		StreamName:     "AMBASSADOR_EVENTS",
		SubjectPrefix:  "ambassador",
		MaxReconnects:  5,
		ReconnectWait:  time.Second,
		ConnectionName: "ambassador-api",
	}
}

func TestPublisher_PublishTriplerEvent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	natsJS := mocks.NewMockNatsJetStream(ctrl)
	nc := mocks.NewMockNatsConn(ctrl)
	js := mocks.NewMockJetStream(ctrl)
	ctx := context.Background()

	natsJS.EXPECT().Connect("nats://localhost:4222", gomock.Any()).Return(nc, js, nil)
	js.EXPECT().
		CreateOrUpdateStream(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, cfg natsjs.StreamConfig) error {
			assert.Equal(t, "AMBASSADOR_EVENTS", cfg.Name)
			assert.Equal(t, []string{"ambassador.>"}, cfg.Subjects)
			return nil
		})

	p, err := jetstream.NewPublisher(ctx, testConfig(), natsJS, adapter.NewJSON())
	require.NoError(t, err)

	event := &domain.TriplerEvent{
		ID:         "01J00000000000000000000000",
		Type:       domain.TriplerEventConfirmed,
		TriplerID:  "tripler-1",
		OccurredAt: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
	}

	js.EXPECT().
		Publish(ctx, "ambassador.tripler.confirmed", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, data []byte, opts ...natsjs.PublishOpt) (*natsjs.PubAck, error) {
			assert.Contains(t, string(data), `"tripler_id":"tripler-1"`)
			assert.Len(t, opts, 1)
			return &natsjs.PubAck{Stream: "AMBASSADOR_EVENTS", Sequence: 1}, nil
		})

	require.NoError(t, p.PublishTriplerEvent(ctx, event))

	nc.EXPECT().Close()
	p.Close()
}

func TestPublisher_PublishTriplerEvent_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	natsJS := mocks.NewMockNatsJetStream(ctrl)
	nc := mocks.NewMockNatsConn(ctrl)
	js := mocks.NewMockJetStream(ctrl)
	ctx := context.Background()

	natsJS.EXPECT().Connect(gomock.Any(), gomock.Any()).Return(nc, js, nil)
	js.EXPECT().CreateOrUpdateStream(ctx, gomock.Any()).Return(nil)

	p, err := jetstream.NewPublisher(ctx, testConfig(), natsJS, adapter.NewJSON())
	require.NoError(t, err)

	js.EXPECT().Publish(ctx, gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("no responders"))

	err = p.PublishTriplerEvent(ctx, &domain.TriplerEvent{ID: "x", Type: domain.TriplerEventPending})
	assert.ErrorContains(t, err, "failed to publish event")
}

func TestNewPublisher_StreamError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	natsJS := mocks.NewMockNatsJetStream(ctrl)
	nc := mocks.NewMockNatsConn(ctrl)
	js := mocks.NewMockJetStream(ctrl)
	ctx := context.Background()

	natsJS.EXPECT().Connect(gomock.Any(), gomock.Any()).Return(nc, js, nil)
	js.EXPECT().CreateOrUpdateStream(ctx, gomock.Any()).Return(errors.New("denied"))
	nc.EXPECT().Close()

	_, err := jetstream.NewPublisher(ctx, testConfig(), natsJS, adapter.NewJSON())
	assert.ErrorContains(t, err, "failed to ensure stream")
}
