package presence

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/5joshi/OsuBelgiumBot/app/observability"
	presencedomain "github.com/5joshi/OsuBelgiumBot/app/modules/presence/domain"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresenceModule(t *testing.T) {
	obs := observability.New(slog.New(slog.NewTextHandler(io.Discard, nil)))
	pubsub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	router, err := message.NewRouter(message.RouterConfig{}, watermill.NopLogger{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m, err := NewPresenceModule(ctx, obs, pubsub, router, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go m.Run(ctx, &wg)
	go func() { _ = router.Run(ctx) }()
	<-router.Running()

	msg := message.NewMessage(watermill.NewUUID(), []byte(`{"handle":"Anyone"}`))
	require.NoError(t, pubsub.Publish(presencedomain.PresenceJoinedV1, msg))

	assert.Eventually(t, func() bool {
		snap := m.Registry.Snapshot()
		return len(snap) == 1 && snap[0] == "anyone"
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	wg.Wait()
	require.NoError(t, m.Close())
}
