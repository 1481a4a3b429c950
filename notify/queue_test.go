package notify

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hostel-backend/metrics"
	"hostel-backend/utils"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestNextBackoff(t *testing.T) {
	assert.Equal(t, minPopBackoff, nextBackoff(0))
	assert.Equal(t, 2*minPopBackoff, nextBackoff(minPopBackoff))
	assert.Equal(t, maxPopBackoff, nextBackoff(4*time.Second))
	assert.Equal(t, maxPopBackoff, nextBackoff(maxPopBackoff))
}

func TestRedisQueue_UnreachableServerBacksOff(t *testing.T) {
	// nothing listens on port 1, so every pop fails straight away
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 50 * time.Millisecond})
	defer client.Close()
	q := NewRedisQueue(client, "", zap.NewNop())
	errs := metrics.NotificationsTotal.WithLabelValues("queue_error")
	before := counterValue(t, errs)

	ctx, cancel := context.WithTimeout(context.Background(), 400*time.Millisecond)
	defer cancel()
	done := make(chan struct{})
	go func() {
		q.pump(ctx, make(chan utils.Mail))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pump did not stop with its context")
	}
	failures := counterValue(t, errs) - before
	assert.GreaterOrEqual(t, failures, 1.0)
	// 100ms, 200ms, 400ms: a tight loop would log thousands
	assert.LessOrEqual(t, failures, 4.0)
}
