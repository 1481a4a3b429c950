package notify

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"hostel-backend/metrics"
	"hostel-backend/utils"
)

var ErrQueueFull = errors.New("notification queue full")

// Queue carries rendered mails from request handlers to the delivery worker.
type Queue interface {
	Publish(ctx context.Context, m utils.Mail) error
	Consume(ctx context.Context) (<-chan utils.Mail, error)
}

// InMemory is a bounded channel-backed queue. Publish never blocks a request.
type InMemory struct {
	ch chan utils.Mail
}

func NewInMemory(size int) *InMemory {
	if size <= 0 {
		size = 64
	}
	return &InMemory{ch: make(chan utils.Mail, size)}
}

func (q *InMemory) Publish(ctx context.Context, m utils.Mail) error {
	select {
	case q.ch <- m:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

func (q *InMemory) Consume(ctx context.Context) (<-chan utils.Mail, error) {
	out := make(chan utils.Mail)
	go func() {
		defer close(out)
		for {
			select {
			case m := <-q.ch:
				select {
				case out <- m:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// RedisQueue uses LPUSH/BRPOP on a single list key.
type RedisQueue struct {
	client *redis.Client
	key    string
	log    *zap.Logger
}

func NewRedisQueue(client *redis.Client, key string, log *zap.Logger) *RedisQueue {
	if key == "" {
		key = "hostel:notifications"
	}
	return &RedisQueue{client: client, key: key, log: log.Named("queue")}
}

// NewRedisClient connects with short timeouts so a slow redis never stalls a request.
func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  6 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
}

func (q *RedisQueue) Publish(ctx context.Context, m utils.Mail) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, b).Err()
}

func (q *RedisQueue) Consume(ctx context.Context) (<-chan utils.Mail, error) {
	if err := q.client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	out := make(chan utils.Mail)
	go func() {
		defer close(out)
		q.pump(ctx, out)
	}()
	return out, nil
}

const (
	minPopBackoff = 100 * time.Millisecond
	maxPopBackoff = 5 * time.Second
)

// nextBackoff doubles d within [minPopBackoff, maxPopBackoff].
func nextBackoff(d time.Duration) time.Duration {
	if d < minPopBackoff {
		return minPopBackoff
	}
	if d *= 2; d > maxPopBackoff {
		return maxPopBackoff
	}
	return d
}

// pump moves mails from redis to out until ctx ends. Connection errors back off
// so an unreachable redis does not spin the worker.
func (q *RedisQueue) pump(ctx context.Context, out chan<- utils.Mail) {
	var backoff time.Duration
	for {
		res, err := q.client.BRPop(ctx, 5*time.Second, q.key).Result()
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, redis.Nil) {
			// BRPOP timed out on an empty list
			backoff = 0
			continue
		}
		if err != nil {
			backoff = nextBackoff(backoff)
			metrics.NotificationsTotal.WithLabelValues("queue_error").Inc()
			q.log.Warn("notification queue pop failed", zap.Error(err), zap.Duration("retry_in", backoff))
			t := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				t.Stop()
				return
			case <-t.C:
			}
			continue
		}
		backoff = 0
		if len(res) != 2 {
			continue
		}
		var m utils.Mail
		if err := json.Unmarshal([]byte(res[1]), &m); err != nil {
			metrics.NotificationsTotal.WithLabelValues("malformed").Inc()
			q.log.Error("dropping malformed notification", zap.Error(err), zap.Int("bytes", len(res[1])))
			continue
		}
		select {
		case out <- m:
		case <-ctx.Done():
			return
		}
	}
}
