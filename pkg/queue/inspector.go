// Package queue reports the depth of the worker queues.
package queue

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/kube-reporting/pipeline-validator/pkg/boundary"
)

// DefaultQueues are the worker queues cost processing moves through.
var DefaultQueues = []string{"download", "summary", "priority", "refresh", "celery"}

type redisClient interface {
	LLen(ctx context.Context, key string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// Inspector implements boundary.QueueInspector over Redis lists.
type Inspector struct {
	client redisClient
}

var _ boundary.QueueInspector = (*Inspector)(nil)

// New connects to addr, a host:port or a redis:// URL.
func New(addr, password string) (*Inspector, error) {
	opts := &redis.Options{Addr: addr}
	if strings.Contains(addr, "://") {
		var err error
		if opts, err = redis.ParseURL(addr); err != nil {
			return nil, boundary.Config("parse redis url", err)
		}
	}
	if password != "" {
		opts.Password = password
	}
	return &Inspector{client: redis.NewClient(opts)}, nil
}

// QueueDepth returns the length of each queue. Missing queues have depth 0.
func (i *Inspector) QueueDepth(ctx context.Context, queues []string) (map[string]int64, error) {
	depths := make(map[string]int64, len(queues))
	for _, q := range queues {
		n, err := i.client.LLen(ctx, q).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, classify("queue depth "+q, err)
		}
		depths[q] = n
	}
	return depths, nil
}

func (i *Inspector) Ping(ctx context.Context) error {
	return classify("ping redis", i.client.Ping(ctx).Err())
}

func (i *Inspector) Close() error {
	return i.client.Close()
}

// Total sums depths.
func Total(depths map[string]int64) int64 {
	var total int64
	for _, d := range depths {
		total += d
	}
	return total
}

func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return boundary.Transient(op, err)
	}
	if errors.Is(err, redis.ErrClosed) {
		return boundary.Transport(op, err)
	}
	return boundary.Classify(op, err)
}
