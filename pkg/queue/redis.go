package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"OddsFlow/pkg/logger"
)

// RedisQueue is a Redis-list backed work queue. The ops API publishes
// run requests onto it; a single consumer loop in the serving process
// pops and dispatches them, so runs triggered over HTTP never execute
// inside a request handler.
type RedisQueue struct {
	l      *logger.Logger
	cfg    Config
	client *redis.Client
	key    string

	mu   sync.RWMutex
	jobs map[string]Job

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewRedisQueue creates a queue over a shared Redis client.
func NewRedisQueue(l *logger.Logger, cfg Config, client *redis.Client, keyPrefix string) *RedisQueue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 10 * time.Second
	}
	if keyPrefix == "" {
		keyPrefix = "oddsflow"
	}
	return &RedisQueue{
		l:      l,
		cfg:    cfg,
		client: client,
		key:    keyPrefix + ":queue:runs",
		jobs:   make(map[string]Job),
	}
}

// RegisterJob binds a handler to its message type.
func (q *RedisQueue) RegisterJob(job Job) {
	q.mu.Lock()
	q.jobs[job.Name()] = job
	q.mu.Unlock()
}

// Publish enqueues one request. Payload is marshaled to JSON.
func (q *RedisQueue) Publish(ctx context.Context, msgType string, payload interface{}) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	msg := Message{
		ID:       uuid.NewString(),
		Type:     msgType,
		Payload:  body,
		Enqueued: time.Now().UTC(),
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("marshal message: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, raw).Err(); err != nil {
		return "", fmt.Errorf("enqueue: %w", err)
	}
	return msg.ID, nil
}

// Start launches the consumer workers. No-op messages with an unknown
// type are dropped with a warning.
func (q *RedisQueue) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
	q.l.Info("queue consumer started",
		logger.String("key", q.key),
		logger.Int("workers", q.cfg.Workers),
	)
}

// Stop cancels the workers and waits for in-flight handlers.
func (q *RedisQueue) Stop() {
	if q.cancel != nil {
		q.cancel()
	}
	q.wg.Wait()
}

func (q *RedisQueue) worker(ctx context.Context) {
	defer q.wg.Done()
	for {
		res, err := q.client.BRPop(ctx, 2*time.Second, q.key).Result()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if err != redis.Nil {
				q.l.Warn("queue pop failed", logger.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(q.cfg.RetryDelay):
				}
			}
			continue
		}
		if len(res) < 2 {
			continue
		}
		q.dispatch(ctx, []byte(res[1]))
	}
}

func (q *RedisQueue) dispatch(ctx context.Context, raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		q.l.Warn("malformed queue message dropped", logger.Error(err))
		return
	}
	q.mu.RLock()
	job, ok := q.jobs[msg.Type]
	q.mu.RUnlock()
	if !ok {
		q.l.Warn("no job for message type", logger.String("type", msg.Type))
		return
	}

	if err := job.Handle(ctx, msg.Payload); err != nil {
		q.l.Error("job failed",
			logger.String("type", msg.Type),
			logger.String("id", msg.ID),
			logger.Int("attempts", msg.Attempts+1),
			logger.Error(err),
		)
		if msg.Attempts+1 < q.cfg.RetryLimit {
			msg.Attempts++
			if raw, merr := json.Marshal(msg); merr == nil {
				time.AfterFunc(q.cfg.RetryDelay, func() {
					_ = q.client.LPush(context.Background(), q.key, raw).Err()
				})
			}
		}
	}
}
