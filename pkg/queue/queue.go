package queue

import (
	"context"
	"time"
)

// Job consumes messages of one type pulled off the queue.
type Job interface {
	Name() string
	Handle(ctx context.Context, payload []byte) error
}

// Config tunes the consumer side.
type Config struct {
	Workers    int
	RetryLimit int
	RetryDelay time.Duration
}

// Message is the wire envelope of one queued request.
type Message struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	Payload  []byte    `json:"payload"`
	Attempts int       `json:"attempts"`
	Enqueued time.Time `json:"enqueued"`
}
