package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"docstore-backend/internal/queue"
	"docstore-backend/internal/shared/metrics"
	"docstore-backend/internal/usage"
)

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{BodyLen: 0, BodySHA: ""}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

// ErrMissingEventID indicates a message without an event id.
type ErrMissingEventID struct {
	Meta      MessageMeta
	RequestID string
}

func (e ErrMissingEventID) Error() string { return "missing event id" }

// ErrProcess indicates applying the message failed after parsing.
type ErrProcess struct {
	EventID   string
	RequestID string
	Err       error
}

func (e ErrProcess) Error() string {
	if e.Err == nil {
		return "apply message"
	}
	return "apply message: " + e.Err.Error()
}

func (e ErrProcess) Unwrap() error { return e.Err }

// Applier folds a decoded message into persistent state.
type Applier interface {
	Apply(ctx context.Context, msg queue.Message) (usage.Usage, bool, error)
}

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if strings.TrimSpace(msg.EventID) == "" {
		return msg, meta, ErrMissingEventID{Meta: meta, RequestID: msg.RequestID}
	}
	return msg, meta, nil
}

// Process applies an already parsed message and counts the outcome.
func Process(ctx context.Context, a Applier, msg queue.Message) error {
	if a == nil {
		return errors.New("usage service not configured")
	}
	_, applied, err := a.Apply(ctx, msg)
	if err != nil {
		if errors.Is(err, usage.ErrInvalidMessage) {
			metrics.IncQueueMessage(metrics.QueueUnrecoverable)
		} else {
			metrics.IncQueueMessage(metrics.QueueFailed)
		}
		return ErrProcess{EventID: msg.EventID, RequestID: msg.RequestID, Err: err}
	}
	if applied {
		metrics.IncQueueMessage(metrics.QueueCompleted)
	} else {
		metrics.IncQueueMessage(metrics.QueueDuplicate)
	}
	return nil
}

// HandleMessage parses, validates, and applies a message payload.
func HandleMessage(ctx context.Context, a Applier, body string) error {
	metrics.IncQueueMessage(metrics.QueueReceived)
	msg, _, err := ParseMessage(body)
	if err != nil {
		metrics.IncQueueMessage(metrics.QueueUnrecoverable)
		return err
	}
	return Process(ctx, a, msg)
}

// Unrecoverable reports whether redelivering the message can never succeed.
func Unrecoverable(err error) bool {
	switch err.(type) {
	case ErrEmptyBody, ErrDecode, ErrMissingEventID:
		return true
	}
	return errors.Is(err, usage.ErrInvalidMessage)
}
