package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/atlcheck/internal/infrastructure/logging"
	"github.com/alexisbeaulieu97/atlcheck/internal/ports"
)

func newTestLogger(t *testing.T, buf *bytes.Buffer, level string) ports.Logger {
	t.Helper()
	logger, err := logging.New(logging.Options{
		Writer: buf,
		Level:  level,
		Layer:  "test",
	})
	require.NoError(t, err)
	return logger
}

func TestPublisherLogsEventWithCorrelationID(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	publisher := NewPublisher(newTestLogger(t, buf, "debug"))

	ctx := ports.WithCorrelationID(context.Background(), "abc-123")
	err := publisher.Publish(ctx, ports.Event{
		Type:   ports.EventCheckStarted,
		Fields: map[string]interface{}{"model": "shooter.lcgs"},
	})
	require.NoError(t, err)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, ports.EventCheckStarted, entry["message"])
	require.Equal(t, ports.EventCheckStarted, entry["event_type"])
	require.Equal(t, "debug", entry["level"])
	require.Equal(t, "events", entry["component"])
	require.Equal(t, "abc-123", entry["correlation_id"])
	require.Equal(t, "shooter.lcgs", entry["model"])
}

func TestPublisherLevels(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		ports.EventCheckStarted:     "debug",
		ports.EventCheckCompleted:   "info",
		ports.EventCheckFailed:      "warn",
		ports.EventEngineLoaded:     "debug",
		ports.EventEngineLoadFailed: "error",
	}
	for eventType, level := range tests {
		eventType, level := eventType, level
		t.Run(eventType, func(t *testing.T) {
			t.Parallel()
			buf := &bytes.Buffer{}
			publisher := NewPublisher(newTestLogger(t, buf, "debug"))
			require.NoError(t, publisher.Publish(context.Background(), ports.Event{Type: eventType}))

			var entry map[string]interface{}
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			require.Equal(t, level, entry["level"])
		})
	}
}

func TestPublisherInvokesSubscribers(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	publisher := NewPublisher(newTestLogger(t, buf, "warn"))

	var handled []string
	sub, err := publisher.Subscribe(ports.EventCheckCompleted, func(ctx context.Context, event ports.DomainEvent) error {
		handled = append(handled, event.EventType())
		return nil
	})
	require.NoError(t, err)

	_, err = publisher.Subscribe(ports.EventCheckCompleted, func(context.Context, ports.DomainEvent) error {
		return errors.New("handler broke")
	})
	require.NoError(t, err)

	event := ports.Event{Type: ports.EventCheckCompleted, Fields: map[string]interface{}{"satisfied": true}}
	require.NoError(t, publisher.Publish(context.Background(), event))
	require.Equal(t, []string{ports.EventCheckCompleted}, handled)
	require.Contains(t, buf.String(), "event handler failed")

	sub.Unsubscribe()
	sub.Unsubscribe()
	require.NoError(t, publisher.Publish(context.Background(), event))
	require.Len(t, handled, 1, "unsubscribed handler must not run")
	require.Equal(t, 2, strings.Count(buf.String(), "handler broke"))
}

func TestPublisherToleratesNil(t *testing.T) {
	t.Parallel()

	var publisher *Publisher
	require.NoError(t, publisher.Publish(context.Background(), ports.Event{Type: ports.EventCheckFailed}))

	sub, err := publisher.Subscribe(ports.EventCheckFailed, func(context.Context, ports.DomainEvent) error { return nil })
	require.NoError(t, err)
	sub.Unsubscribe()

	require.NoError(t, NewPublisher(nil).Publish(context.Background(), nil))
}
