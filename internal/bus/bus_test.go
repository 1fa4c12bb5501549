package bus

import (
	"context"
	"testing"
	"time"

	"github.com/soyeahso/botbridge/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishConsume(t *testing.T) {
	b := New(10)
	defer b.Close()

	msg := domain.TextMessage{User: domain.User{ID: "u1"}, Text: "hello"}
	require.NoError(t, b.Publish(context.Background(), msg))

	evt, ok := b.Consume(context.Background())
	require.True(t, ok)
	assert.Equal(t, msg, evt)
}

func TestPublish_Closed(t *testing.T) {
	b := New(1)
	b.Close()

	err := b.Publish(context.Background(), domain.GenericEvent{})
	assert.ErrorIs(t, err, ErrBusClosed)
}

func TestConsume_Closed(t *testing.T) {
	b := New(1)
	b.Close()

	_, ok := b.Consume(context.Background())
	assert.False(t, ok)
}

func TestConsume_DrainsBufferedAfterClose(t *testing.T) {
	b := New(10)

	first := domain.TextMessage{User: domain.User{ID: "u1"}, Text: "one"}
	second := domain.TextMessage{User: domain.User{ID: "u1"}, Text: "two"}
	require.NoError(t, b.Publish(context.Background(), first))
	require.NoError(t, b.Publish(context.Background(), second))

	b.Close()

	evt, ok := b.Consume(context.Background())
	require.True(t, ok)
	assert.Equal(t, first, evt)

	evt, ok = b.Consume(context.Background())
	require.True(t, ok)
	assert.Equal(t, second, evt)

	_, ok = b.Consume(context.Background())
	assert.False(t, ok)
}

func TestConsume_ContextCancelled(t *testing.T) {
	b := New(1)
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, ok := b.Consume(ctx)
	assert.False(t, ok)
}

func TestClose_Idempotent(t *testing.T) {
	b := New(1)
	b.Close()
	b.Close() // must not panic
}
