package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBroker_PublishReachesSubscriber(t *testing.T) {
	b := NewBroker()
	ch, cancel := b.Subscribe("", 4)
	defer cancel()

	evt := NewInfo("шаг запущен")
	evt.SessionKey = "42"
	b.Publish(TopicStepStarted, evt)

	select {
	case env := <-ch:
		assert.Equal(t, TopicStepStarted, env.Topic)
		assert.Equal(t, "42", env.Event.SessionKey)
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestBroker_SessionFilter(t *testing.T) {
	b := NewBroker()
	mine, cancelMine := b.Subscribe("7", 4)
	defer cancelMine()
	all, cancelAll := b.Subscribe("", 4)
	defer cancelAll()

	other := NewInfo("чужая сессия")
	other.SessionKey = "8"
	b.Publish(TopicStepCompleted, other)

	select {
	case <-mine:
		t.Fatal("subscriber for session 7 received session 8 event")
	case <-time.After(50 * time.Millisecond):
	}

	select {
	case env := <-all:
		assert.Equal(t, "8", env.Event.SessionKey)
	case <-time.After(time.Second):
		t.Fatal("wildcard subscriber missed the event")
	}
}

func TestBroker_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	b := NewBroker()
	ch, cancel := b.Subscribe("", 1)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			b.Publish(TopicStepStarted, NewInfo("burst"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber channel")
	}
	assert.Len(t, ch, 1)
}

func TestBroker_CancelIsIdempotent(t *testing.T) {
	b := NewBroker()
	_, cancel := b.Subscribe("", 1)
	cancel()
	cancel()
	assert.Equal(t, 0, b.SubscriberCount())
}

func TestWithSession_RoundTrip(t *testing.T) {
	ctx := WithSession(context.Background(), "15")
	assert.Equal(t, "15", SessionFromContext(ctx))

	assert.Equal(t, "", SessionFromContext(context.Background()))
	assert.Equal(t, context.Background(), WithSession(context.Background(), "  "))
}

func TestEmit_DefaultIsNoop(t *testing.T) {
	// must not panic even when nothing enabled an emitter
	Emit(context.Background(), TopicStepFailed, NewError("boom"))
}

func TestSetCustomEmitter_FillsSessionFromContext(t *testing.T) {
	var got StepEvent
	SetCustomEmitter(func(ctx context.Context, name string, evt StepEvent) {
		got = evt
	})
	defer SetCustomEmitter(nil)

	ctx := WithSession(context.Background(), "99")
	Emit(ctx, TopicStepCompleted, NewSuccess("готово"))
	assert.Equal(t, "99", got.SessionKey)
	assert.Equal(t, EventSuccess, got.Type)
}
