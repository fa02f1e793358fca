package sse

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishDeliversToTopicSubscribers(t *testing.T) {
	hub := NewHub()

	ch, cleanup := hub.Subscribe("technician:t1")
	defer cleanup()
	other, cleanupOther := hub.Subscribe("technician:t2")
	defer cleanupOther()

	hub.Publish("technician:t1", Event{Name: "time_entry.changed", Data: "x"})

	select {
	case ev := <-ch:
		assert.Equal(t, "technician:t1", ev.Topic)
		assert.Equal(t, "time_entry.changed", ev.Name)
	default:
		t.Fatal("expected event on subscribed topic")
	}

	select {
	case <-other:
		t.Fatal("unexpected event on other topic")
	default:
	}
}

func TestHub_PublishToMany(t *testing.T) {
	hub := NewHub()

	a, cleanupA := hub.Subscribe("technician:t1")
	defer cleanupA()
	b, cleanupB := hub.Subscribe("shop:s1")
	defer cleanupB()

	hub.PublishToMany([]string{"technician:t1", "shop:s1"}, Event{Name: "n"})

	assert.Equal(t, "technician:t1", (<-a).Topic)
	assert.Equal(t, "shop:s1", (<-b).Topic)
}

func TestHub_FullSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub()
	_, cleanup := hub.Subscribe("shop:s1")
	defer cleanup()

	for i := 0; i < hub.buffer*3; i++ {
		hub.Publish("shop:s1", Event{Name: "n"})
	}
	assert.Equal(t, 1, hub.SubscriberCount("shop:s1"))
}

func TestHub_CleanupRemovesSubscriber(t *testing.T) {
	hub := NewHub()
	ch, cleanup := hub.Subscribe("shop:s1")
	require.Equal(t, 1, hub.SubscriberCount("shop:s1"))

	cleanup()
	cleanup()

	assert.Equal(t, 0, hub.SubscriberCount("shop:s1"))
	_, open := <-ch
	assert.False(t, open)
}

func TestWriteEvent(t *testing.T) {
	var buf bytes.Buffer
	err := WriteEvent(&buf, Event{Name: "time_entry.changed", Data: map[string]int{"n": 1}})
	require.NoError(t, err)
	assert.Equal(t, "event: time_entry.changed\ndata: {\"n\":1}\n\n", buf.String())
}
