package events

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubFanOut(t *testing.T) {
	h := NewHub(4)
	a, cancelA := h.Subscribe()
	defer cancelA()
	b, cancelB := h.Subscribe()
	defer cancelB()

	h.Publish(Event{Type: TypeCountdown, Data: "00:01:30:00"})

	for _, ch := range []<-chan Event{a, b} {
		ev := <-ch
		assert.Equal(t, TypeCountdown, ev.Type)
		assert.Equal(t, "00:01:30:00", ev.Data)
		assert.False(t, ev.At.IsZero())
	}
}

func TestHubReplaysLastPerType(t *testing.T) {
	h := NewHub(4)
	h.Publish(Event{Type: TypeTicker, Data: 1})
	h.Publish(Event{Type: TypeTicker, Data: 2})

	ch, cancel := h.Subscribe()
	defer cancel()

	ev := <-ch
	assert.Equal(t, 2, ev.Data)
	last, ok := h.Last(TypeTicker)
	require.True(t, ok)
	assert.Equal(t, 2, last.Data)
}

func TestHubDropsForSlowSubscriber(t *testing.T) {
	h := NewHub(1)
	ch, cancel := h.Subscribe()

	h.Publish(Event{Type: TypeReload, Data: 1})
	h.Publish(Event{Type: TypeReload, Data: 2})

	ev := <-ch
	assert.Equal(t, 1, ev.Data)

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, h.Subscribers())
}

func TestHubConcurrentSubscribeAndPublish(t *testing.T) {
	h := NewHub(2)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 2000; i++ {
			h.Publish(Event{Type: fmt.Sprint(i % 50), Data: i})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 2000; i++ {
			_, cancel := h.Subscribe()
			cancel()
		}
	}()
	wg.Wait()

	ch, cancel := h.Subscribe()
	defer cancel()
	assert.Len(t, ch, 50)
	assert.Equal(t, 1, h.Subscribers())
}
