package subscribe

import (
	"context"
	"testing"
	"time"
)

func TestHubDeliversOnlySubscribedTypes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub(ctx)

	sub := h.Subscribe(Road)
	h.Publish(Update{Type: Building, ChunkID: 1, Tick: 1})
	h.Publish(Update{Type: Road, ChunkID: 2, Tick: 2})

	select {
	case u := <-sub.Updates:
		if u.Type != Road || u.ChunkID != 2 {
			t.Fatalf("expected road update for chunk 2, got %+v", u)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for update")
	}

	select {
	case u := <-sub.Updates:
		t.Fatalf("expected no further update, got %+v", u)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubSubscribeAllTypesWhenNoFilterGiven(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub(ctx)

	sub := h.Subscribe()
	h.Publish(Update{Type: Terrain, ChunkID: 3, Tick: 5})

	select {
	case u := <-sub.Updates:
		if u.Type != Terrain {
			t.Fatalf("expected terrain update, got %+v", u)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for update")
	}
}

func TestHubPublishNeverBlocksWhenInboxFull(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub(ctx)

	done := make(chan struct{})
	go func() {
		for i := 0; i < inboxSize*2; i++ {
			h.Publish(Update{Type: Road, ChunkID: int64(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Publish blocked under backpressure")
	}
}

func TestHubUnsubscribeStopsDelivery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := NewHub(ctx)

	sub := h.Subscribe(Building)
	h.Unsubscribe(sub)
	h.Publish(Update{Type: Building, ChunkID: 9})

	select {
	case u, ok := <-sub.Updates:
		if ok {
			t.Fatalf("expected no delivery after unsubscribe, got %+v", u)
		}
	case <-time.After(100 * time.Millisecond):
	}
}
