package ws

import (
	"encoding/json"
	"testing"

	"voicehub/internal/domain"
)

func TestPublishReachesRoomSubscribersOnly(t *testing.T) {
	h := NewHub()
	a := NewClient(1, "room-a", nil, h)
	b := NewClient(2, "room-b", nil, h)
	h.Subscribe("room-a", a)
	h.Subscribe("room-b", b)

	h.Publish(domain.RoomEvent{RoomID: "room-a", Type: domain.RoomEventSeatJoined, Position: 3, UserID: 1})

	select {
	case payload := <-a.Send:
		var ev domain.RoomEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			t.Fatal(err)
		}
		if ev.Type != domain.RoomEventSeatJoined || ev.Position != 3 {
			t.Fatalf("bad event: %+v", ev)
		}
	default:
		t.Fatal("subscriber got nothing")
	}

	select {
	case <-b.Send:
		t.Fatal("event leaked to another room")
	default:
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	h := NewHub()
	c := NewClient(1, "room-a", nil, h)
	h.Subscribe("room-a", c)
	if h.Subscribers("room-a") != 1 {
		t.Fatal("subscribe did not register")
	}

	h.Unsubscribe("room-a", c)
	if h.Subscribers("room-a") != 0 {
		t.Fatal("unsubscribe did not remove")
	}

	h.Publish(domain.RoomEvent{RoomID: "room-a", Type: domain.RoomEventSeatLeft})
	select {
	case <-c.Send:
		t.Fatal("event delivered after unsubscribe")
	default:
	}
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	h := NewHub()
	c := NewClient(1, "room-a", nil, h)
	h.Subscribe("room-a", c)

	// Fill the send buffer; further publishes must drop, not block
	for i := 0; i < cap(c.Send)+10; i++ {
		h.Publish(domain.RoomEvent{RoomID: "room-a", Type: domain.RoomEventSeatMuted, Position: i})
	}

	if len(c.Send) != cap(c.Send) {
		t.Fatalf("buffer holds %d of %d", len(c.Send), cap(c.Send))
	}
}
