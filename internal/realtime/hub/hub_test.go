package hub

import "testing"

func TestBroadcastOnlyReachesJoinedOwner(t *testing.T) {
	h := New()
	owner := &Client{ID: "c1", UserID: "user-1", Send: make(chan []byte, 1)}
	other := &Client{ID: "c2", UserID: "user-2", Send: make(chan []byte, 1)}
	h.Register(owner)
	h.Register(other)
	h.SetJoined(owner, true)
	h.SetJoined(other, true)

	h.Broadcast([]byte(`{"type":"delivery_payment_confirmed"}`), "user-1")

	select {
	case <-owner.Send:
	default:
		t.Fatal("owner did not receive the event")
	}
	select {
	case <-other.Send:
		t.Fatal("event leaked to another user's client")
	default:
	}
}

func TestBroadcastSkipsUnjoinedClients(t *testing.T) {
	h := New()
	client := &Client{ID: "c1", UserID: "user-1", Send: make(chan []byte, 1)}
	h.Register(client)

	h.Broadcast([]byte(`{}`), "user-1")
	select {
	case <-client.Send:
		t.Fatal("client received events before joining its room")
	default:
	}
}

func TestParseJoin(t *testing.T) {
	if _, ok := ParseJoin([]byte(`{"action":"join_user_room"}`)); !ok {
		t.Fatal("join_user_room must parse")
	}
	if _, ok := ParseJoin([]byte(`{"action":"leave_user_room"}`)); !ok {
		t.Fatal("leave_user_room must parse")
	}
	if _, ok := ParseJoin([]byte(`{"action":"ping"}`)); ok {
		t.Fatal("unknown actions must not parse as joins")
	}
	if _, ok := ParseJoin([]byte(`not json`)); ok {
		t.Fatal("bad payloads must not parse")
	}
}

func TestUnregisterClosesSend(t *testing.T) {
	h := New()
	client := &Client{ID: "c1", UserID: "user-1", Send: make(chan []byte, 1)}
	h.Register(client)
	h.Unregister(client)
	if _, open := <-client.Send; open {
		t.Fatal("send channel must be closed on unregister")
	}
}
