package mqtt

import (
	"context"
	"testing"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/workorder-org/workorder-go/core"
	"github.com/workorder-org/workorder-go/transport"
)

func TestNew_Defaults(t *testing.T) {
	f := New(Config{
		Broker: "tcp://localhost:1883",
	})

	if f.cfg.TopicPrefix != DefaultTopicPrefix {
		t.Errorf("expected default topic prefix %q, got %q", DefaultTopicPrefix, f.cfg.TopicPrefix)
	}
	if f.log == nil {
		t.Error("expected logger to be set")
	}
}

func TestNew_CustomConfig(t *testing.T) {
	f := New(Config{
		Broker:      "tcp://broker.example.com:1883",
		Username:    "user",
		Password:    "pass",
		TopicPrefix: "custom",
	})

	if f.cfg.TopicPrefix != "custom" {
		t.Errorf("expected topic prefix %q, got %q", "custom", f.cfg.TopicPrefix)
	}
}

func TestStart_MissingBroker(t *testing.T) {
	f := New(Config{})
	err := f.Start(context.Background())
	if err == nil {
		t.Fatal("expected error with empty broker")
	}
}

func TestSubscribe_RequiresRoomID(t *testing.T) {
	f := New(Config{Broker: "tcp://localhost:1883"})
	if err := f.Subscribe(""); err == nil {
		t.Fatal("expected error with empty room id")
	}
}

func TestSubscribe_RememberedWhileDisconnected(t *testing.T) {
	f := New(Config{Broker: "tcp://localhost:1883"})
	if err := f.Subscribe("r1"); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	if _, ok := f.rooms["r1"]; !ok {
		t.Error("subscription must be remembered for reconnect")
	}
	if err := f.Unsubscribe("r1"); err != nil {
		t.Fatalf("unsubscribe failed: %v", err)
	}
	if _, ok := f.rooms["r1"]; ok {
		t.Error("unsubscribe must forget the room")
	}
}

func TestRoomFromTopic(t *testing.T) {
	f := New(Config{Broker: "tcp://localhost:1883"})

	tests := []struct {
		topic string
		want  core.RoomID
	}{
		{"workorder/rooms/r1", "r1"},
		{"workorder/rooms/", ""},
		{"workorder/rooms/r1/extra", ""},
		{"other/rooms/r1", ""},
		{"workorder/users/u1", ""},
	}
	for _, tt := range tests {
		if got := f.roomFromTopic(tt.topic); got != tt.want {
			t.Errorf("roomFromTopic(%q) = %q, want %q", tt.topic, got, tt.want)
		}
	}
}

// fakeMessage implements the subset of paho.Message the handler reads.
type fakeMessage struct {
	paho.Message
	topic   string
	payload []byte
}

func (m fakeMessage) Topic() string   { return m.topic }
func (m fakeMessage) Payload() []byte { return m.payload }

func TestHandleMessage_DecodesEvent(t *testing.T) {
	f := New(Config{Broker: "tcp://localhost:1883"})

	var got []transport.PushEvent
	f.SetPushHandler(func(ev transport.PushEvent) {
		got = append(got, ev)
	})

	f.handleMessage(nil, fakeMessage{
		topic:   "workorder/rooms/r1",
		payload: []byte(`{"_id":"m1","text":"hi","sender":"u1"}`),
	})

	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	ev := got[0]
	if ev.RoomID != "r1" {
		t.Errorf("expected room r1, got %q", ev.RoomID)
	}
	if ev.Message.ID != "m1" || ev.Message.Sender.ID() != "u1" {
		t.Errorf("unexpected message: %+v", ev.Message)
	}
	if ev.Message.RoomID != "r1" {
		t.Errorf("expected room id backfilled from topic, got %q", ev.Message.RoomID)
	}
}

func TestHandleMessage_IgnoresGarbage(t *testing.T) {
	f := New(Config{Broker: "tcp://localhost:1883"})

	calls := 0
	f.SetPushHandler(func(transport.PushEvent) { calls++ })

	f.handleMessage(nil, fakeMessage{topic: "workorder/rooms/r1", payload: []byte("not json")})
	f.handleMessage(nil, fakeMessage{topic: "unrelated", payload: []byte(`{"_id":"m1"}`)})

	if calls != 0 {
		t.Errorf("expected no events for undecodable input, got %d", calls)
	}
}

func TestHandleMessage_NoHandlerIsSafe(t *testing.T) {
	f := New(Config{Broker: "tcp://localhost:1883"})
	// Must not panic.
	f.handleMessage(nil, fakeMessage{topic: "workorder/rooms/r1", payload: []byte(`{}`)})
}
