package chat

import (
	"encoding/json"
	"testing"
)

func TestParseEvent(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"type":"chat","clientId":"c1","from":"Alice","to":"u2","message":"hi"}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ev.Type != EventChat || ev.To != "u2" || ev.Message != "hi" || ev.ClientID != "c1" {
		t.Fatalf("wrong event: %+v", ev)
	}

	if _, err := ParseEvent([]byte(`{"type":"heartbeat","clientId":"c1"}`)); err != nil {
		t.Fatalf("heartbeat should parse: %v", err)
	}
}

func TestParseEventRejectsGarbage(t *testing.T) {
	for _, raw := range []string{
		`not json at all`,
		`{"type":"telepathy"}`,
		`{}`,
	} {
		if _, err := ParseEvent([]byte(raw)); err == nil {
			t.Fatalf("expected parse failure for %q", raw)
		}
	}
}

func TestPresencePushShape(t *testing.T) {
	b, err := BuildPresencePush(EventHeartbeat, []PresenceEntry{{ID: "u1", Name: "A", Email: "a@x.io"}})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["type"] != "heartbeat" {
		t.Fatalf("wrong type tag: %v", m["type"])
	}
	users, ok := m["users"].([]any)
	if !ok || len(users) != 1 {
		t.Fatalf("wrong users field: %v", m["users"])
	}

	// empty set must marshal as [], not null
	b, _ = BuildPresencePush(EventOffline, nil)
	if string(b) != `{"type":"offline","users":[]}` {
		t.Fatalf("empty push wrong: %s", b)
	}
}

func TestChatPushShape(t *testing.T) {
	b, err := BuildChatPush("u1", "hello", "", "", 123)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	if m["type"] != "chat" || m["sender"] != "u1" || m["text"] != "hello" || m["timestamp"] != float64(123) {
		t.Fatalf("wrong chat push: %s", b)
	}
	if _, present := m["attachment"]; present {
		t.Fatal("empty attachment should be omitted")
	}
}
