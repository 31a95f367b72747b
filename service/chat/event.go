package chat

import (
	"encoding/json"
	"fmt"

	errs "UniChat/tools/errs"
)

// ===== wire protocol =====
//
// One JSON event per websocket frame. Inbound kinds: heartbeat / offline /
// chat / error. Outbound: presence pushes (heartbeat|offline tagged), chat
// deliveries and error notices.

type EventType string

const (
	EventHeartbeat EventType = "heartbeat"
	EventOffline   EventType = "offline"
	EventChat      EventType = "chat"
	EventError     EventType = "error"
)

// InboundEvent is a single client frame.
type InboundEvent struct {
	Type     EventType `json:"type"`
	ClientID string    `json:"clientId"`
	From     string    `json:"from,omitempty"`
	To       string    `json:"to,omitempty"`
	Message  string    `json:"message,omitempty"`
}

// ParseEvent decodes and validates one inbound frame.
func ParseEvent(raw []byte) (*InboundEvent, error) {
	ev := &InboundEvent{}
	if err := json.Unmarshal(raw, ev); err != nil {
		return nil, errs.ErrBadFrame.WrapMsg("unmarshal", "err", err)
	}
	switch ev.Type {
	case EventHeartbeat, EventOffline, EventChat, EventError:
		return ev, nil
	default:
		return nil, errs.ErrBadFrame.WrapMsg(fmt.Sprintf("unknown type %q", ev.Type))
	}
}

// PresenceEntry is one online user in a presence push.
type PresenceEntry struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type presencePush struct {
	Type  EventType       `json:"type"`
	Users []PresenceEntry `json:"users"`
}

type chatPush struct {
	Type       EventType `json:"type"`
	Sender     string    `json:"sender"`
	Text       string    `json:"text"`
	Attachment string    `json:"attachment,omitempty"`
	FileName   string    `json:"fileName,omitempty"`
	Timestamp  int64     `json:"timestamp"`
}

type errorPush struct {
	Type    EventType `json:"type"`
	Message string    `json:"message"`
}

// BuildPresencePush renders the full online set, tagged heartbeat on
// membership growth/refresh and offline on departures.
func BuildPresencePush(kind EventType, users []PresenceEntry) ([]byte, error) {
	if users == nil {
		users = []PresenceEntry{} // always push an array, never null
	}
	return json.Marshal(presencePush{Type: kind, Users: users})
}

func BuildChatPush(sender, text, attachment, fileName string, ts int64) ([]byte, error) {
	return json.Marshal(chatPush{
		Type:       EventChat,
		Sender:     sender,
		Text:       text,
		Attachment: attachment,
		FileName:   fileName,
		Timestamp:  ts,
	})
}

func BuildErrorPush(msg string) []byte {
	b, _ := json.Marshal(errorPush{Type: EventError, Message: msg})
	return b
}
