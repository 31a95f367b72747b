package chat

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"UniChat/module/chat/history"
	"UniChat/service/storage"
)

type routerFixture struct {
	reg    *Registry
	router *Router
	hist   *history.MemStore
	evicts []*Session
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	fx := &routerFixture{
		reg:  NewRegistry(RegistryConf{}),
		hist: history.NewMemStore(),
	}
	monitor := NewMonitor(fx.reg, MonitorConf{}, nil)
	fx.router = NewRouter(fx.reg, monitor, storage.NewMemIdem(time.Minute), fx.hist, nil,
		func(s *Session, reason string) {
			fx.reg.Release(s)
			s.Close(1000, reason)
			fx.evicts = append(fx.evicts, s)
		}, nil)
	return fx
}

func (fx *routerFixture) connect(t *testing.T, user string) *Session {
	t.Helper()
	s := testSession(user)
	if evicted := fx.reg.Register(s); evicted != nil {
		t.Fatalf("unexpected eviction for %s", user)
	}
	return s
}

// recvChat pops one queued frame from the session and decodes it as a chat push.
func recvChat(t *testing.T, s *Session) chatPush {
	t.Helper()
	select {
	case payload := <-s.send:
		var p chatPush
		if err := json.Unmarshal(payload, &p); err != nil {
			t.Fatalf("bad chat push: %v", err)
		}
		return p
	case <-time.After(time.Second):
		t.Fatal("no delivery within 1s")
		return chatPush{}
	}
}

func assertNoDelivery(t *testing.T, s *Session) {
	t.Helper()
	select {
	case payload := <-s.send:
		t.Fatalf("unexpected delivery: %s", payload)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestChatDelivery(t *testing.T) {
	fx := newRouterFixture(t)
	a := fx.connect(t, "a")
	b := fx.connect(t, "b")

	ev := &InboundEvent{Type: EventChat, ClientID: "c1", To: "b", Message: "hi"}
	if err := fx.router.Route(a, ev); err != nil {
		t.Fatalf("route: %v", err)
	}

	got := recvChat(t, b)
	if got.Type != EventChat || got.Sender != "a" || got.Text != "hi" {
		t.Fatalf("wrong delivery: %+v", got)
	}
	if got.Timestamp == 0 {
		t.Fatal("delivery missing timestamp")
	}
	assertNoDelivery(t, a) // sender gets nothing back
}

func TestDuplicateClientIDDeliveredOnce(t *testing.T) {
	fx := newRouterFixture(t)
	a := fx.connect(t, "a")
	b := fx.connect(t, "b")

	ev := &InboundEvent{Type: EventChat, ClientID: "c1", To: "b", Message: "hi"}
	if err := fx.router.Route(a, ev); err != nil {
		t.Fatalf("first route: %v", err)
	}
	if err := fx.router.Route(a, ev); err != nil {
		t.Fatalf("second route: %v", err)
	}

	recvChat(t, b)
	assertNoDelivery(t, b)
}

func TestOfflineRecipientDroppedSilently(t *testing.T) {
	fx := newRouterFixture(t)
	a := fx.connect(t, "a")

	ev := &InboundEvent{Type: EventChat, ClientID: "c1", To: "ghost", Message: "hello?"}
	if err := fx.router.Route(a, ev); err != nil {
		t.Fatalf("drop must not surface an error: %v", err)
	}
	assertNoDelivery(t, a) // no error raised to the sender either
}

func TestNoSelfEcho(t *testing.T) {
	fx := newRouterFixture(t)
	a := fx.connect(t, "a")

	ev := &InboundEvent{Type: EventChat, ClientID: "c1", To: "a", Message: "me"}
	if err := fx.router.Route(a, ev); err != nil {
		t.Fatalf("route: %v", err)
	}
	assertNoDelivery(t, a)
}

func TestHeartbeatRefreshesSession(t *testing.T) {
	fx := newRouterFixture(t)
	a := fx.connect(t, "a")

	before := a.LastHeartbeat()
	time.Sleep(5 * time.Millisecond)
	if err := fx.router.Route(a, &InboundEvent{Type: EventHeartbeat, ClientID: "c1"}); err != nil {
		t.Fatalf("route heartbeat: %v", err)
	}
	if !a.LastHeartbeat().After(before) {
		t.Fatal("heartbeat did not refresh lastHeartbeatAt")
	}
	if a.ClientID != "c1" {
		t.Fatalf("clientId not bound: %q", a.ClientID)
	}
}

func TestOfflineEventEvicts(t *testing.T) {
	fx := newRouterFixture(t)
	a := fx.connect(t, "a")

	if err := fx.router.Route(a, &InboundEvent{Type: EventOffline, ClientID: "c1"}); err != nil {
		t.Fatalf("route offline: %v", err)
	}
	if len(fx.evicts) != 1 || fx.evicts[0] != a {
		t.Fatalf("offline event must evict the session, got %d evictions", len(fx.evicts))
	}
	if _, ok := fx.reg.Lookup("a"); ok {
		t.Fatal("session still registered after offline event")
	}
}

func TestChatMissingFieldsIsBadFrame(t *testing.T) {
	fx := newRouterFixture(t)
	a := fx.connect(t, "a")

	if err := fx.router.Route(a, &InboundEvent{Type: EventChat, ClientID: "c1"}); err == nil {
		t.Fatal("chat without to/message should fail")
	}
}

func TestChatAppendsHistory(t *testing.T) {
	fx := newRouterFixture(t)
	a := fx.connect(t, "a")
	fx.connect(t, "b")

	ev := &InboundEvent{Type: EventChat, ClientID: "c1", To: "b", Message: "hi"}
	if err := fx.router.Route(a, ev); err != nil {
		t.Fatalf("route: %v", err)
	}

	// history append is asynchronous, poll briefly
	deadline := time.Now().Add(time.Second)
	for {
		msgs, err := fx.hist.Query(context.Background(), "a", "b")
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		if len(msgs) == 1 {
			if msgs[0].Text != "hi" || msgs[0].From != "a" || msgs[0].To != "b" {
				t.Fatalf("wrong history record: %+v", msgs[0])
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("history never recorded the message, got %d", len(msgs))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSlowRecipientIsEvicted(t *testing.T) {
	fx := newRouterFixture(t)
	a := fx.connect(t, "a")
	b := fx.connect(t, "b")

	// fill b's queue so the next delivery cannot be enqueued
	for i := 0; ; i++ {
		if err := b.TrySend([]byte("x")); err != nil {
			break
		}
		if i > 10_000 {
			t.Fatal("queue never filled")
		}
	}

	ev := &InboundEvent{Type: EventChat, ClientID: "c1", To: "b", Message: "hi"}
	if err := fx.router.Route(a, ev); err != nil {
		t.Fatalf("route must not fail on slow peer: %v", err)
	}
	if len(fx.evicts) != 1 || fx.evicts[0] != b {
		t.Fatal("slow recipient should have been evicted")
	}
}
