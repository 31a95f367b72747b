package chat

import (
	"context"
	"time"

	"UniChat/logger"
	"UniChat/module/chat/history"
	"UniChat/service/storage"
	errs "UniChat/tools/errs"
	"UniChat/tools/safe"
)

const (
	dedupTTL        = 10 * time.Minute
	collaboratorTTO = 2 * time.Second // timeout for mirror/history side calls
)

// Router dispatches inbound events. Chat delivery is at-most-once,
// best-effort: an offline recipient means a silent drop, and a duplicate
// clientId for the same send never reaches the recipient twice.
type Router struct {
	reg     *Registry
	monitor *Monitor
	idem    storage.IdemStore
	hist    history.Store           // nil => live path only
	mirror  *storage.PresenceMirror // nil => no redis mirror
	evict   func(*Session, string)  // shared disconnect path, supplied by the server
	clock   func() time.Time
}

func NewRouter(reg *Registry, monitor *Monitor, idem storage.IdemStore,
	hist history.Store, mirror *storage.PresenceMirror,
	evict func(*Session, string), clock func() time.Time) *Router {
	if clock == nil {
		clock = time.Now
	}
	if idem == nil {
		idem = storage.NewMemIdem(dedupTTL)
	}
	return &Router{
		reg:     reg,
		monitor: monitor,
		idem:    idem,
		hist:    hist,
		mirror:  mirror,
		evict:   evict,
		clock:   clock,
	}
}

// Route handles one inbound event from sess. Returned errors are local to
// that connection: a *CodeError with BadFrameError is reported back on the
// same socket, everything else is logged only.
func (rt *Router) Route(sess *Session, ev *InboundEvent) error {
	sess.BindClientID(ev.ClientID)

	switch ev.Type {
	case EventHeartbeat:
		rt.monitor.Refresh(sess)
		rt.renewMirror(sess.UserID)
		return nil

	case EventOffline:
		rt.evict(sess, "client offline")
		return nil

	case EventChat:
		err := rt.routeChat(sess, ev)
		if err != nil && errs.ErrRecipientOffline.Is(err) {
			// at-most-once: no queueing, no retry, sender not notified
			logger.Infof("[Router] recipient offline, dropped from=%s to=%s", sess.UserID, ev.To)
			return nil
		}
		return err

	case EventError:
		logger.Warnf("[Router] client error event user=%s msg=%q", sess.UserID, ev.Message)
		return nil

	default:
		return errs.ErrBadFrame.WrapMsg("unroutable type", "type", ev.Type)
	}
}

func (rt *Router) routeChat(sess *Session, ev *InboundEvent) error {
	if ev.To == "" || ev.Message == "" {
		return errs.ErrBadFrame.WrapMsg("chat event missing to/message")
	}

	// one delivery per (sender, recipient, clientId) send attempt
	if ev.ClientID != "" {
		key := sess.UserID + "|" + ev.To + "|" + ev.ClientID
		if seen, err := rt.idem.SeenOnce(key, dedupTTL); err == nil && seen {
			logger.Debug("[Router] duplicate send suppressed")
			return nil
		}
	}

	ts := rt.clock().UnixMilli()
	rt.appendHistory(sess.UserID, ev.To, ev.Message, ts)

	// no self-echo even when the client addresses itself
	if ev.To == sess.UserID {
		return nil
	}

	target, ok := rt.reg.Lookup(ev.To)
	if !ok {
		return errs.ErrRecipientOffline.WrapMsg("no live session", "to", ev.To)
	}

	// sender identity comes from the authenticated session, not the frame
	payload, err := BuildChatPush(sess.UserID, ev.Message, "", "", ts)
	if err != nil {
		return errs.ErrInternalServer.WrapMsg("marshal chat push", "err", err)
	}
	if err := target.TrySend(payload); err != nil {
		// slow or dead peer: evict the recipient, never stall the router
		logger.Warnf("[Router] deliver failed to=%s err=%v", ev.To, err)
		rt.evict(target, "delivery backlog")
	}
	return nil
}

func (rt *Router) renewMirror(user string) {
	if rt.mirror == nil {
		return
	}
	safe.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), collaboratorTTO)
		defer cancel()
		if err := rt.mirror.Online(ctx, user); err != nil {
			logger.Debug("[Router] presence mirror renew failed: " + err.Error())
		}
	})
}

func (rt *Router) appendHistory(from, to, text string, ts int64) {
	if rt.hist == nil {
		return
	}
	safe.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), collaboratorTTO)
		defer cancel()
		msg := history.Message{From: from, To: to, Text: text, Ts: ts}
		if err := rt.hist.Append(ctx, msg); err != nil {
			logger.Warnf("[Router] history append failed from=%s to=%s err=%v", from, to, err)
		}
	})
}
