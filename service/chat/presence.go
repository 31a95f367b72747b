package chat

import (
	"UniChat/logger"
)

// Broadcaster pushes the recomputed presence set to every live session
// after each membership change. The set is rebuilt from a registry
// snapshot each time, never patched incrementally.
type Broadcaster struct {
	reg    *Registry
	onFail func(*Session) // a session that cannot take the push gets its own disconnect handling
}

func NewBroadcaster(reg *Registry, onFail func(*Session)) *Broadcaster {
	return &Broadcaster{reg: reg, onFail: onFail}
}

// Broadcast sends a kind-tagged presence push to all live connections.
// Delivery is fire-and-forget per connection; one slow peer never blocks
// the rest.
func (b *Broadcaster) Broadcast(kind EventType) {
	users := b.reg.Snapshot()
	payload, err := BuildPresencePush(kind, users)
	if err != nil {
		logger.Errorf("[Broadcaster] marshal presence push: %v", err)
		return
	}

	for _, sess := range b.reg.Sessions() {
		if err := sess.TrySend(payload); err != nil {
			logger.Warnf("[Broadcaster] push failed user=%s session=%s err=%v",
				sess.UserID, sess.ID, err)
			if b.onFail != nil {
				b.onFail(sess)
			}
		}
	}
}
