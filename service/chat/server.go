package chat

import (
	"context"
	"time"

	"UniChat/logger"
	"UniChat/module/chat/history"
	"UniChat/service/storage"
	"UniChat/tools/safe"

	"github.com/gorilla/websocket"
)

type ServerConf struct {
	NodeId            string
	JwtSecret         []byte
	HeartbeatInterval time.Duration
	TimeoutMultiplier int
	SweepEvery        time.Duration
	SendQueueSize     int
	Clock             func() time.Time
}

func (c *ServerConf) norm() {
	if c.NodeId == "" {
		c.NodeId = "chat_gw-1"
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
}

// Server owns the per-node session/presence core: registry, heartbeat
// monitor, presence broadcaster and message router, plus the websocket
// gateway that feeds them.
type Server struct {
	conf        ServerConf
	reg         *Registry
	monitor     *Monitor
	broadcaster *Broadcaster
	router      *Router
	mirror      *storage.PresenceMirror
}

func NewServer(conf ServerConf, hist history.Store, mirror *storage.PresenceMirror, idem storage.IdemStore) *Server {
	conf.norm()
	s := &Server{conf: conf, mirror: mirror}

	s.reg = NewRegistry(RegistryConf{SendQueueSize: conf.SendQueueSize, Clock: conf.Clock})
	s.monitor = NewMonitor(s.reg, MonitorConf{
		Interval:   conf.HeartbeatInterval,
		Multiplier: conf.TimeoutMultiplier,
		SweepEvery: conf.SweepEvery,
		Clock:      conf.Clock,
	}, func(sess *Session) { s.Evict(sess, "heartbeat timeout") })
	s.broadcaster = NewBroadcaster(s.reg, func(sess *Session) { s.Evict(sess, "presence push backlog") })
	s.router = NewRouter(s.reg, s.monitor, idem, hist, mirror,
		func(sess *Session, reason string) { s.Evict(sess, reason) }, conf.Clock)
	return s
}

func (s *Server) Registry() *Registry { return s.reg }
func (s *Server) Monitor() *Monitor   { return s.monitor }
func (s *Server) Router() *Router     { return s.router }

// Start launches the background sweep.
func (s *Server) Start() {
	s.monitor.Start()
}

// Shutdown stops the sweep and drops every live session.
func (s *Server) Shutdown() {
	s.monitor.Stop()
	s.reg.Close()
}

// Evict is the single disconnect path shared by peer close, explicit
// offline, heartbeat timeout and write backlog. Any exit route funnels
// here, so cleanup happens no matter how a connection dies.
func (s *Server) Evict(sess *Session, reason string) {
	released := s.reg.Release(sess)
	sess.Close(websocket.CloseNormalClosure, reason)
	if !released {
		// stale handle: a newer session owns the identity, leave presence alone
		return
	}
	logger.Infof("[Server] session closed user=%s session=%s reason=%s", sess.UserID, sess.ID, reason)
	s.mirrorOffline(sess.UserID)
	s.broadcaster.Broadcast(EventOffline)
}

func (s *Server) mirrorOnline(user string) {
	if s.mirror == nil {
		return
	}
	safe.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), collaboratorTTO)
		defer cancel()
		if err := s.mirror.Online(ctx, user); err != nil {
			logger.Debug("[Server] presence mirror online failed: " + err.Error())
		}
	})
}

func (s *Server) mirrorOffline(user string) {
	if s.mirror == nil {
		return
	}
	safe.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), collaboratorTTO)
		defer cancel()
		if err := s.mirror.Offline(ctx, user); err != nil {
			logger.Debug("[Server] presence mirror offline failed: " + err.Error())
		}
	})
}
