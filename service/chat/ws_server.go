package chat

import (
	"net"
	"net/http"

	"UniChat/logger"
	errs "UniChat/tools/errs"
	"UniChat/tools/ids"
	jwtlib "UniChat/tools/security"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleWS is the connection gateway: authenticate, upgrade, register,
// then run the per-connection receive loop. Every exit path funnels
// through Evict so the session is unbound and its handle released no
// matter how the loop ends.
func (s *Server) HandleWS(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		if authz := c.GetHeader("Authorization"); len(authz) > 7 && authz[:7] == "Bearer " {
			token = authz[7:]
		}
	}
	claims, err := jwtlib.Verify(jwtlib.DefaultOptions(s.conf.JwtSecret), token, "")
	if err != nil {
		// refused before upgrade: no session is ever created
		logger.Infof("[HandleWS] auth rejected err=%v", err)
		c.JSON(http.StatusUnauthorized, errs.ErrTokenInvalid)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[HandleWS] upgrade websocket error: %v", err)
		return
	}

	sess := s.reg.NewSession(ids.GenerateString(), claims.UserID, claims.Name, claims.Email, ws)

	if evicted := s.reg.Register(sess); evicted != nil {
		// same identity reconnected: close the superseded handle eagerly
		logger.Infof("[HandleWS] replacing session user=%s old=%s new=%s",
			sess.UserID, evicted.ID, sess.ID)
		evicted.Close(websocket.CloseGoingAway, "replaced by newer connection")
	}

	go sess.writeLoop()
	s.monitor.Refresh(sess)
	s.mirrorOnline(sess.UserID)
	s.broadcaster.Broadcast(EventHeartbeat)
	logger.Infof("[HandleWS] session open user=%s session=%s remote=%v",
		sess.UserID, sess.ID, sess.Remote)

	s.readLoop(sess)
	s.Evict(sess, "peer disconnected")
}

// readLoop only reads; all writes belong to the session writer.
func (s *Server) readLoop(sess *Session) {
	for {
		mt, data, rerr := sess.Conn.ReadMessage()
		if rerr != nil {
			if websocket.IsCloseError(rerr,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[WS] peer closed user=%s session=%s", sess.UserID, sess.ID)
			} else if ne, ok := rerr.(net.Error); ok && ne.Timeout() {
				logger.Infof("[WS] read timeout user=%s err=%v", sess.UserID, rerr)
			} else {
				logger.Infof("[WS] read err user=%s err=%v", sess.UserID, rerr)
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		ev, perr := ParseEvent(data)
		if perr != nil {
			// protocol error: report on the same socket, keep it open
			sample := data
			if len(sample) > 256 {
				sample = sample[:256]
			}
			logger.Infof("[WS] bad frame user=%s err=%v sample=%q", sess.UserID, perr, sample)
			_ = sess.TrySend(BuildErrorPush(errs.ErrBadFrame.Msg))
			continue
		}

		if err := s.router.Route(sess, ev); err != nil {
			var ce *errs.CodeError
			if errs.As(err, &ce) && ce.Code == errs.BadFrameError {
				_ = sess.TrySend(BuildErrorPush(ce.Msg))
				continue
			}
			logger.Warnf("[WS] route err user=%s type=%s err=%v", sess.UserID, ev.Type, err)
		}
	}
}
