package chat

import (
	"net/http"
	"time"

	"UniChat/logger"
	midsec "UniChat/middleware/security"
	"UniChat/module/chat/history"
	errs "UniChat/tools/errs"

	"github.com/gin-gonic/gin"
)

// REST side of the messaging service: the durable history path. The live
// websocket path stays at-most-once; clients reload conversations here.

type sendReq struct {
	Text       string `json:"text" binding:"required"`
	ReceiverID string `json:"receiverId" binding:"required"`
	FileName   string `json:"fileName"`
	Attachment string `json:"attachment"`
}

func HandlerSend(store history.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sendReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, errs.ErrArgs)
			return
		}
		from := c.GetString(midsec.CtxUserIDKey)

		msg := history.Message{
			From:       from,
			To:         req.ReceiverID,
			Text:       req.Text,
			Attachment: req.Attachment,
			FileName:   req.FileName,
			Ts:         time.Now().UnixMilli(),
		}
		if err := store.Append(c.Request.Context(), msg); err != nil {
			logger.Errorf("[HandlerSend] append failed from=%s to=%s err=%v", from, req.ReceiverID, err)
			c.JSON(http.StatusInternalServerError, errs.ErrInternalServer)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "timestamp": msg.Ts})
	}
}

func HandlerMessages(store history.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		with := c.Query("with")
		if with == "" {
			c.JSON(http.StatusBadRequest, errs.ErrArgs.WithDetail("missing with"))
			return
		}
		me := c.GetString(midsec.CtxUserIDKey)

		msgs, err := store.Query(c.Request.Context(), me, with)
		if err != nil {
			logger.Errorf("[HandlerMessages] query failed me=%s with=%s err=%v", me, with, err)
			c.JSON(http.StatusInternalServerError, errs.ErrInternalServer)
			return
		}
		if msgs == nil {
			msgs = []history.Message{}
		}
		c.JSON(http.StatusOK, msgs)
	}
}
