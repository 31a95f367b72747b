package user

import (
	"net/http"

	"UniChat/global/config"
	midsec "UniChat/middleware/security"
	usersvc "UniChat/module/user/service"
	errs "UniChat/tools/errs"
	jwtlib "UniChat/tools/security"

	"github.com/gin-gonic/gin"
)

type loginReq struct {
	Email string `json:"email" binding:"required"`
	Name  string `json:"name"`
}

func HandlerLogin(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrArgs)
		return
	}

	opts := jwtlib.DefaultOptions(config.GetJwtSecret())
	opts.TTL = config.Global.JwtTTL
	acct, token, exp, err := usersvc.Login(opts, req.Email, req.Name)
	if err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrArgs.WithDetail(err.Error()))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"expireAt": exp.UnixMilli(),
		"user":     acct,
	})
}

// HandlerCheck echoes the identity the auth middleware resolved; the
// front-end uses it to validate a stored token.
func HandlerCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"id":    c.GetString(midsec.CtxUserIDKey),
		"name":  c.GetString(midsec.CtxNameKey),
		"email": c.GetString(midsec.CtxEmailKey),
	})
}
