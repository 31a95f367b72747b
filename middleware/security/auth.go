package security

import (
	"errors"
	"net/http"
	"strings"

	"UniChat/global/config"
	errs "UniChat/tools/errs"
	jwtlib "UniChat/tools/security"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
)

// context keys; downstream handlers read the authenticated identity with these
const (
	CtxUserIDKey = "authUserId"
	CtxNameKey   = "authUserName"
	CtxEmailKey  = "authUserEmail"
)

type Options struct {
	HeaderToken               string // defaults to "authorization"
	EnableAuthorizationBearer bool   // accept "Authorization: Bearer xxx", default true
	AllowQueryToken           bool   // accept ?token= (websocket handshakes), default false
}

func DefaultOptions() *Options {
	return &Options{
		HeaderToken:               "authorization",
		EnableAuthorizationBearer: true,
	}
}

// ExtractToken pulls the bearer credential from header or query per opts.
// Header lookup is case-insensitive, so the configured header and the
// Authorization header are the same read; the Bearer prefix is stripped
// here, a bare token passes through unchanged.
func ExtractToken(c *gin.Context, opts *Options) string {
	token := strings.TrimSpace(c.GetHeader(opts.HeaderToken))
	if opts.EnableAuthorizationBearer {
		if strings.HasPrefix(strings.ToLower(token), "bearer ") {
			token = strings.TrimSpace(token[len("bearer "):])
		}
	}
	if token == "" && opts.AllowQueryToken {
		token = strings.TrimSpace(c.Query("token"))
	}
	return token
}

func Middleware(opts *Options) gin.HandlerFunc {
	if opts == nil {
		opts = DefaultOptions()
	}
	return func(c *gin.Context) {
		token := ExtractToken(c, opts)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrTokenInvalid)
			return
		}

		claims, err := jwtlib.Verify(jwtlib.DefaultOptions(config.GetJwtSecret()), token, "")
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrTokenExpired)
			} else {
				c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrTokenInvalid)
			}
			return
		}

		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxNameKey, claims.Name)
		c.Set(CtxEmailKey, claims.Email)
		c.Next()
	}
}
