package errs

// ---- error codes ----
const (
	ServerInternalError = 500 // server internal error

	ArgsError = 1001 // invalid argument

	TokenInvalidError = 1501 // malformed/forged token
	TokenExpiredError = 1502 // expired token

	BadFrameError         = 1601 // malformed inbound event
	RecipientOfflineError = 1602 // recipient has no live session
	SessionReplacedError  = 1603 // session superseded by a newer connection
	SessionTimeoutError   = 1604 // heartbeat deadline elapsed
)

var (
	ErrInternalServer = NewCodeError(ServerInternalError, "server internal error")
	ErrArgs           = NewCodeError(ArgsError, "invalid argument")

	ErrTokenInvalid = NewCodeError(TokenInvalidError, "token invalid")
	ErrTokenExpired = NewCodeError(TokenExpiredError, "token expired")

	ErrBadFrame         = NewCodeError(BadFrameError, "malformed event")
	ErrRecipientOffline = NewCodeError(RecipientOfflineError, "recipient offline")
	ErrSessionReplaced  = NewCodeError(SessionReplacedError, "session replaced by newer connection")
	ErrSessionTimeout   = NewCodeError(SessionTimeoutError, "heartbeat timeout")
)
