package middlewares

const (
	// gin context keys set by RequireAuth
	ctxUserKey  = "auth.user"
	ctxTokenKey = "auth.token"

	// set by RequestID
	CtxRequestID = "request_id"
)
