package http

const (
	// HeaderAuthToken carries the static token checked by the auth interceptor.
	HeaderAuthToken = "MICROSCOPIUM-AUTH-TOKEN"
	// HeaderScreenContext optionally pins a request to a screen for access logs.
	HeaderScreenContext = "MICROSCOPIUM-SCREEN"
)
