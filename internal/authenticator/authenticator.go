// Package authenticator declares what the router needs from an auth provider.
package authenticator

import "net/http"

type Authenticator interface {
	AuthenticateUser(h http.Handler) http.Handler
	SetAuthCookie(response http.ResponseWriter, tokenString string)
}
