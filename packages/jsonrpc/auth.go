package jsonrpc

import (
	"encoding/base64"
	"net/http"
)

// AuthHeader is the header Kanboard reads the API token from.
const AuthHeader = "X-API-Auth"

// authUser is the fixed user name Kanboard expects for application API access.
const authUser = "jsonrpc"

// Authenticator attaches the X-API-Auth header to every request of a session.
type Authenticator struct {
	value string
}

// NewAuthenticator derives the header value base64("jsonrpc:" + token).
func NewAuthenticator(token string) *Authenticator {
	return &Authenticator{
		value: base64.StdEncoding.EncodeToString([]byte(authUser + ":" + token)),
	}
}

// HeaderValue returns the encoded X-API-Auth value.
func (a *Authenticator) HeaderValue() string {
	return a.value
}

// Configure implements http.Configurator from the kbhelper http package.
func (a *Authenticator) Configure(req *http.Request) {
	req.Header.Set(AuthHeader, a.value)
}
