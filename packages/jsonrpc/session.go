// Package jsonrpc builds authenticated JSON-RPC 2.0 sessions against a Kanboard
// endpoint.
package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/abdul-hamid-achik/kbhelper/packages/credentials"
	khttp "github.com/abdul-hamid-achik/kbhelper/packages/http"
	"github.com/abdul-hamid-achik/kbhelper/packages/proxy"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Session sends JSON-RPC requests to a fixed endpoint with a fixed API token.
type Session struct {
	endpoint string
	client   *khttp.Client
	auth     *Authenticator
	limiter  *rate.Limiter
	logger   *zap.Logger
	nextID   func() any
}

type sessionConfig struct {
	store       credentials.Store
	proxy       *proxy.Config
	timeout     time.Duration
	validateSSL bool
	limiter     *rate.Limiter
	logger      *zap.Logger
	nextID      func() any
}

// Option configures NewSession.
type Option func(*sessionConfig)

// WithCredentialStore sets the store used to resolve the credential identifier.
func WithCredentialStore(store credentials.Store) Option {
	return func(c *sessionConfig) {
		c.store = store
	}
}

// WithProxy applies the host proxy configuration to the session.
func WithProxy(cfg *proxy.Config) Option {
	return func(c *sessionConfig) {
		c.proxy = cfg
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *sessionConfig) {
		c.timeout = d
	}
}

func WithValidateSSL(validate bool) Option {
	return func(c *sessionConfig) {
		c.validateSSL = validate
	}
}

// WithRateLimit caps the session at rps requests per second with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *sessionConfig) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *sessionConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithIDGenerator replaces the default UUID request ids.
func WithIDGenerator(next func() any) Option {
	return func(c *sessionConfig) {
		if next != nil {
			c.nextID = next
		}
	}
}

// NewSession creates a session for endpoint. When credentialID resolves in the
// configured credential store its secret is used, otherwise apiToken is.
func NewSession(ctx context.Context, endpoint, apiToken, credentialID string, opts ...Option) (*Session, error) {
	cfg := &sessionConfig{
		timeout:     khttp.DefaultTimeout,
		validateSSL: true,
		logger:      zap.NewNop(),
		nextID:      func() any { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if err := khttp.ValidateURL(endpoint); err != nil {
		return nil, err
	}

	token, fromStore, err := credentials.ResolveToken(ctx, cfg.store, credentialID, apiToken)
	if err != nil {
		return nil, fmt.Errorf("resolving API token: %w", err)
	}
	if fromStore {
		cfg.logger.Debug("using integration token credential id", zap.String("credentialId", credentialID))
	}

	auth := NewAuthenticator(token)
	client := khttp.NewClient(
		khttp.WithTimeout(cfg.timeout),
		khttp.WithValidateSSL(cfg.validateSSL),
		khttp.WithProxyConfig(cfg.proxy),
		khttp.WithDefaultHeader("Content-Type", "application/json"),
		khttp.WithDefaultHeader("Accept", "application/json"),
		khttp.WithConfigurator(auth),
		khttp.WithLogger(cfg.logger),
	)

	return &Session{
		endpoint: endpoint,
		client:   client,
		auth:     auth,
		limiter:  cfg.limiter,
		logger:   cfg.logger,
		nextID:   cfg.nextID,
	}, nil
}

// Endpoint returns the JSON-RPC server URL.
func (s *Session) Endpoint() string {
	return s.endpoint
}

// Authenticator returns the authenticator attached to every request.
func (s *Session) Authenticator() *Authenticator {
	return s.auth
}

// Call invokes method with params. A JSON-RPC error object is returned as *Error
// alongside the response; a non-2xx HTTP status as *http.StatusError.
func (s *Session) Call(ctx context.Context, method string, params any) (*Response, error) {
	id := s.nextID()
	body, err := s.send(ctx, &Request{JSONRPC: Version, Method: method, Params: params, ID: id})
	if err != nil {
		return nil, err
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrEmptyResponse, method)
	}

	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("invalid JSON-RPC response for %s: %w", method, err)
	}
	if resp.Error != nil {
		return &resp, resp.Error
	}
	if !sameID(resp.ID, id) {
		return &resp, fmt.Errorf("%w: sent %v, got %v", ErrIDMismatch, id, resp.ID)
	}
	return &resp, nil
}

// Notify sends a notification; the server does not answer it.
func (s *Session) Notify(ctx context.Context, method string, params any) error {
	_, err := s.send(ctx, &Request{JSONRPC: Version, Method: method, Params: params})
	return err
}

func (s *Session) send(ctx context.Context, req *Request) ([]byte, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding %s request: %w", req.Method, err)
	}

	s.logger.Debug("jsonrpc request", zap.String("method", req.Method), zap.Any("id", req.ID))

	resp, err := s.client.Post(ctx, s.endpoint, string(payload), nil)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	return resp.Body, nil
}
