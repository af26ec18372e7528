package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	neturl "net/url"
	"strconv"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/kbhelper/packages/proxy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func proxyConfigFor(t *testing.T, server *httptest.Server) *proxy.Config {
	t.Helper()
	u, err := neturl.Parse(server.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return &proxy.Config{Host: u.Hostname(), Port: port}
}

func TestClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/test", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message": "hello"}`))
	}))
	defer server.Close()

	client := NewClient()
	resp, err := client.Get(context.Background(), server.URL+"/test", nil)

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	assert.JSONEq(t, `{"message": "hello"}`, string(resp.Body))
}

func TestClient_Post(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 123}`))
	}))
	defer server.Close()

	client := NewClient()
	resp, err := client.Post(context.Background(), server.URL, `{"name": "test"}`, map[string]string{
		"Content-Type": "application/json",
	})

	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)
	assert.Contains(t, string(resp.Body), "123")
}

func TestClient_WithTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(WithTimeout(50 * time.Millisecond))
	_, err := client.Get(context.Background(), server.URL, nil)

	assert.Error(t, err)
}

func TestClient_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient().Get(ctx, server.URL, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_WithDefaultHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "custom-agent", r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(
		WithDefaultHeader("Authorization", "test-token"),
		WithDefaultHeader("User-Agent", "custom-agent"),
	)
	resp, err := client.Get(context.Background(), server.URL, nil)

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestClient_WithConfigurator(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "configured", r.Header.Get("X-Test"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(WithConfigurator(ConfiguratorFunc(func(req *http.Request) {
		req.Header.Set("X-Test", "configured")
	})))
	resp, err := client.Get(context.Background(), server.URL, map[string]string{"X-Test": "overridden"})

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestClient_RedirectLimit(t *testing.T) {
	hops := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/final" {
			_, _ = w.Write([]byte("done"))
			return
		}
		hops++
		http.Redirect(w, r, "/loop", http.StatusFound)
	}))
	defer server.Close()

	client := NewClient()

	body, err := client.Fetch(context.Background(), server.URL+"/final")
	require.NoError(t, err)
	assert.Equal(t, "done", string(body))

	resp, err := client.Get(context.Background(), server.URL+"/loop", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, DefaultMaxRedirects, hops)
}

func TestClient_ProxyConfig(t *testing.T) {
	var seenHost string
	proxyServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenHost = r.Host
		_, _ = w.Write([]byte("via proxy"))
	}))
	defer proxyServer.Close()

	client := NewClient(WithProxyConfig(proxyConfigFor(t, proxyServer)))
	body, err := client.Fetch(context.Background(), "http://kanboard.invalid/jsonrpc.php")

	require.NoError(t, err)
	assert.Equal(t, "via proxy", string(body))
	assert.Equal(t, "kanboard.invalid", seenHost)
}

func TestClient_ProxyConfigNoProxyHost(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("direct"))
	}))
	defer target.Close()

	// The proxy port is closed, so only a direct connection can succeed
	cfg := &proxy.Config{Host: "127.0.0.1", Port: 1, NoProxyHost: "127.0.0.1"}
	body, err := NewClient(WithProxyConfig(cfg)).Fetch(context.Background(), target.URL)

	require.NoError(t, err)
	assert.Equal(t, "direct", string(body))
}

func TestClient_Fetch(t *testing.T) {
	payload := []byte{0x00, 0x01, 0xfe, 0xff, 'k', 'b'}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	client := NewClient()

	t.Run("returns whole body", func(t *testing.T) {
		body, err := client.Fetch(context.Background(), server.URL+"/avatar.png")
		require.NoError(t, err)
		assert.Equal(t, payload, body)
	})

	t.Run("error status", func(t *testing.T) {
		body, err := client.Fetch(context.Background(), server.URL+"/missing")
		assert.Nil(t, body)
		var statusErr *StatusError
		require.True(t, errors.As(err, &statusErr))
		assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	})

	t.Run("malformed URL", func(t *testing.T) {
		body, err := client.Fetch(context.Background(), "://nope")
		assert.Nil(t, body)
		assert.ErrorIs(t, err, ErrInvalidURL)
	})

	t.Run("connection failure", func(t *testing.T) {
		body, err := client.Fetch(context.Background(), "http://127.0.0.1:1/")
		assert.Nil(t, body)
		assert.Error(t, err)
	})
}

func TestClient_CheckEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/jsonrpc.php":
			_, _ = w.Write([]byte("<html>\n<body>\n{\"jsonrpc\":\"2.0\",\"error\":{\"code\":-32700}}\n</body>"))
		case "/last-line":
			_, _ = w.Write([]byte("first\nsecond\njsonrpc without newline"))
		case "/forbidden":
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte("jsonrpc"))
		default:
			_, _ = w.Write([]byte("<html>Kanboard</html>\n"))
		}
	}))
	defer server.Close()

	client := NewClient()

	tests := []struct {
		name     string
		endpoint string
		expected bool
		wantErr  bool
	}{
		{name: "json-rpc endpoint", endpoint: server.URL + "/jsonrpc.php", expected: true},
		{name: "marker on last line", endpoint: server.URL + "/last-line", expected: true},
		{name: "not an endpoint", endpoint: server.URL + "/", expected: false},
		{name: "error status", endpoint: server.URL + "/forbidden", expected: false, wantErr: true},
		{name: "empty endpoint", endpoint: "", expected: false, wantErr: true},
		{name: "malformed endpoint", endpoint: "kanboard/jsonrpc.php", expected: false, wantErr: true},
		{name: "connection refused", endpoint: "http://127.0.0.1:1/jsonrpc.php", expected: false, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := client.CheckEndpoint(context.Background(), tt.endpoint)
			assert.Equal(t, tt.expected, ok)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid http URL",
			url:     "http://example.com/path",
			wantErr: false,
		},
		{
			name:    "valid https URL",
			url:     "https://example.com/jsonrpc.php",
			wantErr: false,
		},
		{
			name:    "empty URL",
			url:     "  ",
			wantErr: true,
			errMsg:  "empty URL",
		},
		{
			name:    "invalid scheme",
			url:     "ftp://example.com",
			wantErr: true,
			errMsg:  "unsupported URL scheme",
		},
		{
			name:    "missing scheme",
			url:     "example.com/path",
			wantErr: true,
			errMsg:  "unsupported URL scheme",
		},
		{
			name:    "missing host",
			url:     "http:///path",
			wantErr: true,
			errMsg:  "URL must have a host",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidURL)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestResponse_Err(t *testing.T) {
	tests := []struct {
		statusCode int
		wantErr    bool
	}{
		{200, false},
		{204, false},
		{302, true},
		{401, true},
		{500, true},
	}

	for _, tt := range tests {
		resp := &Response{StatusCode: tt.statusCode, URL: "http://kb"}
		if tt.wantErr {
			assert.Error(t, resp.Err(), "StatusCode: %d", tt.statusCode)
		} else {
			assert.NoError(t, resp.Err(), "StatusCode: %d", tt.statusCode)
		}
	}
}
