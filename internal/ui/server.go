// Package ui hosts the ticketdesk web server plumbing and the terminal
// styling shared by td commands.
package ui

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
)

func init() {
	// Serve JavaScript and CSS with explicit MIME types even on platforms
	// that default to text/plain.
	_ = mime.AddExtensionType(".js", "text/javascript; charset=utf-8")
	_ = mime.AddExtensionType(".css", "text/css; charset=utf-8")
}

// DetermineAccess inspects the requested listen address and returns whether
// authentication is required (i.e., binding to a non-loopback/unspecified host).
// It rejects remote bindings unless allowRemote is explicitly enabled.
func DetermineAccess(listenAddr string, allowRemote bool) (bool, error) {
	host, _, err := net.SplitHostPort(listenAddr)
	if err != nil {
		return false, fmt.Errorf("invalid listen address %q: %w", listenAddr, err)
	}

	normalizedHost := host
	if normalizedHost == "" {
		normalizedHost = "0.0.0.0"
	}

	if isLoopbackHost(normalizedHost) {
		return false, nil
	}

	if !allowRemote {
		return false, fmt.Errorf("refusing remote bind to %q without --allow-remote", normalizedHost)
	}

	return true, nil
}

// HandlerConfig captures the inputs required to build the UI HTTP handler.
type HandlerConfig struct {
	StaticFS    fs.FS
	RequireAuth bool
	AuthToken   string
	Logger      *slog.Logger
	// Register mounts the page and API routes, including "/".
	Register func(*http.ServeMux)
}

// NewHandler constructs the HTTP handler for the UI server using the provided configuration.
func NewHandler(cfg HandlerConfig) (http.Handler, error) {
	if cfg.StaticFS == nil {
		return nil, errors.New("StaticFS is required")
	}
	if cfg.RequireAuth && strings.TrimSpace(cfg.AuthToken) == "" {
		return nil, errors.New("auth token required when authentication is enabled")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", healthHandler)
	mux.Handle("/.assets/", http.StripPrefix("/.assets/", assetHandler(cfg.StaticFS)))
	if cfg.Register != nil {
		cfg.Register(mux)
	}

	var handler http.Handler = mux
	if cfg.RequireAuth {
		handler = requireBearer(mux, cfg.AuthToken)
	}
	return withRequestLogging(handler, logger), nil
}

// AuthCookie carries the auth token for browsers, which cannot attach an
// Authorization header to page navigations.
const AuthCookie = "td_token"

// AuthQueryParam exchanges the token for AuthCookie on a GET request.
const AuthQueryParam = "token"

func requireBearer(next http.Handler, token string) http.Handler {
	token = strings.TrimSpace(token)
	expectedHeader := "Bearer " + token
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}
		actual := strings.TrimSpace(r.Header.Get("Authorization"))
		if tokenEqual(actual, expectedHeader) {
			next.ServeHTTP(w, r)
			return
		}
		if c, err := r.Cookie(AuthCookie); err == nil && tokenEqual(c.Value, token) {
			next.ServeHTTP(w, r)
			return
		}
		q := r.URL.Query()
		if r.Method == http.MethodGet && q.Has(AuthQueryParam) && tokenEqual(q.Get(AuthQueryParam), token) {
			http.SetCookie(w, &http.Cookie{
				Name:     AuthCookie,
				Value:    token,
				Path:     "/",
				HttpOnly: true,
				Secure:   r.TLS != nil,
				SameSite: http.SameSiteStrictMode,
			})
			q.Del(AuthQueryParam)
			target := *r.URL
			target.RawQuery = q.Encode()
			http.Redirect(w, r, target.RequestURI(), http.StatusSeeOther)
			return
		}
		w.Header().Set("WWW-Authenticate", `Bearer realm="ticketdesk"`)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
}

func tokenEqual(actual, expected string) bool {
	return subtle.ConstantTimeCompare([]byte(actual), []byte(expected)) == 1
}

// AuthURL returns baseURL with the token query parameter browsers use to
// obtain AuthCookie.
func AuthURL(baseURL, token string) string {
	return strings.TrimSuffix(baseURL, "/") + "/?" + AuthQueryParam + "=" + url.QueryEscape(token)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	resp := map[string]string{"status": "ok"}
	enc := json.NewEncoder(w)
	enc.Encode(resp) // nolint:errchkjson
}

func assetHandler(staticFS fs.FS) http.Handler {
	fileServer := http.FileServer(http.FS(staticFS))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		fileServer.ServeHTTP(w, r)
	})
}

func isLoopbackHost(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return false
}
