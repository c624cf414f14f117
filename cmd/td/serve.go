package main

import (
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/adi-analytics/ticketdesk/internal/config"
	"github.com/adi-analytics/ticketdesk/internal/grid"
	"github.com/adi-analytics/ticketdesk/internal/routing"
	uiserver "github.com/adi-analytics/ticketdesk/internal/ui"
	uiapi "github.com/adi-analytics/ticketdesk/internal/ui/api"
	"github.com/adi-analytics/ticketdesk/ui/static"
)

var (
	serveOpen     bool
	serveOpenCmd  string
	serveTLSSelf  bool
	shutdownGrace = 5 * time.Second
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Serve the request form and the project-manager grid",
	GroupID: "server",
	Long: `Start the HTTP server hosting the intake form (/) and the grid (/grid).

The server binds to a loopback interface by default. Binding elsewhere requires
--allow-remote, and remote clients must then present the auth token, either as
a bearer token or, for browsers, by opening the printed sign-in URL once.
The routing rules file, when configured, is reloaded whenever it changes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	f := serveCmd.Flags()
	f.String("listen", "", "Address to bind the server to (host:port)")
	f.Bool("allow-remote", false, "Permit binding to non-loopback addresses (requires auth token)")
	f.String("auth-token", "", "Use the provided auth token instead of generating one")
	f.String("tls-cert", "", "Path to PEM-encoded TLS certificate")
	f.String("tls-key", "", "Path to PEM-encoded TLS private key")
	f.BoolVar(&serveTLSSelf, "tls-self-signed", false, "Generate and use a self-signed TLS certificate stored under .ticketdesk/tls")
	f.BoolVar(&serveOpen, "open", false, "Open the UI in a browser once listening")
	f.StringVar(&serveOpenCmd, "open-command", "", "Custom browser launch command (overrides platform default)")

	_ = config.BindPFlag(config.KeyUIListen, f.Lookup("listen"))
	_ = config.BindPFlag(config.KeyUIAllowRemote, f.Lookup("allow-remote"))
	_ = config.BindPFlag(config.KeyUIAuthToken, f.Lookup("auth-token"))
	_ = config.BindPFlag(config.KeyUITLSCert, f.Lookup("tls-cert"))
	_ = config.BindPFlag(config.KeyUITLSKey, f.Lookup("tls-key"))

	rootCmd.AddCommand(serveCmd)
}

// tlsFiles resolves the certificate pair, generating a self-signed one on request.
func tlsFiles(listenAddr string, out io.Writer) (certPath, keyPath string, err error) {
	certPath = strings.TrimSpace(config.GetString(config.KeyUITLSCert))
	keyPath = strings.TrimSpace(config.GetString(config.KeyUITLSKey))

	if serveTLSSelf {
		if certPath != "" || keyPath != "" {
			return "", "", errors.New("--tls-self-signed cannot be combined with --tls-cert/--tls-key")
		}
		certPath, keyPath, err = uiserver.WriteSelfSignedCertificate(filepath.Join(config.ProjectDir, "tls"), listenAddr)
		if err != nil {
			return "", "", fmt.Errorf("generate self-signed certificate: %w", err)
		}
		fmt.Fprintf(out, "Using self-signed certificate %s\n", certPath)
		return certPath, keyPath, nil
	}
	if certPath == "" && keyPath == "" {
		return "", "", nil
	}
	if certPath == "" || keyPath == "" {
		return "", "", errors.New("both --tls-cert and --tls-key must be provided")
	}
	if _, err := tls.LoadX509KeyPair(certPath, keyPath); err != nil {
		return "", "", fmt.Errorf("load TLS certificate/key: %w", err)
	}
	return certPath, keyPath, nil
}

func runServe(cmd *cobra.Command) error {
	ctx := cmd.Context()

	listenAddr := strings.TrimSpace(config.GetString(config.KeyUIListen))
	if listenAddr == "" {
		listenAddr = "127.0.0.1:8080"
	}
	requireRemoteAuth, err := uiserver.DetermineAccess(listenAddr, config.GetBool(config.KeyUIAllowRemote))
	if err != nil {
		return err
	}

	token := strings.TrimSpace(config.GetString(config.KeyUIAuthToken))
	requireAuth := requireRemoteAuth || token != ""
	if requireAuth && token == "" {
		token, err = generateAuthToken()
		if err != nil {
			return fmt.Errorf("generate auth token: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Auth token: %s\n", token)
	}

	certPath, keyPath, err := tlsFiles(listenAddr, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	useTLS := certPath != ""

	router, rulesPath, err := loadRouter()
	if err != nil {
		return fmt.Errorf("load routing rules: %w", err)
	}

	deps := uiapi.Deps{
		Tickets: store,
		Intake:  newIntakeService(router),
		Grid:    grid.NewService(store, logger),
		Actor:   getActor(),
		Logger:  logger,
	}
	handler, err := uiserver.NewHandler(uiserver.HandlerConfig{
		StaticFS:    static.Files,
		RequireAuth: requireAuth,
		AuthToken:   token,
		Logger:      logger,
		Register: func(mux *http.ServeMux) {
			uiapi.Register(mux, deps)
		},
	})
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", listenAddr, err)
	}
	server := newServer(handler)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var serveErr error
		if useTLS {
			serveErr = server.ServeTLS(listener, certPath, keyPath)
		} else {
			serveErr = server.Serve(listener)
		}
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return serveErr
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	})
	if rulesPath != "" {
		g.Go(func() error {
			return routing.Watch(gctx, rulesPath, router, logger)
		})
	}

	baseURL := formatBaseURL(listener.Addr(), useTLS)
	logger.Info("server listening", "url", baseURL, "auth", requireAuth, "tls", useTLS)
	fmt.Fprintf(cmd.OutOrStdout(), "ticketdesk listening on %s\n", baseURL)

	browserURL := baseURL
	if requireAuth {
		browserURL = uiserver.AuthURL(baseURL, token)
		fmt.Fprintf(cmd.ErrOrStderr(), "Browser sign-in: %s\n", browserURL)
	}
	if serveOpen || serveOpenCmd != "" {
		if err := launchBrowser(ctx, browserURL, serveOpenCmd, cmd.ErrOrStderr()); err != nil {
			WarnError("failed to open browser automatically: %v", err)
		}
	}

	return g.Wait()
}

func newServer(handler http.Handler) *http.Server {
	return &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func launchBrowser(ctx context.Context, url string, override string, stderr io.Writer) error {
	var execCmd *exec.Cmd

	if strings.TrimSpace(override) != "" {
		args, err := shlex.Split(override)
		if err != nil {
			return fmt.Errorf("parse open-command: %w", err)
		}
		if len(args) == 0 {
			return errors.New("open-command resolved to empty executable")
		}
		execCmd = exec.CommandContext(ctx, args[0], append(args[1:], url)...)
	} else {
		execCmd = defaultBrowserCommand(ctx, url)
	}

	execCmd.Stdout = io.Discard
	if stderr != nil {
		execCmd.Stderr = stderr
	} else {
		execCmd.Stderr = io.Discard
	}
	if err := execCmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = execCmd.Wait()
	}()
	return nil
}

func defaultBrowserCommand(ctx context.Context, url string) *exec.Cmd {
	switch runtime.GOOS {
	case "darwin":
		return exec.CommandContext(ctx, "open", url)
	case "windows":
		return exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return exec.CommandContext(ctx, "xdg-open", url)
	}
}

func formatBaseURL(addr net.Addr, useTLS bool) string {
	scheme := "http"
	if useTLS {
		scheme = "https"
	}
	tcpAddr, ok := addr.(*net.TCPAddr)
	if !ok {
		return fmt.Sprintf("%s://%s", scheme, addr.String())
	}

	host := tcpAddr.IP.String()
	if tcpAddr.IP == nil || tcpAddr.IP.IsUnspecified() {
		host = "127.0.0.1"
	}
	if strings.Contains(host, ":") && !strings.HasPrefix(host, "[") {
		host = "[" + host + "]"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, host, tcpAddr.Port)
}

func generateAuthToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return strings.TrimRight(base64.URLEncoding.EncodeToString(buf), "="), nil
}
