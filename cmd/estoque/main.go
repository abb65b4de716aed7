package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/lachiem1/estoque/internal/auth"
	"github.com/lachiem1/estoque/internal/config"
	"github.com/lachiem1/estoque/internal/estoqueapi"
	"github.com/lachiem1/estoque/internal/observability"
	"github.com/lachiem1/estoque/internal/tui"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Load()

	if len(os.Args) >= 2 && os.Args[1] == "auth" {
		if err := runAuth(cfg, os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "auth error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "estoque: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	logger, err := observability.NewLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()
	if cfg.MetricsAddr != "" {
		observability.ServeMetrics(ctx, cfg.MetricsAddr, metrics, logger)
	}

	token, err := auth.LoadToken()
	if err != nil && !errors.Is(err, auth.ErrNoToken) {
		// Keep going: the login dialog reports keyring failures itself.
		logger.Warn("token not loaded", zap.Error(err))
	}
	userName := ""
	if token != "" {
		if auth.Expired(token, time.Now()) {
			logger.Info("stored token expired")
			token = ""
		} else {
			userName = auth.LoadUserName()
		}
	}

	bridge := &tui.Bridge{}
	client := newClient(cfg, token, logger, metrics, bridge)
	logger.Info("console starting", zap.String("api", client.BaseURL()), zap.Bool("session", token != ""))

	p := tea.NewProgram(tui.New(tui.Options{
		Client:   client,
		Bridge:   bridge,
		Config:   cfg,
		Logger:   logger,
		Metrics:  metrics,
		UserName: userName,
	}), tea.WithAltScreen())
	bridge.Attach(p)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run console: %w", err)
	}
	return nil
}

func newClient(cfg *config.Config, token string, logger *zap.Logger, metrics *observability.Metrics, n estoqueapi.Notifier) *estoqueapi.Client {
	opts := []estoqueapi.ClientOption{
		estoqueapi.WithTimeout(cfg.HTTPTimeout),
		estoqueapi.WithLogger(logger),
		estoqueapi.WithMetrics(metrics),
	}
	if n != nil {
		opts = append(opts, estoqueapi.WithNotifier(n))
	}
	if cfg.BreakerEnabled {
		opts = append(opts, estoqueapi.WithBreaker(estoqueapi.NewBreaker()))
	}
	return estoqueapi.New(cfg.APIURL, token, opts...)
}

func runAuth(cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: estoque auth login|logout|status")
	}
	switch args[0] {
	case "login":
		return runAuthLogin(cfg)
	case "logout":
		return runAuthLogout(cfg)
	case "status":
		return runAuthStatus()
	}
	return fmt.Errorf("unknown auth command %q", args[0])
}

func runAuthLogin(cfg *config.Config) error {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("E-mail: ")
	email, err := readLine(reader)
	if err != nil {
		return err
	}
	fmt.Print("Senha: ")
	password, err := readSecret(reader)
	if err != nil {
		return err
	}
	fmt.Println()
	if email == "" || password == "" {
		return errors.New("e-mail and password are required")
	}

	client := newClient(cfg, "", zap.NewNop(), nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPTimeout)
	defer cancel()
	resp, err := client.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := auth.SaveSession(resp.AccessToken, resp.User.Name); err != nil {
		return err
	}
	// Do not print token value.
	fmt.Printf("Logged in as %s. Session saved to your system credential store.\n", firstNonEmpty(resp.User.Name, email))
	return nil
}

func runAuthLogout(cfg *config.Config) error {
	token, err := auth.LoadToken()
	if err == nil && token != "" {
		client := newClient(cfg, token, zap.NewNop(), nil, nil)
		ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPTimeout)
		_ = client.Logout(ctx)
		cancel()
	}
	if err := auth.RemoveToken(); err != nil {
		return err
	}
	fmt.Println("Session removed.")
	return nil
}

func runAuthStatus() error {
	token, err := auth.LoadToken()
	if errors.Is(err, auth.ErrNoToken) {
		fmt.Println("No session stored.")
		return nil
	}
	if err != nil {
		return err
	}
	name := firstNonEmpty(auth.LoadUserName(), "unknown user")
	exp, ok := auth.TokenExpiry(token)
	switch {
	case !ok:
		fmt.Printf("Session for %s (no expiry).\n", name)
	case auth.Expired(token, time.Now()):
		fmt.Printf("Session for %s expired at %s.\n", name, exp.Local().Format(time.RFC3339))
	default:
		fmt.Printf("Session for %s valid until %s.\n", name, exp.Local().Format(time.RFC3339))
	}
	return nil
}

func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		if len(line) == 0 {
			return "", err
		}
	}
	return strings.TrimSpace(line), nil
}

func readSecret(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		value, err := term.ReadPassword(fd)
		if err != nil {
			return "", err
		}
		return string(value), nil
	}
	return readLine(reader)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
