package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"log/slog"

	"golang.org/x/term"

	"authflow/internal/attempts"
	"authflow/internal/config"
	"authflow/internal/domain"
	"authflow/internal/idp"
	"authflow/internal/provider"
	"authflow/internal/service"
	"authflow/internal/session"
	"authflow/internal/store/sqlite"
	"authflow/internal/termui"
)

// errFlowFailed signals a non-zero exit for a failure the presenter has
// already rendered.
var errFlowFailed = errors.New("flow failed")

func main() {
	if err := run(); err != nil {
		if !errors.Is(err, errFlowFailed) {
			_, _ = os.Stderr.WriteString(err.Error() + "\n")
		}
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)

	args := os.Args[1:]
	if len(args) == 0 {
		return errors.New("usage: authflow <login|login-google|login-apple|signup|logout|whoami> [-persist none|memory|local]")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(filepath.Dir(cfg.StatePath), 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	kv, err := sqlite.Open(ctx, cfg.StatePath)
	if err != nil {
		return err
	}
	defer kv.Close()

	tracker := attempts.New(kv, cfg.MaxAttempts, cfg.LockoutDuration, cfg.RateLimit)
	sessions := session.NewCache(kv, cfg.SessionPersistence)
	presenter := termui.New(os.Stdout)

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	persist := fs.String("persist", "", "session persistence for this run: none, memory, or local")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if *persist != "" {
		mode, err := session.ParseMode(*persist)
		if err != nil {
			return err
		}
		if err := sessions.SetMode(ctx, mode); err != nil {
			return err
		}
	}

	switch args[0] {
	case "login":
		client, err := provider.NewClient(cfg.Endpoint, cfg.APIKey)
		if err != nil {
			return err
		}
		svc := loginService(cfg, logger, client, tracker, sessions)
		sub, err := promptLogin(bufio.NewReader(os.Stdin))
		if err != nil {
			return err
		}
		if err := svc.Login(ctx, presenter, sub); err != nil {
			return errFlowFailed
		}
		return nil

	case "login-google":
		client, err := provider.NewClient(cfg.Endpoint, cfg.APIKey)
		if err != nil {
			return err
		}
		svc := loginService(cfg, logger, client, tracker, sessions)
		svc.IDP = &idp.GoogleFlow{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			OpenURL:      termui.OpenBrowser,
		}
		if err := svc.LoginFederated(ctx, presenter); err != nil {
			return errFlowFailed
		}
		return nil

	case "login-apple":
		client, err := provider.NewClient(cfg.Endpoint, cfg.APIKey)
		if err != nil {
			return err
		}
		svc := loginService(cfg, logger, client, tracker, sessions)
		in := bufio.NewReader(os.Stdin)
		svc.IDP = &idp.AppleFlow{
			ServiceID: cfg.AppleServiceID,
			ReadToken: func(context.Context) (string, error) {
				return promptLine(in, "Apple ID token: ")
			},
		}
		if err := svc.LoginFederated(ctx, presenter); err != nil {
			return errFlowFailed
		}
		return nil

	case "signup":
		client, err := provider.NewClient(cfg.Endpoint, cfg.APIKey)
		if err != nil {
			return err
		}
		svc := &service.SignupService{
			Provider:       client,
			Sessions:       sessions,
			Logger:         logger,
			MinPasswordLen: cfg.MinPasswordLen,
			Destination:    cfg.Destination,
			NavigateDelay:  cfg.NavigateDelay,
		}
		sub, err := promptSignup(bufio.NewReader(os.Stdin))
		if err != nil {
			return err
		}
		if err := svc.Signup(ctx, presenter, sub); err != nil {
			return errFlowFailed
		}
		return nil

	case "logout":
		if err := sessions.Clear(ctx); err != nil {
			return err
		}
		fmt.Println("Signed out.")
		return nil

	case "whoami":
		sess, err := sessions.Load(ctx)
		if errors.Is(err, domain.ErrNoSession) {
			fmt.Println("Not signed in.")
			return nil
		}
		if err != nil {
			return err
		}
		name := sess.DisplayName
		if name == "" {
			name = sess.Email
		}
		fmt.Printf("%s (%s)\n", name, sess.Email)
		return nil
	}

	return fmt.Errorf("unknown command %q", args[0])
}

func loginService(cfg config.Config, logger *slog.Logger, client *provider.Client, tracker *attempts.Tracker, sessions *session.Cache) *service.LoginService {
	return &service.LoginService{
		Provider:       client,
		Attempts:       tracker,
		Sessions:       sessions,
		Logger:         logger,
		MinPasswordLen: cfg.MinPasswordLen,
		Destination:    cfg.Destination,
		NavigateDelay:  cfg.NavigateDelay,
	}
}

func promptLogin(in *bufio.Reader) (service.FormSubmission, error) {
	email, err := promptLine(in, "Email: ")
	if err != nil {
		return service.FormSubmission{}, err
	}
	password, err := promptPassword(in, "Password: ")
	if err != nil {
		return service.FormSubmission{}, err
	}
	return service.FormSubmission{Email: email, Password: password}, nil
}

func promptSignup(in *bufio.Reader) (service.FormSubmission, error) {
	sub, err := promptLogin(in)
	if err != nil {
		return service.FormSubmission{}, err
	}
	sub.ConfirmPassword, err = promptPassword(in, "Confirm password: ")
	if err != nil {
		return service.FormSubmission{}, err
	}
	return sub, nil
}

func promptLine(in *bufio.Reader, label string) (string, error) {
	fmt.Print(label)
	line, err := in.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func promptPassword(in *bufio.Reader, label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if in.Buffered() == 0 && term.IsTerminal(fd) {
		fmt.Print(label)
		raw, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(raw), nil
	}
	return promptLine(in, label)
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProd() {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
