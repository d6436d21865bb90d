package main

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"

	"teamcal/internal/calendar"
	"teamcal/internal/config"
	"teamcal/internal/credentials"
	"teamcal/internal/models"
	"teamcal/internal/notify"
	"teamcal/internal/palette"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "teamcal",
		Usage: "Work with the shared team calendar.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: config.DefaultPath, Usage: "Path to the YAML config file.", EnvVars: []string{"TEAMCAL_CONFIG"}},
			&cli.StringFlag{Name: "api-url", Usage: "Base URL of the calendar service (overrides config)."},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error (overrides config)."},
		},
		Commands: []*cli.Command{
			loginCommand(),
			logoutCommand(),
			listCommand(),
			showCommand(),
			usersCommand(),
			createCommand(),
			editCommand(),
			deleteCommand(),
			exportCommand(),
			publishCommand(),
			googleAuthCommand(),
			importHolidaysCommand(),
			shellCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

// env is what every command starts from.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	loc    *time.Location
}

func setup(c *cli.Context) (*env, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)
	if v := c.String("api-url"); v != "" {
		cfg.APIURL = v
	}
	if v := c.String("log-level"); v != "" {
		cfg.LogLevel = v
	}
	cfg.Normalize()

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	logger := setupLogger(cfg.LogLevel)
	logger.Debug("Effective config", "api_url", cfg.APIURL, "timezone", cfg.Timezone, "theme", cfg.Theme, "session_file", cfg.SessionFile)
	return &env{cfg: cfg, logger: logger, loc: loc}, nil
}

// tokenSource picks the bearer token and role. An explicit token in the
// config or environment wins over the session file.
func (e *env) tokenSource() (oauth2.TokenSource, string) {
	if e.cfg.Token != "" {
		return credentials.Static(e.cfg.Token), e.cfg.Role
	}
	store := credentials.NewFileStore(e.cfg.SessionFile)
	role := e.cfg.Role
	sess, err := store.Load()
	switch {
	case err == nil:
		if role == "" {
			role = sess.Role
		}
	case errors.Is(err, credentials.ErrMissing):
		e.logger.Debug("No saved session.", "file", e.cfg.SessionFile)
	default:
		e.logger.Warn("Could not read session file", "file", e.cfg.SessionFile, "error", err)
	}
	return store, role
}

// session builds and mounts a calendar session. A failed event load is
// returned; a failed user load is only reported by the notifier.
func (e *env) session(c *cli.Context, n notify.Notifier) (*calendar.Session, error) {
	creds, role := e.tokenSource()
	s, err := calendar.New(e.logger, calendar.Options{
		APIURL:        e.cfg.APIURL,
		Credentials:   creds,
		Role:          role,
		ElevatedRoles: e.cfg.ElevatedRoles,
		Theme:         palette.ParseTheme(e.cfg.Theme),
		Location:      e.loc,
		Notifier:      n,
	})
	if err != nil {
		return nil, err
	}
	if err := s.Mount(c.Context); err != nil {
		return s, err
	}
	return s, nil
}

func (e *env) parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return models.ParseLocalTime(s, e.loc)
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
