package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"

	"teamcal/internal/caldav"
	"teamcal/internal/calendar"
	"teamcal/internal/google"
	"teamcal/internal/ics"
	"teamcal/internal/importer"
	"teamcal/internal/notify"
)

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write the calendar as an iCalendar file.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Value: "teamcal.ics", Usage: "Output file, - for stdout."},
			&cli.StringFlag{Name: "name", Value: "Team calendar", Usage: "Calendar name."},
		},
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}
			s, err := e.session(c, notify.NewLog(e.logger))
			if err != nil {
				return err
			}

			enc := ics.NewEncoder(s.Directory)
			out := c.String("out")
			if out == "-" {
				return enc.Encode(os.Stdout, c.String("name"), s.Store.Events())
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			if err := enc.Encode(f, c.String("name"), s.Store.Events()); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			e.logger.Info("Exported calendar.", "file", out, "events", s.Store.Len())
			return nil
		},
	}
}

func publishCommand() *cli.Command {
	return &cli.Command{
		Name:  "publish",
		Usage: "Mirror the calendar to a CalDAV collection.",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "dry-run", Usage: "Log what would be written without changing the collection."},
			&cli.StringFlag{Name: "schedule", Usage: "Cron schedule; publish once and exit when empty."},
		},
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}
			if !e.cfg.CalDAV.Enabled() {
				return errors.New("caldav endpoint, username and calendar must be configured")
			}

			s, err := e.session(c, notify.NewLog(e.logger))
			if err != nil {
				return err
			}
			dav := e.cfg.CalDAV
			pub, err := caldav.NewPublisher(c.Context, e.logger, dav.Endpoint, dav.Username, dav.Password, dav.Calendar, ics.NewEncoder(s.Directory))
			if err != nil {
				return err
			}
			pub.SetDryRun(c.Bool("dry-run"))

			publish := func() error {
				if err := s.Reload(c.Context); err != nil {
					return err
				}
				_, err := pub.Publish(c.Context, s.Store.Events())
				return err
			}

			schedule := c.String("schedule")
			if schedule == "" {
				return publish()
			}
			return runScheduled(c, e, schedule, publish)
		},
	}
}

// runScheduled runs job on the cron schedule until SIGINT or SIGTERM.
func runScheduled(c *cli.Context, e *env, schedule string, job func() error) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := cron.New(cron.WithLocation(e.loc))
	_, err := sched.AddFunc(schedule, func() {
		if err := job(); err != nil {
			e.logger.Error("Scheduled publish failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	e.logger.Info("Publishing on schedule.", "schedule", schedule)
	sched.Start()
	<-ctx.Done()
	e.logger.Info("Shutting down scheduler.")
	<-sched.Stop().Done()
	return nil
}

func googleAuthCommand() *cli.Command {
	return &cli.Command{
		Name:  "google-auth",
		Usage: "Authenticate with a Google account to read holiday calendars.",
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}
			e.logger.Info("Starting Google authentication flow.")

			g := e.cfg.Google
			config, err := google.GetOAuthConfigForAuthFlow(g.ClientID, g.ClientSecret)
			if err != nil {
				return fmt.Errorf("failed to get google oauth config: %w", err)
			}

			authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
			fmt.Printf("Go to the following link in your browser then type the "+
				"authorization code: \n%v\n", authURL)

			reader := bufio.NewReader(os.Stdin)
			authCode := prompt(reader, "Enter Authorization Code: ")

			token, err := google.TokenFromWeb(c.Context, config, authCode)
			if err != nil {
				return fmt.Errorf("unable to retrieve token from web: %w", err)
			}
			if err := google.SaveToken(g.TokenFile, token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}
			e.logger.Info("Successfully authenticated and saved token.", "file", g.TokenFile)

			client, err := google.NewClient(c.Context, e.logger, g.ClientID, g.ClientSecret, g.TokenFile, e.loc)
			if err != nil {
				return err
			}
			cals, err := client.ListCalendars(c.Context)
			if err != nil {
				e.logger.Warn("Could not list calendars", "error", err)
				return nil
			}
			ids := make([]string, 0, len(cals))
			for id := range cals {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			fmt.Println("Available calendars:")
			for _, id := range ids {
				fmt.Printf("  %s  %s\n", id, cals[id])
			}
			return nil
		},
	}
}

func importHolidaysCommand() *cli.Command {
	return &cli.Command{
		Name:  "import-holidays",
		Usage: "Create holiday events from a Google calendar.",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "dry-run", Usage: "Log what would be created without creating anything."},
			&cli.StringFlag{Name: "calendar", Usage: "Google calendar id (overrides config)."},
			&cli.IntFlag{Name: "days", Usage: "How many days ahead to import (overrides config)."},
		},
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}
			g := e.cfg.Google
			if v := c.String("calendar"); v != "" {
				g.HolidayCalendar = v
			}
			if v := c.Int("days"); v > 0 {
				g.Days = v
			}

			s, err := e.session(c, notify.NewLog(e.logger))
			if err != nil {
				return err
			}
			if !s.Gate.CanManage() {
				return fmt.Errorf("role %q may not create events", s.Gate.Role())
			}
			client, err := google.NewClient(c.Context, e.logger, g.ClientID, g.ClientSecret, g.TokenFile, e.loc)
			if err != nil {
				return fmt.Errorf("could not load google token, did you run google-auth? %w", err)
			}
			return runImport(c, e, s, client, g.HolidayCalendar, g.StateFile, g.Days)
		},
	}
}

func runImport(c *cli.Context, e *env, s *calendar.Session, src importer.Source, calendarID, statePath string, days int) error {
	im, err := importer.New(e.logger, src, s.Dialog, s.Store, calendarID, statePath, c.Bool("dry-run"))
	if err != nil {
		return err
	}
	now := time.Now().In(e.loc)
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, e.loc)
	to := from.AddDate(0, 0, days)

	res, err := im.Run(c.Context, from, to)
	if err != nil {
		return err
	}
	if res.Failed > 0 {
		return fmt.Errorf("%d of %d holidays failed to import", res.Failed, res.Imported+res.Failed)
	}
	return nil
}
