package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"

	"teamcal/internal/console"
	"teamcal/internal/credentials"
	"teamcal/internal/dialog"
	"teamcal/internal/models"
	"teamcal/internal/notify"
)

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Save the bearer token and role used for calendar requests.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "token", Usage: "Bearer token (prompted when omitted)."},
			&cli.StringFlag{Name: "role", Usage: "Role of the signed-in user (prompted when omitted)."},
			&cli.StringFlag{Name: "user-id", Usage: "Directory id of the signed-in user."},
			&cli.StringFlag{Name: "name", Usage: "Display name of the signed-in user."},
		},
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}
			reader := bufio.NewReader(os.Stdin)
			token := c.String("token")
			if token == "" {
				token = prompt(reader, "Enter bearer token: ")
			}
			role := c.String("role")
			if role == "" {
				role = prompt(reader, "Enter your role (e.g., 'CEO', 'Engineer'): ")
			}

			store := credentials.NewFileStore(e.cfg.SessionFile)
			sess := credentials.Session{
				Token:  &oauth2.Token{AccessToken: token, TokenType: "Bearer"},
				Role:   role,
				UserID: c.String("user-id"),
				Name:   c.String("name"),
			}
			if err := store.Save(sess); err != nil {
				return fmt.Errorf("failed to save session: %w", err)
			}
			e.logger.Info("Successfully saved session.", "file", store.Path(), "role", role)
			return nil
		},
	}
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Remove the saved session.",
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}
			if err := credentials.NewFileStore(e.cfg.SessionFile).Remove(); err != nil {
				return fmt.Errorf("failed to remove session: %w", err)
			}
			e.logger.Info("Session removed.", "file", e.cfg.SessionFile)
			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "Print the agenda.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "from", Usage: "Start of the range, YYYY-MM-DD[THH:MM]."},
			&cli.StringFlag{Name: "to", Usage: "End of the range, YYYY-MM-DD[THH:MM]."},
			&cli.StringSliceFlag{Name: "type", Usage: "Only show these event types."},
		},
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}
			from, err := e.parseTime(c.String("from"))
			if err != nil {
				return err
			}
			to, err := e.parseTime(c.String("to"))
			if err != nil {
				return err
			}
			var types []models.EventType
			for _, t := range c.StringSlice("type") {
				et, err := models.ParseEventType(t)
				if err != nil {
					return err
				}
				types = append(types, et)
			}

			s, err := e.session(c, notify.NewLog(e.logger))
			if err != nil {
				return err
			}
			console.PrintAgenda(os.Stdout, s.Agenda(from, to, types...))
			return nil
		},
	}
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show one event with its attendees.",
		ArgsUsage: "ID",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("usage: show ID")
			}
			e, err := setup(c)
			if err != nil {
				return err
			}
			s, err := e.session(c, notify.NewLog(e.logger))
			if err != nil {
				return err
			}
			if err := s.EventSelected(c.Args().First()); err != nil {
				return err
			}
			v, ok := s.Dialog.State().(dialog.Viewing)
			if !ok {
				return errors.New("event is not open")
			}
			console.PrintDetails(os.Stdout, s.Describe(v.Event))
			return nil
		},
	}
}

func usersCommand() *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "List the user directory by category.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "search", Usage: "Filter by name, email, role or category."},
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
			if q := c.String("search"); q != "" {
				console.PrintOptions(os.Stdout, s.Resolver.Search(q))
				return nil
			}
			console.PrintUsers(os.Stdout, s.Directory.Grouped())
			return nil
		},
	}
}

func eventFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Usage: "Event title."},
		&cli.StringFlag{Name: "description", Usage: "Event description."},
		&cli.StringFlag{Name: "location", Usage: "Event location."},
		&cli.StringFlag{Name: "start", Usage: "Start, YYYY-MM-DD[THH:MM] or RFC 3339."},
		&cli.StringFlag{Name: "end", Usage: "End, YYYY-MM-DD[THH:MM] or RFC 3339."},
		&cli.StringFlag{Name: "type", Usage: "meeting, holiday, deadline, event or training."},
	}
}

// applyEventFlags copies the event flags that were set onto the draft.
func applyEventFlags(c *cli.Context, e *env, dlg *dialog.Dialog) error {
	var edits []func(*dialog.Draft)
	for _, name := range []string{"title", "description", "location"} {
		if !c.IsSet(name) {
			continue
		}
		v := c.String(name)
		switch name {
		case "title":
			edits = append(edits, func(d *dialog.Draft) { d.Title = v })
		case "description":
			edits = append(edits, func(d *dialog.Draft) { d.Description = v })
		case "location":
			edits = append(edits, func(d *dialog.Draft) { d.Location = v })
		}
	}
	if c.IsSet("start") {
		t, err := e.parseTime(c.String("start"))
		if err != nil {
			return err
		}
		edits = append(edits, func(d *dialog.Draft) { d.Start = t })
	}
	if c.IsSet("end") {
		t, err := e.parseTime(c.String("end"))
		if err != nil {
			return err
		}
		edits = append(edits, func(d *dialog.Draft) { d.End = t })
	}
	if c.IsSet("type") {
		et, err := models.ParseEventType(c.String("type"))
		if err != nil {
			return err
		}
		edits = append(edits, func(d *dialog.Draft) { d.Type = et })
	}
	return dlg.UpdateDraft(func(d *dialog.Draft) {
		for _, fn := range edits {
			fn(d)
		}
	})
}

func createCommand() *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Create an event.",
		Flags: append(eventFlags(),
			&cli.StringSliceFlag{Name: "attendee", Usage: "User id of an attendee (repeatable)."},
		),
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}
			s, err := e.session(c, notify.NewWriter(os.Stdout))
			if err != nil {
				return err
			}
			start, err := e.parseTime(c.String("start"))
			if err != nil {
				return err
			}
			end, err := e.parseTime(c.String("end"))
			if err != nil {
				return err
			}
			if start.IsZero() {
				err = s.Dialog.NewEvent()
			} else {
				err = s.SlotSelected(start, end)
			}
			if err != nil {
				return err
			}
			if err := applyEventFlags(c, e, s.Dialog); err != nil {
				return err
			}
			for _, id := range c.StringSlice("attendee") {
				if err := s.Dialog.AddAttendee(id); err != nil {
					return err
				}
			}
			ev, err := s.Dialog.Commit(c.Context)
			if err != nil {
				return err
			}
			if ev.ID != "" {
				fmt.Println(ev.ID)
			}
			return nil
		},
	}
}

func editCommand() *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Change an event. Only the given fields are changed.",
		ArgsUsage: "ID",
		Flags: append(eventFlags(),
			&cli.StringSliceFlag{Name: "add-attendee", Usage: "User id to add (repeatable)."},
			&cli.StringSliceFlag{Name: "remove-attendee", Usage: "User id to remove (repeatable)."},
		),
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("usage: edit ID [flags]")
			}
			e, err := setup(c)
			if err != nil {
				return err
			}
			s, err := e.session(c, notify.NewWriter(os.Stdout))
			if err != nil {
				return err
			}
			if err := s.EventSelected(c.Args().First()); err != nil {
				return err
			}
			if err := s.Dialog.Edit(); err != nil {
				return err
			}
			if err := applyEventFlags(c, e, s.Dialog); err != nil {
				return err
			}
			for _, id := range c.StringSlice("add-attendee") {
				if err := s.Dialog.AddAttendee(id); err != nil {
					return err
				}
			}
			for _, id := range c.StringSlice("remove-attendee") {
				if err := s.Dialog.RemoveAttendee(id); err != nil {
					return err
				}
			}
			return s.Dialog.Save(c.Context)
		},
	}
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete an event after confirmation.",
		ArgsUsage: "ID",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Usage: "Answer yes to the confirmation prompt."},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("usage: delete ID [--yes]")
			}
			e, err := setup(c)
			if err != nil {
				return err
			}
			s, err := e.session(c, notify.NewWriter(os.Stdout))
			if err != nil {
				return err
			}
			if err := s.EventSelected(c.Args().First()); err != nil {
				return err
			}
			reader := bufio.NewReader(os.Stdin)
			confirm := dialog.ConfirmFunc(func(question string) (bool, error) {
				if c.Bool("yes") {
					return true, nil
				}
				answer := prompt(reader, question+" [y/N]: ")
				return strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes"), nil
			})
			err = s.Dialog.Delete(c.Context, confirm)
			if errors.Is(err, dialog.ErrNotConfirmed) {
				e.logger.Info("Delete cancelled.")
				return nil
			}
			return err
		},
	}
}

func shellCommand() *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "Open an interactive console on the calendar.",
		Action: func(c *cli.Context) error {
			e, err := setup(c)
			if err != nil {
				return err
			}
			n := notify.Fanout{notify.NewWriter(os.Stdout), notify.NewLog(e.logger)}
			s, err := e.session(c, n)
			if s == nil {
				return err
			}
			if err != nil {
				e.logger.Warn("Starting without events", "error", err)
			}
			con, err := console.New(s, os.Stdin, os.Stdout)
			if err != nil {
				return err
			}
			return con.Run(c.Context)
		},
	}
}
