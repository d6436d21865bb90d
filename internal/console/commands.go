package console

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"teamcal/internal/dialog"
	"teamcal/internal/models"
)

func registerDialogCommands(r *registry) error {
	for _, cmd := range []command{
		{Name: "new", Usage: "new", Desc: "Open a new event draft starting now.", Run: cmdNew},
		{Name: "slot", Usage: "slot START [END]", Desc: "Open a new event draft for a time slot.", Run: cmdSlot},
		{Name: "open", Aliases: []string{"view"}, Usage: "open ID", Desc: "Show an event.", Run: cmdOpen},
		{Name: "edit", Usage: "edit", Desc: "Edit the event being viewed.", Run: cmdEdit},
		{Name: "set", Usage: "set FIELD VALUE", Desc: "Change title, description, location, start, end or type.", Run: cmdSet},
		{Name: "attendee", Usage: "attendee add|rm ID", Desc: "Add or remove an attendee.", Run: cmdAttendee},
		{Name: "save", Usage: "save", Desc: "Submit the draft.", Run: cmdSave},
		{Name: "cancel", Usage: "cancel", Desc: "Discard the draft.", Run: cmdCancel},
		{Name: "delete", Aliases: []string{"rm"}, Usage: "delete", Desc: "Delete the event being viewed.", Run: cmdDelete},
		{Name: "close", Usage: "close", Desc: "Close the dialog.", Run: cmdClose},
		{Name: "state", Usage: "state", Desc: "Show the dialog state.", Run: cmdState},
	} {
		if err := r.register(cmd); err != nil {
			return err
		}
	}
	return nil
}

func registerQueryCommands(r *registry) error {
	for _, cmd := range []command{
		{Name: "list", Aliases: []string{"ls"}, Usage: "list [FROM [TO]] [type=TYPE]", Desc: "List events.", Run: cmdList},
		{Name: "users", Usage: "users [QUERY]", Desc: "List or search the user directory.", Run: cmdUsers},
		{Name: "reload", Usage: "reload", Desc: "Fetch the events again.", Run: cmdReload},
	} {
		if err := r.register(cmd); err != nil {
			return err
		}
	}
	return nil
}

func registerCoreCommands(r *registry) error {
	for _, cmd := range []command{
		{Name: "help", Usage: "help [command]", Desc: "Show available commands.", Run: cmdHelp},
		{Name: "quit", Aliases: []string{"exit"}, Usage: "quit", Desc: "Leave the console.", Run: cmdQuit},
	} {
		if err := r.register(cmd); err != nil {
			return err
		}
	}
	return nil
}

func cmdHelp(_ context.Context, c *Console, args []string) error {
	switch len(args) {
	case 0:
		c.reg.writeSummary(c.out)
		return nil
	case 1:
		return c.reg.writeHelp(c.out, args[0])
	default:
		return errors.New("usage: help [command]")
	}
}

func cmdQuit(context.Context, *Console, []string) error {
	return errQuit
}

func cmdNew(ctx context.Context, c *Console, args []string) error {
	if len(args) != 0 {
		return errors.New("usage: new")
	}
	if err := c.session.Dialog.NewEvent(); err != nil {
		return err
	}
	return cmdState(ctx, c, nil)
}

func cmdSlot(ctx context.Context, c *Console, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("usage: slot START [END]")
	}
	start, err := models.ParseLocalTime(args[0], c.session.Location())
	if err != nil {
		return err
	}
	var end time.Time
	if len(args) == 2 {
		if end, err = models.ParseLocalTime(args[1], c.session.Location()); err != nil {
			return err
		}
	}
	if err := c.session.SlotSelected(start, end); err != nil {
		return err
	}
	return cmdState(ctx, c, nil)
}

func cmdOpen(ctx context.Context, c *Console, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: open ID")
	}
	if err := c.session.EventSelected(args[0]); err != nil {
		return err
	}
	return cmdState(ctx, c, nil)
}

func cmdEdit(ctx context.Context, c *Console, args []string) error {
	if len(args) != 0 {
		return errors.New("usage: edit")
	}
	if err := c.session.Dialog.Edit(); err != nil {
		return err
	}
	return cmdState(ctx, c, nil)
}

func cmdSet(_ context.Context, c *Console, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: set FIELD VALUE")
	}
	field := strings.ToLower(args[0])
	value := strings.Join(args[1:], " ")
	loc := c.session.Location()

	var apply func(*dialog.Draft)
	switch field {
	case "title":
		apply = func(d *dialog.Draft) { d.Title = value }
	case "description", "desc":
		apply = func(d *dialog.Draft) { d.Description = value }
	case "location":
		apply = func(d *dialog.Draft) { d.Location = value }
	case "start", "end":
		t, err := models.ParseLocalTime(value, loc)
		if err != nil {
			return err
		}
		if field == "start" {
			apply = func(d *dialog.Draft) { d.Start = t }
		} else {
			apply = func(d *dialog.Draft) { d.End = t }
		}
	case "type":
		et, err := models.ParseEventType(value)
		if err != nil {
			return err
		}
		apply = func(d *dialog.Draft) { d.Type = et }
	default:
		return fmt.Errorf("unknown field %q", args[0])
	}
	return c.session.Dialog.UpdateDraft(apply)
}

func cmdAttendee(_ context.Context, c *Console, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: attendee add|rm ID")
	}
	switch args[0] {
	case "add":
		return c.session.Dialog.AddAttendee(args[1])
	case "rm", "remove":
		return c.session.Dialog.RemoveAttendee(args[1])
	default:
		return errors.New("usage: attendee add|rm ID")
	}
}

func cmdSave(ctx context.Context, c *Console, _ []string) error {
	ev, err := c.session.Dialog.Commit(ctx)
	if err != nil {
		return err
	}
	if ev.ID == "" {
		c.printf("saved\n")
		return nil
	}
	c.printf("saved %s\n", ev.ID)
	return nil
}

func cmdCancel(_ context.Context, c *Console, _ []string) error {
	return c.session.Dialog.Cancel()
}

func cmdDelete(ctx context.Context, c *Console, _ []string) error {
	err := c.session.Dialog.Delete(ctx, c)
	if errors.Is(err, dialog.ErrNotConfirmed) {
		c.printf("not deleted\n")
		return nil
	}
	return err
}

func cmdClose(_ context.Context, c *Console, _ []string) error {
	return c.session.Dialog.Close()
}

func cmdState(_ context.Context, c *Console, _ []string) error {
	switch st := c.session.Dialog.State().(type) {
	case dialog.Viewing:
		PrintDetails(c.out, c.session.Describe(st.Event))
	case dialog.Editing:
		c.printf("editing\n")
		PrintDraft(c.out, st.Draft, c.session.Location())
	case dialog.Creating:
		c.printf("creating\n")
		PrintDraft(c.out, st.Draft, c.session.Location())
	default:
		c.printf("closed\n")
	}
	return nil
}

func cmdList(_ context.Context, c *Console, args []string) error {
	var (
		bounds []time.Time
		types  []models.EventType
	)
	for _, a := range args {
		if v, ok := strings.CutPrefix(a, "type="); ok {
			et, err := models.ParseEventType(v)
			if err != nil {
				return err
			}
			types = append(types, et)
			continue
		}
		t, err := models.ParseLocalTime(a, c.session.Location())
		if err != nil {
			return err
		}
		bounds = append(bounds, t)
	}
	if len(bounds) > 2 {
		return errors.New("usage: list [FROM [TO]] [type=TYPE]")
	}
	var from, to time.Time
	if len(bounds) > 0 {
		from = bounds[0]
	}
	if len(bounds) > 1 {
		to = bounds[1]
	}
	if err := c.session.LoadErr(); err != nil {
		return fmt.Errorf("events unavailable: %w", err)
	}
	PrintAgenda(c.out, c.session.Agenda(from, to, types...))
	return nil
}

func cmdUsers(_ context.Context, c *Console, args []string) error {
	if len(args) > 0 {
		PrintOptions(c.out, c.session.Resolver.Search(strings.Join(args, " ")))
		return nil
	}
	PrintUsers(c.out, c.session.Directory.Grouped())
	return nil
}

func cmdReload(ctx context.Context, c *Console, _ []string) error {
	return c.session.Reload(ctx)
}
