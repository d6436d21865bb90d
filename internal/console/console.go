// Package console is a line-oriented front end for the calendar session.
// Each command maps to one dialog transition or one query.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"teamcal/internal/calendar"
)

const prompt = "teamcal> "

// errQuit ends Run without an error.
var errQuit = errors.New("quit")

// Console reads commands from in and writes results to out.
type Console struct {
	session *calendar.Session
	in      *bufio.Reader
	out     io.Writer
	reg     *registry
}

// New creates a Console over an already mounted session.
func New(session *calendar.Session, in io.Reader, out io.Writer) (*Console, error) {
	c := &Console{
		session: session,
		in:      bufio.NewReader(in),
		out:     out,
	}
	r := newRegistry()
	for _, register := range []func(r *registry) error{
		registerDialogCommands,
		registerQueryCommands,
		registerCoreCommands,
	} {
		if err := register(r); err != nil {
			return nil, err
		}
	}
	c.reg = r
	return c, nil
}

// Run reads commands until EOF, quit, or ctx is done. Command errors are
// printed and do not stop the loop.
func (c *Console) Run(ctx context.Context) error {
	fmt.Fprintln(c.out, `Type "help" for commands.`)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(c.out, prompt)
		line, err := c.readLine()
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(c.out)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		err = c.Exec(ctx, line)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(c.out, "error: %v\n", err)
		}
	}
}

// Exec runs a single command line.
func (c *Console) Exec(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}
	args, ok := parseArgs(line)
	if !ok {
		return errors.New("unterminated quote or escape")
	}
	if len(args) == 0 {
		return nil
	}
	cmd, ok := c.reg.resolve(args[0])
	if !ok {
		return fmt.Errorf("unknown command: %s", args[0])
	}
	return cmd.Run(ctx, c, args[1:])
}

// Confirm asks a yes/no question on the console.
func (c *Console) Confirm(question string) (bool, error) {
	fmt.Fprintf(c.out, "%s [y/N]: ", question)
	line, err := c.readLine()
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (c *Console) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}
