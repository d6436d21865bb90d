package console

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

type cmdFunc func(ctx context.Context, c *Console, args []string) error

type command struct {
	Name    string
	Aliases []string
	Usage   string
	Desc    string
	Run     cmdFunc
}

// registry keeps commands in registration order so help lists them in the
// same groups they were registered in. Names and aliases share one index.
type registry struct {
	cmds  []command
	index map[string]int
}

func newRegistry() *registry {
	return &registry{index: make(map[string]int)}
}

func (r *registry) register(cmd command) error {
	cmd.Name = strings.ToLower(strings.TrimSpace(cmd.Name))
	if cmd.Name == "" || cmd.Run == nil {
		return fmt.Errorf("command %q: name and handler are required", cmd.Name)
	}

	keys := []string{cmd.Name}
	for _, alias := range cmd.Aliases {
		if alias = strings.ToLower(strings.TrimSpace(alias)); alias != "" {
			keys = append(keys, alias)
		}
	}
	for _, k := range keys {
		if i, ok := r.index[k]; ok {
			return fmt.Errorf("command %q: %q is already taken by %q", cmd.Name, k, r.cmds[i].Name)
		}
	}

	r.cmds = append(r.cmds, cmd)
	for _, k := range keys {
		r.index[k] = len(r.cmds) - 1
	}
	return nil
}

// resolve finds a command by name or alias, case-insensitively.
func (r *registry) resolve(name string) (command, bool) {
	i, ok := r.index[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return command{}, false
	}
	return r.cmds[i], true
}

// writeSummary prints one line per command.
func (r *registry) writeSummary(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, cmd := range r.cmds {
		fmt.Fprintf(tw, "%s\t%s\n", cmd.Usage, cmd.Desc)
	}
	tw.Flush()
}

// writeHelp prints usage, description and aliases of one command.
func (r *registry) writeHelp(w io.Writer, name string) error {
	cmd, ok := r.resolve(name)
	if !ok {
		return fmt.Errorf("unknown command: %s", name)
	}
	fmt.Fprintf(w, "usage: %s\n%s\n", cmd.Usage, cmd.Desc)
	if len(cmd.Aliases) > 0 {
		fmt.Fprintf(w, "aliases: %s\n", strings.Join(cmd.Aliases, ", "))
	}
	return nil
}
