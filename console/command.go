package console

import (
	"errors"
	"strings"
	"sync"
)

// ErrUnknownCommand is returned by Dispatch when no command name prefixes the line
var ErrUnknownCommand = errors.New("unknown command")

// Handler runs a console command. args is the rest of the line after the
// command name with surrounding spaces removed.
type Handler func(args string) error

// Command is a console command matched by name prefix
type Command struct {
	Name    string
	Help    string
	Handler Handler
}

// Registry holds the console commands
type Registry struct {
	mu       sync.RWMutex
	commands []*Command
	byName   map[string]*Command
}

// NewRegistry creates an empty command registry
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*Command),
	}
}

// Register adds a command. Registering a name twice keeps the first handler.
func (r *Registry) Register(name, help string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[name]; exists {
		return
	}
	cmd := &Command{Name: name, Help: help, Handler: handler}
	r.commands = append(r.commands, cmd)
	r.byName[name] = cmd
}

// Lookup finds the command whose name is the longest prefix of line and
// returns it with the remaining arguments
func (r *Registry) Lookup(line string) (*Command, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	line = strings.TrimSpace(line)
	var best *Command
	for _, cmd := range r.commands {
		if !strings.HasPrefix(line, cmd.Name) {
			continue
		}
		if best == nil || len(cmd.Name) > len(best.Name) {
			best = cmd
		}
	}
	if best == nil {
		return nil, "", false
	}
	return best, strings.TrimSpace(line[len(best.Name):]), true
}

// Dispatch runs the command matching line
func (r *Registry) Dispatch(line string) error {
	cmd, args, ok := r.Lookup(line)
	if !ok {
		return ErrUnknownCommand
	}
	return cmd.Handler(args)
}

// Count returns the number of registered commands
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Commands returns the commands in registration order
func (r *Registry) Commands() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// Help returns one line per command, "name - help"
func (r *Registry) Help() string {
	var sb strings.Builder
	for _, cmd := range r.Commands() {
		sb.WriteString(cmd.Name)
		if cmd.Help != "" {
			sb.WriteString(" - ")
			sb.WriteString(cmd.Help)
		}
		sb.WriteString("\r\n")
	}
	return sb.String()
}
