// Package shellsink accumulates shell commands emitted by modules during a
// run, for a wrapper process to `source` after this process exits. It does
// no escaping: producers are responsible for passing ready-to-source lines.
package shellsink

import (
	"os"
	"strings"

	"github.com/papapumpkin/limar/internal/errs"
)

// Sink is an ordered list of shell command strings awaiting write-out.
type Sink struct {
	path     string
	commands []string
}

// New creates a Sink that will write to path when Write is called.
func New(path string) *Sink {
	return &Sink{path: path}
}

// Add appends a ready-to-source shell command line.
func (s *Sink) Add(command string) {
	s.commands = append(s.commands, command)
}

// Commands returns the accumulated commands in insertion order.
func (s *Sink) Commands() []string {
	out := make([]string, len(s.commands))
	copy(out, s.commands)
	return out
}

// Write emits the accumulated commands, one per line, to the sink's path.
func (s *Sink) Write() error {
	content := strings.Join(s.commands, "\n")
	if len(s.commands) > 0 {
		content += "\n"
	}
	if err := os.WriteFile(s.path, []byte(content), 0o644); err != nil {
		return errs.Wrap(errs.InternalError, err, "writing shell script sink to %q", s.path)
	}
	return nil
}
