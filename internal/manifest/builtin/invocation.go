package builtin

import "github.com/papapumpkin/limar/internal/command"

// Invocation is the command tree attached to a manifest item by whichever
// of @command, @query, or @action declared it. Kind distinguishes a plain
// declaration ("") from a read-only @query ("query") or a mutating @action
// ("action"); Parse carries @query/@action's result-shaping expression.
type Invocation struct {
	Kind  string
	Parse string
	Cmd   *command.Command
}

// invocationKey is the Item.Extra key under which an *Invocation is
// attached by the command/query/action context modules.
const invocationKey = "command"
