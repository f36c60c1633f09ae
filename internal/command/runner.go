package command

import (
	"context"
	"os/exec"
	"strings"

	"github.com/papapumpkin/limar/internal/errs"
	"github.com/papapumpkin/limar/internal/query"
	"go.uber.org/zap"
)

// Entity is a single piece of structured command output, as produced by a
// query/action's jq parse expression and later merged by subject.
type Entity = map[string]any

// ModuleInvoker dispatches a `{{ module.method(args) }}` subquery or a `-`
// LIMAR subcommand to the live module instance of the orchestrator this
// runner is wired into.
type ModuleInvoker interface {
	Invoke(module, method string, args []string) (any, error)
}

// CommandItem is the runnable projection of a manifest item tagged
// `command`: everything the runner needs that isn't the parsed Command
// itself. Populated by whichever layer bridges manifest items into the
// command engine (the `command` orchestrator module).
type CommandItem struct {
	Ref                    string
	Kind                   string // "query" or "action"
	Cmd                    *Command
	ParseExpr              string // query/action's jq parse expression, if any
	Dependencies           []string
	TransitiveDependencies []string
	TransitiveDependants   []string
	CacheEnabled           bool
	CacheRetention         string // "batch", "session", ...
}

// SubjectItem is the runnable projection of a manifest item tagged
// `subject`.
type SubjectItem struct {
	Ref string
	ID  string
}

// SubcommandResult is the outcome of running one subcommand.
type SubcommandResult struct {
	Status int
	Stdout any
	Stderr string
}

func (s SubcommandResult) toMap() map[string]any {
	return map[string]any{"status": s.Status, "stdout": s.Stdout, "stderr": s.Stderr}
}

// Runner executes command items (queries and actions) for a pre-computed
// set of command items, in dependency order. Grounded on
// modules/command.py's CommandRunner in the LIMAR original.
type Runner struct {
	log     *zap.SugaredLogger
	invoker ModuleInvoker
	cache   *CacheUtils

	subjects map[string]SubjectItem
	items    map[string]*CommandItem
	order    []string
	index    map[string]int
}

// NewRunner builds a Runner for the given subject and command item sets,
// resolving the command items' declared dependency graph via topological
// sort. Returns a CommandRunError if the graph has a cycle.
func NewRunner(
	subjects map[string]SubjectItem,
	items map[string]*CommandItem,
	cache *CacheUtils,
	invoker ModuleInvoker,
	log *zap.SugaredLogger,
) (*Runner, error) {
	order, err := topoOrderCommandItems(items)
	if err != nil {
		return nil, err
	}
	index := make(map[string]int, len(order))
	for i, ref := range order {
		index[ref] = i
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Runner{
		log: log, invoker: invoker, cache: cache,
		subjects: subjects, items: items, order: order, index: index,
	}, nil
}

// NewBatch creates a fresh CommandBatch for the given subject against this
// runner's item sets and dependency order.
func (r *Runner) NewBatch(subject []string) *Batch {
	return newBatch(subject, r)
}

// RunQuery runs item's command and parses its output with item's jq parse
// expression, keeping only the first emitted value.
func (r *Runner) RunQuery(ref string, item *CommandItem) (any, error) {
	outputs, err := r.RunCommand(ref, item.Cmd)
	if err != nil {
		return nil, err
	}
	r.log.Debugw("query parser", "ref", ref, "parse", item.ParseExpr)
	results, err := query.JQ(item.ParseExpr, outputs, true)
	if err != nil {
		return nil, errs.Wrap(errs.CommandRunError, err, "parsing output of query %q", ref)
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

// RunAction runs item's command, and if it has a parse expression, parses
// its output the same way RunQuery does; an action with no parse
// expression's output is discarded, matching actions that have no result
// worth forwarding.
func (r *Runner) RunAction(ref string, item *CommandItem) (any, error) {
	outputs, err := r.RunCommand(ref, item.Cmd)
	if err != nil {
		return nil, err
	}
	if item.ParseExpr == "" {
		r.log.Debugw("action has no parse expression, ignoring output", "ref", ref)
		return nil, nil
	}
	results, err := query.JQ(item.ParseExpr, outputs, true)
	if err != nil {
		return nil, errs.Wrap(errs.CommandRunError, err, "parsing output of action %q", ref)
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

// RunCommand evaluates cmd's parameters, then runs every subcommand in
// order, returning each subcommand's raw output.
func (r *Runner) RunCommand(ref string, cmd *Command) ([]any, error) {
	values := map[string]string{}
	for _, p := range cmd.Parameters {
		out, err := r.invokeLimarModule(p.Module, p.Method, p.Args, p.JQTransform, p.PQTransform, p.HasPQ)
		if err != nil {
			return nil, err
		}
		str, ok := out.(string)
		if !ok {
			return nil, errs.New(errs.CommandRunError,
				"evaluation of command parameter %s.%s(...) did not return a string", p.Module, p.Method)
		}
		values[Key(p)] = str
	}

	outputs := make([]any, 0, len(cmd.Subcommands))
	for _, sub := range cmd.Subcommands {
		var res SubcommandResult
		var err error
		switch sub.Type {
		case System:
			res, err = r.runSystemSubcommand(sub, values)
		case Limar:
			res, err = r.runLimarSubcommand(sub, values)
		default:
			err = errs.New(errs.CommandRunError, "unknown subcommand type %q in command %q", sub.Type, ref)
		}
		if err != nil {
			return nil, err
		}
		// Collapsed to a plain map, not the SubcommandResult struct, so the
		// jq/pq parse expressions that consume this slice see JSON-shaped
		// data rather than an opaque Go type.
		outputs = append(outputs, res.toMap())
	}
	return outputs, nil
}

func (r *Runner) runSystemSubcommand(sub Subcommand, values map[string]string) (SubcommandResult, error) {
	line, err := Interpolate(sub.System, values)
	if err != nil {
		return SubcommandResult{}, err
	}
	r.log.Debugw("running system subcommand", "command", line)

	cmd := exec.CommandContext(context.Background(), "sh", "-c", line)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	runErr := cmd.Run()

	status := 0
	if exitErr, ok := runErr.(*exec.ExitError); ok {
		status = exitErr.ExitCode()
	} else if runErr != nil {
		return SubcommandResult{}, errs.Wrap(errs.CommandRunError, runErr, "running %q", line)
	}

	if status != 0 && !sub.AllowedToFail {
		return SubcommandResult{}, errs.New(errs.CommandRunError, "process %q failed with status %d: %s", line, status, stderr.String())
	}
	return SubcommandResult{
		Status: status,
		Stdout: strings.TrimSpace(stdout.String()),
		Stderr: strings.TrimSpace(stderr.String()),
	}, nil
}

func (r *Runner) runLimarSubcommand(sub Subcommand, values map[string]string) (SubcommandResult, error) {
	args, err := InterpolateArgs(sub.LimarArgs, values)
	if err != nil {
		return SubcommandResult{}, err
	}
	out, err := r.invokeLimarModule(sub.LimarModule, sub.LimarMethod, args, sub.JQTransform, sub.PQTransform, sub.HasPQ)
	status := 0
	var stderr string
	if err != nil {
		status = 1
		stderr = err.Error()
	}
	if status != 0 && !sub.AllowedToFail {
		return SubcommandResult{}, errs.Wrap(errs.CommandRunError, err, "limar subcommand %s.%s(...) failed", sub.LimarModule, sub.LimarMethod)
	}
	return SubcommandResult{Status: status, Stdout: out, Stderr: stderr}, nil
}

// invokeLimarModule dispatches to the live module instance and applies the
// jq/pq output transform, if any. A module error is logged and returned;
// runLimarSubcommand turns it into a failed-status result for
// allowed-to-fail subcommands.
func (r *Runner) invokeLimarModule(module, method string, args []string, jq, pq string, hasPQ bool) (any, error) {
	out, err := r.invoker.Invoke(module, method, args)
	if err != nil {
		r.log.Errorw("limar invocation error", "module", module, "method", method, "error", err)
		return nil, err
	}

	switch {
	case hasPQ:
		return query.PQ(pq, out)
	case jq != "":
		results, err := query.JQ(jq, out, true)
		if err != nil {
			return nil, err
		}
		if len(results) == 0 {
			return nil, nil
		}
		return results[0], nil
	default:
		return out, nil
	}
}
