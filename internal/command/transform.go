// Package command implements the subcommand transformer: parsing the
// `&&`-joined, `!`/`-`-marked subcommand strings used by manifest command
// contexts (and, later, run directly by the command engine) into a typed
// AST, and interpolating `{{ module.method(args) : jq }}` subqueries within
// them. Ported from modules/command_utils/command_transformer.py in the
// LIMAR original.
package command

import (
	"regexp"
	"strings"

	"github.com/papapumpkin/limar/internal/errs"
)

// SubcommandType distinguishes a system (shell) subcommand from a LIMAR
// module invocation.
type SubcommandType string

const (
	System SubcommandType = "system"
	Limar  SubcommandType = "limar"
)

// Fragment is either a literal string or a *Param, interleaved to form an
// Interpolatable: a piece of text with embedded `{{ ... }}` subqueries.
type Fragment any

// Interpolatable is a sequence of literal-text and *Param fragments, with
// leading/trailing empty-string fragments stripped.
type Interpolatable []Fragment

// Param is a single `{{ module.method(args) : jq }}` or `{{ ... :: pq }}`
// subquery appearing inside an Interpolatable.
type Param struct {
	Module string
	Method string
	Args   []string
	// Exactly one of JQTransform/PQTransform is populated, per HasPQ.
	JQTransform string
	PQTransform string
	HasPQ       bool
}

// Subcommand is a single `&&`-joined unit of a command string.
type Subcommand struct {
	Type          SubcommandType
	AllowedToFail bool

	// Populated when Type == System.
	System Interpolatable

	// Populated when Type == Limar.
	LimarModule string
	LimarMethod string
	LimarArgs   []Interpolatable
	JQTransform string
	PQTransform string
	HasPQ       bool

	Parameters []Param
}

// Command is a full `&&`-chained subcommand sequence, as attached to a
// manifest item by the command/query/action context modules.
type Command struct {
	Subcommands []Subcommand
	Parameters  []Param
}

var (
	andSplitRe  = regexp.MustCompile(`[ \n]&&[ \n]`)
	paramRe     = regexp.MustCompile(`\{\{ ([a-z0-9-]*)\.([a-z0-9_]*)\((.*)\) (: (.*)|:: (.*)) \}\}`)
	limarCallRe = regexp.MustCompile(`^([a-z0-9-]*)\.([a-z0-9_]*)\((.*)\) (: (.*)|:: (.*))$`)
)

// Parse splits raw on `&&` (surrounded by a space or newline on each side)
// and parses each resulting subcommand, detecting the `- ` (LIMAR) and
// `! ` (allowed-to-fail) prefix markers.
func Parse(raw string) (*Command, error) {
	rawSubcommands := andSplitRe.Split(raw, -1)
	cmd := &Command{Subcommands: make([]Subcommand, len(rawSubcommands))}

	paramSet := map[string]Param{}
	for i, rawSub := range rawSubcommands {
		rawSub = strings.TrimSpace(rawSub)
		sub := Subcommand{Type: System}

		switch {
		case strings.HasPrefix(rawSub, "- "):
			sub.Type = Limar
			rawSub = rawSub[2:]
		case strings.HasPrefix(rawSub, "! "):
			sub.AllowedToFail = true
			rawSub = rawSub[2:]
		}

		switch sub.Type {
		case System:
			fragments, params := splitFragmentsParams(rawSub)
			sub.System = chainFragmentsParams(fragments, params)
			sub.Parameters = params

		case Limar:
			m := limarCallRe.FindStringSubmatch(rawSub)
			if m == nil {
				return nil, errs.New(errs.CommandParseError, "failed to parse limar subcommand %q", rawSub)
			}
			sub.LimarModule, sub.LimarMethod = m[1], m[2]
			if m[6] != "" {
				sub.HasPQ = true
				sub.PQTransform = m[6]
			} else {
				sub.JQTransform = m[5]
			}

			fragments, params := splitFragmentsParams(m[3])
			for _, group := range groupFragmentsParams(fragments, params, ", ") {
				sub.LimarArgs = append(sub.LimarArgs, chainFragmentsParams(group.fragments, group.params))
			}
			sub.Parameters = params
		}

		for _, p := range sub.Parameters {
			paramSet[paramKey(p)] = p
		}
		cmd.Subcommands[i] = sub
	}

	for _, p := range paramSet {
		cmd.Parameters = append(cmd.Parameters, p)
	}
	return cmd, nil
}

func paramKey(p Param) string {
	var sb strings.Builder
	sb.WriteString(p.Module)
	sb.WriteByte('\x00')
	sb.WriteString(p.Method)
	sb.WriteByte('\x00')
	sb.WriteString(strings.Join(p.Args, "\x00"))
	sb.WriteByte('\x00')
	sb.WriteString(p.JQTransform)
	sb.WriteByte('\x00')
	sb.WriteString(p.PQTransform)
	return sb.String()
}

// splitFragmentsParams splits s on every `{{ ... }}` subquery, returning
// the literal text between matches (len(fragments) == len(params)+1) and
// the parsed Param for each match, in order.
func splitFragmentsParams(s string) (fragments []string, params []Param) {
	matches := paramRe.FindAllStringSubmatchIndex(s, -1)
	last := 0
	for _, m := range matches {
		fragments = append(fragments, s[last:m[0]])
		params = append(params, paramFromSubmatch(s, m))
		last = m[1]
	}
	fragments = append(fragments, s[last:])
	return fragments, params
}

func paramFromSubmatch(s string, m []int) Param {
	group := func(i int) string {
		if m[2*i] < 0 {
			return ""
		}
		return s[m[2*i]:m[2*i+1]]
	}
	p := Param{
		Module: group(1),
		Method: group(2),
		Args:   strings.Split(group(3), ", "),
	}
	if pq := group(6); pq != "" {
		p.HasPQ = true
		p.PQTransform = pq
	} else {
		p.JQTransform = group(5)
	}
	return p
}

type fragmentParamGroup struct {
	fragments []string
	params    []Param
}

// groupFragmentsParams re-splits fragments/params on delim (eg. ", " to
// separate a LIMAR call's comma-joined arguments), producing one
// fragments/params group per resulting argument.
func groupFragmentsParams(fragments []string, params []Param, delim string) []fragmentParamGroup {
	groups := []fragmentParamGroup{{}}

	for i := 0; i < len(fragments)-1; i++ {
		parts := strings.Split(fragments[i], delim)
		last := &groups[len(groups)-1]
		last.fragments = append(last.fragments, parts[0])
		for _, part := range parts[1:] {
			groups = append(groups, fragmentParamGroup{fragments: []string{part}})
		}
		groups[len(groups)-1].params = append(groups[len(groups)-1].params, params[i])
	}

	parts := strings.Split(fragments[len(fragments)-1], delim)
	last := &groups[len(groups)-1]
	last.fragments = append(last.fragments, parts[0])
	for _, part := range parts[1:] {
		groups = append(groups, fragmentParamGroup{fragments: []string{part}})
	}

	return groups
}

// chainFragmentsParams interleaves fragments and params (fragment, param,
// fragment, param, ..., fragment) and strips empty leading/trailing
// literal-string fragments.
func chainFragmentsParams(fragments []string, params []Param) Interpolatable {
	var out Interpolatable
	for i, p := range params {
		if fragments[i] != "" {
			out = append(out, fragments[i])
		}
		p := p
		out = append(out, &p)
	}
	if last := fragments[len(fragments)-1]; last != "" {
		out = append(out, last)
	}
	return out
}
