package command

import (
	"strings"

	"github.com/papapumpkin/limar/internal/errs"
)

// Key identifies a Param by its evaluated identity (module, method, args,
// transform), so repeated occurrences of the same subquery across
// subcommands can share one evaluated value.
func Key(p Param) string {
	return paramKey(p)
}

// Interpolate renders an Interpolatable to a string, substituting each
// *Param fragment with its pre-evaluated value from values (keyed by Key).
func Interpolate(i Interpolatable, values map[string]string) (string, error) {
	var sb strings.Builder
	for _, f := range i {
		switch v := f.(type) {
		case string:
			sb.WriteString(v)
		case *Param:
			val, ok := values[Key(*v)]
			if !ok {
				return "", errs.New(errs.CommandRunError,
					"no evaluated value for parameter %s.%s(...)", v.Module, v.Method)
			}
			sb.WriteString(val)
		}
	}
	return sb.String(), nil
}

// InterpolateArgs renders each grouped Interpolatable (eg. a LIMAR
// subcommand's comma-separated argument list) to its final string value.
func InterpolateArgs(args []Interpolatable, values map[string]string) ([]string, error) {
	out := make([]string, len(args))
	for i, arg := range args {
		s, err := Interpolate(arg, values)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}
