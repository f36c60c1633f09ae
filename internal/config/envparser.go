// Package config provides the namespaced environment-variable parser used
// to configure the orchestrator and its modules.
package config

import (
	"strconv"
	"strings"

	"github.com/papapumpkin/limar/internal/errs"
	"github.com/spf13/viper"
)

type varSpec struct {
	name        string
	hasDefault  bool
	defaultVal  string
}

// EnvironmentParser builds a namespaced tree of environment variable
// definitions. Each module gets its own sub-parser (via Sub), so a variable
// named "retries" registered under the "command" sub-parser of an app
// named "limar" resolves to the env var LIMAR_COMMAND_RETRIES.
type EnvironmentParser struct {
	prefix string
	spec   map[string]varSpec
	subs   []*EnvironmentParser
	names  []string
}

// NewEnvironmentParser creates the root parser for the given application
// name. An empty appName produces no namespace prefix.
func NewEnvironmentParser(appName string) *EnvironmentParser {
	prefix := ""
	if appName != "" {
		prefix = envCase(appName) + "_"
	}
	return &EnvironmentParser{prefix: prefix, spec: map[string]varSpec{}}
}

// Sub returns a new child parser namespaced under this parser's prefix plus
// name, and remembers it for Parse.
func (p *EnvironmentParser) Sub(name string) *EnvironmentParser {
	child := &EnvironmentParser{prefix: p.prefix + envCase(name) + "_", spec: map[string]varSpec{}}
	p.subs = append(p.subs, child)
	return child
}

// Var registers a required variable with no default; Parse fails if it is
// unset.
func (p *EnvironmentParser) Var(name string) {
	p.add(name, varSpec{name: name})
}

// VarDefault registers a variable with a default value used when the
// corresponding environment variable is unset.
func (p *EnvironmentParser) VarDefault(name, def string) {
	p.add(name, varSpec{name: name, hasDefault: true, defaultVal: def})
}

// FullName returns the fully-namespaced environment variable name a call
// to Var/VarDefault(name) on this parser resolves to, for later lookup
// against a parsed Env.
func (p *EnvironmentParser) FullName(name string) string {
	return p.prefix + envCase(name)
}

func (p *EnvironmentParser) add(name string, v varSpec) {
	full := p.prefix + envCase(name)
	p.names = append(p.names, full)
	p.spec[full] = v
}

// Env is the parsed result of an EnvironmentParser: a flat map of fully
// namespaced variable names to their resolved string values.
type Env struct {
	values map[string]string
}

func (e *Env) String(fullName string) (string, bool) {
	v, ok := e.values[fullName]
	return v, ok
}

func (e *Env) Bool(fullName string) (bool, error) {
	v, ok := e.values[fullName]
	if !ok {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errs.Wrap(errs.ConfigError, err, "environment variable %q not parsable as bool", fullName)
	}
	return b, nil
}

// Parse resolves every variable registered on this parser and its
// descendants. A nil environ parses the real process environment, backed by
// a viper.Viper instance configured with AutomaticEnv the way the original
// flat Config loader configured one, generalized here to this parser's
// per-module namespace tree via explicit BindEnv calls (one per
// already-namespaced variable name) rather than viper's own prefix/replacer
// guessing. A non-nil environ (used by tests that need a deterministic,
// hermetic environment) is resolved directly against the given
// "KEY=VALUE" pairs instead, bypassing viper.
func (p *EnvironmentParser) Parse(environ []string) (*Env, error) {
	values := map[string]string{}
	if environ != nil {
		raw := map[string]string{}
		for _, kv := range environ {
			if i := strings.IndexByte(kv, '='); i >= 0 {
				raw[kv[:i]] = kv[i+1:]
			}
		}
		if err := p.collectRaw(raw, values); err != nil {
			return nil, err
		}
		return &Env{values: values}, nil
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	if err := p.collectViper(v, values); err != nil {
		return nil, err
	}
	return &Env{values: values}, nil
}

func (p *EnvironmentParser) collectRaw(raw, out map[string]string) error {
	for full, v := range p.spec {
		if val, ok := raw[full]; ok {
			out[full] = val
			continue
		}
		if v.hasDefault {
			out[full] = v.defaultVal
			continue
		}
		return errs.New(errs.ConfigError, "required environment variable %q not set", full)
	}
	for _, sub := range p.subs {
		if err := sub.collectRaw(raw, out); err != nil {
			return err
		}
	}
	return nil
}

func (p *EnvironmentParser) collectViper(v *viper.Viper, out map[string]string) error {
	for full, spec := range p.spec {
		key := strings.ToLower(full)
		if spec.hasDefault {
			v.SetDefault(key, spec.defaultVal)
		}
		_ = v.BindEnv(key, full)
		if !spec.hasDefault && !v.IsSet(key) {
			return errs.New(errs.ConfigError, "required environment variable %q not set", full)
		}
		out[full] = v.GetString(key)
	}
	for _, sub := range p.subs {
		if err := sub.collectViper(v, out); err != nil {
			return err
		}
	}
	return nil
}

func envCase(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}
