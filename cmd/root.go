// Package cmd provides the limar CLI entrypoint: a thin cobra wrapper
// around the module orchestrator, which owns the actual
// `module args... -> module args...` invocation grammar.
package cmd

import (
	"fmt"
	"os"
	"strings"

	cmdmodule "github.com/papapumpkin/limar/internal/modules/command"
	logmod "github.com/papapumpkin/limar/internal/modules/log"
	manifestmod "github.com/papapumpkin/limar/internal/modules/manifest"
	rendermod "github.com/papapumpkin/limar/internal/modules/render"
	"github.com/papapumpkin/limar/internal/orchestrator"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const appName = "limar"

var rootCmd = &cobra.Command{
	Use:   "limar [module [args...]] ['->' module [args...]]...",
	Short: "Declarative information manifest + module pipeline CLI",
	Long: "limar parses a declarative manifest of items and contexts, then runs one\n" +
		"or more '->'-chained modules against it, threading each module's\n" +
		"return value into the next.",
	// The orchestrator owns argv past the root: it splits global options from
	// the '->'-chained module invocations and parses each invocation's flags
	// against that module's own flag set. Letting cobra parse flags here
	// would collide with module-specific flags (eg. command's -c) that cobra
	// has never seen registered.
	DisableFlagParsing: true,
	RunE:               runRoot,
	SilenceUsage:       true,
}

// Execute runs the root command, printing any returned error and exiting
// non-zero.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runRoot builds the default orchestrator, registers every built-in
// module, and hands the invocation argv to its lifecycle.
func runRoot(_ *cobra.Command, rawArgs []string) error {
	args, sinkPath := extractShellScriptFlag(rawArgs)
	if sinkPath == "" {
		f, err := os.CreateTemp("", appName+"-*-source")
		if err != nil {
			return err
		}
		sinkPath = f.Name()
		_ = f.Close()
	}

	log := zap.NewNop().Sugar()
	o := orchestrator.New(appName, log)

	for name, factory := range defaultModules() {
		if err := o.Register(name, factory); err != nil {
			return err
		}
	}

	return o.Run(args, nil, sinkPath)
}

// defaultModules returns the built-in module set every limar invocation
// registers, keyed by the name other modules depend on and invoke them by.
func defaultModules() map[string]orchestrator.Factory {
	return map[string]orchestrator.Factory{
		"log":      func() orchestrator.Module { return logmod.New() },
		"manifest": func() orchestrator.Module { return manifestmod.New() },
		"command":  func() orchestrator.Module { return cmdmodule.New(nil) },
		"render":   func() orchestrator.Module { return rendermod.New() },
	}
}

// extractShellScriptFlag pulls every "--shell-script PATH" or
// "--shell-script=PATH" out of args, wherever it appears, returning the
// remaining argv and the last path found (empty if the flag was never
// given). It only needs to
// recognise this one global flag: every other flag belongs to whichever
// module it trails, and the orchestrator itself parses those.
func extractShellScriptFlag(args []string) (remaining []string, sinkPath string) {
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--shell-script":
			if i+1 < len(args) {
				sinkPath = args[i+1]
				i++
			}
			continue
		case strings.HasPrefix(a, "--shell-script="):
			sinkPath = strings.TrimPrefix(a, "--shell-script=")
			continue
		}
		remaining = append(remaining, a)
	}
	return remaining, sinkPath
}
