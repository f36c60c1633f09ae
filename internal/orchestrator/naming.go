package orchestrator

import (
	"regexp"
	"strings"
)

var (
	lowerThenUpperRun = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	upperRunThenWord  = regexp.MustCompile(`(.)([A-Z][a-z]+)`)
)

// classToModuleName converts a Go exported type name such as "CacheModule"
// or "HTTPClientModule" into its kebab-case module name, "cache" and
// "http-client" respectively. The "Module" suffix, if present, is dropped.
func classToModuleName(name string) string {
	name = upperRunThenWord.ReplaceAllString(name, `${1}-${2}`)
	name = lowerThenUpperRun.ReplaceAllString(name, `${1}-${2}`)
	name = strings.ToLower(name)
	return strings.TrimSuffix(name, "-module")
}
