package builtin

import "github.com/papapumpkin/limar/internal/manifest"

// All returns the factories for every built-in context module, in the
// order the manifest module registers them by default.
func All() []manifest.Factory {
	return []manifest.Factory{
		Tags(),
		Tool(),
		Query(),
		Action(),
		Command(),
		Cache(),
		Subjects(),
		Subject(),
		PrimarySubject(),
		UrisLocal(),
		UrisRemote(),
	}
}
