package command

import (
	"fmt"
	"strings"
)

// MergeEntities indexes entities by the values of their subject fields,
// shallow-merging every entity that shares a composite key into one. The
// returned map's keys are singular subject values joined by a separator
// when subject has more than one field, matching the original's
// singular-vs-composite subject key in spirit, as a plain string rather
// than a Python tuple.
//
// Entities missing any subject field are dropped: they can't be indexed by
// the requested subject and have no home in the result.
func MergeEntities(entities []Entity, subject []string) map[string]Entity {
	merged := map[string]Entity{}
	for _, e := range entities {
		key, ok := subjectKey(e, subject)
		if !ok {
			continue
		}
		existing, ok := merged[key]
		if !ok {
			existing = Entity{}
		}
		for field, value := range e {
			existing[field] = value
		}
		merged[key] = existing
	}
	return merged
}

const subjectKeySeparator = "\x1f"

func subjectKey(e Entity, subject []string) (string, bool) {
	if len(subject) == 0 {
		return "", false
	}
	parts := make([]string, len(subject))
	for i, field := range subject {
		v, ok := e[field]
		if !ok {
			return "", false
		}
		parts[i] = fmt.Sprintf("%v", v)
	}
	return strings.Join(parts, subjectKeySeparator), true
}
