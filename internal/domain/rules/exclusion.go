// Package rules contains the pure eligibility logic of the tagging mechanic.
// This package is PURE and must NOT import any infrastructure packages.
package rules

import "github.com/MRamiBalles/babyturt/internal/domain/entity"

// excluded lists categories that are never tagged or cached: non-ageable,
// high-churn, or meaningless for the mechanic. Matched by exact identifier.
var excluded = map[string]struct{}{
	entity.TypeItem:    {},
	entity.TypeXPOrb:   {},
	entity.TypeArrow:   {},
	entity.TypeFalling: {},
	entity.TypePlayer:  {},
}

// IsExcluded reports whether a category is in the exclusion set.
func IsExcluded(typeID string) bool {
	_, ok := excluded[typeID]
	return ok
}

// ExcludedTypes returns the exclusion set as a list.
func ExcludedTypes() []string {
	out := make([]string, 0, len(excluded))
	for t := range excluded {
		out = append(out, t)
	}
	return out
}

// Taggable reports whether an entity may ever enter the tag state:
// it must exist, carry the ageable capability and not be excluded.
func Taggable(e *entity.Entity) bool {
	return e != nil && e.Ageable != nil && !IsExcluded(e.TypeID)
}
