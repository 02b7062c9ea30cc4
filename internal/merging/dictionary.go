package merging

import (
	"strings"

	"github.com/i18nmerge/i18nmerge/internal/objlit"
)

var dictionaryRules = mergeRules{
	object: func(key string, ours, theirs *objlit.Object) (any, bool) {
		if key == contentField {
			return MergeLocales(ours, theirs), true
		}
		return nil, false
	},
	leaf: func(key string, ours, theirs any) any {
		if key == contentField {
			if o, t, ok := bothStrings(ours, theirs); ok {
				return PreferTranslation(o, t)
			}
		}
		return preferChanged(key, ours, theirs)
	},
	root: func(ours, theirs *objlit.Object) (*objlit.Object, bool) {
		if isLocaleMap(ours) && isLocaleMap(theirs) {
			return MergeLocales(ours, theirs), true
		}
		return nil, false
	},
}

// MergeDictionaryFragment reconciles the two sides of a conflict inside a dictionary
// module. Sides are parsed as object literals (quotes of either kind, unquoted keys,
// trailing commas and comments are accepted) and merged key by key; `content` locale
// maps are merged locale by locale, including a region cut from inside one. Fallbacks
// match MergeMetadataFragment.
func MergeDictionaryFragment(ours, theirs string) string {
	merged, _ := mergeDictionaryFragment(ours, theirs)
	return merged
}

func mergeDictionaryFragment(ours, theirs string) (string, bool) {
	return mergeFragments(ours, theirs, objlit.Lenient, dictionaryRules)
}

// MergeLocales merges two locale maps. A locale on one side is kept, a locale on both
// sides is decided by PreferTranslation.
func MergeLocales(ours, theirs *objlit.Object) *objlit.Object {
	return mergeObjects(ours, theirs, mergeRules{
		leaf: func(key string, o, t any) any {
			if oursText, theirsText, ok := bothStrings(o, t); ok {
				return PreferTranslation(oursText, theirsText)
			}
			return preferChanged(key, o, t)
		},
	})
}

// PreferTranslation picks between two translations of the same string. A non-empty
// translation beats an empty one; between two non-empty ones the longer (trimmed) wins
// and ties keep ours.
func PreferTranslation(ours, theirs string) string {
	oursLen := len([]rune(strings.TrimSpace(ours)))
	theirsLen := len([]rune(strings.TrimSpace(theirs)))

	if theirsLen > oursLen {
		return theirs
	}
	return ours
}

func bothStrings(a, b any) (string, string, bool) {
	as, aok := a.(string)
	bs, bok := b.(string)
	return as, bs, aok && bok
}

// isLocaleMap reports whether obj holds only string values keyed by something other than
// the entry fields.
func isLocaleMap(obj *objlit.Object) bool {
	if obj.Len() == 0 {
		return false
	}
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Key == contentField || pair.Key == hashField {
			return false
		}
		if _, ok := pair.Value.(string); !ok {
			return false
		}
	}
	return true
}
