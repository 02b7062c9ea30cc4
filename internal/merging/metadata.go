package merging

import (
	"unicode/utf8"

	"github.com/i18nmerge/i18nmerge/internal/objlit"
)

const (
	contentField = "content"
	hashField    = "hash"
)

var metadataRules = mergeRules{
	object: func(_ string, ours, theirs *objlit.Object) (any, bool) {
		if isScopeEntry(ours) && isScopeEntry(theirs) {
			return PreferScope(ours, theirs), true
		}
		return nil, false
	},
	leaf: preferChanged,
	root: func(ours, theirs *objlit.Object) (*objlit.Object, bool) {
		if isScopeEntry(ours) && isScopeEntry(theirs) {
			return PreferScope(ours, theirs), true
		}
		return nil, false
	},
}

// MergeMetadataFragment reconciles the two sides of a conflict inside meta.json. Both
// sides are parsed as JSON (a bare member list is accepted) and merged key by key; scope
// entries present on both sides are decided by PreferScope, as is a region holding the
// body of a single scope entry on both sides. If only one side parses it is
// returned as is, and if neither does the literal ours side is returned.
func MergeMetadataFragment(ours, theirs string) string {
	merged, _ := mergeMetadataFragment(ours, theirs)
	return merged
}

func mergeMetadataFragment(ours, theirs string) (string, bool) {
	return mergeFragments(ours, theirs, objlit.Strict, metadataRules)
}

// PreferScope picks between two versions of the same scope entry. The one with the
// longer content wins. With equal lengths a differing hash marks theirs as the newer
// edit, otherwise ours is kept.
func PreferScope(ours, theirs *objlit.Object) *objlit.Object {
	oursLen := utf8.RuneCountInString(stringField(ours, contentField))
	theirsLen := utf8.RuneCountInString(stringField(theirs, contentField))

	switch {
	case theirsLen > oursLen:
		return theirs
	case oursLen > theirsLen:
		return ours
	case stringField(ours, hashField) != stringField(theirs, hashField):
		return theirs
	default:
		return ours
	}
}

func isScopeEntry(obj *objlit.Object) bool {
	_, hasContent := obj.Get(contentField)
	_, hasHash := obj.Get(hashField)
	return hasContent || hasHash
}

func stringField(obj *objlit.Object, key string) string {
	v, _ := obj.Get(key)
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	default:
		return objlit.DefaultEncoder.Encode(val)
	}
}
