package merging

import (
	"github.com/i18nmerge/i18nmerge/internal/objlit"
)

// mergeRules customise the recursive object merge for one file format.
type mergeRules struct {
	// object may decide a key held as an object on both sides. It reports false to let the
	// merge recurse.
	object func(key string, ours, theirs *objlit.Object) (any, bool)
	// leaf decides a key held on both sides where at least one value is not an object.
	leaf func(key string, ours, theirs any) any
	// root may decide the whole fragment when the conflict region is the body of a single
	// value rather than a list of keyed members.
	root func(ours, theirs *objlit.Object) (*objlit.Object, bool)
}

// mergeFragments parses both sides of a conflict and merges them. It reports false when
// neither side could be merged and the literal ours side was returned.
func mergeFragments(ours, theirs string, mode objlit.Mode, rules mergeRules) (merged string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			merged, ok = ours, false
		}
	}()

	oursObj, layout, oursErr := objlit.ParseFragment(ours, mode)
	theirsObj, _, theirsErr := objlit.ParseFragment(theirs, mode)

	switch {
	case oursErr != nil && theirsErr != nil:
		return ours, false
	case oursErr != nil:
		return theirs, true
	case theirsErr != nil:
		return ours, true
	}

	if rules.root != nil {
		if obj, decided := rules.root(oursObj, theirsObj); decided {
			return layout.Render(obj), true
		}
	}
	return layout.Render(mergeObjects(oursObj, theirsObj, rules)), true
}

// mergeObjects keeps one-sided keys and merges two-sided ones. Ours keys come first in
// ours order, followed by theirs-only keys in theirs order.
func mergeObjects(ours, theirs *objlit.Object, rules mergeRules) *objlit.Object {
	out := objlit.NewObject()

	for pair := ours.Oldest(); pair != nil; pair = pair.Next() {
		other, present := theirs.Get(pair.Key)
		if !present {
			out.Set(pair.Key, pair.Value)
			continue
		}
		out.Set(pair.Key, mergeValues(pair.Key, pair.Value, other, rules))
	}

	for pair := theirs.Oldest(); pair != nil; pair = pair.Next() {
		if _, present := ours.Get(pair.Key); !present {
			out.Set(pair.Key, pair.Value)
		}
	}

	return out
}

func mergeValues(key string, ours, theirs any, rules mergeRules) any {
	oursObj, oursIsObj := ours.(*objlit.Object)
	theirsObj, theirsIsObj := theirs.(*objlit.Object)

	if oursIsObj && theirsIsObj {
		if rules.object != nil {
			if v, decided := rules.object(key, oursObj, theirsObj); decided {
				return v
			}
		}
		return mergeObjects(oursObj, theirsObj, rules)
	}

	return rules.leaf(key, ours, theirs)
}

// preferChanged keeps ours when both values are equal and takes theirs otherwise.
func preferChanged(_ string, ours, theirs any) any {
	if sameValue(ours, theirs) {
		return ours
	}
	return theirs
}

func sameValue(a, b any) bool {
	return objlit.DefaultEncoder.Encode(a) == objlit.DefaultEncoder.Encode(b)
}
