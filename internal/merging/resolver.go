package merging

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/i18nmerge/i18nmerge/internal/conflicts"
	"github.com/i18nmerge/i18nmerge/internal/objlit"
)

// Resolve reconciles every conflict section in content, which was read from fileID.
//
// Content without conflict markers is returned unchanged. With the smart strategy the
// resolved text is validated for its format and rejected with ErrInvalidSyntax if it
// would no longer parse. Resolve never mutates its input and the returned Result carries
// resolved content only on success.
func Resolve(content, fileID string, cfg Config) *Result {
	cfg = cfg.withDefaults()

	res := &Result{
		Path:     fileID,
		Kind:     KindOf(fileID),
		Strategy: cfg.Strategy,
	}

	if size := int64(len(content)); size > cfg.MaxFileSize {
		res.Err = errors.Wrapf(ErrFileTooLarge, "%s exceeds the %s limit",
			humanize.IBytes(uint64(size)), humanize.IBytes(uint64(cfg.MaxFileSize)))
		return res
	}

	if !conflicts.HasMarkers(content) {
		if conflicts.ContainsMarkerLines(content) {
			res.Err = errors.Wrap(ErrInvalidMarkers, "conflict markers are unbalanced or incomplete")
			return res
		}
		res.Success = true
		res.Content = content
		return res
	}

	sections := conflicts.Parse(content)
	if len(sections) == 0 {
		res.Err = errors.Wrap(ErrInvalidMarkers, "no well-formed conflict sections found")
		return res
	}

	resolve := res.sectionResolver(cfg)
	resolved, err := conflicts.Resolve(content, resolve)
	if err != nil {
		res.Err = errors.Wrap(err, "resolving conflicts")
		return res
	}

	if cfg.Strategy == StrategySmart {
		if err := validate(res.Kind, resolved); err != nil {
			res.Err = err
			res.Notes = nil
			res.Fallbacks = 0
			return res
		}
	}

	res.Success = true
	res.ConflictsResolved = len(sections)
	res.Content = resolved
	if cfg.Verbose {
		res.Details = fmt.Sprintf("Resolved %d conflict(s) in %s using %s strategy", len(sections), fileID, cfg.Strategy)
	}

	return res
}

// sectionResolver returns the per-section resolution for cfg. Each section is decided on
// its own; only the fallback tally is shared.
func (r *Result) sectionResolver(cfg Config) conflicts.ResolveFunc {
	index := 0
	return func(section conflicts.Section) (string, error) {
		index++

		switch cfg.Strategy {
		case StrategyOurs:
			return section.Ours, nil
		case StrategyTheirs:
			return section.Theirs, nil
		case StrategySmart:
		default:
			return "", fmt.Errorf("unsupported strategy %q", cfg.Strategy)
		}

		var (
			merged string
			ok     bool
		)
		switch r.Kind {
		case KindMetadata:
			merged, ok = mergeMetadataFragment(section.Ours, section.Theirs)
		case KindDictionary:
			merged, ok = mergeDictionaryFragment(section.Ours, section.Theirs)
		default:
			return section.Ours, nil
		}

		if !ok {
			r.Fallbacks++
			if cfg.Verbose {
				r.Notes = append(r.Notes, fmt.Sprintf("conflict %d (%s vs %s) could not be parsed, kept %s",
					index, section.OursLabel, section.TheirsLabel, section.OursLabel))
			}
		}
		return merged, nil
	}
}

// validate checks that resolved text still parses as its format.
func validate(kind FileKind, text string) error {
	switch kind {
	case KindMetadata:
		if !gjson.Valid(text) {
			return errors.Wrap(ErrInvalidSyntax, "resolved metadata is not valid JSON")
		}
	case KindDictionary:
		v, err := objlit.ParseModule(text)
		if err != nil {
			return errors.Wrapf(ErrInvalidSyntax, "resolved dictionary does not parse: %s", err)
		}
		if _, ok := v.(*objlit.Object); !ok {
			return errors.Wrapf(ErrInvalidSyntax, "resolved dictionary exports %s, expected an object", objlit.TypeName(v))
		}
	}
	return nil
}
