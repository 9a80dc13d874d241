package schema

import (
	"regexp"

	"github.com/mtconnect-oss/mtcagent/cmn"
)

// restrictedXPath is the grammar spec.md §4.2 and §8 require support for:
//
//	//DataItem[@attr="value"]   — predicate on a DataItem attribute
//	//ComponentName             — bare component-type path, never matches
//	                              a DataItem predicate (seed scenario #6)
//
// This is deliberately far short of general XPath; SPEC_FULL.md's Open
// Questions section records that as a decision, not an oversight.
var dataItemPredicate = regexp.MustCompile(`^//DataItem\[@(\w+)\s*=\s*"([^"]*)"\]$`)
var bareComponentPath = regexp.MustCompile(`^//(\w+)$`)

// ParsedPath is a validated query path, ready to be matched against a
// device's data items.
type ParsedPath struct {
	attr  string // "" for a bare component path
	value string
	raw   string
}

// ParsePath validates expr against the restricted grammar. A syntax
// failure yields INVALID_XPATH (spec.md §7); a path that parses is always
// returned, and whether it matches anything is a separate question
// answered by PathValidation/UNSUPPORTED.
func ParsePath(expr string) (*ParsedPath, error) {
	if m := dataItemPredicate.FindStringSubmatch(expr); m != nil {
		return &ParsedPath{attr: m[1], value: m[2], raw: expr}, nil
	}
	if bareComponentPath.MatchString(expr) {
		return &ParsedPath{raw: expr}, nil
	}
	return nil, cmn.NewQueryError(cmn.ErrInvalidXPath, "cannot parse path %q", expr)
}

// attrValue extracts the value of a DataItem's given attribute name; only
// the attributes a real DataItem predicate can reference are supported.
func (di *DataItem) attrValue(attr string) (string, bool) {
	switch attr {
	case "id":
		return di.ID, true
	case "name":
		return di.Name, true
	case "type":
		return di.Type, true
	case "subType":
		return di.SubType, true
	case "category":
		return string(di.Category), true
	case "units":
		return di.Units, true
	default:
		return "", false
	}
}

// Matches reports whether di satisfies p. A bare component path never
// matches a DataItem (spec.md seed scenario #6: "//Axes ... returns
// false" when evaluated as a DataItem predicate).
func (p *ParsedPath) Matches(di *DataItem) bool {
	if p.attr == "" {
		return false
	}
	v, ok := di.attrValue(p.attr)
	return ok && v == p.value
}

// PathValidation evaluates p against every DataItem of the given devices,
// returning true iff at least one matches (spec.md §4.2).
func (r *Registry) PathValidation(p *ParsedPath, uuids []string) bool {
	for _, uuid := range uuids {
		idx, ok := r.load().byUUID[uuid]
		if !ok {
			continue
		}
		for _, entry := range idx.walkList {
			for _, di := range entry.Samples {
				if p.Matches(di) {
					return true
				}
			}
			for _, di := range entry.Events {
				if p.Matches(di) {
					return true
				}
			}
			for _, di := range entry.Conditions {
				if p.Matches(di) {
					return true
				}
			}
		}
	}
	return false
}

// FilterDataItem reports whether di should be included in a response
// filtered by p. Unlike PathValidation (which only asks "does anything
// match, anywhere"), this is evaluated per data item while assembling a
// response body.
func (p *ParsedPath) FilterDataItem(di *DataItem) bool {
	if p == nil {
		return true
	}
	return p.Matches(di)
}
