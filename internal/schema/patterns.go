package schema

import "regexp"

// Fields with these names get a fixed pattern in place of the declared one.
const (
	longitudePattern = `^([-+])?(((\d|[1-9]\d|1[0-7]\d|0{1,3})\.\d*)|(\d|[1-9]\d|1[0-7]\d|0{1,3})|180\.0*|180)$`
	latitudePattern  = `^[\-+]?((0{1,3}|([1-8]\d?))(\.\d*)?|90(\.0*)?)$`
	measurePattern   = `^[0-9]+([.][0-9]+)?$`
)

var specialized = map[string]string{
	"longitude": longitudePattern,
	"latitude":  latitudePattern,
	"angle":     measurePattern,
	"maxSpeed":  measurePattern,
	"minSpeed":  measurePattern,
}

// checkedPattern returns the pattern a required value of spec is matched
// against: the fixed one for specialized names, otherwise spec.Pattern.
func checkedPattern(spec FieldSpec) string {
	if spec.Pattern == "" {
		return ""
	}
	if p, ok := specialized[spec.Name]; ok {
		return p
	}
	return spec.Pattern
}

// compilePattern returns the full-match regexp checked for spec, or nil when
// the field declares no pattern.
func compilePattern(spec FieldSpec) (*regexp.Regexp, error) {
	if spec.Pattern == "" {
		return nil, nil
	}
	if p, ok := specialized[spec.Name]; ok {
		return regexp.Compile(p)
	}
	return regexp.Compile(`^(?:` + spec.Pattern + `)$`)
}
