// Package semver implements the version arithmetic a release run needs:
// validation, ordering, bump-keyword increments and tag prefix handling.
// Versions are npm-style ("1.2.3", no leading v); validation and ordering
// delegate to golang.org/x/mod/semver on the canonical v-prefixed form.
package semver

import (
	"fmt"
	"strconv"
	"strings"

	xsemver "golang.org/x/mod/semver"
)

// Bump keywords accepted as run input alongside explicit versions.
const (
	BumpPatch      = "patch"
	BumpMinor      = "minor"
	BumpMajor      = "major"
	BumpPrePatch   = "prepatch"
	BumpPreMinor   = "preminor"
	BumpPreMajor   = "premajor"
	BumpPrerelease = "prerelease"
)

var bumpKeywords = map[string]bool{
	BumpPatch:      true,
	BumpMinor:      true,
	BumpMajor:      true,
	BumpPrePatch:   true,
	BumpPreMinor:   true,
	BumpPreMajor:   true,
	BumpPrerelease: true,
}

// IsBumpKeyword reports whether input is a recognized increment keyword.
func IsBumpKeyword(input string) bool {
	return bumpKeywords[input]
}

// Valid reports whether v is a well-formed semantic version without prefix.
func Valid(v string) bool {
	if v == "" || strings.HasPrefix(v, "v") {
		return false
	}
	return xsemver.IsValid("v" + v)
}

// Compare orders two versions; the result follows strings.Compare conventions.
// Invalid versions sort before valid ones, matching x/mod/semver.
func Compare(a, b string) int {
	return xsemver.Compare("v"+a, "v"+b)
}

// StripPrefix removes the configured tag version prefix (e.g. "v") from a tag
// name, returning the version it encodes. The tag is returned unchanged when
// the prefix does not match.
func StripPrefix(tag, prefix string) string {
	return strings.TrimPrefix(tag, prefix)
}

// parsed is the decomposed form used by the increment rules.
type parsed struct {
	major, minor, patch int
	pre                 []string // dot-separated prerelease identifiers, empty when none
}

func parse(v string) (parsed, error) {
	if !Valid(v) {
		return parsed{}, fmt.Errorf("invalid semantic version %q", v)
	}
	core := v
	var pre string
	if i := strings.IndexByte(core, '-'); i >= 0 {
		core, pre = core[:i], core[i+1:]
	}
	if i := strings.IndexByte(core, '+'); i >= 0 {
		core = core[:i]
	}
	if i := strings.IndexByte(pre, '+'); i >= 0 {
		pre = pre[:i]
	}
	parts := strings.Split(core, ".")
	if len(parts) != 3 {
		return parsed{}, fmt.Errorf("invalid semantic version %q", v)
	}
	p := parsed{}
	var err error
	if p.major, err = strconv.Atoi(parts[0]); err != nil {
		return parsed{}, fmt.Errorf("invalid major in %q: %w", v, err)
	}
	if p.minor, err = strconv.Atoi(parts[1]); err != nil {
		return parsed{}, fmt.Errorf("invalid minor in %q: %w", v, err)
	}
	if p.patch, err = strconv.Atoi(parts[2]); err != nil {
		return parsed{}, fmt.Errorf("invalid patch in %q: %w", v, err)
	}
	if pre != "" {
		p.pre = strings.Split(pre, ".")
	}
	return p, nil
}

func (p parsed) String() string {
	s := fmt.Sprintf("%d.%d.%d", p.major, p.minor, p.patch)
	if len(p.pre) > 0 {
		s += "-" + strings.Join(p.pre, ".")
	}
	return s
}

// Increment applies a bump keyword to current. The rules follow the package
// manager's own semantics: bumping patch on a prerelease just drops the
// prerelease identifiers, and "prerelease" on a plain version starts a new
// prerelease on the next patch.
func Increment(current, keyword string) (string, error) {
	p, err := parse(current)
	if err != nil {
		return "", err
	}
	switch keyword {
	case BumpMajor:
		if len(p.pre) > 0 && p.minor == 0 && p.patch == 0 {
			p.pre = nil
		} else {
			p = parsed{major: p.major + 1}
		}
	case BumpMinor:
		if len(p.pre) > 0 && p.patch == 0 {
			p.pre = nil
		} else {
			p = parsed{major: p.major, minor: p.minor + 1}
		}
	case BumpPatch:
		if len(p.pre) > 0 {
			p.pre = nil
		} else {
			p.patch++
		}
	case BumpPreMajor:
		p = parsed{major: p.major + 1, pre: []string{"0"}}
	case BumpPreMinor:
		p = parsed{major: p.major, minor: p.minor + 1, pre: []string{"0"}}
	case BumpPrePatch:
		p = parsed{major: p.major, minor: p.minor, patch: p.patch + 1, pre: []string{"0"}}
	case BumpPrerelease:
		if len(p.pre) == 0 {
			p.patch++
			p.pre = []string{"0"}
		} else {
			bumped := false
			for i := len(p.pre) - 1; i >= 0; i-- {
				if n, err := strconv.Atoi(p.pre[i]); err == nil {
					p.pre[i] = strconv.Itoa(n + 1)
					bumped = true
					break
				}
			}
			if !bumped {
				p.pre = append(p.pre, "0")
			}
		}
	default:
		return "", fmt.Errorf("unknown version increment %q", keyword)
	}
	return p.String(), nil
}

// Resolve turns run input (a bump keyword or an explicit version) into the
// next version, enforcing that an explicit version is valid and strictly
// greater than current.
func Resolve(current, input string) (string, error) {
	if IsBumpKeyword(input) {
		return Increment(current, input)
	}
	if !Valid(input) {
		return "", fmt.Errorf("version %q is neither a valid semantic version nor one of patch/minor/major/prepatch/preminor/premajor/prerelease", input)
	}
	if Compare(input, current) <= 0 {
		return "", fmt.Errorf("version %s must be greater than the current version %s", input, current)
	}
	return input, nil
}
