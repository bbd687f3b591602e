package channel

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/Masterminds/semver/v3"
	"go.trai.ch/viva/internal/core/domain"
	"go.trai.ch/zerr"
)

// MatchSpec is a parsed match request such as "python >=3.11,<3.13" or "conda-forge::zlib=1.3".
type MatchSpec struct {
	// Channel optionally pins the package to one channel.
	Channel string
	Name    string
	// Version is the constraint expression, empty for any version.
	Version string
	// Build optionally restricts the build string; "*" wildcards are allowed.
	Build string
}

var versionOperators = []string{"==", "!=", ">=", "<=", "~=", ">", "<", "="}

// ParseMatchSpec parses a match request.
//
// Accepted forms are "name", "name <constraint>", "name <constraint> <build>",
// "name<op><version>" and "name=<version>[=<build>]", each optionally
// prefixed with "<channel>::".
func ParseMatchSpec(s string) (MatchSpec, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return MatchSpec{}, zerr.Wrap(domain.ErrInvalidMatchRequest, "empty match request")
	}

	var spec MatchSpec
	if channel, rest, ok := strings.Cut(raw, "::"); ok {
		spec.Channel = strings.TrimSpace(channel)
		raw = strings.TrimSpace(rest)
	}

	nameEnd := strings.IndexFunc(raw, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune("=<>!~", r)
	})
	if nameEnd == -1 {
		nameEnd = len(raw)
	}
	spec.Name = strings.ToLower(raw[:nameEnd])
	rest := strings.TrimSpace(raw[nameEnd:])

	if spec.Name == "" || !validName(spec.Name) {
		return MatchSpec{}, zerr.With(zerr.Wrap(domain.ErrInvalidMatchRequest, "invalid package name"), "request", s)
	}

	switch {
	case rest == "":
	case strings.HasPrefix(rest, "=") && !strings.HasPrefix(rest, "=="):
		// conda "name=1.2" is a fuzzy prefix match, "name=1.2=build" adds a build.
		version, build, _ := strings.Cut(rest[1:], "=")
		spec.Version = fuzzy(strings.TrimSpace(version))
		spec.Build = strings.TrimSpace(build)
	default:
		fields := strings.Fields(rest)
		switch len(fields) {
		case 1:
			spec.Version = fields[0]
		case 2:
			spec.Version = fields[0]
			spec.Build = fields[1]
		default:
			// Constraints may be written with spaces: ">= 1.2, < 2".
			spec.Version = strings.Join(fields, "")
		}
	}

	if spec.Version != "" {
		if _, err := parseConstraint(spec.Version); err != nil {
			return MatchSpec{}, zerr.With(err, "request", s)
		}
	}

	return spec, nil
}

// String renders the spec in canonical form.
func (m MatchSpec) String() string {
	var b strings.Builder
	if m.Channel != "" {
		b.WriteString(m.Channel)
		b.WriteString("::")
	}
	b.WriteString(m.Name)
	if m.Version != "" {
		b.WriteByte(' ')
		b.WriteString(m.Version)
	}
	if m.Build != "" {
		if m.Version == "" {
			b.WriteString(" *")
		}
		b.WriteByte(' ')
		b.WriteString(m.Build)
	}
	return b.String()
}

// Matches reports whether a candidate satisfies the spec.
func (m MatchSpec) Matches(rec domain.PackageRecord) bool {
	if rec.Name != m.Name {
		return false
	}
	if m.Channel != "" && rec.Channel != m.Channel {
		return false
	}
	if m.Build != "" && !globMatch(m.Build, rec.Build) {
		return false
	}
	if m.Version == "" {
		return true
	}
	c, err := parseConstraint(m.Version)
	if err != nil {
		return false
	}
	return c.check(rec.Version)
}

func validName(name string) bool {
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !strings.ContainsRune("-_.", r) {
			return false
		}
	}
	return true
}

func fuzzy(version string) string {
	if version == "" || strings.HasSuffix(version, "*") {
		return version
	}
	return version + ".*"
}

// constraint is a disjunction of conjunctions of version clauses.
type constraint struct {
	expr     string
	semver   *semver.Constraints
	anyOf    [][]clause
	wildcard bool
}

type clause struct {
	op      string
	version string
}

func parseConstraint(expr string) (*constraint, error) {
	c := &constraint{expr: expr}
	if expr == "*" {
		c.wildcard = true
		return c, nil
	}

	var translated []string
	for _, alt := range strings.Split(expr, "|") {
		alt = strings.TrimSpace(alt)
		if alt == "" {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidMatchRequest, "empty version alternative"), "constraint", expr)
		}

		var all []clause
		var parts []string
		for _, part := range strings.Split(alt, ",") {
			cl, err := parseClause(strings.TrimSpace(part))
			if err != nil {
				return nil, zerr.With(err, "constraint", expr)
			}
			all = append(all, cl)
			parts = append(parts, cl.semverString())
		}
		c.anyOf = append(c.anyOf, all)
		translated = append(translated, strings.Join(parts, ", "))
	}

	if sc, err := semver.NewConstraint(strings.Join(translated, " || ")); err == nil {
		c.semver = sc
	}
	return c, nil
}

func parseClause(s string) (clause, error) {
	if s == "" {
		return clause{}, zerr.Wrap(domain.ErrInvalidMatchRequest, "empty version clause")
	}
	for _, op := range versionOperators {
		if strings.HasPrefix(s, op) {
			version := strings.TrimSpace(s[len(op):])
			if version == "" {
				return clause{}, zerr.With(zerr.Wrap(domain.ErrInvalidMatchRequest, "missing version"), "clause", s)
			}
			if op == "=" {
				return clause{op: "==", version: fuzzy(version)}, nil
			}
			return clause{op: op, version: version}, nil
		}
	}
	// A bare version is a fuzzy match: "1.2" accepts 1.2, 1.2.0 and 1.2.7.
	return clause{op: "==", version: fuzzy(s)}, nil
}

func (c clause) semverString() string {
	switch c.op {
	case "==":
		if strings.HasSuffix(c.version, "*") {
			return c.version
		}
		return "=" + c.version
	case "~=":
		return ">=" + c.version
	default:
		return c.op + c.version
	}
}

func (c *constraint) check(version string) bool {
	if c.wildcard {
		return true
	}
	if c.semver != nil {
		if v, err := semver.NewVersion(version); err == nil {
			return c.semver.Check(v)
		}
	}
	for _, all := range c.anyOf {
		if allMatch(all, version) {
			return true
		}
	}
	return false
}

func allMatch(clauses []clause, version string) bool {
	for _, cl := range clauses {
		if !cl.matches(version) {
			return false
		}
	}
	return true
}

func (c clause) matches(version string) bool {
	if strings.HasSuffix(c.version, "*") {
		prefix := strings.TrimSuffix(strings.TrimSuffix(c.version, "*"), ".")
		hit := prefix == "" || version == prefix || strings.HasPrefix(version, prefix+".")
		if c.op == "!=" {
			return !hit
		}
		return hit
	}

	cmp := CompareVersions(version, c.version)
	switch c.op {
	case "==":
		return cmp == 0
	case "!=":
		return cmp != 0
	case ">=", "~=":
		return cmp >= 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case "<":
		return cmp < 0
	default:
		return false
	}
}

// CompareVersions orders two package versions. Versions that parse as semantic
// versions are compared as such; anything else falls back to a segment-wise
// comparison where numeric runs compare numerically.
func CompareVersions(a, b string) int {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	if errA == nil && errB == nil {
		return va.Compare(vb)
	}
	return compareLoose(a, b)
}

func compareLoose(a, b string) int {
	as, bs := splitVersion(a), splitVersion(b)
	for i := 0; i < len(as) || i < len(bs); i++ {
		var x, y string
		if i < len(as) {
			x = as[i]
		}
		if i < len(bs) {
			y = bs[i]
		}
		if c := compareSegment(x, y); c != 0 {
			return c
		}
	}
	return 0
}

// splitVersion splits "1.1.1w" into ["1", "1", "1", "w"].
func splitVersion(v string) []string {
	var out []string
	var cur strings.Builder
	digit := false
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, r := range strings.ToLower(v) {
		switch {
		case r == '.' || r == '-' || r == '_' || r == '+':
			flush()
		case unicode.IsDigit(r) != digit && cur.Len() > 0:
			flush()
			cur.WriteRune(r)
		default:
			cur.WriteRune(r)
		}
		digit = unicode.IsDigit(r)
	}
	flush()
	return out
}

func compareSegment(x, y string) int {
	if x == y {
		return 0
	}
	// A missing segment sorts before a numeric one and after a pre-release tag.
	if x == "" {
		if isNumeric(y) {
			return -1
		}
		return 1
	}
	if y == "" {
		return -compareSegment(y, x)
	}

	nx, errX := strconv.ParseUint(x, 10, 64)
	ny, errY := strconv.ParseUint(y, 10, 64)
	switch {
	case errX == nil && errY == nil:
		switch {
		case nx < ny:
			return -1
		case nx > ny:
			return 1
		default:
			return 0
		}
	case errX == nil:
		return 1
	case errY == nil:
		return -1
	default:
		return strings.Compare(x, y)
	}
}

func isNumeric(s string) bool {
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}

func globMatch(pattern, s string) bool {
	if !strings.Contains(pattern, "*") {
		return pattern == s
	}
	parts := strings.Split(pattern, "*")
	if !strings.HasPrefix(s, parts[0]) {
		return false
	}
	s = s[len(parts[0]):]
	for i, part := range parts[1:] {
		last := i == len(parts)-2
		if last {
			return strings.HasSuffix(s, part)
		}
		idx := strings.Index(s, part)
		if idx < 0 {
			return false
		}
		s = s[idx+len(part):]
	}
	return true
}
