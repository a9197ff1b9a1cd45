package domain

import "strings"

// SplitPath splits a distinguished name into its RDNs, honouring backslash escapes.
// Empty RDNs are dropped.
func SplitPath(dn string) []string {
	var parts []string
	start := 0
	escaped := false
	for i := 0; i < len(dn); i++ {
		c := dn[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == ',':
			if rdn := strings.TrimSpace(dn[start:i]); rdn != "" {
				parts = append(parts, rdn)
			}
			start = i + 1
		}
	}
	if rdn := strings.TrimSpace(dn[start:]); rdn != "" {
		parts = append(parts, rdn)
	}
	return parts
}

// NormalizePath returns the comparison key of a distinguished name:
// lowercased, without whitespace around separators.
func NormalizePath(dn string) string {
	rdns := SplitPath(dn)
	for i, rdn := range rdns {
		rdns[i] = normalizeRDN(rdn)
	}
	return strings.Join(rdns, ",")
}

func normalizeRDN(rdn string) string {
	attr, value, ok := strings.Cut(rdn, "=")
	if !ok {
		return strings.ToLower(strings.TrimSpace(rdn))
	}
	return strings.ToLower(strings.TrimSpace(attr)) + "=" + strings.ToLower(strings.TrimSpace(value))
}

// ParentPath strips the leading RDN of a normalized path.
// It returns "" once the path is exhausted.
func ParentPath(path string) string {
	if i := firstSeparator(path); i >= 0 {
		return path[i+1:]
	}
	return ""
}

// ContainerOf returns the container portion of an agent path.
func ContainerOf(path string) string {
	return ParentPath(path)
}

// PathDepth returns the number of RDNs in a path.
func PathDepth(path string) int {
	return len(SplitPath(path))
}

// IsWithin reports whether path equals ancestor or lies below it.
// The empty ancestor contains everything.
func IsWithin(path, ancestor string) bool {
	if ancestor == "" || path == ancestor {
		return true
	}
	return IsBelow(path, ancestor)
}

// IsBelow reports whether path lies strictly below ancestor.
func IsBelow(path, ancestor string) bool {
	if ancestor == "" {
		return path != ""
	}
	if len(path) <= len(ancestor)+1 || !strings.HasSuffix(path, ancestor) {
		return false
	}
	sep := len(path) - len(ancestor) - 1
	return path[sep] == ',' && !isEscaped(path, sep)
}

// LeadingValue returns the value of the first RDN ("jdoe" for "uid=jdoe,ou=people").
func LeadingValue(dn string) string {
	rdns := SplitPath(dn)
	if len(rdns) == 0 {
		return ""
	}
	if _, value, ok := strings.Cut(rdns[0], "="); ok {
		return strings.TrimSpace(value)
	}
	return rdns[0]
}

func firstSeparator(path string) int {
	escaped := false
	for i := 0; i < len(path); i++ {
		switch {
		case escaped:
			escaped = false
		case path[i] == '\\':
			escaped = true
		case path[i] == ',':
			return i
		}
	}
	return -1
}

// isEscaped reports whether the byte at i is preceded by an odd number of backslashes.
func isEscaped(s string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}
