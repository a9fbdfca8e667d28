package common

import (
	"regexp"
	"strings"
)

// LibraryPrefix is stripped from target names before they become enum
// variants ("libEGL" -> "EGL").
const LibraryPrefix = "lib"

// versionSuffix is the one suffix kept in lower case after uppercasing, so
// that "libGLESv2" maps to "GLESv2" rather than "GLESV2".
const versionSuffix = "V2"

var identRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// LibraryIdent maps a library name onto its enum variant.
// Examples: "translator" -> "TRANSLATOR", "libGLESv2" -> "GLESv2",
// "angle_common" -> "ANGLE_COMMON".
func LibraryIdent(name string) string {
	id := strings.ToUpper(strings.TrimPrefix(name, LibraryPrefix))
	if strings.HasSuffix(id, versionSuffix) {
		id = strings.TrimSuffix(id, versionSuffix) + strings.ToLower(versionSuffix)
	}
	return id
}

// rustReserved holds the strict and reserved Rust keywords, plus "_".
var rustReserved = map[string]struct{}{
	"_": {}, "Self": {}, "abstract": {}, "as": {}, "async": {}, "await": {},
	"become": {}, "box": {}, "break": {}, "const": {}, "continue": {}, "crate": {},
	"do": {}, "dyn": {}, "else": {}, "enum": {}, "extern": {}, "false": {},
	"final": {}, "fn": {}, "for": {}, "gen": {}, "if": {}, "impl": {}, "in": {},
	"let": {}, "loop": {}, "macro": {}, "match": {}, "mod": {}, "move": {},
	"mut": {}, "override": {}, "priv": {}, "pub": {}, "ref": {}, "return": {},
	"self": {}, "static": {}, "struct": {}, "super": {}, "trait": {}, "true": {},
	"try": {}, "type": {}, "typeof": {}, "unsafe": {}, "unsized": {}, "use": {},
	"virtual": {}, "where": {}, "while": {}, "yield": {},
}

// IsIdent reports whether s can be used as a Rust enum variant and const
// name.
func IsIdent(s string) bool {
	if _, reserved := rustReserved[s]; reserved {
		return false
	}
	return identRE.MatchString(s)
}
