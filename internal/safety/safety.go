// Package safety is the sole gate between model-generated SQL text and the
// database. It is a lexical filter, not a parser: it trades recall for
// simplicity and can over-block identifiers that happen to embed a denylisted
// word followed by a space (e.g. a column aliased "Exec Summary") while not
// understanding quoted-string context. See DESIGN.md for the trade-off.
package safety

import "strings"

// forbidden tokens are matched against the trimmed, upper-cased statement.
// The trailing space on most entries is deliberate: a bare "CREATE" would
// reject legitimate identifiers such as CreatedDate.
var forbidden = []string{
	"INSERT ", "UPDATE ", "DELETE ", "MERGE ", "DROP ", "ALTER ", "TRUNCATE ",
	"EXEC ", "XP_", "SP_EXECUTESQL", "CREATE ", "ATTACH ", "DETACH ",
}

// IsSafe reports whether sql is admissible for execution: a single read-only
// statement starting with SELECT or WITH, with no statement separator and no
// denylisted token. Pure function of its input.
func IsSafe(sql string) bool {
	s := strings.ToUpper(strings.TrimSpace(sql))
	if s == "" {
		return false
	}
	if !strings.HasPrefix(s, "SELECT") && !strings.HasPrefix(s, "WITH") {
		return false
	}
	if strings.Contains(s, ";") {
		return false
	}
	for _, word := range forbidden {
		if strings.Contains(s, word) {
			return false
		}
	}
	return true
}
