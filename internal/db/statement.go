package db

import "strings"

// StatementKind is the class of a SQL statement as decided by its leading
// keyword.
type StatementKind int

const (
	Read StatementKind = iota
	Mutation
)

func (k StatementKind) String() string {
	if k == Mutation {
		return "mutation"
	}
	return "read"
}

// mutating statements are committed and report affected rows
var mutatingKeywords = []string{
	"INSERT", "UPDATE", "DELETE", "CREATE", "DROP", "ALTER",
}

// Classify returns Mutation if the trimmed, uppercased statement starts
// with INSERT, UPDATE, DELETE, CREATE, DROP or ALTER, and Read otherwise.
// This is a plain prefix test, not a parser: comments and leading
// parentheses are not skipped.
func Classify(statement string) StatementKind {
	if HasLeadingKeyword(statement, mutatingKeywords...) {
		return Mutation
	}
	return Read
}

// HasLeadingKeyword reports whether the trimmed, uppercased statement
// starts with any of keywords.
func HasLeadingKeyword(statement string, keywords ...string) bool {
	s := strings.ToUpper(strings.TrimSpace(statement))
	for _, kw := range keywords {
		if strings.HasPrefix(s, kw) {
			return true
		}
	}
	return false
}
