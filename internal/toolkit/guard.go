package toolkit

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/xwb1989/sqlparser"
)

var (
	// ErrEmptyQuery is returned for blank input.
	ErrEmptyQuery = errors.New("query is empty")

	// ErrNotReadOnly is returned for anything other than a single SELECT.
	ErrNotReadOnly = errors.New("only read-only SELECT statements are allowed")

	leadingReadRe  = regexp.MustCompile(`(?i)^\s*(SELECT|WITH)\b`)
	writeKeywordRe = regexp.MustCompile(`(?i)\b(INSERT|UPDATE|DELETE|REPLACE|UPSERT|DROP|ALTER|CREATE|ATTACH|DETACH|PRAGMA|VACUUM|REINDEX)\b`)
)

// normalizeQuery trims whitespace and trailing semicolons.
func normalizeQuery(query string) string {
	q := strings.TrimSpace(query)
	for strings.HasSuffix(q, ";") {
		q = strings.TrimSpace(strings.TrimSuffix(q, ";"))
	}
	return q
}

// CheckReadOnly returns the normalized statement when it is a single
// read-only query. The MySQL-flavoured parser covers plain SELECT and UNION;
// SQLite-only syntax such as CTEs falls through to a keyword check.
func CheckReadOnly(query string) (string, error) {
	q := normalizeQuery(query)
	if q == "" {
		return "", ErrEmptyQuery
	}
	if strings.Contains(q, ";") {
		return "", fmt.Errorf("%w: multiple statements are not allowed", ErrNotReadOnly)
	}

	stmt, err := sqlparser.Parse(q)
	if err == nil {
		switch stmt.(type) {
		case *sqlparser.Select, *sqlparser.Union, *sqlparser.ParenSelect:
			return q, nil
		default:
			return "", fmt.Errorf("%w: got %s", ErrNotReadOnly, statementKind(q))
		}
	}

	if !leadingReadRe.MatchString(q) {
		return "", fmt.Errorf("%w: got %s", ErrNotReadOnly, statementKind(q))
	}
	if kw := writeKeywordRe.FindString(q); kw != "" {
		return "", fmt.Errorf("%w: found %s", ErrNotReadOnly, strings.ToUpper(kw))
	}
	return q, nil
}

func statementKind(q string) string {
	fields := strings.Fields(q)
	if len(fields) == 0 {
		return "empty statement"
	}
	return strings.ToUpper(fields[0]) + " statement"
}
