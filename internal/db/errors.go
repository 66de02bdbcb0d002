package db

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrEmptyStatement is returned by Execute for a blank statement.
var ErrEmptyStatement = errors.New("empty statement")

// ConnectionError reports a failure to open or verify a database
// connection. The password is masked in the message.
type ConnectionError struct {
	Driver string
	Err    error

	secret string
}

func (e *ConnectionError) Error() string {
	return redact(fmt.Sprintf("connect to %s database: %v", e.Driver, e.Err), e.secret)
}

// minSecretLen is the shortest password searched for verbatim; shorter
// ones would match unrelated text.
const minSecretLen = 4

var dsnUserinfo = regexp.MustCompile(`(://[^:/@\s]*:)[^@\s]*@`)

// redact masks URL userinfo passwords and, when long enough, every
// occurrence of secret in its plain and URL-escaped forms.
func redact(msg, secret string) string {
	msg = dsnUserinfo.ReplaceAllString(msg, "${1}***@")
	if len(secret) < minSecretLen {
		return msg
	}
	for _, s := range []string{secret, url.PathEscape(secret), url.QueryEscape(secret)} {
		msg = strings.ReplaceAll(msg, s, "***")
	}
	return msg
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// QueryError reports a failure while connecting for, executing or fetching
// a single statement. Statement is kept for logging only.
type QueryError struct {
	Statement string
	Err       error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed: %v", e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }
