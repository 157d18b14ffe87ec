package db

import (
	"errors"
	"fmt"
)

var (
	ErrKeyNotFound      = errors.New("db: key not found")
	ErrIndexNotFound    = errors.New("db: index not found")
	ErrIndexExists      = errors.New("db: index already exists")
	ErrInvalidIndex     = errors.New("db: invalid index definition")
	ErrUnsupportedQuery = errors.New("db: unsupported query")

	// ErrNoSearchTerms is returned for a lexical query without a single searchable token,
	// such as punctuation only. Inside a hybrid search such a leg matches nothing.
	ErrNoSearchTerms = fmt.Errorf("%w: query has no searchable terms", ErrUnsupportedQuery)
)

// Command names recorded on Error.
const (
	OpCreateIndex = "FT.CREATE"
	OpDropIndex   = "FT.DROPINDEX"
	OpIndexInfo   = "FT.INFO"
	OpSearch      = "FT.SEARCH"
	OpJSONSet     = "JSON.SET"
	OpJSONGet     = "JSON.GET"
	OpDel         = "DEL"
	OpGet         = "GET"
	OpSet         = "SET"
)

// Error records which server command failed. Key is empty for index-level commands.
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + " " + e.Key + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }
