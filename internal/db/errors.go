package db

import "errors"

var (
	// ErrKeyNotFound is returned for GET and HGETALL on a missing key.
	ErrKeyNotFound = errors.New("db: key not found")
	// ErrIndexExists is returned by CreateIndex when another replica won the race.
	ErrIndexExists = errors.New("db: index already exists")
	// ErrInvalidIndex marks a definition rejected before reaching the server.
	ErrInvalidIndex = errors.New("db: invalid index definition")
)

// Redis command names recorded in Error.Op.
const (
	OpCreateIndex = "FT.CREATE"
	OpIndexInfo   = "FT.INFO"
	OpSearch      = "FT.SEARCH"
	OpHGetAll     = "HGETALL"
	OpHSet        = "HSET"
	OpGet         = "GET"
	OpSet         = "SET"
	OpSAdd        = "SADD"
	OpSMembers    = "SMEMBERS"
)

// Error is a failed store command.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
