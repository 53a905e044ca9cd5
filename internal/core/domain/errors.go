package domain

import "fmt"

// Code identifies a stable, user-facing failure class. The numeric wire
// values are kept compatible with the legacy signaling protocol.
type Code string

const (
	CodeUnsupportedVersion Code = "UnsupportedVersion"
	CodeAuthFailed         Code = "AuthFailed"
	CodeUnauthenticated    Code = "Unauthenticated"
	CodeRoomFull           Code = "RoomFull"
	CodeUnreachablePeer    Code = "UnreachablePeer"
)

var wireCodes = map[Code]int{
	CodeUnsupportedVersion: 2103,
	CodeAuthFailed:         2110,
	CodeUnauthenticated:    2120,
	CodeRoomFull:           2131,
	CodeUnreachablePeer:    2201,
}

// Wire returns the numeric protocol code, or 0 for an unknown Code.
func (c Code) Wire() int {
	return wireCodes[c]
}

// CodeError is an error carrying a protocol Code. Use errors.As to recover
// the code from a wrapped chain.
type CodeError struct {
	Code Code
}

func (e *CodeError) Error() string {
	return fmt.Sprintf("%s (%d)", e.Code, e.Code.Wire())
}

var (
	ErrUnsupportedVersion = &CodeError{Code: CodeUnsupportedVersion}
	ErrAuthFailed         = &CodeError{Code: CodeAuthFailed}
	ErrUnauthenticated    = &CodeError{Code: CodeUnauthenticated}
	ErrRoomFull           = &CodeError{Code: CodeRoomFull}
	ErrUnreachablePeer    = &CodeError{Code: CodeUnreachablePeer}
)
