// Package kerr defines the recoverable errors of the process and
// memory core. Invariant violations are not errors; they go through
// debug.DFatalf.
package kerr

import (
	"errors"
	"fmt"
)

type Terror uint32

const (
	TErrNoError Terror = iota
	TErrNoMapping
	TErrAllocFailed
	TErrOutOfMemory
	TErrTruncatedRead
	TErrUnmapped
	TErrBadAddr
	TErrNoSlot
	TErrNoChildren
	TErrKilled
	TErrNotfound
	TErrInval
)

func (err Terror) String() string {
	switch err {
	case TErrNoError:
		return "no error"
	case TErrNoMapping:
		return "no page table mapping"
	case TErrAllocFailed:
		return "page table allocation failed"
	case TErrOutOfMemory:
		return "out of memory"
	case TErrTruncatedRead:
		return "truncated read"
	case TErrUnmapped:
		return "address not mapped"
	case TErrBadAddr:
		return "bad address"
	case TErrNoSlot:
		return "process table full"
	case TErrNoChildren:
		return "no children"
	case TErrKilled:
		return "killed"
	case TErrNotfound:
		return "not found"
	case TErrInval:
		return "invalid argument"
	default:
		return "unknown error"
	}
}

type Err struct {
	ErrCode Terror
	Obj     string
	Err     error
}

func NewErr(code Terror, obj interface{}) *Err {
	return &Err{code, fmt.Sprintf("%v", obj), nil}
}

func NewErrError(code Terror, obj interface{}, err error) *Err {
	return &Err{code, fmt.Sprintf("%v", obj), err}
}

func (err *Err) Error() string {
	if err.Err != nil {
		return fmt.Sprintf("%v %v: %v", err.ErrCode, err.Obj, err.Err)
	}
	return fmt.Sprintf("%v %v", err.ErrCode, err.Obj)
}

func (err *Err) String() string {
	return err.Error()
}

func (err *Err) Unwrap() error {
	return err.Err
}

func (err *Err) Code() Terror {
	return err.ErrCode
}

func (err *Err) IsErrNoMapping() bool {
	return err.ErrCode == TErrNoMapping
}

func (err *Err) IsErrUnmapped() bool {
	return err.ErrCode == TErrUnmapped
}

func (err *Err) IsErrOutOfMemory() bool {
	return err.ErrCode == TErrOutOfMemory || err.ErrCode == TErrAllocFailed
}

// IsErr returns the *Err in err's chain, if any.
func IsErr(err error) (*Err, bool) {
	var kerr *Err
	if errors.As(err, &kerr) {
		return kerr, true
	}
	return nil, false
}

func IsErrCode(err error, code Terror) bool {
	if kerr, ok := IsErr(err); ok {
		return kerr.ErrCode == code
	}
	return false
}
