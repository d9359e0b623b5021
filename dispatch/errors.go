package dispatch

import "github.com/broady/bindgen/ir"

// CountError is the runtime error for an argument count no case handles.
type CountError struct {
	Callable string
	Got      int
	Message  string
}

func (e *CountError) Error() string { return e.Message }

// Code returns the diagnostic code shared with generation-time warnings.
func (e *CountError) Code() ir.ErrorCode { return ir.CodeUnresolvedOverload }

// MismatchError is the runtime error for arguments no branch of their arity
// bucket accepts.
type MismatchError struct {
	Callable string
	Arity    int
	Message  string
}

func (e *MismatchError) Error() string { return e.Message }

// Code returns the diagnostic code shared with generation-time warnings.
func (e *MismatchError) Code() ir.ErrorCode { return ir.CodeUnresolvedOverload }
