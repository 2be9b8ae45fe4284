// Package errutil provides a helper for combining errors.
package errutil

import "strings"

// Multi combines multiple errors into one:
//
//   - If all errors are nil, it returns nil.
//
//   - If there is exactly one non-nil error, it is returned as is.
//
//   - Otherwise, the return value combines the messages of all non-nil
//     arguments, and supports errors.Is and errors.As against each of them.
//
// If the input contains any error returned by Multi, such errors are
// flattened, so Multi(Multi(err1, err2), err3) is equivalent to Multi(err1,
// err2, err3). The task pool uses it to report the failures of all drained
// tasks in one error.
func Multi(errs ...error) error {
	var nonNil []error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if multi, ok := err.(multiError); ok {
			nonNil = append(nonNil, multi...)
		} else {
			nonNil = append(nonNil, err)
		}
	}
	switch len(nonNil) {
	case 0:
		return nil
	case 1:
		return nonNil[0]
	default:
		return multiError(nonNil)
	}
}

type multiError []error

func (me multiError) Error() string {
	var sb strings.Builder
	sb.WriteString("multiple errors: ")
	for i, e := range me {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(e.Error())
	}
	return sb.String()
}

// Unwrap makes errors.Is and errors.As see through the combined error.
func (me multiError) Unwrap() []error { return me }
