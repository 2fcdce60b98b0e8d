package helper

import "fmt"

// NewError wraps an error with the context of the failed operation.
// The original error stays matchable via errors.Is/As.
func NewError(context string, err error) error {
	return fmt.Errorf("error %v: %w", context, err)
}
