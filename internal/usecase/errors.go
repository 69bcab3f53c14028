package usecase

import "fmt"

// PanicError carries a value recovered from a panicking extractor.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("extractor panicked: %v", e.Value)
}
