// Package util provides small helpers shared across the transport layers.
package util

import "errors"

// FlattenErrs flattens a slice of errors into a single error, ignoring nil
// entries. Returns nil if errs is empty or contains only nil entries.
func FlattenErrs(errs []error) error {
	var nonNilErrs []error
	for _, err := range errs {
		if err != nil {
			nonNilErrs = append(nonNilErrs, err)
		}
	}

	if len(nonNilErrs) == 0 {
		return nil
	}

	return errors.Join(nonNilErrs...)
}
