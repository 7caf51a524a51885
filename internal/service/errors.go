package service

import (
	"errors"
	"fmt"

	"netfence/internal/domain"
)

// storage maps unexpected store errors onto ErrStorageUnavailable while
// letting taxonomy errors pass through. The original cause stays in the
// wrap for logs; handlers never surface it.
func storage(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrConflict) || domain.IsValidation(err) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
}
