package main

import (
	"fmt"

	admindomain "github.com/sngm3741/bizsurvey-services/api/internal/admin/domain"
)

func validateEmail(ans interface{}) error {
	s, ok := ans.(string)
	if !ok {
		return fmt.Errorf("expected text, got %T", ans)
	}
	if _, err := admindomain.NewEmail(s); err != nil {
		return err
	}
	return nil
}

func validatePassword(ans interface{}) error {
	s, ok := ans.(string)
	if !ok {
		return fmt.Errorf("expected text, got %T", ans)
	}
	_, err := admindomain.NewPassword(s)
	return err
}
