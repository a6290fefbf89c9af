package serverutils

import (
	"fmt"
	"strings"

	"ai-chat-be/internal/pkg/apperror"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRequest runs struct tag validation and reports every failing
// field in a single message.
func ValidateRequest(req any) error {
	if err := validate.Struct(req); err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return apperror.Wrap(apperror.KindValidation, "invalid request", err)
		}
		var fields []string
		for _, fe := range validationErrors {
			fields = append(fields, fmt.Sprintf("%s failed on '%s'", strings.ToLower(fe.Field()), fe.Tag()))
		}
		return apperror.New(apperror.KindValidation, strings.Join(fields, "; "))
	}
	return nil
}
