package apierror

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// GenericMessage is shown when a failure carries no user-facing detail
const GenericMessage = "Ocorreu um erro inesperado"

// StructuredError is the 400 body for field validation problems
type StructuredError struct {
	Errors map[string][]string `json:"errors"`
}

func (s *StructuredError) Add(field, problem string) {
	s.Errors[field] = append(s.Errors[field], problem)
}

// FromValidationError returns nil when err is not a validator error
func FromValidationError(err error) *StructuredError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}

	out := &StructuredError{Errors: map[string][]string{}}
	for _, fe := range ve {
		field := strings.ToLower(fe.Field())

		switch fe.Tag() {
		case "required":
			out.Add(field, "This field is required")
		case "min":
			out.Add(field, "Value is too short, min: "+fe.Param())
		case "max":
			out.Add(field, "Value is too long, max: "+fe.Param())
		case "gt":
			out.Add(field, "Value must be greater than "+fe.Param())
		case "oneof":
			out.Add(field, "Value must be one of: "+fe.Param())
		case "email":
			out.Add(field, "Value must be a valid email address")
		default:
			out.Add(field, "Invalid value provided")
		}
	}
	return out
}

// Respond writes err as a validation body when possible, otherwise as
// {"error": msg} with the given status.
func Respond(c *fiber.Ctx, status int, err error) error {
	if structured := FromValidationError(err); structured != nil {
		return c.Status(fiber.StatusBadRequest).JSON(structured)
	}
	msg := GenericMessage
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return c.Status(status).JSON(fiber.Map{
		"error": msg,
	})
}
