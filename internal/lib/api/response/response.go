package response

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Response struct {
	Status string       `json:"status"`
	Error  string       `json:"error,omitempty"`
	Fields []FieldError `json:"fields,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

const StatusError = "Error"

func Error(msg string) Response {
	return Response{
		Status: StatusError,
		Error:  msg,
	}
}

// * ValidationError собирает ошибки валидации по полям в один ответ
func ValidationError(errs validator.ValidationErrors) Response {
	var msgs []string
	fields := make([]FieldError, 0, len(errs))

	for _, err := range errs {
		msg := fieldMessage(err)

		msgs = append(msgs, msg)
		fields = append(fields, FieldError{
			Field:   err.Field(),
			Message: msg,
		})
	}

	return Response{
		Status: StatusError,
		Error:  strings.Join(msgs, ", "),
		Fields: fields,
	}
}

func fieldMessage(err validator.FieldError) string {
	switch err.ActualTag() {
	case "required":
		return fmt.Sprintf("field %s is a required field", err.Field())
	case "email":
		return fmt.Sprintf("field %s is not a valid email", err.Field())
	case "min":
		return fmt.Sprintf("field %s must be at least %s characters long", err.Field(), err.Param())
	case "max":
		return fmt.Sprintf("field %s must be at most %s characters long", err.Field(), err.Param())
	case "maxbytes":
		return fmt.Sprintf("field %s must be at most %s bytes long", err.Field(), err.Param())
	default:
		return fmt.Sprintf("field %s is not valid", err.Field())
	}
}
