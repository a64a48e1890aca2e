package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// formValidator reports validation failures keyed by the form field name.
type formValidator struct {
	v *validator.Validate
}

func newFormValidator() *formValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &formValidator{v: v}
}

// check returns nil when the form is valid.
func (fv *formValidator) check(form any) map[string]string {
	err := fv.v.Struct(form)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return map[string]string{"": "Formulario inválido"}
	}
	out := make(map[string]string, len(ve))
	for _, fe := range ve {
		if _, seen := out[fe.Field()]; !seen {
			out[fe.Field()] = fieldError(fe)
		}
	}
	return out
}

func fieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Este campo es obligatorio"
	case "email":
		return "Ingrese un correo válido"
	case "min":
		return fmt.Sprintf("Debe tener al menos %s caracteres", fe.Param())
	case "eqfield":
		return "Las contraseñas no coinciden"
	case "oneof":
		return "Seleccione una opción válida"
	case "numeric":
		return "Ingrese un número válido"
	case "datetime":
		if fe.Param() == timeLayout {
			return "Hora inválida (HH:MM)"
		}
		return "Fecha inválida (AAAA-MM-DD)"
	default:
		return fmt.Sprintf("Valor inválido (%s)", fe.Tag())
	}
}
