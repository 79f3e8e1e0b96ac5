// Package validation valida DTOs de entrada con go-playground/validator y traduce
// los errores a domain.ValidationError (campo -> regla).
package validation

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/obrador-api/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// decimal.Decimal como numérico para que gt=0, gte=0, etc. funcionen.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	_ = v.RegisterValidation("decimal_scale", decimalScale)
	// Nombres de campo según el tag json.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// decimalScale decimal_scale=N: como mucho N decimales significativos ("1.500" vale con N=3).
// El custom type func entrega un float64, así que el decimal se lee del struct padre.
func decimalScale(fl validator.FieldLevel) bool {
	places, err := strconv.ParseInt(fl.Param(), 10, 32)
	if err != nil {
		return false
	}
	parent := reflect.Indirect(fl.Parent())
	if parent.Kind() != reflect.Struct {
		return false
	}
	d, ok := parent.FieldByName(fl.StructFieldName()).Interface().(decimal.Decimal)
	if !ok {
		return false
	}
	return d.Equal(d.Truncate(int32(places)))
}

// Struct valida s. Devuelve *domain.ValidationError o nil.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.NewValidationError("body", err.Error())
	}
	out := &domain.ValidationError{}
	for _, fe := range verrs {
		out.Add(fieldPath(fe.Namespace()), fe.Tag())
	}
	return out
}

// fieldPath quita el nombre del struct raíz: "X.items[0].quantity" -> "items[0].quantity".
func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
