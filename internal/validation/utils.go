package validation

import (
	"reflect"
	"strings"
	"sync"

	"github.com/deppfellow/openwork/internal/query"
	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator. Besides the built-in tags it
// knows "timestamps", a comma separated list of query timestamps.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonFieldName)
		_ = validate.RegisterValidation("timestamps", validateTimestamps)
	})
	return validate
}

// Struct validates s with the shared validator.
func Struct(s any) error {
	return Validator().Struct(s)
}

// jsonFieldName reports fields under their json, query or param name so
// field errors match what the client sent.
func jsonFieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "query", "param"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name != "" && name != "-" {
			return name
		}
	}
	return f.Name
}

func validateTimestamps(fl validator.FieldLevel) bool {
	_, err := query.ParseTimestamps(fl.Field().String())
	return err == nil
}
