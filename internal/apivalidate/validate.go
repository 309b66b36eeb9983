package apivalidate

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/threadlane/storefront-go/pkg/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// Struct checks a decoded server response against its validate tags. The
// platform's shape is not trusted: a body that decodes but fails validation
// surfaces as a malformed-response error, distinct from transport failures.
func Struct(decoded any) error {
	err := validate.Struct(decoded)
	if err == nil {
		return nil
	}
	if errs, ok := err.(validator.ValidationErrors); ok {
		details := map[string]string{}
		for _, fieldErr := range errs {
			details[fieldErr.Namespace()] = fieldErr.Tag()
		}
		return pkgerrors.New(pkgerrors.CodeMalformedResponse, "response failed validation").WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeMalformedResponse, err, "response failed validation")
}
