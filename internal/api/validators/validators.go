package validators

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	appErr "github.com/testboard/engine/pkg/errors"
)

var testCaseIDPattern = regexp.MustCompile(`^TC_\d+$`)

// maxIconRunes allows a single emoji, including one with a variation selector.
const maxIconRunes = 2

var std = New()

// New builds a validator with the custom tags used by request and model structs:
//
//	tcid  business test case id, TC_ followed by digits
//	icon  a short emoji string
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("tcid", func(fl validator.FieldLevel) bool {
		return testCaseIDPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("icon", func(fl validator.FieldLevel) bool {
		n := utf8.RuneCountInString(fl.Field().String())
		return n > 0 && n <= maxIconRunes
	})
	return v
}

// Struct validates s and converts failures into an invalid AppError carrying
// one message per offending field.
func Struct(s any) error {
	err := std.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return appErr.Wrap(err, appErr.CodeInvalid, "validation failed")
	}
	ae := appErr.New(appErr.CodeInvalid, "validation failed")
	for _, fe := range verrs {
		ae.WithField(fe.Field(), message(fe))
	}
	return ae
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "tcid":
		return `ID must start with "TC_" followed by numbers (e.g., TC_01)`
	case "icon":
		return "icon must be a single emoji"
	case "uuid", "uuid4":
		return fmt.Sprintf("%s must be a valid id", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
	}
}
