package middleware

import (
	stderrors "errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/kitchenops/inventory-ledger/pkg/errors"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
	customMu     sync.Mutex
	customTags   = map[string]string{}
)

func jsonTagName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// engines returns the standalone validator and gin's binding validator.
func engines() []*validator.Validate {
	out := []*validator.Validate{validate}
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok && v != validate {
		out = append(out, v)
	}
	return out
}

// InitValidator configures the shared validator and gin's binding engine.
func InitValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		for _, v := range engines() {
			v.RegisterTagNameFunc(jsonTagName)
			_ = v.RegisterValidation("not_blank", notBlank)
		}
	})
	return validate
}

// RegisterValidation adds a custom tag to both validators. message is used by
// ValidationErrorFormatter when the tag fails.
func RegisterValidation(tag, message string, fn validator.Func) error {
	InitValidator()
	for _, v := range engines() {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	customMu.Lock()
	customTags[tag] = message
	customMu.Unlock()
	return nil
}

// GetValidator returns the singleton validator instance
func GetValidator() *validator.Validate {
	return InitValidator()
}

// ValidationErrorFormatter maps each failing field to a readable message.
func ValidationErrorFormatter(err error) map[string]string {
	fields := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if stderrors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			fields[fieldPath(e)] = formatValidationError(e)
		}
	}
	return fields
}

// fieldPath drops the root struct name: "CreateBatchRequest.items[0].lotId" -> "items[0].lotId".
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "not_blank":
		return "is required"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	case "dive":
		return "is invalid"
	}

	customMu.Lock()
	msg, ok := customTags[e.Tag()]
	customMu.Unlock()
	if ok {
		return msg
	}
	return "is invalid"
}

// BindAndValidate binds the JSON body into obj and validates it.
func BindAndValidate(c *gin.Context, obj interface{}) *errors.AppError {
	InitValidator()
	if err := c.ShouldBindJSON(obj); err != nil {
		if fields := ValidationErrorFormatter(err); len(fields) > 0 {
			return errors.ErrValidationWithFields("validation failed", fields)
		}
		return errors.ErrBadRequest("invalid request body: " + err.Error())
	}
	return nil
}

// ValidateStruct validates obj with the shared validator
func ValidateStruct(obj interface{}) *errors.AppError {
	if err := GetValidator().Struct(obj); err != nil {
		if fields := ValidationErrorFormatter(err); len(fields) > 0 {
			return errors.ErrValidationWithFields("validation failed", fields)
		}
		return errors.ErrValidation(err.Error())
	}
	return nil
}
