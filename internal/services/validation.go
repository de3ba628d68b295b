package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/artisanhub/backend/internal/models"
	"github.com/go-playground/validator/v10"
)

// ErrorResponse represents error response structure
type ErrorResponse struct {
	Error   string            `json:"error"`             // Error message
	Details map[string]string `json:"details,omitempty"` // Validation details
}

// ValidationHelper provides shared validation functionality
type ValidationHelper struct {
	validator *validator.Validate
}

// NewValidationHelper creates a validator that reports fields by JSON name
// and knows the ledger's cross-field rules
func NewValidationHelper() *ValidationHelper {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	v.RegisterStructValidation(validateOrderLinkage, models.CreateTransactionRequest{})

	return &ValidationHelper{
		validator: v,
	}
}

// ValidateStruct validates a struct and returns validation errors
func (vh *ValidationHelper) ValidateStruct(s any) error {
	return vh.validator.Struct(s)
}

// ValidateCreate checks a create request and converts failures into a
// ValidationError
func (vh *ValidationHelper) ValidateCreate(req *models.CreateTransactionRequest) error {
	if req == nil {
		return newFieldError("body", "is required")
	}
	return toValidationError(vh.validator.Struct(req))
}

func validateOrderLinkage(sl validator.StructLevel) {
	var req models.CreateTransactionRequest
	switch v := sl.Current().Interface().(type) {
	case models.CreateTransactionRequest:
		req = v
	case *models.CreateTransactionRequest:
		req = *v
	default:
		return
	}

	if !req.Type.RequiresOrder() {
		return
	}
	if req.OrderID == nil || strings.TrimSpace(*req.OrderID) == "" {
		sl.ReportError(req.OrderID, "order", "OrderID", "required_for_type", string(req.Type))
	}
}

func toValidationError(err error) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Fields: map[string]string{"body": err.Error()}}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe)] = describeTag(fe)
	}
	return &ValidationError{Fields: fields}
}

// fieldPath drops the root struct name from the namespace
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "required_for_type":
		return fmt.Sprintf("is required for type %s", fe.Param())
	default:
		return fmt.Sprintf("Field Validation Failed on '%s' tag", fe.Tag())
	}
}

// SendErrorResponse sends a JSON error response
func SendErrorResponse(w http.ResponseWriter, message string, statusCode int, validationErr error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResp := ErrorResponse{Error: message}
	if validationErr != nil {
		var ve *ValidationError
		if !errors.As(validationErr, &ve) {
			if converted, ok := toValidationError(validationErr).(*ValidationError); ok {
				ve = converted
			}
		}
		if ve != nil && len(ve.Fields) > 0 {
			errorResp.Details = ve.Fields
		}
	}

	json.NewEncoder(w).Encode(errorResp)
}
