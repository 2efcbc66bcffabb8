// Package validation turns raw request payloads into typed, normalized
// request values or a list of field errors.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"sweetshop/internal/models"

	"github.com/go-playground/validator/v10"
)

type payload interface {
	normalize()
}

// Validator decodes and checks request payloads.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator that reports fields by their JSON names.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// DecodeRegister decodes a registration body. Unknown keys are rejected.
func (v *Validator) DecodeRegister(body []byte) (RegisterRequest, error) {
	var req RegisterRequest
	err := v.decode(body, &req, true)
	return req, err
}

// DecodeLogin decodes a login body. Unknown keys are rejected.
func (v *Validator) DecodeLogin(body []byte) (LoginRequest, error) {
	var req LoginRequest
	err := v.decode(body, &req, true)
	return req, err
}

// DecodeCreateSweet decodes a new sweet. Unknown keys are ignored.
func (v *Validator) DecodeCreateSweet(body []byte) (CreateSweetRequest, error) {
	var req CreateSweetRequest
	err := v.decode(body, &req, false)
	return req, err
}

// DecodeUpdateSweet decodes a partial update. Unknown keys are rejected.
func (v *Validator) DecodeUpdateSweet(body []byte) (UpdateSweetRequest, error) {
	var req UpdateSweetRequest
	err := v.decode(body, &req, true)
	return req, err
}

// DecodePurchase decodes a purchase body. Unknown keys are ignored.
func (v *Validator) DecodePurchase(body []byte) (PurchaseRequest, error) {
	var req PurchaseRequest
	err := v.decode(body, &req, false)
	return req, err
}

// DecodeRestock decodes a restock body. Unknown keys are rejected.
func (v *Validator) DecodeRestock(body []byte) (RestockRequest, error) {
	var req RestockRequest
	err := v.decode(body, &req, true)
	return req, err
}

func (v *Validator) decode(body []byte, dst payload, strict bool) error {
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	if strict {
		if err := rejectUnknownKeys(body, dst); err != nil {
			return err
		}
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(dst); err != nil {
		return decodeError(err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return single("body", "must contain a single JSON object")
	}

	dst.normalize()

	if err := v.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fromValidationErrors(verrs)
		}
		return fmt.Errorf("failed to validate payload: %w", err)
	}
	return nil
}

// rejectUnknownKeys reports the first key that is not an exact json tag of
// dst. encoding/json matches keys case-insensitively, so "AMOUNT" would
// otherwise land in the amount field.
func rejectUnknownKeys(body []byte, dst payload) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		// Not an object; the typed decode reports it.
		return nil
	}

	known := jsonNames(reflect.TypeOf(dst))
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if _, ok := known[key]; !ok {
			return single(key, "is not allowed")
		}
	}
	return nil
}

func jsonNames(t reflect.Type) map[string]struct{} {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	names := make(map[string]struct{}, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name := strings.SplitN(t.Field(i).Tag.Get("json"), ",", 2)[0]
		if name != "" && name != "-" {
			names[name] = struct{}{}
		}
	}
	return names
}

func decodeError(err error) FieldErrors {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			return single("body", "must be a JSON object")
		}
		return single(field, "must be "+describeKind(typeErr.Type.Kind()))
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return single("body", "must be valid JSON")
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		return single(field, "is not allowed")
	default:
		return single("body", "could not be decoded")
	}
}

func describeKind(k reflect.Kind) string {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "an integer"
	case reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	default:
		return "a valid value"
	}
}

func fromValidationErrors(verrs validator.ValidationErrors) FieldErrors {
	out := make(FieldErrors, 0, len(verrs))
	for _, e := range verrs {
		out = append(out, FieldError{Field: e.Field(), Message: message(e)})
	}
	return out
}

func message(e validator.FieldError) string {
	isString := e.Kind() == reflect.String
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if isString {
			return fmt.Sprintf("must be at least %s characters", e.Param())
		}
		return "must be at least " + e.Param()
	case "max":
		if isString {
			return fmt.Sprintf("must be at most %s characters", e.Param())
		}
		return "must be at most " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	default:
		return fmt.Sprintf("failed on the '%s' rule", e.Tag())
	}
}

// ParseSearchQuery builds a filter from raw query string values. Blank values
// are treated as absent.
func ParseSearchQuery(name, category, minPrice, maxPrice string) (models.SweetFilter, error) {
	filter := models.SweetFilter{
		Name:     strings.TrimSpace(name),
		Category: strings.TrimSpace(category),
	}

	var errs FieldErrors
	if p, ok, msg := parsePrice(minPrice); msg != "" {
		errs = append(errs, FieldError{Field: "minPrice", Message: msg})
	} else if ok {
		filter.MinPrice = &p
	}
	if p, ok, msg := parsePrice(maxPrice); msg != "" {
		errs = append(errs, FieldError{Field: "maxPrice", Message: msg})
	} else if ok {
		filter.MaxPrice = &p
	}
	if len(errs) > 0 {
		return models.SweetFilter{}, errs
	}

	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return models.SweetFilter{}, single("minPrice", "must not be greater than maxPrice")
	}
	return filter, nil
}

func parsePrice(raw string) (float64, bool, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false, ""
	}
	p, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, false, "must be a number"
	}
	if p < 0 {
		return 0, false, "must be greater than or equal to 0"
	}
	return p, true, ""
}
