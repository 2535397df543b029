package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/wellkeeper/internal/common"
	"github.com/dmitrijs2005/wellkeeper/internal/server/models"
	"github.com/go-playground/validator/v10"
)

// RegisterInput is the registration payload.
type RegisterInput struct {
	FullName    string `json:"fullname" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"required"`
	DateOfBirth string `json:"dateOfBirth" validate:"required"`
	Gender      string `json:"gender" validate:"required"`
	Password    string `json:"password" validate:"required,min=6,max=72"`
}

// LoginInput is the login payload.
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs the struct tags of in and converts failures into a
// *common.ValidationError keyed by JSON field name.
func validateStruct(in any) *common.ValidationError {
	verr := common.NewValidationError()
	err := validate.Struct(in)
	if err == nil {
		return verr
	}

	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		verr.Add("_", err.Error())
		return verr
	}
	for _, fe := range errs {
		verr.Add(fe.Field(), describe(fe))
	}
	return verr
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}

// normalizeEmail lower-cases and trims an address so lookups are case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// parseDate accepts a calendar date (2006-01-02) or a full RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errors.New("must be a date (YYYY-MM-DD)")
	}
	return t.UTC(), nil
}

// Record field names as used by clients.
const (
	fieldFullName           = "fullName"
	fieldAge                = "age"
	fieldGender             = "gender"
	fieldMobileNumber       = "mobileNumber"
	fieldHeight             = "height"
	fieldWeight             = "weight"
	fieldAllergies          = "allergies"
	fieldSurgeries          = "surgeries"
	fieldMedicalTreatment   = "medicalTreatment"
	fieldBloodType          = "bloodType"
	fieldAlcoholOrSmoke     = "alcoholOrSmoke"
	fieldDietarySupplements = "dietarySupplements"
	fieldPurpose            = "purpose"
	fieldHealthCheckupDate  = "healthCheckupDate"
)

var requiredRecordFields = []string{
	fieldFullName, fieldAge, fieldGender, fieldMobileNumber, fieldHeight, fieldWeight,
	fieldBloodType, fieldAlcoholOrSmoke, fieldPurpose, fieldHealthCheckupDate,
}

var optionalRecordFields = []string{
	fieldAllergies, fieldSurgeries, fieldMedicalTreatment, fieldDietarySupplements,
}

// RecordInput collects the client-supplied record fields in their raw text
// form, remembering which ones were present. Owner and attachment columns
// are not settable through it.
type RecordInput struct {
	values map[string]string
}

func NewRecordInput() *RecordInput {
	return &RecordInput{values: map[string]string{}}
}

// IsRecordField reports whether key names a client-settable record field.
func IsRecordField(key string) bool {
	return slices.Contains(requiredRecordFields, key) || slices.Contains(optionalRecordFields, key)
}

// Set stores value for key. Unknown keys are ignored and reported as false.
func (in *RecordInput) Set(key, value string) bool {
	if !IsRecordField(key) {
		return false
	}
	if in.values == nil {
		in.values = map[string]string{}
	}
	in.values[key] = value
	return true
}

// Get returns the raw value of key and whether it was supplied.
func (in *RecordInput) Get(key string) (string, bool) {
	if in == nil {
		return "", false
	}
	v, ok := in.values[key]
	return v, ok
}

// Len returns the number of supplied fields.
func (in *RecordInput) Len() int {
	if in == nil {
		return 0
	}
	return len(in.values)
}

// UnmarshalJSON accepts an object whose values are strings, numbers or null.
// Null values count as not supplied.
func (in *RecordInput) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	in.values = map[string]string{}
	for k, v := range raw {
		switch t := v.(type) {
		case nil:
		case string:
			in.Set(k, t)
		case json.Number:
			in.Set(k, t.String())
		case bool:
			in.Set(k, strconv.FormatBool(t))
		default:
			if IsRecordField(k) {
				verr := common.NewValidationError()
				verr.Add(k, "must be a string or a number")
				return verr
			}
		}
	}
	return nil
}

// Apply validates the supplied fields and copies them onto rec. With
// requireAll every required field must be present; otherwise only supplied
// fields are checked and overwritten. rec is left untouched on error.
func (in *RecordInput) Apply(rec *models.HealthRecord, requireAll bool) error {
	verr := common.NewValidationError()
	next := *rec

	if requireAll {
		for _, f := range requiredRecordFields {
			if v, ok := in.Get(f); !ok || strings.TrimSpace(v) == "" {
				verr.Add(f, "is required")
			}
		}
	}

	text := func(field string, dst *string, required bool) {
		v, ok := in.Get(field)
		if !ok {
			return
		}
		v = strings.TrimSpace(v)
		if required && v == "" {
			verr.Add(field, "is required")
			return
		}
		*dst = v
	}

	text(fieldFullName, &next.FullName, true)
	text(fieldMobileNumber, &next.MobileNumber, true)
	text(fieldBloodType, &next.BloodType, true)
	text(fieldPurpose, &next.Purpose, true)
	text(fieldAllergies, &next.Allergies, false)
	text(fieldSurgeries, &next.Surgeries, false)
	text(fieldMedicalTreatment, &next.MedicalTreatment, false)
	text(fieldDietarySupplements, &next.DietarySupplements, false)

	if v, ok := in.Get(fieldAge); ok && strings.TrimSpace(v) != "" {
		age, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || age < 0 || age > 150 {
			verr.Add(fieldAge, "must be a whole number between 0 and 150")
		} else {
			next.Age = age
		}
	} else if ok {
		verr.Add(fieldAge, "is required")
	}

	positive := func(field string, dst *float64) {
		v, ok := in.Get(field)
		if !ok {
			return
		}
		if strings.TrimSpace(v) == "" {
			verr.Add(field, "is required")
			return
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || f <= 0 {
			verr.Add(field, "must be a positive number")
			return
		}
		*dst = f
	}
	positive(fieldHeight, &next.Height)
	positive(fieldWeight, &next.Weight)

	oneOf := func(field string, allowed []string, dst *string) {
		v, ok := in.Get(field)
		if !ok {
			return
		}
		v = strings.TrimSpace(v)
		if v == "" {
			verr.Add(field, "is required")
			return
		}
		if !slices.Contains(allowed, v) {
			verr.Add(field, "must be one of "+strings.Join(allowed, ", "))
			return
		}
		*dst = v
	}
	oneOf(fieldGender, models.Genders, &next.Gender)
	oneOf(fieldAlcoholOrSmoke, models.AlcoholOrSmokes, &next.AlcoholOrSmoke)

	if v, ok := in.Get(fieldHealthCheckupDate); ok {
		if strings.TrimSpace(v) == "" {
			verr.Add(fieldHealthCheckupDate, "is required")
		} else if d, err := parseDate(v); err != nil {
			verr.Add(fieldHealthCheckupDate, err.Error())
		} else {
			next.HealthCheckupDate = d
		}
	}

	if err := verr.OrNil(); err != nil {
		return err
	}
	*rec = next
	return nil
}
