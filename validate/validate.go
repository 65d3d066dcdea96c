// Package validate checks a flat answer map against a form's field schema.
// It is a pure function of its inputs: no storage, no request state.
package validate

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dynaform/dynaform/model"
)

// Errors maps a field name, or a synthesized nested key
// {field}_{optionValue}_{nested}, to its list of messages.
type Errors map[string][]string

// ErrNoFields is returned for a form with an empty field list, which can
// never accept a submission.
var ErrNoFields = errors.New("form has no fields")

var reEmail = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Submission validates answers against the form schema. A non-empty Errors
// map means the submission is invalid; a non-nil error means validation
// itself failed (broken schema) and the caller should treat it as a server
// fault. All field errors are collected, never first-failure-only.
//
// Known quirk, kept on purpose: a checkbox/radio/select field whose options
// list is empty skips membership checks entirely, so any submitted value
// passes for it.
func Submission(form *model.Form, answers map[string]any) (Errors, error) {
	if len(form.Fields) == 0 {
		return nil, ErrNoFields
	}

	errs := Errors{}
	for i := range form.Fields {
		field := &form.Fields[i]
		value := answers[field.Name]

		var fieldErrors []string
		if field.Required && isEmpty(value) {
			fieldErrors = append(fieldErrors, field.Label+" is required")
		}

		if !isEmpty(value) {
			switch field.Type {
			case model.TypeEmail:
				fieldErrors = append(fieldErrors, checkEmail(value, field.Label)...)
			case model.TypeNumber:
				fieldErrors = append(fieldErrors, checkNumber(value, field.Label, field.Validation)...)
			case model.TypeText, model.TypeTextarea:
				textErrors, err := checkText(value, field.Label, field.Validation)
				if err != nil {
					return nil, err
				}
				fieldErrors = append(fieldErrors, textErrors...)
			case model.TypeCheckbox:
				fieldErrors = append(fieldErrors, checkCheckbox(value, field.Label, field.Options)...)
			case model.TypeRadio, model.TypeSelect:
				if len(field.Options) > 0 {
					selected := selectedOption(field.Options, value)
					if selected == nil {
						fieldErrors = append(fieldErrors, field.Label+" must be one of the provided options")
					} else if len(selected.NestedFields) > 0 {
						err := checkNested(selected.NestedFields, field.Name, selected.Value, answers, errs)
						if err != nil {
							return nil, err
						}
					}
				}
			case model.TypeFile:
				fieldErrors = append(fieldErrors, checkFile(value, field.Label, field.Validation)...)
			case model.TypeDate:
				// no format check beyond required
			}
		}

		if len(fieldErrors) > 0 {
			errs[field.Name] = fieldErrors
		}
	}

	return errs, nil
}

// isEmpty mirrors the required-check: only a missing key, an explicit null
// or an empty string counts as "no answer". An empty array does not.
func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	s, ok := value.(string)
	return ok && s == ""
}

func checkEmail(value any, label string) (errs []string) {
	if !reEmail.MatchString(stringify(value)) {
		errs = append(errs, label+" must be a valid email")
	}
	return
}

func checkNumber(value any, label string, v *model.Validation) (errs []string) {
	num := toNumber(value)
	if math.IsNaN(num) {
		return append(errs, label+" must be a number")
	}
	if v == nil {
		return
	}
	if v.Min != nil && num < *v.Min {
		errs = append(errs, label+" must be at least "+formatNumber(*v.Min))
	}
	if v.Max != nil && num > *v.Max {
		errs = append(errs, label+" must be at most "+formatNumber(*v.Max))
	}
	return
}

func checkText(value any, label string, v *model.Validation) (errs []string, err error) {
	if v == nil {
		return
	}
	s := stringify(value)
	length := utf8.RuneCountInString(s)
	if v.MinLength != nil && *v.MinLength != 0 && length < *v.MinLength {
		errs = append(errs, fmt.Sprintf("%s must be at least %d characters", label, *v.MinLength))
	}
	if v.MaxLength != nil && *v.MaxLength != 0 && length > *v.MaxLength {
		errs = append(errs, fmt.Sprintf("%s must be at most %d characters", label, *v.MaxLength))
	}
	if v.Pattern != "" {
		re, compileErr := regexp.Compile(v.Pattern)
		if compileErr != nil {
			return nil, fmt.Errorf("invalid pattern for %s: %w", label, compileErr)
		}
		if !re.MatchString(s) {
			errs = append(errs, label+" format is invalid")
		}
	}
	return
}

func checkCheckbox(value any, label string, options []model.Option) (errs []string) {
	items, ok := value.([]any)
	if !ok {
		return append(errs, label+" must be an array")
	}
	if len(options) == 0 {
		return
	}
	for _, item := range items {
		s, ok := item.(string)
		if !ok || !optionValue(options, s) {
			return append(errs, label+" contains invalid options")
		}
	}
	return
}

func checkFile(value any, label string, v *model.Validation) (errs []string) {
	var dataURI string
	switch val := value.(type) {
	case string:
		if !strings.HasPrefix(val, "data:") {
			return append(errs, label+" must be a valid file")
		}
		dataURI = val
	case map[string]any:
		d, ok := val["data"].(string)
		if !ok {
			return append(errs, label+" must be a valid file")
		}
		dataURI = d
	default:
		return append(errs, label+" must be a valid file")
	}

	var payload string
	if _, after, found := strings.Cut(dataURI, ","); found {
		payload = after
	}
	size := decodedSize(payload)
	if size < 0 {
		return append(errs, label+" must be a valid file")
	}

	if v == nil {
		return
	}
	if len(v.AllowedTypes) > 0 {
		mime := mimeType(dataURI)
		allowed := false
		for _, t := range v.AllowedTypes {
			if t == mime {
				allowed = true
				break
			}
		}
		if !allowed {
			errs = append(errs, fmt.Sprintf("%s must be one of the allowed file types: %s",
				label, strings.Join(v.AllowedTypes, ", ")))
		}
	}
	if v.MaxSize != nil && *v.MaxSize != 0 && int64(size) > *v.MaxSize {
		errs = append(errs, fmt.Sprintf("%s must be smaller than %.2fMB",
			label, float64(*v.MaxSize)/(1024*1024)))
	}
	return
}

// checkNested validates the fields revealed by a selected option. Answers
// live under {parentField}_{optionValue}_{name}. Only the simple kinds get
// type checks; anything else is required-only.
func checkNested(nested []model.NestedField, fieldName, optValue string, answers map[string]any, errs Errors) error {
	for _, nf := range nested {
		key := fieldName + "_" + optValue + "_" + nf.Name
		value := answers[key]

		var nestedErrors []string
		if nf.Required && isEmpty(value) {
			nestedErrors = append(nestedErrors, nf.Label+" is required")
		}

		if !isEmpty(value) {
			switch nf.Type {
			case model.TypeEmail:
				nestedErrors = append(nestedErrors, checkEmail(value, nf.Label)...)
			case model.TypeNumber:
				nestedErrors = append(nestedErrors, checkNumber(value, nf.Label, nf.Validation)...)
			case model.TypeText, model.TypeTextarea:
				textErrors, err := checkText(value, nf.Label, nf.Validation)
				if err != nil {
					return err
				}
				nestedErrors = append(nestedErrors, textErrors...)
			}
		}

		if len(nestedErrors) > 0 {
			errs[key] = nestedErrors
		}
	}
	return nil
}

func selectedOption(options []model.Option, value any) *model.Option {
	s, ok := value.(string)
	if !ok {
		return nil
	}
	for i := range options {
		if options[i].Value == s {
			return &options[i]
		}
	}
	return nil
}

func optionValue(options []model.Option, value string) bool {
	for _, opt := range options {
		if opt.Value == value {
			return true
		}
	}
	return false
}

func mimeType(dataURI string) string {
	head, _, _ := strings.Cut(dataURI, ";")
	_, mime, _ := strings.Cut(head, ":")
	return mime
}

// decodedSize returns the byte length of a base64 payload, tolerating
// missing padding. -1 means the payload is not decodable at all.
func decodedSize(payload string) int {
	payload = strings.TrimSpace(payload)
	if data, err := base64.StdEncoding.DecodeString(payload); err == nil {
		return len(data)
	}
	trimmed := strings.TrimRight(payload, "=")
	if data, err := base64.RawStdEncoding.DecodeString(trimmed); err == nil {
		return len(data)
	}
	return -1
}

// stringify mirrors loose string coercion of decoded JSON values.
func stringify(value any) string {
	switch val := value.(type) {
	case string:
		return val
	case float64:
		return formatNumber(val)
	case int:
		return strconv.Itoa(val)
	case bool:
		return strconv.FormatBool(val)
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = stringify(item)
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(val)
	}
}

// toNumber mirrors loose numeric coercion: numeric strings parse, booleans
// count as 0/1, everything else is NaN.
func toNumber(value any) float64 {
	switch val := value.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case bool:
		if val {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0
		}
		num, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return num
	default:
		return math.NaN()
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
