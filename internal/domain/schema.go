package domain

import (
	"fmt"
	"strings"
)

// Option schema messages.
const (
	MsgTooManyOptions       = "Maximum of 3 product options allowed."
	MsgDuplicateOptionNames = "Option Names must be unique. Duplicates: %s."
	MsgOptionNameEmpty      = "Option name cannot be empty."
	MsgUnknownDisplayFormat = "Display format must be one of: dropdown, buttons, colorSwatch, images."
	MsgTooFewValues         = "A minimum of ONE option value is required."
	MsgTooManyValues        = "You have reached the cap of 30 values."
	MsgOptionValueEmpty     = "Option value cannot be empty."
	MsgDuplicateValues      = "Option Values must be unique. Duplicates: %s."
	MsgColorRequired        = "Color is required for all values when using Color Swatch."
	MsgImageRequired        = "Image is required for all values when using Images."
	MsgValueKindMismatch    = "Value kind must match the option's display format."
)

// FieldErrors maps a field path such as "options[0].values" to a message.
type FieldErrors map[string]string

// add keeps the first message reported for a path.
func (e FieldErrors) add(path, message string) {
	if _, ok := e[path]; !ok {
		e[path] = message
	}
}

// Merge copies other into e without overwriting existing paths.
func (e FieldErrors) Merge(other FieldErrors) {
	for path, msg := range other {
		e.add(path, msg)
	}
}

// ValidateOptions checks a product's option list. It returns an empty map
// when the list is acceptable.
func ValidateOptions(options []Option) FieldErrors {
	errs := FieldErrors{}

	if len(options) > MaxOptions {
		errs.add("options", MsgTooManyOptions)
	}

	names := make([]string, 0, len(options))
	for _, o := range options {
		if strings.TrimSpace(o.Name) != "" {
			names = append(names, o.Name)
		}
	}
	if dups := duplicates(names); len(dups) > 0 {
		errs.add("options", fmt.Sprintf(MsgDuplicateOptionNames, strings.Join(dups, ", ")))
	}

	for i, o := range options {
		validateOption(errs, fmt.Sprintf("options[%d]", i), o)
	}
	return errs
}

func validateOption(errs FieldErrors, path string, o Option) {
	if strings.TrimSpace(o.Name) == "" {
		errs.add(path+".name", MsgOptionNameEmpty)
	}
	if !IsValidDisplayFormat(string(o.DisplayFormat)) {
		errs.add(path+".display_format", MsgUnknownDisplayFormat)
	}

	switch {
	case len(o.Values) < MinValuesPerOption:
		errs.add(path+".values", MsgTooFewValues)
	case len(o.Values) > MaxValuesPerOption:
		errs.add(path+".values", MsgTooManyValues)
	}

	values := make([]string, 0, len(o.Values))
	for j, v := range o.Values {
		vpath := fmt.Sprintf("%s.values[%d]", path, j)
		if strings.TrimSpace(v.Value) == "" {
			errs.add(vpath+".value", MsgOptionValueEmpty)
		} else {
			values = append(values, v.Value)
		}
		validateValuePayload(errs, vpath, o.DisplayFormat, v)
	}
	if dups := duplicates(values); len(dups) > 0 {
		errs.add(path+".values", fmt.Sprintf(MsgDuplicateValues, strings.Join(dups, ", ")))
	}
}

func validateValuePayload(errs FieldErrors, path string, format DisplayFormat, v OptionValue) {
	if !IsValidDisplayFormat(string(format)) {
		return
	}
	if v.Kind != format.ValueKind() {
		errs.add(path+".kind", MsgValueKindMismatch)
	}

	switch format {
	case DisplayColorSwatch:
		if v.Color == nil {
			errs.add(path+".color", MsgColorRequired)
		}
	case DisplayImages:
		if v.Image == nil || strings.TrimSpace(v.Image.Ref) == "" {
			errs.add(path+".image", MsgImageRequired)
		}
	}
}

// duplicates returns each repeated string once, in order of first repetition.
func duplicates(items []string) []string {
	seen := make(map[string]int, len(items))
	var dups []string
	for _, item := range items {
		seen[item]++
		if seen[item] == 2 {
			dups = append(dups, item)
		}
	}
	return dups
}
