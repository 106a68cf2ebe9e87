package darksky

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Section names a top-level block of the response. The same names are used
// for the exclude and extend request parameters.
type Section string

const (
	SectionCurrently Section = "currently"
	SectionMinutely  Section = "minutely"
	SectionHourly    Section = "hourly"
	SectionDaily     Section = "daily"
	SectionAlerts    Section = "alerts"
	SectionFlags     Section = "flags"
)

const (
	DefaultLang  = "en"
	DefaultUnits = "auto"
)

var excludeAllowed = set(
	string(SectionCurrently), string(SectionMinutely), string(SectionHourly),
	string(SectionDaily), string(SectionAlerts), string(SectionFlags))

var extendAllowed = set(string(SectionHourly))

var unitsAllowed = set("auto", "ca", "uk2", "us", "si")

var langAllowed = set(
	"ar", "az", "be", "bs", "ca", "cs", "de", "el", "en", "es", "et", "fr",
	"hr", "hu", "id", "it", "is", "kw", "nb", "nl", "pl", "pt", "ru", "sk",
	"sl", "sr", "sv", "tet", "tr", "uk", "x-pig-latin", "zh", "zh-tw")

// Sections returns every container section name.
func Sections() []Section {
	return []Section{SectionCurrently, SectionMinutely, SectionHourly, SectionDaily, SectionAlerts, SectionFlags}
}

// Languages returns the supported summary languages, sorted.
func Languages() []string {
	return sortedKeys(langAllowed)
}

// Units returns the supported unit systems, sorted.
func Units() []string {
	return sortedKeys(unitsAllowed)
}

// IsSection reports whether name is one of the container sections.
func IsSection(name string) bool {
	_, ok := excludeAllowed[name]
	return ok
}

// ParseSections turns a comma separated list ("minutely,alerts") into
// sections without validating them, NewForecast does that.
func ParseSections(s string) []Section {
	var sections []Section
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			sections = append(sections, Section(part))
		}
	}
	return sections
}

// ParseCoordinate converts a textual latitude or longitude.
func ParseCoordinate(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a coordinate", ErrInvalidInput, s)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q is not a finite coordinate", ErrInvalidInput, s)
	}
	return f, nil
}

func validateSections(param string, sections []Section, allowed map[string]struct{}) ([]Section, error) {
	if sections == nil {
		return nil, nil
	}
	var invalid []string
	seen := make(map[Section]struct{}, len(sections))
	result := make([]Section, 0, len(sections))
	for _, s := range sections {
		if _, ok := allowed[string(s)]; !ok {
			if !slices.Contains(invalid, string(s)) {
				invalid = append(invalid, string(s))
			}
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		result = append(result, s)
	}
	if len(invalid) > 0 {
		slices.Sort(invalid)
		return nil, &InvalidParameterError{Param: param, Values: invalid}
	}
	return result, nil
}

func validateChoice(param, value, def string, allowed map[string]struct{}) (string, error) {
	if value == "" {
		return def, nil
	}
	if _, ok := allowed[value]; !ok {
		return "", &InvalidParameterError{Param: param, Values: []string{value}}
	}
	return value, nil
}

func set(values ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
