package darksky

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidInput is returned when a required argument (key, lat, lng)
	// can't be used as given.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidParameter is matched by every *InvalidParameterError.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrData is returned when a raw structure can't be turned into a
	// Datapoint or Datablock.
	ErrData = errors.New("not a valid data source")
	// ErrSectionMissing is returned when the response lacks the section a
	// container is built from.
	ErrSectionMissing = errors.New("section does not exist")
	// ErrTypeMismatch is returned when a container is built without a Forecast.
	ErrTypeMismatch = errors.New("not a forecast")
	// ErrAttributeNotFound is returned when a Datapoint lacks the requested field.
	ErrAttributeNotFound = errors.New("attribute not found")
	// ErrOutOfRange is returned when a Datablock lookup resolves outside the block.
	ErrOutOfRange = errors.New("out of range")
)

// InvalidParameterError names the optional parameter and the values that
// are not on its allow-list.
type InvalidParameterError struct {
	Param  string
	Values []string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("%s are not supported by %s", strings.Join(e.Values, ", "), e.Param)
}

func (e *InvalidParameterError) Is(target error) bool {
	return target == ErrInvalidParameter
}

// StatusError is returned by a Fetcher when the API answers with a non-2xx
// status. NewForecast hands it back to the caller as is.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("darksky api returned %s", e.Status)
	}
	return fmt.Sprintf("darksky api returned status %d", e.StatusCode)
}
