package darksky

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"time"

	"github.com/icodeforyou/darksky-go/convert"
	"github.com/icodeforyou/darksky-go/types/maybe"
)

// Datapoint wraps a single record from the API response, e.g. the
// "currently" object or one entry of a data block. Only "time" is
// guaranteed for timed points, every other field may be absent.
//
// See https://darksky.net/dev/docs/response under Data Point Object for
// the list of possible fields.
type Datapoint struct {
	fields map[string]any
}

func NewDatapoint(raw any) (Datapoint, error) {
	fields, ok := raw.(map[string]any)
	if !ok {
		return Datapoint{}, fmt.Errorf("%w: data point must be an object, got %T", ErrData, raw)
	}
	return Datapoint{fields: fields}, nil
}

// Get returns the raw value of a field.
func (d Datapoint) Get(name string) (any, error) {
	v, ok := d.fields[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAttributeNotFound, name)
	}
	return v, nil
}

func (d Datapoint) Lookup(name string) maybe.Maybe[any] {
	v, ok := d.fields[name]
	return maybe.FromOk(v, ok)
}

func (d Datapoint) Has(name string) bool {
	_, ok := d.fields[name]
	return ok
}

func (d Datapoint) Len() int {
	return len(d.fields)
}

func (d Datapoint) Float(name string) (float64, error) {
	v, err := d.Get(name)
	if err != nil {
		return 0, err
	}
	f, ok := convert.ToFloat64(v)
	if !ok {
		return 0, fmt.Errorf("%w: %s is %T, not a number", ErrData, name, v)
	}
	return f, nil
}

func (d Datapoint) Int(name string) (int64, error) {
	v, err := d.Get(name)
	if err != nil {
		return 0, err
	}
	i, ok := convert.ToInt64(v)
	if !ok {
		return 0, fmt.Errorf("%w: %s is %v, not an integer", ErrData, name, v)
	}
	return i, nil
}

// Text returns a string field. Named Text so String stays the fmt.Stringer.
func (d Datapoint) Text(name string) (string, error) {
	v, err := d.Get(name)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s is %T, not a string", ErrData, name, v)
	}
	return s, nil
}

// Unix returns the "time" field in UNIX seconds.
func (d Datapoint) Unix() (int64, error) {
	t, err := d.Int("time")
	if err != nil {
		return 0, err
	}
	if t < 0 {
		return 0, fmt.Errorf("%w: negative time %d", ErrData, t)
	}
	return t, nil
}

func (d Datapoint) Time() (time.Time, error) {
	t, err := d.Unix()
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(t, 0).UTC(), nil
}

// Attributes returns the names of all present fields, sorted.
func (d Datapoint) Attributes() []string {
	return slices.Sorted(maps.Keys(d.fields))
}

// Items yields every field in name order. Each call starts a new pass.
func (d Datapoint) Items() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, name := range d.Attributes() {
			if !yield(name, d.fields[name]) {
				return
			}
		}
	}
}

func (d Datapoint) String() string {
	return d.label("data point")
}

func (d Datapoint) label(kind string) string {
	if t, err := d.Unix(); err == nil {
		return fmt.Sprintf("%s at time %d with %d attributes", kind, t, d.Len())
	}
	return fmt.Sprintf("%s with %d attributes", kind, d.Len())
}
