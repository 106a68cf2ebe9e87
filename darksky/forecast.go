package darksky

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

const DefaultBaseURL = "https://api.darksky.net/forecast"

type options struct {
	exclude []Section
	extend  []Section
	lang    string
	units   string
	fetcher Fetcher
	baseURL string
	logger  *slog.Logger
}

type Option func(*options)

// WithExclude leaves the given sections out of the response.
func WithExclude(sections ...Section) Option {
	return func(o *options) { o.exclude = sections }
}

// WithExtend asks for extended data, only "hourly" is supported (168 hours
// instead of 48).
func WithExtend(sections ...Section) Option {
	return func(o *options) { o.extend = sections }
}

// WithLang sets the language of the summaries, default "en".
func WithLang(lang string) Option {
	return func(o *options) { o.lang = lang }
}

// WithUnits sets the unit system, default "auto".
func WithUnits(units string) Option {
	return func(o *options) { o.units = units }
}

// WithFetcher replaces the default HTTP fetcher.
func WithFetcher(f Fetcher) Option {
	return func(o *options) { o.fetcher = f }
}

func WithBaseURL(base string) Option {
	return func(o *options) { o.baseURL = base }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Forecast is one fetched forecast for a coordinate. It is immutable once
// NewForecast returns and safe for concurrent use; every container accessor
// builds a fresh view over the same response.
type Forecast struct {
	key        string
	lat        float64
	lng        float64
	exclude    []Section
	extend     []Section
	lang       string
	units      string
	url        string
	redacted   string
	statusCode int
	data       map[string]any
}

// NewForecast validates the parameters, performs exactly one request and
// returns the parsed forecast. Parameter errors are returned before any
// request is made. Errors from the fetcher are returned unwrapped.
func NewForecast(ctx context.Context, key string, lat, lng float64, opts ...Option) (*Forecast, error) {
	o := options{baseURL: DefaultBaseURL}
	for _, opt := range opts {
		opt(&o)
	}

	f := &Forecast{}
	if err := f.init(key, lat, lng, o); err != nil {
		return nil, err
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default().With(slog.String("module", "darksky"))
	}
	fetcher := o.fetcher
	if fetcher == nil {
		fetcher = NewHTTPFetcher(DefaultTimeout)
	}

	logger.Info("fetching forecast from darksky...", slog.String("url", f.redacted))

	status, body, err := fetcher.Fetch(ctx, f.url)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, &StatusError{StatusCode: status}
	}
	f.statusCode = status

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&f.data); err != nil {
		return nil, fmt.Errorf("%w: error unmarshaling darksky json: %v", ErrData, err)
	}
	if f.data == nil {
		return nil, fmt.Errorf("%w: darksky response is not an object", ErrData)
	}

	logger.Debug("forecast fetched",
		slog.Int("status", status),
		slog.Int("bytes", len(body)),
		slog.Any("sections", f.presentSections()))

	return f, nil
}

func (f *Forecast) init(key string, lat, lng float64, o options) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: api key is empty", ErrInvalidInput)
	}
	if !finite(lat) || !finite(lng) {
		return fmt.Errorf("%w: coordinates %v,%v are not finite", ErrInvalidInput, lat, lng)
	}
	f.key, f.lat, f.lng = key, lat, lng

	var err error
	if f.exclude, err = validateSections("exclude", o.exclude, excludeAllowed); err != nil {
		return err
	}
	if f.extend, err = validateSections("extend", o.extend, extendAllowed); err != nil {
		return err
	}
	if f.lang, err = validateChoice("lang", o.lang, DefaultLang, langAllowed); err != nil {
		return err
	}
	if f.units, err = validateChoice("units", o.units, DefaultUnits, unitsAllowed); err != nil {
		return err
	}

	f.url = f.buildURL(o.baseURL, url.PathEscape(f.key))
	f.redacted = f.buildURL(o.baseURL, "***")
	return nil
}

func (f *Forecast) buildURL(base, key string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s/%s/%s,%s?lang=%s&units=%s",
		strings.TrimRight(base, "/"),
		key,
		formatCoordinate(f.lat),
		formatCoordinate(f.lng),
		f.lang,
		f.units)
	if len(f.exclude) > 0 {
		b.WriteString("&exclude=")
		b.WriteString(joinSections(f.exclude))
	}
	if len(f.extend) > 0 {
		b.WriteString("&extend=")
		b.WriteString(joinSections(f.extend))
	}
	return b.String()
}

func (f *Forecast) Key() string         { return f.key }
func (f *Forecast) Lat() float64        { return f.lat }
func (f *Forecast) Lng() float64        { return f.lng }
func (f *Forecast) Lang() string        { return f.lang }
func (f *Forecast) Units() string       { return f.units }
func (f *Forecast) Exclude() []Section  { return slices.Clone(f.exclude) }
func (f *Forecast) Extend() []Section   { return slices.Clone(f.extend) }
func (f *Forecast) URL() string         { return f.url }
func (f *Forecast) RedactedURL() string { return f.redacted }
func (f *Forecast) StatusCode() int     { return f.statusCode }

// Timezone returns the IANA timezone name of the location, if present.
func (f *Forecast) Timezone() (string, bool) {
	tz, ok := f.data["timezone"].(string)
	return tz, ok
}

// Location loads the timezone of the forecast location.
func (f *Forecast) Location() (*time.Location, error) {
	tz, ok := f.Timezone()
	if !ok {
		return nil, fmt.Errorf("%w: timezone", ErrAttributeNotFound)
	}
	return time.LoadLocation(tz)
}

// Has reports whether name is a container section and is present in the
// response.
func (f *Forecast) Has(name string) bool {
	if f == nil || !IsSection(name) {
		return false
	}
	_, ok := f.data[name]
	return ok
}

func (f *Forecast) Currently() (Currently, error) { return NewCurrently(f) }
func (f *Forecast) Minutely() (Minutely, error)   { return NewMinutely(f) }
func (f *Forecast) Hourly() (Hourly, error)       { return NewHourly(f) }
func (f *Forecast) Daily() (Daily, error)         { return NewDaily(f) }
func (f *Forecast) Alerts() (Alerts, error)       { return NewAlerts(f) }
func (f *Forecast) Flags() (Flags, error)         { return NewFlags(f) }

func (f *Forecast) String() string {
	return fmt.Sprintf("forecast for %s,%s with %d sections",
		formatCoordinate(f.lat), formatCoordinate(f.lng), len(f.presentSections()))
}

// section returns the raw section for a container, checking both that a
// Forecast was given and that the section exists.
func (f *Forecast) section(s Section) (any, error) {
	if f == nil {
		return nil, ErrTypeMismatch
	}
	raw, ok := f.data[string(s)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSectionMissing, s)
	}
	return raw, nil
}

func (f *Forecast) presentSections() []string {
	var present []string
	for _, s := range Sections() {
		if f.Has(string(s)) {
			present = append(present, string(s))
		}
	}
	return present
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func joinSections(sections []Section) string {
	names := make([]string, len(sections))
	for i, s := range sections {
		names[i] = string(s)
	}
	return strings.Join(names, ",")
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
