package darksky

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"slices"
	"testing"
)

type fakeFetcher struct {
	status int
	body   string
	err    error
	calls  int
	url    string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (int, []byte, error) {
	f.calls++
	f.url = url
	if f.err != nil {
		return f.status, nil, f.err
	}
	return f.status, []byte(f.body), nil
}

const sampleResponse = `{
	"latitude": 37.8267,
	"longitude": -122.4233,
	"timezone": "America/Los_Angeles",
	"currently": {"time": 1509993277, "summary": "Drizzle", "icon": "rain", "temperature": 66.1},
	"minutely": {"summary": "Light rain stopping in 13 min.", "icon": "rain", "data": [
		{"time": 1509993240, "precipIntensity": 0.007},
		{"time": 1509993300, "precipIntensity": 0.004}
	]},
	"hourly": {"summary": "Clear", "icon": "clear-day", "data": [
		{"time": 1000, "temperature": 70},
		{"time": 4600, "temperature": 72}
	]},
	"daily": {"data": [
		{"time": 1509951600, "temperatureHigh": 66.35},
		{"time": 1510038000, "temperatureHigh": 64.2}
	]},
	"alerts": [
		{"title": "Flood Watch for Mason, WA", "time": 1509993360, "severity": "watch"},
		{"title": "Wind Advisory", "regions": ["Mason"]}
	],
	"flags": {"sources": ["nearest-precip"], "units": "us"}
}`

func newTestForecast(t *testing.T, body string, opts ...Option) (*Forecast, *fakeFetcher) {
	t.Helper()
	ff := &fakeFetcher{status: 200, body: body}
	opts = append([]Option{WithFetcher(ff), WithLogger(quietLogger())}, opts...)
	f, err := NewForecast(context.Background(), "k", 37.8267, -122.4233, opts...)
	if err != nil {
		t.Fatalf("NewForecast failed: %v", err)
	}
	return f, ff
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestForecastURL(t *testing.T) {
	tests := []struct {
		name     string
		opts     []Option
		expected string
	}{
		{
			name:     "defaults",
			expected: "https://api.darksky.net/forecast/k/37.8267,-122.4233?lang=en&units=auto",
		},
		{
			name:     "lang and units",
			opts:     []Option{WithLang("x-pig-latin"), WithUnits("si")},
			expected: "https://api.darksky.net/forecast/k/37.8267,-122.4233?lang=x-pig-latin&units=si",
		},
		{
			name:     "exclude and extend",
			opts:     []Option{WithExclude(SectionMinutely, SectionAlerts), WithExtend(SectionHourly)},
			expected: "https://api.darksky.net/forecast/k/37.8267,-122.4233?lang=en&units=auto&exclude=minutely,alerts&extend=hourly",
		},
		{
			name:     "duplicate excludes collapse",
			opts:     []Option{WithExclude(SectionFlags, SectionFlags)},
			expected: "https://api.darksky.net/forecast/k/37.8267,-122.4233?lang=en&units=auto&exclude=flags",
		},
		{
			name:     "base url override",
			opts:     []Option{WithBaseURL("http://localhost:8080/forecast/")},
			expected: "http://localhost:8080/forecast/k/37.8267,-122.4233?lang=en&units=auto",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ff := newTestForecast(t, `{}`, tt.opts...)
			if f.URL() != tt.expected {
				t.Errorf("URL() expected %q, got %q", tt.expected, f.URL())
			}
			if ff.url != tt.expected {
				t.Errorf("fetched url expected %q, got %q", tt.expected, ff.url)
			}
			if ff.calls != 1 {
				t.Errorf("expected exactly one fetch, got %d", ff.calls)
			}
		})
	}
}

func TestForecastRedactedURL(t *testing.T) {
	ff := &fakeFetcher{status: 200, body: `{}`}
	f, err := NewForecast(context.Background(), "secret", 1.5, 2, WithFetcher(ff), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewForecast failed: %v", err)
	}
	if expected := "https://api.darksky.net/forecast/***/1.5,2?lang=en&units=auto"; f.RedactedURL() != expected {
		t.Errorf("RedactedURL() expected %q, got %q", expected, f.RedactedURL())
	}
}

func TestForecastDefaults(t *testing.T) {
	f, _ := newTestForecast(t, `{}`)
	if f.Lang() != "en" || f.Units() != "auto" {
		t.Errorf("expected defaults en/auto, got %s/%s", f.Lang(), f.Units())
	}
	if f.Exclude() != nil || f.Extend() != nil {
		t.Errorf("expected no exclude/extend, got %v/%v", f.Exclude(), f.Extend())
	}
	if f.Key() != "k" || f.Lat() != 37.8267 || f.Lng() != -122.4233 {
		t.Errorf("unexpected key/coordinates %s %f %f", f.Key(), f.Lat(), f.Lng())
	}
	if f.StatusCode() != 200 {
		t.Errorf("StatusCode() expected 200, got %d", f.StatusCode())
	}
}

func TestForecastAcceptsAllowLists(t *testing.T) {
	for _, lang := range Languages() {
		if _, err := NewForecast(context.Background(), "k", 0, 0, WithLang(lang),
			WithFetcher(&fakeFetcher{status: 200, body: `{}`}), WithLogger(quietLogger())); err != nil {
			t.Errorf("lang %q rejected: %v", lang, err)
		}
	}
	for _, units := range Units() {
		if _, err := NewForecast(context.Background(), "k", 0, 0, WithUnits(units),
			WithFetcher(&fakeFetcher{status: 200, body: `{}`}), WithLogger(quietLogger())); err != nil {
			t.Errorf("units %q rejected: %v", units, err)
		}
	}
	if _, err := NewForecast(context.Background(), "k", 0, 0, WithExclude(Sections()...),
		WithFetcher(&fakeFetcher{status: 200, body: `{}`}), WithLogger(quietLogger())); err != nil {
		t.Errorf("excluding every section rejected: %v", err)
	}
}

func TestForecastInvalidParameters(t *testing.T) {
	tests := []struct {
		name   string
		opts   []Option
		param  string
		values []string
	}{
		{"units", []Option{WithUnits("bogus")}, "units", []string{"bogus"}},
		{"lang", []Option{WithLang("klingon")}, "lang", []string{"klingon"}},
		{"exclude", []Option{WithExclude(SectionHourly, "weekly", "yearly", "weekly")}, "exclude", []string{"weekly", "yearly"}},
		{"extend", []Option{WithExtend(SectionHourly, SectionDaily)}, "extend", []string{"daily"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ff := &fakeFetcher{status: 200, body: `{}`}
			opts := append([]Option{WithFetcher(ff), WithLogger(quietLogger())}, tt.opts...)
			_, err := NewForecast(context.Background(), "k", 10, 20, opts...)

			if !errors.Is(err, ErrInvalidParameter) {
				t.Fatalf("expected ErrInvalidParameter, got %v", err)
			}
			var pe *InvalidParameterError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *InvalidParameterError, got %T", err)
			}
			if pe.Param != tt.param || !slices.Equal(pe.Values, tt.values) {
				t.Errorf("expected %s %v, got %s %v", tt.param, tt.values, pe.Param, pe.Values)
			}
			if ff.calls != 0 {
				t.Errorf("expected no fetch before validation failed, got %d", ff.calls)
			}
		})
	}
}

func TestForecastInvalidInput(t *testing.T) {
	ff := &fakeFetcher{status: 200, body: `{}`}
	if _, err := NewForecast(context.Background(), " ", 1, 2, WithFetcher(ff)); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty key expected ErrInvalidInput, got %v", err)
	}
	if _, err := NewForecast(context.Background(), "k", math.NaN(), 2, WithFetcher(ff)); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("NaN latitude expected ErrInvalidInput, got %v", err)
	}
	if _, err := NewForecast(context.Background(), "k", 1, math.Inf(1), WithFetcher(ff)); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("infinite longitude expected ErrInvalidInput, got %v", err)
	}
	if ff.calls != 0 {
		t.Errorf("expected no fetch, got %d", ff.calls)
	}
}

func TestParseCoordinate(t *testing.T) {
	if v, err := ParseCoordinate(" 59.3293 "); err != nil || v != 59.3293 {
		t.Errorf("ParseCoordinate expected 59.3293, got %f (%v)", v, err)
	}
	for _, s := range []string{"north", "", "NaN", "+Inf"} {
		if _, err := ParseCoordinate(s); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("ParseCoordinate(%q) expected ErrInvalidInput, got %v", s, err)
		}
	}
}

func TestForecastTransportErrors(t *testing.T) {
	statusErr := &StatusError{StatusCode: 403, Status: "403 Forbidden"}
	ff := &fakeFetcher{status: 403, err: statusErr}
	f, err := NewForecast(context.Background(), "k", 1, 2, WithFetcher(ff), WithLogger(quietLogger()))
	if f != nil {
		t.Errorf("expected no forecast on transport failure")
	}
	if err != statusErr {
		t.Errorf("expected the fetcher error unwrapped, got %v", err)
	}

	// A fetcher that forgets to fail on a bad status still doesn't produce a forecast.
	ff = &fakeFetcher{status: 500, body: `{}`}
	_, err = NewForecast(context.Background(), "k", 1, 2, WithFetcher(ff), WithLogger(quietLogger()))
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != 500 {
		t.Errorf("expected *StatusError 500, got %v", err)
	}
}

func TestForecastMalformedBody(t *testing.T) {
	for _, body := range []string{`not json`, `null`, `[1,2]`} {
		ff := &fakeFetcher{status: 200, body: body}
		if _, err := NewForecast(context.Background(), "k", 1, 2, WithFetcher(ff), WithLogger(quietLogger())); !errors.Is(err, ErrData) {
			t.Errorf("body %q expected ErrData, got %v", body, err)
		}
	}
}

func TestForecastHas(t *testing.T) {
	f, _ := newTestForecast(t, sampleResponse)
	for _, s := range Sections() {
		if !f.Has(string(s)) {
			t.Errorf("Has(%q) expected true", s)
		}
	}
	if f.Has("timezone") {
		t.Errorf("Has(timezone) expected false, timezone is not a container")
	}

	empty, _ := newTestForecast(t, `{"timezone": "UTC"}`)
	if empty.Has("hourly") {
		t.Errorf("Has(hourly) expected false on empty response")
	}
}

func TestForecastTimezone(t *testing.T) {
	f, _ := newTestForecast(t, sampleResponse)
	tz, ok := f.Timezone()
	if !ok || tz != "America/Los_Angeles" {
		t.Errorf("Timezone() expected America/Los_Angeles, got %q (%t)", tz, ok)
	}

	noTz, _ := newTestForecast(t, `{}`)
	if _, ok := noTz.Timezone(); ok {
		t.Errorf("Timezone() expected absent")
	}
	if _, err := noTz.Location(); !errors.Is(err, ErrAttributeNotFound) {
		t.Errorf("Location() expected ErrAttributeNotFound, got %v", err)
	}
}

func TestForecastHourlyEndToEnd(t *testing.T) {
	f, ff := newTestForecast(t, sampleResponse)

	h, err := f.Hourly()
	if err != nil {
		t.Fatalf("Hourly() failed: %v", err)
	}
	if h.Interval() != 3600 {
		t.Errorf("Interval() expected 3600, got %d", h.Interval())
	}
	if h.Summary() != "Clear" {
		t.Errorf("Summary() expected Clear, got %q", h.Summary())
	}
	if h.Len() != 2 {
		t.Errorf("Len() expected 2, got %d", h.Len())
	}

	again, err := f.Hourly()
	if err != nil || again.StartTime() != h.StartTime() || again.Len() != h.Len() {
		t.Errorf("second Hourly() expected an equivalent view, got %v (%v)", again, err)
	}
	if ff.calls != 1 {
		t.Errorf("container access must not refetch, got %d fetches", ff.calls)
	}
}

func TestForecastMissingAlerts(t *testing.T) {
	f, _ := newTestForecast(t, `{"hourly": {"data": [{"time": 1000}, {"time": 4600}]}}`)
	if _, err := f.Alerts(); !errors.Is(err, ErrSectionMissing) {
		t.Errorf("Alerts() expected ErrSectionMissing, got %v", err)
	}
}

func TestForecastString(t *testing.T) {
	f, _ := newTestForecast(t, sampleResponse)
	if s, expected := f.String(), "forecast for 37.8267,-122.4233 with 6 sections"; s != expected {
		t.Errorf("String() expected %q, got %q", expected, s)
	}
}
