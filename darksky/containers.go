package darksky

import (
	"fmt"
	"iter"
	"strings"
)

// Currently is the current conditions at the requested location.
type Currently struct {
	Datapoint
}

func NewCurrently(f *Forecast) (Currently, error) {
	p, err := newPoint(f, SectionCurrently)
	return Currently{p}, err
}

func (c Currently) String() string {
	return c.label("currently data point")
}

// Minutely is minute-by-minute precipitation for the next hour.
type Minutely struct {
	Datablock
}

func NewMinutely(f *Forecast) (Minutely, error) {
	b, err := newBlock(f, SectionMinutely)
	return Minutely{b}, err
}

func (m Minutely) String() string {
	return m.label("minutely data block")
}

// Hourly is hour-by-hour conditions for the next 48 hours, or 168 when
// extended.
type Hourly struct {
	Datablock
}

func NewHourly(f *Forecast) (Hourly, error) {
	b, err := newBlock(f, SectionHourly)
	return Hourly{b}, err
}

func (h Hourly) String() string {
	return h.label("hourly data block")
}

// Daily is day-by-day conditions for the next week.
type Daily struct {
	Datablock
}

func NewDaily(f *Forecast) (Daily, error) {
	b, err := newBlock(f, SectionDaily)
	return Daily{b}, err
}

func (d Daily) String() string {
	return d.label("daily data block")
}

// Alerts holds the severe weather warnings issued for the location. The API
// sends an array of alert objects, a lone object is accepted as a single
// alert. Fields vary between alerts so each one is a mapping backed
// Datapoint, see https://darksky.net/dev/docs/response under Alerts.
type Alerts struct {
	alerts []Datapoint
}

func NewAlerts(f *Forecast) (Alerts, error) {
	raw, err := f.section(SectionAlerts)
	if err != nil {
		return Alerts{}, err
	}

	switch v := raw.(type) {
	case map[string]any:
		return Alerts{alerts: []Datapoint{{fields: v}}}, nil
	case []any:
		alerts := make([]Datapoint, 0, len(v))
		for i, entry := range v {
			p, err := NewDatapoint(entry)
			if err != nil {
				return Alerts{}, fmt.Errorf("alert %d: %w", i, err)
			}
			alerts = append(alerts, p)
		}
		return Alerts{alerts: alerts}, nil
	default:
		return Alerts{}, fmt.Errorf("%w: alerts must be an array or object, got %T", ErrData, raw)
	}
}

func (a Alerts) Len() int {
	return len(a.alerts)
}

func (a Alerts) All() iter.Seq[Datapoint] {
	return func(yield func(Datapoint) bool) {
		for _, p := range a.alerts {
			if !yield(p) {
				return
			}
		}
	}
}

func (a Alerts) At(i int) (Datapoint, error) {
	if i < 0 || i >= len(a.alerts) {
		return Datapoint{}, fmt.Errorf("%w: alert %d of %d", ErrOutOfRange, i, len(a.alerts))
	}
	return a.alerts[i], nil
}

// Titles returns the title of every alert that has one.
func (a Alerts) Titles() []string {
	var titles []string
	for _, p := range a.alerts {
		if t, err := p.Text("title"); err == nil {
			titles = append(titles, t)
		}
	}
	return titles
}

func (a Alerts) String() string {
	titles := a.Titles()
	if len(titles) == 0 {
		return fmt.Sprintf("alerts object with %d alerts", a.Len())
	}
	return fmt.Sprintf("alerts object for %s", strings.Join(titles, "; "))
}

// Flags holds metadata about the request, e.g. "units" and "sources".
type Flags struct {
	Datapoint
}

func NewFlags(f *Forecast) (Flags, error) {
	p, err := newPoint(f, SectionFlags)
	return Flags{p}, err
}

func (f Flags) String() string {
	return fmt.Sprintf("flags object with %d attributes", f.Len())
}

func newPoint(f *Forecast, s Section) (Datapoint, error) {
	raw, err := f.section(s)
	if err != nil {
		return Datapoint{}, err
	}
	p, err := NewDatapoint(raw)
	if err != nil {
		return Datapoint{}, fmt.Errorf("%s: %w", s, err)
	}
	return p, nil
}

func newBlock(f *Forecast, s Section) (Datablock, error) {
	raw, err := f.section(s)
	if err != nil {
		return Datablock{}, err
	}
	b, err := NewDatablock(raw)
	if err != nil {
		return Datablock{}, fmt.Errorf("%s: %w", s, err)
	}
	return b, nil
}
