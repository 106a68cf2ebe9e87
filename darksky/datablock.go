package darksky

import (
	"fmt"
	"iter"
	"time"
)

const (
	defaultSummary = "No summary found."
	defaultIcon    = "none"
)

// Datablock wraps an evenly spaced series of data points, e.g. the
// "hourly" object of the response.
//
// The interval is taken from the first two points and trusted for the rest
// of the block, the API doesn't produce irregular blocks.
type Datablock struct {
	points    []Datapoint
	summary   string
	icon      string
	startTime int64
	interval  int64
}

func NewDatablock(raw any) (Datablock, error) {
	block, ok := raw.(map[string]any)
	if !ok {
		return Datablock{}, fmt.Errorf("%w: data block must be an object, got %T", ErrData, raw)
	}

	data, ok := block["data"].([]any)
	if !ok || len(data) == 0 {
		return Datablock{}, fmt.Errorf("%w: data block has no data points", ErrData)
	}

	points := make([]Datapoint, 0, len(data))
	times := make([]int64, 0, len(data))
	for i, entry := range data {
		p, err := NewDatapoint(entry)
		if err != nil {
			return Datablock{}, fmt.Errorf("data point %d: %w", i, err)
		}
		t, err := p.Unix()
		if err != nil {
			return Datablock{}, fmt.Errorf("%w: data point %d has no valid time", ErrData, i)
		}
		points = append(points, p)
		times = append(times, t)
	}

	var interval int64
	if len(times) > 1 {
		interval = times[1] - times[0]
		if interval <= 0 {
			return Datablock{}, fmt.Errorf("%w: data points are not in ascending time order", ErrData)
		}
	}

	return Datablock{
		points:    points,
		summary:   stringOr(block["summary"], defaultSummary),
		icon:      stringOr(block["icon"], defaultIcon),
		startTime: times[0],
		interval:  interval,
	}, nil
}

func (b Datablock) Len() int {
	return len(b.points)
}

// Points yields the data points in their original order. Each call starts
// a new pass.
func (b Datablock) Points() iter.Seq[Datapoint] {
	return func(yield func(Datapoint) bool) {
		for _, p := range b.points {
			if !yield(p) {
				return
			}
		}
	}
}

// Index returns the position of the point covering the given UNIX time,
// rounded down to the nearest point. The result may be outside the block.
func (b Datablock) Index(t int64) int {
	if b.interval == 0 {
		// Single point block, only its own start time maps onto it.
		if t == b.startTime {
			return 0
		}
		if t < b.startTime {
			return -1
		}
		return len(b.points)
	}
	return int(floorDiv(t-b.startTime, b.interval))
}

// At returns the point n intervals after the start time.
func (b Datablock) At(n int) (Datapoint, error) {
	if n < 0 || n >= len(b.points) {
		return Datapoint{}, fmt.Errorf("%w: offset %d of %d", ErrOutOfRange, n, len(b.points))
	}
	return b.points[n], nil
}

// AtTime returns the point covering the given UNIX time.
func (b Datablock) AtTime(t int64) (Datapoint, error) {
	i := b.Index(t)
	if i < 0 || i >= len(b.points) {
		return Datapoint{}, fmt.Errorf("%w: time %d resolves to index %d of %d", ErrOutOfRange, t, i, len(b.points))
	}
	return b.points[i], nil
}

// Contains reports whether the UNIX time lies within [StartTime, EndTime].
func (b Datablock) Contains(t int64) bool {
	return t >= b.startTime && t <= b.EndTime()
}

func (b Datablock) ContainsTime(t time.Time) bool {
	return b.Contains(t.Unix())
}

func (b Datablock) Summary() string {
	return b.summary
}

func (b Datablock) Icon() string {
	return b.icon
}

func (b Datablock) StartTime() int64 {
	return b.startTime
}

func (b Datablock) Interval() int64 {
	return b.interval
}

// EndTime is the UNIX time at which the last point ends.
func (b Datablock) EndTime() int64 {
	return b.startTime + b.interval*int64(len(b.points))
}

func (b Datablock) String() string {
	return b.label("data block")
}

func (b Datablock) label(kind string) string {
	return fmt.Sprintf("%s with start time %d and %d datapoints", kind, b.startTime, b.Len())
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func stringOr(v any, def string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return def
}
