package darksky

import (
	"errors"
	"testing"
	"time"
)

func hourlyBlock(start int64, n int) map[string]any {
	data := make([]any, n)
	for i := range n {
		data[i] = map[string]any{
			"time":        start + int64(i)*3600,
			"temperature": 60.0 + float64(i),
		}
	}
	return map[string]any{"summary": "Clear", "icon": "clear-day", "data": data}
}

func TestNewDatablockValidation(t *testing.T) {
	tests := []struct {
		name string
		raw  any
	}{
		{"not an object", []any{1, 2}},
		{"missing data", map[string]any{"summary": "Clear"}},
		{"data not an array", map[string]any{"data": map[string]any{"time": 1}}},
		{"empty data", map[string]any{"data": []any{}}},
		{"point not an object", map[string]any{"data": []any{map[string]any{"time": 1}, "oops"}}},
		{"point without time", map[string]any{"data": []any{map[string]any{"time": 1}, map[string]any{"temperature": 2}}}},
		{"descending times", map[string]any{"data": []any{map[string]any{"time": 10}, map[string]any{"time": 5}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewDatablock(tt.raw); !errors.Is(err, ErrData) {
				t.Errorf("NewDatablock expected ErrData, got %v", err)
			}
		})
	}
}

func TestDatablockDefaults(t *testing.T) {
	b, err := NewDatablock(map[string]any{"data": []any{map[string]any{"time": 0}, map[string]any{"time": 60}}})
	if err != nil {
		t.Fatalf("NewDatablock failed: %v", err)
	}
	if b.Summary() != "No summary found." {
		t.Errorf("Summary() expected default, got %q", b.Summary())
	}
	if b.Icon() != "none" {
		t.Errorf("Icon() expected default, got %q", b.Icon())
	}
}

func TestDatablockTimes(t *testing.T) {
	for _, n := range []int{2, 3, 24, 49} {
		b, err := NewDatablock(hourlyBlock(1509991200, n))
		if err != nil {
			t.Fatalf("NewDatablock(%d points) failed: %v", n, err)
		}
		if b.Len() != n {
			t.Errorf("Len() expected %d, got %d", n, b.Len())
		}
		if b.Interval() != 3600 {
			t.Errorf("Interval() expected 3600, got %d", b.Interval())
		}
		if d := b.EndTime() - b.StartTime(); d != b.Interval()*int64(n) {
			t.Errorf("EndTime()-StartTime() expected %d, got %d", b.Interval()*int64(n), d)
		}
	}
}

func TestDatablockAt(t *testing.T) {
	b, _ := NewDatablock(hourlyBlock(1000, 5))

	first, err := b.At(0)
	if err != nil {
		t.Fatalf("At(0) failed: %v", err)
	}
	if ts, _ := first.Unix(); ts != 1000 {
		t.Errorf("At(0) expected time 1000, got %d", ts)
	}

	last, err := b.At(b.Len() - 1)
	if err != nil {
		t.Fatalf("At(Len()-1) failed: %v", err)
	}
	if ts, _ := last.Unix(); ts != 1000+4*3600 {
		t.Errorf("At(Len()-1) expected time %d, got %d", 1000+4*3600, ts)
	}

	for _, n := range []int{b.Len(), b.Len() + 3, -1} {
		if _, err := b.At(n); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("At(%d) expected ErrOutOfRange, got %v", n, err)
		}
	}
}

func TestDatablockAtTime(t *testing.T) {
	b, _ := NewDatablock(hourlyBlock(1000, 3))

	tests := []struct {
		time     int64
		expected int64
	}{
		{1000, 1000},
		{1000 + 3599, 1000},
		{1000 + 3600, 4600},
		{1000 + 2*3600 + 10, 8200},
	}
	for _, tt := range tests {
		p, err := b.AtTime(tt.time)
		if err != nil {
			t.Errorf("AtTime(%d) failed: %v", tt.time, err)
			continue
		}
		if ts, _ := p.Unix(); ts != tt.expected {
			t.Errorf("AtTime(%d) expected point at %d, got %d", tt.time, tt.expected, ts)
		}
	}

	for _, ts := range []int64{999, b.EndTime(), b.EndTime() + 3600} {
		if _, err := b.AtTime(ts); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("AtTime(%d) expected ErrOutOfRange, got %v", ts, err)
		}
	}
}

func TestDatablockContains(t *testing.T) {
	b, _ := NewDatablock(hourlyBlock(1000, 3))

	if !b.Contains(b.StartTime()) {
		t.Errorf("Contains(StartTime()) expected true")
	}
	if !b.Contains(b.EndTime()) {
		t.Errorf("Contains(EndTime()) expected true")
	}
	if b.Contains(b.StartTime() - 1) {
		t.Errorf("Contains(StartTime()-1) expected false")
	}
	if b.Contains(b.EndTime() + 1) {
		t.Errorf("Contains(EndTime()+1) expected false")
	}
	if !b.ContainsTime(time.Unix(1000+60, 0)) {
		t.Errorf("ContainsTime() expected true inside the block")
	}
}

func TestDatablockSinglePoint(t *testing.T) {
	b, err := NewDatablock(map[string]any{"data": []any{map[string]any{"time": 500}}})
	if err != nil {
		t.Fatalf("NewDatablock failed: %v", err)
	}
	if b.Interval() != 0 || b.EndTime() != 500 {
		t.Errorf("expected interval 0 and end time 500, got %d and %d", b.Interval(), b.EndTime())
	}
	if _, err := b.At(0); err != nil {
		t.Errorf("At(0) failed: %v", err)
	}
	if _, err := b.At(1); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("At(1) expected ErrOutOfRange, got %v", err)
	}
	if _, err := b.AtTime(501); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("AtTime(501) expected ErrOutOfRange, got %v", err)
	}
}

func TestDatablockPointsRestartable(t *testing.T) {
	b, _ := NewDatablock(hourlyBlock(0, 4))
	points := b.Points()

	for pass := 0; pass < 2; pass++ {
		var times []int64
		for p := range points {
			ts, _ := p.Unix()
			times = append(times, ts)
		}
		if len(times) != 4 || times[0] != 0 || times[3] != 3*3600 {
			t.Errorf("Points() pass %d returned %v", pass, times)
		}
	}
}

func TestDatablockString(t *testing.T) {
	b, _ := NewDatablock(hourlyBlock(1000, 2))
	if s, expected := b.String(), "data block with start time 1000 and 2 datapoints"; s != expected {
		t.Errorf("String() expected %q, got %q", expected, s)
	}
}
