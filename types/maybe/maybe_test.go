package maybe

import "testing"

func TestFromOk(t *testing.T) {
	if m := FromOk(3.5, true); !m.IsValid() || m.Value() != 3.5 {
		t.Errorf("FromOk(3.5, true) expected Some(3.5), got %+v", m)
	}
	if m := FromOk(3.5, false); m.IsValid() {
		t.Errorf("FromOk(3.5, false) expected None, got %+v", m)
	}
}

func TestValueOrDefault(t *testing.T) {
	if v := None[string]().ValueOrDefault("none"); v != "none" {
		t.Errorf("ValueOrDefault expected %q, got %q", "none", v)
	}
	if v := Some("rain").ValueOrDefault("none"); v != "rain" {
		t.Errorf("ValueOrDefault expected %q, got %q", "rain", v)
	}
}

func TestPtr(t *testing.T) {
	if p := None[float64]().Ptr(); p != nil {
		t.Errorf("Ptr() expected nil, got %v", *p)
	}
	if p := Some(1.25).Ptr(); p == nil || *p != 1.25 {
		t.Errorf("Ptr() expected 1.25, got %v", p)
	}
}
