package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestMonthPreviousNext(t *testing.T) {
	cases := []struct {
		in   Month
		prev Month
		next Month
	}{
		{Month{2025, time.March}, Month{2025, time.February}, Month{2025, time.April}},
		{Month{2025, time.January}, Month{2024, time.December}, Month{2025, time.February}},
		{Month{2024, time.December}, Month{2024, time.November}, Month{2025, time.January}},
	}
	for _, tc := range cases {
		if got := tc.in.Previous(); got != tc.prev {
			t.Fatalf("%s.Previous() = %s, want %s", tc.in, got, tc.prev)
		}
		if got := tc.in.Next(); got != tc.next {
			t.Fatalf("%s.Next() = %s, want %s", tc.in, got, tc.next)
		}
	}
}

func TestMonthContains(t *testing.T) {
	m := Month{2025, time.March}
	cases := []struct {
		t    time.Time
		want bool
	}{
		{time.Date(2025, time.March, 1, 0, 0, 0, 0, time.Local), true},
		{time.Date(2025, time.March, 31, 23, 59, 59, 0, time.Local), true},
		{time.Date(2025, time.February, 28, 23, 59, 59, 0, time.Local), false},
		{time.Date(2025, time.April, 1, 0, 0, 0, 0, time.Local), false},
		{time.Date(2024, time.March, 15, 12, 0, 0, 0, time.Local), false},
	}
	for _, tc := range cases {
		if got := m.Contains(tc.t); got != tc.want {
			t.Fatalf("%s.Contains(%s) = %v, want %v", m, tc.t, got, tc.want)
		}
	}
}

func TestMonthRange(t *testing.T) {
	start, end := Month{2025, time.February}.Range()
	if !start.Equal(time.Date(2025, time.February, 1, 0, 0, 0, 0, time.Local)) {
		t.Fatalf("range start %s", start)
	}
	if !end.Equal(time.Date(2025, time.March, 1, 0, 0, 0, 0, time.Local)) {
		t.Fatalf("range end %s", end)
	}
}

func TestMonthIsCurrent(t *testing.T) {
	now := CurrentMonth()
	if !now.IsCurrent() {
		t.Fatalf("%s should be current", now)
	}
	if now.Previous().IsCurrent() {
		t.Fatalf("%s should not be current", now.Previous())
	}
}

func TestMonthJSON(t *testing.T) {
	data, err := json.Marshal(Month{2025, time.March})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"2025-03"` {
		t.Fatalf("marshaled %s", data)
	}
	var m Month
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m != (Month{2025, time.March}) {
		t.Fatalf("round trip %v", m)
	}
}

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2025-03")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m != (Month{2025, time.March}) {
		t.Fatalf("parsed %v", m)
	}
	if m.String() != "2025-03" {
		t.Fatalf("round trip %q", m.String())
	}
	for _, bad := range []string{"", "2025", "2025-13", "march 2025"} {
		if _, err := ParseMonth(bad); err == nil {
			t.Fatalf("%q expected error", bad)
		}
	}
}
