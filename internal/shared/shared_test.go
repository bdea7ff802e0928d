package shared

import (
	"strings"
	"testing"
)

func TestGenerateID(t *testing.T) {
	a := GenerateID()
	b := GenerateID()

	if a == b {
		t.Errorf("expected unique ids, got %s twice", a)
	}

	if len(a) != 36 {
		t.Errorf("expected uuid format, got %s", a)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		name    string
		seconds int
		want    string
	}{
		{"zero", 0, "0:00"},
		{"under a minute", 45, "0:45"},
		{"minutes", 215, "3:35"},
		{"exact hour", 3600, "1:00:00"},
		{"hours", 3725, "1:02:05"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatDuration(tc.seconds); got != tc.want {
				t.Errorf("FormatDuration(%d) = %s, want %s", tc.seconds, got, tc.want)
			}
		})
	}
}

func TestFormatCount(t *testing.T) {
	cases := []struct {
		name string
		n    int
		want string
	}{
		{"small", 999, "999"},
		{"thousands", 1234, "1.2K"},
		{"millions", 3400000, "3.4M"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatCount(tc.n); got != tc.want {
				t.Errorf("FormatCount(%d) = %s, want %s", tc.n, got, tc.want)
			}
		})
	}
}

func TestMarshalJSON(t *testing.T) {
	payload := map[string]string{"title": "Night Drive"}

	t.Run("compact", func(t *testing.T) {
		data, err := MarshalJSON(payload, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(string(data), "\n") {
			t.Errorf("expected compact output, got %s", data)
		}
	})

	t.Run("pretty", func(t *testing.T) {
		data, err := MarshalJSON(payload, true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(string(data), "\n") {
			t.Errorf("expected indented output, got %s", data)
		}
	})
}

func TestNewLogger(t *testing.T) {
	var buf strings.Builder
	logger := NewLogger(&buf)

	logger.Info("cache warm complete")

	if !strings.Contains(buf.String(), "cache warm complete") {
		t.Errorf("expected log output, got %q", buf.String())
	}
}
