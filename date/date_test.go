package date

import (
	"testing"
	"time"
)

// TestTime assert that the time() is cannonical and gives comparable times.
func TestTime(t *testing.T) {
	d1 := New(2025, 7, 31)
	d2 := New(2025, 7, 31)

	if d1.time() != d2.time() {
		// Note that usually time.Time are not comparable (there is a pointer for the timezone) this
		// tests also checks that the property remain true
		t.Errorf("invalid time() function same day gives two different time")
	}
}

func TestElapsed(t *testing.T) {
	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	testCases := []struct {
		name string
		to   time.Time
		want int
	}{
		{"same instant", start, 0},
		{"almost a day", start.Add(23*time.Hour + 59*time.Minute), 0},
		{"exactly a day", start.Add(Day), 1},
		{"thirty one days", start.Add(31 * Day), 31},
		{"one hour before", start.Add(-time.Hour), -1},
		{"two days before", start.Add(-2 * Day), -2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Elapsed(start, tc.to); got != tc.want {
				t.Errorf("Elapsed(%v, %v) = %d, want %d", start, tc.to, got, tc.want)
			}
		})
	}
}

func TestParseTime(t *testing.T) {
	got, err := ParseTime("2025-3-5")
	if err != nil {
		t.Fatalf("ParseTime() error: %v", err)
	}
	if want := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("ParseTime(2025-3-5) = %v, want %v", got, want)
	}

	got, err = ParseTime("2025-03-05T10:30:00+01:00")
	if err != nil {
		t.Fatalf("ParseTime() error: %v", err)
	}
	if want := time.Date(2025, 3, 5, 9, 30, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("ParseTime(RFC3339) = %v, want %v", got, want)
	}

	if _, err := ParseTime("yesterday"); err == nil {
		t.Errorf("ParseTime(yesterday) must fail")
	}
}

func TestShort(t *testing.T) {
	d, err := Parse("2025-03-05")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if got := d.Short(); got != "5-3-2025" {
		t.Errorf("Short() = %q, want %q", got, "5-3-2025")
	}
	if got := New(2024, 2, 30).String(); got != "2024-03-01" {
		t.Errorf("New(2024, 2, 30) = %q, want normalized %q", got, "2024-03-01")
	}
}

func TestOf(t *testing.T) {
	paris := time.FixedZone("CET", 3600)
	instant := time.Date(2025, 3, 5, 23, 30, 0, 0, time.UTC)
	if got := Of(instant).String(); got != "2025-03-05" {
		t.Errorf("Of(UTC) = %q, want %q", got, "2025-03-05")
	}
	if got := Of(instant.In(paris)).String(); got != "2025-03-06" {
		t.Errorf("Of(CET) = %q, want the day in the instant location %q", got, "2025-03-06")
	}
}
