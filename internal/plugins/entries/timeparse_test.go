package entries

import "testing"

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    Clock
		wantErr bool
	}{
		{"09:30", Clock{9, 30}, false},
		{"00:00", Clock{0, 0}, false},
		{"23:59", Clock{23, 59}, false},
		{"24:00", Clock{}, true},
		{"12:60", Clock{}, true},
		{"9", Clock{}, true},
		{"", Clock{}, true},
		{"ab:cd", Clock{}, true},
		{"09:30:00", Clock{}, true},
	}

	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q) expected error, got %+v", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q) returned error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseClock(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestClockString(t *testing.T) {
	if got := (Clock{Hour: 7, Minute: 5}).String(); got != "07:05" {
		t.Errorf("String() = %q, want 07:05", got)
	}
}

func TestValidateTimes(t *testing.T) {
	if _, _, err := ValidateTimes("09:00", "17:30"); err != nil {
		t.Errorf("valid interval rejected: %v", err)
	}
	if _, _, err := ValidateTimes("00:00", "00:01"); err != nil {
		t.Errorf("sentinel pair rejected: %v", err)
	}
	if _, _, err := ValidateTimes("17:00", "09:00"); err == nil {
		t.Error("backwards interval accepted")
	}
	if _, _, err := ValidateTimes("09:00", "09:00"); err == nil {
		t.Error("zero-length interval accepted")
	}
	if _, _, err := ValidateTimes("morning", "17:00"); err == nil {
		t.Error("unparseable start accepted")
	}
}

func TestWorkedMinutes(t *testing.T) {
	e := &Entry{StartTime: "09:00", EndTime: "17:30", Breaks: "00:30", Daytype: DaytypeWorkday}
	if got := e.WorkedMinutes(); got != 480 {
		t.Errorf("WorkedMinutes() = %d, want 480", got)
	}

	sick := &Entry{StartTime: "00:00", EndTime: "00:01", Daytype: DaytypeSick}
	if got := sick.WorkedMinutes(); got != 0 {
		t.Errorf("sick day WorkedMinutes() = %d, want 0", got)
	}
}
