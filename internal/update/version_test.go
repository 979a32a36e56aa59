package update

import (
	"testing"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"2.0.0.0", false},
		{"1.0", false},
		{"1", false},
		{"v1.2.3", false},
		{"0.9.12.3\n", false},
		{"", true},
		{"   ", true},
		{"None", true},
		{"1..2", true},
		{"x.y.z", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParseVersion(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseVersion(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"equal", "1.0.0.0", "1.0.0.0", 0},
		{"last segment newer", "1.0.0.1", "1.0.0.0", 1},
		{"major older", "1.9.9.9", "2.0.0.0", -1},
		{"numeric not lexicographic", "1.10.0.0", "1.9.0.0", 1},
		{"shorter equal", "1.0", "1.0.0.0", 0},
		{"longer newer", "1.0.0.0.1", "1.0", 1},
		{"shorter older", "1.2", "1.2.0.1", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compare(tt.a, tt.b)
			if err != nil {
				t.Fatalf("Compare(%q, %q) error: %v", tt.a, tt.b, err)
			}
			if got != tt.want {
				t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestCompare_InvalidInput(t *testing.T) {
	if _, err := Compare("garbage", "1.0"); err == nil {
		t.Error("expected error for invalid left operand")
	}
	if _, err := Compare("1.0", "garbage"); err == nil {
		t.Error("expected error for invalid right operand")
	}
}

func TestNeedsUpdate(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		local  string
		want   bool
	}{
		{"remote newer", "2.0.0.0", "1.0.0.0", true},
		{"same version", "1.0.0.0", "1.0.0.0", false},
		{"remote older", "1.0.0.0", "1.0.0.1", false},
		{"numeric ordering", "1.0.0.10", "1.0.0.9", true},
		{"trailing zeros equal", "1.0", "1.0.0.0", false},
		{"local absent", "0.0.0.1", "", true},
		{"local corrupt", "1.0.0.0", "not-a-version", true},
		{"remote corrupt", "???", "1.0.0.0", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NeedsUpdate(tt.remote, tt.local); got != tt.want {
				t.Errorf("NeedsUpdate(%q, %q) = %v, want %v", tt.remote, tt.local, got, tt.want)
			}
		})
	}
}

func TestNeedsUpdate_SelfNeverNewer(t *testing.T) {
	for _, v := range []string{"0", "1.0", "1.2.3", "2.0.0.0", "10.20.30.40"} {
		if NeedsUpdate(v, v) {
			t.Errorf("NeedsUpdate(%q, %q) = true, want false", v, v)
		}
	}
}

func TestNeedsUpdate_MatchesCompare(t *testing.T) {
	versions := []string{"0.1", "1.0", "1.0.0.1", "1.2", "1.10", "2.0.0.0", "2.0.1"}
	for _, a := range versions {
		for _, b := range versions {
			c, err := Compare(a, b)
			if err != nil {
				t.Fatalf("Compare(%q, %q): %v", a, b, err)
			}
			if got, want := NeedsUpdate(a, b), c > 0; got != want {
				t.Errorf("NeedsUpdate(%q, %q) = %v, Compare = %d", a, b, got, c)
			}
		}
	}
}
