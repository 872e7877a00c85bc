package main

import "testing"

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"25m", 1500, false},
		{"90", 90, false},
		{"1:30", 90, false},
		{"1h", 3600, false},
		{"0", 0, true},
		{"soon", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDuration(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseDuration(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseDuration(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestStartSeconds(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		flagValue string
		flagSet   bool
		want      int
		wantErr   bool
	}{
		{"none", nil, "", false, 0, false},
		{"argument", []string{"2m"}, "", false, 120, false},
		{"flag", nil, "45", true, 45, false},
		{"both", []string{"2m"}, "45", true, 0, true},
		{"bad argument", []string{"later"}, "", false, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := startSeconds(tt.args, tt.flagValue, tt.flagSet)
			if (err != nil) != tt.wantErr {
				t.Fatalf("startSeconds() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("startSeconds() = %d, want %d", got, tt.want)
			}
		})
	}
}
