package codes

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestStudentPrefix(t *testing.T) {
	in2025 := time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		yearGroup int
		want      string
	}{
		{1, "2025"},
		{2, "2024"},
		{3, "2023"},
		{4, "2022"},
	}
	for _, tc := range cases {
		if got := StudentPrefix(tc.yearGroup, in2025); got != tc.want {
			t.Errorf("StudentPrefix(%d) = %q, want %q", tc.yearGroup, got, tc.want)
		}
	}
}

func TestGenerateShape(t *testing.T) {
	never := func(ctx context.Context, code string) (bool, error) { return false, nil }

	code, err := Generate(context.Background(), SupervisorPrefix, never)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.HasPrefix(code, "PS") || len(code) != len("PS")+5 {
		t.Fatalf("code = %q, want PS plus 5 digits", code)
	}
	for _, c := range code[len("PS"):] {
		if c < '0' || c > '9' {
			t.Fatalf("code %q has non-digit suffix", code)
		}
	}
}

func TestGenerateNeverDuplicates(t *testing.T) {
	// 10,000 draws against the codes generated so far. The tracking map
	// doubles as the existence check, so every returned code is fresh.
	seen := make(map[string]bool)
	exists := func(ctx context.Context, code string) (bool, error) {
		return seen[code], nil
	}

	ctx := context.Background()
	for i := 0; i < 10000; i++ {
		code, err := Generate(ctx, "2025", exists)
		if err != nil {
			t.Fatalf("draw %d: %v", i, err)
		}
		if seen[code] {
			t.Fatalf("draw %d produced duplicate code %q", i, code)
		}
		seen[code] = true
	}
}

func TestGenerateExhaustion(t *testing.T) {
	full := func(ctx context.Context, code string) (bool, error) { return true, nil }

	if _, err := Generate(context.Background(), SeniorTutorPrefix, full); err == nil {
		t.Fatal("expected exhaustion error when every code is taken")
	}
}
