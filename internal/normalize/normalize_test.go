package normalize

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiagnosisCode(t *testing.T) {
	cases := map[string]string{
		"E11.9":  "E119",
		"e119":   "E119",
		" i10 ":  "I10",
		"Z79.4-": "Z794",
		"":       "",
		"...":    "",
	}
	for in, want := range cases {
		if got := DiagnosisCode(in); got != want {
			t.Errorf("DiagnosisCode(%q) = %q, want %q", in, got, want)
		}
	}
	if DiagnosisCode("E11.9") != DiagnosisCode("E119") {
		t.Fatal("dotted and undotted codes should normalize identically")
	}
}

func TestNormalizeCode(t *testing.T) {
	if NormalizeCode(nil) != nil {
		t.Fatal("nil input should yield nil")
	}
	blank := " - "
	if NormalizeCode(&blank) != nil {
		t.Fatal("punctuation-only input should yield nil")
	}
	in := "r69.0"
	got := NormalizeCode(&in)
	if got == nil || *got != "R690" {
		t.Fatalf("NormalizeCode(%q) = %v, want R690", in, got)
	}
}

func TestParseX12Date(t *testing.T) {
	d := ParseX12Date("20230415")
	if d == nil || d.String() != "2023-04-15" {
		t.Fatalf("ParseX12Date = %v, want 2023-04-15", d)
	}
	for _, bad := range []string{"", "2023041", "abcdefgh", "20231340"} {
		if got := ParseX12Date(bad); got != nil {
			t.Errorf("ParseX12Date(%q) = %v, want nil", bad, got)
		}
	}
}

func TestParseDate(t *testing.T) {
	cases := map[string]string{
		"2024-02-01":                "2024-02-01",
		"2024-02-01T10:30:00Z":      "2024-02-01",
		"2024-02-01T10:30:00-05:00": "2024-02-01",
	}
	for in, want := range cases {
		got := ParseDate(in)
		if got == nil || got.String() != want {
			t.Errorf("ParseDate(%q) = %v, want %s", in, got, want)
		}
	}
	if ParseDate("not a date") != nil {
		t.Error("expected nil for garbage input")
	}
}

func TestParseAmount(t *testing.T) {
	if v := ParseAmount("123.45"); v == nil || *v != 123.45 {
		t.Fatalf("ParseAmount(123.45) = %v", v)
	}
	if v := ParseAmount("0"); v == nil || *v != 0 {
		t.Fatalf("ParseAmount(0) = %v", v)
	}
	if ParseAmount("invalid") != nil || ParseAmount("") != nil {
		t.Fatal("expected nil for invalid amounts")
	}
}

func TestFileHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.txt")
	if err := os.WriteFile(path, []byte("abc"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := FileHash(path)
	if err != nil {
		t.Fatalf("FileHash: %v", err)
	}
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Errorf("FileHash = %s, want %s", got, want)
	}
	if ContentHash([]byte("abc")) != want[:16] {
		t.Errorf("ContentHash = %s, want %s", ContentHash([]byte("abc")), want[:16])
	}
}
