package parser

import "testing"

func TestNormalizeColumnName_Hygiene(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"\ufeffdate":                     "date",
		"\u00ef\u00bb\u00bfDate Time":    "Date Time",
		"Fecha\u00a0de Referencia":       "Fecha de Referencia",
		`"Total Audit Score"`:            "Total Audit Score",
		"  Group\tSupport  Service \r\n": "Group Support Service",
		"% Firt":                         "% Firt",
	}
	for in, want := range cases {
		if got := NormalizeColumnName(in); got != want {
			t.Fatalf("NormalizeColumnName(%q) want=%q got=%q", in, want, got)
		}
	}
}

func TestParseMoney(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"11.990", "11990"},
		{"5.000", "5000"},
		{"$11,990", "11990"},
		{"$ 1.234.567", "1234567"},
		{"1,234.56", "1234.56"},
		{"1.234,56", "1234.56"},
		{"CLP 23.980", "23980"},
		{"-$1.000", "-1000"},
		{"0.750", "0.75"},
		{"11990", "11990"},
		{"1.199E+4", "11990"},
	}
	for _, tc := range cases {
		got, ok := ParseMoney(tc.in)
		if !ok {
			t.Fatalf("ParseMoney(%q) failed", tc.in)
		}
		if got.String() != tc.want {
			t.Fatalf("ParseMoney(%q) want=%s got=%s", tc.in, tc.want, got)
		}
	}
}

func TestParseFloat_Separators(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want float64
	}{
		{"1.250", 1.25},
		{"4.333", 4.333},
		{"100.000", 100},
		{"85,5", 85.5},
		{"85.5%", 85.5},
		{"92,75 %", 92.75},
		{"1,234.56", 1234.56},
		{"1.234,56", 1234.56},
		{"0.750", 0.75},
		{"100", 100},
		{"-12,5", -12.5},
		{",5", 0.5},
		{"8.5E-2", 0.085},
	}
	for _, tc := range cases {
		got, ok := ParseFloat(tc.in)
		if !ok {
			t.Fatalf("ParseFloat(%q) failed", tc.in)
		}
		if got != tc.want {
			t.Fatalf("ParseFloat(%q) want=%v got=%v", tc.in, tc.want, got)
		}
	}
}

func TestParseFloat_Invalid(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "  ", "N/A", "-", "abc", "N/A 3", "12:30", "1e3x", "2024-11-05", "1.234.567", "4,5,6", "3 horas", "%"} {
		if v, ok := ParseFloat(in); ok {
			t.Fatalf("ParseFloat(%q) expected failure, got %v", in, v)
		}
	}
	for _, in := range []string{"N/A 3", "12:30", "2024-11-05", "$"} {
		if v, ok := ParseMoney(in); ok {
			t.Fatalf("ParseMoney(%q) expected failure, got %s", in, v)
		}
	}
	if ParseFloatPtr("n/a") != nil {
		t.Fatalf("ParseFloatPtr should return nil for invalid input")
	}
}

func TestNormalizeToken(t *testing.T) {
	t.Parallel()

	if got := NormalizeToken("  Despacho@Empresa.CL\u00a0"); got != "despacho@empresa.cl" {
		t.Fatalf("unexpected token: %q", got)
	}
}
