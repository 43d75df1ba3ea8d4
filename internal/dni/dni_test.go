package dni

import "testing"

func TestParse(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want Record
	}{
		{
			name: "positional schema",
			raw:  "1@Gomez@Juan@M@12345678",
			want: Record{DNI: "12345678", FirstName: "Juan", LastName: "Gomez"},
		},
		{
			name: "fallback digit run without separators",
			raw:  "00000000712345678",
			want: Record{DNI: "12345678"},
		},
		{
			name: "empty payload",
			raw:  "",
			want: Record{},
		},
		{
			name: "positional override with short names discarded",
			raw:  "1@G@J@M@1234567",
			want: Record{DNI: "1234567"},
		},
		{
			name: "accented names are sanitized and title cased",
			raw:  "2@PEÑA LÓPEZ@maría josé@F@23456789",
			want: Record{DNI: "23456789", FirstName: "María José", LastName: "Peña López"},
		},
		{
			name: "digits in name fields are stripped",
			raw:  "3@G0MEZ@JU4N@M@34567890",
			want: Record{DNI: "34567890", FirstName: "Jun", LastName: "Gmez"},
		},
		{
			name: "too few fields still finds bounded dni",
			raw:  "tramite 11223344 capital",
			want: Record{DNI: "11223344"},
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)
			if got != tt.want {
				t.Fatalf("Parse(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseIdempotent(t *testing.T) {
	first := Parse("1@Gomez@Juan@M@12345678")
	second := Parse(first.DNI)
	if second.DNI != first.DNI {
		t.Fatalf("re-parsing own dni output lost the dni: %+v", second)
	}
	if second.FirstName != "" || second.LastName != "" {
		t.Fatalf("re-parse fabricated name fields: %+v", second)
	}
}

func TestParseNeverFabricates(t *testing.T) {
	for _, raw := range []string{"@@@@", "@@", "x", "123", "123456"} {
		got := Parse(raw)
		if got.DNI != "" || got.FirstName != "" || got.LastName != "" {
			t.Fatalf("Parse(%q) fabricated fields: %+v", raw, got)
		}
	}
}
