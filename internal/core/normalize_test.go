package core

import "testing"

func TestNormalizeName(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"Casa Corações", "casa coracoes"},
		{"  casa coracoes  ", "casa coracoes"},
		{"EDIFÍCIO JARAGUÁ", "edificio jaragua"},
		{"São João", "sao joao"},
		{"Distribuição de Lucros", "distribuicao de lucros"},
		{"", ""},
		{"   ", ""},
		{"already plain", "already plain"},
	}
	for _, tc := range cases {
		if got := NormalizeName(tc.in); got != tc.out {
			t.Fatalf("NormalizeName(%q) = %q, want %q", tc.in, got, tc.out)
		}
	}
}

func TestNormalizeNameEquivalence(t *testing.T) {
	if NormalizeName("Casa Corações") != NormalizeName("casa coracoes") {
		t.Fatal("accented and plain spellings should normalize equal")
	}
}

func TestDigitsOnly(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"123.456.789-00", "12345678900"},
		{"12345678900", "12345678900"},
		{"12.345.678/0001-90", "12345678000190"},
		{"", ""},
		{"abc", ""},
	}
	for _, tc := range cases {
		if got := DigitsOnly(tc.in); got != tc.out {
			t.Fatalf("DigitsOnly(%q) = %q, want %q", tc.in, got, tc.out)
		}
	}
}

func TestPropertyValidate(t *testing.T) {
	ok := Property{ID: "1", Name: "Casa Corações", Status: StatusInProgress}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid property rejected: %v", err)
	}
	for _, p := range []Property{
		{Name: "no id"},
		{ID: "2"},
		{ID: "3", Name: "bad status", Status: "finalizada"},
	} {
		if err := p.Validate(); err == nil {
			t.Fatalf("expected validation error for %+v", p)
		}
	}
}
