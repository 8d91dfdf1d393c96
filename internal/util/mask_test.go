package util

import "testing"

func TestMaskSecret(t *testing.T) {
	cases := map[string]string{
		"":                     "",
		"short":                "***",
		"EAAB1234567890xyz":    "EAAB…yz",
		"  EAAB1234567890xyz ": "EAAB…yz",
	}
	for in, want := range cases {
		if got := MaskSecret(in); got != want {
			t.Fatalf("MaskSecret(%q) = %q, want %q", in, got, want)
		}
	}
}
