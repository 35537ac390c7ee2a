package pipeline

import "testing"

func TestNormalizeIdentifier(t *testing.T) {
	cases := map[string]string{
		"https://example.com/a":                "https://example.com/a",
		"  example.com/a  ":                    "https://example.com/a",
		"http://example.com/a#frag":            "http://example.com/a",
		"HTTPS://example.com/":                 "https://example.com/",
		"Example.com":                          "https://example.com",
		"https://WWW.Example.COM/Path":         "https://www.example.com/Path",
		"example.com/login?next=https://a.com": "https://example.com/login?next=https://a.com",
		"localhost:8080/fund":                  "https://localhost:8080/fund",
		"http://example.com/?u=http://b.com#x": "http://example.com/?u=http://b.com",
	}
	for in, want := range cases {
		got, err := NormalizeIdentifier(in)
		if err != nil {
			t.Errorf("NormalizeIdentifier(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("NormalizeIdentifier(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeIdentifier_SameKeyForCaseVariants(t *testing.T) {
	a, errA := NormalizeIdentifier("Example.com/fund")
	b, errB := NormalizeIdentifier("https://example.com/fund")
	if errA != nil || errB != nil {
		t.Fatalf("errors: %v, %v", errA, errB)
	}
	if a != b {
		t.Errorf("%q != %q", a, b)
	}
}

func TestNormalizeIdentifier_Rejects(t *testing.T) {
	for _, in := range []string{"", "   ", "ftp://example.com", "https://", "//example.com/a"} {
		if _, err := NormalizeIdentifier(in); err == nil {
			t.Errorf("NormalizeIdentifier(%q) succeeded, want error", in)
		}
	}
}
