package webhook

import "testing"

func TestCleanPhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"5511999998888@c.us", "5511999998888"},
		{"5511999998888@s.whatsapp.net", "5511999998888"},
		{"+55 11 99999-8888", "5511999998888"},
		{"  5511999998888  ", "5511999998888"},
	}
	for _, tc := range cases {
		if got := cleanPhone(tc.in); got != tc.want {
			t.Errorf("cleanPhone(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIsDigits(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"5511999998888", true},
		{"", false},
		{"55abc", false},
		{"55 11", false},
	}
	for _, tc := range cases {
		if got := isDigits(tc.in); got != tc.want {
			t.Errorf("isDigits(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestMessagePayloadAcceptsBothDialects(t *testing.T) {
	baileys := messagePayload{From: "5511988887777@c.us", Body: "oi", NotifyName: "Maria"}
	got := baileys.inbound()
	if got.Phone != "5511988887777@c.us" || got.Body != "oi" || got.Name != "Maria" {
		t.Fatalf("baileys inbound = %+v", got)
	}

	venom := messagePayload{Phone: "5511988887777", Content: "oi", Name: "Maria"}
	got = venom.inbound()
	if got.Phone != "5511988887777" || got.Body != "oi" || got.Name != "Maria" {
		t.Fatalf("venom inbound = %+v", got)
	}

	// Baileys fields win when a gateway sends both.
	mixed := messagePayload{From: "111", Phone: "222", Body: "a", Content: "b"}
	got = mixed.inbound()
	if got.Phone != "111" || got.Body != "a" {
		t.Fatalf("mixed inbound = %+v", got)
	}
}
