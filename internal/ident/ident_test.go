package ident

import "testing"

func TestSanitize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "field", "field"},
		{"stripped-punctuation", "$a#1", "a1"},
		{"dot-to-underscore", "a.1", "a_1"},
		{"dash-to-underscore", "a-1", "a_1"},
		{"leading-digit", "1field", "_1field"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := &Sanitizer{}
			if got := s.Sanitize(c.in); got != c.want {
				t.Errorf("Sanitize(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}

// TestSanitizeReservedNames covers §4.1 rule 3: a sanitized identifier
// that collides with an Avro built-in type name is suffixed with a
// counter starting at 0, skipping any suffix that is itself reserved
// (no reserved name ends in a digit, so no suffixed candidate here is
// ever skipped; the counter advancing across calls is exercised by the
// shared-counter test below).
func TestSanitizeReservedNames(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"string", "string0"},
		{"record", "record0"},
		{"boolean", "boolean0"},
		{"fixed", "fixed0"},
	}
	for _, c := range cases {
		s := &Sanitizer{}
		if got := s.Sanitize(c.in); got != c.want {
			t.Errorf("Sanitize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

// TestSanitizeReservedNameCounterIsShared verifies that a single
// Sanitizer's reserved-name counter advances across calls instead of
// restarting, so two collisions against the same reserved name in one
// translation never produce the same identifier.
func TestSanitizeReservedNameCounterIsShared(t *testing.T) {
	s := &Sanitizer{}
	first := s.Sanitize("string")
	second := s.Sanitize("string")
	if first == second {
		t.Fatalf("two collisions against the same reserved name produced the same result %q", first)
	}
	if first != "string0" {
		t.Errorf("first collision = %q, want string0", first)
	}
	if second != "string1" {
		t.Errorf("second collision = %q, want string1", second)
	}
}

func TestFieldNamerDisambiguatesDuplicates(t *testing.T) {
	n := &FieldNamer{}
	names := []string{n.Name("field"), n.Name("field"), n.Name("field"), n.Name("other")}
	want := []string{"field", "field0", "field1", "other"}
	for i, got := range names {
		if got != want[i] {
			t.Errorf("name[%d] = %q, want %q", i, got, want[i])
		}
	}
}
