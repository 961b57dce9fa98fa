package models

import (
	"errors"
	"testing"
)

func TestNewPageSpec_Static(t *testing.T) {
	spec, err := NewPageSpec(KindStatic, 5, "http://example.com/page-%d.html", "")
	if err != nil {
		t.Fatalf("NewPageSpec failed: %v", err)
	}
	if spec.PageURL(3) != "http://example.com/page-3.html" {
		t.Errorf("Expected substituted URL, got %q", spec.PageURL(3))
	}
}

func TestNewPageSpec_Invalid(t *testing.T) {
	cases := []struct {
		name   string
		kind   SourceKind
		pages  int
		target string
		nav    string
	}{
		{"zero pages", KindStatic, 0, "http://example.com/page-%d.html", ""},
		{"empty target", KindStatic, 1, "", ""},
		{"no verb in template", KindStatic, 1, "http://example.com/page.html", ""},
		{"two verbs in template", KindStatic, 1, "http://example.com/%d/page-%d.html", ""},
		{"interactive without nav", KindInteractive, 2, "http://example.com", ""},
		{"unknown kind", SourceKind("hybrid"), 1, "http://example.com", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewPageSpec(tc.kind, tc.pages, tc.target, tc.nav)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("Expected ConfigError, got %T", err)
			}
		})
	}
}

func TestNewPageSpec_InteractiveEntryPoint(t *testing.T) {
	// Entry points are plain URLs, no template verb required
	spec, err := NewPageSpec(KindInteractive, 3, "http://quotes.toscrape.com", ".pager .next a")
	if err != nil {
		t.Fatalf("NewPageSpec failed: %v", err)
	}
	if spec.NavSelector != ".pager .next a" {
		t.Errorf("Unexpected nav selector %q", spec.NavSelector)
	}
}

func TestNewFieldSpec(t *testing.T) {
	spec, err := NewFieldSpec(".quote", []FieldRule{
		{Name: "Author", Selector: ".author", Required: true},
		{Name: "Text", Selector: ".text"},
	})
	if err != nil {
		t.Fatalf("NewFieldSpec failed: %v", err)
	}
	names := spec.Names()
	if len(names) != 2 || names[0] != "Author" || names[1] != "Text" {
		t.Errorf("Unexpected names %v", names)
	}
}

func TestNewFieldSpec_Invalid(t *testing.T) {
	cases := []struct {
		name   string
		row    string
		fields []FieldRule
	}{
		{"empty row selector", "", []FieldRule{{Name: "a", Selector: ".a"}}},
		{"no fields", ".row", nil},
		{"unnamed field", ".row", []FieldRule{{Selector: ".a"}}},
		{"duplicate names", ".row", []FieldRule{{Name: "a", Selector: ".a"}, {Name: "a", Selector: ".b"}}},
		{"empty selector", ".row", []FieldRule{{Name: "a", Selector: ""}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewFieldSpec(tc.row, tc.fields); err == nil {
				t.Fatal("Expected error, got nil")
			}
		})
	}
}

func TestNewFieldSpec_CopiesRules(t *testing.T) {
	rules := []FieldRule{{Name: "a", Selector: ".a"}}
	spec, err := NewFieldSpec(".row", rules)
	if err != nil {
		t.Fatalf("NewFieldSpec failed: %v", err)
	}
	rules[0].Selector = ".changed"
	if spec.Fields[0].Selector != ".a" {
		t.Error("FieldSpec should not alias the caller's slice")
	}
}
