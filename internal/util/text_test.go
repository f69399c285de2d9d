package util

import (
	"reflect"
	"testing"
)

func TestExtractHashtags(t *testing.T) {
	got := ExtractHashtags("Golden hour #Sunset #travel #sunset vibes")
	want := []string{"sunset", "travel"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got := ExtractHashtags(""); got != nil {
		t.Fatalf("expected nil for empty text, got %v", got)
	}
	if got := ExtractHashtags("no tags here"); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestExtractMentions(t *testing.T) {
	got := ExtractMentions("with @Ana and @ana plus @bob")
	want := []string{"ana", "bob"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	if got := NormalizeWhitespace("  a \t b \n c  "); got != "a b c" {
		t.Fatalf("got %q", got)
	}
}
