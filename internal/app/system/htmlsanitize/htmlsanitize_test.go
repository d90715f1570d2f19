package htmlsanitize_test

import (
	"strings"
	"testing"

	"github.com/dalemusser/roomhub/internal/app/system/htmlsanitize"
)

func TestSanitize_Empty(t *testing.T) {
	if result := htmlsanitize.Sanitize(""); result != "" {
		t.Errorf("expected empty string, got %q", result)
	}
}

func TestSanitize_PlainText(t *testing.T) {
	if result := htmlsanitize.Sanitize("Hello, World!"); result != "Hello, World!" {
		t.Errorf("expected plain text unchanged, got %q", result)
	}
}

func TestSanitize_SafeHTML(t *testing.T) {
	input := "<p><strong>Bold</strong> and <em>italic</em></p>"
	if result := htmlsanitize.Sanitize(input); result != input {
		t.Errorf("expected safe HTML preserved, got %q", result)
	}
}

func TestSanitize_RemovesScript(t *testing.T) {
	input := "<p>Hello</p><script>alert('xss')</script>"
	if result := htmlsanitize.Sanitize(input); result != "<p>Hello</p>" {
		t.Errorf("expected script removed, got %q", result)
	}
}

func TestSanitize_RemovesOnclick(t *testing.T) {
	result := htmlsanitize.Sanitize(`<p onclick="steal()">Hi</p>`)
	if strings.Contains(result, "onclick") {
		t.Errorf("expected onclick removed, got %q", result)
	}
}

func TestSanitize_RemovesJavascriptHref(t *testing.T) {
	result := htmlsanitize.Sanitize(`<a href="javascript:alert(1)">x</a>`)
	if strings.Contains(result, "javascript:") {
		t.Errorf("expected javascript: href removed, got %q", result)
	}
}

func TestText_StripsAllTags(t *testing.T) {
	result := htmlsanitize.Text("<b>hello</b> <script>alert(1)</script>world")
	if result != "hello world" {
		t.Errorf("expected tags stripped, got %q", result)
	}
}

func TestText_TrimsWhitespace(t *testing.T) {
	if result := htmlsanitize.Text("   hi   "); result != "hi" {
		t.Errorf("expected trimmed text, got %q", result)
	}
}

func TestText_KeepsPunctuationReadable(t *testing.T) {
	if result := htmlsanitize.Text("don't & won't"); result != "don't & won't" {
		t.Errorf("expected punctuation preserved, got %q", result)
	}
}
