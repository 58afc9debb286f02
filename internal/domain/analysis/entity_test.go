package analysis

import (
	"bytes"
	"strings"
	"testing"
)

func TestPageImageRoundTrip(t *testing.T) {
	raw := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10} // jpeg-ish bytes
	p := NewPageImage("report.jpg", "image/jpeg", raw)

	if !strings.HasPrefix(p.DataURL, "data:image/jpeg;base64,") {
		t.Errorf("unexpected data url prefix: %q", p.DataURL)
	}

	got, err := p.Bytes()
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Error("round-trip changed payload bytes")
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusNormal, StatusHigh, StatusLow, StatusAbnormal, StatusDetected, StatusNotDetected} {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	for _, s := range []Status{"", "normal", "HIGH", "NotDetected", "Elevated"} {
		if Status(s).Valid() {
			t.Errorf("%q should not be valid", s)
		}
	}
}

func TestLanguageValid(t *testing.T) {
	if !LanguageRussian.Valid() || !LanguageUzbek.Valid() {
		t.Error("supported languages reported invalid")
	}
	if Language("en").Valid() || Language("").Valid() {
		t.Error("unsupported language reported valid")
	}
}
