package ffprobe

import "testing"

func TestNormalizeSubtitleCodecMapsKnownCodecs(t *testing.T) {
	cases := map[string]string{
		"ass":      "ass",
		"ssa":      "ass",
		"subrip":   "srt",
		"srt":      "srt",
		"mov_text": "srt",
		"webvtt":   "srt",
		"hdmv_pgs": "",
	}
	for codec, want := range cases {
		if got := normalizeSubtitleCodec(codec); got != want {
			t.Errorf("normalizeSubtitleCodec(%q) = %q, want %q", codec, got, want)
		}
	}
}

func TestProberDefaultsTimeoutWhenUnset(t *testing.T) {
	p := &Prober{}
	if p.timeout() <= 0 {
		t.Fatal("expected a positive default timeout")
	}
}

func TestNewSetsDefaultTimeout(t *testing.T) {
	p := New()
	if p.Timeout <= 0 {
		t.Fatal("expected New() to set a default timeout")
	}
}
