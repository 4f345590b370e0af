package present

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/vm-affekt/mediagrab/internal/app"
)

func ptr[T any](v T) *T { return &v }

func TestDuration(t *testing.T) {
	tests := []struct {
		name    string
		seconds *float64
		want    string
	}{
		{"should_render_unknown_on_absent", nil, "unknown"},
		{"should_render_minutes", ptr(212.4), "3:32"},
		{"should_render_hours", ptr(3725.0), "1:02:05"},
		{"should_render_zero", ptr(0.0), "0:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Duration(tt.seconds); got != tt.want {
				t.Errorf("Duration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestViews(t *testing.T) {
	if got := Views(nil); got != "unknown" {
		t.Errorf("Views(nil) = %q", got)
	}
	if got := Views(ptr(int64(0))); got != "0" {
		t.Errorf("Views(0) = %q, want 0", got)
	}
	if got := Views(ptr(int64(1234567))); got != "1,234,567" {
		t.Errorf("Views(1234567) = %q", got)
	}
}

func TestHTMLCard_EscapesTitle(t *testing.T) {
	info := &app.VideoInfo{
		Title:   "<script>Tom & Jerry</script>",
		Formats: []json.RawMessage{json.RawMessage(`{}`)},
	}
	got := HTMLCard(info)
	if strings.Contains(got, "<script>") {
		t.Errorf("HTMLCard() = %q, title is not escaped", got)
	}
	if !strings.Contains(got, "&lt;script&gt;Tom &amp; Jerry&lt;/script&gt;") {
		t.Errorf("HTMLCard() = %q", got)
	}
	if !strings.Contains(got, "Available formats: 1") {
		t.Errorf("HTMLCard() = %q, want formats count", got)
	}
}

func TestBar(t *testing.T) {
	tests := []struct {
		percent float64
		width   int
		want    string
	}{
		{0, 12, "[----------]"},
		{50, 12, "[#####-----]"},
		{100, 12, "[##########]"},
		{150, 7, "[#####]"},
		{10, 2, ""},
	}
	for _, tt := range tests {
		if got := Bar(tt.percent, tt.width); got != tt.want {
			t.Errorf("Bar(%v, %d) = %q, want %q", tt.percent, tt.width, got, tt.want)
		}
	}
}
