package ytdlp

import (
	"reflect"
	"testing"

	"github.com/vm-affekt/mediagrab/internal/app"
)

func feedAll(d *ProgressDecoder, chunks ...string) []float64 {
	var got []float64
	for _, c := range chunks {
		for _, ev := range d.Feed(c) {
			got = append(got, ev.Percent)
		}
	}
	return got
}

func TestProgressDecoder_Feed(t *testing.T) {
	tests := []struct {
		name   string
		chunks []string
		want   []float64
	}{
		{
			name:   "should_suppress_repeated_percent",
			chunks: []string{"10%... ", "10.0%... 55.2%"},
			want:   []float64{10.0, 55.2},
		},
		{
			name:   "should_pass_decreasing_values",
			chunks: []string{"3%", "1%"},
			want:   []float64{3, 1},
		},
		{
			name: "should_process_multiple_lines_in_one_chunk",
			chunks: []string{
				"[download]   0.0% of   10.00MiB at  Unknown B/s ETA Unknown\n" +
					"[download]  12.5% of   10.00MiB at    1.00MiB/s ETA 00:08\n" +
					"[download] 100.0% of   10.00MiB at    2.00MiB/s ETA 00:00\n",
			},
			want: []float64{0, 12.5, 100},
		},
		{
			name:   "should_ignore_chunks_without_percent",
			chunks: []string{"[youtube] Extracting URL", "[info] Downloading 1 format(s): 18"},
			want:   nil,
		},
		{
			name:   "should_emit_zero_first",
			chunks: []string{"0%"},
			want:   []float64{0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := feedAll(NewProgressDecoder(), tt.chunks...)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Feed() events = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProgressDecoder_LastEmitted(t *testing.T) {
	d := NewProgressDecoder()
	if _, ok := d.LastEmitted(); ok {
		t.Fatal("LastEmitted() ok = true before any event")
	}
	d.Feed("42.1%")
	got, ok := d.LastEmitted()
	if !ok || got != 42.1 {
		t.Errorf("LastEmitted() = %v, %v, want 42.1, true", got, ok)
	}
	if evs := d.Feed("42.1%"); len(evs) != 0 {
		t.Errorf("Feed() = %v, want no events for unchanged percent", evs)
	}
	if evs := d.Feed("50%"); !reflect.DeepEqual(evs, []app.ProgressEvent{{Percent: 50}}) {
		t.Errorf("Feed() = %v, want [50]", evs)
	}
}
