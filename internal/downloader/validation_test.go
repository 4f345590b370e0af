package downloader

import "testing"

func TestValidateLink(t *testing.T) {
	type args struct {
		link string
	}
	tests := []struct {
		name    string
		args    args
		wantErr bool
	}{
		{
			name: "should_return_err_on_cyrillic_text",
			args: args{
				link: "Статус",
			},
			wantErr: true,
		},
		{
			name: "should_return_err_on_video_id",
			args: args{
				link: "7UxNoFjmhBA",
			},
			wantErr: true,
		},
		{
			name: "should_not_return_err_when_correct_youtube_url",
			args: args{
				link: "https://www.youtube.com/watch?v=7UxNoFjmhBA",
			},
			wantErr: false,
		},
		{
			name: "should_return_err_when_url_without_schema",
			args: args{
				link: "youtube.com/watch?v=7UxNoFjmhBA",
			},
			wantErr: true,
		},
		{
			name: "should_accept_other_hosts",
			args: args{
				link: "https://vimeo.com/76979871",
			},
			wantErr: false,
		},
		{
			name: "should_return_err_on_normalized_button_text",
			args: args{
				link: NormalizeLink("Status"),
			},
			wantErr: true,
		},
		{
			name: "should_return_err_on_ftp_scheme",
			args: args{
				link: "ftp://example.com/video.mp4",
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateLink(tt.args.link); (err != nil) != tt.wantErr {
				t.Errorf("ValidateLink() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeLink(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"should_add_https_scheme", "youtube.com/watch?v=7UxNoFjmhBA", "https://youtube.com/watch?v=7UxNoFjmhBA"},
		{"should_trim_spaces", "  https://youtu.be/GQtVIUdr4sk \n", "https://youtu.be/GQtVIUdr4sk"},
		{"should_keep_empty_text", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeLink(tt.text); got != tt.want {
				t.Errorf("NormalizeLink() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestYoutubeVideoID(t *testing.T) {
	if got := youtubeVideoID("https://youtu.be/GQtVIUdr4sk"); got != "GQtVIUdr4sk" {
		t.Errorf("youtubeVideoID() = %q, want GQtVIUdr4sk", got)
	}
	if got := youtubeVideoID("https://vimeo.com/76979871"); got != "" {
		t.Errorf("youtubeVideoID() = %q, want empty for non-YouTube host", got)
	}
}
