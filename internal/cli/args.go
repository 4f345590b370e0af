package cli

// Args holds CLI arguments parsed by go-arg.
type Args struct {
	Info  *InfoCmd  `arg:"subcommand:info" help:"print metadata of a video"`
	Get   *GetCmd   `arg:"subcommand:get" help:"download a video or its audio"`
	Serve *ServeCmd `arg:"subcommand:serve" help:"run the HTTP API"`
	Open  *OpenCmd  `arg:"subcommand:open" help:"open a directory in the file browser"`

	Config string `arg:"--config,env:MEDIAGRAB_CONFIG" help:"path to a config.env file"`
}

type InfoCmd struct {
	URL  string `arg:"positional,required"`
	JSON bool   `arg:"--json" help:"print the metadata as JSON"`
}

type GetCmd struct {
	URL     string `arg:"positional,required"`
	Format  string `arg:"-f,--format" default:"video" help:"video or mp3"`
	Quality string `arg:"-q,--quality" default:"best" help:"best, 1080, 720, 480 or 360. Ignored for mp3"`
	Output  string `arg:"-o,--output" help:"where to download to. Path will be made if it doesn't already exist. Defaults to the Downloads folder"`
	Open    bool   `arg:"--open" help:"open the output directory when done"`
}

type ServeCmd struct {
	Addr string `arg:"--addr" help:"listen address, overrides HTTP_ADDR"`
}

type OpenCmd struct {
	Dir string `arg:"positional,required"`
}

func (Args) Description() string {
	return "mediagrab downloads videos and audio with yt-dlp\n"
}
