package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hupe1980/mailsmith/internal/config"
)

// registerGlobalFlags adds the logging and project layout flags shared by
// every command.
func registerGlobalFlags(pf *pflag.FlagSet) {
	d := config.Default()

	pf.String("log-level", d.LogLevel, "log level: debug, info, warn, error")
	pf.String("log-format", d.LogFormat, "log format: text, json")
	pf.Bool("no-color", d.NoColor, "disable colored output")
	pf.BoolP("quiet", "q", d.Quiet, "suppress non-essential output")
	pf.BoolP("production", "p", d.Production, "upload images, minify CSS and drop source comments")
	pf.String("src", d.SourceDir, "source directory holding emails/ and shared/")
	pf.String("dist", d.DistDir, "output directory")
	pf.IntP("concurrency", "j", d.Concurrency, "campaigns built in parallel")
}

// registerServeFlags adds the preview server and watcher flags.
func registerServeFlags(cmd *cobra.Command, opts *serveOptions) {
	d := config.Default()

	f := cmd.Flags()
	f.Int("port", d.Port, "preview server port")
	f.Duration("debounce", d.Debounce, "quiet period before a batch of file changes is processed")
	f.BoolVar(&opts.diff, "diff", false, "print a unified diff of every rewritten page")
	f.StringVar(&opts.openPath, "open-path", "", "page preselected in the preview, e.g. promo-a/welcome.html")
}
