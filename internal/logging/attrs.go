package logging

import (
	"log/slog"
	"time"
)

// Campaign records the campaign folder name under the key "campaign".
func Campaign(name string) slog.Attr {
	return slog.String("campaign", name)
}

// Path records a file path under the key "path".
func Path(p string) slog.Attr {
	return slog.String("path", p)
}

// Op records a dispatcher operation under the key "op".
func Op(name string) slog.Attr {
	return slog.String("op", name)
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}

	return slog.Any("error", err)
}

// Duration records an elapsed time rounded to milliseconds.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d.Round(time.Millisecond))
}
