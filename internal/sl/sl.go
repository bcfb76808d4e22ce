// Package sl holds slog attribute helpers shared by every component
package sl

import "log/slog"

// Err renders err under the "error" key; a nil error renders as "<nil>"
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.String("error", err.Error())
}

// Secret keeps only a short prefix of a credential so logs can tell keys
// apart without leaking them
func Secret(value string) slog.Attr {
	const keep = 5

	switch {
	case value == "":
		return slog.String("secret", "?")
	case len(value) <= keep:
		return slog.String("secret", "***")
	default:
		return slog.String("secret", value[:keep]+"***")
	}
}

// Module tags a logger with the component that owns it
func Module(name string) slog.Attr {
	return slog.String("mod", name)
}

// Details flattens file metadata into a log group
func Details(name, mimeType string, size int64) slog.Attr {
	return slog.Group("file",
		slog.String("name", name),
		slog.String("type", mimeType),
		slog.Int64("size", size),
	)
}
