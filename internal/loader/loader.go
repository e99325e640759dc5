package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ErrUnsupportedFormat is returned for binary document formats. PDF and
// DOCX must be converted to text before analysis.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Format is the detected input format
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Document is raw contract text ready for normalization
type Document struct {
	Name   string
	Format Format
	Text   string
}

// IsURL reports whether src should be fetched rather than read from disk
func IsURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// Loader reads contracts from files, stdin ("-") or http(s) URLs
type Loader struct {
	fetcher *Fetcher
}

// New creates a loader. fetcher may be nil when URLs are not needed.
func New(fetcher *Fetcher) *Loader {
	return &Loader{fetcher: fetcher}
}

// Load reads one source
func (l *Loader) Load(ctx context.Context, src string) (*Document, error) {
	if IsURL(src) {
		if l.fetcher == nil {
			return nil, fmt.Errorf("%s: URL sources are not enabled", src)
		}
		res, err := l.fetcher.FetchWithRetry(ctx, src)
		if err != nil {
			return nil, err
		}
		return Parse(res.FinalURL, res.Body, res.ContentType)
	}

	var (
		data []byte
		err  error
	)
	if src == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		// #nosec G304 -- path is supplied by the operator
		data, err = os.ReadFile(src)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", src, err)
	}
	return Parse(src, data, "")
}

// Parse converts raw bytes to text based on the name's extension or the
// declared content type
func Parse(name string, data []byte, contentType string) (*Document, error) {
	format, err := detect(name, data, contentType)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%s: %w: input is not valid UTF-8", name, ErrUnsupportedFormat)
	}

	text := strings.TrimPrefix(string(data), "\uFEFF")
	if format == FormatHTML {
		text, err = HTMLToText(text)
		if err != nil {
			return nil, fmt.Errorf("%s: parse html: %w", name, err)
		}
	}
	return &Document{Name: name, Format: format, Text: text}, nil
}

func detect(name string, data []byte, contentType string) (Format, error) {
	if contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil {
			switch mt {
			case "text/html", "application/xhtml+xml":
				return FormatHTML, nil
			case "text/markdown":
				return FormatMarkdown, nil
			case "text/plain":
				return FormatText, nil
			case "application/pdf", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", "application/msword":
				return "", ErrUnsupportedFormat
			}
		}
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm", ".xhtml":
		return FormatHTML, nil
	case ".md", ".markdown":
		return FormatMarkdown, nil
	case ".pdf", ".docx", ".doc", ".odt", ".rtf":
		return "", ErrUnsupportedFormat
	}

	if strings.HasPrefix(string(data), "%PDF-") {
		return "", ErrUnsupportedFormat
	}
	head := strings.ToLower(strings.TrimSpace(string(data[:min(len(data), 512)])))
	if strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html") {
		return FormatHTML, nil
	}
	return FormatText, nil
}
