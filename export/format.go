package export

import (
	"fmt"
	"regexp"
	"strings"
)

type Format string

const (
	WAV Format = "wav"
	MP3 Format = "mp3"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case WAV, MP3:
		return f, nil
	case "":
		return WAV, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

func (f Format) MIMEType() string {
	if f == MP3 {
		return "audio/mp3"
	}
	return "audio/wav"
}

var extension = regexp.MustCompile(`(?i)\.(wav|mp3)$`)

// Filename strips a trailing audio extension from name and appends the one
// for f.
func (f Format) Filename(name string) string {
	return extension.ReplaceAllString(name, "") + "." + string(f)
}
