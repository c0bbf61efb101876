package transcription

import (
	"net/textproto"
	"path/filepath"
	"slices"
	"strings"
)

// audioTypes maps accepted container extensions to the MIME type sent to providers.
var audioTypes = map[string]string{
	".wav":  "audio/wav",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".webm": "audio/webm",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
	".aac":  "audio/aac",
}

// ValidateAudioFormat reports whether filename has a supported audio extension.
func ValidateAudioFormat(filename string) bool {
	_, ok := audioTypes[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// AudioContentType returns the MIME type for filename, or
// application/octet-stream when the extension is unknown.
func AudioContentType(filename string) string {
	if ct, ok := audioTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// SupportedFormats lists accepted extensions in sorted order.
func SupportedFormats() []string {
	out := make([]string, 0, len(audioTypes))
	for ext := range audioTypes {
		out = append(out, ext)
	}
	slices.Sort(out)
	return out
}

func audioPartHeader(fileName string) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
	h.Set("Content-Type", AudioContentType(fileName))
	return h
}
