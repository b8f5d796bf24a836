// ABOUTME: Container and codec detection for uploaded clips
// ABOUTME: Uses mimetype magic-number detection with an extension fallback
package decode

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Codec names returned by Sniff
const (
	CodecWAV    = "wav"
	CodecMP3    = "mp3"
	CodecFLAC   = "flac"
	CodecVorbis = "ogg"
	CodecOpus   = "opus"
	CodecM4A    = "m4a"
	CodecPCM    = "pcm"
)

// SniffLen is the number of leading bytes Sniff looks at
const SniffLen = 3072

var mimeCodecs = []struct {
	mime  string
	codec string
}{
	{"audio/wav", CodecWAV},
	{"audio/mpeg", CodecMP3},
	{"audio/flac", CodecFLAC},
	{"audio/x-m4a", CodecM4A},
	{"audio/mp4", CodecM4A},
	{"video/mp4", CodecM4A},
	{"audio/aac", CodecM4A},
}

var extCodecs = map[string]string{
	".wav":  CodecWAV,
	".wave": CodecWAV,
	".mp3":  CodecMP3,
	".flac": CodecFLAC,
	".ogg":  CodecVorbis,
	".oga":  CodecVorbis,
	".opus": CodecOpus,
	".m4a":  CodecM4A,
	".mp4":  CodecM4A,
	".aac":  CodecM4A,
	".pcm":  CodecPCM,
	".raw":  CodecPCM,
}

// Sniff determines the codec of a clip from its first bytes and filename
func Sniff(head []byte, filename string) (string, error) {
	if len(head) > SniffLen {
		head = head[:SniffLen]
	}

	mime := mimetype.Detect(head)

	if mime.Is("application/ogg") || mime.Is("audio/ogg") {
		if bytes.Contains(head, []byte("OpusHead")) {
			return CodecOpus, nil
		}
		return CodecVorbis, nil
	}

	for _, mc := range mimeCodecs {
		if mime.Is(mc.mime) {
			return mc.codec, nil
		}
	}

	// Headerless or unknown bytes: trust the extension
	if codec, ok := extCodecs[strings.ToLower(filepath.Ext(filename))]; ok {
		return codec, nil
	}

	return "", &UnsupportedFormatError{MIME: mime.String(), Filename: filepath.Base(filename)}
}
