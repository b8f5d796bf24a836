// ABOUTME: Audio decoder package for multiple codec support
// ABOUTME: Provides Decoder interface, format sniffing and codec implementations
// Package decode turns encoded audio files into audio.Buffer values.
//
// Supports: WAV, MP3, FLAC, Ogg Vorbis, Ogg Opus, raw PCM (16-bit and 24-bit),
// and M4A/AAC through an ffmpeg subprocess.
//
// All decoders read a complete clip and output int32 samples in 24-bit range
// for consistent processing. Sniff picks the codec from the leading bytes,
// falling back to the file extension.
//
// Example:
//
//	buf, err := decode.File("/tmp/upload.mp3", decode.Options{})
//
//	codec, err := decode.Sniff(head, "clip.flac")
//	decoder, err := decode.New(codec, decode.Options{})
//	buf, err := decoder.Decode(r)
package decode
