// ABOUTME: Encoder interface definition and output format dispatch
// ABOUTME: Common interface for all audio encoders
package encode

import (
	"fmt"

	"github.com/Resonate-Protocol/voicechanger-go/pkg/audio"
)

// Output formats accepted by New
const (
	FormatWAV = "wav"
	FormatPCM = "pcm"
)

// Encoder encodes decoded buffers to bytes
type Encoder interface {
	// Encode serialises the whole buffer
	Encode(buf *audio.Buffer) ([]byte, error)

	// ContentType is the MIME type of the encoded output
	ContentType() string
}

// New creates the encoder for an output format
func New(format string, bitDepth int) (Encoder, error) {
	switch format {
	case "", FormatWAV:
		return NewWAV(bitDepth), nil
	case FormatPCM:
		depth := 16
		if bitDepth > 16 {
			depth = 24
		}
		enc, err := NewPCM(depth)
		if err != nil {
			return nil, err
		}
		return enc, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (supported: wav, pcm)", format)
	}
}
