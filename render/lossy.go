package render

import (
	"bytes"
	"fmt"
	"io"

	"github.com/youpy/go-wav"
)

// BlockSize is the number of samples per channel fed to an encoder at once.
const BlockSize = 1152

// Encoder compresses 16 bit PCM. Stereo input arrives as separate left and
// right blocks; for mono input right is nil. Close releases the encoder
// whether or not Flush was reached and may be called more than once.
type Encoder interface {
	Encode(left, right []int16) ([]byte, error)
	Flush() ([]byte, error)
	Close() error
}

type EncoderFactory func(channels, sampleRate int) (Encoder, error)

// EncodeLossy decodes a wav file and feeds it through an encoder in blocks
// of BlockSize samples, returning the concatenated output.
func EncodeLossy(data []byte, newEncoder EncoderFactory) ([]byte, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	if h.Channels < 1 || h.Channels > 2 {
		return nil, fmt.Errorf("cannot encode %d channels", h.Channels)
	}
	left, right, err := readPCM(data, h.Channels)
	if err != nil {
		return nil, err
	}

	enc, err := newEncoder(h.Channels, h.SampleRate)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	var out bytes.Buffer
	for i := 0; i < len(left); i += BlockSize {
		end := min(i+BlockSize, len(left))
		var r []int16
		if right != nil {
			r = right[i:end]
		}
		chunk, err := enc.Encode(left[i:end], r)
		if err != nil {
			return nil, fmt.Errorf("encode failed: %w", err)
		}
		out.Write(chunk)
	}
	chunk, err := enc.Flush()
	if err != nil {
		return nil, fmt.Errorf("encoder flush failed: %w", err)
	}
	out.Write(chunk)
	return out.Bytes(), nil
}

// readPCM splits the samples of a wav file into per channel slices.
func readPCM(data []byte, channels int) (left, right []int16, err error) {
	r := wav.NewReader(bytes.NewReader(data))
	for {
		samples, err := r.ReadSamples()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		for _, s := range samples {
			left = append(left, int16(r.IntValue(s, 0)))
			if channels == 2 {
				right = append(right, int16(r.IntValue(s, 1)))
			}
		}
	}
	return left, right, nil
}
