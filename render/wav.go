package render

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/mrdg/chordmaker/audio"
)

const (
	HeaderSize    = 44
	bitsPerSample = 16
	formatPCM     = 1
)

var ErrNotWAV = errors.New("not a 16 bit PCM wav file")

// Header describes a canonical 44 byte PCM wav header.
type Header struct {
	Channels      int
	SampleRate    int
	ByteRate      int
	BlockAlign    int
	BitsPerSample int
	DataLength    int
}

func (h Header) Frames() int {
	if h.BlockAlign == 0 {
		return 0
	}
	return h.DataLength / h.BlockAlign
}

// riffHeader is the on-disk layout, written with encoding/binary.
type riffHeader struct {
	RIFF          [4]byte
	ChunkSize     uint32
	WAVE          [4]byte
	Fmt           [4]byte
	FmtSize       uint32
	Format        uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Data          [4]byte
	DataLength    uint32
}

func newHeader(channels, frames, sampleRate int) riffHeader {
	dataLength := frames * channels * 2
	return riffHeader{
		RIFF:          [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     uint32(36 + dataLength),
		WAVE:          [4]byte{'W', 'A', 'V', 'E'},
		Fmt:           [4]byte{'f', 'm', 't', ' '},
		FmtSize:       16,
		Format:        formatPCM,
		Channels:      uint16(channels),
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate * channels * 2),
		BlockAlign:    uint16(channels * 2),
		BitsPerSample: bitsPerSample,
		Data:          [4]byte{'d', 'a', 't', 'a'},
		DataLength:    uint32(dataLength),
	}
}

// pcm16 clamps s to [-1, 1] and scales it asymmetrically so both -1 and 1
// map to the ends of the int16 range.
func pcm16(s float32) int16 {
	v := float64(s)
	if math.IsNaN(v) {
		return 0
	}
	v = math.Max(-1, math.Min(1, v))
	if v < 0 {
		return int16(v * 0x8000)
	}
	return int16(v * 0x7fff)
}

// WriteWAV writes buf as 16 bit PCM with interleaved channels.
func WriteWAV(w io.Writer, buf *audio.Buffer) error {
	bw := bufio.NewWriter(w)
	h := newHeader(buf.NumChannels(), buf.Len(), int(buf.SampleRate))
	if err := binary.Write(bw, binary.LittleEndian, h); err != nil {
		return fmt.Errorf("could not write wav header: %w", err)
	}
	var sample [2]byte
	for i := 0; i < buf.Len(); i++ {
		for _, ch := range buf.Channels {
			binary.LittleEndian.PutUint16(sample[:], uint16(pcm16(ch[i])))
			if _, err := bw.Write(sample[:]); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// EncodeWAV returns buf as a wav file.
func EncodeWAV(buf *audio.Buffer) []byte {
	var b bytes.Buffer
	b.Grow(HeaderSize + buf.Len()*buf.NumChannels()*2)
	// Writes to a bytes.Buffer do not fail.
	WriteWAV(&b, buf)
	return b.Bytes()
}

// ParseHeader reads the header written by WriteWAV.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: short header", ErrNotWAV)
	}
	var h riffHeader
	if err := binary.Read(bytes.NewReader(data[:HeaderSize]), binary.LittleEndian, &h); err != nil {
		return Header{}, err
	}
	switch {
	case string(h.RIFF[:]) != "RIFF" || string(h.WAVE[:]) != "WAVE":
		return Header{}, fmt.Errorf("%w: missing RIFF/WAVE tags", ErrNotWAV)
	case string(h.Fmt[:]) != "fmt " || h.FmtSize != 16:
		return Header{}, fmt.Errorf("%w: unexpected fmt chunk", ErrNotWAV)
	case h.Format != formatPCM || h.BitsPerSample != bitsPerSample:
		return Header{}, fmt.Errorf("%w: format %d, %d bits", ErrNotWAV, h.Format, h.BitsPerSample)
	case string(h.Data[:]) != "data":
		return Header{}, fmt.Errorf("%w: missing data chunk", ErrNotWAV)
	case h.ChunkSize != 36+h.DataLength:
		return Header{}, fmt.Errorf("%w: chunk size %d does not match data length %d", ErrNotWAV, h.ChunkSize, h.DataLength)
	}
	return Header{
		Channels:      int(h.Channels),
		SampleRate:    int(h.SampleRate),
		ByteRate:      int(h.ByteRate),
		BlockAlign:    int(h.BlockAlign),
		BitsPerSample: int(h.BitsPerSample),
		DataLength:    int(h.DataLength),
	}, nil
}
