package render

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
)

// LameEncoder pipes PCM through the lame command line encoder.
type LameEncoder struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout bytes.Buffer
	stderr bytes.Buffer
	buf    []byte
	done   bool // cmd has been waited on
}

// Lame returns an EncoderFactory that runs the lame binary at path, encoding
// at the given bitrate in kbps.
func Lame(path string, bitrate int) EncoderFactory {
	return func(channels, sampleRate int) (Encoder, error) {
		return NewLameEncoder(path, channels, sampleRate, bitrate)
	}
}

func NewLameEncoder(path string, channels, sampleRate, bitrate int) (*LameEncoder, error) {
	mode := "j"
	if channels == 1 {
		mode = "m"
	}
	e := &LameEncoder{}
	e.cmd = exec.Command(path, "--quiet", "-r",
		"-s", strconv.FormatFloat(float64(sampleRate)/1000, 'f', -1, 64),
		"--bitwidth", "16", "--signed", "--little-endian",
		"-m", mode, "-b", strconv.Itoa(bitrate), "-", "-")
	e.cmd.Stdout = &e.stdout
	e.cmd.Stderr = &e.stderr
	stdin, err := e.cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	e.stdin = stdin
	if err := e.cmd.Start(); err != nil {
		return nil, fmt.Errorf("could not start %s: %w", path, err)
	}
	return e, nil
}

// Encode streams a block to lame. Output is collected and returned by
// Flush.
func (e *LameEncoder) Encode(left, right []int16) ([]byte, error) {
	e.buf = e.buf[:0]
	for i := range left {
		e.buf = binary.LittleEndian.AppendUint16(e.buf, uint16(left[i]))
		if right != nil {
			e.buf = binary.LittleEndian.AppendUint16(e.buf, uint16(right[i]))
		}
	}
	if _, err := e.stdin.Write(e.buf); err != nil {
		return nil, err
	}
	return nil, nil
}

func (e *LameEncoder) Flush() ([]byte, error) {
	if e.done {
		return nil, errors.New("lame: encoder closed")
	}
	if err := e.stdin.Close(); err != nil {
		return nil, err
	}
	e.done = true
	if err := e.cmd.Wait(); err != nil {
		return nil, fmt.Errorf("lame: %w: %s", err, bytes.TrimSpace(e.stderr.Bytes()))
	}
	return e.stdout.Bytes(), nil
}

// Close kills lame if it is still running and waits for it to exit.
func (e *LameEncoder) Close() error {
	if e.done {
		return nil
	}
	e.done = true
	e.stdin.Close()
	e.cmd.Process.Kill()
	e.cmd.Wait()
	return nil
}
