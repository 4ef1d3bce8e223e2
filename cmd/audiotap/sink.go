package main

import (
	"encoding/binary"
	"fmt"
	"os"

	opuscodec "github.com/jj11hh/opus"
	"go.aimuz.me/audiotap/bridge"
	"go.aimuz.me/audiotap/internal/pcm"
)

// sink consumes raw capture chunks and produces the output file body.
type sink interface {
	write(chunk []byte) error
	close() error
}

func newSink(encode string, out *os.File, meta bridge.Metadata) (sink, error) {
	switch encode {
	case "", "wav":
		return newWavSink(out, meta)
	case "opus":
		return newOpusSink(out, meta)
	default:
		return nil, fmt.Errorf("unknown encoding %q", encode)
	}
}

const wavHeaderSize = 44

// wavSink writes a WAV file. The header is written up front with zero
// sizes and patched on close, so a crash mid-recording still leaves
// recoverable PCM data behind the header.
type wavSink struct {
	out     *os.File
	dataLen uint32
}

func newWavSink(out *os.File, meta bridge.Metadata) (*wavSink, error) {
	s := &wavSink{out: out}
	if err := s.writeHeader(meta, 0); err != nil {
		return nil, fmt.Errorf("write wav header: %w", err)
	}
	return s, nil
}

func (s *wavSink) writeHeader(meta bridge.Metadata, dataLen uint32) error {
	var format uint16 = 1 // PCM
	if meta.IsFloat {
		format = 3 // IEEE float
	}
	channels := uint16(meta.ChannelsPerFrame)
	bits := uint16(meta.BitsPerChannel)
	rate := uint32(meta.SampleRate)
	blockAlign := channels * bits / 8

	var hdr [wavHeaderSize]byte
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], 36+dataLen)
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16)
	binary.LittleEndian.PutUint16(hdr[20:22], format)
	binary.LittleEndian.PutUint16(hdr[22:24], channels)
	binary.LittleEndian.PutUint32(hdr[24:28], rate)
	binary.LittleEndian.PutUint32(hdr[28:32], rate*uint32(blockAlign))
	binary.LittleEndian.PutUint16(hdr[32:34], blockAlign)
	binary.LittleEndian.PutUint16(hdr[34:36], bits)
	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], dataLen)

	_, err := s.out.WriteAt(hdr[:], 0)
	return err
}

func (s *wavSink) write(chunk []byte) error {
	n, err := s.out.Write(chunk)
	s.dataLen += uint32(n)
	return err
}

func (s *wavSink) close() error {
	// Patch the two size fields now that the data length is known.
	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], 36+s.dataLen)
	if _, err := s.out.WriteAt(size[:], 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(size[:], s.dataLen)
	_, err := s.out.WriteAt(size[:], 40)
	return err
}

// opusFrameSamples is 20ms at 48kHz, per channel. Opus only accepts a
// fixed set of frame durations; 20ms is the usual streaming choice.
const opusFrameSamples = 960

// maxOpusPacket bounds one encoded packet (RFC 6716 recommends 1275).
const maxOpusPacket = 1275

// opusSink encodes float32 chunks to Opus packets, each written with a
// uint32 big-endian length prefix.
type opusSink struct {
	out      *os.File
	enc      *opuscodec.Encoder
	channels int

	// pending holds samples that did not fill a whole frame yet.
	pending []float32
	packet  []byte
}

func newOpusSink(out *os.File, meta bridge.Metadata) (*opusSink, error) {
	if !meta.IsFloat || meta.BitsPerChannel != 32 {
		return nil, fmt.Errorf("opus output requires float32 capture, got %s", meta.Encoding)
	}
	if meta.SampleRate != 48000 {
		return nil, fmt.Errorf("opus output requires a 48000 Hz stream, got %.0f Hz (use --sample-rate 48000)", meta.SampleRate)
	}
	channels := int(meta.ChannelsPerFrame)
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("opus output supports 1 or 2 channels, got %d", channels)
	}

	enc, err := opuscodec.NewEncoder(48000, channels, opuscodec.AppVoIP)
	if err != nil {
		return nil, fmt.Errorf("create opus encoder: %w", err)
	}

	return &opusSink{
		out:      out,
		enc:      enc,
		channels: channels,
		packet:   make([]byte, maxOpusPacket),
	}, nil
}

func (s *opusSink) write(chunk []byte) error {
	s.pending = append(s.pending, pcm.Float32s(chunk)...)

	frame := opusFrameSamples * s.channels
	for len(s.pending) >= frame {
		if err := s.encodeFrame(s.pending[:frame]); err != nil {
			return err
		}
		s.pending = s.pending[frame:]
	}
	return nil
}

func (s *opusSink) encodeFrame(frame []float32) error {
	n, err := s.enc.EncodeFloat32(frame, s.packet)
	if err != nil {
		return fmt.Errorf("opus encode: %w", err)
	}

	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(n))
	if _, err := s.out.Write(prefix[:]); err != nil {
		return err
	}
	_, err = s.out.Write(s.packet[:n])
	return err
}

func (s *opusSink) close() error {
	if len(s.pending) == 0 {
		return nil
	}

	// Zero-pad the tail to a full frame; Opus rejects partial frames.
	frame := make([]float32, opusFrameSamples*s.channels)
	copy(frame, s.pending)
	s.pending = nil
	return s.encodeFrame(frame)
}
