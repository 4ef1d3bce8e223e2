package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.aimuz.me/audiotap/bridge"
	"go.aimuz.me/audiotap/capture"
	"go.aimuz.me/audiotap/config"
	"go.aimuz.me/audiotap/process"
)

// drainInterval paces the event queue polling. Chunks arrive every
// ChunkDuration at the earliest, so polling faster only burns cycles.
const drainInterval = 50 * time.Millisecond

var recordFlags struct {
	profile  string
	source   string
	output   string
	duration time.Duration

	sampleRate float64
	chunkMs    int
	stereo     bool
	encode     string

	deviceID string
	gain     float64

	mute        bool
	emitSilence bool
	include     []string
	exclude     []string
}

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record system audio or microphone input to a file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		profile, ok := cfg.Profile(recordFlags.profile)
		if !ok {
			return fmt.Errorf("profile not found: %s", recordFlags.profile)
		}
		applyRecordFlags(cmd, profile)

		return record(cmd, *profile)
	},
}

func init() {
	f := recordCmd.Flags()
	f.StringVarP(&recordFlags.profile, "profile", "p", "", "saved profile to start from")
	f.StringVarP(&recordFlags.source, "source", "s", "", `capture source: "system" or "microphone"`)
	f.StringVarP(&recordFlags.output, "output", "o", "capture.wav", "output file")
	f.DurationVarP(&recordFlags.duration, "duration", "d", 0, "stop after this long (0 records until interrupted)")

	f.Float64Var(&recordFlags.sampleRate, "sample-rate", 0, "sample rate in Hz (0 uses the device rate)")
	f.IntVar(&recordFlags.chunkMs, "chunk", 0, "chunk duration in milliseconds")
	f.BoolVar(&recordFlags.stereo, "stereo", false, "capture two channels")
	f.StringVar(&recordFlags.encode, "encode", "", `output encoding: "wav" or "opus"`)

	f.StringVar(&recordFlags.deviceID, "device", "", "microphone device ID (see the devices command)")
	f.Float64Var(&recordFlags.gain, "gain", 0, "microphone gain, 0.0 to 1.0")

	f.BoolVar(&recordFlags.mute, "mute", false, "silence local playback while tapping (macOS)")
	f.BoolVar(&recordFlags.emitSilence, "emit-silence", false, "emit zeroed chunks when no audio renders (Windows)")
	f.StringSliceVar(&recordFlags.include, "include", nil, "only tap audio from these process names")
	f.StringSliceVar(&recordFlags.exclude, "exclude", nil, "exclude these process names from the tap")
}

// applyRecordFlags overlays explicitly-set flags on the loaded profile.
func applyRecordFlags(cmd *cobra.Command, p *config.Profile) {
	if cmd.Flags().Changed("source") {
		p.Source = recordFlags.source
	}
	if cmd.Flags().Changed("sample-rate") {
		p.SampleRate = recordFlags.sampleRate
	}
	if cmd.Flags().Changed("chunk") {
		p.ChunkDurationMs = recordFlags.chunkMs
	}
	if cmd.Flags().Changed("stereo") {
		p.Stereo = recordFlags.stereo
	}
	if cmd.Flags().Changed("device") {
		p.DeviceID = recordFlags.deviceID
	}
	if cmd.Flags().Changed("gain") {
		p.Gain = recordFlags.gain
	}
	if cmd.Flags().Changed("encode") {
		p.Encode = recordFlags.encode
	}
}

func record(cmd *cobra.Command, profile config.Profile) (err error) {
	sess, err := capture.New()
	if err != nil {
		return err
	}
	defer sess.Destroy()

	if err := startSession(sess, profile); err != nil {
		return err
	}

	out, err := os.Create(recordFlags.output)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var timeout <-chan time.Time
	if recordFlags.duration > 0 {
		timeout = time.After(recordFlags.duration)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "recording %s to %s (interrupt to stop)\n",
		profile.Source, recordFlags.output)

	ticker := time.NewTicker(drainInterval)
	defer ticker.Stop()

	var snk sink

	// flushDeadline bounds the wait for the stream's Stopped event after
	// an explicit stop, in case the native layer never posts one.
	var flushDeadline <-chan time.Time
	stopCapture := func() {
		if flushDeadline != nil {
			return
		}
		if err := sess.Stop(); err != nil {
			slog.Warn("stop capture", "error", err)
		}
		flushDeadline = time.After(time.Second)
	}

	for {
		gaveUp := false
		select {
		case <-sigChan:
			stopCapture()
		case <-timeout:
			stopCapture()
		case <-flushDeadline:
			gaveUp = true
		case <-ticker.C:
		}

		done, err := consume(sess.Drain(), out, &snk, profile)
		if err != nil {
			return err
		}
		if done || gaveUp {
			break
		}
	}

	if snk == nil {
		return fmt.Errorf("capture produced no audio")
	}
	if err := snk.close(); err != nil {
		return fmt.Errorf("finalize output: %w", err)
	}
	return nil
}

// consume applies one drained batch to the output sink. It reports done
// once the stream's Stopped event has been seen.
func consume(events []bridge.Event, out *os.File, snk *sink, profile config.Profile) (bool, error) {
	for _, ev := range events {
		switch e := ev.(type) {
		case bridge.Metadata:
			if *snk != nil {
				continue
			}
			s, err := newSink(profile.Encode, out, e)
			if err != nil {
				return false, err
			}
			*snk = s
			slog.Info("stream format",
				"sampleRate", e.SampleRate,
				"channels", e.ChannelsPerFrame,
				"encoding", e.Encoding)
		case bridge.Data:
			if *snk == nil {
				// Data before Metadata would mean a broken native
				// layer; drop rather than guess a format.
				slog.Warn("dropping chunk received before stream metadata", "bytes", len(e.Bytes))
				continue
			}
			if err := (*snk).write(e.Bytes); err != nil {
				return false, fmt.Errorf("write chunk: %w", err)
			}
		case bridge.Started:
			slog.Debug("stream started")
		case bridge.Stopped:
			return true, nil
		case bridge.Error:
			// Patch what was written so the file stays playable up to
			// the failure.
			if *snk != nil {
				if cerr := (*snk).close(); cerr != nil {
					slog.Warn("finalize output after capture error", "error", cerr)
				}
			}
			return false, fmt.Errorf("capture error: %s", e.Message)
		}
	}
	return false, nil
}

func startSession(sess *capture.Session, p config.Profile) error {
	chunk := time.Duration(p.ChunkDurationMs) * time.Millisecond

	switch p.Source {
	case "system":
		include, err := process.FindPids(recordFlags.include...)
		if err != nil {
			return err
		}
		exclude, err := process.FindPids(recordFlags.exclude...)
		if err != nil {
			return err
		}
		return sess.StartSystemAudio(capture.SystemAudioOptions{
			SampleRate:       p.SampleRate,
			ChunkDuration:    chunk,
			Mute:             recordFlags.mute,
			Stereo:           p.Stereo,
			IncludeProcesses: include,
			ExcludeProcesses: exclude,
			EmitSilence:      recordFlags.emitSilence,
		})
	case "microphone":
		return sess.StartMicrophone(capture.MicrophoneOptions{
			SampleRate:    p.SampleRate,
			ChunkDuration: chunk,
			Stereo:        p.Stereo,
			DeviceID:      p.DeviceID,
			Gain:          p.Gain,
		})
	default:
		return fmt.Errorf("invalid source %q: must be %q or %q", p.Source, "system", "microphone")
	}
}
