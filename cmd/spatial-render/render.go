// ABOUTME: Offline render loop from the decode controller to a WAV writer
// ABOUTME: Pulls the stereo mix, optionally resamples and encodes 16 or 24-bit PCM
package main

import (
	"fmt"
	"log"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/Resonate-Protocol/spatial-go/pkg/audio"
	"github.com/Resonate-Protocol/spatial-go/pkg/audio/output"
	"github.com/Resonate-Protocol/spatial-go/pkg/audio/resample"
	"github.com/Resonate-Protocol/spatial-go/pkg/geom"
	"github.com/Resonate-Protocol/spatial-go/pkg/stream"
)

// mixFrames is how many stereo frames each pull asks for
const mixFrames = 1024

// Options describes one offline render
type Options struct {
	Input      string
	Output     string
	Layout     audio.ChannelLayout
	SampleRate int // 0 keeps the stream rate
	BitDepth   int
	StartMs    float64
	Yaw, Pitch float64 // degrees
}

// Summary reports what was written
type Summary struct {
	Frames     int64
	SampleRate int
	BitDepth   int
	Resampled  bool
}

func (s Summary) String() string {
	seconds := float64(s.Frames) / float64(max(1, s.SampleRate))
	text := fmt.Sprintf("%d frames, %.2fs, %d Hz %d-bit stereo", s.Frames, seconds, s.SampleRate, s.BitDepth)
	if s.Resampled {
		text += " (resampled)"
	}
	return text
}

// renderFile decodes opts.Input to the end and writes the stereo mix to opts.Output
func renderFile(opts Options) (Summary, error) {
	if opts.BitDepth != 16 && opts.BitDepth != 24 {
		return Summary{}, fmt.Errorf("bit depth %d: %w", opts.BitDepth, audio.ErrInvalidParam)
	}

	player := stream.New(stream.Options{DeviceKind: output.KindNone})
	if err := player.Open(opts.Input, false, opts.Layout); err != nil {
		return Summary{}, err
	}
	defer player.Close()

	player.SetListenerRotationEuler(geom.DegToRad(opts.Yaw), geom.DegToRad(opts.Pitch), 0)
	if opts.StartMs > 0 {
		if err := player.Seek(opts.StartMs); err != nil {
			return Summary{}, err
		}
	}
	if err := player.Play(); err != nil {
		return Summary{}, err
	}

	inRate := player.SampleRate()
	outRate := opts.SampleRate
	if outRate <= 0 {
		outRate = inRate
	}
	resampler := resample.New(inRate, outRate, 2)

	f, err := os.Create(opts.Output)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to create %s: %w", opts.Output, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, outRate, opts.BitDepth, 2, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 2, SampleRate: outRate},
		SourceBitDepth: opts.BitDepth,
	}

	mix := make([]float32, 2*mixFrames)
	resampled := make([]float32, resampler.OutputSamplesNeeded(2*len(mix)))
	summary := Summary{SampleRate: outRate, BitDepth: opts.BitDepth, Resampled: !resampler.Passthrough()}

	for !player.Drained() {
		status, err := player.Decode()
		if status == stream.StatusError {
			return summary, fmt.Errorf("decode failed: %w", err)
		}

		n, err := player.Mix(mix)
		if err != nil {
			return summary, err
		}
		if n == 0 {
			continue
		}

		samples := mix[:n]
		if !resampler.Passthrough() {
			samples = resampled[:resampler.Resample(samples, resampled)]
		}

		buf.Data = toInts(buf.Data[:0], samples, opts.BitDepth)
		if err := enc.Write(buf); err != nil {
			return summary, fmt.Errorf("failed to write %s: %w", opts.Output, err)
		}
		summary.Frames += int64(len(samples) / 2)
	}

	if err := enc.Close(); err != nil {
		return summary, fmt.Errorf("failed to finalize %s: %w", opts.Output, err)
	}

	log.Printf("Rendered %s: %s", opts.Input, summary)
	return summary, nil
}

// toInts converts float samples to the integer range of bitDepth
func toInts(dst []int, samples []float32, bitDepth int) []int {
	for _, s := range samples {
		if bitDepth == 24 {
			dst = append(dst, int(audio.FloatToInt24(s)))
		} else {
			dst = append(dst, int(audio.FloatToInt16(s)))
		}
	}
	return dst
}
