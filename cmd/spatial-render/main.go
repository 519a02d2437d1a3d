// ABOUTME: Entry point for the offline spatial renderer
// ABOUTME: Decodes a file through the stream controller into a stereo WAV
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	flag "github.com/spf13/pflag"

	"github.com/Resonate-Protocol/spatial-go/internal/version"
	"github.com/Resonate-Protocol/spatial-go/pkg/audio"
)

var (
	flagLayout   = audio.LayoutStereo
	flagOutput   string
	flagRate     int
	flagBitDepth int
	flagStartMs  float64
	flagYaw      float64
	flagPitch    float64
	flagQuiet    bool
	flagVersion  bool
)

func init() {
	flag.VarP(&flagLayout, "layout", "l", "Channel layout of the input")
	flag.StringVarP(&flagOutput, "output", "o", "", "Output WAV path (default: input name with .render.wav)")
	flag.IntVarP(&flagRate, "rate", "r", 0, "Output sample rate (default: the stream rate)")
	flag.IntVarP(&flagBitDepth, "bit-depth", "b", 16, "Output bit depth, 16 or 24")
	flag.Float64Var(&flagStartMs, "start", 0, "Start position in milliseconds")
	flag.Float64Var(&flagYaw, "yaw", 0, "Listener yaw in degrees")
	flag.Float64Var(&flagPitch, "pitch", 0, "Listener pitch in degrees")
	flag.BoolVarP(&flagQuiet, "quiet", "q", false, "Only print errors")
	flag.BoolVarP(&flagVersion, "version", "v", false, "Print version information and exit")
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTION]... FILE\n\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if flagVersion {
		fmt.Println(version.UserAgent())
		return
	}
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	input := flag.Arg(0)
	output := flagOutput
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + ".render.wav"
	}

	if flagQuiet {
		log.SetOutput(io.Discard)
	}

	summary, err := renderFile(Options{
		Input:      input,
		Output:     output,
		Layout:     flagLayout,
		SampleRate: flagRate,
		BitDepth:   flagBitDepth,
		StartMs:    flagStartMs,
		Yaw:        flagYaw,
		Pitch:      flagPitch,
	})
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "render failed: ")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if !flagQuiet {
		color.New(color.FgGreen).Print("rendered ")
		fmt.Printf("%s → %s\n", input, output)
		color.New(color.FgCyan).Printf("  %s\n", summary)
	}
}
