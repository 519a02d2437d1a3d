// ABOUTME: Entry point for the spatial player remote control
// ABOUTME: Finds players over mDNS and sends transport and orientation commands
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	flag "github.com/spf13/pflag"

	"github.com/Resonate-Protocol/spatial-go/internal/control"
	"github.com/Resonate-Protocol/spatial-go/internal/discovery"
	"github.com/Resonate-Protocol/spatial-go/internal/version"
)

var (
	flagURL     string
	flagName    string
	flagWait    time.Duration
	flagList    bool
	flagWatch   bool
	flagVerbose bool
	flagVersion bool
)

func init() {
	flag.StringVarP(&flagURL, "url", "u", "", "Player control URL, e.g. ws://host:8928/control (default: discover)")
	flag.StringVarP(&flagName, "name", "n", "", "Only use the discovered player with this name")
	flag.DurationVar(&flagWait, "wait", 3*time.Second, "How long to browse for players")
	flag.BoolVarP(&flagList, "list", "l", false, "List players on the network and exit")
	flag.BoolVarP(&flagWatch, "watch", "w", false, "Keep printing state changes after the command")
	flag.BoolVar(&flagVerbose, "verbose", false, "Log protocol and discovery details")
	flag.BoolVarP(&flagVersion, "version", "v", false, "Print version information and exit")
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTION]... [status|play|pause|seek POS|face YAW [PITCH [ROLL]]|reset]\n\n",
			filepath.Base(os.Args[0]))
		fmt.Fprintf(os.Stderr, "Put -- before negative angles, e.g. face -- -30\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flagVersion {
		fmt.Println(version.UserAgent())
		return
	}
	if !flagVerbose {
		log.SetOutput(io.Discard)
	}

	if flagList {
		for _, p := range discover(flagWait) {
			color.New(color.FgCyan).Print(p.Name)
			fmt.Printf("  %s\n", p.URL())
		}
		return
	}

	cmd, err := parseCommand(flag.Args())
	if err != nil {
		fail(err)
	}

	url := flagURL
	if url == "" {
		url, err = findPlayer(flagName, flagWait)
		if err != nil {
			fail(err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client, err := control.Dial(ctx, url)
	if err != nil {
		fail(err)
	}
	defer client.Close()

	state, err := client.Do(ctx, cmd.Type, cmd.Payload)
	if err != nil {
		fail(err)
	}
	color.New(color.FgGreen).Print("ok ")
	fmt.Println(formatState(state))

	if !flagWatch {
		return
	}
	// The reply was also delivered as a push
	select {
	case <-client.States:
	default:
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-client.Done():
			fail(control.ErrClosed)
		case state := <-client.States:
			fmt.Println(formatState(state))
		}
	}
}

// discover browses for wait and returns each player once
func discover(wait time.Duration) []*discovery.PlayerInfo {
	manager := discovery.NewManager(discovery.Config{})
	defer manager.Stop()

	if err := manager.Browse(); err != nil {
		fail(err)
	}

	seen := make(map[string]bool)
	var players []*discovery.PlayerInfo
	timeout := time.After(wait)
	for {
		select {
		case p := <-manager.Players():
			if !seen[p.URL()] {
				seen[p.URL()] = true
				players = append(players, p)
			}
		case <-timeout:
			return players
		}
	}
}

// findPlayer picks the player to control, by name when one is given
func findPlayer(name string, wait time.Duration) (string, error) {
	players := discover(wait)
	for _, p := range players {
		if name == "" || p.Name == name || p.Name == name+"."+discovery.ServiceType+".local." {
			return p.URL(), nil
		}
	}
	if name != "" {
		return "", fmt.Errorf("player %q not found", name)
	}
	return "", fmt.Errorf("no players found")
}

func fail(err error) {
	color.New(color.FgRed).Fprint(os.Stderr, "error: ")
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
