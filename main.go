// ABOUTME: Entry point for the tone app
// ABOUTME: Parses CLI flags, wires audio, table client and optional TUI
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Resonate-Protocol/tone-go/internal/app"
	"github.com/Resonate-Protocol/tone-go/internal/discovery"
	"github.com/Resonate-Protocol/tone-go/internal/sounds"
	"github.com/Resonate-Protocol/tone-go/internal/ui"
	"github.com/Resonate-Protocol/tone-go/internal/version"
	"github.com/Resonate-Protocol/tone-go/pkg/audio/output"
	"github.com/Resonate-Protocol/tone-go/pkg/nt"
	tea "github.com/charmbracelet/bubbletea"
)

var (
	serverAddr  = flag.String("server", "localhost", "NetworkTables server host, optionally host:port")
	name        = flag.String("name", "Tone App", "Client name reported to the server")
	discover    = flag.Bool("discover", false, "Find the server via mDNS before falling back to -server")
	logFile     = flag.String("log-file", "tone.log", "Log file path")
	useTUI      = flag.Bool("tui", false, "Show a status TUI instead of streaming logs")
	volume      = flag.Int("volume", 100, "Clip volume (0-100)")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if *useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		// Streaming logs mode: log to both stdout and file
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	address := *serverAddr
	if *discover {
		disc := discovery.NewManager(discovery.Config{})
		server, err := disc.FindServer(ctx, 10*time.Second)
		if err != nil {
			log.Printf("Discovery failed, using %s: %v", address, err)
		} else {
			address = server.Address()
			log.Printf("Discovered server at %s", address)
		}
	}

	// A missing device surfaces as a resource error when the clips load
	var device output.Device
	if oto, err := output.OpenOto(output.DefaultSampleRate, output.DefaultChannels); err != nil {
		log.Printf("Audio output unavailable: %v", err)
	} else {
		device = oto
	}

	var clips []*output.Clip
	loadClip := func(entry string) (app.Clip, error) {
		clip, err := output.LoadClip(device, sounds.FS(), sounds.Path(entry))
		if err != nil {
			return nil, err
		}
		clip.SetVolume(*volume)
		clips = append(clips, clip)
		return clip, nil
	}

	client := nt.NewClient(nt.Config{
		ServerAddr: address,
		Name:       *name,
	})
	defer client.Close()

	// TUI setup
	var tuiProg *tea.Program
	var volumeCtrl *ui.VolumeControl

	if *useTUI {
		topics := make([]string, 0, len(app.DefaultEntries))
		for _, entry := range app.DefaultEntries {
			topics = append(topics, nt.TopicName(app.DefaultTable, entry))
		}

		volumeCtrl = ui.NewVolumeControl()
		tuiProg, err = ui.Run(volumeCtrl, *volume, topics)
		if err != nil {
			log.Fatalf("Failed to start TUI: %v", err)
		}
		go func() {
			if _, err := tuiProg.Run(); err != nil {
				log.Printf("TUI error: %v", err)
			}
			cancel()
		}()
		defer tuiProg.Quit()
	}

	// Helper to update TUI
	updateTUI := func(msg tea.Msg) {
		if tuiProg != nil {
			tuiProg.Send(msg)
		}
	}

	tone := app.New(app.Config{
		Client:   client,
		LoadClip: loadClip,
		Logger:   log.Default(),
		OnEntry: func(topic string, on bool) {
			updateTUI(ui.EntryMsg{Topic: topic, On: on})
		},
		OnStatus: func(connected bool) {
			_, rtt, quality := client.ClockStats()
			updateTUI(ui.StatusMsg{
				Connected:   &connected,
				ServerAddr:  client.ServerURL(),
				SyncRTT:     rtt,
				SyncQuality: quality,
			})
		},
	})

	if volumeCtrl != nil {
		go handleVolumeControl(ctx, clips, volumeCtrl)
	}

	if err := tone.Run(ctx); err != nil {
		log.Printf("Tone error: %v", err)
	}

	for _, clip := range clips {
		_ = clip.Stop()
	}
}

// handleVolumeControl applies volume changes from the TUI to every clip
func handleVolumeControl(ctx context.Context, clips []*output.Clip, volumeCtrl *ui.VolumeControl) {
	for {
		select {
		case vol := <-volumeCtrl.Changes:
			log.Printf("Volume change: %d%%", vol.Volume)
			for _, clip := range clips {
				clip.SetVolume(vol.Volume)
			}
		case <-ctx.Done():
			return
		}
	}
}
