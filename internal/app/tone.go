// ABOUTME: Tone application orchestration
// ABOUTME: Loads clips, binds them to table entries and reports connection status
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Resonate-Protocol/tone-go/pkg/nt"
)

const (
	DefaultTable          = "tone"
	DefaultStatusInterval = 2 * time.Second
)

// DefaultEntries are the boolean entries watched in the table
var DefaultEntries = []string{"search", "lock"}

// Clip is a sound that can be looped or stopped
type Clip interface {
	Loop() error
	Stop() error
}

// TableClient is the connection to the table service. *nt.Client satisfies it.
type TableClient interface {
	Start()
	IsConnected() bool
	SetBoolean(name string, value bool) error
	WatchBoolean(name string, fn func(name string, value bool)) error
}

// Config holds application configuration
type Config struct {
	Client  TableClient
	Table   string
	Entries []string

	// LoadClip loads the sound for an entry name
	LoadClip func(entry string) (Clip, error)

	StatusInterval time.Duration
	Logger         *log.Logger

	// Optional observers, e.g. for a status display
	OnEntry  func(topic string, on bool)
	OnStatus func(connected bool)
}

// Tone plays a looping clip for every table entry that is true
type Tone struct {
	config      Config
	logger      *log.Logger
	bindings    []*Binding
	initialized bool
}

// New creates the application and loads one clip per entry.
// A load failure leaves the application uninitialized; Run then exits early.
func New(config Config) *Tone {
	if config.Table == "" {
		config.Table = DefaultTable
	}
	if len(config.Entries) == 0 {
		config.Entries = DefaultEntries
	}
	if config.StatusInterval <= 0 {
		config.StatusInterval = DefaultStatusInterval
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}

	t := &Tone{
		config: config,
		logger: config.Logger,
	}

	if err := t.load(); err != nil {
		t.logger.Printf("%v", err)
		t.bindings = nil
		return t
	}
	t.initialized = true

	return t
}

func (t *Tone) load() error {
	if t.config.LoadClip == nil {
		return fmt.Errorf("no clip loader configured")
	}

	for _, entry := range t.config.Entries {
		clip, err := t.config.LoadClip(entry)
		if err != nil {
			return fmt.Errorf("failed to load clip for %s: %w", entry, err)
		}
		t.bindings = append(t.bindings, &Binding{
			Topic:   nt.TopicName(t.config.Table, entry),
			Clip:    clip,
			Logger:  t.logger,
			OnEntry: t.config.OnEntry,
		})
	}

	return nil
}

// Initialized reports whether every clip loaded
func (t *Tone) Initialized() bool {
	return t.initialized
}

// Bindings returns the entry-to-clip bindings
func (t *Tone) Bindings() []*Binding {
	return t.bindings
}

// Run connects, seeds every entry with false, binds the clips and then logs
// connection status until ctx is done
func (t *Tone) Run(ctx context.Context) error {
	if !t.initialized {
		t.logger.Println("initialization failed, exiting")
		return nil
	}
	if t.config.Client == nil {
		return fmt.Errorf("no table client configured")
	}

	t.logger.Println("running")

	client := t.config.Client
	client.Start()

	// the entries must exist before anything else can toggle them
	for _, b := range t.bindings {
		if err := client.SetBoolean(b.Topic, false); err != nil {
			t.logger.Printf("failed to initialize %s: %v", b.Topic, err)
		}
	}

	for _, b := range t.bindings {
		if err := client.WatchBoolean(b.Topic, b.OnChange); err != nil {
			t.logger.Printf("failed to watch %s: %v", b.Topic, err)
		}
	}

	t.logger.Println("entering loop")

	StatusLoop(ctx, t.config.StatusInterval, client.IsConnected, t.logger, t.config.OnStatus)

	return nil
}
