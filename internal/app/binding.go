// ABOUTME: Entry-to-clip binding
// ABOUTME: Maps each boolean notification directly onto loop or stop
package app

import "log"

// Binding ties one table topic to one clip
type Binding struct {
	Topic   string
	Clip    Clip
	Logger  *log.Logger
	OnEntry func(topic string, on bool)
}

// OnChange is the watch callback for the bound topic
func (b *Binding) OnChange(name string, value bool) {
	b.Apply(value)
}

// Apply sets the clip to match value: true loops it, false stops it.
// Every notification is applied, repeated values are harmless.
func (b *Binding) Apply(value bool) {
	name := b.Topic
	logger := b.Logger
	if logger == nil {
		logger = log.Default()
	}

	var err error
	if value {
		logger.Printf("%s on", name)
		err = b.Clip.Loop()
	} else {
		logger.Printf("%s off", name)
		err = b.Clip.Stop()
	}
	if err != nil {
		logger.Printf("%s: playback error: %v", name, err)
	}

	if b.OnEntry != nil {
		b.OnEntry(name, value)
	}
}
