// ABOUTME: Periodic connection status reporting
// ABOUTME: Logs connected / not connected on a fixed interval until cancelled
package app

import (
	"context"
	"log"
	"time"
)

// StatusText is the log line for a connection state
func StatusText(connected bool) string {
	if connected {
		return "connected"
	}
	return "not connected"
}

// StatusLoop logs the connection state immediately and then every interval
// until ctx is done. onStatus may be nil.
func StatusLoop(ctx context.Context, interval time.Duration, isConnected func() bool, logger *log.Logger, onStatus func(connected bool)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		connected := isConnected()
		logger.Println(StatusText(connected))
		if onStatus != nil {
			onStatus(connected)
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}
