// ABOUTME: NetworkTables 4 client package
// ABOUTME: Boolean publish/subscribe over the NT4 WebSocket protocol
// Package nt implements a small NetworkTables 4 client.
//
// The client connects in the background, redials after transport loss, and
// surfaces boolean topics only. Change callbacks are delivered in order from a
// single goroutine.
//
// Example:
//
//	client := nt.NewClient(nt.Config{ServerAddr: "localhost", Name: "Tone App"})
//	client.Start()
//	client.SetBoolean(nt.TopicName("tone", "search"), false)
//	client.WatchBoolean("/tone/search", func(name string, on bool) {
//	    log.Printf("%s -> %v", name, on)
//	})
package nt
