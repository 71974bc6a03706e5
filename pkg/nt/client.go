// ABOUTME: WebSocket client for NetworkTables 4
// ABOUTME: Handles connection, reconnection, publish/subscribe and ordered change notification
package nt

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	clocksync "github.com/Resonate-Protocol/tone-go/internal/sync"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// DefaultPort is the NT4 WebSocket port
	DefaultPort = 5810

	DefaultReconnectDelay   = time.Second
	DefaultTimeSyncInterval = 3 * time.Second

	Subprotocol41 = "v4.1.networktables.first.wpi.edu"
	Subprotocol40 = "networktables.first.wpi.edu"

	handshakeTimeout = 5 * time.Second
	writeTimeout     = 5 * time.Second
)

// Config holds client configuration
type Config struct {
	// ServerAddr is a host, optionally with a port (default 5810)
	ServerAddr string

	// Name identifies this client to the server
	Name string

	// ReconnectDelay is the wait between connection attempts
	ReconnectDelay time.Duration

	// TimeSyncInterval is how often timestamps are exchanged while connected
	TimeSyncInterval time.Duration
}

// topic is the client-side state for one named entry
type topic struct {
	name   string
	pubUID int64 // 0 until published
	subUID int64 // 0 until subscribed

	// latest value seen locally or from the server
	value    bool
	hasValue bool

	// last value written by this client; the only value replayed on reconnect
	written    bool
	hasWritten bool

	listeners []func(name string, value bool)
}

// event is one pending listener invocation
type event struct {
	fn    func(name string, value bool)
	topic string
	value bool
}

// Client is a NetworkTables 4 client for boolean topics.
//
// Listener callbacks run on a single dispatcher goroutine in the order updates
// were observed, so callbacks never run concurrently with each other.
type Client struct {
	config Config
	clock  *clocksync.ClockSync

	mu        sync.RWMutex
	conn      *websocket.Conn
	connected bool
	topics    map[string]*topic
	ids       map[int64]string // server topic id -> name
	nextUID   int64

	// serializes frames on conn; acquired after mu, never before
	writeMu sync.Mutex

	queueMu sync.Mutex
	queue   []event
	wake    chan struct{}

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startOnce sync.Once
}

// NewClient creates a new NT4 client. Nothing happens on the network until Start.
func NewClient(config Config) *Client {
	if config.ServerAddr == "" {
		config.ServerAddr = "localhost"
	}
	if config.Name == "" {
		config.Name = "tone-" + uuid.New().String()[:8]
	}
	if config.ReconnectDelay <= 0 {
		config.ReconnectDelay = DefaultReconnectDelay
	}
	if config.TimeSyncInterval <= 0 {
		config.TimeSyncInterval = DefaultTimeSyncInterval
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		config: config,
		clock:  clocksync.NewClockSync(),
		topics: make(map[string]*topic),
		ids:    make(map[int64]string),
		wake:   make(chan struct{}, 1),
		ctx:    ctx,
		cancel: cancel,
	}
}

// TopicName joins a table and entry into a topic name, e.g. "/tone/search"
func TopicName(table, entry string) string {
	return "/" + table + "/" + entry
}

// Start begins connecting in the background and returns immediately.
// The client redials after every transport loss until Close.
func (c *Client) Start() {
	c.startOnce.Do(func() {
		c.wg.Add(2)
		go c.dispatch()
		go c.run()
	})
}

// Close stops the client and waits for its goroutines
func (c *Client) Close() {
	c.cancel()
	c.wg.Wait()
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// ServerURL returns the WebSocket URL the client dials
func (c *Client) ServerURL() string {
	host := c.config.ServerAddr
	if _, _, err := net.SplitHostPort(host); err != nil {
		host = net.JoinHostPort(host, strconv.Itoa(DefaultPort))
	}
	u := url.URL{Scheme: "ws", Host: host, Path: "/nt/" + c.config.Name}
	return u.String()
}

// ClockStats returns the server clock offset, last RTT and sync quality
func (c *Client) ClockStats() (offset, rtt int64, quality clocksync.Quality) {
	return c.clock.GetStats()
}

// SetBoolean writes a boolean value to a topic, publishing it first if needed.
// While disconnected the value is kept and sent on the next connection.
// Listeners on the topic are notified of the local write.
func (c *Client) SetBoolean(name string, value bool) error {
	c.mu.Lock()
	t := c.topicLocked(name)

	var publish []outMessage
	if t.pubUID == 0 {
		c.nextUID++
		t.pubUID = c.nextUID
		publish = append(publish, publishMessage(name, t.pubUID, TypeBoolean))
	}
	t.value = value
	t.hasValue = true
	t.written = value
	t.hasWritten = true
	c.enqueueLocked(t)

	conn := c.conn
	pubUID := t.pubUID
	c.mu.Unlock()

	c.notify()

	if conn == nil {
		return nil
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if len(publish) > 0 {
		if err := c.writeTextLocked(conn, publish); err != nil {
			return fmt.Errorf("failed to publish %s: %w", name, err)
		}
	}

	if err := c.writeValuesLocked(conn, c.booleanValue(pubUID, value)); err != nil {
		return fmt.Errorf("failed to send %s: %w", name, err)
	}

	return nil
}

// WatchBoolean registers fn for every update to a boolean topic, local or remote.
// If the topic already holds a value, fn is called with it first.
func (c *Client) WatchBoolean(name string, fn func(name string, value bool)) error {
	c.mu.Lock()
	t := c.topicLocked(name)
	t.listeners = append(t.listeners, fn)

	var subscribe []outMessage
	if t.subUID == 0 {
		c.nextUID++
		t.subUID = c.nextUID
		subscribe = append(subscribe, subscribeMessage(name, t.subUID))
	}
	if t.hasValue {
		c.pushLocked(event{fn: fn, topic: name, value: t.value})
	}

	conn := c.conn
	c.mu.Unlock()

	c.notify()

	if conn == nil || len(subscribe) == 0 {
		return nil
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.writeTextLocked(conn, subscribe); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", name, err)
	}
	return nil
}

// topicLocked returns the topic state for name, creating it. Caller holds mu.
func (c *Client) topicLocked(name string) *topic {
	t, ok := c.topics[name]
	if !ok {
		t = &topic{name: name}
		c.topics[name] = t
	}
	return t
}

// enqueueLocked queues the topic's current value for every listener. Caller holds mu.
func (c *Client) enqueueLocked(t *topic) {
	for _, fn := range t.listeners {
		c.pushLocked(event{fn: fn, topic: t.name, value: t.value})
	}
}

func (c *Client) pushLocked(ev event) {
	c.queueMu.Lock()
	c.queue = append(c.queue, ev)
	c.queueMu.Unlock()
}

func (c *Client) notify() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// dispatch delivers queued events one at a time
func (c *Client) dispatch() {
	defer c.wg.Done()

	for {
		select {
		case <-c.wake:
		case <-c.ctx.Done():
			return
		}

		for {
			c.queueMu.Lock()
			if len(c.queue) == 0 {
				c.queueMu.Unlock()
				break
			}
			ev := c.queue[0]
			c.queue = c.queue[1:]
			c.queueMu.Unlock()

			ev.fn(ev.topic, ev.value)
		}
	}
}

// run keeps a session open until Close
func (c *Client) run() {
	defer c.wg.Done()

	for {
		if err := c.session(); err != nil && c.ctx.Err() == nil {
			log.Printf("NetworkTables %s: %v", c.config.ServerAddr, err)
		}

		select {
		case <-c.ctx.Done():
			return
		case <-time.After(c.config.ReconnectDelay):
		}
	}
}

// session dials, handshakes and reads until the transport fails
func (c *Client) session() error {
	dialer := websocket.Dialer{
		Subprotocols:     []string{Subprotocol41, Subprotocol40},
		HandshakeTimeout: handshakeTimeout,
	}

	conn, _, err := dialer.DialContext(c.ctx, c.ServerURL(), nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	done := make(chan struct{})
	defer close(done)

	// unblock the reader when the client is closed
	go func() {
		select {
		case <-c.ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	c.clock.Reset()

	if err := c.handshake(conn); err != nil {
		c.disconnect(conn)
		return fmt.Errorf("handshake failed: %w", err)
	}

	log.Printf("Connected to NetworkTables server %s as %q (%s)",
		c.config.ServerAddr, c.config.Name, conn.Subprotocol())

	go c.timeSyncLoop(conn, done)

	err = c.readMessages(conn)
	c.disconnect(conn)

	return err
}

// handshake marks the session live and replays every publish, subscribe and
// locally written value. Values received from the server are never written back.
func (c *Client) handshake(conn *websocket.Conn) error {
	c.mu.Lock()

	topics := make([]*topic, 0, len(c.topics))
	for _, t := range c.topics {
		topics = append(topics, t)
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i].name < topics[j].name })

	var msgs []outMessage
	var values []BinaryValue
	for _, t := range topics {
		if t.pubUID != 0 {
			msgs = append(msgs, publishMessage(t.name, t.pubUID, TypeBoolean))
			if t.hasWritten {
				values = append(values, c.booleanValue(t.pubUID, t.written))
			}
		}
		if t.subUID != 0 {
			msgs = append(msgs, subscribeMessage(t.name, t.subUID))
		}
	}

	c.conn = conn
	c.connected = true
	c.ids = make(map[int64]string)

	// hold writes until the replay is out so later SetBoolean calls land after it
	c.writeMu.Lock()
	c.mu.Unlock()
	defer c.writeMu.Unlock()

	if err := c.writeValuesLocked(conn, timeSyncRequest()); err != nil {
		return err
	}
	if len(msgs) > 0 {
		if err := c.writeTextLocked(conn, msgs); err != nil {
			return err
		}
	}
	if len(values) > 0 {
		if err := c.writeValuesLocked(conn, values...); err != nil {
			return err
		}
	}

	return nil
}

// disconnect tears down conn if it is still the live session
func (c *Client) disconnect(conn *websocket.Conn) {
	c.mu.Lock()
	wasLive := c.conn == conn
	if wasLive {
		c.conn = nil
		c.connected = false
		c.ids = make(map[int64]string)
	}
	c.mu.Unlock()

	conn.Close()
	if wasLive {
		log.Printf("Disconnected from NetworkTables server %s", c.config.ServerAddr)
	}
}

// timeSyncLoop periodically exchanges timestamps with the server
func (c *Client) timeSyncLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(c.config.TimeSyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.writeMu.Lock()
			err := c.writeValuesLocked(conn, timeSyncRequest())
			c.writeMu.Unlock()
			if err != nil {
				log.Printf("Time sync send failed: %v", err)
				return
			}
			if quality := c.clock.CheckQuality(); quality == clocksync.QualityLost {
				log.Printf("Clock sync lost with %s", c.config.ServerAddr)
			}

		case <-done:
			return
		case <-c.ctx.Done():
			return
		}
	}
}

// readMessages reads and routes incoming frames
func (c *Client) readMessages(conn *websocket.Conn) error {
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read failed: %w", err)
		}

		switch messageType {
		case websocket.TextMessage:
			c.handleText(data)
		case websocket.BinaryMessage:
			c.handleBinary(data)
		default:
			log.Printf("Unknown WebSocket message type: %d", messageType)
		}
	}
}

// handleText routes JSON control messages
func (c *Client) handleText(data []byte) {
	var msgs []Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		log.Printf("Failed to parse text frame: %v", err)
		return
	}

	for _, msg := range msgs {
		switch msg.Method {
		case MethodAnnounce:
			var p AnnounceParams
			if err := json.Unmarshal(msg.Params, &p); err != nil {
				log.Printf("Failed to parse announce: %v", err)
				continue
			}
			c.mu.Lock()
			c.ids[p.ID] = p.Name
			c.mu.Unlock()
			log.Printf("Topic announced: %s (id=%d, type=%s)", p.Name, p.ID, p.Type)

		case MethodUnannounce:
			var p UnannounceParams
			if err := json.Unmarshal(msg.Params, &p); err != nil {
				log.Printf("Failed to parse unannounce: %v", err)
				continue
			}
			c.mu.Lock()
			delete(c.ids, p.ID)
			c.mu.Unlock()
			log.Printf("Topic unannounced: %s (id=%d)", p.Name, p.ID)

		case MethodProperties:
			// topic properties carry nothing a boolean listener needs

		default:
			log.Printf("Unknown message method: %s", msg.Method)
		}
	}
}

// handleBinary applies value updates and time sync replies
func (c *Client) handleBinary(data []byte) {
	values, err := DecodeValues(data)
	if err != nil {
		log.Printf("Failed to decode binary frame: %v", err)
		// values decoded before the error are still applied
	}

	notified := false
	for _, v := range values {
		if v.ID == TimeSyncID {
			if sent, ok := toInt64(v.Value); ok {
				c.clock.ProcessTimestamp(sent, v.Timestamp, clocksync.ClientMicros())
			}
			continue
		}

		c.mu.Lock()
		name, ok := c.ids[v.ID]
		t := c.topics[name]
		if !ok || t == nil || t.subUID == 0 {
			c.mu.Unlock()
			continue
		}

		b, isBool := v.Value.(bool)
		if v.Type != TypeIDBoolean || !isBool {
			c.mu.Unlock()
			log.Printf("Ignoring non-boolean value for %s (type %d)", name, v.Type)
			continue
		}

		t.value = b
		t.hasValue = true
		c.enqueueLocked(t)
		c.mu.Unlock()
		notified = true
	}

	if notified {
		c.notify()
	}
}

// booleanValue stamps value with server time, or 0 ("use server time")
// until the clock has synced
func (c *Client) booleanValue(pubUID int64, value bool) BinaryValue {
	return BinaryValue{
		ID:        pubUID,
		Timestamp: c.clock.ServerMicros(clocksync.ClientMicros()),
		Type:      TypeIDBoolean,
		Value:     value,
	}
}

func timeSyncRequest() BinaryValue {
	return BinaryValue{
		ID:        TimeSyncID,
		Timestamp: 0,
		Type:      TypeIDInt,
		Value:     clocksync.ClientMicros(),
	}
}

// writeTextLocked sends a text frame. Caller holds writeMu.
func (c *Client) writeTextLocked(conn *websocket.Conn, msgs []outMessage) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(msgs)
}

// writeValuesLocked sends a binary frame. Caller holds writeMu.
func (c *Client) writeValuesLocked(conn *websocket.Conn, values ...BinaryValue) error {
	data, err := EncodeValues(values...)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.BinaryMessage, data)
}
