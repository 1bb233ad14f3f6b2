package broadcast

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/shaneah/infyemailer-sub010/internal/domain"
	"github.com/shaneah/infyemailer-sub010/internal/metrics"
)

const (
	commandTimeout = 5 * time.Second
	stopTimeout    = 10 * time.Second
)

// client is one registered subscriber. The id only exists for log lines.
type client struct {
	id     uuid.UUID
	writer *clientWriter
}

// broadcasterCmd is the command interface for the Broadcaster actor.
type broadcasterCmd interface{ isBroadcasterCmd() }

type baseBroadcasterCmd struct{}

func (baseBroadcasterCmd) isBroadcasterCmd() {}

type registerCmd struct {
	baseBroadcasterCmd
	connection   *websocket.Conn
	snapshotFn   func() domain.Snapshot
	errorChannel chan error
}

type unregisterCmd struct {
	baseBroadcasterCmd
	connection *websocket.Conn
}

type publishCmd struct {
	baseBroadcasterCmd
	data []byte
}

type clientCountCmd struct {
	baseBroadcasterCmd
	replyChannel chan int
}

type stopCmd struct {
	baseBroadcasterCmd
}

// Broadcaster owns the subscriber registry and fans full metrics snapshots
// out to every open connection whenever the state changes.
type Broadcaster struct {
	cmdCh   chan broadcasterCmd
	clock   clockwork.Clock
	clients map[*websocket.Conn]client
	done    chan struct{}
}

// NewBroadcaster creates a broadcaster and starts its actor goroutine.
func NewBroadcaster(clock clockwork.Clock) *Broadcaster {
	b := &Broadcaster{
		cmdCh:   make(chan broadcasterCmd, 256),
		clock:   clock,
		clients: make(map[*websocket.Conn]client),
		done:    make(chan struct{}),
	}
	go b.run()
	return b
}

// Register adds a connection to the registry and immediately queues the
// current snapshot to it, so late joiners are never stale. snapshotFn is
// evaluated by the actor goroutine when it processes the registration, after
// any broadcasts already in the queue, so the joiner cannot miss a mutation
// that happened between the caller's decision to register and the actor
// picking it up. The snapshot goes only to the new connection; existing
// subscribers see nothing.
func (b *Broadcaster) Register(conn *websocket.Conn, snapshotFn func() domain.Snapshot) error {
	errCh := make(chan error, 1)
	b.cmdCh <- registerCmd{connection: conn, snapshotFn: snapshotFn, errorChannel: errCh}

	// Use timeout to prevent blocking forever if the broadcaster is stuck
	timer := b.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case err := <-errCh:
		return err
	case <-timer.Chan():
		return fmt.Errorf("register command timed out after %v", commandTimeout)
	}
}

// Unregister removes a connection from the registry and stops its writer.
// This is the only removal path; broadcasts never deregister a connection.
func (b *Broadcaster) Unregister(conn *websocket.Conn) {
	b.cmdCh <- unregisterCmd{connection: conn}
}

// Publish serializes the snapshot once and fans it out to all open
// connections. A send failure or full buffer on one connection does not
// affect delivery to the rest.
func (b *Broadcaster) Publish(snapshot domain.Snapshot) {
	data, err := encodeSnapshot(snapshot)
	if err != nil {
		slog.Error("Failed to marshal broadcast message", "error", err)
		return
	}
	b.cmdCh <- publishCmd{data: data}
}

// ClientCount returns the number of registered connections.
// Returns -1 if the command times out.
func (b *Broadcaster) ClientCount() int {
	replyCh := make(chan int, 1)
	b.cmdCh <- clientCountCmd{replyChannel: replyCh}

	timer := b.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-timer.Chan():
		slog.Warn("ClientCount timed out", "timeout", commandTimeout)
		return -1
	}
}

// Stop shuts the broadcaster down, closing all client connections.
// Blocks until the actor goroutine has exited or the timeout is reached.
func (b *Broadcaster) Stop() {
	b.cmdCh <- stopCmd{}

	timer := b.clock.NewTimer(stopTimeout)
	defer timer.Stop()

	select {
	case <-b.done:
		slog.Info("Broadcaster stopped gracefully")
	case <-timer.Chan():
		slog.Warn("Broadcaster stop timeout exceeded, forcing exit", "timeout", stopTimeout)
		metrics.BroadcasterStopTimeoutsTotal.Inc()
	}
}

func (b *Broadcaster) run() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Broadcaster panic recovered", "panic", r)
			b.closeAllClients("broadcaster panic")
		}
	}()
	defer close(b.done)

	for cmd := range b.cmdCh {
		switch c := cmd.(type) {
		case registerCmd:
			b.handleRegister(c)
		case unregisterCmd:
			b.handleUnregister(c)
		case publishCmd:
			b.handlePublish(c)
		case clientCountCmd:
			c.replyChannel <- len(b.clients)
		case stopCmd:
			b.handleStop()
			return
		default:
			slog.Warn("Broadcaster received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
		}
	}
}

func (b *Broadcaster) handleRegister(c registerCmd) {
	data, err := encodeSnapshot(c.snapshotFn())
	if err != nil {
		c.errorChannel <- fmt.Errorf("encode snapshot: %w", err)
		return
	}

	cl := client{id: uuid.New(), writer: newClientWriter(c.connection, b.clock)}
	b.clients[c.connection] = cl

	// On-connect snapshot, before any subsequent broadcast reaches this client
	if !cl.writer.enqueue(data) {
		metrics.BroadcasterDroppedMessagesTotal.Inc()
	}

	metrics.BroadcasterConnectedClients.Set(float64(len(b.clients)))
	slog.Debug("Subscriber registered", "client_id", cl.id.String(), "total_clients", len(b.clients))
	c.errorChannel <- nil
}

func (b *Broadcaster) handleUnregister(c unregisterCmd) {
	cl, exists := b.clients[c.connection]
	if !exists {
		return
	}

	cl.writer.stop()
	delete(b.clients, c.connection)

	metrics.BroadcasterConnectedClients.Set(float64(len(b.clients)))
	slog.Debug("Subscriber unregistered", "client_id", cl.id.String(), "remaining_clients", len(b.clients))
}

func (b *Broadcaster) handlePublish(c publishCmd) {
	metrics.BroadcasterBroadcastsTotal.Inc()

	for _, cl := range b.clients {
		if !cl.writer.enqueue(c.data) {
			// Full snapshot messages are self-superseding, so a slow client
			// just misses this one. Removal only happens on close/error.
			metrics.BroadcasterDroppedMessagesTotal.Inc()
			slog.Debug("Dropped snapshot for slow subscriber", "client_id", cl.id.String())
		}
	}
}

func (b *Broadcaster) handleStop() {
	slog.Info("Broadcaster shutting down", "connected_clients", len(b.clients))
	b.closeAllClients("Server shutting down")
}

func (b *Broadcaster) closeAllClients(reason string) {
	for conn, cl := range b.clients {
		cl.writer.stopGraceful(reason)
		delete(b.clients, conn)
	}
	metrics.BroadcasterConnectedClients.Set(0)
}
