// mockstation is a stand-in for the ground-station backend: it serves
// the same health endpoint and WebSocket command set, and streams
// synthetic telemetry for any port a client opens. Useful for testing
// groundlink without a flight computer on the bench.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"groundlink/internal/log"
)

var activeConnections atomic.Int32

// fakePorts are the serial devices the mock pretends to have.
var fakePorts = []map[string]string{
	{"port": "/dev/ttyUSB0", "description": "Flight computer (mock)", "hwid": "USB VID:PID=10C4:EA60"},
	{"port": "/dev/ttyACM0", "description": "GPS module (mock)", "hwid": "USB VID:PID=1546:01A8"},
}

// clientConn is one WebSocket session with its open ports and feeds.
type clientConn struct {
	conn *websocket.Conn
	rate int

	writeMu sync.Mutex

	mu    sync.Mutex
	feeds map[string]context.CancelFunc // port -> feed stop
	baud  map[string]int
}

func (c *clientConn) send(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *clientConn) push(msgType string, data any, port string) error {
	return c.send(map[string]any{"type": msgType, "data": data, "port": port})
}

func (c *clientConn) respond(id, command string, data any) error {
	return c.send(map[string]any{
		"id": id, "type": "response", "command": command,
		"success": true, "data": data,
	})
}

func (c *clientConn) fail(id, command, msg string) error {
	return c.send(map[string]any{
		"id": id, "type": "response", "command": command,
		"success": false, "error": msg,
	})
}

func (c *clientConn) isOpen(port string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.feeds[port]
	return ok
}

func (c *clientConn) openPort(ctx context.Context, port string, baud int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.feeds[port]; ok {
		return false
	}
	feedCtx, cancel := context.WithCancel(ctx)
	c.feeds[port] = cancel
	c.baud[port] = baud
	go c.runFeed(feedCtx, port, c.rate)
	return true
}

func (c *clientConn) closePort(port string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	cancel, ok := c.feeds[port]
	if !ok {
		return false
	}
	cancel()
	delete(c.feeds, port)
	delete(c.baud, port)
	return true
}

func (c *clientConn) closeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for port, cancel := range c.feeds {
		cancel()
		delete(c.feeds, port)
		delete(c.baud, port)
	}
}

func knownPort(port string) bool {
	for _, p := range fakePorts {
		if p["port"] == port {
			return true
		}
	}
	return false
}

type request struct {
	ID       string `json:"id"`
	Command  string `json:"command"`
	Port     string `json:"port"`
	BaudRate int    `json:"baudrate"`
	Data     string `json:"data"`
	NumBytes int    `json:"num_bytes"`
}

func (c *clientConn) handle(ctx context.Context, req *request) {
	switch req.Command {
	case "list_ports":
		c.respond(req.ID, req.Command, fakePorts)

	case "open_port":
		if !knownPort(req.Port) {
			c.fail(req.ID, req.Command, fmt.Sprintf("no such port: %s", req.Port))
			return
		}
		if !c.openPort(ctx, req.Port, req.BaudRate) {
			c.fail(req.ID, req.Command, fmt.Sprintf("port already open: %s", req.Port))
			return
		}
		log.Info("port opened", "port", req.Port, "baudrate", req.BaudRate)
		c.respond(req.ID, req.Command, nil)

	case "close_port":
		if !c.closePort(req.Port) {
			c.fail(req.ID, req.Command, fmt.Sprintf("port not open: %s", req.Port))
			return
		}
		log.Info("port closed", "port", req.Port)
		c.respond(req.ID, req.Command, nil)

	case "close_all_ports":
		c.closeAll()
		c.respond(req.ID, req.Command, nil)

	case "is_port_open":
		c.respond(req.ID, req.Command, c.isOpen(req.Port))

	case "write_port", "write_port_line":
		if !c.isOpen(req.Port) {
			c.fail(req.ID, req.Command, fmt.Sprintf("port not open: %s", req.Port))
			return
		}
		// Echo back over the console channel, the way the flight
		// computer acknowledges commands.
		c.push("console_data", "ack: "+req.Data, req.Port)
		c.respond(req.ID, req.Command, nil)

	case "read_port", "read_port_line":
		if !c.isOpen(req.Port) {
			c.fail(req.ID, req.Command, fmt.Sprintf("port not open: %s", req.Port))
			return
		}
		c.respond(req.ID, req.Command, feedSerialLine(0))

	case "get_port_info":
		if !c.isOpen(req.Port) {
			c.fail(req.ID, req.Command, fmt.Sprintf("port not open: %s", req.Port))
			return
		}
		c.mu.Lock()
		baud := c.baud[req.Port]
		c.mu.Unlock()
		c.respond(req.ID, req.Command, map[string]any{
			"port": req.Port, "baudrate": baud, "is_open": true,
		})

	default:
		c.fail(req.ID, req.Command, fmt.Sprintf("unknown command: %s", req.Command))
	}
}

func handleClient(conn *websocket.Conn, rate int) {
	activeConnections.Add(1)
	defer activeConnections.Add(-1)
	log.Info("client connected", "remote", conn.RemoteAddr())

	c := &clientConn{
		conn:  conn,
		rate:  rate,
		feeds: make(map[string]context.CancelFunc),
		baud:  make(map[string]int),
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer c.closeAll()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			log.Info("client disconnected", "remote", conn.RemoteAddr())
			return
		}
		var req request
		if err := json.Unmarshal(raw, &req); err != nil {
			log.Warn("bad frame", "error", err)
			continue
		}
		if req.ID == "" || req.Command == "" {
			log.Warn("frame without id or command")
			continue
		}
		c.handle(ctx, &req)
	}
}

func main() {
	addr := flag.String("addr", ":8000", "Listen address")
	rate := flag.Int("rate", 20, "Telemetry rate in Hz")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	level := "info"
	if *debug {
		level = "debug"
	}
	log.Init(level)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":             "healthy",
			"active_connections": activeConnections.Load(),
		})
	})

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(func(conn *websocket.Conn) {
		handleClient(conn, *rate)
	}))

	fmt.Printf("🛰  mockstation listening on %s (telemetry %d Hz)\n", *addr, *rate)
	if err := app.Listen(*addr); err != nil {
		log.Error("listen", "error", err)
	}
}
