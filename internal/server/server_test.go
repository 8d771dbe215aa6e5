package server

import (
	"bufio"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/life-stream-dev/life-stream-go-chat-relay/internal/chat"
	"github.com/life-stream-dev/life-stream-go-chat-relay/internal/config"
	"github.com/life-stream-dev/life-stream-go-chat-relay/internal/transcript"
	"golang.org/x/crypto/bcrypt"
)

const waitTimeout = 2 * time.Second

func testConfig() config.Config {
	var cfg config.Config
	cfg.Listen.MaxConnections = 16
	cfg.Listen.MaxLineLength = 128
	cfg.Session.OutboxSize = 64
	return cfg
}

func startTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	relay := chat.NewRelay(transcript.NewMemoryStore(), bcrypt.MinCost)
	s := NewServer(testConfig(), chat.NewRouter(relay))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() { _ = s.Serve(ln) }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s, ln.Addr().String()
}

type tcpClient struct {
	t      *testing.T
	conn   net.Conn
	reader *bufio.Reader
}

func dial(t *testing.T, addr string) *tcpClient {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &tcpClient{t: t, conn: conn, reader: bufio.NewReader(conn)}
}

func (c *tcpClient) send(line string) {
	c.t.Helper()
	if _, err := c.conn.Write([]byte(line + "\r\n")); err != nil {
		c.t.Fatalf("write: %v", err)
	}
}

func (c *tcpClient) readLine() (string, error) {
	_ = c.conn.SetReadDeadline(time.Now().Add(waitTimeout))
	line, err := c.reader.ReadString('\n')
	return strings.TrimSuffix(line, "\n"), err
}

// expect skips lines until one equals want.
func (c *tcpClient) expect(want string) {
	c.t.Helper()
	var seen []string
	for {
		line, err := c.readLine()
		if err != nil {
			c.t.Fatalf("never received %q (got %q): %v", want, seen, err)
		}
		if line == want {
			return
		}
		seen = append(seen, line)
	}
}

func TestTCPHandshakeAndChat(t *testing.T) {
	_, addr := startTestServer(t)

	alice := dial(t, addr)
	alice.send("alice")
	alice.expect("OK")

	intruder := dial(t, addr)
	intruder.send("alice")
	intruder.expect("Nickname is already in use. Please choose another nickname.")
	intruder.send("bob")
	intruder.expect("OK")
	alice.expect("Lobby: bob has connected.")

	intruder.send("hello there")
	alice.expect("bob: hello there")

	intruder.send("/create")
	intruder.expect("Room 1 has been created. No password is set. Join with /join 1.")
	intruder.send("/join 1")
	intruder.expect("Room 1: bob has joined.")

	_ = intruder.conn.Close()
	alice.expect("Lobby: bob has disconnected.")
}

func TestTCPDropsOverlongLines(t *testing.T) {
	s, addr := startTestServer(t)

	c := dial(t, addr)
	c.send("carol")
	c.expect("OK")
	c.send(strings.Repeat("x", 512))

	for {
		if _, err := c.readLine(); err != nil {
			break
		}
	}
	deadline := time.Now().Add(waitTimeout)
	for s.Connections().Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("connection was not untracked")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestShutdownClosesClients(t *testing.T) {
	s, addr := startTestServer(t)

	c := dial(t, addr)
	c.send("dave")
	c.expect("OK")

	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	for {
		if _, err := c.readLine(); err != nil {
			break
		}
	}
	if _, err := net.DialTimeout("tcp", addr, 200*time.Millisecond); err == nil {
		t.Error("listener should be closed")
	}
}

func TestWebSocketGateway(t *testing.T) {
	relay := chat.NewRelay(transcript.NewMemoryStore(), bcrypt.MinCost)
	s := NewServer(testConfig(), chat.NewRouter(relay))
	ts := httptest.NewServer(http.HandlerFunc(s.WebSocketHandler))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()

	read := func(want string) {
		t.Helper()
		for {
			_ = ws.SetReadDeadline(time.Now().Add(waitTimeout))
			_, data, err := ws.ReadMessage()
			if err != nil {
				t.Fatalf("never received %q: %v", want, err)
			}
			if string(data) == want {
				return
			}
		}
	}

	if err := ws.WriteMessage(websocket.TextMessage, []byte("erin")); err != nil {
		t.Fatal(err)
	}
	read("OK")
	if err := ws.WriteMessage(websocket.TextMessage, []byte("hi from the browser")); err != nil {
		t.Fatal(err)
	}
	read("erin: hi from the browser")

	if _, ok := relay.Sessions().Lookup("erin"); !ok {
		t.Error("erin should be registered")
	}
}

func TestOriginChecker(t *testing.T) {
	tests := []struct {
		allowed []string
		origin  string
		expect  bool
	}{
		{nil, "http://evil.example", true},
		{[]string{"https://chat.example/"}, "https://chat.example", true},
		{[]string{"https://chat.example"}, "HTTPS://CHAT.EXAMPLE", true},
		{[]string{"https://chat.example"}, "http://evil.example", false},
		{[]string{"https://chat.example"}, "", true},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		if got := originChecker(tt.allowed)(r); got != tt.expect {
			t.Errorf("allowed %v, origin %q: expected %v, got %v", tt.allowed, tt.origin, tt.expect, got)
		}
	}
}

func TestConnectionStateString(t *testing.T) {
	tests := map[ConnectionState]string{
		Handshaking:         "handshaking",
		Active:              "active",
		Closed:              "closed",
		ConnectionState(42): "unknown",
	}
	for state, expect := range tests {
		if got := state.String(); got != expect {
			t.Errorf("expected %q, got %q", expect, got)
		}
	}
}
