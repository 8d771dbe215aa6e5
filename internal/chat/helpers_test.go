package chat

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/life-stream-dev/life-stream-go-chat-relay/internal/transcript"
	"golang.org/x/crypto/bcrypt"
)

const waitTimeout = 2 * time.Second

type recordingConn struct {
	lines      chan string
	mu         sync.Mutex
	closed     bool
	failWrites bool
}

func newRecordingConn() *recordingConn {
	return &recordingConn{lines: make(chan string, 1024)}
}

func (c *recordingConn) WriteLine(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.failWrites {
		return errors.New("connection closed")
	}
	c.lines <- line
	return nil
}

func (c *recordingConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *recordingConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

type testClient struct {
	t       *testing.T
	session *Session
	conn    *recordingConn
}

func newTestRelay() (*Relay, *Router, *transcript.MemoryStore) {
	store := transcript.NewMemoryStore()
	relay := NewRelay(store, bcrypt.MinCost)
	return relay, NewRouter(relay), store
}

// newClient returns a session that has not logged in yet.
func newClient(t *testing.T, id string) *testClient {
	t.Helper()
	conn := newRecordingConn()
	session := NewSession(id, conn, 256)
	go session.Run()
	t.Cleanup(session.Close)
	return &testClient{t: t, session: session, conn: conn}
}

// login connects a client and consumes its OK reply.
func login(t *testing.T, relay *Relay, nick string) *testClient {
	t.Helper()
	c := newClient(t, "conn-"+nick)
	if err := relay.Login(c.session, nick); err != nil {
		t.Fatalf("login %s: %v", nick, err)
	}
	if got := c.next(); got != replyOK {
		t.Fatalf("%s: expected %q as first line, got %q", nick, replyOK, got)
	}
	return c
}

func (c *testClient) next() string {
	c.t.Helper()
	select {
	case line := <-c.conn.lines:
		return line
	case <-time.After(waitTimeout):
		c.t.Fatalf("%s: timed out waiting for a line", c.session.Nickname())
		return ""
	}
}

// expect skips lines until one equals want.
func (c *testClient) expect(want string) {
	c.t.Helper()
	var seen []string
	deadline := time.After(waitTimeout)
	for {
		select {
		case line := <-c.conn.lines:
			if line == want {
				return
			}
			seen = append(seen, line)
		case <-deadline:
			c.t.Fatalf("%s: never received %q; got %q", c.session.Nickname(), want, seen)
		}
	}
}

// expectNoneBefore reads up to marker and fails if any line contains one of
// the forbidden substrings.
func (c *testClient) expectNoneBefore(marker string, forbidden ...string) {
	c.t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case line := <-c.conn.lines:
			if line == marker {
				return
			}
			for _, f := range forbidden {
				if strings.Contains(line, f) {
					c.t.Fatalf("%s: received forbidden line %q", c.session.Nickname(), line)
				}
			}
		case <-deadline:
			c.t.Fatalf("%s: never received marker %q", c.session.Nickname(), marker)
		}
	}
}

func (c *testClient) send(router *Router, line string) {
	router.Handle(c.session, line)
}
