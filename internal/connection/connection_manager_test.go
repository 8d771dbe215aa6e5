package connection

import (
	"errors"
	"sync"
	"testing"
)

type fakeConn struct {
	mu     sync.Mutex
	closed int
}

func (f *fakeConn) ReadLine() (string, error) { return "", errors.New("not readable") }
func (f *fakeConn) WriteLine(string) error    { return nil }
func (f *fakeConn) RemoteAddr() string        { return "fake" }

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeConn) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func TestConnectionManager(t *testing.T) {
	cm := NewConnectionManager()
	a, b := &fakeConn{}, &fakeConn{}

	cm.AddConnection(&Connection{Conn: a, ConnID: "a"})
	cm.AddConnection(&Connection{Conn: b, ConnID: "b"})
	if cm.Len() != 2 {
		t.Fatalf("expected 2 connections, got %d", cm.Len())
	}

	cm.RemoveConnection("b")
	if cm.Len() != 1 {
		t.Fatalf("expected 1 connection after removal, got %d", cm.Len())
	}

	cm.CloseAll()
	if a.closeCount() != 1 {
		t.Errorf("expected a to be closed once, got %d", a.closeCount())
	}
	if b.closeCount() != 0 {
		t.Errorf("untracked connection must not be closed")
	}

	late := &fakeConn{}
	if cm.AddConnection(&Connection{Conn: late, ConnID: "late"}) {
		t.Error("connections added after CloseAll should be rejected")
	}
	if late.closeCount() != 1 {
		t.Error("rejected connection should be closed")
	}
}
