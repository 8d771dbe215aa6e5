package chat

import (
	"strings"
	"unicode"

	"github.com/life-stream-dev/life-stream-go-chat-relay/internal/logger"
)

// Router interprets the lines a logged-in session sends.
type Router struct {
	relay *Relay
}

func NewRouter(relay *Relay) *Router {
	return &Router{relay: relay}
}

func (r *Router) Relay() *Relay {
	return r.relay
}

// Handle routes one inbound line: a leading "/" is a command, anything else
// is chat for the session's current location.
func (r *Router) Handle(session *Session, line string) {
	if strings.HasPrefix(line, "/") {
		r.command(session, line)
		return
	}
	if strings.TrimSpace(line) == "" {
		return
	}
	r.say(session, line)
}

func (r *Router) command(session *Session, line string) {
	req := parseRequest(line)
	handler, ok := commands[req.name]
	if !ok {
		session.Send(unknownCommand(req.name))
		return
	}
	logger.DebugF("[%s] %s issued %s", session.ID(), session.Nickname(), req.name)
	handler.Handle(r, session, req)
}

func (r *Router) say(session *Session, text string) {
	msg := NewChat(session.Nickname(), text)
	roomID := session.Room()
	if roomID == 0 {
		r.relay.BroadcastLobby(msg)
		return
	}
	room, ok := r.relay.rooms.GetRoom(roomID)
	if !ok {
		logger.WarnF("[%s] %s is in missing room %d", session.ID(), session.Nickname(), roomID)
		session.Send(roomNotFound(roomID))
		return
	}
	room.Broadcast(msg)
}

// whisper delivers text to the session registered as to, subject to the
// recipient's block policy, and tells the sender how it went.
func (r *Router) whisper(from *Session, to string, text string) {
	recipient, ok := r.relay.sessions.Lookup(to)
	if !ok {
		from.Send(userNotFound(to))
		return
	}
	if !recipient.Deliver(NewWhisper(from.Nickname(), text)) {
		from.Send(whisperBlocked(to))
		return
	}
	from.Send(whisperSent(to))
}

func parseRequest(line string) request {
	parts := splitCommand(line)
	req := request{name: parts[0], args: parts[1:]}
	if i := strings.IndexFunc(line, unicode.IsSpace); i >= 0 {
		req.rest = strings.TrimSpace(line[i:])
	}
	return req
}

// splitCommand splits line on whitespace into at most three parts: the
// command, its first argument and the untouched rest of the line.
func splitCommand(line string) []string {
	parts := make([]string, 0, 3)
	rest := strings.TrimSpace(line)
	for len(parts) < 2 && rest != "" {
		i := strings.IndexFunc(rest, unicode.IsSpace)
		if i < 0 {
			return append(parts, rest)
		}
		parts = append(parts, rest[:i])
		rest = strings.TrimLeftFunc(rest[i:], unicode.IsSpace)
	}
	if rest != "" {
		parts = append(parts, rest)
	}
	return parts
}
