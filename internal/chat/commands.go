package chat

import (
	"errors"
	"strconv"

	"github.com/life-stream-dev/life-stream-go-chat-relay/internal/logger"
)

// request is a tokenised command line. args holds at most two entries: the
// first argument and the rest of the line; rest is everything after the
// command name.
type request struct {
	name string
	args []string
	rest string
}

type commandHandler interface {
	Handle(r *Router, session *Session, req request)
}

// commandHandlerFunc adapts an ordinary function to a commandHandler.
type commandHandlerFunc func(r *Router, session *Session, req request)

func (f commandHandlerFunc) Handle(r *Router, session *Session, req request) {
	f(r, session, req)
}

var commands map[string]commandHandler

func init() {
	commands = map[string]commandHandler{
		"/r":        cmdWhisper,
		"/join":     cmdJoin,
		"/exit":     cmdExit,
		"/create":   cmdCreate,
		"/block":    blockCommand(BlockWhisper, msgBlockUsage, blockedWhispers),
		"/blockAll": blockCommand(BlockAll, msgBlockAllUsage, blockedAll),
		"/unblock":  cmdUnblock,
		"/help":     cmdHelp,
		"/rooms":    cmdRooms,
		"/users":    cmdUsers,
	}
}

var cmdWhisper commandHandlerFunc = func(r *Router, session *Session, req request) {
	args := req.args
	if len(args) < 2 {
		session.Send(msgWhisperUsage)
		return
	}
	r.whisper(session, args[0], args[1])
}

var cmdJoin commandHandlerFunc = func(r *Router, session *Session, req request) {
	args := req.args
	if len(args) < 1 {
		session.Send(msgJoinUsage)
		return
	}
	roomID, err := strconv.Atoi(args[0])
	if err != nil || roomID <= 0 {
		session.Send(msgInvalidRoomID)
		return
	}
	password := ""
	if len(args) > 1 {
		password = args[1]
	}

	switch err := r.relay.JoinRoom(session, roomID, password); {
	case err == nil:
	case errors.Is(err, ErrRoomNotFound):
		session.Send(roomNotFound(roomID))
	case errors.Is(err, ErrAlreadyInRoom):
		session.Send(roomAlreadyIn(roomID))
	case errors.Is(err, ErrInvalidPassword):
		session.Send(msgInvalidPassword)
	}
}

var cmdExit commandHandlerFunc = func(r *Router, session *Session, _ request) {
	if err := r.relay.ExitRoom(session); err != nil {
		session.Send(msgNotInRoom)
		return
	}
	session.Send(msgLeftRoom)
}

// cmdCreate takes the whole remainder of the line as the password, the same
// way /join <id> <password> reads it.
var cmdCreate commandHandlerFunc = func(r *Router, session *Session, req request) {
	password := req.rest
	roomID, err := r.relay.CreateRoom(password)
	if errors.Is(err, ErrPasswordTooLong) {
		session.Send(msgPasswordTooLong)
		return
	}
	if err != nil {
		logger.ErrorF("[%s] Fail to create room, details: %v", session.ID(), err)
		session.Send(msgCreateFailed)
		return
	}
	session.Send(roomCreated(roomID, password != ""))
}

func blockCommand(level BlockLevel, usage string, reply func(string) string) commandHandlerFunc {
	return func(_ *Router, session *Session, req request) {
		args := req.args
		if len(args) < 1 {
			session.Send(usage)
			return
		}
		session.Block(args[0], level)
		session.Send(reply(args[0]))
	}
}

var cmdUnblock commandHandlerFunc = func(_ *Router, session *Session, req request) {
	args := req.args
	if len(args) < 1 {
		session.Send(msgUnblockUsage)
		return
	}
	if session.Unblock(args[0]) {
		session.Send(unblocked(args[0]))
		return
	}
	session.Send(notBlocked(args[0]))
}

var cmdHelp commandHandlerFunc = func(_ *Router, session *Session, _ request) {
	for _, line := range helpLines {
		session.Send(line)
	}
}

var cmdRooms commandHandlerFunc = func(r *Router, session *Session, _ request) {
	rooms := r.relay.RoomList()
	if len(rooms) == 0 {
		session.Send(msgNoRooms)
		return
	}
	session.Send(msgRoomListHeader)
	for _, info := range rooms {
		session.Send(roomListEntry(info))
	}
}

var cmdUsers commandHandlerFunc = func(r *Router, session *Session, _ request) {
	session.Send(msgUserListHeader)
	for _, info := range r.relay.UserList() {
		session.Send(userListEntry(info))
	}
}
