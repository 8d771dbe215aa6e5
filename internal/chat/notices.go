package chat

import "fmt"

const (
	replyOK = "OK"

	msgNicknameTaken  = "Nickname is already in use. Please choose another nickname."
	msgNicknameEmpty  = "Nickname must not be empty. Please choose another nickname."
	msgNicknameSpaces = "Nickname must not contain spaces. Please choose another nickname."
	msgHelpHint       = "Commands: /help"

	msgInvalidPassword  = "Invalid password."
	msgPasswordTooLong  = "Password is too long (at most 72 bytes)."
	msgCreateFailed     = "Unable to create the room, please try again."
	msgInvalidRoomID    = "Invalid room number format."
	msgJoinUsage        = "Usage: /join <roomId> [password]"
	msgNotInRoom        = "You are not in a room."
	msgLeftRoom         = "You left the room and returned to the lobby."
	msgWhisperUsage     = "Usage: /r <nickname> <message>"
	msgBlockUsage       = "Usage: /block <nickname>"
	msgBlockAllUsage    = "Usage: /blockAll <nickname>"
	msgUnblockUsage     = "Usage: /unblock <nickname>"
	msgNoRooms          = "There are no active rooms."
	msgRoomListHeader   = "Active rooms:"
	msgUserListHeader   = "Online users:"
	msgUnknownCmdPrefix = "Unknown command: "
)

var helpLines = []string{
	"/r <nickname> <message> : whisper to a user",
	"/block <nickname> : block whispers from a user",
	"/blockAll <nickname> : block all messages from a user",
	"/unblock <nickname> : remove a block",
	"/create [password] : create a room",
	"/join <roomId> [password] : join a room",
	"/exit : leave the current room",
	"/rooms : list active rooms",
	"/users : list online users",
	"/help : show this help",
}

func lobbyConnected(nick string) string {
	return fmt.Sprintf("Lobby: %s has connected.", nick)
}

func lobbyDisconnected(nick string) string {
	return fmt.Sprintf("Lobby: %s has disconnected.", nick)
}

func roomJoined(roomID int, nick string) string {
	return fmt.Sprintf("Room %d: %s has joined.", roomID, nick)
}

func roomLeft(roomID int, nick string) string {
	return fmt.Sprintf("Room %d: %s has left.", roomID, nick)
}

func roomNotFound(roomID int) string {
	return fmt.Sprintf("Room %d does not exist.", roomID)
}

func roomAlreadyIn(roomID int) string {
	return fmt.Sprintf("You are already in room %d.", roomID)
}

func roomCreated(roomID int, withPassword bool) string {
	if withPassword {
		return fmt.Sprintf("Room %d has been created. A password is set. Join with /join %d <password>.", roomID, roomID)
	}
	return fmt.Sprintf("Room %d has been created. No password is set. Join with /join %d.", roomID, roomID)
}

func whisperSent(to string) string {
	return fmt.Sprintf("Whisper sent to %s.", to)
}

func whisperBlocked(to string) string {
	return fmt.Sprintf("%s has blocked your whispers.", to)
}

func userNotFound(nick string) string {
	return fmt.Sprintf("Cannot find user %s.", nick)
}

func blockedWhispers(nick string) string {
	return fmt.Sprintf("Blocked whispers from %s.", nick)
}

func blockedAll(nick string) string {
	return fmt.Sprintf("Blocked all messages from %s.", nick)
}

func unblocked(nick string) string {
	return fmt.Sprintf("Unblocked %s.", nick)
}

func notBlocked(nick string) string {
	return fmt.Sprintf("%s is not blocked.", nick)
}

func roomListEntry(info RoomInfo) string {
	password := "no"
	if info.HasPassword {
		password = "yes"
	}
	return fmt.Sprintf("Room %d | password: %s | participants: %d", info.ID, password, info.Participants)
}

func userListEntry(info UserInfo) string {
	if info.Room == 0 {
		return fmt.Sprintf("%s - lobby", info.Nickname)
	}
	return fmt.Sprintf("%s - room %d", info.Nickname, info.Room)
}

func unknownCommand(cmd string) string {
	return msgUnknownCmdPrefix + cmd
}
