// Package proto holds the line-oriented wire vocabulary: command prefixes
// recognised on inbound lines and the reply texts sent back to clients.
package proto

import "fmt"

// Command prefixes. Matching is case-sensitive and includes the trailing space.
const (
	PrefixCreate  = "/create "
	PrefixInvite  = "/invite "
	PrefixJoin    = "/join "
	PrefixExit    = "/exit "
	PrefixPrivate = "/private "
)

// LineDelimiter terminates every line on stream transports.
const LineDelimiter = '\n'

// Usage strings sent back on malformed commands.
const (
	UsageCreate  = "Usage: /create <channel>"
	UsageInvite  = "Usage: /invite <channel> <nickname>"
	UsageJoin    = "Usage: /join <channel>"
	UsageExit    = "Usage: /exit <channel>"
	UsagePrivate = "Usage: /private <nickname> <message>"
)

// ChannelCreated confirms a /create to its sender.
func ChannelCreated(channel string) string {
	return fmt.Sprintf("Channel '%s' created successfully.", channel)
}

// ChannelExists rejects a /create for a taken name.
func ChannelExists(channel string) string {
	return fmt.Sprintf("Channel '%s' already exists.", channel)
}

// ChannelNotFound is the reply for any command naming an unknown channel.
func ChannelNotFound(channel string) string {
	return fmt.Sprintf("Channel '%s' does not exist.", channel)
}

// InvitationSent confirms an /invite to the inviter.
func InvitationSent(invitee, channel string) string {
	return fmt.Sprintf("Invitation sent to %s for channel '%s'.", invitee, channel)
}

// Invited notifies the invitee.
func Invited(channel string) string {
	return fmt.Sprintf("You've been invited to join channel '%s'.", channel)
}

// UserNotFound is the reply for an unknown nickname.
func UserNotFound(nickname string) string {
	return fmt.Sprintf("User '%s' not found.", nickname)
}

// UserAlreadyInChannel rejects an /invite of an existing member.
func UserAlreadyInChannel(nickname, channel string) string {
	return fmt.Sprintf("User '%s' is already in channel '%s'.", nickname, channel)
}

// Joined confirms a /join.
func Joined(channel string) string {
	return fmt.Sprintf("Joined channel '%s' successfully.", channel)
}

// AlreadyInChannel rejects a /join of a channel the sender is in.
func AlreadyInChannel(channel string) string {
	return fmt.Sprintf("You're already in channel '%s'.", channel)
}

// Exited confirms an /exit.
func Exited(channel string) string {
	return fmt.Sprintf("Exited channel '%s' successfully.", channel)
}

// NotInChannel rejects an /exit of a channel the sender is not in.
func NotInChannel(channel string) string {
	return fmt.Sprintf("You're not in channel '%s'.", channel)
}

// Chat formats a plain message as seen by its recipients.
func Chat(sender, text string) string {
	return sender + ": " + text
}

// Private formats a private message as seen by its recipient.
func Private(sender, text string) string {
	return "(Private) " + sender + ": " + text
}

// UserJoined announces a new session.
func UserJoined(nickname string) string {
	return nickname + " has joined the chat."
}

// UserLeft announces a finished session.
func UserLeft(nickname string) string {
	return nickname + " has left the chat."
}
