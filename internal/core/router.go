package core

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/textrouter/internal/proto"
)

// Router executes parsed commands against the registries and delivers the
// resulting lines. Replies to the invoking client never reach anyone else.
type Router struct {
	clients         *ClientRegistry
	channels        *ChannelRegistry
	exitEndsSession bool
	log             *zerolog.Logger
}

// NewRouter builds a router over the given registries. When exitEndsSession
// is set, a successful /exit also ends the sender's session.
func NewRouter(clients *ClientRegistry, channels *ChannelRegistry, exitEndsSession bool, logger *zerolog.Logger) *Router {
	return &Router{
		clients:         clients,
		channels:        channels,
		exitEndsSession: exitEndsSession,
		log:             logger,
	}
}

// Route handles one command from sender and reports whether the sender's
// session should end.
func (r *Router) Route(sender *Client, cmd Command) bool {
	switch cmd.Kind {
	case CommandCreateChannel:
		r.createChannel(sender, cmd.Channel)
	case CommandInviteToChannel:
		r.inviteToChannel(sender, cmd.Channel, cmd.Nickname)
	case CommandJoinChannel:
		r.joinChannel(sender, cmd.Channel)
	case CommandExitChannel:
		return r.exitChannel(sender, cmd.Channel)
	case CommandPrivateMessage:
		r.privateMessage(sender, cmd.Nickname, cmd.Text)
	default:
		r.plainMessage(sender, cmd.Text)
	}
	return false
}

// Reject replies to sender with the message of a parse error.
func (r *Router) Reject(sender *Client, err error) {
	var coreErr *CoreError
	if errors.As(err, &coreErr) {
		r.reply(sender, coreErr.Message)
		return
	}
	r.reply(sender, err.Error())
}

// Broadcast delivers text to every registered client except the excluded one.
func (r *Router) Broadcast(except *Client, text string) int {
	delivered := 0
	for _, c := range r.clients.All() {
		if c == except {
			continue
		}
		if r.deliver(c, text) {
			delivered++
		}
	}
	return delivered
}

func (r *Router) createChannel(sender *Client, channel string) {
	if !r.channels.CreateIfAbsent(channel, sender) {
		r.reply(sender, proto.ChannelExists(channel))
		return
	}
	r.log.Info().Str("channel", channel).Str("nick", sender.Name).Msg("channel created")
	r.reply(sender, proto.ChannelCreated(channel))
}

func (r *Router) inviteToChannel(sender *Client, channel, nickname string) {
	if !r.channels.Exists(channel) {
		r.reply(sender, proto.ChannelNotFound(channel))
		return
	}
	invitee, ok := r.clients.Lookup(nickname)
	if !ok {
		r.reply(sender, proto.UserNotFound(nickname))
		return
	}

	switch err := r.channels.AddMember(channel, invitee); {
	case err == nil:
		r.reply(sender, proto.InvitationSent(nickname, channel))
		r.deliver(invitee, proto.Invited(channel))
	case errors.Is(err, ErrChannelNotFound):
		r.reply(sender, proto.ChannelNotFound(channel))
	case errors.Is(err, ErrAlreadyMember):
		r.reply(sender, proto.UserAlreadyInChannel(nickname, channel))
	default:
		r.reply(sender, proto.UserNotFound(nickname))
	}
}

func (r *Router) joinChannel(sender *Client, channel string) {
	switch err := r.channels.AddMember(channel, sender); {
	case err == nil:
		r.reply(sender, proto.Joined(channel))
	case errors.Is(err, ErrAlreadyMember):
		r.reply(sender, proto.AlreadyInChannel(channel))
	case errors.Is(err, ErrClientGone):
		// sender is tearing down; nothing to reply to
	default:
		r.reply(sender, proto.ChannelNotFound(channel))
	}
}

func (r *Router) exitChannel(sender *Client, channel string) bool {
	switch err := r.channels.RemoveMember(channel, sender); {
	case err == nil:
		r.reply(sender, proto.Exited(channel))
		return r.exitEndsSession
	case errors.Is(err, ErrNotInChannel):
		r.reply(sender, proto.NotInChannel(channel))
	default:
		r.reply(sender, proto.ChannelNotFound(channel))
	}
	return false
}

func (r *Router) privateMessage(sender *Client, nickname, text string) {
	recipient, ok := r.clients.Lookup(nickname)
	if !ok {
		r.reply(sender, proto.UserNotFound(nickname))
		return
	}
	r.deliver(recipient, proto.Private(sender.Name, text))
}

func (r *Router) plainMessage(sender *Client, text string) {
	line := proto.Chat(sender.Name, text)

	channel, members, ok := r.channels.RouteTarget(sender)
	if !ok {
		n := r.Broadcast(sender, line)
		r.log.Debug().Str("nick", sender.Name).Int("recipients", n).Msg("broadcast message")
		return
	}
	for _, m := range members {
		r.deliver(m, line)
	}
	r.log.Debug().Str("nick", sender.Name).Str("channel", channel).Int("recipients", len(members)).Msg("channel message")
}

func (r *Router) reply(sender *Client, text string) {
	r.deliver(sender, text)
}

// deliver never blocks; a destination that cannot accept the line is skipped.
func (r *Router) deliver(c *Client, text string) bool {
	if c.Deliver(text) {
		return true
	}
	r.log.Warn().Str("client_id", c.ID).Str("nick", c.Name).Msg("dropped line for slow or closed client")
	return false
}
