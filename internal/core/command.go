package core

import (
	"sort"
	"strings"

	"github.com/vovakirdan/textrouter/internal/proto"
)

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandPlainMessage is any line that is not a recognised command.
	CommandPlainMessage CommandKind = iota
	// CommandCreateChannel creates a channel with the sender as first member.
	CommandCreateChannel
	// CommandInviteToChannel adds another client to a channel.
	CommandInviteToChannel
	// CommandJoinChannel adds the sender to a channel.
	CommandJoinChannel
	// CommandExitChannel removes the sender from a channel.
	CommandExitChannel
	// CommandPrivateMessage delivers text to a single recipient.
	CommandPrivateMessage
)

func (k CommandKind) String() string {
	switch k {
	case CommandPlainMessage:
		return "plain"
	case CommandCreateChannel:
		return "create"
	case CommandInviteToChannel:
		return "invite"
	case CommandJoinChannel:
		return "join"
	case CommandExitChannel:
		return "exit"
	case CommandPrivateMessage:
		return "private"
	default:
		return "unknown"
	}
}

// Command represents an action requested by a client.
type Command struct {
	Kind     CommandKind
	Channel  string
	Nickname string
	Text     string
}

type commandDef struct {
	prefix string
	kind   CommandKind
	usage  string
}

// commandDefs is ordered longest prefix first.
var commandDefs = func() []commandDef {
	defs := []commandDef{
		{proto.PrefixCreate, CommandCreateChannel, proto.UsageCreate},
		{proto.PrefixInvite, CommandInviteToChannel, proto.UsageInvite},
		{proto.PrefixJoin, CommandJoinChannel, proto.UsageJoin},
		{proto.PrefixExit, CommandExitChannel, proto.UsageExit},
		{proto.PrefixPrivate, CommandPrivateMessage, proto.UsagePrivate},
	}
	sort.SliceStable(defs, func(i, j int) bool {
		return len(defs[i].prefix) > len(defs[j].prefix)
	})
	return defs
}()

// ParseCommand turns one inbound line into a Command. Lines without a known
// prefix are plain messages. A recognised prefix with missing or surplus
// arguments yields a *CoreError carrying the usage text.
func ParseCommand(line string) (Command, error) {
	for _, def := range commandDefs {
		rest, ok := strings.CutPrefix(line, def.prefix)
		if !ok {
			continue
		}
		cmd, ok := parseArgs(def.kind, rest)
		if !ok {
			return Command{}, coreError(ErrCodeBadRequest, def.usage)
		}
		return cmd, nil
	}
	return Command{Kind: CommandPlainMessage, Text: line}, nil
}

// parseArgs splits the arguments after a prefix. For /private, spaces between
// the nickname and the body are dropped; spacing inside the body is kept.
func parseArgs(kind CommandKind, rest string) (Command, bool) {
	if kind == CommandPrivateMessage {
		// Only the recipient is split off; the body keeps its inner spacing.
		rest = strings.TrimLeft(rest, " \t")
		nick, body, found := strings.Cut(rest, " ")
		body = strings.TrimLeft(body, " \t")
		if !found || nick == "" || body == "" {
			return Command{}, false
		}
		return Command{Kind: kind, Nickname: nick, Text: body}, true
	}

	args := strings.Fields(rest)
	switch kind {
	case CommandInviteToChannel:
		if len(args) != 2 {
			return Command{}, false
		}
		return Command{Kind: kind, Channel: args[0], Nickname: args[1]}, true
	default:
		if len(args) != 1 {
			return Command{}, false
		}
		return Command{Kind: kind, Channel: args[0]}, true
	}
}
