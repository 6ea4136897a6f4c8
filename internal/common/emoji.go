package common

import (
	"regexp"
	"strings"

	"github.com/questx-lab/rolebot/pkg/api/discord"
)

var customEmojiRegex = regexp.MustCompile(`^<a?:([a-zA-Z0-9_~]+):([0-9]+)>$`)

// EmojiKey normalizes an emoji typed in a command. Custom emoji written as
// <:name:id> or <a:name:id> become name:id, which is also how Discord
// identifies them in reaction events and REST paths. Unicode emoji are kept
// as they are.
func EmojiKey(raw string) string {
	raw = strings.TrimSpace(raw)
	if m := customEmojiRegex.FindStringSubmatch(raw); m != nil {
		return m[1] + ":" + m[2]
	}

	return raw
}

// EmojiKeyFromEvent returns the key of the emoji carried by a reaction event.
func EmojiKeyFromEvent(e discord.Emoji) string {
	if e.ID != "" {
		return e.Name + ":" + e.ID
	}

	return e.Name
}

// RoleIDFromArg accepts either a raw role id or a role mention <@&id>.
func RoleIDFromArg(arg string) string {
	arg = strings.TrimSpace(arg)
	if strings.HasPrefix(arg, "<@&") && strings.HasSuffix(arg, ">") {
		return arg[3 : len(arg)-1]
	}

	return arg
}
