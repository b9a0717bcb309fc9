package topic

import "regexp"

// mentionPattern matches the wire format of a user mention inside topic
// text: "<@" + one or more of [A-Z0-9] + ">".
var mentionPattern = regexp.MustCompile(`<@[A-Z0-9]+>`)

// Mentions extracts all mention tokens from topic text, in order.
func Mentions(topic string) []string {
	return mentionPattern.FindAllString(topic, -1)
}

// Mention formats a user id as a mention token.
func Mention(userID string) string {
	return "<@" + userID + ">"
}
