// File: utils/constants.go
package utils

import "time"

// ClaimPrefix is the prefix used for reminder delivery claims.
const ClaimPrefix = "reminder:claim:"

// SlackEventPrefix is the prefix used to remember Slack event IDs already handled.
const SlackEventPrefix = "slack:event:"

// SlackEventTTL covers Slack's retry schedule for undelivered events.
const SlackEventTTL = 10 * time.Minute

// ConversationPrefix is the prefix used for per-user conversation memory.
const ConversationPrefix = "ai:conv:"
