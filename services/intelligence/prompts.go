package ai

import (
	"fmt"
	"strings"
	"time"

	"rebeca/models"
	"rebeca/utils"
)

func intentPrompt(message string, now time.Time) string {
	return fmt.Sprintf(`Analyze the following message and decide whether it asks you to set a reminder.
If it does, extract the date/time and what to remind about. Pay close attention to relative
expressions such as "in 5 minutes" or "tomorrow at 3".

Current time: %s
Message: %s

Convert the date/time to the absolute format YYYY-MM-DD HH:MM using the current time above.
For example:
- "in 5 minutes" -> five minutes after the current time
- "tomorrow at 3pm" -> tomorrow's date at 15:00

Answer with JSON only, using this structure:
{
  "is_reminder": true or false,
  "datetime": "YYYY-MM-DD HH:MM" (absolute, only when is_reminder is true),
  "description": "what to remind about" (only when is_reminder is true)
}

Never use relative expressions in the answer.`, now.Format(utils.IntentLayout), message)
}

func replyPrompt(message string, history []models.ConversationTurn) string {
	var sb strings.Builder
	sb.WriteString("Act as a friendly, professional assistant in Slack. Answer in the language of the user's message.\n")
	if len(history) > 0 {
		sb.WriteString("\nRecent conversation:\n")
		for _, turn := range history {
			fmt.Fprintf(&sb, "User: %s\nAssistant: %s\n", turn.User, turn.Assistant)
		}
	}
	fmt.Fprintf(&sb, "\nMessage: %s\n", message)
	sb.WriteString(`
Rules for the answer:
- Use Slack markdown when it helps
- Include relevant emojis (3 at most)
- Use code blocks with ` + "```" + ` for code
- Use Slack list formatting for lists
- Keep it concise and well structured`)
	return sb.String()
}

func confirmationPrompt(at time.Time, description string) string {
	return fmt.Sprintf(`Write a friendly message confirming that you scheduled a reminder.
Date and time: %s
Description: %s

Rules:
- Use fitting Slack emojis (3 at most)
- State the date/time and the description clearly
- Add one friendly sentence
- Use Slack markdown
- Answer in the language of the description
- Keep it concise`, at.Format(utils.IntentLayout), description)
}

func notificationPrompt(r models.Reminder) string {
	return fmt.Sprintf(`Write a friendly, professional Slack message delivering a reminder. The reminder is: %s
Rules:
- Use Slack emojis that fit the context (4 at most)
- Quote the original reminder text or put it in a blockquote
- End with a short motivating or friendly sentence
- Use Slack markdown
- Vary the style from one reminder to the next
- Answer in the language of the reminder
- Keep it concise`, r.Message)
}
