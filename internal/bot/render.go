package bot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/acahill/boxdbot/internal/letterboxd"
)

// Discord caps messages at 2000 characters; chunk a little under that.
const chunkLimit = 1900

const noOverlapMessage = "No common movies found between these users."

// overlapMessages renders the common titles as bulleted lists split into
// messages that fit under Discord's length limit.
func overlapMessages(usernames, titles []string) []string {
	var messages []string
	current := fmt.Sprintf("Common movies between %s:\n\n", strings.Join(usernames, ", "))

	for _, title := range titles {
		if len(current)+len(title)+3 > chunkLimit {
			messages = append(messages, current)
			current = ""
		}
		current += fmt.Sprintf("- %s\n", title)
	}
	if current != "" {
		messages = append(messages, current)
	}
	return messages
}

func randomPickMessage(usernames []string, title string) string {
	return fmt.Sprintf("🎬 Random movie pick for %s:\n**%s**",
		strings.Join(usernames, ", "), title)
}

// fetchFailureMessage translates a pipeline failure into a user-facing
// message naming the username that failed.
func fetchFailureMessage(err error) string {
	var ufe *userFetchError
	if !errors.As(err, &ufe) {
		return "Something went wrong fetching the watchlists."
	}

	var parseErr *letterboxd.ParseError
	switch {
	case errors.Is(err, letterboxd.ErrUserNotFound):
		return fmt.Sprintf("Couldn't find a Letterboxd watchlist for **%s**. Is the username right?", ufe.username)
	case errors.As(err, &parseErr):
		return fmt.Sprintf("Couldn't read **%s**'s watchlist page. Letterboxd may have changed its layout.", ufe.username)
	default:
		return fmt.Sprintf("Failed to fetch **%s**'s watchlist. Please try again later.", ufe.username)
	}
}
