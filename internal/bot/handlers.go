package bot

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/acahill/boxdbot/internal/metrics"
	"github.com/acahill/boxdbot/internal/overlap"
)

// userFetchError pins a fetch failure to the username it happened for, so
// the rendered message can name the culprit.
type userFetchError struct {
	username string
	err      error
}

func (e *userFetchError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.username, e.err)
}

func (e *userFetchError) Unwrap() error { return e.err }

func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	if data.Name != commandOverlap && data.Name != commandRandom {
		return
	}

	start := time.Now()
	id := newInvocationID()
	logger := b.logger.With("command", data.Name, "invocation_id", id)

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("panic recovered",
				"error", rec,
				"stack", string(debug.Stack()),
			)
			metrics.CommandsHandled.WithLabelValues(data.Name, "panic").Inc()
			b.followUp(s, i, "Something went wrong handling that command.")
		}
	}()

	// Fetching 2-4 watchlists with a fixed delay between pages takes far
	// longer than the 3 seconds Discord gives for an initial response.
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		logger.Error("failed to defer response", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(b.baseCtx, b.cfg.CommandTimeout)
	defer cancel()

	usernames := usernameOptions(data)

	var outcome string
	switch data.Name {
	case commandOverlap:
		outcome = b.runOverlap(ctx, s, i, usernames)
	case commandRandom:
		outcome = b.runRandom(ctx, s, i, usernames)
	}

	logger.Info("command handled",
		"usernames", len(usernames),
		"outcome", outcome,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	metrics.CommandsHandled.WithLabelValues(data.Name, outcome).Inc()
	metrics.CommandDuration.WithLabelValues(data.Name).Observe(time.Since(start).Seconds())
}

func (b *Bot) runOverlap(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, usernames []string) string {
	common, outcome := b.commonTitles(ctx, s, i, usernames)
	if outcome != "" {
		return outcome
	}
	if len(common) == 0 {
		b.followUp(s, i, noOverlapMessage)
		return "empty"
	}

	for _, msg := range overlapMessages(usernames, common) {
		b.followUp(s, i, msg)
	}
	b.followUp(s, i, fmt.Sprintf("Found %d common movies in total!", len(common)))
	return "ok"
}

func (b *Bot) runRandom(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, usernames []string) string {
	common, outcome := b.commonTitles(ctx, s, i, usernames)
	if outcome != "" {
		return outcome
	}

	pick, err := overlap.PickRandom(common)
	if err != nil {
		b.followUp(s, i, noOverlapMessage)
		return "empty"
	}
	b.followUp(s, i, randomPickMessage(usernames, pick))
	return "ok"
}

// commonTitles runs the fetch-then-intersect pipeline. A non-empty outcome
// means a response was already sent and the caller should stop.
func (b *Bot) commonTitles(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, usernames []string) ([]string, string) {
	lists, err := b.fetchAll(ctx, usernames)
	if err != nil {
		b.followUp(s, i, fetchFailureMessage(err))
		return nil, "fetch_error"
	}

	common, err := overlap.Intersect(lists...)
	if err != nil {
		b.followUp(s, i, "Give me between 2 and 4 usernames to compare.")
		return nil, "bad_arguments"
	}
	return common, ""
}

// fetchAll fetches each username's watchlist in the order given, strictly
// sequentially. The first failure aborts the whole invocation; partial
// results are never used.
func (b *Bot) fetchAll(ctx context.Context, usernames []string) ([][]string, error) {
	lists := make([][]string, 0, len(usernames))
	for _, username := range usernames {
		watchlist, err := b.fetcher.Fetch(ctx, username)
		if err != nil {
			return nil, &userFetchError{username: username, err: err}
		}
		lists = append(lists, watchlist)
	}
	return lists, nil
}

// usernameOptions collects the supplied usernames in positional order,
// skipping blank optional slots and tolerating a leading @.
func usernameOptions(data discordgo.ApplicationCommandInteractionData) []string {
	byName := make(map[string]string, len(data.Options))
	for _, opt := range data.Options {
		if opt.Type == discordgo.ApplicationCommandOptionString {
			byName[opt.Name] = opt.StringValue()
		}
	}

	var usernames []string
	for n := 1; n <= 4; n++ {
		value := strings.TrimSpace(byName[fmt.Sprintf("username%d", n)])
		value = strings.TrimPrefix(value, "@")
		if value != "" {
			usernames = append(usernames, value)
		}
	}
	return usernames
}

func (b *Bot) followUp(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
	})
	if err != nil {
		b.logger.Error("failed to send followup", "error", err)
	}
}

func newInvocationID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}
