// Package bot owns the Discord session: slash-command registration,
// interaction handling, and response rendering.
package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/acahill/boxdbot/internal/config"
)

const (
	commandOverlap = "watchlist_overlap"
	commandRandom  = "random_movie"
)

// Fetcher retrieves one user's complete watchlist.
type Fetcher interface {
	Fetch(ctx context.Context, username string) ([]string, error)
}

type Bot struct {
	session *discordgo.Session
	fetcher Fetcher
	logger  *slog.Logger
	cfg     config.BotConfig

	// baseCtx is the process lifetime context; command invocations derive
	// their timeouts from it so shutdown abandons in-flight fetches.
	baseCtx context.Context
}

func New(cfg config.Config, fetcher Fetcher, logger *slog.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Bot.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	return &Bot{
		session: session,
		fetcher: fetcher,
		logger:  logger,
		cfg:     cfg.Bot,
		baseCtx: context.Background(),
	}, nil
}

// Start opens the gateway connection and registers the slash commands.
// ctx bounds all command handling started after this call.
func (b *Bot) Start(ctx context.Context) error {
	b.baseCtx = ctx

	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.logger.Info("connected to discord",
			"user", s.State.User.Username,
			"id", s.State.User.ID,
		)
		if err := s.UpdateGameStatus(0, "Try using /random_movie!"); err != nil {
			b.logger.Warn("failed to set presence", "error", err)
		}
	})
	b.session.AddHandler(b.handleInteraction)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("error opening discord connection: %w", err)
	}

	if err := b.registerCommands(); err != nil {
		b.session.Close()
		return fmt.Errorf("error registering commands: %w", err)
	}
	return nil
}

func (b *Bot) Stop() {
	if err := b.session.Close(); err != nil {
		b.logger.Error("error closing discord session", "error", err)
	}
}

func (b *Bot) registerCommands() error {
	for _, cmd := range commands() {
		_, err := b.session.ApplicationCommandCreate(b.session.State.User.ID, b.cfg.GuildID, cmd)
		if err != nil {
			return fmt.Errorf("error creating command %s: %w", cmd.Name, err)
		}
		b.logger.Info("registered command", "name", cmd.Name)
	}
	return nil
}

func commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        commandOverlap,
			Description: "Compare Letterboxd watchlists between 2-4 users",
			Options:     usernameCommandOptions(),
		},
		{
			Name:        commandRandom,
			Description: "Pick a random movie from the common watchlist of 2-4 users",
			Options:     usernameCommandOptions(),
		},
	}
}

func usernameCommandOptions() []*discordgo.ApplicationCommandOption {
	options := make([]*discordgo.ApplicationCommandOption, 0, 4)
	for n := 1; n <= 4; n++ {
		ordinal := [...]string{"First", "Second", "Third", "Fourth"}[n-1]
		options = append(options, &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        fmt.Sprintf("username%d", n),
			Description: fmt.Sprintf("%s user's Letterboxd username", ordinal),
			Required:    n <= 2,
		})
	}
	return options
}
