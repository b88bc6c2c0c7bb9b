package bot

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acahill/boxdbot/internal/config"
	"github.com/acahill/boxdbot/internal/letterboxd"
)

// fakeFetcher records fetch calls and fails for usernames listed in errs.
type fakeFetcher struct {
	watchlists map[string][]string
	errs       map[string]error
	calls      []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, username string) ([]string, error) {
	f.calls = append(f.calls, username)
	if err, ok := f.errs[username]; ok {
		return nil, err
	}
	return f.watchlists[username], nil
}

func newTestBot(fetcher Fetcher) *Bot {
	return &Bot{
		fetcher: fetcher,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		cfg:     config.BotConfig{},
		baseCtx: context.Background(),
	}
}

func TestFetchAll_SequentialInOrder(t *testing.T) {
	fetcher := &fakeFetcher{watchlists: map[string][]string{
		"alice": {"Heat", "Se7en", "Arrival"},
		"bob":   {"Arrival", "Heat", "Dune"},
	}}
	b := newTestBot(fetcher)

	lists, err := b.fetchAll(context.Background(), []string{"alice", "bob"})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, fetcher.calls)
	require.Len(t, lists, 2)
	assert.Equal(t, []string{"Heat", "Se7en", "Arrival"}, lists[0])
	assert.Equal(t, []string{"Arrival", "Heat", "Dune"}, lists[1])
}

func TestFetchAll_AbortsOnFirstFailure(t *testing.T) {
	fetcher := &fakeFetcher{
		watchlists: map[string][]string{
			"alice": {"Heat"},
			"dave":  {"Dune"},
		},
		errs: map[string]error{"carol": letterboxd.ErrUserNotFound},
	}
	b := newTestBot(fetcher)

	_, err := b.fetchAll(context.Background(), []string{"alice", "carol", "dave"})
	require.Error(t, err)

	// dave is never fetched once carol fails
	assert.Equal(t, []string{"alice", "carol"}, fetcher.calls)

	var ufe *userFetchError
	require.ErrorAs(t, err, &ufe)
	assert.Equal(t, "carol", ufe.username)
	assert.ErrorIs(t, err, letterboxd.ErrUserNotFound)
}

func TestUsernameOptions(t *testing.T) {
	tests := []struct {
		name    string
		options map[string]string
		want    []string
	}{
		{
			name:    "two required",
			options: map[string]string{"username1": "alice", "username2": "bob"},
			want:    []string{"alice", "bob"},
		},
		{
			name: "all four",
			options: map[string]string{
				"username1": "alice", "username2": "bob",
				"username3": "carol", "username4": "dave",
			},
			want: []string{"alice", "bob", "carol", "dave"},
		},
		{
			name: "at prefix and whitespace stripped",
			options: map[string]string{
				"username1": "@alice", "username2": " bob ",
			},
			want: []string{"alice", "bob"},
		},
		{
			name: "blank optional slot skipped",
			options: map[string]string{
				"username1": "alice", "username2": "bob", "username3": "  ",
			},
			want: []string{"alice", "bob"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := discordgo.ApplicationCommandInteractionData{Name: commandOverlap}
			for name, value := range tt.options {
				data.Options = append(data.Options, &discordgo.ApplicationCommandInteractionDataOption{
					Name:  name,
					Type:  discordgo.ApplicationCommandOptionString,
					Value: value,
				})
			}
			assert.Equal(t, tt.want, usernameOptions(data))
		})
	}
}

func TestCommands_Definitions(t *testing.T) {
	cmds := commands()
	require.Len(t, cmds, 2)

	for _, cmd := range cmds {
		require.Len(t, cmd.Options, 4, "command %s", cmd.Name)
		for i, opt := range cmd.Options {
			assert.Equal(t, discordgo.ApplicationCommandOptionString, opt.Type)
			assert.Equal(t, i < 2, opt.Required, "command %s option %s", cmd.Name, opt.Name)
		}
	}
	assert.Equal(t, commandOverlap, cmds[0].Name)
	assert.Equal(t, commandRandom, cmds[1].Name)
}
