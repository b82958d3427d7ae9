// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// commands.go - One-shot commands.
//
// Examples:
//   webchat seed                      Load the built-in fixtures
//   webchat seed fixtures.yaml        Load fixtures from a file
//   webchat conversations             List conversations
//   webchat conversations new "Book Club"  Create a conversation
//   webchat history general --json    Print a conversation as JSON
//   webchat config show               Print the effective configuration
//   webchat config init               Write a default config file

package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jeranaias/webchat-tui/internal/config"
	"github.com/jeranaias/webchat-tui/internal/model"
	"github.com/jeranaias/webchat-tui/internal/storage"
	"github.com/jeranaias/webchat-tui/internal/util"
)

// =============================================================================
// SEED
// =============================================================================

func newSeedCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed [file]",
		Short: "Load fixture conversations into the local database",
		Long: `Loads profiles, conversations and messages into the local SQLite store.
Without a file the built-in fixtures are used. Records that already exist are
kept, so seeding twice is harmless.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seed := storage.DefaultSeed()
			if len(args) == 1 {
				data, err := os.ReadFile(args[0])
				if err != nil {
					return NewCommandError("seed", "reading "+args[0], err)
				}
				if seed, err = storage.ParseSeed(data); err != nil {
					return NewCommandError("seed", "parsing "+args[0], err)
				}
			}

			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()
			if a.local == nil {
				return NewCommandError("seed", "seeding needs the sqlite backend", nil)
			}

			ctx, cancel := a.requestContext(cmd.Context())
			defer cancel()

			w := cmd.OutOrStdout()
			return OutputJSON(w, opts.json, "seed", func() (any, error) {
				stats, err := a.local.Seed(ctx, seed, a.selfProfile())
				if err != nil {
					return nil, err
				}
				data := SeedData{
					Database:      a.local.Path(),
					Profiles:      stats.Profiles,
					Conversations: stats.Conversations,
					Messages:      stats.Messages,
				}
				if !opts.json {
					fmt.Fprintf(w, "%s %s\n", RenderConditional(SuccessStyle, "Seeded"), data.Database)
					fmt.Fprintf(w, "  %s %d\n", RenderLabel("Profiles:"), data.Profiles)
					fmt.Fprintf(w, "  %s %d\n", RenderLabel("Conversations:"), data.Conversations)
					fmt.Fprintf(w, "  %s %d\n", RenderLabel("Messages:"), data.Messages)
				}
				return data, nil
			})
		},
	}
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

func newConversationsCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"ls"},
		Short:   "List conversations",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := a.requestContext(cmd.Context())
			defer cancel()

			w := cmd.OutOrStdout()
			return OutputJSON(w, opts.json, "conversations", func() (any, error) {
				convs, err := a.store.ListConversations(ctx)
				if err != nil {
					return nil, err
				}
				if !opts.json {
					printConversationList(w, convs, time.Now())
				}
				data := make([]ConversationData, 0, len(convs))
				for _, c := range convs {
					data = append(data, ConversationData{
						ID:             c.ID,
						Name:           c.Title(),
						LastMessage:    c.LastMessagePreview,
						LastActivityAt: c.LastActivityAt,
					})
				}
				return data, nil
			})
		},
	}
	cmd.AddCommand(newConversationCreateCommand(opts))
	return cmd
}

func newConversationCreateCommand(opts *globalOptions) *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create a conversation in the local database",
		Long: `Creates a conversation in the local SQLite store. The id is derived from
the name unless --id is given. An existing conversation with that id is renamed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()
			if a.local == nil {
				return NewCommandError("conversations new", "creating conversations needs the sqlite backend", nil)
			}

			ctx, cancel := a.requestContext(cmd.Context())
			defer cancel()

			w := cmd.OutOrStdout()
			return OutputJSON(w, opts.json, "conversations new", func() (any, error) {
				created, err := a.local.CreateConversation(ctx, id, args[0], a.cfg.Identity.UserID, time.Time{})
				if err != nil {
					return nil, err
				}
				conv, err := a.local.GetConversation(ctx, created)
				if err != nil {
					return nil, err
				}
				data := ConversationData{
					ID:             conv.ID,
					Name:           conv.Title(),
					LastMessage:    conv.LastMessagePreview,
					LastActivityAt: conv.LastActivityAt,
				}
				if !opts.json {
					fmt.Fprintf(w, "%s %s %s\n", RenderConditional(SuccessStyle, "Created"), data.Name,
						RenderConditional(DimStyle, "("+data.ID+")"))
				}
				return data, nil
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Conversation id (default: derived from the name)")
	return cmd
}

func printConversationList(w io.Writer, convs []model.Conversation, now time.Time) {
	if len(convs) == 0 {
		fmt.Fprintln(w, "No conversations. Run 'webchat seed' to load the fixtures.")
		return
	}
	fmt.Fprintln(w, RenderConditional(TitleStyle, "Conversations"))
	fmt.Fprintln(w, RenderSeparator(60))
	for _, c := range convs {
		when := "never"
		if !c.LastActivityAt.IsZero() {
			when = humanize.RelTime(c.LastActivityAt, now, "ago", "from now")
		}
		fmt.Fprintf(w, "%s %s %s\n",
			util.PadRight(util.TruncateWidth(c.ID, 20), 20),
			util.PadRight(util.TruncateWidth(c.Title(), 24), 24),
			RenderConditional(DimStyle, when))
		if c.LastMessagePreview != "" {
			fmt.Fprintf(w, "%s %s\n", util.PadRight("", 20),
				RenderConditional(DimStyle, util.TruncateWidth(util.SingleLine(c.LastMessagePreview), 50)))
		}
	}
}

// =============================================================================
// HISTORY
// =============================================================================

func newHistoryCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history <conversation>",
		Short: "Print the messages of a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := a.requestContext(cmd.Context())
			defer cancel()

			w := cmd.OutOrStdout()
			self := a.cfg.IdentityModel()
			return OutputJSON(w, opts.json, "history", func() (any, error) {
				msgs, names, err := a.history(ctx, args[0])
				if err != nil {
					return nil, err
				}
				data := make([]MessageData, 0, len(msgs))
				for _, msg := range msgs {
					data = append(data, MessageData{
						ID:        msg.ID,
						Author:    names[msg.AuthorID],
						AuthorID:  msg.AuthorID,
						Content:   msg.Content,
						CreatedAt: msg.CreatedAt,
						ReplyTo:   msg.ReplyToID,
					})
				}
				if !opts.json {
					printHistory(w, data, self, ColorsEnabled())
				}
				return data, nil
			})
		},
	}
}

func printHistory(w io.Writer, msgs []MessageData, self model.Identity, highlight bool) {
	if len(msgs) == 0 {
		fmt.Fprintln(w, "No messages yet.")
		return
	}
	byID := make(map[string]MessageData, len(msgs))
	for _, msg := range msgs {
		byID[msg.ID] = msg
	}

	for _, msg := range msgs {
		author, style := msg.Author, AuthorStyle
		if msg.AuthorID == self.UserID {
			author, style = "You", SelfStyle
		}
		fmt.Fprintf(w, "%s %s\n", RenderConditional(style, author),
			RenderConditional(DimStyle, msg.CreatedAt.Local().Format("Jan 2 3:04 PM")))
		if msg.ReplyTo != "" {
			if target, ok := byID[msg.ReplyTo]; ok {
				fmt.Fprintf(w, "    %s\n", RenderConditional(DimStyle,
					"> "+target.Author+": "+util.TruncateRunes(util.SingleLine(target.Content), 60)))
			}
		}
		body := msg.Content
		if highlight {
			body = highlightBody(body)
		}
		fmt.Fprintf(w, "    %s\n\n", body)
	}
}

// =============================================================================
// CONFIG
// =============================================================================

func newConfigCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the configuration file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (token redacted)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), cfg.String())
			return nil
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.configPath
			if path == "" {
				var err error
				if path, err = config.ConfigPath(); err != nil {
					return err
				}
			}
			if _, err := os.Stat(path); err == nil && !force {
				return NewCommandError("config init", path+" already exists (use --force to overwrite)", nil)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			if err := config.SaveTOML(config.Default(), path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", RenderConditional(SuccessStyle, "Wrote"), path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	cmd.AddCommand(initCmd)

	return cmd
}
