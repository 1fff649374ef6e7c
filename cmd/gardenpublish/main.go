// Command gardenpublish publishes an Obsidian vault to a digital garden
// site repository on GitHub.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container
)

func newCommand() *cli.Command {
	noWatch := &cli.BoolFlag{
		Name:  "no-watch",
		Usage: "do not watch the vault for changes; sync on the interval only",
	}

	return &cli.Command{
		Name:  "gardenpublish",
		Usage: "Publish notes from a Markdown vault to a digital garden on GitHub",
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show unpublished, changed, published and deleted notes",
				Action: withApp(statusAction),
			},
			{
				Name:  "publish",
				Usage: "Publish one note, or every changed note and delete orphaned ones",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "note", Aliases: []string{"n"}, Usage: "vault path of a single note to publish"},
					&cli.BoolFlag{Name: "dry-run", Usage: "print the plan without changing the remote"},
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "allow deleting every published note when the vault has none"},
				},
				Action: withApp(publishAction),
			},
			{
				Name:      "delete",
				Usage:     "Delete a published note from the site repository",
				ArgsUsage: "REMOTE_PATH",
				Action:    withApp(deleteAction),
			},
			{
				Name:      "url",
				Usage:     "Print the public URL of a note",
				ArgsUsage: "NOTE_PATH",
				Action:    withApp(urlAction),
			},
			{
				Name:      "mark",
				Usage:     "Add dg-publish: true to a note's frontmatter",
				ArgsUsage: "NOTE_PATH",
				Action:    withApp(markAction),
			},
			{
				Name:   "template",
				Usage:  "Open a pull request updating the site template and settings",
				Action: withApp(templateAction),
			},
			{
				Name:  "history",
				Usage: "List recent template pull requests and publish runs",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "runs", Value: 10, Usage: "number of publish runs to show"},
				},
				Action: withApp(historyAction),
			},
			{
				Name:   "themes",
				Usage:  "List community themes and their supported modes",
				Action: withApp(themesAction),
			},
			{
				Name:  "login",
				Usage: "Validate a GitHub token and store it encrypted",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "token", Usage: "GitHub personal access token", Required: true},
				},
				Action: withApp(loginAction),
			},
			{
				Name:   "serve",
				Usage:  "Run the HTTP API and keep the site in sync",
				Flags:  []cli.Flag{noWatch},
				Action: withApp(serveAction),
			},
			{
				Name:   "watch",
				Usage:  "Keep the site in sync without the HTTP API",
				Flags:  []cli.Flag{noWatch},
				Action: withApp(watchAction),
			},
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		stop()
		os.Exit(1)
	}
}
