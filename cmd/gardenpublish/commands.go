package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/vanadium23/obsidian-digital-garden/internal/application"
	"github.com/vanadium23/obsidian-digital-garden/internal/domain/model"
)

// stdout is where command results go; logs and progress use stderr.
var stdout io.Writer = os.Stdout

// withApp builds the composition root for the duration of one command.
func withApp(fn func(ctx context.Context, cmd *cli.Command, a *app) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()
		return fn(ctx, cmd, a)
	}
}

func requireArg(cmd *cli.Command, name string) (string, error) {
	v := cmd.Args().First()
	if v == "" {
		return "", fmt.Errorf("missing %s argument", name)
	}
	return v, nil
}

func statusAction(ctx context.Context, _ *cli.Command, a *app) error {
	if err := a.requireRemote(); err != nil {
		return err
	}
	status, err := a.garden.GetPublishStatus(ctx)
	if err != nil {
		return err
	}
	printStatus(stdout, status)
	return nil
}

func printStatus(w io.Writer, status model.PublishStatus) {
	section := func(title string, paths []string) {
		fmt.Fprintf(w, "%s (%d)\n", title, len(paths))
		for _, p := range paths {
			fmt.Fprintf(w, "  %s\n", p)
		}
	}
	section("Unpublished", notePaths(status.UnpublishedNotes))
	section("Changed", notePaths(status.ChangedNotes))
	section("Published", notePaths(status.PublishedNotes))
	section("Deleted", status.DeletedNotePaths)
}

func notePaths(notes []model.Note) []string {
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.Path)
	}
	return out
}

func publishAction(ctx context.Context, cmd *cli.Command, a *app) error {
	if err := a.requireRemote(); err != nil {
		return err
	}

	if path := cmd.String("note"); path != "" {
		if err := a.garden.PublishNote(ctx, path); err != nil {
			return err
		}
		url, err := a.garden.NoteURL(ctx, path)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Published %s\n%s\n", path, url)
		return nil
	}

	status, report, err := a.garden.PublishAll(ctx, application.PublishOptions{
		AllowBulkDelete: cmd.Bool("yes"),
		DryRun:          cmd.Bool("dry-run"),
		Progress:        newProgress(os.Stderr),
	})
	if errors.Is(err, model.ErrBulkDeleteNotConfirmed) {
		return fmt.Errorf("%w; rerun with --yes to delete them", err)
	}
	if err != nil {
		return err
	}

	if cmd.Bool("dry-run") {
		printStatus(stdout, status)
		return nil
	}
	if status.InSync() {
		fmt.Fprintln(stdout, "Everything is up to date")
		return nil
	}

	fmt.Fprintln(stdout, report.Summary())
	for _, f := range report.Failures() {
		fmt.Fprintf(stdout, "  failed to %s %s: %v\n", f.Kind, f.Path, f.Err)
	}
	if len(report.Failures()) > 0 {
		return fmt.Errorf("%d of %d items failed", len(report.Failures()), report.Total())
	}
	return nil
}

func deleteAction(ctx context.Context, cmd *cli.Command, a *app) error {
	if err := a.requireRemote(); err != nil {
		return err
	}
	path, err := requireArg(cmd, "remote path")
	if err != nil {
		return err
	}
	if err := a.garden.DeleteNote(ctx, path); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Deleted %s\n", path)
	return nil
}

func urlAction(ctx context.Context, cmd *cli.Command, a *app) error {
	path, err := requireArg(cmd, "note path")
	if err != nil {
		return err
	}
	url, err := a.garden.NoteURL(ctx, path)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, url)
	return nil
}

func markAction(ctx context.Context, cmd *cli.Command, a *app) error {
	path, err := requireArg(cmd, "note path")
	if err != nil {
		return err
	}
	if err := a.garden.MarkPublish(ctx, path); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Marked %s for publishing\n", path)
	return nil
}

func templateAction(ctx context.Context, _ *cli.Command, a *app) error {
	if err := a.requireRemote(); err != nil {
		return err
	}
	url, err := a.garden.CreatePullRequestWithSiteChanges(ctx)
	if err != nil {
		return err
	}
	if url == "" {
		fmt.Fprintln(stdout, "Site template is already up to date")
		return nil
	}
	fmt.Fprintf(stdout, "Pull request created: %s\n", url)
	return nil
}

func historyAction(ctx context.Context, cmd *cli.Command, a *app) error {
	records, err := a.garden.PullRequestHistory(ctx, model.PullRequestHistoryDisplayLimit)
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, "Template pull requests")
	table := tablewriter.NewTable(stdout)
	table.Header("Created", "URL")
	for _, rec := range records {
		if err := table.Append(humanize.Time(rec.CreatedAt), rec.URL); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	runs, err := a.garden.RecentRuns(ctx, int(cmd.Int("runs")))
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, "Publish runs")
	table = tablewriter.NewTable(stdout)
	table.Header("Started", "Published", "Failed", "Deleted", "Delete failed", "Took")
	for _, run := range runs {
		if err := table.Append(
			humanize.Time(run.StartedAt),
			run.Published,
			run.PublishFailed,
			run.Deleted,
			run.DeleteFailed,
			run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String(),
		); err != nil {
			return err
		}
	}
	return table.Render()
}

func themesAction(ctx context.Context, _ *cli.Command, a *app) error {
	themes, err := a.upstream.ListThemes(ctx)
	if err != nil {
		return err
	}

	table := tablewriter.NewTable(stdout)
	table.Header("Name", "Modes", "Repository")
	for _, th := range themes {
		if err := table.Append(th.Name, strings.Join(th.Modes, ", "), th.Repo); err != nil {
			return err
		}
	}
	return table.Render()
}

func loginAction(ctx context.Context, cmd *cli.Command, a *app) error {
	if a.cfg.SecretKey == nil {
		return errors.New("credential storage requires GARDENPUBLISH_SECRET_KEY")
	}
	login, err := a.creds.SetGitHubToken(ctx, cmd.String("token"))
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Logged in as %s\n", login)
	return nil
}
