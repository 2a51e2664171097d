package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/pterm/pterm"
	"github.com/urfave/cli/v3"

	"github.com/starford/ansuz/internal"
	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/entryservice"
	"github.com/starford/ansuz/internal/models"
)

func main() {
	cmd := &cli.Command{
		Name:  "ansuz",
		Usage: "Research log: hypotheses, literature and knowledge as Markdown files with lifecycle tracking",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (default: nearest ansuz.yaml walking up)",
				Sources: cli.EnvVars("ANSUZ_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Initialize a repository in the current directory",
				Action: initAction,
			},
			{
				Name:    "hypothesis",
				Aliases: []string{"hyp"},
				Usage:   "Manage hypotheses (active -> proven | disproven -> archived)",
				Commands: []*cli.Command{
					{
						Name:      "new",
						Usage:     "Create a hypothesis",
						ArgsUsage: "<title>",
						Flags:     []cli.Flag{tagFlag()},
						Action:    createAction(models.KindHypothesis),
					},
					{
						Name:      "proven",
						Usage:     "Mark a hypothesis as proven",
						ArgsUsage: "<id>",
						Action:    transitionAction(models.StatusProven),
					},
					{
						Name:      "disproven",
						Usage:     "Mark a hypothesis as disproven",
						ArgsUsage: "<id>",
						Action:    transitionAction(models.StatusDisproven),
					},
					archiveCommand(),
					{
						Name:   "list",
						Usage:  "List hypotheses",
						Flags:  []cli.Flag{statusFlag(), tagFlag(), staleFlag()},
						Action: listAction(models.KindHypothesis),
					},
				},
			},
			{
				Name:    "literature",
				Aliases: []string{"lit"},
				Usage:   "Manage literature reviews (pending -> in_progress -> completed -> archived)",
				Commands: []*cli.Command{
					{
						Name:      "new",
						Usage:     "Create a literature review",
						ArgsUsage: "<title>",
						Flags: []cli.Flag{
							tagFlag(),
							&cli.StringFlag{
								Name:    "source",
								Aliases: []string{"s"},
								Usage:   "Source URL of the reviewed material",
							},
						},
						Action: createAction(models.KindLiterature),
					},
					{
						Name:      "start",
						Usage:     "Mark a review as in progress",
						ArgsUsage: "<id>",
						Action:    transitionAction(models.StatusInProgress),
					},
					{
						Name:      "done",
						Usage:     "Mark a review as completed",
						ArgsUsage: "<id>",
						Action:    transitionAction(models.StatusCompleted),
					},
					archiveCommand(),
					{
						Name:   "list",
						Usage:  "List literature reviews",
						Flags:  []cli.Flag{statusFlag(), tagFlag(), staleFlag()},
						Action: listAction(models.KindLiterature),
					},
				},
			},
			{
				Name:    "knowledge",
				Aliases: []string{"know"},
				Usage:   "Manage knowledge notes (draft -> published -> archived)",
				Commands: []*cli.Command{
					{
						Name:      "new",
						Usage:     "Create a knowledge note",
						ArgsUsage: "<title>",
						Flags:     []cli.Flag{tagFlag()},
						Action:    createAction(models.KindKnowledge),
					},
					{
						Name:      "publish",
						Usage:     "Publish a knowledge note",
						ArgsUsage: "<id>",
						Action:    transitionAction(models.StatusPublished),
					},
					archiveCommand(),
					{
						Name:   "list",
						Usage:  "List knowledge notes",
						Flags:  []cli.Flag{statusFlag(), tagFlag(), staleFlag()},
						Action: listAction(models.KindKnowledge),
					},
				},
			},
			{
				Name:  "ref",
				Usage: "Manage references between entries",
				Commands: []*cli.Command{
					{
						Name:      "add",
						Usage:     "Add a reference from one entry to another",
						ArgsUsage: "<from-id> <to-id>",
						Action:    refAddAction,
					},
					{
						Name:      "remove",
						Usage:     "Remove a reference",
						ArgsUsage: "<from-id> <to-id>",
						Action:    refRemoveAction,
					},
					{
						Name:      "list",
						Usage:     "List the entries an entry references",
						ArgsUsage: "<id>",
						Action:    refListAction,
					},
					{
						Name:      "backlinks",
						Usage:     "List the entries that reference an entry",
						ArgsUsage: "<id>",
						Action:    backlinksAction,
					},
				},
			},
			{
				Name:      "get",
				Usage:     "Show one entry, metadata and body",
				ArgsUsage: "<id>",
				Action:    getAction,
			},
			{
				Name:   "list",
				Usage:  "List entries of every kind",
				Flags:  []cli.Flag{kindFlag(), statusFlag(), tagFlag(), staleFlag()},
				Action: listAction(""),
			},
			{
				Name:   "watch",
				Usage:  "Watch the repository and report drifted or malformed entries",
				Action: watchAction,
			},
			{
				Name:   "mcp",
				Usage:  "Serve read-only repository tools over MCP on stdio",
				Action: mcpAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func newApp(cmd *cli.Command) (*internal.App, error) {
	return internal.NewApp(internal.WithConfigPath(cmd.String("config")))
}

func tagFlag() *cli.StringSliceFlag {
	return &cli.StringSliceFlag{
		Name:    "tag",
		Aliases: []string{"t"},
		Usage:   "Tag to attach (repeatable) or filter by",
	}
}

func statusFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "status",
		Usage: "Only entries with this lifecycle status",
	}
}

func kindFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "kind",
		Usage: "Only entries of this kind (hypothesis, literature, knowledge)",
	}
}

func staleFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:  "stale",
		Usage: "Only open entries untouched for longer than repository.stale_days",
	}
}

func archiveCommand() *cli.Command {
	return &cli.Command{
		Name:      "archive",
		Usage:     "Archive an entry (final)",
		ArgsUsage: "<id>",
		Action:    transitionAction(models.StatusArchived),
	}
}

func requireArg(cmd *cli.Command, pos int, name string) (string, error) {
	v := strings.TrimSpace(cmd.Args().Get(pos))
	if v == "" {
		return "", fmt.Errorf("%s argument is required", name)
	}
	return v, nil
}

func initAction(ctx context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	if err := app.InitRepository(); err != nil {
		return err
	}
	pterm.Success.Printf("repository initialized at %s\n", app.Root())
	return nil
}

func createAction(kind models.Kind) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		e, err := app.Service.Create(ctx, entryservice.CreateParams{
			Kind:      kind,
			Title:     strings.TrimSpace(strings.Join(cmd.Args().Slice(), " ")),
			Tags:      cmd.StringSlice("tag"),
			SourceURL: cmd.String("source"),
		})
		if err != nil {
			return err
		}
		pterm.Success.Printf("created %s %s\n", kind, e.ID)
		pterm.Printf("  %s\n", pterm.Gray(e.Path))
		return nil
	}
}

func transitionAction(to models.Status) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		id, err := requireArg(cmd, 0, "id")
		if err != nil {
			return err
		}
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		e, err := app.Service.Resolve(ctx, id)
		if err != nil {
			return err
		}
		moved, err := app.Service.Transition(ctx, e.ID, to)
		if err != nil {
			return err
		}
		pterm.Success.Printf("%s is now %s\n", moved.ID, moved.Status)
		pterm.Printf("  %s\n", pterm.Gray(moved.Path))
		return nil
	}
}

func listAction(kind models.Kind) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}

		filter := models.ListFilter{Kind: kind, Tag: cmd.String("tag"), Stale: cmd.Bool("stale")}
		if k := cmd.String("kind"); k != "" {
			filter.Kind, err = models.ParseKind(k)
			if err != nil {
				return err
			}
		}
		filter.Status, err = parseStatusFilter(filter.Kind, cmd.String("status"))
		if err != nil {
			return err
		}

		entries, issues, err := app.Service.List(ctx, filter)
		if err != nil {
			return err
		}

		printEntries(entries)
		printIssues(issues)
		return nil
	}
}

func getAction(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, 0, "id")
	if err != nil {
		return err
	}
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	e, err := app.Service.Resolve(ctx, id)
	if err != nil {
		return err
	}

	pterm.Printf("%s\n", pterm.LightCyan(e.Title))
	pterm.Printf("%s %s  %s\n", e.Kind, e.Status, pterm.Gray(e.ID))
	if e.SourceURL != "" {
		pterm.Printf("source:     %s\n", e.SourceURL)
	}
	if len(e.Tags) > 0 {
		pterm.Printf("tags:       %s\n", strings.Join(e.Tags, ", "))
	}
	if len(e.References) > 0 {
		pterm.Printf("references: %s\n", strings.Join(e.References, ", "))
	}
	if e.CreatedBy != nil {
		pterm.Printf("created by: %s\n", e.CreatedBy)
	}
	pterm.Printf("created:    %s\n", e.CreatedAt.Format(time.RFC3339))
	pterm.Printf("updated:    %s\n", e.UpdatedAt.Format(time.RFC3339))
	if e.Body != "" {
		pterm.Println()
		fmt.Print(e.Body)
	}
	return nil
}

func refAddAction(ctx context.Context, cmd *cli.Command) error {
	from, to, app, err := resolvePair(ctx, cmd)
	if err != nil {
		return err
	}
	if err := app.Service.AddReference(ctx, from.ID, to.ID); err != nil {
		return err
	}
	pterm.Success.Printf("%s -> %s\n", from.ID, to.ID)
	return nil
}

func refRemoveAction(ctx context.Context, cmd *cli.Command) error {
	from, to, app, err := resolvePair(ctx, cmd)
	if err != nil {
		return err
	}
	if err := app.Service.RemoveReference(ctx, from.ID, to.ID); err != nil {
		return err
	}
	pterm.Success.Printf("removed %s -> %s\n", from.ID, to.ID)
	return nil
}

func refListAction(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, 0, "id")
	if err != nil {
		return err
	}
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	e, err := app.Service.Resolve(ctx, id)
	if err != nil {
		return err
	}
	if len(e.References) == 0 {
		pterm.Printf("%s references nothing\n", e.ID)
		return nil
	}
	for _, ref := range e.References {
		target, err := app.Service.Get(ctx, ref)
		if err != nil {
			pterm.Warning.Printf("%s (unresolvable: %v)\n", ref, err)
			continue
		}
		printEntryLine(target)
	}
	return nil
}

func backlinksAction(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, 0, "id")
	if err != nil {
		return err
	}
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	e, err := app.Service.Resolve(ctx, id)
	if err != nil {
		return err
	}
	referrers, err := app.Service.Backlinks(ctx, e.ID)
	if err != nil {
		return err
	}
	if len(referrers) == 0 {
		pterm.Printf("nothing references %s\n", e.ID)
		return nil
	}
	printEntries(referrers)
	return nil
}

func watchAction(ctx context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	return app.Watch(ctx)
}

func mcpAction(ctx context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	return app.ServeMCP()
}

// resolvePair resolves the two id arguments reference commands take.
func resolvePair(ctx context.Context, cmd *cli.Command) (*models.Entry, *models.Entry, *internal.App, error) {
	fromID, err := requireArg(cmd, 0, "from-id")
	if err != nil {
		return nil, nil, nil, err
	}
	toID, err := requireArg(cmd, 1, "to-id")
	if err != nil {
		return nil, nil, nil, err
	}
	app, err := newApp(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	from, err := app.Service.Resolve(ctx, fromID)
	if err != nil {
		return nil, nil, nil, err
	}
	to, err := app.Service.Resolve(ctx, toID)
	if err != nil {
		return nil, nil, nil, err
	}
	return from, to, app, nil
}

// parseStatusFilter validates a status filter value against the kind's
// set, or against every set when no kind narrows the listing.
func parseStatusFilter(kind models.Kind, s string) (models.Status, error) {
	if s == "" {
		return "", nil
	}
	if kind != "" {
		return models.ParseStatus(kind, s)
	}
	st := models.Status(s)
	for _, k := range models.Kinds {
		if models.ValidStatus(k, st) {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", apperr.ErrInvalidStatus, s)
}

func printEntries(entries []*models.Entry) {
	if len(entries) == 0 {
		pterm.Println("no entries")
		return
	}
	for _, e := range entries {
		printEntryLine(e)
	}
}

func printEntryLine(e *models.Entry) {
	pterm.Printf("%-10s  %-11s  %-44s  %s\n", e.Kind, e.Status, truncate(e.Title, 44), pterm.Gray(e.ID))
}

func printIssues(issues []entryservice.ParseIssue) {
	for _, is := range issues {
		pterm.Warning.Printf("skipped %s: %v\n", is.Path, is.Err)
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
