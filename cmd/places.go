package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/desertthunder/pinmap/internal/server"
	"github.com/desertthunder/pinmap/internal/shared"
	"github.com/desertthunder/pinmap/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

type pipelineCall func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.RunResult, error)

// Ask interprets a question with the language model and adds every place it names.
func (r *Runner) Ask(ctx context.Context, cmd *cli.Command) error {
	question := strings.TrimSpace(cmd.StringArg("question"))
	if question == "" {
		return fmt.Errorf("%w: a question is required", shared.ErrMissingArgument)
	}
	if err := r.init(ctx); err != nil {
		return err
	}

	r.logger.Info("asking", "question", question)
	return r.runAndReport(ctx, cmd, func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.RunResult, error) {
		return r.pipeline.Ask(ctx, question, progress)
	})
}

// Extract pulls place entries out of text given as an argument, a file or stdin.
func (r *Runner) Extract(ctx context.Context, cmd *cli.Command) error {
	text := cmd.StringArg("text")

	switch path := cmd.String("file"); {
	case path == "-":
		data, err := io.ReadAll(r.input)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(data)
	case path != "":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		text = string(data)
	}

	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: text or --file is required", shared.ErrMissingArgument)
	}
	if err := r.init(ctx); err != nil {
		return err
	}

	r.logger.Info("extracting", "chars", len(text))
	return r.runAndReport(ctx, cmd, func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.RunResult, error) {
		return r.pipeline.ExtractAndRun(ctx, text, progress)
	})
}

// Search resolves the given descriptions in order.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	descriptions := []string{}
	for _, arg := range cmd.Args().Slice() {
		if s := strings.TrimSpace(arg); s != "" {
			descriptions = append(descriptions, s)
		}
	}
	if len(descriptions) == 0 {
		return fmt.Errorf("%w: at least one place description is required", shared.ErrMissingArgument)
	}
	if err := r.init(ctx); err != nil {
		return err
	}

	return r.runAndReport(ctx, cmd, func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.RunResult, error) {
		return r.pipeline.Run(ctx, descriptions, progress)
	})
}

// runAndReport runs call while logging its progress, then prints the outcome.
func (r *Runner) runAndReport(ctx context.Context, cmd *cli.Command, call pipelineCall) error {
	progress := make(chan tasks.ProgressUpdate, 50)

	var g errgroup.Group
	g.Go(func() error {
		for update := range progress {
			switch update.Phase {
			case tasks.Resolve:
				r.logger.Debug(update.Message, "step", update.Step, "total", update.Total)
			default:
				r.logger.Info(update.Message)
			}
		}
		return nil
	})

	result, err := call(ctx, progress)
	close(progress)
	g.Wait()

	if err != nil {
		if result != nil {
			r.writeRunResult(cmd, result)
		}
		return err
	}
	return r.writeRunResult(cmd, result)
}

func (r *Runner) writeRunResult(cmd *cli.Command, result *tasks.RunResult) error {
	if cmd.Bool("json") {
		return r.writeJSON(server.NewRunView(result), true)
	}

	r.writePlain("✓ Added %d of %d places\n", len(result.Added), result.Total)
	for _, m := range result.Added {
		if m.Address != "" {
			r.writePlain("  • %s (%s)\n", m.Name, m.Address)
		} else {
			r.writePlain("  • %s\n", m.Name)
		}
	}
	if notice := result.Notice(); notice != "" {
		r.writePlainln("%s", notice)
	}
	return nil
}
