package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/scribe/internal/config"
	"github.com/MikeSquared-Agency/scribe/internal/inject"
	"github.com/MikeSquared-Agency/scribe/internal/notion"
	"github.com/MikeSquared-Agency/scribe/internal/processor"
	"github.com/MikeSquared-Agency/scribe/internal/prompt"
	"github.com/MikeSquared-Agency/scribe/internal/response"
)

type options struct {
	json   bool
	pageID string

	// Overridable in tests.
	clipboard inject.Clipboard
	exporter  processor.Exporter
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(&options{})
}

func newRootCmdWith(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:           "scribectl",
		Short:         "Summarize saved chat pages and archive them to Notion",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&opts.json, "json", false, "Print machine-readable JSON")
	root.PersistentFlags().StringVar(&opts.pageID, "page-id", "cli", "Page identifier used in events and archives")

	root.AddCommand(
		newThreadCmd(opts),
		newPromptCmd(opts),
		newParseCmd(opts),
		newSaveCmd(opts),
	)
	return root
}

func (o *options) processor() *processor.Processor {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	clip := o.clipboard
	if clip == nil {
		clip = inject.SystemClipboard{}
	}
	exp := o.exporter
	if exp == nil {
		cfg := config.Load()
		exp = notion.NewClient(cfg.NotionToken, cfg.NotionDatabaseID, logger)
	}

	return processor.New(processor.Deps{
		Exporter: exp,
		Injector: inject.New(nil, clip, logger),
	}, logger)
}

func newThreadCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "thread FILE",
		Short: "Print the conversation found in a saved page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			html, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			msgs, err := opts.processor().Transcript(html)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.json {
				return writeJSON(out, msgs)
			}
			if msgs.Empty() {
				fmt.Fprintln(out, color.YellowString("No conversation found."))
				return nil
			}
			for _, m := range msgs {
				fmt.Fprintf(out, "%s\n%s\n\n", color.CyanString(prompt.Label(m.Role)), m.Content)
			}
			return nil
		},
	}
}

func newPromptCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "prompt FILE",
		Short: "Build the summarization prompt for a saved page and copy it to the clipboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			html, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			res, err := opts.processor().PreparePrompt(opts.pageID, html)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.json {
				return writeJSON(out, res)
			}
			fmt.Fprintln(out, res.Prompt)
			if res.Outcome.Clipboard {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s Copied prompt for %d messages to the clipboard.\n", color.GreenString("✓"), res.Messages)
			} else {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s Clipboard unavailable: %s\n", color.YellowString("!"), res.Outcome.ClipboardError)
			}
			return nil
		},
	}
}

func newParseCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "parse FILE|-",
		Short: "Extract the summary JSON from a model reply",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fields, err := response.Parse(text)
			if err != nil {
				if opts.json {
					return writeJSON(out, map[string]any{"found": false})
				}
				fmt.Fprintf(out, "%s No JSON result in reply.\n", color.YellowString("!"))
				return nil
			}

			rec := response.ToRecord(fields)
			if opts.json {
				return writeJSON(out, map[string]any{"found": true, "record": rec})
			}
			printRecord(out, rec)
			return nil
		},
	}
}

func newSaveCmd(opts *options) *cobra.Command {
	var index int
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "save FILE",
		Short: "Draft a record from a response on a saved page and export it to Notion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			html, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			proc := opts.processor()
			draftFn := proc.DraftRecord
			if dryRun {
				draftFn = proc.Draft
			}
			draft, err := draftFn(opts.pageID, html, index)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if dryRun {
				if opts.json {
					return writeJSON(out, draft)
				}
				printRecord(out, draft.Record)
				return nil
			}

			res := proc.Save(cmd.Context(), opts.pageID, draft.Record)
			if opts.json {
				if err := writeJSON(out, res); err != nil {
					return err
				}
			} else if res.Success {
				fmt.Fprintf(out, "%s Saved %q: %s\n", color.GreenString("✓"), draft.Record.Title, res.PageURL)
			}
			if !res.Success {
				return fmt.Errorf("export failed: %s", res.Error)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&index, "response", "r", 0, "Index of the model response on the page")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the record without exporting it")
	return cmd
}

// readInput reads a file, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

func printRecord(w io.Writer, rec response.Record) {
	field := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(w, "%s %s\n", field("title:  "), rec.Title)
	fmt.Fprintf(w, "%s %s\n", field("date:   "), rec.Date)
	fmt.Fprintf(w, "%s %s\n", field("summary:"), rec.Summary)
	fmt.Fprintf(w, "%s\n%s\n", field("content:"), rec.Content)
	fmt.Fprintf(w, "%s\n%s\n", field("todos:"), rec.Todos)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
