package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"go-cosense/internal/data"
	"go-cosense/internal/markdown"
	"go-cosense/internal/metadata"
	"go-cosense/internal/service"

	"github.com/spf13/cobra"
)

var (
	pullJSON  bool
	pinCreate bool
)

var pullCmd = &cobra.Command{
	Use:   "pull <project> <title>",
	Short: "Print the text of a page",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openRepo()
		if err != nil {
			return err
		}
		defer a.Close()

		page, err := a.repo.Pull(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		if pullJSON {
			return printJSON(cmd.OutOrStdout(), page)
		}
		if !page.Persistent {
			return fmt.Errorf("page %s/%s does not exist", args[0], args[1])
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(page.Texts(), "\n"))
		return err
	},
}

var pushCmd = &cobra.Command{
	Use:   "push <project> <title> <file|->",
	Short: "Replace a page with the contents of a file, title line first",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(cmd, args[2])
		if err != nil {
			return err
		}
		lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
		return patch(cmd, args[0], args[1], func(ctx context.Context, _ []data.Line, _ *data.PageMetadata) (*service.Edit, error) {
			return &service.Edit{Lines: lines}, nil
		})
	},
}

var appendCmd = &cobra.Command{
	Use:   "append <project> <title> <line>...",
	Short: "Append lines to the end of a page",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		title := args[1]
		return patch(cmd, args[0], title, func(ctx context.Context, lines []data.Line, _ *data.PageMetadata) (*service.Edit, error) {
			texts := make([]string, 0, len(lines)+len(args)-2)
			for _, l := range lines {
				texts = append(texts, l.Text)
			}
			if len(texts) == 0 {
				texts = append(texts, title)
			}
			return &service.Edit{Lines: append(texts, args[2:]...)}, nil
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import <project> <title> <file.md|->",
	Short: "Convert a Markdown file and write it to a page",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := readInput(cmd, args[2])
		if err != nil {
			return err
		}
		lines := markdown.NewConverter().Page(args[1], []byte(src))
		return patch(cmd, args[0], args[1], func(ctx context.Context, _ []data.Line, _ *data.PageMetadata) (*service.Edit, error) {
			return &service.Edit{Lines: lines}, nil
		})
	},
}

var pinCmd = &cobra.Command{
	Use:   "pin <project> <title>",
	Short: "Pin a page to the top of its project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, a *app) (string, error) {
			return a.service.Pin(ctx, args[0], args[1], service.PinOptions{Create: pinCreate}, a.pushOptions())
		})
	},
}

var unpinCmd = &cobra.Command{
	Use:   "unpin <project> <title>",
	Short: "Unpin a page",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, a *app) (string, error) {
			return a.service.Unpin(ctx, args[0], args[1], a.pushOptions())
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <project> <title>",
	Short: "Delete a page",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, a *app) (string, error) {
			return a.service.DeletePage(ctx, args[0], args[1], a.pushOptions())
		})
	},
}

var metadataCmd = &cobra.Command{
	Use:   "metadata <file|->",
	Short: "Print the links, icons, image and other metadata of a page text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), metadata.Extract(strings.TrimRight(text, "\n"), metadata.WithHost(cfg.Server.Host)))
	},
}

func init() {
	pullCmd.Flags().BoolVar(&pullJSON, "json", false, "Print the page snapshot as JSON")
	pinCmd.Flags().BoolVar(&pinCreate, "create", false, "Create the page if it does not exist")

	rootCmd.AddCommand(pullCmd, pushCmd, appendCmd, importCmd, pinCmd, unpinCmd, deleteCmd, metadataCmd)
}

func withService(cmd *cobra.Command, run func(ctx context.Context, a *app) (string, error)) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	commitID, err := run(cmd.Context(), a)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), commitID)
	return err
}

func patch(cmd *cobra.Command, project, title string, update service.UpdateFunc) error {
	return withService(cmd, func(ctx context.Context, a *app) (string, error) {
		return a.service.Patch(ctx, project, title, update, a.pushOptions())
	})
}

func readInput(cmd *cobra.Command, path string) (string, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		r = f
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(b), nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
