package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"syscall"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/hpungsan/wishlist/internal/app"
	"github.com/hpungsan/wishlist/internal/errors"
	"github.com/hpungsan/wishlist/internal/mcp"
	"github.com/hpungsan/wishlist/internal/state"
	"github.com/hpungsan/wishlist/internal/web"
	"github.com/hpungsan/wishlist/internal/wish"
)

// listOutput is the document printed by list and each watch update.
type listOutput struct {
	Items []wish.Wish `json:"items" yaml:"items"`
}

// deleteOutput is the document printed by delete.
type deleteOutput struct {
	ID      int64 `json:"id" yaml:"id"`
	Deleted bool  `json:"deleted" yaml:"deleted"`
}

// newCLIApp creates the CLI application with all commands.
// Command output goes to out; a may be nil for --help and --version.
func newCLIApp(a *app.App, out io.Writer) *cli.App {
	cliApp := &cli.App{
		Name:    "wishlist",
		Usage:   "Local wish list",
		Version: Version,
		Writer:  out,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "json", Usage: "Output format: json|yaml"},
		},
		Before: func(c *cli.Context) error {
			switch c.String("format") {
			case "json", "yaml":
				return nil
			}
			return outputError(errors.NewInvalidRequest(fmt.Sprintf("unknown format %q (want json or yaml)", c.String("format"))))
		},
		Commands: []*cli.Command{
			addCmd(a),
			listCmd(a),
			getCmd(a),
			updateCmd(a),
			deleteCmd(a),
			watchCmd(a),
			serveCmd(a),
			mcpCmd(a),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	cliApp.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return cliApp
}

// addCmd creates the add command.
func addCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Add a wish",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Wish title (required)"},
			&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Wish description"},
		},
		Action: func(c *cli.Context) error {
			hold := a.NewHolder()
			defer hold.Close()

			if err := hold.Open(c.Context, 0); err != nil {
				return outputError(err)
			}
			hold.SetTitleDraft(c.String("title"))
			hold.SetDescriptionDraft(c.String("description"))

			out, err := hold.Submit(c.Context)
			if err != nil {
				return outputError(err)
			}
			return output(c, out)
		},
	}
}

// listCmd creates the list command.
func listCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List all wishes",
		Action: func(c *cli.Context) error {
			hold := a.NewHolder()
			defer hold.Close()

			select {
			case <-hold.Loaded():
			case <-c.Context.Done():
				return outputError(errors.NewInternal(c.Context.Err()))
			}
			return output(c, listOutput{Items: hold.AllWishes()})
		},
	}
}

// getCmd creates the get command.
func getCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Show a wish",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := parseID(c)
			if err != nil {
				return outputError(err)
			}

			hold := a.NewHolder()
			defer hold.Close()

			w, err := hold.Lookup(c.Context, id)
			if err != nil {
				return outputError(err)
			}
			return output(c, w)
		},
	}
}

// updateCmd creates the update command. Flags not given keep the stored value.
func updateCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Edit a wish",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "New title"},
			&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "New description"},
		},
		Action: func(c *cli.Context) error {
			id, err := parseID(c)
			if err != nil {
				return outputError(err)
			}

			hold := a.NewHolder()
			defer hold.Close()

			if err := hold.Open(c.Context, id); err != nil {
				return outputError(err)
			}
			if c.IsSet("title") {
				hold.SetTitleDraft(c.String("title"))
			}
			if c.IsSet("description") {
				hold.SetDescriptionDraft(c.String("description"))
			}

			out, err := hold.Submit(c.Context)
			if err != nil {
				return outputError(err)
			}
			return output(c, out)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a wish",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := parseID(c)
			if err != nil {
				return outputError(err)
			}

			hold := a.NewHolder()
			defer hold.Close()

			var res state.Result
			select {
			case res = <-hold.DeleteWish(wish.Wish{ID: id}):
			case <-c.Context.Done():
				res.Err = errors.NewInternal(c.Context.Err())
			}
			if res.Err != nil {
				return outputError(res.Err)
			}
			return output(c, deleteOutput{ID: id, Deleted: res.Changed})
		},
	}
}

// watchCmd creates the watch command: it prints the list once, then again
// after every change (including writes by other processes) until interrupted.
func watchCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Stream the wish list as it changes",
		Action: func(c *cli.Context) error {
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			a.WatchExternal(ctx)

			hold := a.NewHolder()
			defer hold.Close()

			latest := make(chan []wish.Wish, 1)
			remove := hold.OnWishes(func(items []wish.Wish) {
				select {
				case <-latest:
				default:
				}
				latest <- items
			})
			defer remove()

			enc := newStreamEncoder(c)
			var last []wish.Wish
			first := true
			for {
				select {
				case <-ctx.Done():
					return nil
				case items := <-latest:
					// Own writes and the file watcher may both report the same change
					if !first && slices.Equal(items, last) {
						continue
					}
					first = false
					last = items
					if err := enc(listOutput{Items: items}); err != nil {
						return outputError(errors.NewInternal(err))
					}
				}
			}
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Interface to listen on (default from config)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Port to listen on (default from config)"},
		},
		Action: func(c *cli.Context) error {
			bind := a.Config.WebBind
			if c.IsSet("bind") {
				bind = c.String("bind")
			}
			port := a.Config.WebPort
			if c.IsSet("port") {
				port = c.Int("port")
			}
			if port <= 0 || port > 65535 {
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("invalid port %d", port)))
			}

			srv, err := web.NewServer(a.Repo, a.Logger, Version, bind, port)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			ctx, cancel := context.WithCancel(c.Context)
			defer cancel()
			a.WatchExternal(ctx)

			if err := web.Run(ctx, srv, a.Logger); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// mcpCmd creates the mcp command (stdio MCP server).
func mcpCmd(a *app.App) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run the MCP server on stdio",
		Action: func(c *cli.Context) error {
			if err := mcp.Run(a.Repo, a.Config, a.Logger, Version); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// Helper functions

// parseID parses the first positional argument as a wish id.
func parseID(c *cli.Context) (int64, error) {
	if c.NArg() == 0 {
		return 0, errors.NewInvalidRequest("wish id is required")
	}
	id, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewInvalidRequest(fmt.Sprintf("invalid wish id %q", c.Args().First()))
	}
	return id, nil
}

// output writes v to the app's writer in the selected format.
func output(c *cli.Context, v any) error {
	if c.String("format") == "yaml" {
		return outputYAML(c.App.Writer, v)
	}
	return outputJSON(c.App.Writer, v)
}

// outputJSON writes v as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputYAML writes v as a YAML document.
func outputYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// newStreamEncoder returns an encoder for a sequence of documents: one JSON
// object per line, or YAML documents separated by "---".
func newStreamEncoder(c *cli.Context) func(any) error {
	if c.String("format") == "yaml" {
		enc := yaml.NewEncoder(c.App.Writer)
		enc.SetIndent(2)
		return enc.Encode
	}
	return json.NewEncoder(c.App.Writer).Encode
}

// outputError formats error for CLI.
func outputError(err error) error {
	wErr := errors.As(err)
	return cli.Exit(fmt.Sprintf("[%s] %s", wErr.Code, wErr.Message), 1)
}
