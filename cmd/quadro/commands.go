package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/falconvolei/quadro/internal/api"
	"github.com/falconvolei/quadro/internal/config"
	"github.com/falconvolei/quadro/internal/handlers"
	"github.com/falconvolei/quadro/internal/render"
	"github.com/spf13/cobra"
)

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "quadro",
		Short: "Falcon Vôlei tactical board",
		Long: `quadro keeps a volleyball lineup, rotates it through the six serving
positions, stores named rotations and renders them as PNG diagrams.`,
		Version:       fmt.Sprintf("%s (built %s)", Version, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configDir, "config", ".", "directory containing "+config.FileName)
	rootCmd.PersistentFlags().StringVar(&a.serverURL, "server", "", "send commands to a running quadro server instead of local storage")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "mirror dispatcher logs to stderr")

	rootCmd.AddCommand(
		commandCmd(a, "show", "Print the lineup and saved rotations", "lineup:get", 0),
		commandCmd(a, "rotate", "Rotate the starters one position clockwise", "lineup:rotate", 0),
		commandCmd(a, "save", "Save the current lineup as a new rotation", "rotation:save", 0),
		commandCmd(a, "list", "List saved rotations", "rotation:list", 0),
		commandCmd(a, "load <id>", "Restore a saved rotation", "rotation:load", 1),
		commandCmd(a, "delete <id>", "Delete a saved rotation", "rotation:delete", 1),
		commandCmd(a, "rename <id> <name>", "Rename a saved rotation", "rotation:rename", 2),
		commandCmd(a, "sub <reserveID> <starterID>", "Swap a reserve onto the court", "lineup:substitute", 2),
		imageCmd(a, "export", "Write the six-rotation sheet for the current lineup", "lineup:export", 0),
		imageCmd(a, "preview <id>", "Write the six-rotation sheet for a saved rotation", "rotation:preview:download", 1),
		playerCmd(a),
		reservesCmd(a),
		execCmd(a),
		serveCmd(a),
	)
	return rootCmd
}

// commandCmd builds a subcommand that runs one dispatcher command and
// prints its JSON result.
func commandCmd(a *app, use, short, command string, nargs int) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.print(cmd, command, args...)
		},
	}
}

func imageCmd(a *app, use, short, command string, nargs int) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.run(cmd.Context(), command, args...)
			if err != nil {
				return err
			}
			var img handlers.Image
			if err := json.Unmarshal(data, &img); err != nil {
				return fmt.Errorf("decode image: %w", err)
			}
			path, err := render.WriteDownload(config.GetString("export.outputDir"), img.Filename, img.Data)
			if err != nil {
				return err
			}
			a.logger.Info("Wrote image", "path", path, "bytes", len(img.Data))
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func playerCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Edit a player",
	}
	cmd.AddCommand(
		commandCmd(a, "name <id> <name>", "Rename a player", "player:name", 2),
		commandCmd(a, "number <id> <n>", "Change a player's jersey number (1-99)", "player:number", 2),
		commandCmd(a, "move <id> <x> <y>", "Move a starter to x%, y% on the court", "player:move", 3),
	)
	return cmd
}

func reservesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reserves",
		Short: "Manage the bench",
	}
	cmd.AddCommand(commandCmd(a, "add", "Add the default reserves", "lineup:reserves:add", 0))
	return cmd
}

func execCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "exec <command> [args...]",
		Short: "Run any board command by name",
		Long: `exec runs a dispatcher command directly, for example:

  quadro exec pointer press 5 50 69.44 false`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.print(cmd, args[0], args[1:]...)
		},
	}
}

func serveCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the board over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.remote != nil {
				return fmt.Errorf("serve cannot be combined with --server")
			}
			if addr == "" {
				addr = config.GetString("http.addr")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return api.NewServer(a.dispatcher, a.logger).ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default http.addr from config)")
	return cmd
}

func (a *app) print(cmd *cobra.Command, command string, args ...string) error {
	data, err := a.run(cmd.Context(), command, args...)
	if err != nil {
		return err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		return fmt.Errorf("format %s result: %w", command, err)
	}
	out.WriteByte('\n')
	_, err = out.WriteTo(cmd.OutOrStdout())
	return err
}
