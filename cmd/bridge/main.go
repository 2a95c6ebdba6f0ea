package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"webchat-bridge/internal/di"
	"webchat-bridge/internal/domain/entity"
)

// Version is set at build time
var Version = "dev"

var (
	configPath string
	logName    string
	paramsJSON string
)

const shutdownTimeout = 30 * time.Second

var rootCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Editor tools answered by a ChatGPT web session",
	Long: `bridge exposes code assistant tools (review, docs, tests, translation, ...)
to editors and MCP clients. Every tool builds a prompt, sends it to ChatGPT
through a real browser tab (or an OpenAI compatible API) and hands the answer
back as text, a document, a panel or diagnostics.

Examples:
  bridge serve                          # HTTP + WebSocket surface for the webview
  bridge mcp                            # MCP over stdin/stdout
  bridge tools                          # list registered tools
  bridge invoke query_chatgpt --params '{"message":"hello"}'
  bridge screenshot                     # save what the chat tab shows`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve /mcp and /ws/chat over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the tools over MCP stdio",
	Args:  cobra.NoArgs,
	RunE:  runMCP,
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the registered tools",
	Args:  cobra.NoArgs,
	RunE:  runTools,
}

var invokeCmd = &cobra.Command{
	Use:   "invoke <tool>",
	Short: "Invoke one tool and print its result",
	Args:  cobra.ExactArgs(1),
	RunE:  runInvoke,
}

var screenshotCmd = &cobra.Command{
	Use:   "screenshot",
	Short: "Save a screenshot of the chat page",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return invoke(cmd, entity.ToolChatPageScreenshot, entity.Params{})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default bridge.toml)")
	rootCmd.PersistentFlags().StringVar(&logName, "log-name", "bridge", "Name of this run's log file")

	invokeCmd.Flags().StringVarP(&paramsJSON, "params", "p", "{}", "Tool parameters as a JSON object")

	rootCmd.AddCommand(serveCmd, mcpCmd, toolsCmd, invokeCmd, screenshotCmd)
	rootCmd.Version = Version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newContainer() (*di.Container, error) {
	return di.NewContainer(di.Options{
		ConfigPath: configPath,
		LogName:    logName,
		Version:    Version,
	})
}

// start builds the container and brings the bridge up. The returned stop
// shuts it down within shutdownTimeout.
func start(ctx context.Context) (*di.Container, func() error, error) {
	container, err := newContainer()
	if err != nil {
		return nil, nil, err
	}
	stop := func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return container.Close(shutdownCtx)
	}

	if err := container.Bridge.Initialize(ctx); err != nil {
		return nil, nil, errors.Join(err, stop())
	}
	return container, stop, nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func runServe(cmd *cobra.Command, args []string) (err error) {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	container, stop, err := start(ctx)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, stop()) }()

	server := container.HTTPServer()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.ListenAndServe(gctx, container.Config.Server.Addr)
	})
	g.Go(func() error {
		return container.WatchConfig(gctx)
	})

	fmt.Fprintf(os.Stderr, "bridge listening on http://%s\n", container.Config.Server.Addr)
	return g.Wait()
}

func runMCP(cmd *cobra.Command, args []string) (err error) {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	container, stop, err := start(ctx)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, stop()) }()

	server, err := container.MCPServer()
	if err != nil {
		return err
	}

	go func() {
		_ = container.WatchConfig(ctx)
	}()

	// stdout carries JSON-RPC only
	if err := server.Serve(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runTools(cmd *cobra.Command, args []string) error {
	container, err := newContainer()
	if err != nil {
		return err
	}
	defer container.Logger.Close()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	for _, desc := range container.Bridge.Tools() {
		fmt.Fprintf(w, "%s\t%s\n", desc.Name, desc.Description)
	}
	return w.Flush()
}

func runInvoke(cmd *cobra.Command, args []string) error {
	params := entity.Params{}
	if err := json.Unmarshal([]byte(paramsJSON), &params); err != nil {
		return fmt.Errorf("--params must be a JSON object: %w", err)
	}
	return invoke(cmd, entity.ToolName(args[0]), params)
}

func invoke(cmd *cobra.Command, name entity.ToolName, params entity.Params) (err error) {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	container, stop, err := start(ctx)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, stop()) }()

	result, err := container.Bridge.Invoke(ctx, name, params)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), result)
	return nil
}
