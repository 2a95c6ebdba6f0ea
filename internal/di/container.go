package di

import (
	"context"
	"errors"
	"fmt"

	"webchat-bridge/internal/adapter/httpapi"
	"webchat-bridge/internal/adapter/mcp"
	"webchat-bridge/internal/adapter/tool"
	"webchat-bridge/internal/application/port/output"
	"webchat-bridge/internal/application/service"
	"webchat-bridge/internal/application/usecase"
	"webchat-bridge/internal/infrastructure/browser/rod"
	"webchat-bridge/internal/infrastructure/config"
	"webchat-bridge/internal/infrastructure/editor/workspace"
	"webchat-bridge/internal/infrastructure/env"
	"webchat-bridge/internal/infrastructure/llm/openrouter"
	"webchat-bridge/internal/infrastructure/logger"
	"webchat-bridge/internal/infrastructure/prompts"
)

type Container struct {
	Config config.Config
	Env    output.ConfigPort
	Logger output.LoggerPort

	Editor   *workspace.Editor
	Registry *service.ToolRegistryImpl
	Chat     output.ChatPort
	Bridge   *usecase.Bridge

	// Session and WebChat are nil for the api backend.
	Session *usecase.SessionManager
	WebChat *usecase.WebChat

	configPath string
	version    string
}

type Options struct {
	// ConfigPath is the TOML file; empty means config.DefaultPath.
	ConfigPath string
	// LogName names the log file of this run.
	LogName    string
	Version    string
	// Launcher replaces the rod launcher, for tests.
	Launcher   output.BrowserLauncher
	// Env replaces the .env backed settings, for tests.
	Env        output.ConfigPort
}

func NewContainer(opts Options) (*Container, error) {
	envPort := opts.Env
	if envPort == nil {
		envPort = env.NewEnvService(logger.Nop())
	}

	path := opts.ConfigPath
	if path == "" {
		path = config.DefaultPath
	}
	cfg, err := config.Load(path, envPort)
	if err != nil {
		return nil, err
	}

	logCfg := logger.DefaultConfig()
	logCfg.Dir = cfg.Log.Dir
	logCfg.Level = cfg.Log.Level
	logCfg.Stderr = cfg.Log.Stderr
	if opts.LogName != "" {
		logCfg.Name = opts.LogName
	}
	log, err := logger.NewLoggerAdapter(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	lib, err := prompts.NewLibrary()
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to load prompts: %w", err)
	}

	c := &Container{
		Config:     cfg,
		Env:        envPort,
		Logger:     log,
		configPath: path,
		version:    opts.Version,
	}

	c.Editor = workspace.New(workspace.Config{
		Root:       cfg.Workspace.Root,
		ActiveFile: cfg.Workspace.ActiveFile,
		Selection:  cfg.Workspace.Selection,
		OutDir:     cfg.Workspace.OutDir,
	}, log)

	var pages tool.PageSource
	switch cfg.Backend {
	case config.BackendAPI:
		llmCfg := openrouter.DefaultConfig(cfg.API.Key, cfg.API.Model)
		llmCfg.BaseURL = cfg.API.BaseURL
		llmCfg.Timeout = cfg.API.Timeout
		llmCfg.Logger = log
		c.Chat = usecase.Serialize(openrouter.NewOpenRouterAdapter(llmCfg))
	default:
		launch := opts.Launcher
		if launch == nil {
			launch = rod.NewLauncher(browserConfig(cfg.Browser), log)
		}
		c.Session = usecase.NewSessionManager(launch, cfg.SessionConfig(), log)
		c.WebChat = usecase.NewWebChat(c.Session, cfg.WebChatConfig(), log)
		serial := usecase.Serialize(c.WebChat)
		c.Chat = serial
		pages = serial.Pages(c.Session)
	}

	c.Registry = service.NewToolRegistry()
	deps := tool.Deps{
		Registry: c.Registry,
		Invoker:  c.Registry,
		Chat:     c.Chat,
		Editor:   c.Editor,
		Prompts:  lib,
	}
	if pages != nil {
		deps.Pages = pages
		deps.ScreenshotDir = cfg.Browser.ScreenshotDir
	}
	tool.RegisterAll(deps)

	if c.Session != nil {
		c.Bridge = usecase.NewBridge(c.Registry, c.Session, log)
	} else {
		c.Bridge = usecase.NewBridge(c.Registry, nil, log)
	}

	log.Info("Container ready", "backend", cfg.Backend, "tools", len(c.Registry.Descriptors()))
	return c, nil
}

func browserConfig(cfg config.BrowserConfig) rod.BrowserConfig {
	bc := rod.DefaultConfig()
	bc.Headless = cfg.Headless
	bc.Bin = cfg.Bin
	bc.UserDataDir = cfg.UserDataDir
	bc.NoSandbox = cfg.NoSandbox
	bc.SlowMotion = cfg.SlowMotion
	return bc
}

// WatchConfig hands chat selectors from an edited config file to the
// running chat routine. It blocks until ctx ends.
func (c *Container) WatchConfig(ctx context.Context) error {
	if c.WebChat == nil {
		return nil
	}
	return config.Watch(ctx, c.configPath, c.Env, c.Logger, func(cfg config.Config) {
		c.WebChat.SetSelectors(cfg.Chat.Selectors)
	})
}

func (c *Container) MCPServer() (*mcp.Server, error) {
	return mcp.NewServer(c.Bridge, c.version, c.Logger)
}

func (c *Container) HTTPServer() *httpapi.Server {
	return httpapi.New(c.Bridge, httpapi.Options{
		Token:           c.Config.Server.Token,
		UI:              c.Config.UI,
		HistoryCapacity: service.DefaultHistoryCapacity,
		RequestLog:      true,
	}, c.Logger)
}

// Close shuts the bridge down, waiting for running calls until ctx ends,
// and flushes the log.
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	if c.Bridge != nil {
		errs = append(errs, c.Bridge.Shutdown(ctx))
	}
	if c.Logger != nil {
		errs = append(errs, c.Logger.Close())
	}
	return errors.Join(errs...)
}
