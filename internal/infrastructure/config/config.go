package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"webchat-bridge/internal/application/port/output"
	"webchat-bridge/internal/application/usecase"
)

const (
	DefaultPath = "bridge.toml"

	BackendWeb = "web"
	BackendAPI = "api"
)

type Config struct {
	Backend   string          `toml:"backend"`
	Chat      ChatConfig      `toml:"chat"`
	Browser   BrowserConfig   `toml:"browser"`
	API       APIConfig       `toml:"api"`
	Server    ServerConfig    `toml:"server"`
	UI        UIConfig        `toml:"ui"`
	Workspace WorkspaceConfig `toml:"workspace"`
	Log       LogConfig       `toml:"log"`
}

type ChatConfig struct {
	URL               string                `toml:"url"`
	ReadyTimeout      time.Duration         `toml:"ready_timeout"`
	InputTimeout      time.Duration         `toml:"input_timeout"`
	GenerationTimeout time.Duration         `toml:"generation_timeout"`
	Selectors         usecase.ChatSelectors `toml:"selectors"`
}

type BrowserConfig struct {
	Headless      bool          `toml:"headless"`
	Bin           string        `toml:"bin"`
	UserDataDir   string        `toml:"user_data_dir"`
	NoSandbox     bool          `toml:"no_sandbox"`
	SlowMotion    time.Duration `toml:"slow_motion"`
	// ScreenshotDir receives chat_page_screenshot captures.
	ScreenshotDir string        `toml:"screenshot_dir"`
}

type APIConfig struct {
	Key     string        `toml:"key"`
	Model   string        `toml:"model"`
	BaseURL string        `toml:"base_url"`
	Timeout time.Duration `toml:"timeout"`
}

type ServerConfig struct {
	Addr  string `toml:"addr"`
	Token string `toml:"token"`
}

// UIConfig is handed to the editor webview through GET /config.
type UIConfig struct {
	BackendURL string `toml:"backend_url" json:"backendUrl"`
	BackendWS  string `toml:"backend_ws" json:"backendWs"`
	MCPURL     string `toml:"mcp_url" json:"mcpUrl"`
}

type WorkspaceConfig struct {
	Root       string `toml:"root"`
	ActiveFile string `toml:"active_file"`
	// Selection is "start:end" (1-based lines, inclusive); empty selects
	// nothing.
	Selection  string `toml:"selection"`
	OutDir     string `toml:"out_dir"`
}

type LogConfig struct {
	Dir    string `toml:"dir"`
	Level  string `toml:"level"`
	Stderr bool   `toml:"stderr"`
}

func Default() Config {
	return Config{
		Backend: BackendWeb,
		Chat: ChatConfig{
			URL:               usecase.DefaultChatURL,
			ReadyTimeout:      usecase.DefaultReadyTimeout,
			InputTimeout:      usecase.DefaultInputTimeout,
			GenerationTimeout: usecase.DefaultGenerationTimeout,
			Selectors:         usecase.DefaultChatSelectors(),
		},
		Browser: BrowserConfig{
			Headless:      false,
			UserDataDir:   "./.browser_data",
			NoSandbox:     true,
			ScreenshotDir: "screenshots",
		},
		API: APIConfig{
			Model:   "openai/gpt-4o-mini",
			BaseURL: "https://openrouter.ai/api/v1",
			Timeout: 2 * time.Minute,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8001",
		},
		UI: UIConfig{
			BackendURL: "http://127.0.0.1:8001",
			BackendWS:  "ws://127.0.0.1:8001/ws/chat",
			MCPURL:     "http://127.0.0.1:8050/mcp",
		},
		Workspace: WorkspaceConfig{
			Root:   ".",
			OutDir: ".bridge",
		},
		Log: LogConfig{
			Dir:   "log",
			Level: "info",
		},
	}
}

// Load reads path over the defaults and then applies environment overrides.
// A missing file is not an error when path is the default one.
func Load(path string, env output.ConfigPort) (Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath
	}
	if err := decodeFile(path, &cfg); err != nil {
		if !(errors.Is(err, os.ErrNotExist) && path == DefaultPath) {
			return Config{}, err
		}
	}

	if env != nil {
		applyEnv(&cfg, env)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("config %s: unknown key %s", path, undecoded[0].String())
	}
	return nil
}

func applyEnv(cfg *Config, env output.ConfigPort) {
	cfg.Backend = env.GetWithDefault("BRIDGE_BACKEND", cfg.Backend)

	cfg.Chat.URL = env.GetWithDefault("CHAT_URL", cfg.Chat.URL)
	cfg.Chat.ReadyTimeout = env.GetDuration("CHAT_READY_TIMEOUT", cfg.Chat.ReadyTimeout)
	cfg.Chat.InputTimeout = env.GetDuration("CHAT_INPUT_TIMEOUT", cfg.Chat.InputTimeout)
	cfg.Chat.GenerationTimeout = env.GetDuration("CHAT_GENERATION_TIMEOUT", cfg.Chat.GenerationTimeout)

	cfg.Browser.Headless = env.GetBool("BROWSER_HEADLESS", cfg.Browser.Headless)
	cfg.Browser.Bin = env.GetWithDefault("BROWSER_BIN", cfg.Browser.Bin)
	cfg.Browser.UserDataDir = env.GetWithDefault("BROWSER_USER_DATA_DIR", cfg.Browser.UserDataDir)
	cfg.Browser.NoSandbox = env.GetBool("BROWSER_NO_SANDBOX", cfg.Browser.NoSandbox)
	cfg.Browser.SlowMotion = env.GetDuration("BROWSER_SLOW_MOTION", cfg.Browser.SlowMotion)

	cfg.API.Key = env.GetWithDefault("OPENROUTER_API_KEY", cfg.API.Key)
	cfg.API.Model = env.GetWithDefault("OPENROUTER_MODEL", cfg.API.Model)
	cfg.API.BaseURL = env.GetWithDefault("OPENROUTER_BASE_URL", cfg.API.BaseURL)

	cfg.Server.Addr = env.GetWithDefault("BRIDGE_ADDR", cfg.Server.Addr)
	cfg.Server.Token = env.GetWithDefault("BRIDGE_TOKEN", cfg.Server.Token)

	cfg.Workspace.Root = env.GetWithDefault("WORKSPACE_ROOT", cfg.Workspace.Root)
	cfg.Workspace.ActiveFile = env.GetWithDefault("WORKSPACE_ACTIVE_FILE", cfg.Workspace.ActiveFile)

	cfg.Log.Level = env.GetWithDefault("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Dir = env.GetWithDefault("LOG_DIR", cfg.Log.Dir)
}

func (c Config) Validate() error {
	var errs []error

	switch c.Backend {
	case BackendWeb, BackendAPI:
	default:
		errs = append(errs, fmt.Errorf("backend must be %q or %q, got %q", BackendWeb, BackendAPI, c.Backend))
	}

	if c.Backend == BackendWeb {
		if c.Chat.URL == "" {
			errs = append(errs, errors.New("chat.url is required"))
		}
		for name, d := range map[string]time.Duration{
			"chat.ready_timeout":      c.Chat.ReadyTimeout,
			"chat.input_timeout":      c.Chat.InputTimeout,
			"chat.generation_timeout": c.Chat.GenerationTimeout,
		} {
			if d <= 0 {
				errs = append(errs, fmt.Errorf("%s must be positive", name))
			}
		}
	}

	if c.Backend == BackendAPI {
		if c.API.Key == "" {
			errs = append(errs, errors.New("api.key (or OPENROUTER_API_KEY) is required for the api backend"))
		}
		if c.API.Model == "" {
			errs = append(errs, errors.New("api.model is required for the api backend"))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func (c Config) SessionConfig() usecase.SessionConfig {
	return usecase.SessionConfig{
		URL:          c.Chat.URL,
		ReadyTimeout: c.Chat.ReadyTimeout,
	}
}

func (c Config) WebChatConfig() usecase.WebChatConfig {
	return usecase.WebChatConfig{
		Selectors:         c.Chat.Selectors,
		InputTimeout:      c.Chat.InputTimeout,
		GenerationTimeout: c.Chat.GenerationTimeout,
	}
}
