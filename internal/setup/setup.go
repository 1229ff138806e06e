// Package setup registers the MCP server with desktop MCP clients that read a
// claude_desktop_config.json style file.
package setup

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// ServerName is the key the MCP server is registered under
const ServerName = "hf-risk"

// BinaryName is the MCP server executable looked up on PATH (go install ./cmd/mcp-server)
const BinaryName = "mcp-server"

// ClientConfig represents the desktop client configuration file structure.
// Keys other than mcpServers are preserved on save.
type ClientConfig struct {
	MCPServers map[string]MCPServerConfig `json:"mcpServers"`

	extra map[string]json.RawMessage
}

// MCPServerConfig represents a single MCP server configuration.
type MCPServerConfig struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// Options contains options for the registration.
type Options struct {
	ConfigPath string // client config file; DefaultConfigPath when empty
	BinaryPath string // MCP server binary; looked up when empty
	ConfigFile string // server config.yaml passed through HF_RISK_CONFIG
}

// DefaultConfigPath returns the platform location of the client config file.
func DefaultConfigPath() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support", "Claude")
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			configDir = filepath.Join(xdg, "Claude")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config", "Claude")
		}
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		configDir = filepath.Join(appData, "Claude")
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	return filepath.Join(configDir, "claude_desktop_config.json"), nil
}

// LoadClientConfig loads the client configuration. A missing file yields an empty config.
func LoadClientConfig(path string) (*ClientConfig, error) {
	cfg := &ClientConfig{MCPServers: make(map[string]MCPServerConfig)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg.extra); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if raw, ok := cfg.extra["mcpServers"]; ok {
		if err := json.Unmarshal(raw, &cfg.MCPServers); err != nil {
			return nil, fmt.Errorf("failed to parse mcpServers: %w", err)
		}
		delete(cfg.extra, "mcpServers")
	}
	if cfg.MCPServers == nil {
		cfg.MCPServers = make(map[string]MCPServerConfig)
	}

	return cfg, nil
}

// SaveClientConfig writes the configuration, creating the directory if needed.
func SaveClientConfig(path string, cfg *ClientConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	doc := make(map[string]interface{}, len(cfg.extra)+1)
	for k, v := range cfg.extra {
		doc[k] = v
	}
	doc["mcpServers"] = cfg.MCPServers

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Register adds or replaces the hf-risk entry and returns the config path written.
func Register(opts Options) (string, error) {
	path := opts.ConfigPath
	if path == "" {
		var err error
		if path, err = DefaultConfigPath(); err != nil {
			return "", err
		}
	}

	binaryPath := opts.BinaryPath
	if binaryPath == "" {
		var err error
		if binaryPath, err = exec.LookPath(BinaryName); err != nil {
			return "", fmt.Errorf("could not find %s on PATH, use --binary: %w", BinaryName, err)
		}
	}
	if abs, err := filepath.Abs(binaryPath); err == nil {
		binaryPath = abs
	}

	cfg, err := LoadClientConfig(path)
	if err != nil {
		return "", err
	}

	entry := MCPServerConfig{Command: binaryPath}
	if opts.ConfigFile != "" {
		configFile := opts.ConfigFile
		if abs, err := filepath.Abs(configFile); err == nil {
			configFile = abs
		}
		entry.Env = map[string]string{"HF_RISK_CONFIG": configFile}
	}
	cfg.MCPServers[ServerName] = entry

	if err := SaveClientConfig(path, cfg); err != nil {
		return "", err
	}
	return path, nil
}

// Unregister removes the hf-risk entry. It reports whether an entry existed.
func Unregister(configPath string) (bool, error) {
	cfg, err := LoadClientConfig(configPath)
	if err != nil {
		return false, err
	}
	if _, ok := cfg.MCPServers[ServerName]; !ok {
		return false, nil
	}
	delete(cfg.MCPServers, ServerName)
	return true, SaveClientConfig(configPath, cfg)
}
