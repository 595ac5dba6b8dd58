// Package setup registers the lite MCP server with desktop MCP clients.
package setup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
)

// ServerName is the key the lite server is registered under.
const ServerName = "nursing-narrative"

// DataDirEnv is passed to the registered server to locate its data.
const DataDirEnv = "NARRATIVE_DATA_DIR"

// BinaryName is the executable the registration points at.
const BinaryName = "mcp-server-lite"

// ClientConfig is the MCP client configuration file. Entries other than mcpServers are
// preserved untouched.
type ClientConfig struct {
	MCPServers map[string]ServerEntry `json:"mcpServers"`
	extra      map[string]json.RawMessage
}

// ServerEntry launches one MCP server.
type ServerEntry struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// Status summarizes the current registration.
type Status struct {
	ConfigPath string   `json:"config_path"`
	Registered bool     `json:"registered"`
	Command    string   `json:"command,omitempty"`
	DataDir    string   `json:"data_dir"`
	Servers    []string `json:"servers"`
	Issues     []string `json:"issues,omitempty"`
}

// Registrar edits one client configuration file.
type Registrar struct {
	configPath string
}

// NewRegistrar targets the client config at configPath, or the platform default when empty.
func NewRegistrar(configPath string) (*Registrar, error) {
	if configPath == "" {
		p, err := DefaultClientConfigPath()
		if err != nil {
			return nil, err
		}
		configPath = p
	}
	return &Registrar{configPath: configPath}, nil
}

// ConfigPath returns the file the registrar edits.
func (r *Registrar) ConfigPath() string { return r.configPath }

// DefaultClientConfigPath returns the Claude Desktop config location for this platform.
func DefaultClientConfigPath() (string, error) {
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
			break
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config", "Claude")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", errors.New("APPDATA environment variable not set")
		}
		configDir = filepath.Join(appData, "Claude")
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	return filepath.Join(configDir, "claude_desktop_config.json"), nil
}

// DefaultDataDir mirrors the lite server's default data directory.
func DefaultDataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".nursing-narrative")
}

// Load reads the client config. A missing file yields an empty config.
func (r *Registrar) Load() (*ClientConfig, error) {
	cfg := &ClientConfig{MCPServers: map[string]ServerEntry{}, extra: map[string]json.RawMessage{}}

	data, err := os.ReadFile(r.configPath)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
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
		cfg.MCPServers = map[string]ServerEntry{}
	}
	return cfg, nil
}

// Save writes the client config, keeping unrelated top-level keys.
func (r *Registrar) Save(cfg *ClientConfig) error {
	out := make(map[string]interface{}, len(cfg.extra)+1)
	for k, v := range cfg.extra {
		out[k] = v
	}
	out["mcpServers"] = cfg.MCPServers

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.configPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(r.configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Register adds or replaces the lite server entry. An empty binaryPath is resolved with
// FindBinary; an empty dataDir leaves the server on its default.
func (r *Registrar) Register(binaryPath, dataDir string) (*ServerEntry, error) {
	if binaryPath == "" {
		found, err := FindBinary()
		if err != nil {
			return nil, fmt.Errorf("could not find server binary: %w", err)
		}
		binaryPath = found
	}

	cfg, err := r.Load()
	if err != nil {
		return nil, err
	}

	entry := ServerEntry{Command: binaryPath}
	if dataDir != "" {
		entry.Env = map[string]string{DataDirEnv: dataDir}
	}
	cfg.MCPServers[ServerName] = entry

	if err := r.Save(cfg); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Unregister removes the lite server entry. It reports whether one was present.
func (r *Registrar) Unregister() (bool, error) {
	cfg, err := r.Load()
	if err != nil {
		return false, err
	}
	if _, ok := cfg.MCPServers[ServerName]; !ok {
		return false, nil
	}
	delete(cfg.MCPServers, ServerName)
	return true, r.Save(cfg)
}

// Status inspects the registration and the files it points at.
func (r *Registrar) Status() (*Status, error) {
	cfg, err := r.Load()
	if err != nil {
		return nil, err
	}

	status := &Status{ConfigPath: r.configPath, DataDir: DefaultDataDir()}
	for name := range cfg.MCPServers {
		status.Servers = append(status.Servers, name)
	}
	sort.Strings(status.Servers)

	entry, ok := cfg.MCPServers[ServerName]
	if !ok {
		status.Issues = append(status.Issues, "server is not registered")
		return status, nil
	}

	status.Registered = true
	status.Command = entry.Command
	if dir := entry.Env[DataDirEnv]; dir != "" {
		status.DataDir = dir
	}

	if info, err := os.Stat(entry.Command); err != nil {
		status.Issues = append(status.Issues, fmt.Sprintf("server binary not found: %s", entry.Command))
	} else if info.Mode()&0o111 == 0 {
		status.Issues = append(status.Issues, fmt.Sprintf("server binary is not executable: %s", entry.Command))
	}
	if _, err := os.Stat(status.DataDir); errors.Is(err, os.ErrNotExist) {
		status.Issues = append(status.Issues, fmt.Sprintf("data directory will be created on first run: %s", status.DataDir))
	}
	return status, nil
}

// FindBinary looks for the lite binary on PATH, then in common build locations.
func FindBinary() (string, error) {
	if path, err := exec.LookPath(BinaryName); err == nil {
		return path, nil
	}

	home, _ := os.UserHomeDir()
	locations := []string{
		"./" + BinaryName,
		"./bin/" + BinaryName,
		filepath.Join(home, ".local", "bin", BinaryName),
		"/usr/local/bin/" + BinaryName,
	}
	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			if abs, err := filepath.Abs(loc); err == nil {
				return abs, nil
			}
			return loc, nil
		}
	}

	return "", fmt.Errorf("binary %q not found in common locations", BinaryName)
}
