package setup

import (
	"flag"
	"fmt"
	"io"
	"os"
)

const usage = `Nursing Narrative MCP Server Setup

Usage:
  mcp-server-lite setup <command> [options]

Commands:
  claude-desktop  Register the server with Claude Desktop
  status          Show the current registration
  remove          Remove the registration

Options for claude-desktop:
  --binary PATH    Server binary (defaults to this executable)
  --data-dir DIR   Data directory passed as NARRATIVE_DATA_DIR
  --config PATH    Client config file (defaults to the platform location)
`

// CLI provides command-line interface for setup operations.
type CLI struct {
	out        io.Writer
	executable func() (string, error)
}

// NewCLI creates a new setup CLI writing to out.
func NewCLI(out io.Writer) *CLI {
	return &CLI{out: out, executable: os.Executable}
}

// Run executes the setup command based on the provided arguments.
func (c *CLI) Run(args []string) error {
	if len(args) == 0 {
		fmt.Fprint(c.out, usage)
		return nil
	}

	switch args[0] {
	case "claude-desktop":
		return c.register(args[1:])
	case "status":
		return c.status(args[1:])
	case "remove":
		return c.remove(args[1:])
	case "help", "--help", "-h":
		fmt.Fprint(c.out, usage)
		return nil
	default:
		fmt.Fprint(c.out, usage)
		return fmt.Errorf("unknown setup command: %s", args[0])
	}
}

func (c *CLI) flags(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.out)
	configPath := fs.String("config", "", "client config file")
	return fs, configPath
}

func (c *CLI) register(args []string) error {
	fs, configPath := c.flags("claude-desktop")
	binary := fs.String("binary", "", "server binary")
	dataDir := fs.String("data-dir", "", "data directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *binary == "" {
		if exe, err := c.executable(); err == nil {
			*binary = exe
		}
	}

	registrar, err := NewRegistrar(*configPath)
	if err != nil {
		return err
	}
	entry, err := registrar.Register(*binary, *dataDir)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Registered %q in %s\n", ServerName, registrar.ConfigPath())
	fmt.Fprintf(c.out, "  command: %s\n", entry.Command)
	if dir := entry.Env[DataDirEnv]; dir != "" {
		fmt.Fprintf(c.out, "  %s: %s\n", DataDirEnv, dir)
	}
	fmt.Fprintln(c.out, "Restart Claude Desktop to load the server.")
	return nil
}

func (c *CLI) status(args []string) error {
	fs, configPath := c.flags("status")
	if err := fs.Parse(args); err != nil {
		return err
	}

	registrar, err := NewRegistrar(*configPath)
	if err != nil {
		return err
	}
	status, err := registrar.Status()
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Config file: %s\n", status.ConfigPath)
	fmt.Fprintf(c.out, "Registered:  %t\n", status.Registered)
	if status.Registered {
		fmt.Fprintf(c.out, "Command:     %s\n", status.Command)
	}
	fmt.Fprintf(c.out, "Data dir:    %s\n", status.DataDir)
	for _, issue := range status.Issues {
		fmt.Fprintf(c.out, "  ! %s\n", issue)
	}
	return nil
}

func (c *CLI) remove(args []string) error {
	fs, configPath := c.flags("remove")
	if err := fs.Parse(args); err != nil {
		return err
	}

	registrar, err := NewRegistrar(*configPath)
	if err != nil {
		return err
	}
	removed, err := registrar.Unregister()
	if err != nil {
		return err
	}
	if removed {
		fmt.Fprintf(c.out, "Removed %q from %s\n", ServerName, registrar.ConfigPath())
	} else {
		fmt.Fprintf(c.out, "%q was not registered in %s\n", ServerName, registrar.ConfigPath())
	}
	return nil
}
