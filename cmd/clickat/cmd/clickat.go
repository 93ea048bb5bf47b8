package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"clickat/internal/cache"
	"clickat/internal/clickup"
	"clickat/internal/feedback"
	"clickat/internal/handlers"
	"clickat/internal/notification"
	"clickat/internal/settings"
	"clickat/internal/tui"
	"clickat/internal/utils"
)

// Version is set at build time
var Version = "dev"

// Config holds application configuration
type Config struct {
	Verbose bool
	Silent  bool

	SettingsPath string // Path to the settings file (for testing)
	CachePath    string // Path to the cache database (for testing)

	APIBaseURL   string // Override the API endpoint (for testing)
	APIBaseURLV3 string // Override the v3 API endpoint (for testing)

	Keyring  settings.Keyring     // Override the secret store (for testing)
	Notifier notification.Manager // Override the notifier (for testing)
}

// Execute runs the CLI with the given arguments and IO writers
func Execute(args []string, stdout, stderr io.Writer, cfg *Config) int {
	rootCmd := NewClickat(stdout, stderr, cfg)

	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}

// NewClickat creates the root command with injectable IO
func NewClickat(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	if cfg == nil {
		cfg = &Config{}
	}

	cmd := &cobra.Command{
		Use:     "clickat",
		Short:   "ClickUp launcher workflow backend",
		Long:    "clickat answers launcher queries with ClickUp tasks: create, search, list, edit and close them from a single query string.",
		Version: Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				cfg.Verbose = true
			}
			utils.SetVerboseMode(cfg.Verbose)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "V", false, "Enable verbose/debug output on stderr")
	cmd.PersistentFlags().Bool("silent", false, "Suppress notifications; submit prints only the task URL")

	cmd.AddCommand(newCreateCmd(stdout, cfg))
	cmd.AddCommand(newSubmitCmd(stdout, cfg))
	cmd.AddCommand(newTasksCmd(stdout, cfg))
	cmd.AddCommand(newEditCmd(stdout, cfg))
	cmd.AddCommand(newCloseCmd(stdout, cfg))
	cmd.AddCommand(newConfigCmd(stdout, stderr, cfg))
	cmd.AddCommand(newStoreCmd(stdout, cfg))

	return cmd
}

// runHandler builds the invocation context, runs one handler and sends
// the resulting items to stdout.
func runHandler(cmd *cobra.Command, cfg *Config, stdout io.Writer, h func(*handlers.Context, string) []feedback.Item, query string) error {
	ctx, closer, err := newContext(cmd, cfg)
	if err != nil {
		return err
	}
	defer closer()

	fb := feedback.New()
	fb.AddAll(h(ctx, query))
	return fb.Send(stdout)
}

// newContext wires settings, cache, notifications and logging into a
// handler context. The returned closer releases the cache handle.
func newContext(cmd *cobra.Command, cfg *Config) (*handlers.Context, func(), error) {
	silent, _ := cmd.Flags().GetBool("silent")

	store, err := openSettings(cfg)
	if err != nil {
		return nil, nil, err
	}

	cachePath := cfg.CachePath
	if cachePath == "" {
		cachePath, err = cache.DefaultPath()
		if err != nil {
			return nil, nil, fmt.Errorf("resolving cache path: %w", err)
		}
	}
	ch, err := cache.New(cachePath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening cache: %w", err)
	}

	notifier := cfg.Notifier
	if notifier == nil {
		notifier, err = notification.NewManager(&notification.Config{
			Enabled: true,
			OS:      notification.OSConfig{Enabled: true},
		})
		if err != nil {
			_ = ch.Close()
			return nil, nil, fmt.Errorf("initializing notifications: %w", err)
		}
	}

	ctx := &handlers.Context{
		Log:      utils.GetLogger(),
		Settings: store,
		Cache:    ch,
		Notifier: notifier,
		Silent:   cfg.Silent || silent,
	}
	if cfg.APIBaseURL != "" {
		client, err := clickup.New(clickup.Config{
			APIKey:    store.Get(settings.NameAPIKey),
			BaseURL:   cfg.APIBaseURL,
			BaseURLV3: cfg.APIBaseURLV3,
		})
		if err == nil {
			ctx.Client = client
		}
	}

	closer := func() {
		_ = ch.Close()
		_ = notifier.Close()
	}
	return ctx, closer, nil
}

func openSettings(cfg *Config) (*settings.Store, error) {
	path := cfg.SettingsPath
	if path == "" {
		var err error
		path, err = settings.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("resolving settings path: %w", err)
		}
	}
	var opts []settings.Option
	if cfg.Keyring != nil {
		opts = append(opts, settings.WithKeyring(cfg.Keyring))
	}
	store, err := settings.NewStore(path, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	return store, nil
}

func newCreateCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "create [query]",
		Short: "Parse a create query and suggest completions",
		Long:  "Parse 'name :description #tag @due !priority +list' and emit suggestion items, ending in a confirmation item that carries the task as JSON.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHandler(cmd, cfg, stdout, handlers.HandleCreate, strings.Join(args, " "))
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func newSubmitCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "submit [task-json]",
		Short: "Create the task described by a confirmation item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHandler(cmd, cfg, stdout, handlers.HandleSubmit, args[0])
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func newTasksCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks [query]",
		Short: "List, search or show open tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, _ := cmd.Flags().GetString("mode")
			taskMode := handlers.TaskMode(mode)
			switch taskMode {
			case handlers.ModeList, handlers.ModeOpen, handlers.ModeSearch:
			default:
				return fmt.Errorf("unknown mode: %s (use list, open or search)", mode)
			}
			return runHandler(cmd, cfg, stdout, func(c *handlers.Context, q string) []feedback.Item {
				return handlers.HandleTasks(c, q, taskMode)
			}, strings.Join(args, " "))
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().StringP("mode", "m", "list", "Task view: list (default tag), open (due today), search (by name)")
	return cmd
}

func newEditCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "edit [task-id-or-url]",
		Short: "Show a task's details and edit actions",
		Long:  "Fetch one task and emit a detail view: status, due date, priority, tags and description, plus the close action and a route back to configuration.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHandler(cmd, cfg, stdout, handlers.HandleEdit, args[0])
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func newCloseCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "close [task-id-or-url]",
		Short: "Set a task's status to Closed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHandler(cmd, cfg, stdout, handlers.HandleClose, args[0])
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func newConfigCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config [query]",
		Short: "Show and change settings",
		Long:  "Without arguments the configuration menu is emitted. A query like 'dueDate d2' drives one setting's sub-flow. --interactive starts the terminal setup wizard instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			interactive, _ := cmd.Flags().GetBool("interactive")
			if interactive {
				return runWizard(cfg)
			}
			return runHandler(cmd, cfg, stdout, handlers.HandleConfig, strings.Join(args, " "))
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().BoolP("interactive", "i", false, "Run the terminal setup wizard")
	return cmd
}

func newStoreCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "store [payload]",
		Short: "Persist a configuration value chosen in the launcher",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHandler(cmd, cfg, stdout, handlers.HandleStore, args[0])
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// runWizard starts the interactive first-run setup.
func runWizard(cfg *Config) error {
	store, err := openSettings(cfg)
	if err != nil {
		return err
	}

	model := tui.New(&apiDirectory{cfg: cfg}, store)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// apiDirectory adapts the API client to the wizard's Directory
// interface. The client is rebuilt once the key is known.
type apiDirectory struct {
	cfg    *Config
	client *clickup.Client
}

func (d *apiDirectory) newClient(key string) (*clickup.Client, error) {
	return clickup.New(clickup.Config{
		APIKey:    key,
		BaseURL:   d.cfg.APIBaseURL,
		BaseURLV3: d.cfg.APIBaseURLV3,
	})
}

func (d *apiDirectory) CheckKey(ctx context.Context, key string) error {
	client, err := d.newClient(key)
	if err != nil {
		return err
	}
	if _, err := client.GetAuthorizedUser(ctx); err != nil {
		return err
	}
	d.client = client
	return nil
}

func (d *apiDirectory) Workspaces(ctx context.Context) ([]tui.Option, error) {
	teams, err := d.client.GetTeams(ctx)
	if err != nil {
		return nil, err
	}
	options := make([]tui.Option, len(teams))
	for i, t := range teams {
		options[i] = tui.Option{ID: t.ID, Name: t.Name}
	}
	return options, nil
}

func (d *apiDirectory) Spaces(ctx context.Context, workspaceID string) ([]tui.Option, error) {
	spaces, err := d.client.GetSpaces(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	options := make([]tui.Option, len(spaces))
	for i, s := range spaces {
		options[i] = tui.Option{ID: s.ID, Name: s.Name}
	}
	return options, nil
}

func (d *apiDirectory) Lists(ctx context.Context, spaceID string) ([]tui.Option, error) {
	lists, err := d.client.GetSpaceLists(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	options := make([]tui.Option, len(lists))
	for i, l := range lists {
		options[i] = tui.Option{ID: l.ID, Name: l.Name}
	}
	return options, nil
}
