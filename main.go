package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/spf13/cobra"

	"voxtray/audio"
	"voxtray/config"
	"voxtray/doctor"
	"voxtray/log"
	"voxtray/login"
)

var version = "dev"

type options struct {
	configPath string
	logPath    string
	device     string
	lang       string
	ui         string
	setup      bool
	hotkey     bool
	console    bool
	testWAV    string
	fakeText   string
}

func run() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "voxtray",
		Short: "Toggle dictation from the system tray",
		Long: "voxtray records the microphone while toggled on, sends the clip to a Whisper\n" +
			"endpoint and copies the text to the clipboard. Toggle with the tray menu,\n" +
			"the TUI space bar, an optional global hotkey or `kill -USR1 <pid>`.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogDir(opts.logPath)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return report(err)
			}
			if opts.testWAV != "" {
				return report(runTestMode(cfg, opts))
			}
			return report(runApp(cfg, opts))
		},
	}

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("voxtray {{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "config file (default "+filepath.Join(config.Dir(), "config.toml")+")")
	pf.StringVar(&opts.logPath, "logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	pf.StringVar(&opts.device, "device", "", "use named microphone device")
	pf.StringVar(&opts.lang, "lang", "", "language code for transcription (e.g. ru, en). Empty = auto-detect")

	f := rootCmd.Flags()
	f.BoolVar(&opts.setup, "setup", false, "select microphone device interactively")
	f.StringVar(&opts.ui, "ui", "", "status surface: tray, tui or none")
	f.BoolVar(&opts.hotkey, "hotkey", false, "also toggle on Ctrl+Shift+Space")
	f.BoolVar(&opts.console, "console", false, "mirror diagnostics to stderr")
	f.StringVar(&opts.testWAV, "test", "", "headless mode replaying a WAV file, driven by stdin")
	f.StringVar(&opts.fakeText, "fake-text", "", "with --test, return this text instead of calling the API")

	rootCmd.AddCommand(newDoctorCmd(opts))
	rootCmd.AddCommand(newDevicesCmd())
	rootCmd.AddCommand(newAutostartCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newDoctorCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run system diagnostics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return report(err)
			}
			if failed := doctor.Run(cfg); failed != 0 {
				os.Exit(failed)
			}
			return nil
		},
	}
}

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List audio input devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actx, err := audio.NewContext()
			if err != nil {
				return report(fmt.Errorf("initializing audio: %w", err))
			}
			defer actx.Close()

			devices, err := actx.Devices()
			if err != nil {
				return report(err)
			}
			if len(devices) == 0 {
				return report(audio.ErrNoDevice)
			}
			for _, d := range devices {
				mark := " "
				if d.Default {
					mark = "*"
				}
				fmt.Printf("%s %s\n", mark, d.Name)
			}
			return nil
		},
	}
}

func newAutostartCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "autostart [on|off]",
		Short:     "Start voxtray in the tray when the desktop session starts",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				if login.Enabled() {
					fmt.Printf("autostart on (%s)\n", login.Path())
				} else {
					fmt.Println("autostart off")
				}
				return nil
			}
			switch args[0] {
			case "on":
				if err := login.Enable(); err != nil {
					return report(err)
				}
				fmt.Printf("autostart on (%s)\n", login.Path())
			case "off":
				if err := login.Disable(); err != nil {
					return report(err)
				}
				fmt.Println("autostart off")
			default:
				return report(fmt.Errorf("unknown argument %q (want on or off)", args[0]))
			}
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("voxtray %s\n", version)
		},
	}
}

// loadConfig reads the config layers and then applies flags the user set.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("device") {
		cfg.Device = opts.device
	}
	if flags.Changed("lang") {
		cfg.Language = opts.lang
	}
	if flags.Changed("ui") {
		cfg.UI = opts.ui
	}
	if flags.Changed("hotkey") {
		cfg.Hotkey = opts.hotkey
	}
	return cfg, nil
}

func setupLogDir(flagPath string) error {
	logPath, err := log.ResolveDir(flagPath)
	if err != nil {
		return report(fmt.Errorf("failed to resolve log directory: %w", err))
	}
	log.SetDir(logPath)

	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
		return nil
	}
	initCrashLog()
	return nil
}

// initCrashLog sends fatal runtime errors to crash_log.txt in the log dir.
func initCrashLog() {
	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
	debug.SetCrashOutput(crashFile, debug.CrashOptions{})
}

func report(err error) error {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}
