// Command webview-demo opens a window on a URL and exposes a sample
// bound function to page script. It demonstrates the intended split:
// the main goroutine owns the Webview and blocks in Run, every other
// goroutine talks to it through a Handle.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bnema/webview/internal/config"
	"github.com/bnema/webview/internal/logging"
	"github.com/bnema/webview/pkg/webview"
)

var (
	flagURL     string
	flagBackend string
	flagDebug   bool
	flagTitle   string
	flagWidth   int
	flagHeight  int
	flagConfig  string
)

var rootCmd = &cobra.Command{
	Use:   "webview-demo [url]",
	Short: "Open a webview window on a URL",
	Long: `webview-demo opens a native WebKitGTK window (webkit_cgo builds) or a
remote-controlled Chrome window on the given URL.

The page can call the bound greet function and await its result:

    const reply = await window.greet("Alice");

Press Ctrl-C to close the window.`,
	Args: cobra.MaximumNArgs(1),
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&flagURL, "url", "", "URL to open")
	rootCmd.Flags().StringVar(&flagBackend, "backend", "", "engine backend: auto, webkit or chrome")
	rootCmd.Flags().BoolVar(&flagDebug, "debug", false, "enable developer tooling")
	rootCmd.Flags().StringVar(&flagTitle, "title", "", "window title")
	rootCmd.Flags().IntVar(&flagWidth, "width", 0, "window width")
	rootCmd.Flags().IntVar(&flagHeight, "height", 0, "window height")
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "config directory")
}

func run(cmd *cobra.Command, args []string) error {
	manager, err := config.NewManager(flagConfig)
	if err != nil {
		return err
	}
	cfg, err := manager.Load()
	if err != nil {
		return err
	}

	// Flags win over the config file.
	if flagURL == "" {
		flagURL = cfg.URL
	}
	if len(args) == 1 {
		flagURL = args[0]
	}
	if flagBackend == "" {
		flagBackend = cfg.Backend
	}
	if flagTitle == "" {
		flagTitle = cfg.Window.Title
	}
	if flagWidth == 0 {
		flagWidth = cfg.Window.Width
	}
	if flagHeight == 0 {
		flagHeight = cfg.Window.Height
	}
	debug := flagDebug || cfg.Debug

	logger := logging.New(logging.Config{
		Level:      logging.ParseLevel(cfg.Logging.Level),
		Format:     cfg.Logging.Format,
		TimeFormat: logging.DefaultConfig().TimeFormat,
	})

	backend, err := webview.ParseBackend(flagBackend)
	if err != nil {
		return err
	}

	w, err := webview.New(webview.Options{
		Debug:   debug,
		Backend: backend,
		Logger:  &logger,
		Chrome: webview.ChromeOptions{
			ExecPath:    cfg.Chrome.ExecPath,
			Headless:    cfg.Chrome.Headless,
			UserDataDir: cfg.Chrome.UserDataDir,
			ExtraArgs:   cfg.Chrome.ExtraArgs,
		},
	})
	if err != nil {
		return err
	}
	defer w.Close()

	hint, err := webview.ParseHint(cfg.Window.Hint)
	if err != nil {
		return err
	}

	if err := w.SetTitle(flagTitle); err != nil {
		return err
	}
	if err := w.SetSize(flagWidth, flagHeight, hint); err != nil {
		return err
	}
	if err := w.Navigate(flagURL); err != nil {
		return err
	}

	handle := w.Handle()

	// Reapply window settings when the config file changes, on the
	// engine's own execution context.
	manager.OnChange(func(next *config.Config) {
		err := handle.Dispatch(func(v *webview.View) {
			nextHint, err := webview.ParseHint(next.Window.Hint)
			if err != nil {
				logger.Warn().Err(err).Msg("reloaded config has a bad size hint")
				nextHint = webview.HintNone
			}
			if err := v.SetTitle(next.Window.Title); err != nil {
				logger.Warn().Err(err).Msg("apply reloaded title")
			}
			if err := v.SetSize(next.Window.Width, next.Window.Height, nextHint); err != nil {
				logger.Warn().Err(err).Msg("apply reloaded size")
			}
		})
		if err != nil {
			logger.Debug().Err(err).Msg("config reload after close")
		}
	})
	manager.Watch()

	// greet answers the page through the same handle it was bound on.
	err = w.Bind("greet", func(seq, req string) {
		logger.Info().Str("seq", seq).Str("req", req).Msg("greet called")
		var callArgs []string
		name := "stranger"
		if json.Unmarshal([]byte(req), &callArgs) == nil && len(callArgs) > 0 {
			name = callArgs[0]
		}
		reply, _ := json.Marshal(fmt.Sprintf("Hello %s", name))
		if err := handle.Return(seq, 0, string(reply)); err != nil {
			logger.Warn().Err(err).Msg("greet reply failed")
		}
	})
	if err != nil {
		return err
	}

	// Ctrl-C closes the window from a foreign goroutine, via the
	// non-owning handle.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		logger.Info().Msg("signal received, terminating")
		if err := handle.Terminate(); err != nil {
			logger.Debug().Err(err).Msg("terminate after close")
		}
	}()

	logger.Info().Str("url", flagURL).Stringer("backend", backend).Msg("starting")
	return w.Run()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
