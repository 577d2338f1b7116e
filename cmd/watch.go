package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/naka-gawa/github-star-badge/internal/dom"
	"github.com/naka-gawa/github-star-badge/internal/page"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch FILE",
	Short: "Keeps an annotated copy of a page up to date while it is edited",
	Long: `Loads FILE, annotates it and writes the result to --output. Every time
FILE changes on disk its root containers are reloaded into the live page;
the change is picked up by the debounced watcher, which annotates new links
and rewrites --output. On interrupt all badges are removed and --output is
written one last time.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		logger := newLogger(cmd)

		input := filepath.Clean(args[0])
		output, _ := cmd.Flags().GetString("output")
		if output == "" || filepath.Clean(output) == input {
			fmt.Fprintln(os.Stderr, "Error: --output is required and must differ from FILE.")
			os.Exit(1)
		}

		doc, err := page.Load(input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load page: %v\n", err)
			os.Exit(1)
		}

		var renderMu sync.Mutex
		render := func() {
			renderMu.Lock()
			defer renderMu.Unlock()
			if err := page.WriteFile(doc, output); err != nil {
				logger.Printf("Failed to write %s: %v", output, err)
			}
		}

		rt, err := newRuntime(doc, logger, func(string) { render() })
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to set up session: %v\n", err)
			os.Exit(1)
		}

		if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", rt.metrics.Handler())
			srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Printf("Metrics server stopped: %v", err)
				}
			}()
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()
		}

		fsWatcher, err := fsnotify.NewWatcher()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create file watcher: %v\n", err)
			os.Exit(1)
		}
		defer fsWatcher.Close()
		// Watch the directory so editors that replace the file are still seen.
		if err := fsWatcher.Add(filepath.Dir(input)); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to watch %s: %v\n", input, err)
			os.Exit(1)
		}

		if err := rt.session.OnLoad(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to annotate page: %v\n", err)
			os.Exit(1)
		}
		render()

		watchFile(ctx, fsWatcher, input, doc, rt.roots, logger)

		if err := rt.session.OnUnload(); err != nil {
			logger.Printf("Unload finished with errors: %v", err)
		}
		render()
	},
}

// watchFile reloads input into doc on every change until ctx is done.
func watchFile(ctx context.Context, fsWatcher *fsnotify.Watcher, input string, doc *dom.Document, roots []string, logger *log.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != input || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			fresh, err := page.Load(input)
			if err != nil {
				logger.Printf("Failed to reload %s: %v", input, err)
				continue
			}
			if err := page.Refresh(doc, fresh, roots); err != nil {
				logger.Printf("Failed to refresh page: %v", err)
			}
		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return
			}
			logger.Printf("File watcher error: %v", err)
		}
	}
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringP("output", "o", "", "File the annotated page is written to (required)")
	watchCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
}
