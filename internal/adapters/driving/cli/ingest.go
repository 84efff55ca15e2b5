package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/raildock/raildoc/internal/logger"
)

// watchDebounce coalesces bursts of filesystem events into one
// re-ingest.
const watchDebounce = 500 * time.Millisecond

var (
	ingestWatch bool
	ingestWhole bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <path>",
	Short: "Load regulation documents into the knowledge store",
	Long: `Ingest chunks regulation documents and stores them in the vector
store. The path may be a directory of regulation files (.pdf, .txt,
.md) or a single text file. With --watch the directory is re-ingested
whenever a regulation file changes.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "re-ingest when files in the directory change")
	ingestCmd.Flags().BoolVar(&ingestWhole, "whole", false, "store a single file as one unchunked unit")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	path := args[0]
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	ctx := cmd.Context()

	if !info.IsDir() {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		name := filepath.Base(path)

		if ingestWhole {
			if err := ingestService.IngestWholeDocument(ctx, string(data), name); err != nil {
				return err
			}
			cmd.Printf("Stored %s as one whole-document unit\n", name)
			return nil
		}

		count, err := ingestService.IngestText(ctx, string(data), name)
		if err != nil {
			return err
		}
		cmd.Printf("Stored %d units from %s\n", count, name)
		return nil
	}

	if ingestWhole {
		return errors.New("--whole requires a single file, not a directory")
	}

	count, err := ingestService.IngestDirectory(ctx, path)
	if err != nil {
		return err
	}
	cmd.Printf("Stored %d units from %s\n", count, path)

	if !ingestWatch {
		return nil
	}
	return watchDirectory(cmd, path)
}

// watchDirectory re-ingests the directory whenever a regulation file is
// created or written. Blocks until interrupted.
func watchDirectory(cmd *cobra.Command, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Watching %s for changes (Ctrl-C to stop)\n", dir)

	// The timer starts drained; each relevant event re-arms it.
	debounce := time.NewTimer(watchDebounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !ingestableFile(event.Name) {
				continue
			}
			logger.Debug("Change detected: %s", event.Name)
			debounce.Reset(watchDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)

		case <-debounce.C:
			count, err := ingestService.IngestDirectory(ctx, dir)
			if err != nil {
				logger.Warn("Re-ingest failed: %v", err)
				continue
			}
			cmd.Printf("Re-ingested %s: %d units\n", dir, count)
		}
	}
}

func ingestableFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".txt", ".md":
		return true
	default:
		return false
	}
}
