package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/go-nfsd/nfsd3/internal/config"
)

var (
	logsFollow bool
	logsLines  int
	logsSince  string
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show or follow the server's log file",
	Long: `Display and optionally follow nfsd3's log output.

This reads the file named by the "logging.output" config key. If the
server is configured to log to stdout or stderr, there is no file to
read and this command reports that instead.

Examples:
  # Show the last 100 lines
  nfsd3 logs

  # Follow new entries as they're written
  nfsd3 logs -f

  # Show only entries since a timestamp
  nfsd3 logs --since "2026-08-01T00:00:00Z"`,
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow the log file for new entries")
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 100, "Number of lines to show")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "Show entries at or after this RFC3339 timestamp")

	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logFile := cfg.Logging.Output
	if logFile == "stdout" || logFile == "stderr" {
		return fmt.Errorf("logging.output is %q, not a file\nset logging.output to a path to use this command", logFile)
	}

	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		return fmt.Errorf("log file not found: %s\nthe server may not have started yet", logFile)
	}

	var since time.Time
	if logsSince != "" {
		since, err = time.Parse(time.RFC3339, logsSince)
		if err != nil {
			return fmt.Errorf("invalid --since (want RFC3339): %w", err)
		}
	}

	if logsFollow {
		return followLogFile(logFile, logsLines, since)
	}
	return showLogFile(logFile, logsLines, since)
}

func showLogFile(path string, lines int, since time.Time) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var kept []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !since.IsZero() {
			if t := lineTimestamp(line); !t.IsZero() && t.Before(since) {
				continue
			}
		}
		kept = append(kept, line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read log file: %w", err)
	}

	start := 0
	if len(kept) > lines {
		start = len(kept) - lines
	}
	for _, line := range kept[start:] {
		fmt.Println(line)
	}
	return nil
}

// followLogFile shows the tail of path, then watches it for writes and
// prints new lines as they land, the way "tail -f" does.
func followLogFile(path string, initial int, since time.Time) error {
	if err := showLogFile(path, initial, since); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("watch log file: %w", err)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("seek log file: %w", err)
	}
	reader := bufio.NewReader(file)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	fmt.Fprintf(os.Stderr, "following %s (ctrl-c to stop)...\n", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Write == fsnotify.Write {
				for {
					line, err := reader.ReadString('\n')
					if err != nil {
						break
					}
					fmt.Print(line)
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher: %w", err)
		}
	}
}

// lineTimestamp extracts the leading timestamp from a log line, in either
// shape logger.Init's handlers emit: the text handler's local-time
// "[2006-01-02 15:04:05]" prefix or the JSON handler's leading "time" field.
func lineTimestamp(line string) time.Time {
	const textLayout, jsonPrefix = "2006-01-02 15:04:05", `{"time":"`
	if len(line) > len(textLayout)+1 && line[0] == '[' {
		if t, err := time.ParseInLocation(textLayout, line[1:1+len(textLayout)], time.Local); err == nil {
			return t
		}
	}
	if rest, ok := strings.CutPrefix(line, jsonPrefix); ok {
		if end := strings.IndexByte(rest, '"'); end > 0 {
			if t, err := time.Parse(time.RFC3339Nano, rest[:end]); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}
