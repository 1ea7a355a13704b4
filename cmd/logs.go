package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/grovetools/ftrack/cli"
	"github.com/grovetools/ftrack/logging"
	"github.com/grovetools/ftrack/pkg/paths"
	"github.com/grovetools/ftrack/tui/theme"
	"github.com/hpcloud/tail"
	"github.com/spf13/cobra"
)

// NewLogsCmd creates the `logs` command.
func NewLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show ftrack's log file",
		Long: `Print the end of the most recent log file. Logs are written per component
and day to <state dir>/logs/<component>-<date>.log.`,
		Example: `  # Last 50 lines of the newest log
  ftrack logs

  # Follow the session component
  ftrack logs -f --component session

  # Everything, as raw JSON lines (with logging.format: json)
  ftrack logs --tail 0 --json`,
		Args: cobra.NoArgs,
		RunE: runLogsE,
	}
	cmd.Flags().BoolP("follow", "f", false, "Follow log output")
	cmd.Flags().String("component", "", "Only read logs of one component (cli, api, session, clients, tasks, engine)")
	cmd.Flags().IntP("tail", "n", 50, "Number of lines to show from the end (0 shows all)")
	return cmd
}

func runLogsE(cmd *cobra.Command, args []string) error {
	follow, _ := cmd.Flags().GetBool("follow")
	component, _ := cmd.Flags().GetString("component")
	n, _ := cmd.Flags().GetInt("tail")
	raw := cli.GetOptions(cmd).JSONOutput

	dir := paths.LogsDir()
	if cfg, _, err := loadConfig(cmd); err == nil && cfg.Logging.File.Path != "" {
		dir = filepath.Dir(logging.FilePath(cfg.Logging, "cli", time.Now()))
	}

	path, err := findLatestLogFile(dir, component)
	if err != nil {
		return err
	}
	cli.GetLogger(cmd).WithField("path", path).Debug("Reading log file")

	emit := func(line string) {
		if raw {
			fmt.Fprintln(cmd.OutOrStdout(), line)
			return
		}
		printLogText(cmd.OutOrStdout(), line)
	}

	lines, err := lastLines(path, n)
	if err != nil {
		return err
	}
	for _, line := range lines {
		emit(line)
	}
	if !follow {
		return nil
	}
	return followFile(commandContext(cmd), path, emit)
}

// findLatestLogFile returns the newest .log file in dir, preferring files
// that are not empty. With component set only that component's files count.
func findLatestLogFile(dir, component string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("could not read log directory %s: %w", dir, err)
	}

	var latest, latestNonEmpty os.FileInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".log") {
			continue
		}
		if component != "" && !strings.HasPrefix(name, component+"-") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if latest == nil || info.ModTime().After(latest.ModTime()) {
			latest = info
		}
		if info.Size() > 0 && (latestNonEmpty == nil || info.ModTime().After(latestNonEmpty.ModTime())) {
			latestNonEmpty = info
		}
	}

	switch {
	case latestNonEmpty != nil:
		return filepath.Join(dir, latestNonEmpty.Name()), nil
	case latest != nil:
		return filepath.Join(dir, latest.Name()), nil
	case component != "":
		return "", fmt.Errorf("no %s log files found in %s", component, dir)
	default:
		return "", fmt.Errorf("no log files found in %s", dir)
	}
}

func tailConfig(follow bool, whence int) tail.Config {
	return tail.Config{
		Follow:   follow,
		ReOpen:   follow,
		Location: &tail.SeekInfo{Offset: 0, Whence: whence},
		Logger:   stdlog.New(io.Discard, "", 0),
	}
}

// lastLines reads path to the end and keeps the final n lines, or all of
// them when n is not positive.
func lastLines(path string, n int) ([]string, error) {
	t, err := tail.TailFile(path, tailConfig(false, io.SeekStart))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	defer t.Cleanup()

	var lines []string
	for line := range t.Lines {
		if line.Err != nil {
			return nil, line.Err
		}
		lines = append(lines, line.Text)
		if n > 0 && len(lines) > n {
			lines = lines[1:]
		}
	}
	return lines, nil
}

// followFile prints lines appended to path until ctx is canceled. A file
// rotated away by the next day's log is reopened.
func followFile(ctx context.Context, path string, emit func(string)) error {
	t, err := tail.TailFile(path, tailConfig(true, io.SeekEnd))
	if err != nil {
		return fmt.Errorf("failed to follow %s: %w", path, err)
	}
	defer t.Cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = t.Stop()
			return nil
		case line, ok := <-t.Lines:
			if !ok {
				return t.Err()
			}
			if line.Err != nil {
				return line.Err
			}
			emit(line.Text)
		}
	}
}

// printLogText renders a JSON log line as "time LEVEL msg [component]
// key=value". Lines that are not JSON are printed unchanged.
func printLogText(w io.Writer, line string) {
	var logMap map[string]interface{}
	if err := json.Unmarshal([]byte(line), &logMap); err != nil {
		fmt.Fprintln(w, line)
		return
	}

	ts, _ := logMap["time"].(string)
	level, _ := logMap["level"].(string)
	msg, _ := logMap["msg"].(string)
	component, _ := logMap["component"].(string)

	parsedTime, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		parsedTime, _ = time.Parse(time.RFC3339, ts)
	}

	var levelStyle lipgloss.Style
	switch strings.ToLower(level) {
	case "error", "fatal", "panic":
		levelStyle = theme.DefaultTheme.Error
	case "warning", "warn":
		levelStyle = theme.DefaultTheme.Warning
	case "info":
		levelStyle = theme.DefaultTheme.Info
	default:
		levelStyle = theme.DefaultTheme.Muted
	}

	var keys []string
	for k := range logMap {
		switch k {
		case "time", "level", "msg", "component":
		default:
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	fields := make([]string, len(keys))
	for i, k := range keys {
		fields[i] = fmt.Sprintf("%s=%v", theme.DefaultTheme.Muted.Render(k), logMap[k])
	}

	fmt.Fprintf(w, "%s %s %s [%s] %s\n",
		parsedTime.Format("15:04:05"),
		levelStyle.Render(strings.ToUpper(level)),
		msg,
		theme.DefaultTheme.Muted.Render(component),
		strings.Join(fields, " "),
	)
}
