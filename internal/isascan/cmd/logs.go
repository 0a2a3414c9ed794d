package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/nxadm/tail"
	"github.com/spf13/cobra"

	"isascan/internal/logging"
)

const defaultTailLines = 100

func init() {
	logsCmd.Flags().BoolP("follow", "f", false, "Follow log output")
	logsCmd.Flags().IntP("tail", "n", defaultTailLines, "Show only the last N lines (0: all)")
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show the isascan log file",
	Long: `Show the log written when ISASCAN_LOG_TO_FILE=1.
The file is ISASCAN_LOG_FILE, or isascan/isascan.log under the user cache directory.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		follow, _ := cmd.Flags().GetBool("follow")
		n, _ := cmd.Flags().GetInt("tail")
		if n < 0 {
			return fmt.Errorf("--tail must not be negative, got %d", n)
		}
		path := logging.LogFile()
		w := cmd.OutOrStdout()

		if err := printTail(w, path, n); err != nil {
			if errors.Is(err, fs.ErrNotExist) && !follow {
				fmt.Fprintf(cmd.ErrOrStderr(), "No log file at %s\n", path)
				return nil
			}
			if !errors.Is(err, fs.ErrNotExist) {
				return err
			}
		}
		if !follow {
			return nil
		}

		t, err := tail.TailFile(path, tail.Config{
			Follow:    true,
			ReOpen:    true,
			MustExist: false,
			Location:  &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd},
			Logger:    tail.DiscardingLogger,
		})
		if err != nil {
			return fmt.Errorf("failed to tail log file: %w", err)
		}
		defer t.Cleanup()

		ctx := cmd.Context()
		for {
			select {
			case <-ctx.Done():
				t.Stop()
				return nil
			case line, ok := <-t.Lines:
				if !ok {
					return t.Err()
				}
				if line.Err != nil {
					return fmt.Errorf("reading log file: %w", line.Err)
				}
				fmt.Fprintln(w, line.Text)
			}
		}
	},
}

// printTail writes the last n lines of the file at path, or all of them
// when n is zero.
func printTail(w io.Writer, path string, n int) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	lines, err := lastLines(f, n)
	if err != nil {
		return fmt.Errorf("reading log file: %w", err)
	}
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
	return nil
}

// lastLines returns the last n lines of r, or all of them when n is zero.
func lastLines(r io.Reader, n int) ([]string, error) {
	var ring []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		ring = append(ring, sc.Text())
		if n > 0 && len(ring) > n {
			ring = ring[1:]
		}
	}
	return ring, sc.Err()
}
