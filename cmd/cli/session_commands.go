package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/vfaronov/httpheader"

	"github.com/yourusername/vidgrab-go/internal/domain"
)

var submitCmd = &cobra.Command{
	Use:   "submit [url...]",
	Short: "Start a download batch on the server",
	Long: `Start a download batch. URLs may be given as arguments, each of
which may hold several comma separated URLs, or read from a file with --file.`,
	Run: func(cmd *cobra.Command, args []string) {
		dest, _ := cmd.Flags().GetString("dest")
		file, _ := cmd.Flags().GetString("file")
		watch, _ := cmd.Flags().GetBool("watch")

		input := strings.Join(args, "\n")
		if file != "" {
			data, err := os.ReadFile(file)
			exitOnError(err)
			input += "\n" + string(data)
		}

		ensureServer()
		client := newClient(serverURL)

		var batch domain.DownloadRequest
		exitOnError(client.post("/api/v1/session", map[string]string{
			"urls":     input,
			"dest_dir": dest,
		}, &batch))

		fmt.Printf("%s %d video(s) → %s\n", okLabel("Download started:"), len(batch.URLs), batch.DestDir)
		fmt.Printf("Batch: %s\n", batch.ID)

		if watch {
			exitOnError(watchSession(client, time.Second))
		}
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current download session",
	Run: func(cmd *cobra.Command, args []string) {
		watch, _ := cmd.Flags().GetBool("watch")
		interval, _ := cmd.Flags().GetDuration("interval")

		ensureServer()
		client := newClient(serverURL)

		if watch {
			exitOnError(watchSession(client, interval))
			return
		}

		var snap domain.SessionSnapshot
		exitOnError(client.get("/api/v1/session", &snap))
		printSnapshot(os.Stdout, snap, barWidth())
	},
}

// watchSession redraws the session until the batch is no longer downloading.
// Without a terminal it prints one status line per change instead.
func watchSession(client *apiClient, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Second
	}
	interactive := isTerminal()
	last := ""

	for {
		var snap domain.SessionSnapshot
		if err := client.get("/api/v1/session", &snap); err != nil {
			return err
		}

		if interactive {
			// clear screen, cursor home
			fmt.Print("\033[H\033[2J")
			printSnapshot(os.Stdout, snap, barWidth())
		} else {
			line := fmt.Sprintf("%d/%d video(s) %.1f%%", snap.CompletedCount, snap.TotalRequested, snap.OverallPercent)
			if snap.Current != nil {
				line += " " + snap.Current.Filename
			}
			if line != last {
				fmt.Println(line)
				last = line
			}
		}

		if !snap.IsDownloading {
			if !interactive {
				printSnapshot(os.Stdout, snap, defaultBarWidth)
			}
			return nil
		}
		time.Sleep(interval)
	}
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running batch after the current video",
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		exitOnError(newClient(serverURL).post("/api/v1/session/stop", nil, nil))
		fmt.Println(warnLabel("Stop requested: the current video finishes first"))
	},
}

var bundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Download all files of the last batch as a zip",
	Run: func(cmd *cobra.Command, args []string) {
		output, _ := cmd.Flags().GetString("output")

		ensureServer()
		resp, err := newClient(serverURL).stream("/api/v1/session/bundle")
		exitOnError(err)
		defer resp.Body.Close()

		if output == "" {
			output = bundleFilename(resp.Header)
		}

		f, err := os.Create(output)
		exitOnError(err)
		n, err := io.Copy(f, resp.Body)
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		exitOnError(err)

		fmt.Printf("%s %s (%d bytes)\n", okLabel("Saved"), output, n)
	},
}

// bundleFilename takes the name from Content-Disposition, falling back to the default
func bundleFilename(h http.Header) string {
	_, filename, _ := httpheader.ContentDisposition(h)
	if filename == "" || strings.ContainsAny(filename, `/\`) {
		return "video_downloads.zip"
	}
	return filename
}

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Show (or clear) the server's debug buffer",
	Run: func(cmd *cobra.Command, args []string) {
		clearLog, _ := cmd.Flags().GetBool("clear")
		limit, _ := cmd.Flags().GetInt("limit")

		ensureServer()
		client := newClient(serverURL)

		if clearLog {
			exitOnError(client.do(http.MethodDelete, "/api/v1/session/debug", nil, nil))
			fmt.Println("Debug log cleared")
			return
		}

		var result struct {
			Entries []string `json:"entries"`
		}
		exitOnError(client.get("/api/v1/session/debug?limit="+strconv.Itoa(limit), &result))
		if len(result.Entries) == 0 {
			fmt.Println(dimLabel("(empty)"))
		}
		for _, e := range result.Entries {
			fmt.Println(e)
		}
	},
}

func init() {
	submitCmd.Flags().StringP("dest", "d", "", "Destination folder (server default if empty)")
	submitCmd.Flags().StringP("file", "f", "", "Read URLs from a file")
	submitCmd.Flags().BoolP("watch", "w", false, "Follow progress until the batch completes")
	statusCmd.Flags().BoolP("watch", "w", false, "Follow progress until the batch completes")
	statusCmd.Flags().Duration("interval", time.Second, "Refresh interval for --watch")
	bundleCmd.Flags().StringP("output", "o", "", "Output file (default from server)")
	debugCmd.Flags().Bool("clear", false, "Clear the debug buffer")
	debugCmd.Flags().IntP("limit", "n", 100, "Number of entries")
}
