package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yourusername/vidgrab-go/internal/domain"
	"github.com/yourusername/vidgrab-go/pkg/logger"
)

var historyCmd = &cobra.Command{
	Use:   "history [batch-id]",
	Short: "List past batches, or show one batch with its files",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		client := newClient(serverURL)

		if len(args) == 1 {
			var result struct {
				Batch domain.BatchRecord `json:"batch"`
				URLs  []string           `json:"urls"`
			}
			exitOnError(client.get("/api/v1/history/"+url.PathEscape(args[0]), &result))
			printBatch(result.Batch, result.URLs)
			return
		}

		statsOnly, _ := cmd.Flags().GetBool("stats")
		if statsOnly {
			var stats domain.HistoryStats
			exitOnError(client.get("/api/v1/history/stats", &stats))
			fmt.Println(headLabel("Download History:"))
			fmt.Printf("  Batches:    %d\n", stats.Batches)
			fmt.Printf("  Running:    %d\n", stats.Running)
			fmt.Printf("  Completed:  %d\n", stats.Completed)
			fmt.Printf("  Stopped:    %d\n", stats.Stopped)
			fmt.Printf("  Files:      %d (%d invalid)\n", stats.Files, stats.InvalidFiles)
			fmt.Printf("  Total size: %d bytes\n", stats.TotalSizeBytes)
			return
		}

		limit, _ := cmd.Flags().GetInt("limit")
		var result struct {
			Batches []domain.BatchRecord `json:"batches"`
		}
		exitOnError(client.get("/api/v1/history?limit="+strconv.Itoa(limit), &result))

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATUS\tVIDEOS\tREASON\tDESTINATION\tCREATED")
		for _, b := range result.Batches {
			fmt.Fprintf(w, "%s\t%s\t%d/%d\t%s\t%s\t%s\n",
				truncate(b.ID, 8),
				b.Status,
				b.CompletedCount,
				b.TotalRequested,
				b.CompletionReason,
				truncate(b.DestDir, 40),
				b.CreatedAt.Format("2006-01-02 15:04"))
		}
		w.Flush()
	},
}

func printBatch(b domain.BatchRecord, urls []string) {
	fmt.Println(headLabel("Batch Details:"))
	fmt.Printf("  ID:          %s\n", b.ID)
	fmt.Printf("  Status:      %s\n", b.Status)
	fmt.Printf("  Videos:      %d/%d\n", b.CompletedCount, b.TotalRequested)
	fmt.Printf("  Destination: %s\n", b.DestDir)
	fmt.Printf("  Created:     %s\n", b.CreatedAt.Format("2006-01-02 15:04:05"))
	if b.FinishedAt != nil {
		fmt.Printf("  Finished:    %s (%s)\n", b.FinishedAt.Format("2006-01-02 15:04:05"), b.CompletionReason)
	}

	fmt.Println(headLabel("URLs:"))
	for _, u := range urls {
		fmt.Printf("  %s\n", u)
	}

	if len(b.Files) > 0 {
		fmt.Println(headLabel("Files:"))
		for _, f := range b.Files {
			mark := okLabel("✓")
			if !f.Valid {
				mark = errorLabel("✗")
			}
			fmt.Printf("  %s %s (%d bytes) %s\n", mark, f.Filename, f.SizeBytes, dimLabel(f.Detail))
		}
	}
}

var logsCmd = &cobra.Command{
	Use:   "logs [category]",
	Short: "View server logs (session, engine, error)",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ensureServer()
		client := newClient(serverURL)

		if len(args) == 0 {
			var result struct {
				Categories []struct {
					Name  string   `json:"name"`
					Dates []string `json:"dates"`
				} `json:"categories"`
			}
			exitOnError(client.get("/api/v1/logs/categories", &result))
			for _, c := range result.Categories {
				fmt.Printf("%s %d day(s)\n", headLabel(c.Name+":"), len(c.Dates))
			}
			return
		}

		date, _ := cmd.Flags().GetString("date")
		limit, _ := cmd.Flags().GetInt("limit")
		search, _ := cmd.Flags().GetString("search")
		jsonOutput, _ := cmd.Flags().GetBool("json")

		query := url.Values{}
		query.Set("limit", strconv.Itoa(limit))
		if date != "" {
			query.Set("date", date)
		}
		path := "/api/v1/logs/" + url.PathEscape(args[0])
		if search != "" {
			path += "/search"
			query.Set("q", search)
		}

		var result struct {
			Entries []logger.LogEntry `json:"entries"`
		}
		exitOnError(client.get(path+"?"+query.Encode(), &result))

		if jsonOutput {
			pretty, _ := json.MarshalIndent(result.Entries, "", "  ")
			fmt.Println(string(pretty))
			return
		}
		for _, e := range result.Entries {
			level := e.Level
			switch level {
			case "error":
				level = errorLabel(level)
			case "warn":
				level = warnLabel(level)
			}
			fmt.Printf("%s %-5s %s\n", dimLabel(e.Timestamp), level, e.Message)
		}
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of batches")
	historyCmd.Flags().Bool("stats", false, "Show aggregate statistics")
	logsCmd.Flags().String("date", "", "Date (YYYY-MM-DD, default today)")
	logsCmd.Flags().IntP("limit", "n", 100, "Number of entries")
	logsCmd.Flags().StringP("search", "s", "", "Only entries containing this text")
	logsCmd.Flags().BoolP("json", "j", false, "Output in JSON format")
}
