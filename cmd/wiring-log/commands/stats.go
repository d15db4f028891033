package commands

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/remote-wiring/wiring-go/pkg/log"
)

// Stats aggregates a log file.
type Stats struct {
	TotalEvents int
	ByLayer     map[log.Layer]int
	ByCategory  map[log.Category]int
	ByDirection map[log.Direction]int
	Connections map[string]*ConnectionStats
	Errors      int
	Start       time.Time
	End         time.Time
}

// ConnectionStats aggregates one connection's events.
type ConnectionStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	Transport string
}

// RunStats aggregates the log file and prints a summary.
func RunStats(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: wiring-log stats <file.cborlog>")
	}

	reader, err := log.NewReader(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats, err := Collect(reader)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

// Collect reads every event from the reader into aggregate statistics.
func Collect(reader *log.Reader) (*Stats, error) {
	stats := &Stats{
		ByLayer:     make(map[log.Layer]int),
		ByCategory:  make(map[log.Category]int),
		ByDirection: make(map[log.Direction]int),
		Connections: make(map[string]*ConnectionStats),
	}

	for {
		event, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.ByLayer[event.Layer]++
		stats.ByCategory[event.Category]++
		stats.ByDirection[event.Direction]++
		if event.Category == log.CategoryError {
			stats.Errors++
		}

		if stats.Start.IsZero() || event.Timestamp.Before(stats.Start) {
			stats.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.End) {
			stats.End = event.Timestamp
		}

		conn := stats.Connections[event.ConnectionID]
		if conn == nil {
			conn = &ConnectionStats{FirstSeen: event.Timestamp}
			stats.Connections[event.ConnectionID] = conn
		}
		conn.Events++
		conn.LastSeen = event.Timestamp
		if conn.Transport == "" {
			conn.Transport = event.Transport
		}
	}
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintf(w, "Events: %d\n", stats.TotalEvents)
	if stats.TotalEvents == 0 {
		return
	}
	fmt.Fprintf(w, "Time range: %s .. %s (%s)\n",
		stats.Start.UTC().Format(time.RFC3339),
		stats.End.UTC().Format(time.RFC3339),
		stats.End.Sub(stats.Start).Round(time.Millisecond))
	fmt.Fprintf(w, "Errors: %d\n", stats.Errors)

	fmt.Fprintln(w, "\nBy layer:")
	for _, layer := range []log.Layer{log.LayerTransport, log.LayerProtocol, log.LayerDevice} {
		if n := stats.ByLayer[layer]; n > 0 {
			fmt.Fprintf(w, "  %-10s %d\n", layer, n)
		}
	}

	fmt.Fprintln(w, "\nBy direction:")
	for _, dir := range []log.Direction{log.DirectionIn, log.DirectionOut} {
		if n := stats.ByDirection[dir]; n > 0 {
			fmt.Fprintf(w, "  %-4s %d\n", dir, n)
		}
	}

	fmt.Fprintln(w, "\nConnections:")
	ids := make([]string, 0, len(stats.Connections))
	for id := range stats.Connections {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		conn := stats.Connections[id]
		fmt.Fprintf(w, "  %s  %d events  %s  (%s)\n",
			shortenConnID(id), conn.Events, conn.Transport,
			conn.LastSeen.Sub(conn.FirstSeen).Round(time.Millisecond))
	}
}
