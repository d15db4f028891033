// Command wiring-log views and analyzes Firmata protocol log files.
//
// Log files are created by wiring-monitor (or any program wiring a
// FileLogger into its firmata client) with the -protocol-log flag.
//
// Usage:
//
//	wiring-log <command> [flags] <file.cborlog>
//
// Commands:
//
//	view     View a log file in human-readable form
//	export   Export a log file as JSON lines
//	stats    Show aggregate statistics for a log file
//
// Examples:
//
//	# View every event
//	wiring-log view session.cborlog
//
//	# View only outbound transport frames
//	wiring-log view -direction out -layer transport session.cborlog
//
//	# Export to JSONL for further processing
//	wiring-log export session.cborlog > session.jsonl
//
//	# Aggregate statistics
//	wiring-log stats session.cborlog
package main

import (
	"fmt"
	"os"

	"github.com/remote-wiring/wiring-go/cmd/wiring-log/commands"
)

const usage = `wiring-log - Firmata protocol log analyzer

Usage:
  wiring-log <command> [flags] <file.cborlog>

Commands:
  view     View a log file in human-readable form
  export   Export a log file as JSON lines
  stats    Show aggregate statistics for a log file

Use "wiring-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "view":
		err = commands.RunView(args, os.Stdout)
	case "export":
		err = commands.RunExport(args, os.Stdout)
	case "stats":
		err = commands.RunStats(args, os.Stdout)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "wiring-log: %v\n", err)
		os.Exit(1)
	}
}
