// kot is the command-line client for the kot-bridge service. It talks to
// the service's HTTP API to inspect the bridge, choose a printer and
// dispatch kitchen order tickets.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"
	"github.com/thereceipt/kot-bridge/internal/dispatch"
)

const (
	defaultServerURL = "http://localhost:12212"
	defaultTimeout   = 30 * time.Second
)

var errUsage = errors.New("invalid usage")

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("error: "+err.Error()))
		os.Exit(1)
	}
}

func run(argv []string, stdin io.Reader, stdout io.Writer) error {
	var serverURL string
	var timeout time.Duration

	flagSet := pflag.NewFlagSet("kot", pflag.ContinueOnError)
	flagSet.StringVarP(&serverURL, "server", "s", defaultServerURL, "bridge service URL")
	flagSet.DurationVar(&timeout, "timeout", defaultTimeout, "request timeout")
	flagSet.BoolP("help", "h", false, "show help")
	flagSet.SetOutput(io.Discard)

	if err := flagSet.Parse(argv); err != nil {
		if err == pflag.ErrHelp {
			printUsage(stdout, flagSet)
			return nil
		}
		return err
	}

	if help, _ := flagSet.GetBool("help"); help {
		printUsage(stdout, flagSet)
		return nil
	}

	args := flagSet.Args()
	if len(args) == 0 {
		printUsage(stdout, flagSet)
		return errUsage
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client := NewClient(serverURL, timeout)

	switch args[0] {
	case "help":
		printUsage(stdout, flagSet)
		return nil
	case "status":
		state, err := client.Bridge(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s bridge %s\n", StatusIcon(state.State), state.State)
		return nil
	case "connect":
		state, err := client.Connect(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s bridge %s\n", StatusIcon(state.State), state.State)
		return nil
	case "disconnect":
		state, err := client.Disconnect(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s bridge %s\n", StatusIcon(state.State), state.State)
		return nil
	case "printer":
		return runPrinter(ctx, client, args[1:], stdout)
	case "print":
		if len(args) < 2 {
			return fmt.Errorf("%w: print requires an order file or -", errUsage)
		}
		order, err := readOrder(args[1], stdin)
		if err != nil {
			return err
		}
		outcome, err := client.Print(ctx, order)
		if err != nil {
			return err
		}
		printOutcome(stdout, outcome)
		return nil
	case "print-order":
		if len(args) < 2 {
			return fmt.Errorf("%w: print-order requires an order id", errUsage)
		}
		outcome, err := client.PrintOrder(ctx, args[1])
		if err != nil {
			return err
		}
		printOutcome(stdout, outcome)
		return nil
	case "job":
		return runJob(ctx, client, args[1:], stdout)
	default:
		printUsage(stdout, flagSet)
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}

func runPrinter(ctx context.Context, client *Client, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: printer requires a subcommand (list, select)", errUsage)
	}

	switch args[0] {
	case "list":
		list, err := client.Printers(ctx)
		if err != nil {
			return err
		}
		if len(list.Printers) == 0 {
			fmt.Fprintln(stdout, MutedStyle.Render("no printers discovered"))
			return nil
		}
		fmt.Fprintln(stdout, HeaderStyle.Render("Printers"))
		for _, name := range list.Printers {
			marker := " "
			if name == list.Selected {
				marker = SuccessStyle.Render("*")
			}
			fmt.Fprintf(stdout, "%s %s\n", marker, name)
		}
		return nil
	case "select":
		if len(args) < 2 {
			return fmt.Errorf("%w: printer select requires a name", errUsage)
		}
		if err := client.Select(ctx, args[1]); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s selected %s\n", SuccessStyle.Render("✓"), args[1])
		return nil
	default:
		return fmt.Errorf("%w: unknown printer subcommand %q", errUsage, args[0])
	}
}

func runJob(ctx context.Context, client *Client, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: job requires a subcommand (list, status, clear)", errUsage)
	}

	switch args[0] {
	case "list":
		jobs, err := client.Jobs(ctx)
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			fmt.Fprintln(stdout, MutedStyle.Render("no tickets dispatched"))
			return nil
		}
		fmt.Fprintln(stdout, HeaderStyle.Render(fmt.Sprintf("%-36s  %-10s  %-20s  %s", "ID", "ORDER", "TIER", "STARTED")))
		for _, job := range jobs {
			fmt.Fprintf(stdout, "%-36s  %-10s  %s %-18s  %s\n",
				job.ID, job.OrderNumber, StatusIcon(string(job.Tier)), job.Tier,
				job.StartedAt.Local().Format(time.DateTime))
		}
		return nil
	case "status":
		if len(args) < 2 {
			return fmt.Errorf("%w: job status requires an id", errUsage)
		}
		outcome, err := client.Job(ctx, args[1])
		if err != nil {
			return err
		}
		printOutcome(stdout, outcome)
		return nil
	case "clear":
		if err := client.ClearJobs(ctx); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s journal cleared\n", SuccessStyle.Render("✓"))
		return nil
	default:
		return fmt.Errorf("%w: unknown job subcommand %q", errUsage, args[0])
	}
}

func readOrder(path string, stdin io.Reader) (json.RawMessage, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read order: %w", err)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("order %s is not valid JSON", path)
	}
	return json.RawMessage(data), nil
}

func printOutcome(w io.Writer, o dispatch.Outcome) {
	fmt.Fprintf(w, "%s %s\n", StatusIcon(string(o.Tier)), HeaderStyle.Render(string(o.Tier)))
	fmt.Fprintf(w, "  id:      %s\n", o.ID)
	fmt.Fprintf(w, "  order:   %s (%s)\n", o.OrderNumber, o.OrderID)
	if o.Printer != "" {
		fmt.Fprintf(w, "  printer: %s\n", o.Printer)
	}
	fmt.Fprintf(w, "  copies:  %d\n", o.Copies)
	fmt.Fprintf(w, "  took:    %s\n", o.Duration)
	for _, reason := range o.Absorbed {
		fmt.Fprintf(w, "  %s %s\n", WarningStyle.Render("absorbed:"), reason)
	}
	if o.Rendered != "" {
		fmt.Fprintln(w, TicketStyle.Render(o.Rendered))
	}
}

func printUsage(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintln(w, `kot - kitchen order ticket bridge client

Usage:
  kot [flags] <command> [args]

Commands:
  status                 Show the bridge connection state
  connect                Connect to the print bridge
  disconnect             Drop the bridge connection
  printer list           List discovered printers (* marks the selection)
  printer select <name>  Select the target printer
  print <file|->         Dispatch a ticket for an order JSON document
  print-order <id>       Fetch an order from the backend and dispatch it
  job list               List recent dispatch outcomes
  job status <id>        Show one dispatch outcome
  job clear              Clear the dispatch journal
  help                   Show this help

Flags:`)
	fmt.Fprint(w, flagSet.FlagUsages())
}
