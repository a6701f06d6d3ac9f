/*
main.go - Command-line rebate calculator

PURPOSE:
  Evaluates one farm input against the configured programs without a
  server or database and prints the ranked programs.

USAGE:
  rebatecalc -scenario default-form
  rebatecalc -input farm.json [-assumptions table.xlsx] [-programs programs.yaml]
  rebatecalc -scenario small-farm -notes
  rebatecalc -input farm.json -json
  rebatecalc -list

The input file uses the same JSON shape as POST /api/evaluate.

SEE ALSO:
  - api/dto.go: FarmInputRequest
  - scenarios/: Demo inputs
*/
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/warp/rebate-engine/api"
	"github.com/warp/rebate-engine/assumptions"
	"github.com/warp/rebate-engine/cache"
	"github.com/warp/rebate-engine/engine"
	"github.com/warp/rebate-engine/factory"
	"github.com/warp/rebate-engine/logger"
	"github.com/warp/rebate-engine/money"
	"github.com/warp/rebate-engine/scenarios"
	"github.com/warp/rebate-engine/service"
	"github.com/warp/rebate-engine/store"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "rebatecalc: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	input       string
	scenario    string
	assumptions string
	programs    string
	asJSON      bool
	notes       bool
	list        bool
	logLevel    string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("rebatecalc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.input, "input", "", "Farm input JSON file")
	fs.StringVar(&o.scenario, "scenario", "", "Demo scenario ID (see -list)")
	fs.StringVar(&o.assumptions, "assumptions", "", "Assumption table (.yaml, .json, .xlsx)")
	fs.StringVar(&o.programs, "programs", "", "Programs YAML file")
	fs.BoolVar(&o.asJSON, "json", false, "Print the API response JSON")
	fs.BoolVar(&o.notes, "notes", false, "Print notes and breakdown per program")
	fs.BoolVar(&o.list, "list", false, "List demo scenarios")
	fs.StringVar(&o.logLevel, "log-level", "warn", "Log level")
	if err := fs.Parse(args); err != nil {
		return o, err
	}

	if !o.list && (o.input == "") == (o.scenario == "") {
		return o, errors.New("exactly one of -input or -scenario is required")
	}
	return o, nil
}

func run(args []string, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	if o.list {
		return listScenarios(stdout)
	}

	input, err := readInput(o)
	if err != nil {
		return err
	}

	seed, err := loadSeed(o)
	if err != nil {
		return err
	}

	log, err := logger.New(o.logLevel, "console")
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := context.Background()
	svc := service.New(store.NewMemory(), cache.Nop{}, log, seed)
	if err := svc.Load(ctx); err != nil {
		return err
	}

	out, err := svc.Evaluate(ctx, input)
	if err != nil {
		return err
	}

	if o.asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(api.NewEvaluationResponse(uuid.NewString(), out))
	}
	return printTable(stdout, out.Evaluation, o.notes)
}

func readInput(o options) (engine.FarmInput, error) {
	if o.scenario != "" {
		s, err := scenarios.Get(o.scenario)
		if err != nil {
			return engine.FarmInput{}, err
		}
		return s.Input, nil
	}

	data, err := os.ReadFile(o.input)
	if err != nil {
		return engine.FarmInput{}, err
	}
	if err := api.ValidateFarmInputJSON(data); err != nil {
		return engine.FarmInput{}, err
	}
	var req api.FarmInputRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return engine.FarmInput{}, fmt.Errorf("parse %s: %w", o.input, err)
	}
	return req.ToFarmInput(), nil
}

func loadSeed(o options) (service.Seed, error) {
	seed := service.DefaultSeed()
	if o.assumptions != "" {
		table, err := assumptions.LoadFile(o.assumptions)
		if err != nil {
			return seed, err
		}
		seed.Assumptions = table
	}
	if o.programs != "" {
		data, err := os.ReadFile(o.programs)
		if err != nil {
			return seed, err
		}
		progs, err := factory.NewProgramFactory().ParseProgramsYAML(data)
		if err != nil {
			return seed, err
		}
		seed.Programs = progs
	}
	return seed, nil
}

func listScenarios(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION")
	for _, s := range scenarios.All() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.ID, s.Name, s.Description)
	}
	return tw.Flush()
}

func printTable(w io.Writer, ev engine.Evaluation, notes bool) error {
	fmt.Fprintf(w, "Modeled spend: %s across %d crop(s)\n\n", money.Dollars(ev.Modeled.Total), len(ev.Modeled.ByCrop))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "RANK\tPROGRAM\tCOMPANY\tCASH BACK\tPER ACRE\t")
	for i, r := range ev.Results {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t\n",
			i+1, r.ProgramID, r.Company,
			money.Dollars(r.EstimatedCashback), money.PerAcre(r.EstimatedPerAcre))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if !notes {
		return nil
	}
	for _, r := range ev.Results {
		fmt.Fprintf(w, "\n%s\n", r.Company)
		for _, li := range r.Breakdown {
			suffix := ""
			if li.Informational {
				suffix = " (informational)"
			}
			fmt.Fprintf(w, "  %-36s %12s%s\n", li.Label, money.Dollars(li.Value), suffix)
		}
		for _, n := range r.Notes {
			fmt.Fprintf(w, "  - %s\n", n)
		}
	}
	return nil
}
