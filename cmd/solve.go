package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/rota/app"
	"github.com/kilianp07/rota/config"
	"github.com/kilianp07/rota/core/model"
	"github.com/kilianp07/rota/core/workspace"
	"github.com/kilianp07/rota/infra/ingest"
	"github.com/kilianp07/rota/pkg/export"
)

type inputFlags struct {
	roster   string
	settings string
	min, max int
	bulk     bool
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.roster, "roster", "r", "", "roster file (json or yaml)")
	cmd.Flags().StringVarP(&f.settings, "settings", "s", "", "settings file (json or yaml)")
	cmd.Flags().IntVar(&f.min, "min", 0, "minimum members on every session")
	cmd.Flags().IntVar(&f.max, "max", 0, "maximum members on every session")
	cmd.MarkFlagsRequiredTogether("min", "max")
	cmd.PreRunE = func(cmd *cobra.Command, _ []string) error {
		f.bulk = cmd.Flags().Changed("min")
		if f.bulk && (f.min < 0 || f.min > f.max) {
			return fmt.Errorf("invalid bounds --min %d --max %d", f.min, f.max)
		}
		return nil
	}
}

// load reads the availability sheet and the optional roster and settings.
// --min/--max override the bounds of every session.
func (f *inputFlags) load(csvPath string, opts ingest.Options) (*model.Matrix, *model.Roster, model.Settings, error) {
	m, err := ingest.LoadMatrix(csvPath, opts)
	if err != nil {
		return nil, nil, model.Settings{}, err
	}
	var r *model.Roster
	if f.roster != "" {
		if r, err = ingest.LoadRoster(f.roster); err != nil {
			return nil, nil, model.Settings{}, err
		}
	}
	s := model.DefaultSettings(m)
	if f.settings != "" {
		if s, err = ingest.LoadSettings(f.settings, m); err != nil {
			return nil, nil, model.Settings{}, err
		}
	}
	if f.bulk {
		s.ApplyBulk(f.min, f.max)
	}
	return m, r, s, nil
}

var (
	solveInputs  inputFlags
	solveFormat  string
	solveOutput  string
	solveSave    bool
	solveSummary bool
)

var solveCmd = &cobra.Command{
	Use:   "solve <availability.csv>",
	Short: "Generate an assignment and export it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, cfg *config.Config, svc *app.Service) error {
			return solve(ctx, cfg, svc.Manager, args[0], cmd.OutOrStdout())
		})
	},
}

func init() {
	solveInputs.register(solveCmd)
	solveCmd.Flags().StringVarP(&solveFormat, "format", "f", "text", "output format: text, csv, json or html")
	solveCmd.Flags().StringVarP(&solveOutput, "output", "o", "", "output file (stdout when empty)")
	solveCmd.Flags().BoolVar(&solveSave, "save", false, "persist the workspace to the configured store")
	solveCmd.Flags().BoolVar(&solveSummary, "summary", false, "print fill statistics after the assignment")
	rootCmd.AddCommand(solveCmd)
}

func solve(ctx context.Context, cfg *config.Config, mgr *workspace.Manager, csvPath string, stdout io.Writer) (err error) {
	m, r, s, err := solveInputs.load(csvPath, cfg.Ingest)
	if err != nil {
		return err
	}
	ws := mgr.Create(m, r, s)
	res, err := ws.Generate(false)
	if err != nil {
		return err
	}
	rows, err := ws.Rows()
	if err != nil {
		return err
	}

	out := stdout
	if solveOutput != "" {
		f, cerr := os.Create(solveOutput)
		if cerr != nil {
			return cerr
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close %s: %w", solveOutput, cerr)
			}
		}()
		out = f
	}
	if err := export.Write(out, solveFormat, rows); err != nil {
		return err
	}
	if solveSummary {
		a, err := ws.Assignment()
		if err != nil {
			return err
		}
		sum := export.Summarize(a, ws.Settings())
		fmt.Fprintf(stdout, "\nassigned %d (tentative %d, multi %d) fill %.2f±%.2f objective %.1f penalty %.1f\n",
			sum.Assigned, sum.Tentative, sum.Multi, sum.FillMean, sum.FillStd, res.Objective, res.Penalty)
	}
	if solveSave {
		if err := mgr.Save(ctx, ws.ID()); err != nil {
			return fmt.Errorf("save workspace: %w", err)
		}
		fmt.Fprintf(stdout, "saved workspace %s\n", ws.ID())
	}
	return nil
}
