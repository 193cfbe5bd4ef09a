package cmd

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kilianp07/rota/app"
	"github.com/kilianp07/rota/config"
	"github.com/kilianp07/rota/core/workspace"
	"github.com/kilianp07/rota/internal/tui"
)

var (
	boardInputs inputFlags
	boardResume string
)

var boardCmd = &cobra.Command{
	Use:   "board [availability.csv]",
	Short: "Edit an assignment interactively in the terminal",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if boardResume == "" && len(args) == 0 {
			return errors.New("board needs an availability sheet or --resume")
		}
		return withService(func(ctx context.Context, cfg *config.Config, svc *app.Service) error {
			ws, err := openBoard(ctx, cfg, svc.Manager, args)
			if err != nil {
				return err
			}
			save := func() error { return svc.Manager.Save(ctx, ws.ID()) }
			_, err = tea.NewProgram(tui.NewModel(ws, save), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			return err
		})
	},
}

func init() {
	boardInputs.register(boardCmd)
	boardCmd.Flags().StringVar(&boardResume, "resume", "", "resume a saved workspace by id")
	rootCmd.AddCommand(boardCmd)
}

func openBoard(ctx context.Context, cfg *config.Config, mgr *workspace.Manager, args []string) (*workspace.Workspace, error) {
	if boardResume != "" {
		return mgr.Get(ctx, boardResume)
	}
	m, r, s, err := boardInputs.load(args[0], cfg.Ingest)
	if err != nil {
		return nil, err
	}
	return mgr.Create(m, r, s), nil
}
