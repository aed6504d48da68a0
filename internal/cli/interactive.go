package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dyike/manbo/config"
	"github.com/dyike/manbo/internal/display"
	"github.com/dyike/manbo/internal/jobs"
)

// runInteractiveMode walks the user through the analysis form in a loop.
// One session slot is reused, so starting a new analysis replaces the
// previous job and its poller.
func runInteractiveMode(ctx context.Context, a *app) error {
	DisplayWelcomeBanner(a.out, a.config().BackendURL)

	if _, err := a.client.Health(ctx); err != nil {
		display.DisplayWarning(a.out, fmt.Sprintf("backend %s is not reachable: %v", a.config().BackendURL, err))
	}

	if a.manager != nil {
		err := a.manager.Watch(ctx, func(cfg config.Config) {
			a.reload(cfg)
			a.log.Info().Str("path", a.manager.Path()).Msg("configuration reloaded")
		})
		if err != nil {
			a.log.Warn().Err(err).Msg("config hot reload disabled")
		}
	}

	progress := &progressPrinter{w: a.out}
	session := a.newSession(0, progress.update)
	defer session.Cancel()

	for {
		err := runInteractiveAnalysis(ctx, a, session)
		switch {
		case errors.Is(err, errAborted), errors.Is(err, context.Canceled):
			session.Cancel()
			fmt.Fprintln(a.out, "👋 Bye")
			return nil
		case err != nil:
			display.DisplayError(a.out, err)
		}

		again, err := PromptForRestartOrExit()
		if err != nil || !again {
			fmt.Fprintln(a.out, "👋 Bye")
			return nil
		}
	}
}

// getUserSelections runs the prompt sequence seeded with config defaults.
func getUserSelections(cfg *config.Config) (UserSelections, error) {
	sel := selectionsFromConfig(cfg)
	var err error

	if sel.Ticker, err = PromptForTicker(); err != nil {
		return sel, err
	}
	if sel.Market, err = PromptForMarket(sel.Market); err != nil {
		return sel, err
	}
	if sel.AnalysisDate, err = PromptForAnalysisDate(); err != nil {
		return sel, err
	}
	if sel.Analysts, err = PromptForAnalysts(sel.Analysts); err != nil {
		return sel, err
	}
	if sel.ResearchDepth, err = PromptForResearchDepth(sel.ResearchDepth); err != nil {
		return sel, err
	}
	if sel.LLMProvider, err = PromptForLLMProvider(sel.LLMProvider); err != nil {
		return sel, err
	}
	return sel, nil
}

func runInteractiveAnalysis(ctx context.Context, a *app, session *jobs.Session) error {
	sel, err := getUserSelections(a.config())
	if err != nil {
		return err
	}
	ok, err := PromptForConfirmation(sel)
	if err != nil {
		return err
	}
	if !ok {
		display.DisplayInfo(a.out, "Analysis cancelled")
		return nil
	}

	handle, err := session.Start(ctx, sel.Request())
	if err != nil {
		var verr *jobs.ValidationError
		if errors.As(err, &verr) {
			for _, f := range verr.Fields {
				display.DisplayWarning(a.out, f.Message)
			}
			return errors.New("please correct the form and try again")
		}
		return err
	}
	DisplayAnalysisHeader(a.out, sel, handle.ID)

	snap, err := session.Wait(ctx)
	if err != nil {
		return err
	}
	if snap.Err != nil {
		return snap.Err
	}
	if snap.Result == nil {
		display.DisplayInfo(a.out, "Analysis was cancelled")
		return nil
	}

	points := a.chartPoints(ctx, snap.Result)
	display.NewResultsDisplay(a.out).DisplayAnalysisResults(snap.Result, points)

	dir, err := PromptForExport(a.config().ResultsDir)
	if err != nil || dir == "" {
		return err
	}
	folder, files, err := display.Export(dir, snap.Result, points)
	if err != nil {
		return fmt.Errorf("export results: %w", err)
	}
	display.DisplaySuccess(a.out, fmt.Sprintf("Saved %d files to %s", len(files), folder))
	return nil
}
