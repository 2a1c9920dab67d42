package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"merchlens/internal/config"
	"merchlens/internal/job"
	"merchlens/internal/logging"
	"merchlens/internal/records"
	"merchlens/internal/resilience"
	"merchlens/internal/resolver"
	"merchlens/internal/services/fetch"
	"merchlens/internal/services/llm"
	"merchlens/internal/services/place"
	"merchlens/internal/services/search"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var flags jobFlags
	var noProgress bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a batch resolution job against a spreadsheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			settings, err := flags.settings(cfg)
			if err != nil {
				return err
			}

			logger, err := logging.New(logging.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
			})
			if err != nil {
				return err
			}
			logger = logger.With(logging.String("job_id", uuid.NewString()))

			res, err := buildResolver(cfg, settings, logger)
			if err != nil {
				return err
			}

			done := make(chan string, 1)
			bar := newProgressBar(settings, noProgress)
			mgr, err := job.New(cfg, settings, res,
				job.WithLogger(logger),
				job.WithCallbacks(job.Callbacks{
					Status: func(processed, total int, message string) {
						if bar != nil {
							_ = bar.Set(processed)
						}
					},
					Completion: func(message string) {
						done <- message
					},
				}),
			)
			if err != nil {
				return err
			}

			started := time.Now()
			if err := mgr.Start(cmd.Context()); err != nil {
				return err
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigCh)
			go func() {
				<-sigCh
				fmt.Fprintln(os.Stderr, "\nStopping after the current row; progress is checkpointed")
				mgr.Stop()
			}()

			mgr.Wait()
			message := <-done
			if bar != nil {
				_ = bar.Finish()
				fmt.Fprintln(os.Stderr)
			}

			processed, totalCost := mgr.Progress()
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Field", "Value"},
				[][]string{
					{"Input", settings.InputPath},
					{"Output", settings.OutputPath},
					{"Rows", strconv.Itoa(processed)},
					{"Total cost", fmt.Sprintf("$%.4f", totalCost)},
					{"Duration", time.Since(started).Round(time.Second).String()},
					{"Result", message},
				},
				[]columnAlignment{alignLeft, alignLeft},
			))

			if strings.HasPrefix(message, "Failed: ") {
				return errors.New(message)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")
	return cmd
}

// buildResolver wires the capability clients into a resolver. The place
// lookup is only constructed (and its key only required) in enhanced
// mode.
func buildResolver(cfg *config.Config, settings records.JobSettings, logger *slog.Logger) (*resolver.Resolver, error) {
	searchClient, err := search.New(search.Config{
		APIKey:     cfg.Search.APIKey,
		EngineID:   cfg.Search.EngineID,
		BaseURL:    cfg.Search.BaseURL,
		NumResults: cfg.Search.NumResults,
	})
	if err != nil {
		return nil, err
	}

	model := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          settings.ModelName,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})

	fetcher := fetch.New(fetch.Config{
		TimeoutSeconds: cfg.Fetch.TimeoutSeconds,
		MaxBodyBytes:   cfg.Fetch.MaxBodyBytes,
		UserAgent:      cfg.Fetch.UserAgent,
	})

	opts := []resolver.Option{resolver.WithLogger(logger)}
	if settings.Mode == records.ModeEnhanced {
		placeClient, err := place.New(place.Config{
			APIKey:  cfg.Place.APIKey,
			BaseURL: cfg.Place.BaseURL,
		})
		if err != nil {
			return nil, err
		}
		opts = append(opts, resolver.WithPlaceLookup(placeClient))
	}

	return resolver.New(resolver.Config{
		Search:         searchClient,
		Model:          model,
		Fetch:          fetcher,
		Retrier:        resilience.New(cfg.RetryPolicy(), resilience.WithLogger(logger)),
		Costs:          cfg.CostTable(),
		ModelName:      model.Model(),
		SocialPriority: cfg.Resolver.SocialPriority,
	}, opts...)
}

func newProgressBar(settings records.JobSettings, noProgress bool) *progressbar.ProgressBar {
	if noProgress || !isatty.IsTerminal(os.Stderr.Fd()) {
		return nil
	}
	total := settings.EndRow - settings.StartRow + 1
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Resolving"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionSetElapsedTime(true),
	)
}
