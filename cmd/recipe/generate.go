package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aarishlakhani/AI-recipe-gen/internal/client"
	"github.com/aarishlakhani/AI-recipe-gen/internal/recipe"
	"github.com/aarishlakhani/AI-recipe-gen/internal/stream"
)

var errInterrupted = errors.New("interrupted")

func newGenerateCmd(f *rootFlags) *cobra.Command {
	var form recipe.Form
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Stream one recipe to stdout",
		Example: `  recipe generate --ingredients "chicken, rice" --cuisine Thai
  recipe generate --ingredients eggs --meal-type Breakfast --transport ws`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.load()
			if err != nil {
				return err
			}
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer log.Close()

			transport, err := client.New(cfg.Client.Transport, cfg.Client.BaseURL, log.Component("client"))
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return streamRecipe(ctx, transport, form.Request(), cmd.OutOrStdout(), log.Logger)
		},
	}

	defaults := recipe.DefaultForm(recipe.DefaultOptions())
	fl := cmd.Flags()
	fl.StringVar(&form.Ingredients, "ingredients", "", "comma separated ingredients")
	fl.StringVar(&form.MealType, "meal-type", defaults.MealType, "meal type")
	fl.StringVar(&form.Cuisine, "cuisine", "", "cuisine preference")
	fl.StringVar(&form.Diet, "diet", "", "dietary restrictions")
	fl.StringVar(&form.CookingTime, "cooking-time", defaults.CookingTime, "cooking time")
	fl.StringVar(&form.Complexity, "complexity", defaults.Complexity, "complexity")
	fl.StringVar(&form.Servings, "servings", "", "number of servings")
	fl.StringVar(&form.Calories, "calories", "", "calories per serving")
	_ = cmd.MarkFlagRequired("ingredients")
	return cmd
}

// streamRecipe submits req once and copies fragments to out until the
// stream ends. Cancelling ctx shuts the stream down and returns
// errInterrupted.
func streamRecipe(ctx context.Context, t stream.Transport, req recipe.Request, out io.Writer, logger zerolog.Logger) error {
	mgr := stream.NewManager(t, stream.WithLogger(logger))
	done := make(chan stream.Update, 1)
	mgr.Subscribe(func(u stream.Update) {
		switch u.Reason {
		case stream.ReasonChunk:
			fmt.Fprint(out, u.Fragment)
		case stream.ReasonClosed, stream.ReasonErrored, stream.ReasonShutdown:
			select {
			case done <- u:
			default:
			}
		}
	})

	loop := stream.NewLoop(mgr)
	runCtx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		<-loop.Done()
	}()
	go loop.Run(runCtx)

	if !loop.Submit(req) {
		return errors.New("stream loop stopped")
	}

	var end stream.Update
	select {
	case end = <-done:
	case <-ctx.Done():
		loop.Shutdown()
		end = <-done
	}
	fmt.Fprintln(out)

	switch end.Reason {
	case stream.ReasonClosed:
		return nil
	case stream.ReasonErrored:
		if end.Err == nil {
			return errors.New("stream failed")
		}
		return errors.Wrap(end.Err, "stream failed")
	default:
		return errInterrupted
	}
}
