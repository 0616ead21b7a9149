// Command playsnake plays games with a single brain, either a freshly seeded
// random network or an exported ONNX model, and prints the outcomes.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/brensch/snekevo/brain"
	"github.com/brensch/snekevo/config"
	"github.com/brensch/snekevo/executor/inference"
	"github.com/brensch/snekevo/game"
	"github.com/brensch/snekevo/logging"
	"github.com/brensch/snekevo/rules"
)

type playOptions struct {
	Rows, Cols int
	Games      int
	Seed       int64
	Episode    rules.EpisodeConfig
	Render     bool
}

type gameResult struct {
	Index   int
	Outcome rules.Outcome
	Final   string
}

func main() {
	modelPath := flag.String("model", "", "ONNX model to play with; empty plays a random network")
	hidden := flag.String("hidden", "16,16", "Hidden layer widths for the random network")
	seed := flag.Int64("seed", 0, "Random seed, 0 for time based")
	rows := flag.Int("rows", 20, "Board rows")
	cols := flag.Int("cols", 20, "Board columns")
	games := flag.Int("games", 1, "Number of games to play concurrently")
	maxSteps := flag.Int("max-steps", rules.DefaultMaxSteps, "Step cap per game")
	stallSteps := flag.Int("stall-steps", rules.DefaultStallSteps, "Steps without food before the game is stopped, 0 disables")
	render := flag.Bool("render", true, "Print the final board of each game")
	logLevel := flag.String("log-level", "info", "Use debug to log every step")
	logFormat := flag.String("log-format", logging.FormatText, "text, json or pretty")
	flag.Parse()

	logger, err := logging.New(logging.Options{Format: *logFormat, Level: *logLevel}, os.Stderr)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	var controller game.Controller
	if *modelPath != "" {
		log.Printf("Loading model: %s", *modelPath)
		client, err := inference.NewOnnxClientWithConfig(*modelPath, inference.OnnxClientConfig{
			BatchSize: max(1, *games),
			Logger:    logger,
		})
		if err != nil {
			log.Fatalf("Failed to load model: %v", err)
		}
		defer client.Close()
		controller = client
	} else {
		cfg := config.Default()
		cfg.Brain.Hidden = *hidden
		layers, err := cfg.HiddenLayers()
		if err != nil {
			log.Fatalf("hidden: %v", err)
		}
		net, err := brain.New(brain.Layout(layers), rand.New(rand.NewSource(*seed)))
		if err != nil {
			log.Fatalf("build network: %v", err)
		}
		log.Printf("Playing with a random network %v (%d params, seed %d)", net.Sizes(), net.ParamCount(), *seed)
		controller = net
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	results, err := playGames(ctx, controller, playOptions{
		Rows:    *rows,
		Cols:    *cols,
		Games:   *games,
		Seed:    *seed,
		Episode: rules.EpisodeConfig{MaxSteps: *maxSteps, StallSteps: *stallSteps},
		Render:  *render,
	}, logger)
	if err != nil {
		log.Fatalf("play: %v", err)
	}

	best := 0
	for _, r := range results {
		o := r.Outcome
		fmt.Printf("  Game %2d | score %4d | steps %5d | length %3d | food %3d | %s\n",
			r.Index, o.Score, o.Steps, o.Length, o.FoodEaten, o.Cause)
		if r.Final != "" {
			fmt.Println(r.Final)
		}
		best = max(best, o.Score)
	}
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Printf("  %d game(s) played, best score %d\n", len(results), best)
	fmt.Println("═══════════════════════════════════════════════════════════════")
}

// playGames runs opts.Games games in parallel against one controller. Game i
// spawns and places food from seed+i, so a run is reproducible for a
// deterministic controller.
func playGames(ctx context.Context, controller game.Controller, opts playOptions, logger *slog.Logger) ([]gameResult, error) {
	if opts.Games <= 0 {
		opts.Games = 1
	}
	results := make([]gameResult, opts.Games)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < opts.Games; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := playOne(i, controller, opts, logger.With("game", i))
			if err != nil {
				return fmt.Errorf("game %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func playOne(i int, controller game.Controller, opts playOptions, logger *slog.Logger) (gameResult, error) {
	rng := rand.New(rand.NewSource(opts.Seed + int64(i)))
	board, err := game.NewBoard(opts.Rows, opts.Cols)
	if err != nil {
		return gameResult{}, err
	}
	snake, err := game.NewSnake(board, controller, game.Options{Rand: rng, Logger: logger})
	if err != nil {
		return gameResult{}, err
	}

	ep := opts.Episode
	ep.OnStep = func(s *game.Snake) {
		logger.Debug("step",
			"step", s.Steps(),
			"head", s.Head().String(),
			"direction", s.Direction().String(),
			"score", s.Score(),
		)
	}
	outcome := rules.PlayEpisode(snake, rules.NewFoodPlacer(rng), ep)
	logger.Info("game over",
		"score", outcome.Score,
		"steps", outcome.Steps,
		"length", outcome.Length,
		"cause", outcome.Cause.String(),
	)

	res := gameResult{Index: i, Outcome: outcome}
	if opts.Render {
		res.Final = renderBoard(snake)
	}
	return res, nil
}

// renderBoard draws the board inside a frame: H head, o body, * food.
func renderBoard(s *game.Snake) string {
	b := s.Board()
	food, hasFood := s.Food()

	var sb strings.Builder
	border := "+" + strings.Repeat("-", b.Cols()) + "+\n"
	sb.WriteString(border)
	for r := 0; r < b.Rows(); r++ {
		sb.WriteByte('|')
		for c := 0; c < b.Cols(); c++ {
			cell := game.Cell{Row: r, Col: c}
			switch {
			case b.At(cell) == game.SnakeHead:
				sb.WriteByte('H')
			case b.At(cell) == game.SnakeBody:
				sb.WriteByte('o')
			case hasFood && cell == food:
				sb.WriteByte('*')
			default:
				sb.WriteByte(' ')
			}
		}
		sb.WriteString("|\n")
	}
	sb.WriteString(border)
	return sb.String()
}
