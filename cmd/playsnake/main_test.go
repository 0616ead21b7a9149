package main

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"strings"
	"testing"

	"github.com/brensch/snekevo/brain"
	"github.com/brensch/snekevo/game"
	"github.com/brensch/snekevo/rules"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPlayGamesIsReproducible(t *testing.T) {
	net, err := brain.New(brain.Layout([]int{8}), rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("brain: %v", err)
	}
	opts := playOptions{Rows: 15, Cols: 15, Games: 4, Seed: 11, Episode: rules.EpisodeConfig{MaxSteps: 200}}

	first, err := playGames(context.Background(), net, opts, quietLogger())
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	second, err := playGames(context.Background(), net, opts, quietLogger())
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if len(first) != 4 {
		t.Fatalf("results got=%d want=4", len(first))
	}
	for i := range first {
		if first[i].Index != i {
			t.Fatalf("result %d has index %d", i, first[i].Index)
		}
		if first[i].Outcome != second[i].Outcome {
			t.Fatalf("game %d differs: %+v vs %+v", i, first[i].Outcome, second[i].Outcome)
		}
		if first[i].Outcome.Steps > 200 {
			t.Fatalf("game %d ran %d steps past the cap", i, first[i].Outcome.Steps)
		}
	}
}

func TestPlayGamesBoardTooSmall(t *testing.T) {
	_, err := playGames(context.Background(), nil, playOptions{Rows: 8, Cols: 8, Games: 2}, quietLogger())
	if err == nil {
		t.Fatalf("expected spawn error on an 8x8 board")
	}
}

func TestRenderBoard(t *testing.T) {
	board, err := game.NewBoard(12, 12)
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	s, err := game.NewSnake(board, nil, game.Options{Rand: rand.New(rand.NewSource(5)), Logger: quietLogger()})
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	s.SetFoodPosition(0, 0)

	out := renderBoard(s)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 14 {
		t.Fatalf("lines got=%d want=14\n%s", len(lines), out)
	}
	if got := strings.Count(out, "H"); got != 1 {
		t.Fatalf("heads got=%d want=1\n%s", got, out)
	}
	if got := strings.Count(out, "o"); got != game.StartLength-1 {
		t.Fatalf("body cells got=%d want=%d\n%s", got, game.StartLength-1, out)
	}
	if lines[1][1] != '*' {
		t.Fatalf("food not drawn at (0,0)\n%s", out)
	}
}
