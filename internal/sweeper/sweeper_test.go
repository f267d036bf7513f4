package sweeper

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/aslan-crm/automation/internal/domain"
	"github.com/aslan-crm/automation/internal/engine"
)

type fakeSource struct {
	stages []string
	orders []domain.Zakaz

	listedStages []string
}

func (f *fakeSource) ListActiveFromStages(_ context.Context) ([]string, error) {
	return f.stages, nil
}

func (f *fakeSource) ListByStages(_ context.Context, stageIDs []string, limit int) ([]domain.Zakaz, error) {
	f.listedStages = stageIDs
	if len(f.orders) > limit {
		return f.orders[:limit], nil
	}
	return f.orders, nil
}

type fakeEvaluator struct {
	results   map[int64]*engine.EvalResult
	errs      map[int64]error
	evaluated []int64
}

func (f *fakeEvaluator) EvaluateAndAdvance(_ context.Context, orderID int64) (*engine.EvalResult, error) {
	f.evaluated = append(f.evaluated, orderID)
	if err := f.errs[orderID]; err != nil {
		return nil, err
	}
	if r := f.results[orderID]; r != nil {
		return r, nil
	}
	return &engine.EvalResult{Message: engine.MsgTasksNotCompleted}, nil
}

func newSweeper(src *fakeSource, eval *fakeEvaluator) *Sweeper {
	return New(Config{
		Orders:    src,
		Stages:    src,
		Evaluator: eval,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestSweep_EvaluatesOrdersOnActiveStages(t *testing.T) {
	src := &fakeSource{
		stages: []string{"cutting", "edging"},
		orders: []domain.Zakaz{{ID: 1, Status: "cutting"}, {ID: 2, Status: "edging"}},
	}
	eval := &fakeEvaluator{
		results: map[int64]*engine.EvalResult{
			2: {Advanced: true, FromStage: "edging", ToStage: "drilling"},
		},
	}

	if err := newSweeper(src, eval).Sweep(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(eval.evaluated) != 2 {
		t.Fatalf("expected 2 evaluations, got %d", len(eval.evaluated))
	}
	if len(src.listedStages) != 2 {
		t.Errorf("orders should be selected by active stages, got %v", src.listedStages)
	}
}

func TestSweep_NoActiveStages(t *testing.T) {
	src := &fakeSource{orders: []domain.Zakaz{{ID: 1}}}
	eval := &fakeEvaluator{}

	if err := newSweeper(src, eval).Sweep(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(eval.evaluated) != 0 {
		t.Errorf("nothing to evaluate without active stages, got %d", len(eval.evaluated))
	}
}

func TestSweep_EvaluationFailureDoesNotBlockOthers(t *testing.T) {
	src := &fakeSource{
		stages: []string{"cutting"},
		orders: []domain.Zakaz{{ID: 1}, {ID: 2}, {ID: 3}},
	}
	eval := &fakeEvaluator{
		errs: map[int64]error{2: errors.New("db timeout")},
	}

	if err := newSweeper(src, eval).Sweep(context.Background()); err != nil {
		t.Fatalf("per-order failures must not fail the sweep: %v", err)
	}
	if len(eval.evaluated) != 3 {
		t.Errorf("all orders should be evaluated, got %d", len(eval.evaluated))
	}
}
