// Package pipeline runs stages: functions cooking dishes from ingredients.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"

	"github.com/opst/datapod/pkg/catalog"
)

var (
	// ErrUnknownDish is returned when a stage cooks a value which is not in the full course.
	ErrUnknownDish = errors.New("pipeline: cooked value is not a dish of the full course")

	// ErrDishNotCooked is returned when a stage does not cook a dish of the full course.
	ErrDishNotCooked = errors.New("pipeline: dish is not cooked")

	// ErrAmbiguousIngredients is returned when a dish cannot be passed through
	// because it does not name exactly one ingredient.
	ErrAmbiguousIngredients = errors.New("pipeline: dish should use exactly one ingredient")
)

// Stage cooks dishes from ingredients.
type Stage interface {
	// Cook returns values keyed by dish name.
	Cook(ctx context.Context, ingredients catalog.Ingredients) (map[string]any, error)
}

// StageFunc is a function as a Stage.
type StageFunc func(context.Context, catalog.Ingredients) (map[string]any, error)

func (f StageFunc) Cook(ctx context.Context, ingredients catalog.Ingredients) (map[string]any, error) {
	return f(ctx, ingredients)
}

// Run cooks with stage, then saves every dish of course, in course order.
//
// Before saving anything, it checks that cooked values and dishes match one to one.
// Errors from stage or drivers are returned as they are.
func Run(
	ctx context.Context,
	stage Stage,
	ingredients catalog.Ingredients,
	course catalog.FullCourse,
	logger *log.Logger,
) error {
	cooked, err := stage.Cook(ctx, ingredients)
	if err != nil {
		return err
	}

	names := course.Names()
	var unknown []string
	for name := range cooked {
		if !slices.Contains(names, name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) != 0 {
		slices.Sort(unknown)
		return fmt.Errorf("%w: %v", ErrUnknownDish, unknown)
	}
	for _, name := range names {
		if _, ok := cooked[name]; !ok {
			return fmt.Errorf("%w: %s", ErrDishNotCooked, name)
		}
	}

	for _, dish := range course.Dishes() {
		if err := dish.Save(ctx, cooked[dish.Name()]); err != nil {
			return err
		}
		logger.Printf("served %s -> %s", dish.Name(), dish.Location())
	}
	return nil
}

// Passthrough returns a Stage which serves each dish with the ingredient
// named in its ingredients_used, as it is.
//
// With drivers of different file formats, it converts formats (e.g. csv to parquet).
func Passthrough(course catalog.FullCourse) Stage {
	return StageFunc(func(_ context.Context, ingredients catalog.Ingredients) (map[string]any, error) {
		cooked := map[string]any{}
		for _, dish := range course.Dishes() {
			used := dish.Entry().Provenance.IngredientsUsed
			if len(used) != 1 {
				return nil, fmt.Errorf("%w: %s uses %v", ErrAmbiguousIngredients, dish.Name(), used)
			}
			v, ok := ingredients.Get(used[0])
			if !ok {
				return nil, fmt.Errorf(
					"%w: %s uses %s, but it is not prepared", ErrAmbiguousIngredients, dish.Name(), used[0],
				)
			}
			cooked[dish.Name()] = v
		}
		return cooked, nil
	})
}
