package ml

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Параметры ансамбля по умолчанию.
const (
	DefaultTrees = 100
	DefaultSeed  = 42
)

// RandomForest ансамбль деревьев на бутстрэп-выборках. Каждое дерево
// растёт без ограничения глубины и на каждом узле смотрит sqrt(признаков)
// случайных признаков. Вероятность класса равна среднему долей по листьям.
type RandomForest struct {
	NumTrees    int             `json:"num_trees"`
	Seed        uint64          `json:"seed"`
	NumClasses  int             `json:"num_classes"`
	NumFeatures int             `json:"num_features"`
	MaxFeatures int             `json:"max_features"`
	Trees       []*DecisionTree `json:"trees"`
}

// NewRandomForest создаёт необученный лес.
func NewRandomForest(numTrees int, seed uint64) *RandomForest {
	if numTrees <= 0 {
		numTrees = DefaultTrees
	}
	return &RandomForest{NumTrees: numTrees, Seed: seed}
}

// Fit обучает лес на строках x с метками классов y из [0, numClasses).
// Дерево i использует собственный генератор (Seed, i), поэтому результат
// не зависит от порядка параллельной сборки.
func (f *RandomForest) Fit(ctx context.Context, x *mat.Dense, y []int, numClasses int) error {
	r, c := x.Dims()
	if r == 0 || c == 0 {
		return ErrEmptyInput
	}
	if len(y) != r {
		return fmt.Errorf("ml: %d rows but %d labels", r, len(y))
	}
	for i, v := range y {
		if v < 0 || v >= numClasses {
			return fmt.Errorf("ml: label %d at row %d outside [0,%d)", v, i, numClasses)
		}
	}

	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = x.RawRowView(i)
	}

	f.NumClasses = numClasses
	f.NumFeatures = c
	f.MaxFeatures = max(1, int(math.Sqrt(float64(c))))
	trees := make([]*DecisionTree, f.NumTrees)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for t := range trees {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(f.Seed, uint64(t)))
			sample := make([]int, r)
			for i := range sample {
				sample[i] = rng.IntN(r)
			}
			b := &treeBuilder{
				x:           rows,
				y:           y,
				numClasses:  numClasses,
				maxFeatures: f.MaxFeatures,
				rng:         rng,
			}
			b.build(sample)
			trees[t] = &DecisionTree{Nodes: b.nodes}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	f.Trees = trees
	return nil
}

// PredictProba возвращает вероятности классов для одного вектора.
func (f *RandomForest) PredictProba(x []float64) ([]float64, error) {
	if len(f.Trees) == 0 {
		return nil, ErrNotFitted
	}
	if len(x) != f.NumFeatures {
		return nil, &DimensionError{Got: len(x), Want: f.NumFeatures}
	}
	proba := make([]float64, f.NumClasses)
	for _, t := range f.Trees {
		floats.Add(proba, t.leaf(x).Value)
	}
	floats.Scale(1/float64(len(f.Trees)), proba)
	return proba, nil
}

// Predict возвращает наиболее вероятный класс и его вероятность.
// При равенстве выигрывает класс с меньшим индексом.
func (f *RandomForest) Predict(x []float64) (int, float64, error) {
	proba, err := f.PredictProba(x)
	if err != nil {
		return 0, 0, err
	}
	best := floats.MaxIdx(proba)
	return best, proba[best], nil
}

// Score доля строк x, для которых предсказание совпало с y.
func (f *RandomForest) Score(x *mat.Dense, y []int) (float64, error) {
	r, _ := x.Dims()
	if r == 0 || len(y) != r {
		return 0, ErrEmptyInput
	}
	correct := 0
	for i := 0; i < r; i++ {
		class, _, err := f.Predict(x.RawRowView(i))
		if err != nil {
			return 0, err
		}
		if class == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(r), nil
}

// Features число признаков, на которых обучен лес.
func (f *RandomForest) Features() int { return f.NumFeatures }

// Classes число классов.
func (f *RandomForest) Classes() int { return f.NumClasses }

// Size число обученных деревьев.
func (f *RandomForest) Size() int { return len(f.Trees) }

// Valid проверяет структуру леса после декодирования.
func (f *RandomForest) Valid() error {
	if f == nil || len(f.Trees) == 0 {
		return ErrNotFitted
	}
	if f.NumClasses < 2 || f.NumFeatures < 1 {
		return fmt.Errorf("ml: forest has %d classes and %d features", f.NumClasses, f.NumFeatures)
	}
	for ti, t := range f.Trees {
		if t == nil || len(t.Nodes) == 0 {
			return fmt.Errorf("ml: tree %d is empty", ti)
		}
		for ni, n := range t.Nodes {
			switch {
			case n.Feature < 0 && len(n.Value) != f.NumClasses:
				return fmt.Errorf("ml: tree %d leaf %d has %d class values", ti, ni, len(n.Value))
			case n.Feature >= f.NumFeatures:
				return fmt.Errorf("ml: tree %d node %d splits on feature %d", ti, ni, n.Feature)
			case n.Feature >= 0 && (n.Left <= ni || n.Right <= ni || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes)):
				return fmt.Errorf("ml: tree %d node %d has broken children", ti, ni)
			}
		}
	}
	return nil
}
