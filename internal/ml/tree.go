package ml

import (
	"math/rand/v2"
	"sort"
)

// Node узел дерева. Лист имеет Feature == -1 и распределение классов в Value.
type Node struct {
	Feature   int       `json:"f"`
	Threshold float64   `json:"t,omitempty"`
	Left      int       `json:"l,omitempty"`
	Right     int       `json:"r,omitempty"`
	Value     []float64 `json:"v,omitempty"`
}

// DecisionTree дерево CART с критерием Джини. Узлы хранятся плоско, корень имеет индекс 0.
type DecisionTree struct {
	Nodes []Node `json:"nodes"`
}

// leaf возвращает лист, в который попадает x.
func (t *DecisionTree) leaf(x []float64) *Node {
	n := &t.Nodes[0]
	for n.Feature >= 0 {
		if x[n.Feature] <= n.Threshold {
			n = &t.Nodes[n.Left]
		} else {
			n = &t.Nodes[n.Right]
		}
	}
	return n
}

// treeBuilder растит дерево без ограничения глубины: узел делится, пока он
// не чист и в нём есть хотя бы два образца с различимыми признаками.
type treeBuilder struct {
	x           [][]float64
	y           []int
	numClasses  int
	maxFeatures int
	rng         *rand.Rand
	nodes       []Node
}

func (b *treeBuilder) build(idx []int) int {
	counts := b.classCounts(idx)
	id := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: -1})

	if len(idx) < 2 || isPure(counts) {
		b.nodes[id].Value = fractions(counts, len(idx))
		return id
	}

	feature, threshold, ok := b.bestSplit(idx, counts)
	if !ok {
		b.nodes[id].Value = fractions(counts, len(idx))
		return id
	}

	var left, right []int
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.build(left)
	r := b.build(right)
	b.nodes[id] = Node{Feature: feature, Threshold: threshold, Left: l, Right: r}
	return id
}

// bestSplit перебирает случайную перестановку признаков и останавливается,
// когда просмотрено maxFeatures непостоянных признаков.
func (b *treeBuilder) bestSplit(idx []int, counts []int) (int, float64, bool) {
	n := len(idx)
	parent := gini(counts, n)

	var (
		found     bool
		bestGain  float64
		bestFeat  int
		bestThres float64
	)

	sorted := make([]int, n)
	left := make([]int, b.numClasses)
	right := make([]int, b.numClasses)
	visited := 0

	for _, f := range b.rng.Perm(len(b.x[0])) {
		if visited >= b.maxFeatures {
			break
		}

		copy(sorted, idx)
		sort.SliceStable(sorted, func(i, j int) bool {
			return b.x[sorted[i]][f] < b.x[sorted[j]][f]
		})
		if b.x[sorted[0]][f] == b.x[sorted[n-1]][f] {
			continue
		}
		visited++

		clear(left)
		copy(right, counts)
		for i := 0; i < n-1; i++ {
			c := b.y[sorted[i]]
			left[c]++
			right[c]--

			v, next := b.x[sorted[i]][f], b.x[sorted[i+1]][f]
			if v == next {
				continue
			}
			nl, nr := i+1, n-i-1
			impurity := (float64(nl)*gini(left, nl) + float64(nr)*gini(right, nr)) / float64(n)
			gain := parent - impurity
			if !found || gain > bestGain {
				found = true
				bestGain = gain
				bestFeat = f
				bestThres = v + (next-v)/2
				if bestThres >= next {
					bestThres = v
				}
			}
		}
	}
	return bestFeat, bestThres, found
}

func (b *treeBuilder) classCounts(idx []int) []int {
	counts := make([]int, b.numClasses)
	for _, i := range idx {
		counts[b.y[i]]++
	}
	return counts
}

func isPure(counts []int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		g -= p * p
	}
	return g
}

func fractions(counts []int, n int) []float64 {
	out := make([]float64, len(counts))
	if n == 0 {
		return out
	}
	for i, c := range counts {
		out[i] = float64(c) / float64(n)
	}
	return out
}
