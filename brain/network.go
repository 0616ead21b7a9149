// Package brain is a small fully connected network that serves as a
// game.Controller and can be mutated and recombined by the evolution loop.
package brain

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"slices"

	"github.com/brensch/snekevo/game"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrInputSize     = errors.New("input size mismatch")
	ErrShapeMismatch = errors.New("network shapes differ")
)

// DefaultHidden is the hidden layout used when none is configured.
var DefaultHidden = []int{16, 16}

// Layout returns the full layer sizes for a game controller with the given
// hidden layers.
func Layout(hidden []int) []int {
	sizes := make([]int, 0, len(hidden)+2)
	sizes = append(sizes, game.InputSize)
	sizes = append(sizes, hidden...)
	return append(sizes, game.OutputSize)
}

// Network is a feed-forward net with tanh hidden units and sigmoid outputs.
// Layer l maps sizes[l] inputs to sizes[l+1] outputs.
type Network struct {
	sizes   []int
	weights []*mat.Dense
	biases  []*mat.VecDense
}

var _ game.Controller = (*Network)(nil)

// New builds a network with Gaussian weights scaled by 1/sqrt(fan-in).
func New(sizes []int, rng *rand.Rand) (*Network, error) {
	if len(sizes) < 2 {
		return nil, fmt.Errorf("need at least 2 layers, got %d", len(sizes))
	}
	for i, s := range sizes {
		if s <= 0 {
			return nil, fmt.Errorf("layer %d has size %d", i, s)
		}
	}

	n := &Network{sizes: append([]int(nil), sizes...)}
	for l := 0; l < len(sizes)-1; l++ {
		in, out := sizes[l], sizes[l+1]
		scale := 1 / math.Sqrt(float64(in))

		w := make([]float64, out*in)
		for i := range w {
			w[i] = rng.NormFloat64() * scale
		}
		b := make([]float64, out)
		for i := range b {
			b[i] = rng.NormFloat64() * scale
		}
		n.weights = append(n.weights, mat.NewDense(out, in, w))
		n.biases = append(n.biases, mat.NewVecDense(out, b))
	}
	return n, nil
}

func (n *Network) Sizes() []int { return append([]int(nil), n.sizes...) }

func (n *Network) ParamCount() int {
	total := 0
	for l := range n.weights {
		r, c := n.weights[l].Dims()
		total += r*c + n.biases[l].Len()
	}
	return total
}

func (n *Network) Predict(input []float64) ([]float64, error) {
	if len(input) != n.sizes[0] {
		return nil, fmt.Errorf("%w: got %d want %d", ErrInputSize, len(input), n.sizes[0])
	}

	x := mat.NewVecDense(len(input), append([]float64(nil), input...))
	last := len(n.weights) - 1
	for l, w := range n.weights {
		y := mat.NewVecDense(n.sizes[l+1], nil)
		y.MulVec(w, x)
		y.AddVec(y, n.biases[l])

		data := y.RawVector().Data
		for i, v := range data {
			if l == last {
				data[i] = sigmoid(v)
			} else {
				data[i] = math.Tanh(v)
			}
		}
		x = y
	}

	return append([]float64(nil), x.RawVector().Data...), nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// params lists the backing arrays of every weight and bias in a fixed order.
func (n *Network) params() [][]float64 {
	out := make([][]float64, 0, 2*len(n.weights))
	for l := range n.weights {
		out = append(out, n.weights[l].RawMatrix().Data, n.biases[l].RawVector().Data)
	}
	return out
}

// Mutate adds N(0, power) noise to each parameter with probability rate.
func (n *Network) Mutate(rng *rand.Rand, rate, power float64) {
	if rate <= 0 {
		return
	}
	for _, p := range n.params() {
		for i := range p {
			if rng.Float64() < rate {
				p[i] += rng.NormFloat64() * power
			}
		}
	}
}

// Crossover performs uniform crossover: for every parameter a coin decides
// which child inherits it from n and which from other. The children share no
// storage with either parent.
func (n *Network) Crossover(other *Network, rng *rand.Rand) (*Network, *Network, error) {
	if !slices.Equal(n.sizes, other.sizes) {
		return nil, nil, fmt.Errorf("%w: %v vs %v", ErrShapeMismatch, n.sizes, other.sizes)
	}

	a, b := n.Clone(), other.Clone()
	pa, pb := a.params(), b.params()
	for k := range pa {
		for i := range pa[k] {
			if rng.Float64() < 0.5 {
				pa[k][i], pb[k][i] = pb[k][i], pa[k][i]
			}
		}
	}
	return a, b, nil
}

func (n *Network) Clone() *Network {
	out := &Network{sizes: append([]int(nil), n.sizes...)}
	for l := range n.weights {
		out.weights = append(out.weights, mat.DenseCopyOf(n.weights[l]))
		out.biases = append(out.biases, mat.VecDenseCopyOf(n.biases[l]))
	}
	return out
}
