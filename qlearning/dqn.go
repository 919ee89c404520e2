package qlearning

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

func init() {
	gob.Register(&tensor.Dense{})
	gob.Register(map[string]*tensor.Dense{})
}

// ErrModelNotFound is returned by Load when no weights file exists at the
// given path. Training treats it as "start fresh"; evaluation treats it as
// fatal.
var ErrModelNotFound = errors.New("model weights not found")

// Network is a two-layer feed-forward Q-value approximator:
// inputs -> hidden (ReLU) -> outputs, no activation on the output layer.
// The weight tensors are owned here and updated in place by the Trainer.
type Network struct {
	Inputs  int
	Hidden  int
	Outputs int

	w1, b1 *tensor.Dense
	w2, b2 *tensor.Dense
}

// NewNetwork creates a network with Glorot-initialized weights and zero
// biases.
func NewNetwork(inputs, hidden, outputs int) *Network {
	g := gorgonia.NewGraph()

	w1 := gorgonia.NewMatrix(g, tensor.Float64,
		gorgonia.WithShape(inputs, hidden),
		gorgonia.WithInit(gorgonia.GlorotU(1.0)))
	b1 := gorgonia.NewMatrix(g, tensor.Float64,
		gorgonia.WithShape(1, hidden),
		gorgonia.WithInit(gorgonia.Zeroes()))
	w2 := gorgonia.NewMatrix(g, tensor.Float64,
		gorgonia.WithShape(hidden, outputs),
		gorgonia.WithInit(gorgonia.GlorotU(1.0)))
	b2 := gorgonia.NewMatrix(g, tensor.Float64,
		gorgonia.WithShape(1, outputs),
		gorgonia.WithInit(gorgonia.Zeroes()))

	return &Network{
		Inputs:  inputs,
		Hidden:  hidden,
		Outputs: outputs,
		w1:      w1.Value().(*tensor.Dense),
		b1:      b1.Value().(*tensor.Dense),
		w2:      w2.Value().(*tensor.Dense),
		b2:      b2.Value().(*tensor.Dense),
	}
}

// Forward runs a batch of states through the network and returns the flat
// Q-values, Outputs per state. len(states) must be a multiple of Inputs.
func (n *Network) Forward(states []float64) ([]float64, error) {
	g := gorgonia.NewGraph()
	pred, _, err := n.buildForward(g, states)
	if err != nil {
		return nil, err
	}

	vm := gorgonia.NewTapeMachine(g)
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		return nil, fmt.Errorf("forward pass: %w", err)
	}

	out, ok := pred.Value().(*tensor.Dense)
	if !ok {
		return nil, fmt.Errorf("forward pass: unexpected prediction type %T", pred.Value())
	}

	data := out.Data().([]float64)
	qvals := make([]float64, len(data))
	copy(qvals, data)
	return qvals, nil
}

// buildForward constructs the forward graph for a batch of states on g and
// returns the prediction node along with the parameter nodes, in the fixed
// order the solver sees them.
func (n *Network) buildForward(g *gorgonia.ExprGraph, states []float64) (*gorgonia.Node, gorgonia.Nodes, error) {
	if len(states) == 0 || len(states)%n.Inputs != 0 {
		return nil, nil, fmt.Errorf("state batch length %d is not a multiple of input size %d", len(states), n.Inputs)
	}
	batch := len(states) / n.Inputs

	backing := make([]float64, len(states))
	copy(backing, states)
	in := tensor.New(tensor.WithShape(batch, n.Inputs), tensor.WithBacking(backing))

	x := gorgonia.NodeFromAny(g, in, gorgonia.WithName("x"))
	w1 := gorgonia.NodeFromAny(g, n.w1, gorgonia.WithName("w1"))
	b1 := gorgonia.NodeFromAny(g, n.b1, gorgonia.WithName("b1"))
	w2 := gorgonia.NodeFromAny(g, n.w2, gorgonia.WithName("w2"))
	b2 := gorgonia.NodeFromAny(g, n.b2, gorgonia.WithName("b2"))

	h := gorgonia.Must(gorgonia.Mul(x, w1))
	h = gorgonia.Must(gorgonia.BroadcastAdd(h, b1, nil, []byte{0}))
	h = gorgonia.Must(gorgonia.Rectify(h))

	out := gorgonia.Must(gorgonia.Mul(h, w2))
	pred := gorgonia.Must(gorgonia.BroadcastAdd(out, b2, nil, []byte{0}))

	return pred, gorgonia.Nodes{w1, b1, w2, b2}, nil
}

// Save writes the weights to path as a gob blob. The write goes to a
// temporary file first and is renamed into place so an interrupt cannot
// leave a truncated checkpoint behind.
func (n *Network) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create model directory: %w", err)
		}
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create weights file: %w", err)
	}

	weights := map[string]*tensor.Dense{
		"w1": n.w1,
		"b1": n.b1,
		"w2": n.w2,
		"b2": n.b2,
	}
	if err := gob.NewEncoder(f).Encode(weights); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("encode weights: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close weights file: %w", err)
	}
	return os.Rename(tmp, path)
}

// Load restores weights from path. There is no version or shape header in
// the blob: loading weights saved for a different architecture is undefined.
func (n *Network) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrModelNotFound, path)
		}
		return fmt.Errorf("open weights file: %w", err)
	}
	defer f.Close()

	var weights map[string]*tensor.Dense
	if err := gob.NewDecoder(f).Decode(&weights); err != nil {
		return fmt.Errorf("decode weights: %w", err)
	}

	for name, dst := range map[string]*tensor.Dense{
		"w1": n.w1, "b1": n.b1, "w2": n.w2, "b2": n.b2,
	} {
		src, ok := weights[name]
		if !ok {
			return fmt.Errorf("weights file %s is missing tensor %q", path, name)
		}
		if err := tensor.Copy(dst, src); err != nil {
			return fmt.Errorf("restore tensor %q: %w", name, err)
		}
	}
	return nil
}
