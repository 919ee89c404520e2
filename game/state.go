package game

// StateSize is the length of the encoded observation vector.
const StateSize = 11

// Encode returns the observation vector for the current state.
func (g *Game) Encode() []float64 {
	return EncodeState(g)
}

// EncodeState maps the game onto the 11-dimensional observation the network
// was designed around: three danger flags relative to the heading, a one-hot
// heading, and four food-position flags.
//
// The danger-right and danger-left disjunctions are not the symmetric
// rotation one would write from scratch: both repeat the up/down cases in a
// way that only partially covers the left/right headings. Trained weights
// depend on exactly this encoding, so it is kept verbatim; state_test.go
// pins the asymmetric cases.
func EncodeState(g *Game) []float64 {
	head := g.Head()
	ptL := Point{X: head.X - g.Block, Y: head.Y}
	ptR := Point{X: head.X + g.Block, Y: head.Y}
	ptU := Point{X: head.X, Y: head.Y - g.Block}
	ptD := Point{X: head.X, Y: head.Y + g.Block}

	dirL := g.Dir == DirLeft
	dirR := g.Dir == DirRight
	dirU := g.Dir == DirUp
	dirD := g.Dir == DirDown

	state := []bool{
		// danger straight
		(dirU && g.IsCollision(&ptU)) ||
			(dirD && g.IsCollision(&ptD)) ||
			(dirL && g.IsCollision(&ptL)) ||
			(dirR && g.IsCollision(&ptR)),

		// danger right
		(dirU && g.IsCollision(&ptR)) ||
			(dirD && g.IsCollision(&ptL)) ||
			(dirU && g.IsCollision(&ptU)) ||
			(dirD && g.IsCollision(&ptD)),

		// danger left
		(dirU && g.IsCollision(&ptR)) ||
			(dirD && g.IsCollision(&ptL)) ||
			(dirR && g.IsCollision(&ptU)) ||
			(dirL && g.IsCollision(&ptD)),

		// heading one-hot
		dirL, dirR, dirU, dirD,

		// food position relative to head; not mutually exclusive
		g.Food.X < head.X,
		g.Food.X > head.X,
		g.Food.Y < head.Y,
		g.Food.Y > head.Y,
	}

	vec := make([]float64, StateSize)
	for i, b := range state {
		if b {
			vec[i] = 1
		}
	}
	return vec
}
