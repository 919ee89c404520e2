package game

import (
	"fmt"

	"golang.org/x/exp/rand"
)

// Point is a grid-aligned pixel coordinate.
type Point struct {
	X, Y int
}

// Direction is the snake's absolute heading. The declaration order is
// clockwise, which is what makes relative turns a plain index rotation.
type Direction int

const (
	DirRight Direction = iota
	DirDown
	DirLeft
	DirUp
)

func (d Direction) String() string {
	switch d {
	case DirRight:
		return "right"
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	case DirUp:
		return "up"
	default:
		return "unknown"
	}
}

// Action is a turn relative to the current heading.
type Action int

const (
	ActionStraight Action = iota
	ActionRight
	ActionLeft
)

// NumActions is the size of the action space.
const NumActions = 3

// Reward values returned by Step.
const (
	RewardFood  = 10.0
	RewardDeath = -10.0
	RewardNone  = 0.0
)

// DecodeAction maps a canonical one-hot 3-vector onto an Action. Anything
// that is not exactly one of the three canonical vectors is a precondition
// violation and is rejected rather than defaulted.
func DecodeAction(vec []float64) (Action, error) {
	if len(vec) != NumActions {
		return 0, fmt.Errorf("invalid action vector: want length %d, got %d", NumActions, len(vec))
	}
	hot := -1
	for i, v := range vec {
		switch v {
		case 0:
		case 1:
			if hot >= 0 {
				return 0, fmt.Errorf("invalid action vector %v: more than one hot index", vec)
			}
			hot = i
		default:
			return 0, fmt.Errorf("invalid action vector %v: entries must be 0 or 1", vec)
		}
	}
	if hot < 0 {
		return 0, fmt.Errorf("invalid action vector %v: no hot index", vec)
	}
	return Action(hot), nil
}

// OneHot returns the action encoded as a 3-vector.
func (a Action) OneHot() []float64 {
	vec := make([]float64, NumActions)
	vec[a] = 1
	return vec
}

// Game is the snake environment. All randomness flows through the rng passed
// at construction so runs are reproducible.
type Game struct {
	Width  int
	Height int
	Block  int

	Snake          []Point // head is Snake[0]
	Dir            Direction
	Food           Point
	Score          int
	FrameIteration int

	rng *rand.Rand
}

// NewGame creates an environment with the given pixel bounds and block size
// and resets it to the initial state.
func NewGame(width, height, block int, rng *rand.Rand) *Game {
	g := &Game{
		Width:  width,
		Height: height,
		Block:  block,
		rng:    rng,
	}
	g.Reset()
	return g
}

// Reset reinitializes the game in place: three segments centered on the
// grid, heading right, score zero, food on a random free cell. External
// holders of the Game keep observing the same instance.
func (g *Game) Reset() {
	head := Point{X: g.Width / 2, Y: g.Height / 2}
	g.Snake = []Point{
		head,
		{X: head.X - g.Block, Y: head.Y},
		{X: head.X - 2*g.Block, Y: head.Y},
	}
	g.Dir = DirRight
	g.Score = 0
	g.FrameIteration = 0
	g.placeFood()
}

// Head returns the snake's head position.
func (g *Game) Head() Point {
	return g.Snake[0]
}

// Step advances the game one tick. The action is a turn relative to the
// current heading. It returns the reward, whether the episode ended, and the
// current score. A terminal step leaves the score untouched.
func (g *Game) Step(action Action) (reward float64, done bool, score int) {
	g.FrameIteration++

	g.Dir = g.turn(action)
	newHead := g.advance(g.Head(), g.Dir)
	g.Snake = append([]Point{newHead}, g.Snake...)

	// Death by collision, or by stalling long enough that the episode can
	// no longer be productive.
	if g.IsCollision(nil) || g.FrameIteration > 100*len(g.Snake) {
		return RewardDeath, true, g.Score
	}

	if newHead == g.Food {
		g.Score++
		g.placeFood()
		return RewardFood, false, g.Score
	}

	g.Snake = g.Snake[:len(g.Snake)-1]
	return RewardNone, false, g.Score
}

// IsCollision reports whether the point is outside the grid bounds or on a
// non-head body segment. A nil point means the snake's head.
func (g *Game) IsCollision(pt *Point) bool {
	p := g.Head()
	if pt != nil {
		p = *pt
	}
	if p.X > g.Width-g.Block || p.X < 0 || p.Y > g.Height-g.Block || p.Y < 0 {
		return true
	}
	for _, seg := range g.Snake[1:] {
		if seg == p {
			return true
		}
	}
	return false
}

// turn applies a relative action to the current heading using the clockwise
// declaration order of Direction.
func (g *Game) turn(action Action) Direction {
	switch action {
	case ActionRight:
		return Direction((int(g.Dir) + 1) % 4)
	case ActionLeft:
		return Direction((int(g.Dir) + 3) % 4)
	default:
		return g.Dir
	}
}

// advance moves a point one block in the given direction.
func (g *Game) advance(p Point, dir Direction) Point {
	switch dir {
	case DirRight:
		p.X += g.Block
	case DirLeft:
		p.X -= g.Block
	case DirDown:
		p.Y += g.Block
	case DirUp:
		p.Y -= g.Block
	}
	return p
}

// placeFood picks a uniformly random cell and resamples while it overlaps
// the snake.
func (g *Game) placeFood() {
	cols := (g.Width - g.Block) / g.Block
	rows := (g.Height - g.Block) / g.Block
	for {
		food := Point{
			X: g.rng.Intn(cols+1) * g.Block,
			Y: g.rng.Intn(rows+1) * g.Block,
		}
		if !g.onSnake(food) {
			g.Food = food
			return
		}
	}
}

func (g *Game) onSnake(p Point) bool {
	for _, seg := range g.Snake {
		if seg == p {
			return true
		}
	}
	return false
}
