package profile

import (
	"math"
	"math/rand"
)

const negativeSamples = 5

// InterestModel is a per-user incremental word-embedding accumulator: a
// skip-gram model with negative sampling over a growing vocabulary. It is
// trained online on each new message, never retrained from full history, so
// update cost is proportional to the new text. Vector initialization is
// stochastic; Vector() is a pure function of the current weights.
//
// Not safe for concurrent use; the profile service serializes access per
// user.
type InterestModel struct {
	dims    int
	window  int
	passes  int
	vocab   map[string]int
	input   [][]float32
	context [][]float32
	rng     *rand.Rand
}

func NewInterestModel(dims, window, passes int, seed int64) *InterestModel {
	if dims <= 0 {
		dims = 100
	}
	if window <= 0 {
		window = 5
	}
	if passes <= 0 {
		passes = 10
	}
	return &InterestModel{
		dims:   dims,
		window: window,
		passes: passes,
		vocab:  make(map[string]int),
		rng:    rand.New(rand.NewSource(seed)),
	}
}

func (m *InterestModel) Dims() int      { return m.dims }
func (m *InterestModel) VocabSize() int { return len(m.vocab) }

// Update extends the vocabulary with any unseen tokens and runs a bounded
// number of training passes over the new token sequence only. An empty
// sequence is a no-op.
func (m *InterestModel) Update(tokens []string) {
	if len(tokens) == 0 {
		return
	}

	ids := make([]int, len(tokens))
	for i, tok := range tokens {
		ids[i] = m.intern(tok)
	}

	lr := float32(0.025)
	decay := lr / float32(m.passes+1)
	for pass := 0; pass < m.passes; pass++ {
		m.trainPass(ids, lr)
		lr -= decay
	}
}

// Vector returns the arithmetic mean of all vocabulary vectors, or nil when
// the vocabulary is empty.
func (m *InterestModel) Vector() []float32 {
	if len(m.vocab) == 0 {
		return nil
	}
	mean := make([]float32, m.dims)
	for _, vec := range m.input {
		for i, v := range vec {
			mean[i] += v
		}
	}
	inv := float32(1) / float32(len(m.input))
	for i := range mean {
		mean[i] *= inv
	}
	return mean
}

func (m *InterestModel) intern(token string) int {
	if id, ok := m.vocab[token]; ok {
		return id
	}
	id := len(m.vocab)
	m.vocab[token] = id

	vec := make([]float32, m.dims)
	for i := range vec {
		vec[i] = (m.rng.Float32() - 0.5) / float32(m.dims)
	}
	m.input = append(m.input, vec)
	m.context = append(m.context, make([]float32, m.dims))
	return id
}

func (m *InterestModel) trainPass(ids []int, lr float32) {
	for i, center := range ids {
		lo := i - m.window
		if lo < 0 {
			lo = 0
		}
		hi := i + m.window
		if hi >= len(ids) {
			hi = len(ids) - 1
		}
		for j := lo; j <= hi; j++ {
			if j == i {
				continue
			}
			m.trainPair(center, ids[j], 1, lr)
			for k := 0; k < negativeSamples; k++ {
				neg := m.rng.Intn(len(m.vocab))
				if neg == ids[j] {
					continue
				}
				m.trainPair(center, neg, 0, lr)
			}
		}
	}
}

func (m *InterestModel) trainPair(center, target int, label float32, lr float32) {
	v := m.input[center]
	u := m.context[target]

	var dot float32
	for i := range v {
		dot += v[i] * u[i]
	}
	g := (label - sigmoid(dot)) * lr
	for i := range v {
		vi := v[i]
		v[i] += g * u[i]
		u[i] += g * vi
	}
}

func sigmoid(x float32) float32 {
	return float32(1 / (1 + math.Exp(-float64(x))))
}
