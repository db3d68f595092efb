package forecast

import (
	"context"
	"math"
	"math/rand"

	"QCast/internal/quantum"
)

// EncoderConfig configures the recurrent sequence encoder.
type EncoderConfig struct {
	InputSize    int
	HiddenSize   int
	NumLayers    int
	Dropout      float64
	LearningRate float64
	Seed         int64
}

// Encoder is a multi-layer LSTM regression head over quantum-enhanced
// sequences. Each window's timesteps first pass through the variational
// unit (when one is attached and the feature width reaches the circuit
// width), then through the recurrent stack, and the final hidden state is
// projected to one scalar. Weights are trained by backpropagation through
// time with Adam.
//
// Not safe for concurrent use; the owning orchestrator serializes access.
type Encoder struct {
	cfg  EncoderConfig
	unit *quantum.Unit // nil disables enhancement

	layers []*lstmLayer
	wOut   []float64 // HiddenSize
	bOut   []float64 // 1

	dwOut []float64
	dbOut []float64

	opt *adam
	rng *rand.Rand

	fallbacks int
}

// NewEncoder builds an encoder with deterministic initialization from the
// seed. Two encoders with equal configs produce identical initial weights.
func NewEncoder(cfg EncoderConfig, unit *quantum.Unit) *Encoder {
	rng := rand.New(rand.NewSource(cfg.Seed))

	e := &Encoder{
		cfg:   cfg,
		unit:  unit,
		wOut:  make([]float64, cfg.HiddenSize),
		bOut:  make([]float64, 1),
		dwOut: make([]float64, cfg.HiddenSize),
		dbOut: make([]float64, 1),
		rng:   rng,
	}

	in := cfg.InputSize
	for l := 0; l < cfg.NumLayers; l++ {
		e.layers = append(e.layers, newLSTMLayer(in, cfg.HiddenSize, rng))
		in = cfg.HiddenSize
	}

	k := 1 / math.Sqrt(float64(cfg.HiddenSize))
	for i := range e.wOut {
		e.wOut[i] = (2*rng.Float64() - 1) * k
	}
	e.bOut[0] = (2*rng.Float64() - 1) * k

	e.opt = newAdam(cfg.LearningRate, e.params())
	return e
}

// FallbackCount returns how many per-sample quantum fallbacks were observed
// across all forward passes so far.
func (e *Encoder) FallbackCount() int {
	return e.fallbacks
}

// TrainEpoch runs one full-batch gradient step minimizing MSE and returns
// the epoch's training loss.
func (e *Encoder) TrainEpoch(ctx context.Context, seqs [][][]float64, targets []float64) float64 {
	enhanced := e.enhance(ctx, seqs)
	e.zeroGrads()

	n := float64(len(enhanced))
	var loss float64
	for i, seq := range enhanced {
		pred, st := e.forwardSample(seq, true)
		diff := pred - targets[i]
		loss += diff * diff
		e.backwardSample(st, 2*diff/n)
	}

	e.opt.step(e.params(), e.grads())
	return loss / n
}

// Loss computes the inference-mode MSE over the given windows.
func (e *Encoder) Loss(ctx context.Context, seqs [][][]float64, targets []float64) float64 {
	preds := e.Forward(ctx, seqs)
	var loss float64
	for i, p := range preds {
		diff := p - targets[i]
		loss += diff * diff
	}
	return loss / float64(len(preds))
}

// Forward runs inference over a batch of windows, one scalar per window.
// Output position i corresponds to input position i.
func (e *Encoder) Forward(ctx context.Context, seqs [][][]float64) []float64 {
	enhanced := e.enhance(ctx, seqs)
	preds := make([]float64, len(enhanced))
	for i, seq := range enhanced {
		preds[i], _ = e.forwardSample(seq, false)
	}
	return preds
}

// Predict runs inference on a single window.
func (e *Encoder) Predict(ctx context.Context, seq [][]float64) float64 {
	return e.Forward(ctx, [][][]float64{seq})[0]
}

// enhance applies the variational unit to every timestep of every window.
// Enhancement only engages when the feature width reaches the circuit
// width; narrower inputs pass through unchanged. The per-sample evaluations
// are independent, so this loop could be parallelized, but result ordering
// must stay aligned with the input.
func (e *Encoder) enhance(ctx context.Context, seqs [][][]float64) [][][]float64 {
	if e.unit == nil || e.cfg.InputSize < quantum.MaxQubits {
		return seqs
	}

	out := make([][][]float64, len(seqs))
	for i, seq := range seqs {
		enhanced := make([][]float64, len(seq))
		for t, vec := range seq {
			res := e.unit.Transform(ctx, vec)
			if res.Fallback {
				e.fallbacks++
			}
			enhanced[t] = res.Vector
		}
		out[i] = enhanced
	}
	return out
}

type sampleState struct {
	caches   []*layerCache
	headVec  []float64 // final hidden state after head dropout
	headMask []float64 // nil in eval mode
}

func (e *Encoder) forwardSample(seq [][]float64, train bool) (float64, *sampleState) {
	st := &sampleState{}
	x := seq
	last := len(e.layers) - 1
	for li, l := range e.layers {
		cache := l.forward(x)
		st.caches = append(st.caches, cache)
		x = cache.h
		if train && e.cfg.Dropout > 0 && li < last {
			cache.mask = e.dropoutMask(len(x), e.cfg.HiddenSize)
			x = applyMask(x, cache.mask)
		}
	}

	hT := x[len(x)-1]
	head := hT
	if train && e.cfg.Dropout > 0 {
		st.headMask = e.dropoutMask(1, e.cfg.HiddenSize)[0]
		head = make([]float64, len(hT))
		for j := range hT {
			head[j] = hT[j] * st.headMask[j]
		}
	}
	st.headVec = head

	pred := e.bOut[0]
	for j, w := range e.wOut {
		pred += w * head[j]
	}
	return pred, st
}

func (e *Encoder) backwardSample(st *sampleState, dpred float64) {
	H := e.cfg.HiddenSize
	top := st.caches[len(st.caches)-1]
	T := len(top.h)

	for j := 0; j < H; j++ {
		e.dwOut[j] += dpred * st.headVec[j]
	}
	e.dbOut[0] += dpred

	dhSeq := make([][]float64, T)
	for t := range dhSeq {
		dhSeq[t] = make([]float64, H)
	}
	for j := 0; j < H; j++ {
		d := dpred * e.wOut[j]
		if st.headMask != nil {
			d *= st.headMask[j]
		}
		dhSeq[T-1][j] = d
	}

	for li := len(e.layers) - 1; li >= 0; li-- {
		dx := e.layers[li].backward(st.caches[li], dhSeq)
		if li == 0 {
			break
		}
		below := st.caches[li-1]
		if below.mask != nil {
			dx = applyMask(dx, below.mask)
		}
		dhSeq = dx
	}
}

func (e *Encoder) dropoutMask(rows, cols int) [][]float64 {
	p := e.cfg.Dropout
	scale := 1 / (1 - p)
	mask := make([][]float64, rows)
	for t := range mask {
		row := make([]float64, cols)
		for j := range row {
			if e.rng.Float64() >= p {
				row[j] = scale
			}
		}
		mask[t] = row
	}
	return mask
}

func applyMask(x, mask [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for t := range x {
		row := make([]float64, len(x[t]))
		for j := range row {
			row[j] = x[t][j] * mask[t][j]
		}
		out[t] = row
	}
	return out
}

func (e *Encoder) params() [][]float64 {
	var ps [][]float64
	for _, l := range e.layers {
		ps = append(ps, l.w, l.u, l.b)
	}
	return append(ps, e.wOut, e.bOut)
}

func (e *Encoder) grads() [][]float64 {
	var gs [][]float64
	for _, l := range e.layers {
		gs = append(gs, l.dw, l.du, l.db)
	}
	return append(gs, e.dwOut, e.dbOut)
}

func (e *Encoder) zeroGrads() {
	for _, g := range e.grads() {
		for i := range g {
			g[i] = 0
		}
	}
}

// lstmLayer is one LSTM layer. Weight rows are ordered by gate:
// input, forget, cell, output; row r of w/u belongs to gate r/H, unit r%H.
type lstmLayer struct {
	in, hid int

	w []float64 // 4H x in
	u []float64 // 4H x H
	b []float64 // 4H

	dw []float64
	du []float64
	db []float64
}

func newLSTMLayer(in, hid int, rng *rand.Rand) *lstmLayer {
	l := &lstmLayer{
		in:  in,
		hid: hid,
		w:   make([]float64, 4*hid*in),
		u:   make([]float64, 4*hid*hid),
		b:   make([]float64, 4*hid),
		dw:  make([]float64, 4*hid*in),
		du:  make([]float64, 4*hid*hid),
		db:  make([]float64, 4*hid),
	}

	k := 1 / math.Sqrt(float64(hid))
	for i := range l.w {
		l.w[i] = (2*rng.Float64() - 1) * k
	}
	for i := range l.u {
		l.u[i] = (2*rng.Float64() - 1) * k
	}
	for i := range l.b {
		l.b[i] = (2*rng.Float64() - 1) * k
	}
	return l
}

// layerCache holds everything the backward pass needs for one window.
type layerCache struct {
	x  [][]float64 // inputs as fed to this layer
	h  [][]float64 // hidden states
	c  [][]float64 // cell states
	tc [][]float64 // tanh(cell)

	gi, gf, gg, gout [][]float64 // post-activation gates

	mask [][]float64 // dropout mask applied to this layer's output
}

// forward runs the layer over one window, state reset at t=0.
func (l *lstmLayer) forward(x [][]float64) *layerCache {
	T := len(x)
	H := l.hid

	cache := &layerCache{
		x:    x,
		h:    make([][]float64, T),
		c:    make([][]float64, T),
		tc:   make([][]float64, T),
		gi:   make([][]float64, T),
		gf:   make([][]float64, T),
		gg:   make([][]float64, T),
		gout: make([][]float64, T),
	}

	hPrev := make([]float64, H)
	cPrev := make([]float64, H)
	pre := make([]float64, 4*H)

	for t := 0; t < T; t++ {
		xt := x[t]
		for r := 0; r < 4*H; r++ {
			z := l.b[r]
			offW := r * l.in
			for j := 0; j < l.in; j++ {
				z += l.w[offW+j] * xt[j]
			}
			offU := r * H
			for j := 0; j < H; j++ {
				z += l.u[offU+j] * hPrev[j]
			}
			pre[r] = z
		}

		gi := make([]float64, H)
		gf := make([]float64, H)
		gg := make([]float64, H)
		gout := make([]float64, H)
		ct := make([]float64, H)
		tct := make([]float64, H)
		ht := make([]float64, H)

		for j := 0; j < H; j++ {
			gi[j] = sigmoid(pre[j])
			gf[j] = sigmoid(pre[H+j])
			gg[j] = math.Tanh(pre[2*H+j])
			gout[j] = sigmoid(pre[3*H+j])
			ct[j] = gf[j]*cPrev[j] + gi[j]*gg[j]
			tct[j] = math.Tanh(ct[j])
			ht[j] = gout[j] * tct[j]
		}

		cache.gi[t], cache.gf[t], cache.gg[t], cache.gout[t] = gi, gf, gg, gout
		cache.c[t], cache.tc[t], cache.h[t] = ct, tct, ht
		hPrev, cPrev = ht, ct
	}

	return cache
}

// backward runs BPTT over one window given per-timestep gradients of the
// layer output, accumulates weight gradients and returns the gradient with
// respect to the layer input.
func (l *lstmLayer) backward(cache *layerCache, dhSeq [][]float64) [][]float64 {
	T := len(cache.h)
	H := l.hid

	dx := make([][]float64, T)
	for t := range dx {
		dx[t] = make([]float64, l.in)
	}

	dhNext := make([]float64, H)
	dcNext := make([]float64, H)
	dpre := make([]float64, 4*H)

	for t := T - 1; t >= 0; t-- {
		var hPrev, cPrev []float64
		if t > 0 {
			hPrev = cache.h[t-1]
			cPrev = cache.c[t-1]
		}

		for j := 0; j < H; j++ {
			dh := dhSeq[t][j] + dhNext[j]
			gi, gf, gg, gout := cache.gi[t][j], cache.gf[t][j], cache.gg[t][j], cache.gout[t][j]
			tc := cache.tc[t][j]

			do := dh * tc
			dpre[3*H+j] = do * gout * (1 - gout)

			dc := dh*gout*(1-tc*tc) + dcNext[j]

			di := dc * gg
			dpre[j] = di * gi * (1 - gi)

			var cp float64
			if cPrev != nil {
				cp = cPrev[j]
			}
			df := dc * cp
			dpre[H+j] = df * gf * (1 - gf)

			dg := dc * gi
			dpre[2*H+j] = dg * (1 - gg*gg)

			dcNext[j] = dc * gf
		}

		for j := range dhNext {
			dhNext[j] = 0
		}

		xt := cache.x[t]
		for r := 0; r < 4*H; r++ {
			dp := dpre[r]
			if dp == 0 {
				continue
			}
			offW := r * l.in
			for j := 0; j < l.in; j++ {
				l.dw[offW+j] += dp * xt[j]
				dx[t][j] += l.w[offW+j] * dp
			}
			offU := r * H
			for j := 0; j < H; j++ {
				if hPrev != nil {
					l.du[offU+j] += dp * hPrev[j]
				}
				dhNext[j] += l.u[offU+j] * dp
			}
			l.db[r] += dp
		}
	}

	return dx
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
