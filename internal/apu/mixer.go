package apu

const (
	// batchFrames is the number of stereo frames handed to the sink at once.
	batchFrames = 512
	// backpressureFrames is the sink depth above which flushes are skipped.
	backpressureFrames = 4 * batchFrames
	// maxBatchFrames caps a batch that keeps missing flushes; it is dropped.
	maxBatchFrames = 4 * batchFrames
)

// Sink receives interleaved stereo float32 samples in [-1, 1].
// PushSamples must not keep the slice after returning.
type Sink interface {
	PushSamples(samples []float32)
	// Pending is the number of stereo frames queued but not yet played.
	Pending() int
}

// LosslessSink is a Sink that must see every sample, such as a file
// recorder. Its Pending is ignored and backpressure on other sinks never
// holds back or drops its batches.
type LosslessSink interface {
	Sink
	Lossless() bool
}

func isLossless(s Sink) bool {
	l, ok := s.(LosslessSink)
	return ok && l.Lossless()
}

// mix returns one stereo sample from the current channel outputs, panned by
// NR51 and scaled by the NR50 master volumes.
func (a *APU) mix() (float32, float32) {
	if !a.power {
		return 0, 0
	}
	ch := [4]float32{a.ch1.output(), a.ch2.output(), a.ch3.output(), a.ch4.output()}
	nr50, nr51 := a.regs[0xFF24-regBase], a.regs[0xFF25-regBase]
	var l, r float32
	for i, v := range ch {
		if nr51&(1<<(i+4)) != 0 {
			l += v
		}
		if nr51&(1<<i) != 0 {
			r += v
		}
	}
	l *= headroom * float32(nr50>>4&0x07+1) / 8
	r *= headroom * float32(nr50&0x07+1) / 8
	return l, r
}

// output box-filters hardware-rate samples down to the host rate and batches
// them for the sink.
type output struct {
	sampleRate      int
	cyclesPerSample float64

	clock      float64
	sumL, sumR float64

	sink     Sink
	lossless []Sink
	batch    []float32
	// sent is the prefix of batch already handed to the lossless sinks.
	sent int

	flushed, skipped, dropped int
}

func (o *output) init(sampleRate int) {
	o.sampleRate = sampleRate
	o.cyclesPerSample = float64(cpuHz) / float64(sampleRate)
	o.batch = make([]float32, 0, 2*maxBatchFrames)
}

func (o *output) reset() {
	o.clock, o.sumL, o.sumR = 0, 0, 0
	o.clear()
}

func (o *output) clear() {
	o.batch = o.batch[:0]
	o.sent = 0
}

// setSink splits s into the throttled sink and the lossless ones.
func (o *output) setSink(s Sink) {
	o.sink, o.lossless = nil, nil
	var gated multiSink
	members, ok := s.(multiSink)
	if !ok && s != nil {
		members = multiSink{s}
	}
	for _, k := range members {
		if isLossless(k) {
			o.lossless = append(o.lossless, k)
		} else {
			gated = append(gated, k)
		}
	}
	switch len(gated) {
	case 0:
	case 1:
		o.sink = gated[0]
	default:
		o.sink = gated
	}
}

// feed hands the samples not yet seen by the lossless sinks to them.
func (o *output) feed() {
	fresh := o.batch[o.sent:]
	if len(fresh) == 0 {
		return
	}
	for _, k := range o.lossless {
		k.PushSamples(fresh)
	}
	o.sent = len(o.batch)
}

// accumulate adds a constant level held for n T-cycles. When a full output
// period is covered, the average is emitted and the overshoot carried over.
func (o *output) accumulate(l, r float32, n int) {
	o.sumL += float64(l) * float64(n)
	o.sumR += float64(r) * float64(n)
	o.clock += float64(n)
	if o.clock < o.cyclesPerSample {
		return
	}
	over := o.clock - o.cyclesPerSample
	carryL, carryR := float64(l)*over, float64(r)*over
	o.batch = append(o.batch,
		float32((o.sumL-carryL)/o.cyclesPerSample),
		float32((o.sumR-carryR)/o.cyclesPerSample))
	o.sumL, o.sumR, o.clock = carryL, carryR, over
	if len(o.batch)/2 >= batchFrames {
		o.flush()
	}
}

// flush hands the batch to the sink unless the sink is backed up. A batch
// that has grown past maxBatchFrames while waiting is discarded. Lossless
// sinks are fed in batchFrames chunks either way.
func (o *output) flush() {
	if len(o.batch) == 0 {
		return
	}
	if o.sink != nil && o.sink.Pending() > backpressureFrames {
		o.skipped++
		if (len(o.batch)-o.sent)/2 >= batchFrames {
			o.feed()
		}
		if len(o.batch)/2 >= maxBatchFrames {
			o.feed()
			o.dropped += len(o.batch) / 2
			o.clear()
		}
		return
	}
	o.feed()
	if o.sink != nil {
		o.sink.PushSamples(o.batch)
		o.flushed++
	}
	o.clear()
}

// SetSink attaches the audio consumer; nil discards samples. A MultiSink is
// split so that lossless members bypass backpressure.
func (a *APU) SetSink(s Sink) { a.out.setSink(s) }

// Flush pushes any buffered samples now. Throttled sinks are still subject
// to backpressure; lossless sinks always receive the tail.
func (a *APU) Flush() {
	a.out.feed()
	a.out.flush()
}

func (a *APU) SampleRate() int { return a.out.sampleRate }

// Stats reports flushed and skipped batches and frames dropped under backpressure.
func (a *APU) Stats() (flushed, skipped, dropped int) {
	return a.out.flushed, a.out.skipped, a.out.dropped
}

// MultiSink fans samples out to several sinks. Pending reports the deepest
// queue among the sinks that are not lossless.
func MultiSink(sinks ...Sink) Sink { return multiSink(sinks) }

type multiSink []Sink

func (m multiSink) PushSamples(s []float32) {
	for _, k := range m {
		k.PushSamples(s)
	}
}

func (m multiSink) Pending() int {
	max := 0
	for _, k := range m {
		if isLossless(k) {
			continue
		}
		if p := k.Pending(); p > max {
			max = p
		}
	}
	return max
}
