package core

import "github.com/spaghettifunk/vkscene/engine/containers"

const AVG_COUNT uint8 = 30

// Metrics keeps a rolling frame time average and a frames-per-second counter.
type Metrics struct {
	frameTimes         *containers.RingQueue[float64]
	frameAVGCounter    uint8
	MSavg              float64
	Frames             int32
	AccumulatedFrameMS float64
	FPS                float64
}

func NewMetrics() *Metrics {
	return &Metrics{
		frameTimes: containers.NewRingQueue[float64](int(AVG_COUNT)),
	}
}

// Update records one frame. frameElapsedTime is in seconds.
func (m *Metrics) Update(frameElapsedTime float64) {
	// Calculate frame ms average
	frameMS := (frameElapsedTime * 1000.0)
	m.frameTimes.Push(frameMS)
	m.frameAVGCounter++
	if m.frameAVGCounter == AVG_COUNT {
		m.MSavg = 0
		m.frameTimes.Each(func(ms float64) { m.MSavg += ms })
		m.MSavg /= float64(m.frameTimes.Len())
		m.frameAVGCounter = 0
	}

	// Calculate Frames per second.
	m.AccumulatedFrameMS += frameMS
	if m.AccumulatedFrameMS > 1000 {
		m.FPS = float64(m.Frames)
		m.AccumulatedFrameMS -= 1000
		m.Frames = 0
	}

	// Count all Frames.
	m.Frames++
}

func (m *Metrics) FrameTime() float64 {
	return m.MSavg
}

// Frame returns fps and the average frame time in ms (in this order).
func (m *Metrics) Frame() (float64, float64) {
	return m.FPS, m.MSavg
}
