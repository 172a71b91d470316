package spectral

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/RyanBlaney/sonido-tutor/algorithms/windowing"
	"github.com/RyanBlaney/sonido-tutor/logging"
)

// STFT provides Short-Time Fourier Transform functionality
type STFT struct {
	fft    *FFT
	logger logging.Logger
}

// STFTResult holds the magnitude spectrogram of a signal
type STFTResult struct {
	Magnitude      [][]float64 `json:"magnitude"`       // Time x Frequency magnitude matrix
	TimeFrames     int         `json:"time_frames"`     // Number of time frames
	FreqBins       int         `json:"freq_bins"`       // windowSize/2 + 1
	SampleRate     int         `json:"sample_rate"`     // Sample rate
	WindowSize     int         `json:"window_size"`     // FFT window size
	HopSize        int         `json:"hop_size"`        // Hop size between frames
	FreqResolution float64     `json:"freq_resolution"` // Frequency resolution (Hz/bin)
	TimeResolution float64     `json:"time_resolution"` // Time resolution (seconds/frame)
}

func NewSTFT() *STFT {
	return &STFT{
		fft: NewFFT(),
		logger: logging.WithFields(logging.Fields{
			"component": "stft",
		}),
	}
}

// FrameCount returns how many frames of frameSize at hopSize cover n samples.
// Signals shorter than one frame still produce a single zero-padded frame.
func FrameCount(n, frameSize, hopSize int) int {
	if n <= 0 || frameSize <= 0 || hopSize <= 0 {
		return 0
	}
	if n < frameSize {
		return 1
	}
	return (n-frameSize)/hopSize + 1
}

// Compute runs the STFT over signal using a pool of workers, one frame per job.
// window may be nil for a rectangular window.
func (s *STFT) Compute(signal []float64, windowSize, hopSize, sampleRate int, window windowing.Window) (*STFTResult, error) {
	if len(signal) == 0 {
		return nil, fmt.Errorf("empty signal")
	}
	if windowSize <= 0 {
		return nil, fmt.Errorf("window size must be positive")
	}
	if hopSize <= 0 {
		return nil, fmt.Errorf("hop size must be positive")
	}
	if window != nil && window.Size() != windowSize {
		return nil, fmt.Errorf("window size %d does not match frame size %d", window.Size(), windowSize)
	}

	numFrames := FrameCount(len(signal), windowSize, hopSize)
	freqBins := windowSize/2 + 1

	magnitude := make([][]float64, numFrames)
	numWorkers := workerCount(numFrames)

	jobs := make(chan int, numFrames)
	for frameIdx := range numFrames {
		jobs <- frameIdx
	}
	close(jobs)

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// Reuse frame buffer for this worker
			frameBuffer := make([]float64, windowSize)

			for frameIdx := range jobs {
				start := frameIdx * hopSize
				end := min(start+windowSize, len(signal))

				n := copy(frameBuffer, signal[start:end])
				clear(frameBuffer[n:])

				if window != nil {
					// sizes were checked above
					_ = window.ApplyInPlace(frameBuffer)
				}

				magnitude[frameIdx] = s.fft.Magnitude(frameBuffer)
			}
		}()
	}
	wg.Wait()

	s.logger.Debug("STFT computed", logging.Fields{
		"frames":  numFrames,
		"workers": numWorkers,
		"window":  windowSize,
		"hop":     hopSize,
	})

	return &STFTResult{
		Magnitude:      magnitude,
		TimeFrames:     numFrames,
		FreqBins:       freqBins,
		SampleRate:     sampleRate,
		WindowSize:     windowSize,
		HopSize:        hopSize,
		FreqResolution: float64(sampleRate) / float64(windowSize),
		TimeResolution: float64(hopSize) / float64(sampleRate),
	}, nil
}

// workerCount scales the pool with the workload, never below one worker
func workerCount(numFrames int) int {
	numCPU := runtime.NumCPU()

	var workers int
	switch {
	case numFrames < 100:
		workers = min(numCPU/2, numFrames)
	case numFrames < 1000:
		workers = min(numCPU, 8)
	default:
		workers = numCPU
	}

	return max(workers, 1)
}
