package vision

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/your-org/facelink/internal/config"
	"github.com/your-org/facelink/internal/observability"
)

// ErrNoFace is returned when an image contains no usable face.
var ErrNoFace = errors.New("no face detected")

// Face is the most prominent face of an image with its descriptor.
type Face struct {
	Embedding []float32
	Box       Box
	Score     float32
}

// FaceEmbedder turns an image into a face descriptor: detect, pick the
// largest face, crop and embed. ONNX sessions reuse fixed tensors, so calls
// are serialised.
type FaceEmbedder struct {
	mu          sync.Mutex
	detector    *Detector
	embedder    *Embedder
	minFaceSize float32
}

// InitRuntime loads the ONNX Runtime shared library. It must run once before
// NewFaceEmbedder; the returned func tears the runtime down.
func InitRuntime(libPath string) (func(), error) {
	if libPath == "" {
		libPath = defaultRuntimeLib()
	}
	ort.SetSharedLibraryPath(libPath)
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("init onnx runtime: %w", err)
	}
	return func() { _ = ort.DestroyEnvironment() }, nil
}

func defaultRuntimeLib() string {
	switch runtime.GOOS {
	case "darwin":
		return "libonnxruntime.dylib"
	case "windows":
		return "onnxruntime.dll"
	default:
		return "libonnxruntime.so"
	}
}

func NewFaceEmbedder(cfg config.VisionConfig) (*FaceEmbedder, error) {
	detPath := filepath.Join(cfg.ModelsDir, "det_10g.onnx")
	embPath := filepath.Join(cfg.ModelsDir, "w600k_r50.onnx")

	slog.Info("loading detection model", "path", detPath)
	det, err := NewDetector(detPath, float32(cfg.DetectionThreshold))
	if err != nil {
		return nil, fmt.Errorf("load detector: %w", err)
	}

	slog.Info("loading embedding model", "path", embPath)
	emb, err := NewEmbedder(embPath, cfg.EmbeddingDim)
	if err != nil {
		det.Close()
		return nil, fmt.Errorf("load embedder: %w", err)
	}

	return &FaceEmbedder{
		detector:    det,
		embedder:    emb,
		minFaceSize: float32(cfg.MinFaceSize),
	}, nil
}

// Embed returns the descriptor of the largest face in a JPEG or PNG image.
func (f *FaceEmbedder) Embed(data []byte) (*Face, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()

	f.mu.Lock()
	defer f.mu.Unlock()

	start := time.Now()
	dets, err := f.detector.Detect(DetectorInput(img), b.Dx(), b.Dy())
	observability.InferenceDuration.WithLabelValues("detect").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	best, ok := largestFace(dets, f.minFaceSize)
	if !ok {
		return nil, ErrNoFace
	}

	crop := CropFace(img, best.Box)
	if crop == nil {
		return nil, ErrNoFace
	}

	start = time.Now()
	vec, err := f.embedder.Embed(EmbedderInput(crop))
	observability.InferenceDuration.WithLabelValues("embed").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	return &Face{Embedding: vec, Box: best.Box, Score: best.Score}, nil
}

// largestFace picks the detection with the biggest box whose shorter side
// is at least minSize pixels.
func largestFace(dets []Detection, minSize float32) (Detection, bool) {
	var best Detection
	found := false
	for _, d := range dets {
		if min(d.Box.Width(), d.Box.Height()) < minSize {
			continue
		}
		if !found || d.Box.Area() > best.Box.Area() {
			best = d
			found = true
		}
	}
	return best, found
}

// Close releases the ONNX sessions.
func (f *FaceEmbedder) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detector.Close()
	f.embedder.Close()
}
