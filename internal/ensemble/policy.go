package ensemble

import (
	"fmt"
	"runtime"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"stockai/internal/features"
)

// Policy produces a raw continuous action for one observation.
// Implementations must be safe for concurrent use.
type Policy interface {
	Name() string
	Predict(obs []float32) (float64, error)
	Close()
}

var ortInitOnce sync.Once

// InitRuntime points the ONNX runtime at the shared library and
// initializes the environment. Safe to call more than once.
func InitRuntime(libraryPath string) error {
	var err error
	ortInitOnce.Do(func() {
		if libraryPath == "" {
			libraryPath = defaultLibraryPath()
		}
		ort.SetSharedLibraryPath(libraryPath)
		err = ort.InitializeEnvironment()
	})
	return err
}

func defaultLibraryPath() string {
	switch runtime.GOOS {
	case "windows":
		return "onnxruntime.dll"
	case "darwin":
		return "libonnxruntime.dylib"
	default:
		return "/usr/lib/libonnxruntime.so"
	}
}

// ONNXPolicy wraps a single exported actor network. The session owns
// fixed input/output tensors, so Predict serializes through a mutex.
type ONNXPolicy struct {
	name    string
	mu      sync.Mutex
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
}

func NewONNXPolicy(name, modelPath string) (*ONNXPolicy, error) {
	inputShape := ort.NewShape(1, int64(features.NumFeatures))
	inputTensor, err := ort.NewTensor(inputShape, make([]float32, features.NumFeatures))
	if err != nil {
		return nil, fmt.Errorf("create input tensor for %s: %w", name, err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("create output tensor for %s: %w", name, err)
	}

	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"observation"}, []string{"action"},
		[]ort.Value{inputTensor}, []ort.Value{outputTensor}, nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("create session for %s: %w", name, err)
	}

	return &ONNXPolicy{
		name:    name,
		session: session,
		input:   inputTensor,
		output:  outputTensor,
	}, nil
}

func (p *ONNXPolicy) Name() string { return p.name }

func (p *ONNXPolicy) Predict(obs []float32) (float64, error) {
	if len(obs) != features.NumFeatures {
		return 0, fmt.Errorf("policy %s: observation has %d features, want %d",
			p.name, len(obs), features.NumFeatures)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	copy(p.input.GetData(), obs)
	if err := p.session.Run(); err != nil {
		return 0, fmt.Errorf("policy %s inference: %w", p.name, err)
	}
	return float64(p.output.GetData()[0]), nil
}

func (p *ONNXPolicy) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session != nil {
		p.session.Destroy()
	}
	if p.input != nil {
		p.input.Destroy()
	}
	if p.output != nil {
		p.output.Destroy()
	}
}
