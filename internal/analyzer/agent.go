package analyzer

import (
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/agent-api/core"
	"github.com/agent-api/core/agent"
	"github.com/agent-api/core/agent/bootstrap"
	"github.com/agent-api/ollama"
	"github.com/go-logr/logr"

	"github.com/framesight/framesight/internal/models"
)

// AgentDetector names objects in frames through a local Ollama vision
// model. It is an optional plug-in behind the Detector interface: the
// comprehension core never constructs one, so the default pipeline stays
// fully deterministic.
type AgentDetector struct {
	agent   *agent.Agent
	tempDir string
	logger  *slog.Logger
}

const detectPrompt = "List the distinct physical objects visible in this image, one per line, lowercase, no commentary."

// NewAgentDetector connects to a local Ollama instance and wires the
// vision model as an object detector.
func NewAgentDetector(ctx context.Context, logger *slog.Logger) (*AgentDetector, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logrLogger := logr.FromSlogHandler(logger.Handler())

	provider := ollama.NewProvider(&ollama.ProviderOpts{
		Logger:  &logrLogger,
		BaseURL: "http://localhost",
		Port:    11434,
	})

	model := &core.Model{
		ID: "llama3.2-vision:11b",
	}
	if err := provider.UseModel(ctx, model); err != nil {
		return nil, fmt.Errorf("selecting vision model: %w", err)
	}

	visionAgent, err := agent.NewAgent(
		bootstrap.WithProvider(provider),
		bootstrap.WithLogger(&logrLogger),
		bootstrap.WithSystemPrompt("You are a visual analysis assistant. Name only objects you can clearly see."),
	)
	if err != nil {
		return nil, fmt.Errorf("creating vision agent: %w", err)
	}

	return &AgentDetector{
		agent:   visionAgent,
		tempDir: os.TempDir(),
		logger:  logger,
	}, nil
}

// Detect writes the frame to a temporary JPEG, asks the model to name the
// objects in it, and maps each named object to a candidate. Boxes are
// zero: the model names content, it does not localize it.
func (d *AgentDetector) Detect(ctx context.Context, frame image.Image, timestamp float64) ([]models.ObjectCandidate, error) {
	path := filepath.Join(d.tempDir, fmt.Sprintf("framesight_frame_%d.jpg", os.Getpid()))
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if err := jpeg.Encode(f, frame, &jpeg.Options{Quality: 85}); err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, err
	}
	defer os.Remove(path)

	response, err := d.agent.Run(
		ctx,
		agent.WithInput(detectPrompt),
		agent.WithImagePath(path),
	)
	if err != nil {
		return nil, err
	}
	if response == nil || len(response.Messages) == 0 {
		return nil, fmt.Errorf("no response messages received from model")
	}

	content := response.Messages[len(response.Messages)-1].Content
	var candidates []models.ObjectCandidate
	for _, line := range strings.Split(content, "\n") {
		name := strings.ToLower(strings.TrimSpace(strings.TrimLeft(line, "-*0123456789. ")))
		if name == "" {
			continue
		}
		candidates = append(candidates, models.ObjectCandidate{
			Type:       name,
			Confidence: 0.5,
		})
	}
	return candidates, nil
}
