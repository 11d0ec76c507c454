package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"log/slog"

	"github.com/lmittmann/tint"

	"github.com/framesight/framesight/internal/analyzer"
	"github.com/framesight/framesight/internal/knowledge"
	"github.com/framesight/framesight/internal/resolver"
	"github.com/framesight/framesight/internal/storage"
	"github.com/framesight/framesight/internal/watcher"
)

func main() {
	ctx := context.Background()

	// Configure logger
	logger := slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: "15:04:05",
		}),
	)

	// Parse command line arguments
	videoRef := ""
	dataDir := "framesight_data" // default value
	durationLimit := watcher.DefaultDurationLimit
	samplesPerSecond := 0
	useDetector := false

	for i := 1; i < len(os.Args); i++ {
		switch os.Args[i] {
		case "--video":
			if i+1 < len(os.Args) {
				videoRef = os.Args[i+1]
				i++
			}
		case "--data":
			if i+1 < len(os.Args) {
				dataDir = os.Args[i+1]
				i++
			}
		case "--duration":
			if i+1 < len(os.Args) {
				if d, err := strconv.ParseFloat(os.Args[i+1], 64); err == nil {
					durationLimit = d
				}
				i++
			}
		case "--samples":
			if i+1 < len(os.Args) {
				if s, err := strconv.Atoi(os.Args[i+1]); err == nil {
					samplesPerSecond = s
				}
				i++
			}
		case "--detect":
			useDetector = true
		}
	}

	if videoRef == "" {
		fmt.Println("Usage: framesight --video path/to/video.mp4 [--data data_directory] [--duration seconds] [--samples per_second] [--detect]")
		os.Exit(1)
	}

	// Initialize the storage and knowledge store
	store := storage.NewFileStore(dataDir)
	know := knowledge.NewStore(store, logger)
	if err := know.Load(); err != nil {
		log.Printf("Warning: could not load knowledge snapshot: %v", err)
	}

	// Optional LLM-backed object detector; the default pipeline runs
	// without one.
	var detector analyzer.Detector
	if useDetector {
		agentDetector, err := analyzer.NewAgentDetector(ctx, logger)
		if err != nil {
			log.Fatalf("Failed to initialize object detector: %v", err)
		}
		detector = agentDetector
	}

	an := analyzer.New(analyzer.DefaultConfig(), detector, logger)
	w := watcher.New(resolver.New(logger), nil, an, know, store, logger)

	fmt.Printf("Starting video analysis...\n")
	result, err := w.Watch(ctx, videoRef, watcher.Options{
		DurationLimit:    durationLimit,
		SamplesPerSecond: samplesPerSecond,
	})
	if err != nil {
		log.Printf("Error watching video: %v", err)
		os.Exit(1)
	}

	if err := store.Flush(); err != nil {
		log.Printf("Error flushing results: %v", err)
	}

	fmt.Println("Video watching completed successfully!")
	fmt.Printf("Comprehension score: %.2f\n", result.ComprehensionScore)
	fmt.Printf("Summary: %s\n", result.VisualSummary)

	status := know.Status()
	fmt.Printf("Skill gauges: frame %.2f, scene %.2f, object %.2f, text %.2f, motion %.2f (overall %.2f)\n",
		status.Skills.FrameAnalysis,
		status.Skills.SceneUnderstanding,
		status.Skills.ObjectTracking,
		status.Skills.TextRecognition,
		status.Skills.MotionDetection,
		status.Overall)
}
