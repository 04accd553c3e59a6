// Command inspect validates a converted ONNX classifier and optionally runs
// it over a local directory of images.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/nvr-ai/care-symbols/inference"
	"github.com/nvr-ai/care-symbols/inference/providers"
	"github.com/nvr-ai/care-symbols/logging"
	"github.com/nvr-ai/care-symbols/models"
	"github.com/nvr-ai/care-symbols/models/postprocess"
	"github.com/nvr-ai/care-symbols/util"
)

func main() {
	var (
		modelPath = flag.String("model", "", "Path to the ONNX model")
		imagesDir = flag.String("images", "", "Optional directory of images to classify")
		libPath   = flag.String("lib", os.Getenv("ONNXRUNTIME_LIB"), "Path to the ONNX Runtime shared library")
		topK      = flag.Int("top-k", postprocess.DefaultTopK, "Maximum predictions per image")
		threshold = flag.Float64("threshold", float64(postprocess.DefaultThreshold), "Minimum confidence")
		logLevel  = flag.String("log-level", "warn", "Log level")
	)
	flag.Parse()

	if *modelPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect -model path/to/model.onnx [-images dir] [-top-k N] [-threshold T]")
		os.Exit(2)
	}

	logger, err := logging.New(*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(*modelPath, *imagesDir, *libPath, *topK, float32(*threshold), logger); err != nil {
		logger.Error("inspect failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(modelPath, imagesDir, libPath string, topK int, threshold float32, logger *zap.Logger) error {
	if err := providers.Initialize(libPath); err != nil {
		return err
	}
	defer func() { _ = providers.Shutdown() }()

	session, err := inference.NewSession(modelPath, providers.DefaultOptions())
	if err != nil {
		return err
	}
	defer session.Close()

	fmt.Printf("model:  %s\n", session.Path)
	fmt.Printf("input:  %s\n", session.Input)
	fmt.Printf("output: %s\n", session.Output)

	if imagesDir == "" {
		return nil
	}

	files, err := util.LoadDirectoryImageFiles(imagesDir)
	if err != nil {
		return err
	}
	logger.Info("classifying images", zap.String("dir", imagesDir), zap.Int("count", len(files)))

	ctx := context.Background()
	for _, file := range files {
		scores, err := session.Predict(ctx, file.Data)
		if err != nil {
			fmt.Printf("%s: %v\n", filepath.Base(file.Path), err)
			continue
		}
		predictions := postprocess.Select(scores, models.CareSymbolClasses, threshold, topK)
		fmt.Printf("%s [%s]:\n", filepath.Base(file.Path), file.Format)
		if len(predictions) == 0 {
			fmt.Println("  (no prediction above threshold)")
		}
		for _, p := range predictions {
			fmt.Printf("  %-40s %.4f\n", p.Label, p.Confidence)
		}
	}

	stats := session.Stats()
	fmt.Printf("inferences: %d, average: %s\n", stats.InferenceCount, stats.AverageTime)
	return nil
}
