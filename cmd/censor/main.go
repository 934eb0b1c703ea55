// Command censor pixelates sensitive regions in images, either from files or
// over HTTP.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"image"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nvr-ai/go-censor/censor"
	"github.com/nvr-ai/go-censor/config"
	"github.com/nvr-ai/go-censor/images"
	"github.com/nvr-ai/go-censor/images/kernels"
	"github.com/nvr-ai/go-censor/inference"
	"github.com/nvr-ai/go-censor/inference/providers"
	"github.com/nvr-ai/go-censor/server"
	"github.com/nvr-ai/go-censor/util"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultOutputDir is where censored files go when -out is not given.
const DefaultOutputDir = "censored"

func main() {
	var (
		configPath   string
		modelPath    string
		libraryPath  string
		backend      string
		imagePath    string
		dir          string
		outDir       string
		confidence   float64
		category     float64
		blockSize    int
		mode         string
		nms          bool
		workers      int
		onlyCensored bool
		serve        bool
		addr         string
		logLevel     string
	)
	flag.StringVar(&configPath, "config", "", "Path to a YAML config file")
	flag.StringVar(&modelPath, "model", "", "Path to the ONNX model file")
	flag.StringVar(&libraryPath, "ort-lib", "", "Path to the onnxruntime shared library")
	flag.StringVar(&backend, "backend", "", "Execution provider (cpu, coreml, openvino, cuda)")
	flag.StringVar(&imagePath, "image", "", "Path to a single image to censor")
	flag.StringVar(&dir, "dir", "", "Directory of images to censor")
	flag.StringVar(&outDir, "out", DefaultOutputDir, "Output directory for censored images")
	flag.Float64Var(&confidence, "confidence", 0.5, "Objectness threshold (strict)")
	flag.Float64Var(&category, "category", 0.1, "Category score threshold (strict)")
	flag.IntVar(&blockSize, "block", censor.DefaultBlockSize, "Mosaic block size in pixels")
	flag.StringVar(&mode, "mode", "average", "Mosaic fill mode (average, sample)")
	flag.BoolVar(&nms, "nms", false, "Suppress overlapping detections")
	flag.IntVar(&workers, "workers", 1, "Images processed concurrently")
	flag.BoolVar(&onlyCensored, "only-censored", false, "Write only images that had regions censored")
	flag.BoolVar(&serve, "serve", false, "Serve the HTTP API instead of processing files")
	flag.StringVar(&addr, "addr", "", "HTTP listen address (default from config, :8080)")
	flag.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.Parse()

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// Flags override the file only when given explicitly.
	var flagErr error
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "model":
			cfg.Model.Path = modelPath
		case "ort-lib":
			cfg.Provider.LibraryPath = libraryPath
		case "backend":
			b, err := providers.ParseBackend(backend)
			if err != nil {
				flagErr = err
			}
			cfg.Provider.Backend = b
		case "confidence":
			cfg.Model.ConfidenceThreshold = float32(confidence)
		case "category":
			cfg.Model.CategoryThreshold = float32(category)
		case "block":
			cfg.Pixelate.BlockSize = blockSize
		case "mode":
			m, err := kernels.ParseMode(mode)
			if err != nil {
				flagErr = err
			}
			cfg.Pixelate.Mode = m
		case "nms":
			cfg.NMS.Enabled = nms
		case "workers":
			cfg.Workers = workers
		case "addr":
			cfg.Server.Addr = addr
		case "log-level":
			cfg.Log.Level = logLevel
		}
	})
	if flagErr == nil {
		flagErr = cfg.Validate()
	}
	if flagErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", flagErr)
		os.Exit(2)
	}

	log, err := config.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if !serve && imagePath == "" && dir == "" {
		log.Error("one of -image, -dir or -serve is required")
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, runArgs{
		image:        imagePath,
		dir:          dir,
		out:          outDir,
		onlyCensored: onlyCensored,
		serve:        serve,
	}); err != nil {
		log.WithError(err).Error("censor failed")
		os.Exit(1)
	}
}

type runArgs struct {
	image        string
	dir          string
	out          string
	onlyCensored bool
	serve        bool
}

func run(ctx context.Context, cfg config.Config, log *logrus.Logger, args runArgs) error {
	m, engine, err := inference.NewEngineBuilder().
		WithProvider(cfg.Provider).
		WithModel(cfg.ModelArgs(log)).
		Build()
	if err != nil {
		return errors.Wrap(err, "open model")
	}

	opts, err := cfg.PipelineOptions(log)
	if err != nil {
		engine.Close()
		return err
	}
	pipeline, err := censor.New(m, engine, opts)
	if err != nil {
		engine.Close()
		return err
	}
	defer func() {
		if s, ok := engine.(*providers.Session); ok {
			metrics := s.Metrics()
			log.WithFields(logrus.Fields{
				"backend":    s.Backend(),
				"inferences": metrics.InferenceCount,
				"average":    metrics.AverageTime,
			}).Info("session metrics")
		}
		if err := pipeline.Close(); err != nil {
			log.WithError(err).Warn("close pipeline")
		}
	}()

	log.WithFields(logrus.Fields{
		"model":   m.Options().Path,
		"backend": cfg.Provider.Backend,
		"block":   cfg.Pixelate.BlockSize,
		"mode":    cfg.Pixelate.Mode,
	}).Info("model loaded")

	if args.serve {
		return serveHTTP(ctx, cfg, log, pipeline)
	}

	files, err := inputs(args)
	if err != nil {
		return err
	}
	return censorFiles(ctx, cfg, log, pipeline, files, args)
}

func inputs(args runArgs) ([]util.ImageFile, error) {
	if args.image != "" {
		format, ok := images.FormatFromPath(args.image)
		if !ok {
			return nil, errors.Errorf("unsupported image type: %s", args.image)
		}
		data, err := os.ReadFile(args.image)
		if err != nil {
			return nil, err
		}
		return []util.ImageFile{{Path: args.image, Image: images.Image{Format: format, Data: data}, Frame: -1}}, nil
	}

	files, err := util.LoadDirectoryImageFiles(args.dir)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", args.dir)
	}
	if len(files) == 0 {
		return nil, errors.Errorf("no images found in %s", args.dir)
	}
	return files, nil
}

func censorFiles(ctx context.Context, cfg config.Config, log *logrus.Logger, p *censor.Pipeline, files []util.ImageFile, args runArgs) error {
	decoded := make([]image.Image, len(files))
	for i := range files {
		img, err := files[i].Image.Decode()
		if err != nil {
			return errors.Wrapf(err, "decode %s", files[i].Path)
		}
		decoded[i] = img
	}

	start := time.Now()
	outputs, err := p.ProcessAll(ctx, decoded, cfg.Workers)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(args.out, 0o755); err != nil {
		return err
	}

	written, censored := 0, 0
	for i, out := range outputs {
		if out.Censored {
			censored++
		} else if args.onlyCensored {
			continue
		}

		format := images.EncodedFormat(files[i].Image.Format)
		var buf bytes.Buffer
		if err := images.Encode(&buf, out.Image, format, 0); err != nil {
			return errors.Wrapf(err, "encode %s", files[i].Path)
		}
		path := util.OutputPath(args.out, files[i], format)
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return err
		}
		written++

		log.WithFields(logrus.Fields{
			"file":     filepath.Base(files[i].Path),
			"regions":  len(out.Regions),
			"checksum": out.Checksum,
		}).Debug("wrote " + path)
	}

	log.WithFields(logrus.Fields{
		"images":   len(files),
		"censored": censored,
		"written":  written,
		"elapsed":  time.Since(start),
	}).Info("done")
	return nil
}

func serveHTTP(ctx context.Context, cfg config.Config, log *logrus.Logger, p *censor.Pipeline) error {
	if !log.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.ReleaseMode)
	}
	h := server.NewHandler(p, server.Options{MaxUploadBytes: cfg.Server.MaxUploadBytes, Logger: log})
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Server.Addr).Info("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
