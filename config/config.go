// Package config - YAML configuration for the censor command and server.
package config

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/nvr-ai/go-censor/censor"
	"github.com/nvr-ai/go-censor/inference/providers"
	"github.com/nvr-ai/go-censor/models"
	"github.com/nvr-ai/go-censor/models/model"
	"github.com/nvr-ai/go-censor/models/postprocess"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// NMS toggles suppression of overlapping detections.
type NMS struct {
	Enabled      bool    `json:"enabled" yaml:"enabled"`
	IoUThreshold float32 `json:"iou_threshold" yaml:"iou_threshold"`
	ClassAware   bool    `json:"class_aware" yaml:"class_aware"`
}

// Server holds the HTTP listener settings.
type Server struct {
	Addr string `json:"addr" yaml:"addr"`
	// MaxUploadBytes caps the multipart body. Zero uses the default of 32 MiB.
	MaxUploadBytes int64 `json:"max_upload_bytes" yaml:"max_upload_bytes"`
}

// Log configures the process logger.
type Log struct {
	// Level is any logrus level name.
	Level string `json:"level" yaml:"level"`
	// Format is text or json.
	Format string `json:"format" yaml:"format"`
}

// Config is the full process configuration.
type Config struct {
	Model    model.NewModelArgs     `json:"model" yaml:"model"`
	Provider providers.Config       `json:"provider" yaml:"provider"`
	Pixelate censor.PixelateOptions `json:"pixelate" yaml:"pixelate"`
	NMS      NMS                    `json:"nms" yaml:"nms"`
	// Classes restricts censoring to these labels. Empty censors every class.
	Classes []string `json:"classes" yaml:"classes"`
	// Workers bounds how many images are processed at once.
	Workers int    `json:"workers" yaml:"workers"`
	Server  Server `json:"server" yaml:"server"`
	Log     Log    `json:"log" yaml:"log"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Model:    model.NewModelArgs{Name: model.ModelNameNudeNet, Path: "models/nudenet_256.onnx"},
		Provider: providers.DefaultConfig(),
		Pixelate: censor.DefaultPixelateOptions(),
		NMS:      NMS{IoUThreshold: 0.45},
		Workers:  1,
		Server:   Server{Addr: ":8080"},
		Log:      Log{Level: "info", Format: "text"},
	}
}

// Load reads a YAML file on top of Default. Unknown keys are rejected.
//
// Arguments:
//   - path: The YAML file to read.
//
// Returns:
//   - Config: The merged and validated configuration.
//   - error: A read, parse or validation error.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config")
	}
	return Parse(data)
}

// Parse decodes YAML on top of Default and validates the result. Empty
// input yields Default.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, errors.Wrap(err, "parse config")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Pixelate.Validate(); err != nil {
		return err
	}
	if err := c.Provider.Validate(); err != nil {
		return errors.Wrap(err, "provider")
	}
	if c.NMS.Enabled && (c.NMS.IoUThreshold <= 0 || c.NMS.IoUThreshold > 1) {
		return errors.Wrapf(postprocess.ErrInvalidConfig, "nms iou threshold %v outside (0, 1]", c.NMS.IoUThreshold)
	}
	if c.Workers < 1 {
		return errors.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.Log.Level != "" {
		if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
			return errors.Wrap(err, "log level")
		}
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return errors.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

// Family returns the model family the configured model belongs to.
func (c Config) Family() model.Family {
	switch c.Model.Name {
	case model.ModelNameNudeNet, "":
		return model.ModelFamilyNudeNet
	default:
		return model.Family(c.Model.Name)
	}
}

// PipelineOptions resolves class names and builds the censor options.
//
// Arguments:
//   - log: The logger handed to the pipeline.
//
// Returns:
//   - censor.Options: Options for censor.New.
//   - error: If a class name is unknown to the model family.
func (c Config) PipelineOptions(log logrus.FieldLogger) (censor.Options, error) {
	opts := censor.Options{Pixelate: c.Pixelate, Logger: log}

	if len(c.Classes) > 0 {
		indices, err := models.DefaultClassManager().GetIndices(c.Family(), c.Classes)
		if err != nil {
			return censor.Options{}, errors.Wrap(err, "classes")
		}
		opts.Classes = indices
	}
	if c.NMS.Enabled {
		opts.NMS = &postprocess.NMSConfig{IoUThreshold: c.NMS.IoUThreshold, ClassAware: c.NMS.ClassAware}
	}
	return opts, nil
}

// ModelArgs returns the model arguments with the logger attached.
func (c Config) ModelArgs(log logrus.FieldLogger) model.NewModelArgs {
	args := c.Model
	args.Logger = log
	return args
}

// NewLogger builds a logrus logger writing to stderr.
//
// Arguments:
//   - cfg: Level and format.
//
// Returns:
//   - *logrus.Logger: The logger.
//   - error: For an unknown level.
func NewLogger(cfg Log) (*logrus.Logger, error) {
	level := cfg.Level
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	log := logrus.New()
	log.SetLevel(lvl)
	if strings.EqualFold(cfg.Format, "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log, nil
}
