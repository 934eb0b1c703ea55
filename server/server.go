// Package server - HTTP endpoints for censoring uploaded images.
package server

import (
	"bytes"
	"context"
	"image"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nvr-ai/go-censor/censor"
	"github.com/nvr-ai/go-censor/images"
	"github.com/nvr-ai/go-censor/models/postprocess"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultMaxUploadBytes caps an upload when no limit is configured.
const DefaultMaxUploadBytes = 32 << 20

// RegionsHeader carries the number of censored regions on /v1/censor responses.
const RegionsHeader = "X-Censor-Regions"

// Censorer is the pipeline surface the handlers need. *censor.Pipeline implements it.
type Censorer interface {
	Detect(ctx context.Context, img image.Image) ([]postprocess.Detection, error)
	Process(ctx context.Context, img image.Image) (*censor.Output, error)
}

// Options configures the handlers.
type Options struct {
	// MaxUploadBytes caps the request body. Zero uses DefaultMaxUploadBytes.
	MaxUploadBytes int64
	// Logger receives request logs. Nil discards them.
	Logger logrus.FieldLogger
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// DetectResponse is the JSON body of /v1/detect.
type DetectResponse struct {
	Width      int                     `json:"width"`
	Height     int                     `json:"height"`
	Detections []postprocess.Detection `json:"detections"`
}

// Handler serves the censor API.
type Handler struct {
	censorer Censorer
	maxBytes int64
	log      logrus.FieldLogger
}

// NewHandler wraps a Censorer.
func NewHandler(c Censorer, opts Options) *Handler {
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	maxBytes := opts.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &Handler{censorer: c, maxBytes: maxBytes, log: log}
}

// NewRouter returns a gin engine with the censor routes mounted.
//
// Routes:
//   - GET  /healthz
//   - POST /v1/censor  multipart field "image", responds with the censored image
//   - POST /v1/detect  multipart field "image", responds with DetectResponse
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger())

	r.GET("/healthz", Health)

	v1 := r.Group("/v1")
	{
		v1.POST("/censor", h.Censor)
		v1.POST("/detect", h.Detect)
	}
	return r
}

// Health reports liveness.
func Health(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Censor pixelates the uploaded image and returns it.
//
// The response keeps the upload's format where it can be encoded (WebP comes
// back as PNG); ?format= overrides it. ?quality= sets JPEG quality.
func (h *Handler) Censor(c *gin.Context) {
	img, format, ok := h.readImage(c)
	if !ok {
		return
	}

	if f, ok := images.FormatFromPath("." + c.Query("format")); ok {
		format = f
	}
	format = images.EncodedFormat(format)
	quality, _ := strconv.Atoi(c.Query("quality"))

	out, err := h.censorer.Process(c.Request.Context(), img)
	if err != nil {
		h.fail(c, err)
		return
	}

	var buf bytes.Buffer
	if err := images.Encode(&buf, out.Image, format, quality); err != nil {
		h.fail(c, err)
		return
	}

	c.Header(RegionsHeader, strconv.Itoa(len(out.Regions)))
	c.Data(http.StatusOK, images.ContentType(format), buf.Bytes())
}

// Detect returns the detections for the uploaded image.
func (h *Handler) Detect(c *gin.Context) {
	img, _, ok := h.readImage(c)
	if !ok {
		return
	}

	dets, err := h.censorer.Detect(c.Request.Context(), img)
	if err != nil {
		h.fail(c, err)
		return
	}
	if dets == nil {
		dets = []postprocess.Detection{}
	}

	b := img.Bounds()
	c.JSON(http.StatusOK, DetectResponse{Width: b.Dx(), Height: b.Dy(), Detections: dets})
}

func (h *Handler) readImage(c *gin.Context) (image.Image, images.Format, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)

	file, err := c.FormFile("image")
	if err != nil {
		h.log.WithError(err).Warn("missing image upload")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "multipart field \"image\" is required"})
		return nil, "", false
	}

	f, err := file.Open()
	if err != nil {
		h.fail(c, errors.Wrap(err, "open upload"))
		return nil, "", false
	}
	defer f.Close()

	img, format, err := images.Decode(f)
	if err != nil {
		h.fail(c, err)
		return nil, "", false
	}
	return img, format, true
}

// fail maps err onto a status code and writes an ErrorResponse. Bad uploads
// are 400 and anything the model produced that cannot be used is 502.
func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	entry := h.log.WithError(err).WithField("status", status)
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Warn("request rejected")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, images.ErrInvalidImage):
		return http.StatusBadRequest
	case errors.Is(err, censor.ErrInference),
		errors.Is(err, postprocess.ErrMalformedOutput),
		errors.Is(err, postprocess.ErrInvalidRegion):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start),
			"client":  c.ClientIP(),
		}).Info("request")
	}
}
