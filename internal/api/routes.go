package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/leonw111/mac-ai-toolkit/domain/entities"
	"github.com/leonw111/mac-ai-toolkit/internal/metrics"
	"github.com/leonw111/mac-ai-toolkit/usecase"
)

// Services are the capability wrappers the gateway fronts. The gateway and
// the desktop UI call the same wrappers; the wrapper is the chokepoint, so
// both front ends share identical semantics.
type Services struct {
	Recognition   *usecase.RecognitionService
	Synthesis     *usecase.SynthesisService
	Transcription *usecase.TranscriptionService
}

// Config holds the gateway settings.
type Config struct {
	// APIKey gates all routes except /health when non-empty.
	APIKey string

	// MaxImageBody and MaxAudioBody are echo BodyLimit values.
	MaxImageBody string
	MaxAudioBody string

	Version string
}

// InitRoutes registers all gateway routes.
func InitRoutes(e *echo.Echo, services Services, counter *metrics.RequestCounter, cfg Config, logger *zap.Logger) {
	e.HTTPErrorHandler = newErrorHandler(logger)

	// Liveness stays reachable without the shared secret.
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: cfg.Version,
		})
	})

	guarded := e.Group("", sharedSecret(cfg.APIKey), countRequests(counter))

	guarded.POST("/ocr", func(c echo.Context) error {
		return handleOCR(c, services.Recognition)
	}, middleware.BodyLimit(cfg.MaxImageBody))

	guarded.POST("/tts", func(c echo.Context) error {
		return handleTTS(c, services.Synthesis)
	})

	guarded.GET("/tts/voices", func(c echo.Context) error {
		return handleVoices(c, services.Synthesis)
	})

	guarded.POST("/stt", func(c echo.Context) error {
		return handleSTT(c, services.Transcription)
	}, middleware.BodyLimit(cfg.MaxAudioBody))
}

// readBody drains the request body. A chunked body that exceeds the route's
// cap surfaces as an echo HTTPError from the capped reader, not through the
// declared-length check; that error passes through untouched so it keeps its
// 413 mapping instead of being reported as malformed input.
func readBody(c echo.Context, kind entities.ErrorKind) ([]byte, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return nil, httpErr
		}
		return nil, entities.WrapError(kind, "request body could not be read", err)
	}
	if len(body) == 0 {
		return nil, entities.NewError(kind, "request body is empty")
	}
	return body, nil
}

func handleOCR(c echo.Context, recognition *usecase.RecognitionService) error {
	body, err := readBody(c, entities.KindInvalidImage)
	if err != nil {
		return err
	}

	language := c.QueryParam("language")
	level := entities.RecognitionLevel(c.QueryParam("recognitionLevel"))

	result, err := recognition.Recognize(c.Request().Context(), body, language, level)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func handleTTS(c echo.Context, synthesis *usecase.SynthesisService) error {
	var req TTSRequest
	if err := c.Bind(&req); err != nil {
		return entities.WrapError(entities.KindInvalidConfiguration, "invalid request body", err)
	}

	format := entities.AudioFormat(req.OutputFormat)
	if req.OutputFormat == "" {
		format = entities.FormatWAV
	}
	if !format.Valid() {
		return entities.NewError(entities.KindInvalidConfiguration, fmt.Sprintf("unsupported output format %q", req.OutputFormat))
	}

	data, err := synthesis.Synthesize(c.Request().Context(), req.SynthesisRequest(), format)
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, format.ContentType(), data)
}

func handleVoices(c echo.Context, synthesis *usecase.SynthesisService) error {
	voices, err := synthesis.Voices(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, voices)
}

func handleSTT(c echo.Context, transcription *usecase.TranscriptionService) error {
	body, err := readBody(c, entities.KindInvalidAudio)
	if err != nil {
		return err
	}

	// The transcription wrapper takes a file path, so the audio is staged
	// to a uniquely named temp file that is removed on every exit path.
	staged := filepath.Join(os.TempDir(), "toolkit_stt_"+uuid.NewString()+".audio")
	if err := os.WriteFile(staged, body, 0o600); err != nil {
		return entities.WrapError(entities.KindFileWriteFailed, "staging audio failed", err)
	}
	defer os.Remove(staged)

	// This route never requests on-device-only recognition.
	result, err := transcription.TranscribeFile(c.Request().Context(), staged, c.QueryParam("language"), false)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// newErrorHandler renders every error as the {error:{code,message}}
// envelope. Capability errors keep their taxonomy kind as the code;
// transport-level errors (body too large, bad route, missing key) get
// stable codes of their own.
func newErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var capErr *entities.CapabilityError
		if errors.As(err, &capErr) {
			status := statusForKind(capErr.Kind)
			if status >= http.StatusInternalServerError && capErr.Kind != entities.KindCancelled {
				logger.Error("capability call failed",
					zap.String("path", c.Path()),
					zap.Error(err))
			}
			writeError(c, status, string(capErr.Kind), capErr.Message, logger)
			return
		}

		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			writeError(c, httpErr.Code, codeForStatus(httpErr.Code), fmt.Sprintf("%v", httpErr.Message), logger)
			return
		}

		logger.Error("unhandled gateway error",
			zap.String("path", c.Path()),
			zap.Error(err))
		writeError(c, http.StatusInternalServerError, "internal_error", "internal server error", logger)
	}
}

func writeError(c echo.Context, status int, code, message string, logger *zap.Logger) {
	if err := c.JSON(status, ErrorResponse{Error: ErrorInfo{Code: code, Message: message}}); err != nil {
		logger.Warn("writing error response failed", zap.Error(err))
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusRequestEntityTooLarge:
		return "request_too_large"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	default:
		return "internal_error"
	}
}
