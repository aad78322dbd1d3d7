package transport

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/anime-shed/body-measure-go/internal/config"
	apperrors "github.com/anime-shed/body-measure-go/internal/errors"
	"github.com/anime-shed/body-measure-go/internal/logger"
	"github.com/anime-shed/body-measure-go/internal/observer"
	"github.com/anime-shed/body-measure-go/internal/service"
	"github.com/anime-shed/body-measure-go/pkg/models"
)

const version = "1.0.0"

// MetricsSource exposes event counters
type MetricsSource interface {
	GetMetrics() map[string]interface{}
}

var _ MetricsSource = (*observer.MetricsObserver)(nil)

func NewHandler(svc service.MeasurementService, metrics MetricsSource, cfg *config.Config) http.Handler {
	r := gin.Default()

	// Add middleware
	limiter := newRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	r.Use(
		rateLimit(limiter),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", healthCheck(svc))
	r.GET("/metrics", getMetrics(metrics))

	r.GET("/sizes", listSizes(svc))
	r.GET("/sizes/:label", getSize(svc))
	r.POST("/classify", classify(svc))
	r.POST("/predict/manual", predictManual(svc))

	sessions := r.Group("/sessions")
	sessions.POST("", startSession(svc))
	sessions.GET("/:id", getSession(svc))
	sessions.DELETE("/:id", endSession(svc))
	sessions.POST("/:id/frames", processFrame(svc, cfg))
	sessions.POST("/:id/reset", resetSession(svc))
	sessions.GET("/:id/report", sessionReport(svc))
	sessions.GET("/:id/stream", streamFrames(svc, cfg, limiter))

	r.POST("/replay", replay(svc, cfg))

	r.GET("/results", listResults(svc))
	r.GET("/results/:id", getResult(svc))

	return r
}

func healthCheck(svc service.MeasurementService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "available",
			"version": version,
			"sizes":   len(svc.Chart().Ranges()),
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func getMetrics(metrics MetricsSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, metrics.GetMetrics())
	}
}

func listSizes(svc service.MeasurementService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.Chart())
	}
}

func getSize(svc service.MeasurementService) gin.HandlerFunc {
	return func(c *gin.Context) {
		label := c.Param("label")
		chart := svc.Chart()

		r, ok := chart.Lookup(label)
		if !ok {
			err := apperrors.NewNotFoundError("Unknown size label", nil).WithDetails(label)
			respondErrorWithSuggestion(c, err.StatusCode, "size not found", err, chart.Suggest(label))
			return
		}
		c.JSON(http.StatusOK, r)
	}
}

func classify(svc service.MeasurementService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ClassifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		resp, err := svc.Classify(c.Request.Context(), req)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "classification failed", err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func predictManual(svc service.MeasurementService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ManualPredictRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		resp, err := svc.PredictManual(c.Request.Context(), req)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "prediction failed", err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func startSession(svc service.MeasurementService) gin.HandlerFunc {
	return func(c *gin.Context) {
		info, err := svc.StartSession(c.Request.Context())
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "failed to start session", err)
			return
		}

		logger.ForSession(info.ID).WithField("ip", c.ClientIP()).Info("Session started")
		c.JSON(http.StatusCreated, info)
	}
}

func getSession(svc service.MeasurementService) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := svc.GetSession(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "failed to get session", err)
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

func endSession(svc service.MeasurementService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.EndSession(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, apperrors.GetStatusCode(err), "failed to end session", err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func processFrame(svc service.MeasurementService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		sessionID := c.Param("id")

		var req models.FrameRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, determineBindStatus(err), "invalid request format", err)
			return
		}

		result, err := svc.ProcessFrame(ctx, sessionID, req)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "failed to process frame", err)
			return
		}

		logger.ForSession(sessionID).WithFields(logrus.Fields{
			"status":             result.Status,
			"phase":              result.Phase,
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Debug("Frame processed")

		c.JSON(http.StatusOK, result)
	}
}

func resetSession(svc service.MeasurementService) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := svc.ResetSession(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "failed to reset session", err)
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

func sessionReport(svc service.MeasurementService) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := svc.SessionReport(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "failed to build report", err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func replay(svc service.MeasurementService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var req models.ReplayRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, determineBindStatus(err), "invalid request format", err)
			return
		}

		resp, err := svc.Replay(ctx, req.Frames)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "replay failed", err)
			return
		}

		fields := logrus.Fields{
			"frames":             len(req.Frames),
			"locked":             resp.Final != nil,
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}
		if resp.Final != nil {
			fields["size_label"] = resp.Final.SizeLabel
		}
		logger.WithFields(fields).Info("Replay completed")

		c.JSON(http.StatusOK, resp)
	}
}

func listResults(svc service.MeasurementService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := 0
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				respondError(c, http.StatusBadRequest, "invalid limit",
					apperrors.NewValidationError("limit must be a positive integer", err))
				return
			}
			limit = n
		}

		results, err := svc.ListResults(c.Request.Context(), limit)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "failed to list results", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": results})
	}
}

func getResult(svc service.MeasurementService) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := svc.GetResult(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "failed to get result", err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// determineBindStatus separates oversized bodies from malformed ones
func determineBindStatus(err error) int {
	if code := determineStatusCode(err); code == http.StatusRequestEntityTooLarge {
		return code
	}
	return http.StatusBadRequest
}
