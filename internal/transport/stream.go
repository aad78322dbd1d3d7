package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/anime-shed/body-measure-go/internal/config"
	apperrors "github.com/anime-shed/body-measure-go/internal/errors"
	"github.com/anime-shed/body-measure-go/internal/logger"
	"github.com/anime-shed/body-measure-go/internal/service"
	"github.com/anime-shed/body-measure-go/pkg/models"
)

const writeTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Browsers connect from the capture page's origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// streamFrames upgrades to a websocket on which the client sends one
// FrameRequest per message and receives one FrameResult per message. The
// connection stays open after the session locks so the client can reset
// it over HTTP and keep streaming. Each message draws from the client's
// rate limit and is processed under the request timeout.
func streamFrames(svc service.MeasurementService, cfg *config.Config, limiter *rateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		sessionID := c.Param("id")
		if _, err := svc.GetSession(c.Request.Context(), sessionID); err != nil {
			respondError(c, apperrors.GetStatusCode(err), "failed to open stream", err)
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade has already written the HTTP error.
			logger.ForSession(sessionID).WithError(err).Warn("Websocket upgrade failed")
			return
		}
		defer conn.Close()

		log := logger.ForSession(sessionID)
		log.Info("Frame stream opened")

		conn.SetReadLimit(cfg.MaxRequestBodySize)
		for {
			conn.SetReadDeadline(time.Now().Add(cfg.SessionIdleTimeout))
			_, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.WithError(err).Warn("Frame stream closed unexpectedly")
				} else {
					log.Info("Frame stream closed")
				}
				return
			}

			if !limiter.limiterFor(clientIP).Allow() {
				resp := models.ErrorResponse{Error: http.StatusText(http.StatusTooManyRequests), Message: "rate limit exceeded"}
				if !writeStream(conn, resp) {
					return
				}
				continue
			}

			var req models.FrameRequest
			if err := json.Unmarshal(message, &req); err != nil {
				if !writeStream(conn, models.ErrorResponse{Error: "invalid frame", Message: err.Error()}) {
					return
				}
				continue
			}

			ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
			result, err := svc.ProcessFrame(ctx, sessionID, req)
			cancel()
			if err != nil {
				resp := models.ErrorResponse{Error: http.StatusText(apperrors.GetStatusCode(err)), Message: err.Error()}
				if !writeStream(conn, resp) || apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
					return
				}
				continue
			}

			if !writeStream(conn, result) {
				return
			}
		}
	}
}

func writeStream(conn *websocket.Conn, v interface{}) bool {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(v); err != nil {
		logger.WithError(err).Warn("Failed to write to frame stream")
		return false
	}
	return true
}
