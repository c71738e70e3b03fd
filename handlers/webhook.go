package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/chainguard-dev/clog"
	"github.com/gin-gonic/gin"
	"github.com/google/go-github/v71/github"

	"ticket-review-gate/models"
)

// GateRunner は1つの PR を検証してレビューを収束させる
type GateRunner interface {
	Run(ctx context.Context, req models.Request) (models.Verdict, error)
}

// 検証し直す必要がある pull_request のアクション
var gatedActions = map[string]bool{
	"opened":      true,
	"edited":      true,
	"reopened":    true,
	"synchronize": true,
}

func HandleGitHubWebhook(gate GateRunner, secret string, logger *clog.Logger) gin.HandlerFunc {
	// 同時に複数の PR を処理しない
	var mu sync.Mutex

	return func(c *gin.Context) {
		payload, err := github.ValidatePayload(c.Request, []byte(secret))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}

		event, err := github.ParseWebHook(github.WebHookType(c.Request), payload)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot parse webhook"})
			return
		}

		e, ok := event.(*github.PullRequestEvent)
		if !ok || !gatedActions[e.GetAction()] {
			c.JSON(http.StatusOK, gin.H{"message": "ignored"})
			return
		}

		req, err := RequestFromEvent(e)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx := clog.WithLogger(c.Request.Context(), logger.With("delivery", github.DeliveryID(c.Request)))

		mu.Lock()
		verdict, err := gate.Run(ctx, req)
		mu.Unlock()

		if err != nil {
			clog.ErrorContextf(ctx, "gate failed for %s#%d: %v", req.FullName(), req.Number, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"verdict": string(verdict)})
	}
}

func HandleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// NewRouter は webhook サーバーのルーティングを組み立てる
func NewRouter(gate GateRunner, secret string, logger *clog.Logger) *gin.Engine {
	if logger == nil {
		logger = clog.NewLogger(slog.Default())
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/healthz", HandleHealthz)
	r.POST("/webhook", HandleGitHubWebhook(gate, secret, logger))
	return r
}
