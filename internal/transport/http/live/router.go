package livehttp

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"stockai/internal/logger"
	"stockai/internal/store"
)

// DecisionQueries is the slice of the store the API reads from.
type DecisionQueries interface {
	RecentDecisions(ctx context.Context, symbol string, limit int) ([]store.DecisionRecord, error)
	DecisionByID(ctx context.Context, id int64) (*store.DecisionRecord, error)
	OrdersForDecision(ctx context.Context, decisionID int64) ([]store.OrderRecord, error)
	RecentCycles(ctx context.Context, limit int) ([]store.CycleRecord, error)
}

// Router exposes the live decision audit endpoints.
type Router struct {
	queries DecisionQueries
}

func NewRouter(queries DecisionQueries) *Router {
	return &Router{queries: queries}
}

// Register mounts the routes under the given group.
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.GET("/decisions", r.handleDecisions)
	group.GET("/decisions/:id", r.handleDecisionByID)
	group.GET("/stats", r.handleStats)
}

func (r *Router) handleDecisions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	symbol := strings.ToUpper(strings.TrimSpace(c.Query("symbol")))

	decisions, err := r.queries.RecentDecisions(c.Request.Context(), symbol, limit)
	if err != nil {
		logger.Errorf("[api] live decisions failed ip=%s err=%v", c.ClientIP(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"decisions": decisions,
		"count":     len(decisions),
	})
}

func (r *Router) handleDecisionByID(c *gin.Context) {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	if id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid decision id"})
		return
	}

	ctx := c.Request.Context()
	rec, err := r.queries.DecisionByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "decision not found"})
			return
		}
		logger.Errorf("[api] live decision detail failed ip=%s id=%d err=%v", c.ClientIP(), id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	orders, err := r.queries.OrdersForDecision(ctx, id)
	if err != nil {
		logger.Warnf("[api] order trail lookup failed id=%d err=%v", id, err)
	}
	c.JSON(http.StatusOK, gin.H{
		"decision": rec,
		"orders":   orders,
	})
}

func (r *Router) handleStats(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	cycles, err := r.queries.RecentCycles(c.Request.Context(), limit)
	if err != nil {
		logger.Errorf("[api] live stats failed ip=%s err=%v", c.ClientIP(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cycles": cycles})
}
