package diaghttp

import (
	"net/http"
	"strconv"
	"strings"

	"packcall/internal/logger"
	"packcall/internal/store"
	"packcall/internal/store/runlog"

	"github.com/gin-gonic/gin"
)

const defaultLimit = 50
const maxLimit = 500

// Router serves the pick/failure/audit/promotion/position/run queries.
type Router struct {
	store   store.Store
	journal *runlog.Journal
}

func NewRouter(st store.Store, journal *runlog.Journal) *Router {
	return &Router{store: st, journal: journal}
}

// Register mounts the diag routes under the given group.
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.GET("/picks", r.handlePicks)
	group.GET("/failures", r.handleFailures)
	group.GET("/audits", r.handleAudits)
	group.GET("/promotions", r.handlePromotions)
	group.GET("/positions", r.handlePositions)
	group.GET("/runs", r.handleRuns)
}

// queryScope resolves the shared ticker/run_id/limit parameters. run_id wins
// when both are present.
type queryScope struct {
	Ticker string
	RunID  string
	Limit  int
}

func scopeOf(c *gin.Context) queryScope {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return queryScope{
		Ticker: strings.ToUpper(strings.TrimSpace(c.Query("ticker"))),
		RunID:  strings.TrimSpace(c.Query("run_id")),
		Limit:  limit,
	}
}

func (r *Router) handlePicks(c *gin.Context) {
	scope := scopeOf(c)
	ctx := c.Request.Context()
	if scope.RunID != "" {
		recs, err := r.store.Picks().ListByRun(ctx, scope.RunID)
		respondList(c, "picks", recs, err)
		return
	}
	recs, err := r.store.Picks().ListRecent(ctx, scope.Ticker, scope.Limit)
	respondList(c, "picks", recs, err)
}

func (r *Router) handleFailures(c *gin.Context) {
	scope := scopeOf(c)
	ctx := c.Request.Context()
	if scope.RunID != "" {
		recs, err := r.store.Failures().ListByRun(ctx, scope.RunID)
		respondList(c, "failures", recs, err)
		return
	}
	recs, err := r.store.Failures().ListRecent(ctx, scope.Ticker, scope.Limit)
	respondList(c, "failures", recs, err)
}

func (r *Router) handleAudits(c *gin.Context) {
	scope := scopeOf(c)
	ctx := c.Request.Context()
	if scope.RunID != "" {
		recs, err := r.store.Audits().ListByRun(ctx, scope.RunID)
		respondList(c, "audits", recs, err)
		return
	}
	recs, err := r.store.Audits().ListRecent(ctx, scope.Ticker, scope.Limit)
	respondList(c, "audits", recs, err)
}

func (r *Router) handlePromotions(c *gin.Context) {
	scope := scopeOf(c)
	ctx := c.Request.Context()
	if scope.RunID != "" {
		recs, err := r.store.Promotions().ListByRun(ctx, scope.RunID)
		respondList(c, "promotions", recs, err)
		return
	}
	recs, err := r.store.Promotions().ListRecent(ctx, scope.Ticker, scope.Limit)
	respondList(c, "promotions", recs, err)
}

func (r *Router) handlePositions(c *gin.Context) {
	recs, err := r.store.Positions().ListOpen(c.Request.Context())
	respondList(c, "positions", recs, err)
}

func (r *Router) handleRuns(c *gin.Context) {
	if r.journal == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "run journal not enabled"})
		return
	}
	scope := scopeOf(c)
	recs, err := r.journal.Recent(c.Request.Context(), scope.Limit)
	respondList(c, "runs", recs, err)
}

func respondList[T any](c *gin.Context, field string, recs []T, err error) {
	if err != nil {
		logger.Errorf("[api] diag %s query failed ip=%s err=%v", field, c.ClientIP(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{field: recs, "count": len(recs)})
}
