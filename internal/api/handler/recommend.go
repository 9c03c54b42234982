package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/timmy/cinematch/internal/api/middleware"
	"github.com/timmy/cinematch/internal/domain"
	"github.com/timmy/cinematch/internal/service"
)

// User-facing error messages.
const (
	msgInvalidTitle = "Movie title must contain letters or numbers"
	msgNotFound     = "Movie not found."
	msgInternal     = "An unexpected error occurred"
)

// RecommendHandler serves recommendation queries.
type RecommendHandler struct {
	svc      *service.RecommendService
	defaultK int
	maxK     int
}

// NewRecommendHandler creates a new recommend handler.
// Parameters:
//   - svc: recommend service instance.
//   - defaultK: result count when the request does not give one.
//   - maxK: upper bound applied to requested counts.
//
// Returns:
//   - *RecommendHandler: initialized handler.
func NewRecommendHandler(svc *service.RecommendService, defaultK, maxK int) *RecommendHandler {
	if defaultK <= 0 {
		defaultK = 5
	}
	if maxK < defaultK {
		maxK = defaultK
	}
	return &RecommendHandler{svc: svc, defaultK: defaultK, maxK: maxK}
}

type recommendRequest struct {
	Title string `json:"title"`
	K     *int   `json:"k"`
}

type resultItem struct {
	Title string  `json:"title"`
	Genre string  `json:"genre"`
	Score float32 `json:"score"`
}

type historyItem struct {
	ID         uint   `json:"id"`
	Title      string `json:"title"`
	SearchedAt string `json:"searched_at"`
}

type recommendResponse struct {
	Title           string        `json:"title"`
	Recommendations []string      `json:"recommendations"`
	Results         []resultItem  `json:"results"`
	History         []historyItem `json:"history"`
}

// Recommend handles POST /api/v1/recommend.
func (h *RecommendHandler) Recommend(c *gin.Context) {
	var req recommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}
	k, ok := h.resolveK(req.K)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "k must be a positive integer"})
		return
	}
	h.respond(c, req.Title, k)
}

// RecommendGet handles GET /api/v1/recommend?title=...&k=...
func (h *RecommendHandler) RecommendGet(c *gin.Context) {
	var kp *int
	if raw := c.Query("k"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "k must be a positive integer"})
			return
		}
		kp = &v
	}
	k, ok := h.resolveK(kp)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "k must be a positive integer"})
		return
	}
	h.respond(c, c.Query("title"), k)
}

// RecommendForm handles POST /recommend-form with a form-encoded title and the default k.
func (h *RecommendHandler) RecommendForm(c *gin.Context) {
	h.respond(c, c.PostForm("title"), h.defaultK)
}

func (h *RecommendHandler) resolveK(k *int) (int, bool) {
	if k == nil {
		return h.defaultK, true
	}
	if *k <= 0 {
		return 0, false
	}
	return min(*k, h.maxK), true
}

func (h *RecommendHandler) respond(c *gin.Context, title string, k int) {
	resp, err := h.svc.Recommend(c.Request.Context(), title, k)
	if err != nil {
		writeError(c, err)
		return
	}

	out := recommendResponse{
		Title:           resp.Title,
		Recommendations: resp.Recommendations,
		Results:         make([]resultItem, len(resp.Results)),
		History:         toHistoryItems(resp.History),
	}
	for i, m := range resp.Results {
		out.Results[i] = resultItem{Title: m.Title, Genre: m.Genre, Score: m.Score}
	}
	c.JSON(http.StatusOK, out)
}

// writeError maps service errors to status codes. Internal details stay in the log.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidQuery):
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidTitle})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": msgNotFound})
	default:
		middleware.GetLogger(c).WithError(err).Error("Recommendation request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
	}
}

func toHistoryItems(entries []domain.SearchHistory) []historyItem {
	items := make([]historyItem, len(entries))
	for i, e := range entries {
		items[i] = historyItem{ID: e.ID, Title: e.Title, SearchedAt: e.DisplayTime()}
	}
	return items
}
