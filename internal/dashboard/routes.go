package dashboard

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/marquee/internal/history"
	"github.com/zulandar/marquee/internal/models"
	"gorm.io/gorm"
)

// registerRoutes sets up all dashboard routes on the Gin router.
func registerRoutes(router *gin.Engine, store *history.Store, db *gorm.DB) {
	router.GET("/healthz", handleHealth())

	router.GET("/api/history", handleHistoryList(store))
	router.POST("/api/history/:id/watched", handleMarkWatched(store))

	if db != nil {
		router.GET("/api/conversations", handleConversationList(db))
		router.GET("/api/conversations/:conversation", handleConversationDetail(db))
	}
}

func handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// handleHistoryList returns history records, optionally filtered by a date
// prefix (?date=21-05-2024).
func handleHistoryList(store *history.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		records := store.QueryByDatePrefix(c.Query("date"))
		if records == nil {
			records = []history.Record{}
		}
		c.JSON(http.StatusOK, gin.H{"records": records})
	}
}

// handleMarkWatched toggles the watched flag on the first record with the
// given id. Body: {"watched": true|false}.
func handleMarkWatched(store *history.Store) gin.HandlerFunc {
	type body struct {
		Watched bool `json:"watched"`
	}
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		var req body
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
		if err := store.MarkWatched(id, req.Watched); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "watched": req.Watched})
	}
}

// handleConversationList returns the distinct conversations in the log with
// their turn counts.
func handleConversationList(db *gorm.DB) gin.HandlerFunc {
	type row struct {
		Conversation string `json:"conversation"`
		Turns        int64  `json:"turns"`
	}
	return func(c *gin.Context) {
		var rows []row
		err := db.Model(&models.ConversationTurn{}).
			Select("conversation, COUNT(*) as turns").
			Group("conversation").
			Order("conversation").
			Scan(&rows).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if rows == nil {
			rows = []row{}
		}
		c.JSON(http.StatusOK, gin.H{"conversations": rows})
	}
}

// handleConversationDetail returns one conversation's turns in order.
func handleConversationDetail(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var turns []models.ConversationTurn
		err := db.Where("conversation = ?", c.Param("conversation")).
			Order("sequence").
			Find(&turns).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"turns": turns})
	}
}
