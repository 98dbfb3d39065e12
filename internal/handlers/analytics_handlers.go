package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"library/internal/models"
)

func (api *API) analyticsSummary(c *gin.Context) {
	summary, err := api.analytics.Summary(actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// groupsAs reshapes generic (key, count) pairs for the wire, naming the
// key after the grouped dimension.
func groupsAs(keyName string, groups []models.GroupCount) []gin.H {
	out := make([]gin.H, 0, len(groups))
	for _, g := range groups {
		out = append(out, gin.H{keyName: g.Key, "count": g.Count})
	}
	return out
}

func (api *API) analyticsBooksByCategory(c *gin.Context) {
	groups, err := api.analytics.BooksByCategory()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": groupsAs("category", groups)})
}

func (api *API) analyticsBooksByAuthor(c *gin.Context) {
	groups, err := api.analytics.BooksByAuthor()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": groupsAs("author", groups)})
}

func (api *API) analyticsBooksByMonth(c *gin.Context) {
	buckets, err := api.analytics.BooksByMonth()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": buckets})
}

func (api *API) analyticsUserStats(c *gin.Context) {
	stats, err := api.analytics.UserStats(actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stats})
}
