package controllers

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zaqqye/realty_backend/internal/feeds"
)

type FeedController struct {
	Pager *feeds.Pager
	Site  feeds.Site
	Log   *zap.Logger
}

func (fc *FeedController) Google(c *gin.Context)   { fc.serve(c, feeds.KindGoogle) }
func (fc *FeedController) Facebook(c *gin.Context) { fc.serve(c, feeds.KindFacebook) }
func (fc *FeedController) PageFeed(c *gin.Context) { fc.serve(c, feeds.KindPages) }

// serve renders the whole feed before writing so a mid-way failure still yields a clean error.
func (fc *FeedController) serve(c *gin.Context, kind string) {
	params := c.Request.URL.Query()
	props, err := fc.Pager.All(c.Request.Context(), params)
	if err != nil {
		fc.Log.Error("feed fetch failed", zap.String("kind", kind), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load listings"})
		return
	}
	var buf bytes.Buffer
	if err := feeds.Write(&buf, kind, props, fc.Site); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, feeds.ContentType(kind), buf.Bytes())
}
