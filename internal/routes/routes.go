package routes

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/zaqqye/realty_backend/internal/config"
	"github.com/zaqqye/realty_backend/internal/controllers"
	"github.com/zaqqye/realty_backend/internal/feeds"
	"github.com/zaqqye/realty_backend/internal/matcher"
	"github.com/zaqqye/realty_backend/internal/middleware"
	"github.com/zaqqye/realty_backend/internal/property"
	"github.com/zaqqye/realty_backend/internal/ratelimit"
	"github.com/zaqqye/realty_backend/internal/seo"
	"github.com/zaqqye/realty_backend/internal/ws"
)

// Deps are the long-lived services the handlers share.
type Deps struct {
	DB      *gorm.DB
	Cfg     *config.Config
	Log     *zap.Logger
	Hub     *ws.Hub
	MLS     controllers.MLS
	Notify  controllers.Notifier
	Alerts  matcher.Notifier
	CRM     controllers.CRM
	SEO     seo.Generator
	Limiter *ratelimit.Limiter
}

// PropertyOptions are the URL bases used when normalizing listings.
func PropertyOptions(cfg *config.Config) property.Options {
	return property.Options{CDNBase: cfg.RepliersCDNURL, SiteURL: cfg.SiteURL}
}

// FeedSite describes the storefront for ad feeds.
func FeedSite(cfg *config.Config) feeds.Site {
	return feeds.Site{
		Title:       cfg.SiteName,
		URL:         strings.TrimRight(cfg.SiteURL, "/"),
		Description: cfg.SiteName + " listings",
	}
}

func Register(r *gin.Engine, d Deps) {
	cfg := d.Cfg
	opts := PropertyOptions(cfg)
	limiter := d.Limiter
	if limiter == nil {
		limiter = ratelimit.New(cfg.RateLimit(), cfg.RateLimitWindow())
	}
	throttle := middleware.RateLimit(limiter)
	authCfg := middleware.AuthConfig{JWTSecret: cfg.JWTSecret, JWTExpiresIn: cfg.AccessTTL()}
	authMW := middleware.AuthMiddleware(d.DB, authCfg)
	optionalAuth := middleware.OptionalAuth(d.DB, authCfg)

	authCtrl := &controllers.AuthController{DB: d.DB, AccessSecret: cfg.JWTSecret, AccessTTL: cfg.AccessTTL()}
	adminCtrl := &controllers.AdminController{DB: d.DB, Log: d.Log}
	mlsCtrl := &controllers.MLSController{Client: d.MLS, Options: opts, Log: d.Log}
	siteCtrl := &controllers.SiteController{DB: d.DB}
	pageCtrl := &controllers.PageController{DB: d.DB, MLS: d.MLS, Options: opts, Log: d.Log}
	searchCtrl := &controllers.SavedSearchController{DB: d.DB}
	favCtrl := &controllers.FavoriteController{DB: d.DB, MLS: d.MLS, Options: opts, CRM: d.CRM, Log: d.Log}
	tourCtrl := &controllers.TourController{DB: d.DB, Notify: d.Notify, CRM: d.CRM, Log: d.Log}
	leadCtrl := &controllers.LeadController{DB: d.DB, Notify: d.Notify, CRM: d.CRM, Log: d.Log}
	notifCtrl := &controllers.NotificationController{DB: d.DB}
	seoCtrl := &controllers.SEOController{DB: d.DB, Generator: d.SEO, MLS: d.MLS, Options: opts, Log: d.Log}
	feedCtrl := &controllers.FeedController{
		Pager: feeds.NewPager(d.MLS, opts, cfg.FeedPages()),
		Site:  FeedSite(cfg),
		Log:   d.Log,
	}
	hookCtrl := &controllers.WebhookController{
		DB:            d.DB,
		Engine:        matcher.NewEngine(&matcher.GormStore{DB: d.DB}, d.Alerts, d.Log),
		Options:       opts,
		ListingSecret: cfg.ListingWebhookSecret,
		CRMSecret:     cfg.FUBWebhookSecret,
		CRMWindow:     cfg.CRMSignatureWindow(),
		Log:           d.Log,
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Feeds are fetched by ad platforms at well-known URLs.
	r.GET("/feeds/google.xml", feedCtrl.Google)
	r.GET("/feeds/facebook.xml", feedCtrl.Facebook)
	r.GET("/feeds/page-feed.tsv", feedCtrl.PageFeed)

	v1 := r.Group("/api/v1")

	// Public
	v1.POST("/auth/login", throttle, authCtrl.Login)

	mls := v1.Group("/mls")
	{
		mls.GET("/listings", mlsCtrl.Search)
		mls.GET("/listings/:mlsNumber", mlsCtrl.Get)
		mls.GET("/listings/:mlsNumber/similar", mlsCtrl.Similar)
		mls.GET("/estimates", mlsCtrl.Estimates)
		mls.GET("/places", mlsCtrl.Places)
		mls.GET("/buildings", mlsCtrl.Buildings)
		mls.POST("/proxy", mlsCtrl.Proxy)
	}

	site := v1.Group("/site")
	{
		site.GET("/settings", siteCtrl.Settings)
		site.GET("/navigation", siteCtrl.Navigation)
		site.GET("/subtypes", siteCtrl.Subtypes)
		site.GET("/school-districts", siteCtrl.SchoolDistricts)
	}

	v1.GET("/pages/*slug", optionalAuth, pageCtrl.Show)
	v1.POST("/leads", throttle, optionalAuth, leadCtrl.Create)

	hooks := v1.Group("/webhooks")
	{
		hooks.POST("/listings", hookCtrl.Listings)
		hooks.POST("/crm", hookCtrl.CRM)
	}

	// Protected
	api := v1.Group("", authMW)
	{
		api.GET("/auth/me", authCtrl.Me)
		api.POST("/auth/logout", authCtrl.Logout)
		api.GET("/ws/notifications", ws.Handler(d.Hub))

		api.GET("/saved-searches", searchCtrl.List)
		api.POST("/saved-searches", searchCtrl.Create)
		api.GET("/saved-searches/:id", searchCtrl.Get)
		api.PUT("/saved-searches/:id", searchCtrl.Update)
		api.DELETE("/saved-searches/:id", searchCtrl.Delete)

		api.GET("/favorites", favCtrl.List)
		api.POST("/favorites", favCtrl.Add)
		api.PUT("/favorites/:mlsNumber", favCtrl.Update)
		api.DELETE("/favorites/:mlsNumber", favCtrl.Remove)

		api.GET("/tours", tourCtrl.List)
		api.POST("/tours", throttle, tourCtrl.Create)
		api.POST("/tours/:id/cancel", tourCtrl.Cancel)

		api.GET("/notifications", notifCtrl.List)
		api.POST("/notifications/read-all", notifCtrl.MarkAllRead)
		api.POST("/notifications/:id/read", notifCtrl.MarkRead)

		// Admin-only
		admin := api.Group("/admin", middleware.RequireRoles("admin"))
		{
			admin.GET("/staff", adminCtrl.ListStaff)
			admin.POST("/staff", adminCtrl.CreateStaff)
			admin.GET("/staff/:id", adminCtrl.GetStaff)
			admin.PUT("/staff/:id", adminCtrl.UpdateStaff)
			admin.DELETE("/staff/:id", adminCtrl.DeleteStaff)

			admin.GET("/settings", siteCtrl.AdminListSettings)
			admin.PUT("/settings/:key", siteCtrl.AdminPutSetting)
			admin.DELETE("/settings/:key", siteCtrl.AdminDeleteSetting)

			admin.GET("/navigation", siteCtrl.AdminListNavigation)
			admin.POST("/navigation", siteCtrl.AdminCreateNavigation)
			admin.PUT("/navigation/:id", siteCtrl.AdminUpdateNavigation)
			admin.DELETE("/navigation/:id", siteCtrl.AdminDeleteNavigation)

			admin.GET("/subtypes", siteCtrl.AdminListSubtypes)
			admin.POST("/subtypes", siteCtrl.AdminCreateSubtype)
			admin.PUT("/subtypes/:id", siteCtrl.AdminUpdateSubtype)
			admin.DELETE("/subtypes/:id", siteCtrl.AdminDeleteSubtype)

			admin.GET("/school-districts", siteCtrl.AdminListSchoolDistricts)
			admin.POST("/school-districts", siteCtrl.AdminCreateSchoolDistrict)
			admin.POST("/school-districts/import", adminCtrl.ImportSchoolDistricts)
			admin.PUT("/school-districts/:id", siteCtrl.AdminUpdateSchoolDistrict)
			admin.DELETE("/school-districts/:id", siteCtrl.AdminDeleteSchoolDistrict)

			admin.GET("/leads", leadCtrl.AdminList)
			admin.GET("/lead-statuses", leadCtrl.AdminListStatuses)
			admin.PUT("/lead-statuses/:id", leadCtrl.AdminUpdateStatus)

			admin.GET("/tours", tourCtrl.AdminList)
			admin.PUT("/tours/:id/status", tourCtrl.AdminUpdateStatus)
		}

		// Editors manage page content alongside admins.
		cms := api.Group("/admin", middleware.RequireRoles("editor"))
		{
			cms.GET("/pages", pageCtrl.AdminList)
			cms.POST("/pages", pageCtrl.AdminCreate)
			cms.GET("/pages/:id", pageCtrl.AdminGet)
			cms.PUT("/pages/:id", pageCtrl.AdminUpdate)
			cms.DELETE("/pages/:id", pageCtrl.AdminDelete)
			cms.POST("/seo/generate", seoCtrl.Generate)
		}
	}
}
