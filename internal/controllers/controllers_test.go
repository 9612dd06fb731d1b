package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zaqqye/realty_backend/internal/crm"
	"github.com/zaqqye/realty_backend/internal/matcher"
	"github.com/zaqqye/realty_backend/internal/middleware"
	"github.com/zaqqye/realty_backend/internal/models"
	"github.com/zaqqye/realty_backend/internal/property"
	"github.com/zaqqye/realty_backend/internal/repliers"
	"github.com/zaqqye/realty_backend/internal/testutil"
)

const rawListing = `{"mlsNumber":"N100","status":"A","type":"Sale","listPrice":450000,` +
	`"address":{"streetNumber":"12","streetName":"Oak","streetSuffix":"St","city":"Austin","state":"TX","zip":"78701"},` +
	`"details":{"numBedrooms":3,"numBathrooms":2,"propertyType":"Detached"}}`

type fakeMLS struct {
	mu         sync.Mutex
	status     int
	body       []byte
	page       *repliers.ListingsPage
	listing    json.RawMessage
	forwarded  []url.Values
	searchArgs []url.Values
}

func (f *fakeMLS) Forward(_ context.Context, _, _ string, params url.Values) (int, []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forwarded = append(f.forwarded, params)
	return f.status, f.body
}

func (f *fakeMLS) SearchListings(_ context.Context, params url.Values) (*repliers.ListingsPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchArgs = append(f.searchArgs, params)
	return f.page, nil
}

func (f *fakeMLS) GetListing(context.Context, string) (json.RawMessage, error) {
	return f.listing, nil
}

type fakeCRM struct {
	events []crm.Event
	onSend func()
}

func (f *fakeCRM) SendEvent(_ context.Context, ev crm.Event) (*crm.EventResponse, error) {
	f.events = append(f.events, ev)
	if f.onSend != nil {
		f.onSend()
	}
	return &crm.EventResponse{PersonID: 42}, nil
}

type fakeNotifier struct {
	leads  []models.Lead
	tours  []models.TourRequest
	alerts []string
}

func (f *fakeNotifier) NotifyLead(_ context.Context, lead models.Lead) error {
	f.leads = append(f.leads, lead)
	return nil
}

func (f *fakeNotifier) NotifyTour(_ context.Context, tour models.TourRequest) error {
	f.tours = append(f.tours, tour)
	return nil
}

func (f *fakeNotifier) NotifySavedSearch(_ context.Context, s models.SavedSearch, _ property.Property) error {
	f.alerts = append(f.alerts, s.ID)
	return nil
}

func newRouter(user *middleware.AuthUser) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if user != nil {
		u := *user
		r.Use(func(c *gin.Context) {
			middleware.SetUser(c, u)
			c.Next()
		})
	}
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch v := body.(type) {
	case nil:
	case []byte:
		buf.Write(v)
	case string:
		buf.WriteString(v)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(v))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestMLSSearchNormalizesOnRequest(t *testing.T) {
	mls := &fakeMLS{status: http.StatusOK, body: []byte(`{"page":1,"count":1,"listings":[` + rawListing + `]}`)}
	ctrl := &MLSController{Client: mls, Log: zap.NewNop()}
	r := newRouter(nil)
	r.GET("/mls/listings", ctrl.Search)

	w := doJSON(t, r, http.MethodGet, "/mls/listings?city=Austin&normalize=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.EqualValues(t, 1, out["count"])
	listings := out["listings"].([]any)
	require.Len(t, listings, 1)
	first := listings[0].(map[string]any)
	assert.Equal(t, "N100", first["mls_number"])
	assert.EqualValues(t, 450000, first["price"])

	require.Len(t, mls.forwarded, 1)
	assert.Equal(t, "Austin", mls.forwarded[0].Get("city"))
	assert.False(t, mls.forwarded[0].Has("normalize"), "normalize is not sent upstream")
}

func TestMLSPassesUpstreamStatusThrough(t *testing.T) {
	mls := &fakeMLS{status: http.StatusBadGateway, body: []byte(`{"error":"upstream down"}`)}
	ctrl := &MLSController{Client: mls, Log: zap.NewNop()}
	r := newRouter(nil)
	r.GET("/mls/listings/:mlsNumber/similar", ctrl.Similar)

	w := doJSON(t, r, http.MethodGet, "/mls/listings/N1/similar?normalize=1", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.JSONEq(t, `{"error":"upstream down"}`, w.Body.String())
}

func TestMLSProxyRequiresEndpoint(t *testing.T) {
	ctrl := &MLSController{Client: &fakeMLS{}, Log: zap.NewNop()}
	r := newRouter(nil)
	r.POST("/mls/proxy", ctrl.Proxy)

	w := doJSON(t, r, http.MethodPost, "/mls/proxy", map[string]any{"params": map[string]any{"city": "Austin"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFavoriteAddSnapshotsAndRejectsDuplicates(t *testing.T) {
	db := testutil.NewDB(t)
	mls := &fakeMLS{listing: json.RawMessage(rawListing)}
	sink := &fakeCRM{}
	ctrl := &FavoriteController{DB: db, MLS: mls, CRM: sink, Log: zap.NewNop()}
	r := newRouter(&middleware.AuthUser{ID: "user-1", Email: "ana@example.com", Role: "user"})
	r.POST("/favorites", ctrl.Add)
	r.DELETE("/favorites/:mlsNumber", ctrl.Remove)

	w := doJSON(t, r, http.MethodPost, "/favorites", map[string]any{"mls_number": "N100"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var fav models.FavoriteProperty
	require.NoError(t, db.Where("user_id = ? AND mls_number = ?", "user-1", "N100").First(&fav).Error)
	var snap property.Property
	require.NoError(t, json.Unmarshal(fav.Snapshot, &snap))
	assert.Equal(t, "Austin", snap.City)

	require.Len(t, sink.events, 1)
	assert.Equal(t, crm.EventSavedProperty, sink.events[0].Type)
	require.NotNil(t, sink.events[0].Property)
	assert.Equal(t, "N100", sink.events[0].Property.MLSNumber)

	w = doJSON(t, r, http.MethodPost, "/favorites", map[string]any{"mls_number": "N100"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodPost, "/favorites", map[string]any{"mls_number": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var blank int64
	require.NoError(t, db.Model(&models.FavoriteProperty{}).Where("mls_number = ?", "").Count(&blank).Error)
	assert.Zero(t, blank)

	w = doJSON(t, r, http.MethodDelete, "/favorites/N100", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, r, http.MethodDelete, "/favorites/N100", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResolveModulesDropsUnknownTypes(t *testing.T) {
	mls := &fakeMLS{page: &repliers.ListingsPage{
		Count:    7,
		Listings: []json.RawMessage{json.RawMessage(rawListing)},
	}}
	ctrl := &PageController{MLS: mls, Log: zap.NewNop()}
	mods := []models.PageModule{
		{ID: "a", Type: models.ModuleHero, Config: json.RawMessage(`{"heading":"Hi"}`)},
		{ID: "b", Type: "carousel"},
		{ID: "c", Type: models.ModuleListingsGrid, Config: json.RawMessage(`{"params":{"city":"Austin"},"limit":500}`)},
		{ID: "d", Type: models.ModuleFAQ},
	}

	out := ctrl.ResolveModules(context.Background(), mods)
	require.Len(t, out, 3)
	assert.Equal(t, []string{"a", "c", "d"}, []string{out[0].ID, out[1].ID, out[2].ID})
	assert.Nil(t, out[0].Data)

	grid, ok := out[1].Data.(listingsGridData)
	require.True(t, ok)
	assert.Equal(t, 7, grid.Count)
	require.Len(t, grid.Listings, 1)
	assert.Equal(t, "N100", grid.Listings[0].MLSNumber)

	require.Len(t, mls.searchArgs, 1)
	assert.Equal(t, "Austin", mls.searchArgs[0].Get("city"))
	assert.Equal(t, "Active", mls.searchArgs[0].Get("status"))
	assert.Equal(t, "12", mls.searchArgs[0].Get("resultsPerPage"), "oversized limits fall back to the default")
}

func TestPageShowHidesDrafts(t *testing.T) {
	db := testutil.NewDB(t)
	page := models.ContentPage{Slug: "buy/austin", Title: "Austin", Modules: []byte(`[{"type":"hero"}]`)}
	require.NoError(t, db.Create(&page).Error)

	ctrl := &PageController{DB: db, Log: zap.NewNop()}
	public := newRouter(nil)
	public.GET("/pages/*slug", ctrl.Show)
	w := doJSON(t, public, http.MethodGet, "/pages/buy/austin", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	editor := newRouter(&middleware.AuthUser{ID: "s1", Role: "editor", Staff: true})
	editor.GET("/pages/*slug", ctrl.Show)
	w = doJSON(t, editor, http.MethodGet, "/pages/buy/austin", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Austin", decode(t, w)["title"])
}

func TestPageAdminCreateValidates(t *testing.T) {
	db := testutil.NewDB(t)
	ctrl := &PageController{DB: db, Log: zap.NewNop()}
	r := newRouter(&middleware.AuthUser{ID: "s1", Role: "admin", Staff: true})
	r.POST("/pages", ctrl.AdminCreate)

	w := doJSON(t, r, http.MethodPost, "/pages", map[string]any{"slug": "Bad Slug!", "title": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/pages", map[string]any{
		"slug": "sell", "title": "Sell", "modules": []map[string]any{{"type": "mystery"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body := map[string]any{"slug": "/Sell/", "title": "Sell", "modules": []map[string]any{{"type": "cta"}}}
	w = doJSON(t, r, http.MethodPost, "/pages", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "sell", decode(t, w)["slug"])

	w = doJSON(t, r, http.MethodPost, "/pages", body)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLeadCreateTracksStatusAndSyncs(t *testing.T) {
	db := testutil.NewDB(t)
	sink := &fakeCRM{}
	notifier := &fakeNotifier{}
	ctrl := &LeadController{DB: db, Notify: notifier, CRM: sink, Log: zap.NewNop()}
	r := newRouter(nil)
	r.POST("/leads", ctrl.Create)

	body := map[string]any{
		"first_name": "Ana", "email": "Ana@Example.com", "mls_number": "N100", "message": "Is it available?",
	}
	w := doJSON(t, r, http.MethodPost, "/leads", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = doJSON(t, r, http.MethodPost, "/leads", body)
	require.Equal(t, http.StatusCreated, w.Code)

	var leads []models.Lead
	require.NoError(t, db.Find(&leads).Error)
	require.Len(t, leads, 2)
	assert.Equal(t, "ana@example.com", leads[0].Email)
	assert.Equal(t, "property", leads[0].Kind)
	assert.Equal(t, "organic", leads[0].Source)
	assert.True(t, leads[0].CRMSynced)

	var statuses []models.LeadStatus
	require.NoError(t, db.Find(&statuses).Error)
	require.Len(t, statuses, 1, "one status row per email")
	assert.Equal(t, models.LeadNew, statuses[0].Stage)
	assert.Equal(t, "42", statuses[0].CRMPersonID)

	require.Len(t, sink.events, 2)
	assert.Equal(t, crm.EventPropertyInquiry, sink.events[0].Type)
	assert.Len(t, notifier.leads, 2)
}

func TestLeadCreateLogsCRMIDUpdateFailure(t *testing.T) {
	db := testutil.NewDB(t)
	core, logs := observer.New(zapcore.WarnLevel)
	sink := &fakeCRM{onSend: func() {
		require.NoError(t, db.Migrator().DropTable(&models.LeadStatus{}))
	}}
	notifier := &fakeNotifier{}
	ctrl := &LeadController{DB: db, Notify: notifier, CRM: sink, Log: zap.New(core)}
	r := newRouter(nil)
	r.POST("/leads", ctrl.Create)

	w := doJSON(t, r, http.MethodPost, "/leads", map[string]any{"first_name": "Ana", "email": "ana@example.com"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	entries := logs.FilterMessage("lead status crm id update failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, decode(t, w)["id"], entries[0].ContextMap()["lead_id"])
	assert.Len(t, notifier.leads, 1)
}

func TestLeadCreateRequiresEmail(t *testing.T) {
	ctrl := &LeadController{DB: testutil.NewDB(t), Log: zap.NewNop()}
	r := newRouter(nil)
	r.POST("/leads", ctrl.Create)

	w := doJSON(t, r, http.MethodPost, "/leads", map[string]any{"first_name": "Ana", "email": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCRMWebhookSignature(t *testing.T) {
	db := testutil.NewDB(t)
	now := time.Unix(1_700_000_000, 0)
	ctrl := &WebhookController{
		DB:        db,
		CRMSecret: "whsec",
		CRMWindow: 5 * time.Minute,
		Log:       zap.NewNop(),
		Now:       func() time.Time { return now },
	}
	r := newRouter(nil)
	r.POST("/webhooks/crm", ctrl.CRM)

	body := []byte(`{"event":"peopleStageUpdated","person":{"id":991,"email":"Ana@example.com","stage":"Active Client"}}`)
	ts := strconv.FormatInt(now.Unix(), 10)

	w := doJSON(t, r, http.MethodPost, "/webhooks/crm", body)
	assert.Equal(t, http.StatusBadRequest, w.Code, "missing headers")

	w = doJSON(t, r, http.MethodPost, "/webhooks/crm", body, "X-CRM-Timestamp", ts, "X-CRM-Signature", "deadbeef")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	stale := strconv.FormatInt(now.Add(-10*time.Minute).Unix(), 10)
	w = doJSON(t, r, http.MethodPost, "/webhooks/crm", body,
		"X-CRM-Timestamp", stale, "X-CRM-Signature", crm.Sign("whsec", stale, body))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodPost, "/webhooks/crm", body,
		"X-CRM-Timestamp", ts, "X-CRM-Signature", crm.Sign("whsec", ts, body))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var st models.LeadStatus
	require.NoError(t, db.Where("email = ?", "ana@example.com").First(&st).Error)
	assert.Equal(t, models.LeadQualified, st.Stage)
	assert.Equal(t, "991", st.CRMPersonID)
}

func TestListingWebhookNotifiesMatchingSearches(t *testing.T) {
	db := testutil.NewDB(t)
	maxPrice := int64(500000)
	match := models.SavedSearch{UserID: "u1", City: "austin", MaxPrice: &maxPrice, Frequency: models.FrequencyInstant, Active: true}
	miss := models.SavedSearch{UserID: "u2", City: "Dallas", Frequency: models.FrequencyInstant, Active: true}
	require.NoError(t, db.Create(&match).Error)
	require.NoError(t, db.Create(&miss).Error)

	notifier := &fakeNotifier{}
	ctrl := &WebhookController{
		DB:     db,
		Engine: matcher.NewEngine(&matcher.GormStore{DB: db}, notifier, zap.NewNop()),
		Log:    zap.NewNop(),
	}
	r := newRouter(nil)
	r.POST("/webhooks/listings", ctrl.Listings)

	w := doJSON(t, r, http.MethodPost, "/webhooks/listings", `{"event":"listing.deleted","listing":{}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ignored", decode(t, w)["message"])

	w = doJSON(t, r, http.MethodPost, "/webhooks/listings", `{"event":"listing.added","data":`+rawListing+`}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{match.ID}, notifier.alerts)

	var stored models.SavedSearch
	require.NoError(t, db.First(&stored, "id = ?", match.ID).Error)
	assert.NotNil(t, stored.LastNotifiedAt)
}

func TestSavedSearchesAreScopedToOwner(t *testing.T) {
	db := testutil.NewDB(t)
	ctrl := &SavedSearchController{DB: db}
	owner := newRouter(&middleware.AuthUser{ID: "owner", Email: "o@example.com"})
	owner.POST("/saved-searches", ctrl.Create)
	owner.GET("/saved-searches/:id", ctrl.Get)
	other := newRouter(&middleware.AuthUser{ID: "other"})
	other.GET("/saved-searches/:id", ctrl.Get)
	other.DELETE("/saved-searches/:id", ctrl.Delete)

	w := doJSON(t, owner, http.MethodPost, "/saved-searches", map[string]any{"city": "Austin", "frequency": "hourly"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = doJSON(t, owner, http.MethodPost, "/saved-searches", map[string]any{"min_price": 900, "max_price": 100})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, owner, http.MethodPost, "/saved-searches", map[string]any{"name": "Downtown", "city": "Austin"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.Equal(t, models.FrequencyDaily, created["frequency"])
	assert.Equal(t, true, created["active"])
	assert.Equal(t, "o@example.com", created["email"])
	id := created["id"].(string)

	assert.Equal(t, http.StatusOK, doJSON(t, owner, http.MethodGet, "/saved-searches/"+id, nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, other, http.MethodGet, "/saved-searches/"+id, nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, other, http.MethodDelete, "/saved-searches/"+id, nil).Code)
}

func TestTourCreateAndCancel(t *testing.T) {
	db := testutil.NewDB(t)
	notifier := &fakeNotifier{}
	sink := &fakeCRM{}
	ctrl := &TourController{DB: db, Notify: notifier, CRM: sink, Log: zap.NewNop()}
	r := newRouter(&middleware.AuthUser{ID: "u1", Email: "ana@example.com"})
	r.POST("/tours", ctrl.Create)
	r.POST("/tours/:id/cancel", ctrl.Cancel)

	w := doJSON(t, r, http.MethodPost, "/tours", map[string]any{"mls_number": "N100", "name": "Ana", "tour_type": "drone"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/tours", map[string]any{"mls_number": "N100", "name": "Ana Lopez", "address": "12 Oak St"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.Equal(t, "in_person", created["tour_type"])
	assert.Equal(t, "ana@example.com", created["email"], "falls back to the account email")

	require.Len(t, notifier.tours, 1)
	require.Len(t, sink.events, 1)
	assert.Equal(t, "Ana", sink.events[0].Person.FirstName)

	id := created["id"].(string)
	w = doJSON(t, r, http.MethodPost, "/tours/"+id+"/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tour models.TourRequest
	require.NoError(t, db.First(&tour, "id = ?", id).Error)
	assert.Equal(t, models.TourCancelled, tour.Status)
}
