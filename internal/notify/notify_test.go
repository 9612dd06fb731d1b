package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zaqqye/realty_backend/internal/matcher"
	"github.com/zaqqye/realty_backend/internal/models"
	"github.com/zaqqye/realty_backend/internal/property"
	"github.com/zaqqye/realty_backend/internal/testutil"
	"github.com/zaqqye/realty_backend/internal/ws"
)

type recordingSender struct {
	err  error
	sent []Email
}

func (r *recordingSender) Send(_ context.Context, e Email) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, e)
	return nil
}

type recordingPusher struct {
	mu   sync.Mutex
	msgs map[string][]ws.Message
}

func (r *recordingPusher) Notify(userID string, msg ws.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.msgs == nil {
		r.msgs = map[string][]ws.Message{}
	}
	r.msgs[userID] = append(r.msgs[userID], msg)
}

func sampleProperty() property.Property {
	return property.Property{
		MLSNumber:      "W1",
		Address:        "12 Lake Dr, Austin, TX 78701",
		Price:          400000,
		PriceFormatted: "$400,000",
		Beds:           3,
		Baths:          2,
		URL:            "https://site.test/property/W1",
	}
}

func TestNotifySavedSearch(t *testing.T) {
	db := testutil.NewDB(t)
	sender := &recordingSender{}
	pusher := &recordingPusher{}
	svc := &Service{DB: db, Email: sender, Push: pusher, Log: zap.NewNop()}

	search := models.SavedSearch{ID: "s1", UserID: "u1", Email: "buyer@example.com", Name: "Austin 3bd", Frequency: "daily"}
	require.NoError(t, svc.NotifySavedSearch(context.Background(), search, sampleProperty()))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{"buyer@example.com"}, sender.sent[0].To)
	assert.Contains(t, sender.sent[0].Subject, "12 Lake Dr")
	assert.Contains(t, sender.sent[0].HTML, "$400,000")
	assert.Contains(t, sender.sent[0].HTML, `href="https://site.test/property/W1"`)

	var n models.Notification
	require.NoError(t, db.First(&n, "user_id = ?", "u1").Error)
	assert.True(t, n.Emailed)
	assert.Equal(t, "saved_search_match", n.Type)
	var data map[string]any
	require.NoError(t, json.Unmarshal(n.Data, &data))
	assert.Equal(t, "W1", data["mls_number"])

	require.Len(t, pusher.msgs["u1"], 1)
	assert.Equal(t, "saved_search_match", pusher.msgs["u1"][0].Type)
}

func TestNotifySavedSearchEmailFailure(t *testing.T) {
	svc := &Service{Email: &recordingSender{err: errors.New("boom")}, Log: zap.NewNop()}
	err := svc.NotifySavedSearch(context.Background(), models.SavedSearch{ID: "s1", UserID: "u1", Email: "b@example.com"}, sampleProperty())
	assert.Error(t, err)
}

func TestSavedSearchIsStampedWhenRecordingFailsAfterEmail(t *testing.T) {
	db := testutil.NewDB(t)
	search := models.SavedSearch{ID: "s1", UserID: "u1", Email: "buyer@example.com", Frequency: models.FrequencyDaily, Active: true}
	require.NoError(t, db.Create(&search).Error)
	require.NoError(t, db.Migrator().DropTable(&models.Notification{}))

	sender := &recordingSender{}
	svc := &Service{DB: db, Email: sender, Log: zap.NewNop()}
	eng := matcher.NewEngine(&matcher.GormStore{DB: db}, svc, zap.NewNop())

	start := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	var results []matcher.Result
	for _, offset := range []time.Duration{0, time.Hour, 2 * time.Hour} {
		now := start.Add(offset)
		eng.Now = func() time.Time { return now }
		res, err := eng.Process(context.Background(), sampleProperty())
		require.NoError(t, err)
		results = append(results, res)
	}

	assert.Len(t, sender.sent, 1)
	assert.Equal(t, matcher.Result{Evaluated: 1, Matched: 1, Notified: 1}, results[0])
	assert.Equal(t, matcher.Result{Evaluated: 1, Matched: 1, Skipped: 1}, results[1])
	assert.Equal(t, matcher.Result{Evaluated: 1, Matched: 1, Skipped: 1}, results[2])

	var stamped models.SavedSearch
	require.NoError(t, db.First(&stamped, "id = ?", "s1").Error)
	require.NotNil(t, stamped.LastNotifiedAt)
	assert.WithinDuration(t, start, *stamped.LastNotifiedAt, time.Second)
}

func TestNotifySavedSearchRecordFailureWithoutEmail(t *testing.T) {
	db := testutil.NewDB(t)
	require.NoError(t, db.Migrator().DropTable(&models.Notification{}))
	svc := &Service{DB: db, Log: zap.NewNop()}
	err := svc.NotifySavedSearch(context.Background(), models.SavedSearch{ID: "s1", UserID: "u1"}, sampleProperty())
	assert.Error(t, err)
}

func TestNotifySavedSearchWithoutEmailConfig(t *testing.T) {
	db := testutil.NewDB(t)
	svc := &Service{DB: db, Email: &HTTPEmailSender{}, Log: zap.NewNop()}
	err := svc.NotifySavedSearch(context.Background(), models.SavedSearch{ID: "s1", UserID: "u1", Email: "b@example.com"}, sampleProperty())
	require.NoError(t, err)

	var n models.Notification
	require.NoError(t, db.First(&n).Error)
	assert.False(t, n.Emailed)
}

func TestNotifyLeadEscapesInput(t *testing.T) {
	sender := &recordingSender{}
	svc := &Service{Email: sender, AgentEmail: "agent@example.com", Log: zap.NewNop()}

	err := svc.NotifyLead(context.Background(), models.Lead{FirstName: "Ann", Email: "ann@example.com", Message: "<script>x</script>", Kind: "showing"})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "ann@example.com", sender.sent[0].ReplyTo)
	assert.NotContains(t, sender.sent[0].HTML, "<script>")
	assert.Contains(t, sender.sent[0].HTML, "&lt;script&gt;")
}

func TestNotifyLeadWithoutAgent(t *testing.T) {
	sender := &recordingSender{}
	svc := &Service{Email: sender, Log: zap.NewNop()}
	require.NoError(t, svc.NotifyLead(context.Background(), models.Lead{Email: "a@example.com"}))
	assert.Empty(t, sender.sent)
}

func TestHTTPEmailSender(t *testing.T) {
	var got map[string]any
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"em_1"}`))
	}))
	defer srv.Close()

	s := NewHTTPEmailSender(srv.URL, "key-1", "site@example.com")
	require.NoError(t, s.Send(context.Background(), Email{To: []string{"a@example.com"}, Subject: "Hi", HTML: "<p>x</p>"}))
	assert.Equal(t, "Bearer key-1", auth)
	assert.Equal(t, "site@example.com", got["from"])
	assert.Equal(t, "Hi", got["subject"])

	assert.ErrorIs(t, (&HTTPEmailSender{}).Send(context.Background(), Email{}), ErrEmailNotConfigured)
}

func TestHTTPEmailSenderUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid from"}`))
	}))
	defer srv.Close()

	err := NewHTTPEmailSender(srv.URL, "k", "bad").Send(context.Background(), Email{To: []string{"a@example.com"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}
