package rooms_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/roomhub/internal/app/features/rooms"
	"github.com/dalemusser/roomhub/internal/app/membership"
	"github.com/dalemusser/roomhub/internal/domain/models"
	"github.com/dalemusser/roomhub/internal/testutil"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*rooms.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	files, err := storage.NewLocal(storage.LocalConfig{BasePath: t.TempDir(), BaseURL: "/files"})
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	svc := membership.NewForDB(db, nil, zap.NewNop())
	return rooms.NewHandler(db, svc, nil, files, zap.NewNop()), testutil.NewFixtures(t, db)
}

// call runs fn as caller against room id with an optional JSON body.
func call(fn http.HandlerFunc, method string, caller *models.User, id primitive.ObjectID, body any) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = testutil.NewJSONRequest(method, "/room/"+id.Hex(), body)
	} else {
		req = testutil.NewRequest(method, "/room/"+id.Hex())
	}
	if caller != nil {
		req = testutil.WithUser(req, *caller)
	}
	req = testutil.WithChiURLParam(req, "id", id.Hex())
	rec := httptest.NewRecorder()
	fn(rec, req)
	return rec
}

func TestHandleCreate(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ada := fx.CreateUser(ctx, "Ada", "ada@example.com")

	create := func(body map[string]any) *httptest.ResponseRecorder {
		req := testutil.WithUser(testutil.NewJSONRequest(http.MethodPost, "/room", body), ada)
		rec := httptest.NewRecorder()
		h.HandleCreate(rec, req)
		return rec
	}

	rec := create(map[string]any{"title": "Engines", "topic": "technology"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var room models.Room
	if err := testutil.DecodeJSON(rec, &room); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if room.Admin != ada.ID || len(room.Contributors) != 1 || room.Topic != models.TopicTechnology {
		t.Errorf("unexpected room %+v", room)
	}

	u, err := h.Users.GetByID(ctx, ada.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !u.InRoom(room.ID) {
		t.Errorf("creator rooms = %v, want %s", u.Rooms, room.ID.Hex())
	}
	n, err := h.Activities.CountByRoom(ctx, room.ID, models.ActivityCreateRoom)
	if err != nil || n != 1 {
		t.Errorf("createRoom activities = %d (%v), want 1", n, err)
	}

	tests := []struct {
		name string
		body map[string]any
	}{
		{"duplicate title", map[string]any{"title": "Engines"}},
		{"missing title", map[string]any{"description": "x"}},
		{"bad topic", map[string]any{"title": "Other", "topic": "Cooking"}},
		{"bad type", map[string]any{"title": "Other", "type": "secret"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := create(tt.body); rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestServeRecent(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ada := fx.CreateUser(ctx, "Ada", "ada@example.com")
	for _, title := range []string{"One", "Two", "Three", "Four"} {
		fx.CreateRoom(ctx, title, ada.ID)
	}

	rec := httptest.NewRecorder()
	h.ServeRecent(rec, testutil.NewRequest(http.MethodGet, "/room/recent"))
	var got []models.Room
	if err := testutil.DecodeJSON(rec, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
}

func TestServeFilter(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ada := fx.CreateUser(ctx, "Ada", "ada@example.com")
	fx.CreateRoom(ctx, "General chat", ada.ID)

	rec := httptest.NewRecorder()
	h.ServeFilter(rec, testutil.NewRequest(http.MethodGet, "/room/filter?topic=general"))
	var got []models.Room
	if err := testutil.DecodeJSON(rec, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("general rooms = %d, want 1", len(got))
	}

	rec = httptest.NewRecorder()
	h.ServeFilter(rec, testutil.NewRequest(http.MethodGet, "/room/filter?topic=Cooking"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown topic status = %d, want 400", rec.Code)
	}
}

func TestHandleDelete_AdminOnly(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ada := fx.CreateUser(ctx, "Ada", "ada@example.com")
	bob := fx.CreateUser(ctx, "Bob", "bob@example.com")
	room := fx.CreateRoom(ctx, "Engines", ada.ID)
	fx.CreateNotification(ctx, models.NotifyInvitation, bob.ID, ada.ID, &room.ID)

	if rec := call(h.HandleDelete, http.MethodDelete, &bob, room.ID, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin status = %d, want 403", rec.Code)
	}
	if rec := call(h.HandleDelete, http.MethodDelete, &ada, room.ID, nil); rec.Code != http.StatusOK {
		t.Fatalf("admin status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if rec := call(h.ServeRoom, http.MethodGet, nil, room.ID, nil); rec.Code != http.StatusNotFound {
		t.Errorf("deleted room status = %d, want 404", rec.Code)
	}

	u, err := h.Users.GetByID(ctx, ada.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if u.InRoom(room.ID) {
		t.Errorf("admin still lists deleted room")
	}
	n, err := h.Notifications.CountUnread(ctx, bob.ID)
	if err != nil || n != 0 {
		t.Errorf("unread notifications = %d (%v), want 0", n, err)
	}
}

func TestHandleJoin_Toggles(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ada := fx.CreateUser(ctx, "Ada", "ada@example.com")
	bob := fx.CreateUser(ctx, "Bob", "bob@example.com")
	room := fx.CreateRoom(ctx, "Engines", ada.ID)

	var contributors []primitive.ObjectID
	rec := call(h.HandleJoin, http.MethodPost, &bob, room.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("join status = %d: %s", rec.Code, rec.Body.String())
	}
	if err := testutil.DecodeJSON(rec, &contributors); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(contributors) != 2 {
		t.Fatalf("contributors after join = %v", contributors)
	}

	rec = call(h.HandleJoin, http.MethodPost, &bob, room.ID, nil)
	if err := testutil.DecodeJSON(rec, &contributors); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(contributors) != 1 || contributors[0] != ada.ID {
		t.Fatalf("contributors after leave = %v", contributors)
	}

	if rec := call(h.HandleJoin, http.MethodPost, &bob, primitive.NewObjectID(), nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing room status = %d, want 404", rec.Code)
	}
}

func TestHandleMessage_Sanitizes(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ada := fx.CreateUser(ctx, "Ada", "ada@example.com")
	room := fx.CreateRoom(ctx, "Engines", ada.ID)

	rec := call(h.HandleMessage, http.MethodPost, &ada, room.ID, map[string]string{"body": `hi <script>alert(1)</script><b>there</b>`})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var m models.Message
	if err := testutil.DecodeJSON(rec, &m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if strings.Contains(m.Body, "script") {
		t.Errorf("body not sanitized: %q", m.Body)
	}

	if rec := call(h.HandleMessage, http.MethodPost, &ada, room.ID, map[string]string{"body": "  "}); rec.Code != http.StatusBadRequest {
		t.Errorf("empty body status = %d, want 400", rec.Code)
	}

	rec = call(h.ServeMessages, http.MethodGet, nil, room.ID, nil)
	var views []rooms.MessageView
	if err := testutil.DecodeJSON(rec, &views); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(views) != 1 || views[0].Sender.Name != "Ada" {
		t.Errorf("messages = %+v", views)
	}
}

func TestLinks(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ada := fx.CreateUser(ctx, "Ada", "ada@example.com")
	room := fx.CreateRoom(ctx, "Engines", ada.ID)

	if rec := call(h.HandleCreateLink, http.MethodPost, &ada, room.ID, map[string]string{"name": "docs", "link": "http://example.com"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("http link status = %d, want 400", rec.Code)
	}

	rec := call(h.HandleCreateLink, http.MethodPost, &ada, room.ID, map[string]string{"name": "docs", "link": "https://example.com/docs"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var l models.Link
	if err := testutil.DecodeJSON(rec, &l); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if rec := call(h.HandleDeleteLink, http.MethodDelete, &ada, room.ID, map[string]string{"linkId": l.ID.Hex()}); rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d: %s", rec.Code, rec.Body.String())
	}
	if rec := call(h.HandleDeleteLink, http.MethodDelete, &ada, room.ID, map[string]string{"linkId": l.ID.Hex()}); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}

	for title, want := range map[models.ActivityTitle]int64{
		models.ActivityCreateLink: 1,
		models.ActivityDeleteLink: 1,
	} {
		if n, err := h.Activities.CountByRoom(ctx, room.ID, title); err != nil || n != want {
			t.Errorf("%s activities = %d (%v), want %d", title, n, err, want)
		}
	}
}

func TestTasks(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ada := fx.CreateUser(ctx, "Ada", "ada@example.com")
	room := fx.CreateRoom(ctx, "Engines", ada.ID)

	rec := call(h.HandleCreateTask, http.MethodPost, &ada, room.ID, map[string]string{"title": "Build", "assignedTo": primitive.NewObjectID().Hex()})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown assignee status = %d, want 404", rec.Code)
	}

	rec = call(h.HandleCreateTask, http.MethodPost, &ada, room.ID, map[string]string{"title": "Build", "assignedTo": ada.ID.Hex()})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var task models.Task
	if err := testutil.DecodeJSON(rec, &task); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if task.Status != models.TaskNotStarted {
		t.Errorf("status = %q, want default", task.Status)
	}

	rec = call(h.HandleTaskStatus, http.MethodPatch, &ada, room.ID, map[string]string{"taskId": task.ID.Hex(), "status": "finished"})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d: %s", rec.Code, rec.Body.String())
	}
	if err := testutil.DecodeJSON(rec, &task); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if task.Status != models.TaskFinished {
		t.Errorf("status = %q, want finished", task.Status)
	}

	rec = call(h.HandleTaskStatus, http.MethodPatch, &ada, room.ID, map[string]string{"taskId": primitive.NewObjectID().Hex(), "status": "finished"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing task status = %d, want 404", rec.Code)
	}
	rec = call(h.HandleTaskStatus, http.MethodPatch, &ada, room.ID, map[string]string{"taskId": task.ID.Hex(), "status": "done"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad status = %d, want 400", rec.Code)
	}
}

func TestHandleUpload(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ada := fx.CreateUser(ctx, "Ada", "ada@example.com")
	room := fx.CreateRoom(ctx, "Engines", ada.ID)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "notes.txt")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	fw.Write([]byte("analytical engine"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/room/"+room.ID.Hex()+"/file", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req = testutil.WithChiURLParam(testutil.WithUser(req, ada), "id", room.ID.Hex())
	rec := httptest.NewRecorder()
	h.HandleUpload(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var f models.File
	if err := testutil.DecodeJSON(rec, &f); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(f.Link, "/files/rooms/"+room.ID.Hex()+"/") || !strings.HasSuffix(f.Link, "-notes.txt") {
		t.Errorf("link = %q", f.Link)
	}
	if n, err := h.Activities.CountByRoom(ctx, room.ID, models.ActivityUploadFile); err != nil || n != 1 {
		t.Errorf("uploadFile activities = %d (%v), want 1", n, err)
	}
}
