package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"skillsprint/config"
	"skillsprint/database"
	"skillsprint/middleware"
	"skillsprint/models"
	"skillsprint/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const testServiceToken = "svc-token"

type testServer struct {
	app  *fiber.App
	db   *gorm.DB
	auth *services.AuthService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := database.Open(config.Config{DBDriver: "sqlite", DatabaseURL: ":memory:"})
	if err != nil {
		t.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatal(err)
	}
	if err := database.SeedBadges(db); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	auth := services.NewAuthService(db, "test-secret", time.Hour)
	app := fiber.New()
	app.Use(middleware.Authenticate(auth, testServiceToken))
	SetupUserRoutes(app, UserServices{
		Auth:        auth,
		Progression: services.NewProgressionService(db),
		Streaks:     services.NewStreakService(db),
		Badges:      services.NewBadgeService(db),
	})
	SetupBattleRoutes(app, services.NewBattleService(db, services.TieBreakFirstSubmission))
	SetupNotificationRoutes(app, services.NewNotificationService(db), auth, testServiceToken)
	SetupHealthRoutes(app, db)
	return &testServer{app: app, db: db, auth: auth}
}

// do sends a JSON request and decodes the JSON response.
func (s *testServer) do(t *testing.T, method, target, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	defer resp.Body.Close()
	out := map[string]interface{}{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("%s %s: decode: %v", method, target, err)
	}
	return resp.StatusCode, out
}

func (s *testServer) register(t *testing.T, name string) (id, token string) {
	t.Helper()
	status, body := s.do(t, http.MethodPost, "/api/users?action=register", "", fiber.Map{
		"username": name, "email": name + "@example.com", "password": "secret123",
	})
	if status != http.StatusCreated {
		t.Fatalf("register %s: %d %v", name, status, body)
	}
	return body["user_id"].(string), body["token"].(string)
}

func TestBattleFlowOverHTTP(t *testing.T) {
	s := newTestServer(t)
	_, tok1 := s.register(t, "ada")
	p2, tok2 := s.register(t, "grace")
	ch := models.Challenge{Title: "Two Sum", XPReward: 100, TestCases: []byte("[]")}
	if err := s.db.Create(&ch).Error; err != nil {
		t.Fatal(err)
	}

	status, body := s.do(t, http.MethodPost, "/api/battles?action=create", tok1, fiber.Map{"challenge_id": ch.ID})
	if status != http.StatusCreated {
		t.Fatalf("create: %d %v", status, body)
	}
	battleID := body["battle_id"].(string)

	// A user cannot act for someone else.
	status, body = s.do(t, http.MethodPost, "/api/battles?action=join", tok1, fiber.Map{"battle_id": battleID, "player2_id": p2})
	if status != http.StatusForbidden || body["error"] != "forbidden" {
		t.Errorf("join as other user: %d %v", status, body)
	}

	status, body = s.do(t, http.MethodPost, "/api/battles?action=join", tok2, fiber.Map{"battle_id": battleID})
	if status != http.StatusOK {
		t.Fatalf("join: %d %v", status, body)
	}
	status, body = s.do(t, http.MethodPost, "/api/battles?action=join", tok2, fiber.Map{"battle_id": battleID})
	if status != http.StatusConflict || body["error"] != "already_full" {
		t.Errorf("second join: %d %v", status, body)
	}

	status, body = s.do(t, http.MethodPost, "/api/battles?action=submit", tok1, fiber.Map{"battle_id": battleID, "time_taken": 42})
	if status != http.StatusOK || body["winner_id"] != nil {
		t.Fatalf("first submit: %d %v", status, body)
	}
	status, body = s.do(t, http.MethodPost, "/api/battles?action=submit", tok2, fiber.Map{"battle_id": battleID, "time_taken": 40})
	if status != http.StatusOK || body["winner_id"] != p2 || body["xp_reward"] != float64(150) {
		t.Fatalf("second submit: %d %v", status, body)
	}

	status, body = s.do(t, http.MethodGet, "/api/battles?action=get&id="+battleID, "", nil)
	battle, _ := body["battle"].(map[string]interface{})
	if status != http.StatusOK || battle["status"] != "completed" || battle["winner_id"] != p2 {
		t.Errorf("get: %d %v", status, body)
	}

	status, body = s.do(t, http.MethodGet, "/api/users?action=profile", tok2, nil)
	user, _ := body["user"].(map[string]interface{})
	if status != http.StatusOK || user["level"] != float64(2) || user["current_xp"] != float64(50) {
		t.Errorf("winner profile: %d %v", status, body)
	}
	// Another caller gets the public view without the email.
	_, body = s.do(t, http.MethodGet, "/api/users?action=profile&user_id="+p2, tok1, nil)
	user, _ = body["user"].(map[string]interface{})
	if _, ok := user["email"]; ok {
		t.Errorf("public profile leaked email: %v", user)
	}
}

func TestUpdateXPRequiresService(t *testing.T) {
	s := newTestServer(t)
	id, tok := s.register(t, "linus")
	req := fiber.Map{"user_id": id, "xp_gained": 200, "source": "manual"}

	status, body := s.do(t, http.MethodPost, "/api/users?action=update_xp", tok, req)
	if status != http.StatusForbidden {
		t.Errorf("user token: %d %v", status, body)
	}
	status, _ = s.do(t, http.MethodPost, "/api/users?action=update_xp", "", req)
	if status != http.StatusUnauthorized {
		t.Errorf("anonymous: %d", status)
	}

	status, body = s.do(t, http.MethodPost, "/api/users?action=update_xp", testServiceToken, req)
	if status != http.StatusOK {
		t.Fatalf("service token: %d %v", status, body)
	}
	if body["new_level"] != float64(2) || body["level_up"] != true || body["current_xp"] != float64(100) {
		t.Errorf("grant = %v", body)
	}

	req["xp_gained"] = -5
	status, body = s.do(t, http.MethodPost, "/api/users?action=update_xp", testServiceToken, req)
	if status != http.StatusBadRequest || body["error"] != "invalid_amount" {
		t.Errorf("negative xp: %d %v", status, body)
	}
}

func TestErrorResponses(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name, method, target, token string
		status                      int
		code                        string
	}{
		{"unknown action", http.MethodPost, "/api/battles?action=explode", "", http.StatusBadRequest, "Invalid action"},
		{"missing action", http.MethodGet, "/api/users", "", http.StatusBadRequest, "Invalid action"},
		{"unknown battle", http.MethodGet, "/api/battles?action=get&id=nope", "", http.StatusNotFound, "battle_not_found"},
		{"bad token", http.MethodGet, "/api/battles?action=available", "garbage", http.StatusUnauthorized, "unauthorized"},
		{"anonymous list", http.MethodGet, "/api/notifications", "", http.StatusUnauthorized, "unauthorized"},
		{"stream without token", http.MethodGet, "/api/notifications/stream", "", http.StatusBadRequest, "missing_fields"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := s.do(t, tt.method, tt.target, tt.token, nil)
			if status != tt.status || body["error"] != tt.code || body["success"] != false {
				t.Errorf("got %d %v, want %d %s", status, body, tt.status, tt.code)
			}
		})
	}
}

func TestNotificationsOverHTTP(t *testing.T) {
	s := newTestServer(t)
	id, tok := s.register(t, "margaret")

	status, body := s.do(t, http.MethodPost, "/api/notifications", tok, fiber.Map{"user_id": id, "message": "hello"})
	if status != http.StatusForbidden {
		t.Errorf("user creating notification: %d %v", status, body)
	}
	status, body = s.do(t, http.MethodPost, "/api/notifications", testServiceToken, fiber.Map{"user_id": id, "message": "hello"})
	if status != http.StatusCreated {
		t.Fatalf("create: %d %v", status, body)
	}
	nid := body["notification"].(map[string]interface{})["id"].(string)

	status, _ = s.do(t, http.MethodPost, "/api/notifications/"+nid+"/read", tok, nil)
	if status != http.StatusOK {
		t.Errorf("mark read: %d", status)
	}
	status, body = s.do(t, http.MethodGet, "/api/notifications?unread=true", tok, nil)
	if list, _ := body["notifications"].([]interface{}); status != http.StatusOK || len(list) != 0 {
		t.Errorf("unread after read: %d %v", status, body)
	}
}

func TestStatusFor(t *testing.T) {
	tests := map[string]int{
		"battle_not_found":  http.StatusNotFound,
		"user_not_found":    http.StatusNotFound,
		"already_submitted": http.StatusConflict,
		"storage_failure":   http.StatusServiceUnavailable,
		"something_else":    http.StatusInternalServerError,
	}
	for code, want := range tests {
		if got := statusFor(code); got != want {
			t.Errorf("statusFor(%s) = %d, want %d", code, got, want)
		}
	}
}
