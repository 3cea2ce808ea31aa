package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"solar_planner/internal/repository"
	"solar_planner/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) (*gin.Engine, *service.Service, *repository.MemoryStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	svc := service.NewService(context.Background(), store, nil, clockwork.NewFakeClock(), 500*time.Millisecond)
	return NewRouter(svc), svc, store
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
}

type sessionBody struct {
	Project struct {
		ID          string `json:"id"`
		ProjectName string `json:"projectName"`
		ClientName  string `json:"clientName"`
		Appliances  []struct {
			ID string `json:"id"`
		} `json:"appliances"`
	} `json:"project"`
	Metrics struct {
		DailyEnergyWh  float64 `json:"dailyEnergyWh"`
		NumberOfPanels float64 `json:"numberOfPanels"`
	} `json:"metrics"`
	Step  string `json:"step"`
	IsNew bool   `json:"isNew"`
}

func TestCatalogAndDerive(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/catalog", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("catalog status = %d", w.Code)
	}

	record := map[string]interface{}{
		"calcMethod":       "bill",
		"dailyEnergyKwh":   10,
		"peakSunHours":     5,
		"systemEfficiency": 80,
		"panelWattage":     450,
	}
	w = doJSON(t, r, http.MethodPost, "/api/derive", record)
	if w.Code != http.StatusOK {
		t.Fatalf("derive status = %d: %s", w.Code, w.Body.String())
	}
	var body sessionBody
	decode(t, w, &body)
	if body.Metrics.NumberOfPanels != 6 {
		t.Errorf("numberOfPanels = %v, want 6", body.Metrics.NumberOfPanels)
	}

	w = doJSON(t, r, http.MethodPost, "/api/derive", "not a record")
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad body status = %d", w.Code)
	}
}

func TestValidateEndpoint(t *testing.T) {
	r, _, _ := newTestRouter(t)
	record := map[string]interface{}{"calcMethod": "bill", "dailyEnergyKwh": 0}

	tests := []struct {
		query      string
		wantStatus int
		wantValid  bool
		wantBlock  bool
	}{
		{"?step=EnergyConsumption&new=true", http.StatusOK, false, true},
		{"?step=EnergyConsumption&new=false", http.StatusOK, false, false},
		{"?step=summary", http.StatusOK, true, false},
		{"?step=Checkout", http.StatusBadRequest, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/api/validate"+tt.query, record)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d: %s", w.Code, w.Body.String())
			}
			if w.Code != http.StatusOK {
				return
			}
			var res struct {
				Valid    bool `json:"valid"`
				Blocking bool `json:"blocking"`
			}
			decode(t, w, &res)
			if res.Valid != tt.wantValid || res.Blocking != tt.wantBlock {
				t.Errorf("result = %+v", res)
			}
		})
	}
}

func TestProjectLifecycle(t *testing.T) {
	r, _, store := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/projects", map[string]string{"name": "Clinic"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", w.Code, w.Body.String())
	}
	var created sessionBody
	decode(t, w, &created)
	id := created.Project.ID
	if !created.IsNew || created.Step != "ProjectDetails" || created.Project.ProjectName != "Clinic" {
		t.Errorf("created = %+v", created)
	}

	w = doJSON(t, r, http.MethodPut, "/api/projects/"+id+"/name", map[string]string{"name": "Health Post"})
	if w.Code != http.StatusOK {
		t.Fatalf("rename status = %d", w.Code)
	}
	if store.Saves() != 2 {
		t.Errorf("rename did not write through: saves = %d", store.Saves())
	}

	w = doJSON(t, r, http.MethodPut, "/api/projects/"+id+"/name", map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing name status = %d", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/projects", nil)
	var list struct {
		Count int `json:"count"`
	}
	decode(t, w, &list)
	if list.Count != 1 {
		t.Errorf("count = %d", list.Count)
	}

	if w = doJSON(t, r, http.MethodGet, "/api/projects/"+id, nil); w.Code != http.StatusOK {
		t.Errorf("get status = %d", w.Code)
	}
	if w = doJSON(t, r, http.MethodGet, "/api/projects/nope", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing project status = %d", w.Code)
	}

	// two-phase delete
	if w = doJSON(t, r, http.MethodPost, "/api/projects/"+id+"/delete", nil); w.Code != http.StatusAccepted {
		t.Fatalf("request delete status = %d", w.Code)
	}
	if w = doJSON(t, r, http.MethodPost, "/api/delete/cancel", nil); w.Code != http.StatusOK {
		t.Fatalf("cancel status = %d", w.Code)
	}
	if w = doJSON(t, r, http.MethodPost, "/api/delete/confirm", nil); w.Code != http.StatusBadRequest {
		t.Errorf("confirm without request status = %d", w.Code)
	}
	doJSON(t, r, http.MethodPost, "/api/projects/"+id+"/delete", nil)
	if w = doJSON(t, r, http.MethodPost, "/api/delete/confirm", nil); w.Code != http.StatusOK {
		t.Fatalf("confirm status = %d", w.Code)
	}
	if w = doJSON(t, r, http.MethodGet, "/api/session", nil); w.Code != http.StatusNotFound {
		t.Errorf("session after delete status = %d", w.Code)
	}
}

func TestSessionWizardFlow(t *testing.T) {
	r, _, _ := newTestRouter(t)
	doJSON(t, r, http.MethodPost, "/api/projects", nil)

	w := doJSON(t, r, http.MethodPost, "/api/session/step/EnergyConsumption", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("jump status = %d", w.Code)
	}

	// no appliances yet: a new project is blocked
	w = doJSON(t, r, http.MethodPost, "/api/session/next", nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("blocked next status = %d: %s", w.Code, w.Body.String())
	}
	var blocked struct {
		Error   string      `json:"error"`
		Session sessionBody `json:"session"`
	}
	decode(t, w, &blocked)
	if blocked.Error == "" || blocked.Session.Step != "EnergyConsumption" {
		t.Errorf("blocked body = %+v", blocked)
	}

	w = doJSON(t, r, http.MethodPost, "/api/session/appliances", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("add appliance status = %d", w.Code)
	}
	var added sessionBody
	decode(t, w, &added)
	applianceID := added.Project.Appliances[0].ID

	w = doJSON(t, r, http.MethodPatch, "/api/session/appliances/"+applianceID, map[string]interface{}{
		"updates": []map[string]string{
			{"field": "wattage", "value": "100"},
			{"field": "hours", "value": "10"},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update appliance status = %d: %s", w.Code, w.Body.String())
	}
	var updated sessionBody
	decode(t, w, &updated)
	if updated.Metrics.DailyEnergyWh != 1000 {
		t.Errorf("dailyEnergyWh = %v", updated.Metrics.DailyEnergyWh)
	}

	if w = doJSON(t, r, http.MethodPost, "/api/session/next", nil); w.Code != http.StatusOK {
		t.Fatalf("next status = %d: %s", w.Code, w.Body.String())
	}
	if w = doJSON(t, r, http.MethodPost, "/api/session/back", nil); w.Code != http.StatusOK {
		t.Fatalf("back status = %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPatch, "/api/session/fields", map[string]interface{}{
		"updates": []map[string]string{{"field": "colour", "value": "red"}},
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown field status = %d", w.Code)
	}
	w = doJSON(t, r, http.MethodPatch, "/api/session/fields", map[string]interface{}{"updates": []string{}})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty updates status = %d", w.Code)
	}

	if w = doJSON(t, r, http.MethodDelete, "/api/session/appliances/missing", nil); w.Code != http.StatusNotFound {
		t.Errorf("remove missing appliance status = %d", w.Code)
	}
	if w = doJSON(t, r, http.MethodPost, "/api/session/step/Nowhere", nil); w.Code != http.StatusBadRequest {
		t.Errorf("unknown step status = %d", w.Code)
	}

	if w = doJSON(t, r, http.MethodDelete, "/api/session", nil); w.Code != http.StatusOK {
		t.Fatalf("close status = %d", w.Code)
	}
	if w = doJSON(t, r, http.MethodGet, "/api/session", nil); w.Code != http.StatusNotFound {
		t.Errorf("session after close status = %d", w.Code)
	}
}

func TestStatsAndCORS(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats status = %d", w.Code)
	}
	var stats struct {
		Store string `json:"store"`
	}
	decode(t, w, &stats)
	if stats.Store != "memory" {
		t.Errorf("store = %q", stats.Store)
	}

	req := httptest.NewRequest(http.MethodOptions, "/api/projects", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent || w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("preflight = %d, headers %v", w.Code, w.Header())
	}
}
