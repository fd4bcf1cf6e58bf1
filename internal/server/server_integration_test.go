package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/biometric"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/capture"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/detector"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/enroll"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/session"
	"github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/store"
)

// scriptedController walks a session through the palm stage and publishes
// each report to its sinks.
type scriptedController struct {
	mu    sync.Mutex
	sess  *session.Session
	sinks []func(session.Report)
}

func (c *scriptedController) Report() session.Report { return c.sess.Report() }

func (c *scriptedController) Live() capture.Live { return capture.Live{} }

func (c *scriptedController) Capture(ctx context.Context) (enroll.Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	q := session.Quality{Brightness: 120, Light: "Normal", BlurScore: 300}
	if c.sess.State() == session.AwaitingPalm {
		palm := detector.PalmLandmarks()
		template, err := biometric.Enroll(&palm)
		if err != nil {
			return enroll.Outcome{}, err
		}
		if err := c.sess.Enroll(c.sess.ID(), template, q); err != nil {
			return enroll.Outcome{}, err
		}
	} else if err := c.sess.Advance(c.sess.ID(), c.sess.State(), q); err != nil {
		return enroll.Outcome{}, err
	}
	report := c.sess.Report()
	for _, sink := range c.sinks {
		sink(report)
	}
	return enroll.Outcome{Stage: "Thumb", Accepted: true, Report: report}, nil
}

func (c *scriptedController) Reset() session.Report {
	c.sess.Reset()
	report := c.sess.Report()
	for _, sink := range c.sinks {
		sink(report)
	}
	return report
}

func TestAPI_SessionWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer st.Close()

	hub := NewReportHub()
	controller := &scriptedController{sess: session.New("device-1")}
	controller.sinks = append(controller.sinks, hub.Publish, st.Sessions().Publish)

	srv := New(Config{Store: st, Hub: hub, Controller: controller, CaptureRate: 100, CaptureBurst: 10})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()
	ws := dialHub(t, ts)
	waitClients(t, hub, 1)

	// 1. Capture advances the session and fans out the report
	resp, err := client.Post(ts.URL+"/api/session/capture", "application/json", nil)
	if err != nil {
		t.Fatalf("POST capture error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST capture status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	pushed := readReport(t, ws)
	if pushed.Report.Step != 1 || pushed.Report.DeviceID != "device-1" {
		t.Errorf("pushed report = %+v", pushed.Report)
	}
	firstID := pushed.Report.SessionID

	// 2. History shows the recorded session
	resp, _ = client.Get(ts.URL + "/api/sessions/" + firstID)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET session status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var stored store.Session
	json.NewDecoder(resp.Body).Decode(&stored)
	resp.Body.Close()
	if stored.State != "AwaitingFinger(0)" || stored.DeviceID != "device-1" {
		t.Errorf("stored session = %+v", stored)
	}

	// 3. Reset starts a new session
	resp, _ = client.Post(ts.URL+"/api/session/reset", "application/json", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST reset status = %d", resp.StatusCode)
	}
	if reset := readReport(t, ws); reset.Report.SessionID == firstID || reset.Report.Step != 0 {
		t.Errorf("reset report = %+v", reset.Report)
	}

	resp, _ = client.Get(ts.URL + "/api/sessions")
	var listed struct {
		Sessions []store.Session `json:"sessions"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()
	if len(listed.Sessions) != 2 {
		t.Errorf("len(sessions) = %d, want 2", len(listed.Sessions))
	}
}

func TestAPI_HealthCheck(t *testing.T) {
	srv := New(Config{Hub: NewReportHub()})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var health struct {
		Status    string `json:"status"`
		Uptime    string `json:"uptime"`
		Listeners int    `json:"listeners"`
	}
	json.NewDecoder(resp.Body).Decode(&health)

	if health.Status != "ok" || health.Listeners != 0 {
		t.Errorf("health = %+v", health)
	}
}
