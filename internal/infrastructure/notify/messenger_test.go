package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/sngm3741/bizsurvey-services/api/internal/public/domain"
	"github.com/sngm3741/bizsurvey-services/api/internal/questionnaire"
)

type gatewayCall struct {
	UserID      string `json:"userId"`
	Text        string `json:"text"`
	Destination string `json:"destination"`
}

type fakeGateway struct {
	mu     sync.Mutex
	calls  []gatewayCall
	failOn map[string]bool
}

func (g *fakeGateway) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var call gatewayCall
		if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
			t.Errorf("decode: %v", err)
		}
		g.mu.Lock()
		g.calls = append(g.calls, call)
		fail := g.failOn[call.Destination]
		g.mu.Unlock()
		if fail {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

func (g *fakeGateway) destinations() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, 0, len(g.calls))
	for _, c := range g.calls {
		out = append(out, c.Destination)
	}
	return out
}

type recordedFailure struct {
	target   string
	payload  map[string]any
	attempts int
}

type memoryFailures struct {
	records []recordedFailure
}

func (m *memoryFailures) Record(_ context.Context, target string, payload map[string]any, _ error, attempts int) error {
	m.records = append(m.records, recordedFailure{target: target, payload: payload, attempts: attempts})
	return nil
}

func submission() domain.Submission {
	return domain.Submission{
		ID:            "665f1c2e9b1e8a0012345678",
		ReferenceCode: "SRV-0A1B2C3D",
		Industry:      "construction",
		IndustryName:  "Construction",
		Profile:       questionnaire.Profile{CompanyName: "Acme Build", Email: "ops@acme.test", Region: "north"},
	}
}

func newTestMessenger(t *testing.T, gw *fakeGateway, failures FailureRecorder) *Messenger {
	srv := httptest.NewServer(gw.handler(t))
	t.Cleanup(srv.Close)
	return NewMessenger(Config{
		HTTPClient:         srv.Client(),
		Endpoint:           srv.URL + "/",
		DiscordDestination: "discord",
		SlackDestination:   "slack",
		AdminBaseURL:       "https://admin.example.com/surveys/",
		Failures:           failures,
		RetryDelay:         -1,
	})
}

func TestNotifySubmissionDiscordFirst(t *testing.T) {
	gw := &fakeGateway{}
	failures := &memoryFailures{}
	m := newTestMessenger(t, gw, failures)

	if err := m.NotifySubmission(context.Background(), submission()); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if diff := cmp.Diff([]string{"discord"}, gw.destinations()); diff != "" {
		t.Fatalf("destinations mismatch (-want +got):\n%s", diff)
	}
	text := gw.calls[0].Text
	for _, part := range []string{"Acme Build", "Construction", "SRV-0A1B2C3D", "https://admin.example.com/surveys/665f1c2e9b1e8a0012345678"} {
		if !strings.Contains(text, part) {
			t.Fatalf("message %q missing %q", text, part)
		}
	}
	if len(failures.records) != 0 {
		t.Fatalf("unexpected failure records %+v", failures.records)
	}
}

func TestNotifySubmissionFallsBackToSlack(t *testing.T) {
	gw := &fakeGateway{failOn: map[string]bool{"discord": true}}
	failures := &memoryFailures{}
	m := newTestMessenger(t, gw, failures)

	if err := m.NotifySubmission(context.Background(), submission()); err != nil {
		t.Fatalf("notify: %v", err)
	}
	want := []string{"discord", "discord", "discord", "slack"}
	if diff := cmp.Diff(want, gw.destinations()); diff != "" {
		t.Fatalf("destinations mismatch (-want +got):\n%s", diff)
	}
}

func TestNotifySubmissionRecordsTotalFailure(t *testing.T) {
	gw := &fakeGateway{failOn: map[string]bool{"discord": true, "slack": true}}
	failures := &memoryFailures{}
	m := newTestMessenger(t, gw, failures)

	if err := m.NotifySubmission(context.Background(), submission()); err == nil {
		t.Fatalf("expected error when every channel fails")
	}
	if len(failures.records) != 1 {
		t.Fatalf("expected one failure record, got %d", len(failures.records))
	}
	rec := failures.records[0]
	if rec.target != "admin_notification" || rec.attempts != 4 || rec.payload["referenceCode"] != "SRV-0A1B2C3D" {
		t.Fatalf("unexpected failure record %+v", rec)
	}
}

func TestNotifySubmissionWithoutDestinations(t *testing.T) {
	m := NewMessenger(Config{Endpoint: "http://127.0.0.1:1"})
	if err := m.NotifySubmission(context.Background(), submission()); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}
