package relayclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/klytics/sheetsense/internal/agent"
	"github.com/klytics/sheetsense/internal/ai"
	"github.com/klytics/sheetsense/internal/command"
	"github.com/klytics/sheetsense/internal/config"
	"github.com/klytics/sheetsense/internal/interpret"
	"github.com/klytics/sheetsense/internal/server"
	"github.com/klytics/sheetsense/internal/sheets"
	"github.com/klytics/sheetsense/internal/sheets/workbook"
)

type fixedProvider string

func (p fixedProvider) Name() string { return "fixed" }

func (p fixedProvider) Infer(context.Context, string, []ai.Message, ai.InferOptions) (*ai.InferResult, error) {
	return &ai.InferResult{Content: string(p)}, nil
}

func startRelay(t *testing.T, client sheets.Client, reply string) *httptest.Server {
	t.Helper()
	if client == nil {
		path := filepath.Join(t.TempDir(), "book.xlsx")
		if err := workbook.Create(path, workbook.Tab{Name: "Data", Rows: [][]string{{"a", "b"}, {"c", "d"}}}); err != nil {
			t.Fatal(err)
		}
		wb, err := workbook.Open(path)
		if err != nil {
			t.Fatal(err)
		}
		client = wb
	}
	a := agent.New(agent.Options{
		Client:      client,
		Interpreter: interpret.New(fixedProvider(reply), "", nil),
		Version:     "0.9.0",
	})
	srv := httptest.NewServer(server.New(a, config.ServerConfig{}, nil).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestExecuteSyncAndStream(t *testing.T) {
	srv := startRelay(t, nil, `{"operation":"read_range","params":{"range":"A1:B2"}}`)
	c := New(srv.URL, 5*time.Second)

	direct := c.Execute(context.Background(), "show A1:B2", nil)
	if !direct.Success || direct.Operation != "read_range" {
		t.Fatalf("direct = %+v", direct)
	}

	var stages []agent.Stage
	streamed := c.Execute(context.Background(), "show A1:B2", func(s agent.Stage) { stages = append(stages, s) })
	if !reflect.DeepEqual(direct, streamed) {
		t.Errorf("streamed %+v != direct %+v", streamed, direct)
	}
	want := []agent.Stage{agent.StageInterpreting, agent.StageExecuting, agent.StageDone}
	if !reflect.DeepEqual(stages, want) {
		t.Errorf("stages = %v", stages)
	}

	result, ok := direct.Result.(map[string]any)
	if !ok || result["rows"] != float64(2) {
		t.Errorf("result = %#v", direct.Result)
	}
}

func TestExecuteCommandFailure(t *testing.T) {
	srv := startRelay(t, nil, `{"error":"that is not a spreadsheet request"}`)
	c := New(srv.URL, 5*time.Second)
	for _, onStage := range []func(agent.Stage){nil, func(agent.Stage) {}} {
		env := c.Execute(context.Background(), "what's the weather", onStage)
		if env.Success || env.Kind != command.KindInterpretation {
			t.Errorf("envelope = %+v", env)
		}
	}
}

func TestExecuteEmptyCommand(t *testing.T) {
	srv := startRelay(t, nil, `{}`)
	c := New(srv.URL, 5*time.Second)
	for _, onStage := range []func(agent.Stage){nil, func(agent.Stage) {}} {
		env := c.Execute(context.Background(), " ", onStage)
		if env.Success || env.Kind != command.KindValidation {
			t.Errorf("envelope = %+v", env)
		}
	}
}

func TestExecuteUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, time.Second)
	for _, onStage := range []func(agent.Stage){nil, func(agent.Stage) {}} {
		env := c.Execute(context.Background(), "list sheets", onStage)
		if env.Success || env.Kind != command.KindConnectivity {
			t.Errorf("envelope = %+v", env)
		}
	}

	_, err := c.Health(context.Background())
	var cmdErr *command.Error
	if !errors.As(err, &cmdErr) || cmdErr.Kind != command.KindConnectivity {
		t.Errorf("health error = %v", err)
	}
}

func TestExecuteNonRelayServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	env := New(srv.URL, time.Second).Execute(context.Background(), "list sheets", nil)
	if env.Success || env.Kind != command.KindConnectivity {
		t.Errorf("envelope = %+v", env)
	}
}

func TestHealthSheetsInfo(t *testing.T) {
	srv := startRelay(t, nil, `{}`)
	c := New(srv.URL, 5*time.Second)
	ctx := context.Background()

	h, err := c.Health(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if h.Status != "ok" || !h.AgentReady || h.AvailableSheets != 1 {
		t.Errorf("health = %+v", h)
	}

	tabs, err := c.Sheets(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(tabs, []string{"Data"}) {
		t.Errorf("sheets = %v", tabs)
	}

	info, err := c.Info(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if info.Version != "0.9.0" || len(info.SupportedOperations) != 5 {
		t.Errorf("info = %+v", info)
	}
}

func TestSheetsUpstreamFailure(t *testing.T) {
	srv := startRelay(t, sheets.Unavailable(errors.New("permission denied")), `{}`)
	c := New(srv.URL, 5*time.Second)

	if _, err := c.Sheets(context.Background()); err == nil {
		t.Error("expected error from 502 sheets response")
	}
	h, err := c.Health(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if h.Status != "error" || h.AgentReady {
		t.Errorf("health = %+v", h)
	}
}
