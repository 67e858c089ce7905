package cmd

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/fx"

	"eventgate/internal/domain/event"
	"eventgate/internal/ports"
	"eventgate/internal/usecase/engagement"
)

func TestParseTimeFlag(t *testing.T) {
	got, err := parseTimeFlag("start", "2026-07-01")
	if err != nil || !got.Equal(time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("parseTimeFlag(date) = %v, %v", got, err)
	}

	got, err = parseTimeFlag("start", "2026-07-01T10:00:00+02:00")
	if err != nil || !got.Equal(time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC)) || got.Location() != time.UTC {
		t.Fatalf("parseTimeFlag(rfc3339) = %v, %v", got, err)
	}

	got, err = parseTimeFlag("start", " ")
	if err != nil || !got.IsZero() {
		t.Fatalf("parseTimeFlag(blank) = %v, %v", got, err)
	}

	if _, err := parseTimeFlag("end", "tomorrow"); err == nil || !strings.Contains(err.Error(), "--end") {
		t.Fatalf("parseTimeFlag(invalid) error = %v", err)
	}
}

func TestRenderStatistics(t *testing.T) {
	out := renderStatistics(engagement.StatisticsPayload{
		EventID: 9,
		Role:    event.RoleOwner,
		Stored: []ports.Statistic{
			{StatID: 1, SummaryType: "attendance", PublicViewable: true},
			{StatID: 2, SummaryType: "budget", PublicViewable: false},
		},
		Computed: engagement.ComputedStatistics{ParticipantCount: 4, SubmissionCount: 1, SubmissionRate: 25},
	})

	for _, want := range []string{"Event 9 statistics", "role=owner", "Participants: 4", "Submission rate: 25.00%", "1 attendance", "2 budget (private)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("rendered statistics missing %q:\n%s", want, out)
		}
	}
}

func TestRenderStatisticsWithoutStoredRows(t *testing.T) {
	out := renderStatistics(engagement.StatisticsPayload{EventID: 3, Role: event.RoleOther})
	if !strings.Contains(out, "none visible") {
		t.Fatalf("rendered statistics = %q", out)
	}
}

func TestCommandTreeRegistersEngineCommands(t *testing.T) {
	for _, path := range [][]string{
		{"init-db"}, {"serve"}, {"user", "create"}, {"event", "import"}, {"event", "export"},
		{"criteria", "add"}, {"input", "add"}, {"stat", "add"}, {"join"}, {"eligibility"},
		{"submit"}, {"stats"}, {"remind"}, {"remind", "list"},
	} {
		found, _, err := rootCmd.Find(path)
		if err != nil || found == rootCmd {
			t.Fatalf("command %v not registered: %v", path, err)
		}
	}
}

func TestAppOptionsBuildContainer(t *testing.T) {
	dir := t.TempDir()
	cfgFile = ""
	t.Setenv("EG_DATABASE_DSN", dir+"/engine.sqlite")
	t.Cleanup(func() { cfgFile = "" })

	var svc *engagement.Service
	container := fx.New(appOptions(context.Background(), fx.Populate(&svc))...)
	if err := container.Err(); err != nil {
		t.Fatalf("fx.New() error = %v", err)
	}
	if svc == nil {
		t.Fatalf("engine service was not populated")
	}
}
