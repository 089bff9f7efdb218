package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/zulandar/launchpad/internal/apperr"
	"github.com/zulandar/launchpad/internal/auth"
	"github.com/zulandar/launchpad/internal/db"
	"github.com/zulandar/launchpad/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	gdb, err := db.ConnectSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return New(gdb)
}

var testSession = &auth.Session{UserID: "user-1", Email: "pm@example.com"}

func intPtr(v int) *int { return &v }

func TestPage_Normalize(t *testing.T) {
	tests := []struct {
		in   Page
		want Page
	}{
		{Page{}, Page{Limit: DefaultPageSize}},
		{Page{Offset: -5, Limit: 10}, Page{Offset: 0, Limit: 10}},
		{Page{Limit: 1000}, Page{Limit: MaxPageSize}},
	}
	for _, tt := range tests {
		if got := tt.in.normalize(); got != tt.want {
			t.Errorf("normalize(%+v) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestTransitions(t *testing.T) {
	if !TaskTransitions.Allowed(models.TaskPending, models.TaskApproved) {
		t.Error("pending -> approved should be allowed")
	}
	if TaskTransitions.Allowed(models.TaskRejected, models.TaskPending) {
		t.Error("rejected is terminal")
	}
	if DocTransitions.Allowed(models.DocApproved, models.DocDraft) {
		t.Error("documents never move backward")
	}
	if !DocTransitions.Known(models.DocPublished) || DocTransitions.Known("deleted") {
		t.Error("Known mismatch")
	}
	got := DocTransitions.sources(models.DocApproved)
	want := []string{models.DocApproved, models.DocDraft, models.DocReview}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("sources(approved) = %v, want %v", got, want)
	}
}

func TestTasks_CreateAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 25; i++ {
		_, err := s.Tasks.Create(ctx, testSession, &models.TaskCandidate{
			Title:     fmt.Sprintf("task %02d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}

	page, err := s.Tasks.List(ctx, Page{}, TaskFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 25 || len(page.Items) != DefaultPageSize {
		t.Fatalf("total = %d, items = %d", page.Total, len(page.Items))
	}
	if page.Items[0].Title != "task 24" {
		t.Errorf("first = %q, want newest", page.Items[0].Title)
	}
	first := page.Items[0]
	if first.Status != models.TaskPending || first.Priority != models.PriorityMedium {
		t.Errorf("defaults = %q/%q", first.Status, first.Priority)
	}
	if first.CreatedBy != "user-1" || len(first.ID) != 36 {
		t.Errorf("created_by = %q, id = %q", first.CreatedBy, first.ID)
	}

	second, err := s.Tasks.List(ctx, Page{Offset: 20}, TaskFilter{})
	if err != nil {
		t.Fatalf("List page 2: %v", err)
	}
	if len(second.Items) != 5 || second.Items[4].Title != "task 00" {
		t.Errorf("page 2 = %d items", len(second.Items))
	}
}

func TestTasks_CreateValidation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		task models.TaskCandidate
	}{
		{"missing title", models.TaskCandidate{Title: "  "}},
		{"bad priority", models.TaskCandidate{Title: "x", Priority: "urgent"}},
		{"bad status", models.TaskCandidate{Title: "x", Status: "done"}},
		{"cost out of range", models.TaskCandidate{Title: "x", DevelopmentCost: intPtr(4)}},
		{"effect out of range", models.TaskCandidate{Title: "x", EffectScore: intPtr(0)}},
	}
	for _, tt := range tests {
		task := tt.task
		if _, err := s.Tasks.Create(ctx, testSession, &task); !apperr.Is(err, apperr.InvalidInput) {
			t.Errorf("%s: kind = %q, want invalid_input", tt.name, apperr.KindOf(err))
		}
	}
}

func TestTasks_CreateBatch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	src, err := s.Sources.Create(ctx, testSession, &models.FeedbackSource{Name: "VOC", SourceURL: "https://x"})
	if err != nil {
		t.Fatalf("Create source: %v", err)
	}
	created, err := s.Tasks.CreateBatch(ctx, testSession, src.ID, []models.TaskCandidate{
		{Title: "a", Priority: models.PriorityHigh},
		{Title: "b", Priority: models.PriorityLow},
	})
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	if len(created) != 2 || created[0].ID == created[1].ID {
		t.Fatalf("created = %+v", created)
	}

	page, err := s.Tasks.List(ctx, Page{}, TaskFilter{SourceID: src.ID, Priority: models.PriorityHigh})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 1 || page.Items[0].Title != "a" {
		t.Errorf("filtered = %+v", page.Items)
	}

	_, err = s.Tasks.CreateBatch(ctx, testSession, src.ID, []models.TaskCandidate{{Title: "ok"}, {Title: ""}})
	if !apperr.Is(err, apperr.InvalidInput) {
		t.Errorf("invalid batch kind = %q, want invalid_input", apperr.KindOf(err))
	}
	if all, _ := s.Tasks.List(ctx, Page{}, TaskFilter{}); all.Total != 2 {
		t.Errorf("invalid batch stored rows: total = %d", all.Total)
	}
}

func TestTasks_UpdateStatus(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	task, err := s.Tasks.Create(ctx, testSession, &models.TaskCandidate{Title: "x"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	for _, status := range []string{models.TaskApproved, models.TaskApproved, models.TaskInProgress, models.TaskCompleted} {
		if err := s.Tasks.UpdateStatus(ctx, task.ID, status); err != nil {
			t.Fatalf("UpdateStatus(%s): %v", status, err)
		}
	}
	got, _ := s.Tasks.Get(ctx, task.ID)
	if got.Status != models.TaskCompleted {
		t.Errorf("Status = %q, want completed", got.Status)
	}

	err = s.Tasks.UpdateStatus(ctx, task.ID, models.TaskRejected)
	if !apperr.Is(err, apperr.Conflict) {
		t.Errorf("completed -> rejected kind = %q, want conflict", apperr.KindOf(err))
	}
	if apperr.HintOf(err) == "" {
		t.Error("conflict should carry a hint")
	}
	if err := s.Tasks.UpdateStatus(ctx, task.ID, "bogus"); !apperr.Is(err, apperr.InvalidInput) {
		t.Errorf("bogus status kind = %q, want invalid_input", apperr.KindOf(err))
	}
	if err := s.Tasks.UpdateStatus(ctx, "missing", models.TaskApproved); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("missing task kind = %q, want not_found", apperr.KindOf(err))
	}
}

func TestTasks_CreatedAfter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if _, err := s.Tasks.Create(ctx, testSession, &models.TaskCandidate{
			Title:     fmt.Sprint(i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	got, err := s.Tasks.CreatedAfter(ctx, TaskCursor{CreatedAt: base}, 0)
	if err != nil {
		t.Fatalf("CreatedAfter: %v", err)
	}
	if len(got) != 2 || got[0].Title != "1" || got[1].Title != "2" {
		t.Errorf("CreatedAfter = %+v", got)
	}
}

func TestTasks_CreatedAfter_SameTimestampPages(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if _, err := s.Tasks.Create(ctx, testSession, &models.TaskCandidate{
			Title:     fmt.Sprint(i),
			CreatedAt: at,
		}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	seen := map[string]bool{}
	cursor := TaskCursor{CreatedAt: at.Add(-time.Second)}
	for page := 0; page < 5; page++ {
		got, err := s.Tasks.CreatedAfter(ctx, cursor, 2)
		if err != nil {
			t.Fatalf("CreatedAfter: %v", err)
		}
		if len(got) == 0 {
			break
		}
		for _, task := range got {
			if seen[task.ID] {
				t.Errorf("task %s returned twice", task.ID)
			}
			seen[task.ID] = true
		}
		cursor = cursor.After(got[len(got)-1])
	}
	if len(seen) != 5 {
		t.Errorf("paged through %d tasks, want 5", len(seen))
	}
}

func TestTasks_Find(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	for _, status := range []string{models.TaskPending, models.TaskPending, models.TaskApproved} {
		task, err := s.Tasks.Create(ctx, testSession, &models.TaskCandidate{Title: status})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if status != models.TaskPending {
			if err := s.Tasks.UpdateStatus(ctx, task.ID, status); err != nil {
				t.Fatalf("UpdateStatus: %v", err)
			}
		}
	}
	got, err := s.Tasks.Find(ctx, TaskFilter{Status: models.TaskPending})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Find = %d tasks, want 2", len(got))
	}
}

func TestSources(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.Sources.Create(ctx, testSession, &models.FeedbackSource{}); !apperr.Is(err, apperr.InvalidInput) {
		t.Errorf("missing name kind = %q", apperr.KindOf(err))
	}
	a, _ := s.Sources.Create(ctx, testSession, &models.FeedbackSource{Name: "a"})
	b, _ := s.Sources.Create(ctx, testSession, &models.FeedbackSource{Name: "b"})

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := s.Sources.MarkAnalyzed(ctx, a.ID, at); err != nil {
		t.Fatalf("MarkAnalyzed: %v", err)
	}
	got, _ := s.Sources.Get(ctx, a.ID)
	if got.LastAnalyzedAt == nil || !got.LastAnalyzedAt.Equal(at) {
		t.Errorf("LastAnalyzedAt = %v", got.LastAnalyzedAt)
	}
	if err := s.Sources.MarkAnalyzed(ctx, "nope", at); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("MarkAnalyzed missing kind = %q", apperr.KindOf(err))
	}

	if err := s.Sources.UpdateStatus(ctx, b.ID, models.SourceArchived); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if err := s.Sources.UpdateStatus(ctx, b.ID, models.SourceActive); !apperr.Is(err, apperr.Conflict) {
		t.Errorf("unarchive kind = %q, want conflict", apperr.KindOf(err))
	}

	active, err := s.Sources.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(active) != 1 || active[0].ID != a.ID {
		t.Errorf("ListActive = %+v", active)
	}
	all, _ := s.Sources.List(ctx, Page{}, "")
	if all.Total != 2 {
		t.Errorf("List total = %d, want 2", all.Total)
	}
}

func TestPRDs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.PRDs.Create(ctx, testSession, &models.PRDDraft{}); !apperr.Is(err, apperr.InvalidInput) {
		t.Errorf("missing title kind = %q", apperr.KindOf(err))
	}
	p, err := s.PRDs.Create(ctx, testSession, &models.PRDDraft{Title: "Dark mode", Background: "bg", Problem: "pr"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Version != 1 || p.Status != models.DocDraft {
		t.Errorf("defaults: version %d, status %q", p.Version, p.Status)
	}

	updated, err := s.PRDs.ApplySections(ctx, p.ID, map[string]string{"problem": "new problem", "edge_cases": "offline"})
	if err != nil {
		t.Fatalf("ApplySections: %v", err)
	}
	if updated.Background != "bg" || updated.Problem != "new problem" || updated.EdgeCases != "offline" {
		t.Errorf("after ApplySections = %+v", updated)
	}
	if updated.Version != 1 {
		t.Errorf("Version = %d, edits must not bump it", updated.Version)
	}
	if _, err := s.PRDs.ApplySections(ctx, p.ID, map[string]string{"pricing": "x"}); !apperr.Is(err, apperr.InvalidInput) {
		t.Errorf("unknown section kind = %q", apperr.KindOf(err))
	}

	saved, err := s.PRDs.Save(ctx, p.ID, "Dark mode v2", map[string]string{"solution": "toggle"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.Title != "Dark mode v2" || saved.Background != "" || saved.Solution != "toggle" {
		t.Errorf("after Save = %+v", saved)
	}
	if _, err := s.PRDs.Save(ctx, "missing", "t", nil); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("Save missing kind = %q", apperr.KindOf(err))
	}

	if v, err := s.PRDs.SetVersion(ctx, p.ID, 2); err != nil || v.Version != 2 {
		t.Errorf("SetVersion = %v, %v", v, err)
	}

	if err := s.PRDs.MarkPublished(ctx, p.ID, "https://x"); !apperr.Is(err, apperr.Conflict) {
		t.Errorf("publish draft kind = %q, want conflict", apperr.KindOf(err))
	}
	if err := s.PRDs.UpdateStatus(ctx, p.ID, models.DocApproved); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := s.PRDs.UpdateStatus(ctx, p.ID, models.DocReview); !apperr.Is(err, apperr.Conflict) {
		t.Errorf("approved -> review kind = %q, want conflict", apperr.KindOf(err))
	}
	if err := s.PRDs.MarkPublished(ctx, p.ID, "https://github.com/o/r/issues/1"); err != nil {
		t.Fatalf("MarkPublished: %v", err)
	}
	got, _ := s.PRDs.Get(ctx, p.ID)
	if got.Status != models.DocPublished || got.OutputURL != "https://github.com/o/r/issues/1" {
		t.Errorf("after publish = %q %q", got.Status, got.OutputURL)
	}
}

func TestContentAssets(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	slack := models.ChannelSlack
	bad := "fax"

	if _, err := s.Content.Create(ctx, testSession, &models.ContentAsset{Type: "poster", Title: "x"}); !apperr.Is(err, apperr.InvalidInput) {
		t.Errorf("bad type kind = %q", apperr.KindOf(err))
	}
	if _, err := s.Content.Create(ctx, testSession, &models.ContentAsset{Type: models.ContentFAQ, Title: "x", TargetChannel: &bad}); !apperr.Is(err, apperr.InvalidInput) {
		t.Errorf("bad channel kind = %q", apperr.KindOf(err))
	}

	a, err := s.Content.Create(ctx, testSession, &models.ContentAsset{Type: models.ContentFAQ, Title: "FAQ", Content: "Q/A", TargetChannel: &slack})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Content.MarkPublished(ctx, a.ID, "https://slack/p1"); err != nil {
		t.Fatalf("MarkPublished: %v", err)
	}
	got, _ := s.Content.Get(ctx, a.ID)
	if got.Status != models.DocPublished || got.OutputURL != "https://slack/p1" {
		t.Errorf("after publish = %+v", got)
	}

	list, err := s.Content.List(ctx, Page{}, ContentFilter{Type: models.ContentFAQ})
	if err != nil || list.Total != 1 {
		t.Errorf("List = %+v, %v", list, err)
	}
}

func TestLaunches(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.Launches.GetOrCreate(ctx, testSession, "no-such-prd"); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("missing prd kind = %q, want not_found", apperr.KindOf(err))
	}

	p, _ := s.PRDs.Create(ctx, testSession, &models.PRDDraft{Title: "p"})
	l, err := s.Launches.GetOrCreate(ctx, testSession, p.ID)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if l.Status != models.LaunchPreparing {
		t.Errorf("Status = %q, want preparing", l.Status)
	}
	again, err := s.Launches.GetOrCreate(ctx, testSession, p.ID)
	if err != nil || again.ID != l.ID {
		t.Errorf("second GetOrCreate = %v, %v; want same launch", again, err)
	}

	if _, err := s.Launches.SetImageURL(ctx, l.ID, 3, "x"); !apperr.Is(err, apperr.InvalidInput) {
		t.Errorf("slot 3 kind = %q", apperr.KindOf(err))
	}
	withImage, err := s.Launches.SetImageURL(ctx, l.ID, 1, "http://m/l_image_2.png")
	if err != nil {
		t.Fatalf("SetImageURL: %v", err)
	}
	if withImage.Image2URL != "http://m/l_image_2.png" || len(withImage.ImageURLs()) != 1 {
		t.Errorf("images = %v", withImage.ImageURLs())
	}

	if _, err := s.Launches.MergeContent(ctx, l.ID, "FAQ", "faq text"); err != nil {
		t.Fatalf("MergeContent: %v", err)
	}
	merged, err := s.Launches.MergeContent(ctx, l.ID, "Banner", "banner text")
	if err != nil {
		t.Fatalf("MergeContent: %v", err)
	}
	reloaded, _ := s.Launches.Get(ctx, l.ID)
	for _, got := range []*models.ServiceLaunch{merged, reloaded} {
		if got.GeneratedContent["FAQ"] != "faq text" || got.GeneratedContent["Banner"] != "banner text" {
			t.Errorf("GeneratedContent = %v", got.GeneratedContent)
		}
	}
	if _, err := s.Launches.MergeContent(ctx, "nope", "FAQ", "x"); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("merge missing kind = %q", apperr.KindOf(err))
	}

	if err := s.Launches.UpdateStatus(ctx, l.ID, models.LaunchReady); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if err := s.Launches.UpdateStatus(ctx, l.ID, models.LaunchPreparing); !apperr.Is(err, apperr.Conflict) {
		t.Errorf("ready -> preparing kind = %q", apperr.KindOf(err))
	}
}

func TestAnalysesAndStats(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	src, _ := s.Sources.Create(ctx, testSession, &models.FeedbackSource{Name: "VOC"})
	res, err := s.Analyses.Create(ctx, testSession, &models.AnalysisResult{SourceFeedbackID: src.ID, RawText: "raw", FeedbackCount: 3})
	if err != nil {
		t.Fatalf("Create analysis: %v", err)
	}
	if res.AnalysisType != "voc" {
		t.Errorf("AnalysisType = %q", res.AnalysisType)
	}
	if err := s.Analyses.SetTasksCreated(ctx, res.ID, 2); err != nil {
		t.Fatalf("SetTasksCreated: %v", err)
	}
	runs, err := s.Analyses.ListBySource(ctx, src.ID, Page{})
	if err != nil || runs.Total != 1 || runs.Items[0].TasksCreated != 2 {
		t.Errorf("ListBySource = %+v, %v", runs, err)
	}

	task, _ := s.Tasks.Create(ctx, testSession, &models.TaskCandidate{Title: "t"})
	s.Tasks.Create(ctx, testSession, &models.TaskCandidate{Title: "u"})
	s.Tasks.UpdateStatus(ctx, task.ID, models.TaskApproved)
	s.Tasks.UpdateStatus(ctx, task.ID, models.TaskInProgress)
	s.Tasks.UpdateStatus(ctx, task.ID, models.TaskCompleted)

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	want := Stats{ActiveSources: 1, Tasks: 2, PendingTasks: 1, CompletedTasks: 1}
	if *st != want {
		t.Errorf("Stats = %+v, want %+v", *st, want)
	}
}
