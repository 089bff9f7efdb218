package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zulandar/launchpad/internal/airesp"
	"github.com/zulandar/launchpad/internal/apperr"
	"github.com/zulandar/launchpad/internal/auth"
	"github.com/zulandar/launchpad/internal/blob"
	"github.com/zulandar/launchpad/internal/chatlog"
	"github.com/zulandar/launchpad/internal/db"
	"github.com/zulandar/launchpad/internal/ingest"
	"github.com/zulandar/launchpad/internal/llm"
	"github.com/zulandar/launchpad/internal/logx"
	"github.com/zulandar/launchpad/internal/models"
	"github.com/zulandar/launchpad/internal/notify"
	"github.com/zulandar/launchpad/internal/store"
)

var testSession = &auth.Session{UserID: "user-1", Email: "pm@example.com"}

var fixedNow = time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)

type fakeFetcher struct {
	items []ingest.Feedback
	err   error
	urls  []string
}

func (f *fakeFetcher) Fetch(_ context.Context, sheetURL string) ([]ingest.Feedback, error) {
	f.urls = append(f.urls, sheetURL)
	return f.items, f.err
}

type fakePublisher struct {
	url       string
	err       error
	published []string
}

func (f *fakePublisher) PublishPRD(_ context.Context, prd *models.PRDDraft) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.published = append(f.published, prd.ID)
	return f.url, nil
}

type harness struct {
	p         *Pipeline
	store     *store.Store
	fetcher   *fakeFetcher
	gen       *llm.Fake
	chat      *chatlog.MemoryLog
	mediaDir  string
	slack     *notify.Mock
	publisher *fakePublisher
}

func newHarness(t *testing.T, replies ...string) *harness {
	t.Helper()
	logx.Discard()

	gdb, err := db.ConnectSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	h := &harness{
		store: store.New(gdb),
		fetcher: &fakeFetcher{items: []ingest.Feedback{
			{Row: 1, Date: "2024-03-01", Text: "Search is too slow on mobile"},
			{Row: 2, Date: "2024-03-02", Text: "Cannot export invoices as PDF"},
		}},
		gen:       llm.NewFake(replies...),
		chat:      chatlog.NewMemoryLog(),
		mediaDir:  t.TempDir(),
		slack:     &notify.Mock{},
		publisher: &fakePublisher{url: "https://github.com/acme/app/issues/1"},
	}
	blobs, err := blob.NewDirStore(h.mediaDir, "http://lp.test")
	if err != nil {
		t.Fatalf("NewDirStore: %v", err)
	}
	router := notify.NewRouter(models.ChannelSlack)
	router.Register(models.ChannelSlack, h.slack)

	h.p, err = New(Opts{
		Store:     h.store,
		Fetcher:   h.fetcher,
		Generator: h.gen,
		ChatLog:   h.chat,
		Blobs:     blobs,
		Notifier:  router,
		Publisher: h.publisher,
		Now:       func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return h
}

const analysisReply = `Customers mostly complain about speed.

{"categories":[{"name":"Performance","count":1,"importance":"high"}],
 "recommended_features":[
  {"title":"Faster search","description":"Index search","development_cost":1,"effect_score":1,"priority_score":1,"related_feedback_count":4},
  {"title":"PDF export","description":"Export invoices","development_cost":2,"effect_score":2,"priority_score":2}
 ]}`

func TestNew_RequiresStoreAndGenerator(t *testing.T) {
	if _, err := New(Opts{Generator: llm.NewFake("x")}); err == nil {
		t.Error("expected error without store")
	}
	if _, err := New(Opts{Store: &store.Store{}}); err == nil {
		t.Error("expected error without generator")
	}
}

func TestAnalyzeSheet(t *testing.T) {
	h := newHarness(t, analysisReply)
	ctx := context.Background()

	out, err := h.p.AnalyzeSheet(ctx, testSession, " https://docs.google.com/spreadsheets/d/abc/edit ")
	if err != nil {
		t.Fatalf("AnalyzeSheet: %v", err)
	}
	if out.FeedbackCount != 2 || out.TasksCreated != 2 || out.StructuredError != "" {
		t.Errorf("outcome = %+v", out)
	}
	if out.AnalysisText != analysisReply {
		t.Error("analysis text should be the raw reply")
	}
	if h.fetcher.urls[0] != "https://docs.google.com/spreadsheets/d/abc/edit" {
		t.Errorf("fetched %q", h.fetcher.urls[0])
	}
	if s := h.gen.Calls[0].Settings; s.MaxOutputTokens != 2048 {
		t.Errorf("analysis max tokens = %d, want 2048", s.MaxOutputTokens)
	}

	src, err := h.store.Sources.Get(ctx, out.SourceID)
	if err != nil {
		t.Fatalf("Get source: %v", err)
	}
	if src.Name != "VOC analysis - 2024-03-05" {
		t.Errorf("source name = %q", src.Name)
	}
	if src.Status != models.SourceActive || src.LastAnalyzedAt == nil || !src.LastAnalyzedAt.Equal(fixedNow) {
		t.Errorf("source = %+v", src)
	}
	if src.CreatedBy != "user-1" {
		t.Errorf("created_by = %q, want user-1", src.CreatedBy)
	}

	tasks, err := h.store.Tasks.List(ctx, store.Page{}, store.TaskFilter{SourceID: src.ID})
	if err != nil {
		t.Fatalf("List tasks: %v", err)
	}
	if tasks.Total != 2 {
		t.Fatalf("tasks = %d, want 2", tasks.Total)
	}

	runs, err := h.store.Analyses.ListBySource(ctx, src.ID, store.Page{})
	if err != nil || runs.Total != 1 {
		t.Fatalf("analyses = %v, %v", runs, err)
	}
	run := runs.Items[0]
	if !run.StructuredOK || run.TasksCreated != 2 || run.RawText != analysisReply {
		t.Errorf("analysis run = %+v", run)
	}

	msg, ok := h.slack.Last()
	if !ok || !strings.Contains(msg.Title, "VOC analysis complete") || msg.Color != notify.ColorSuccess {
		t.Errorf("notification = %+v", msg)
	}
}

func TestAnalyzeSheet_MalformedStructureKeepsRawText(t *testing.T) {
	reply := `Summary first. {"recommended_features": [ {"title": "x", } ]}`
	h := newHarness(t, reply)

	out, err := h.p.AnalyzeSheet(context.Background(), testSession, "https://docs.google.com/spreadsheets/d/abc/edit")
	if err != nil {
		t.Fatalf("AnalyzeSheet: %v", err)
	}
	if out.AnalysisText != reply {
		t.Errorf("analysis text = %q", out.AnalysisText)
	}
	if out.StructuredError == "" || out.TasksCreated != 0 {
		t.Errorf("outcome = %+v, want structured error and no tasks", out)
	}
	if msg, _ := h.slack.Last(); msg.Color != notify.ColorWarning {
		t.Errorf("notification color = %q, want warning", msg.Color)
	}
}

func TestAnalyzeSheet_OutOfRangeScoresStillCreateTasks(t *testing.T) {
	reply := `{"recommended_features":[
  {"title":"Faster search","development_cost":1,"effect_score":1,"priority_score":"2"},
  {"title":"Rewrite billing","development_cost":4,"effect_score":"9","priority_score":12}
]}`
	h := newHarness(t, reply)
	ctx := context.Background()

	out, err := h.p.AnalyzeSheet(ctx, testSession, "https://docs.google.com/spreadsheets/d/abc/edit")
	if err != nil {
		t.Fatalf("AnalyzeSheet: %v", err)
	}
	if out.TasksCreated != 2 || out.StructuredError != "" {
		t.Fatalf("outcome = %+v, want 2 tasks and no structured error", out)
	}

	tasks, err := h.store.Tasks.Find(ctx, store.TaskFilter{SourceID: out.SourceID})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	byTitle := map[string]models.TaskCandidate{}
	for _, task := range tasks {
		byTitle[task.Title] = task
	}
	billing, ok := byTitle["Rewrite billing"]
	if !ok {
		t.Fatalf("tasks = %+v, want Rewrite billing", tasks)
	}
	if billing.DevelopmentCost == nil || *billing.DevelopmentCost != 3 {
		t.Errorf("billing cost = %v, want 3", billing.DevelopmentCost)
	}
	if billing.EffectScore == nil || *billing.EffectScore != 3 {
		t.Errorf("billing effect = %v, want 3", billing.EffectScore)
	}
	if search := byTitle["Faster search"]; search.Priority != models.PriorityHigh {
		t.Errorf("search priority = %q, want high", search.Priority)
	}
}

func TestAnalyzeSheet_SummaryIsTruncated(t *testing.T) {
	reply := strings.Repeat("가", 600)
	h := newHarness(t, reply)

	out, err := h.p.AnalyzeSheet(context.Background(), testSession, "https://docs.google.com/spreadsheets/d/abc/edit")
	if err != nil {
		t.Fatalf("AnalyzeSheet: %v", err)
	}
	runs, _ := h.store.Analyses.ListBySource(context.Background(), out.SourceID, store.Page{})
	if got := len([]rune(runs.Items[0].Summary)); got != summaryRunes {
		t.Errorf("summary runes = %d, want %d", got, summaryRunes)
	}
}

func TestAnalyzeSheet_FetchErrorCreatesNothing(t *testing.T) {
	h := newHarness(t, analysisReply)
	h.fetcher.err = apperr.New(apperr.AccessDenied, "private")

	_, err := h.p.AnalyzeSheet(context.Background(), testSession, "https://docs.google.com/spreadsheets/d/abc/edit")
	if !apperr.Is(err, apperr.AccessDenied) {
		t.Fatalf("err = %v, want AccessDenied", err)
	}
	if len(h.gen.Calls) != 0 {
		t.Error("model should not be called when fetch fails")
	}
	stats, _ := h.store.Stats(context.Background())
	if stats.ActiveSources != 0 {
		t.Errorf("active sources = %d, want 0", stats.ActiveSources)
	}
}

func TestAnalyzeSheet_ModelError(t *testing.T) {
	h := newHarness(t)
	h.gen.Err = errors.New("quota exceeded")

	_, err := h.p.AnalyzeSheet(context.Background(), testSession, "https://docs.google.com/spreadsheets/d/abc/edit")
	if !apperr.Is(err, apperr.Upstream) {
		t.Errorf("err = %v, want Upstream", err)
	}
}

func TestAnalyzeSheet_NotificationFailureIsNotFatal(t *testing.T) {
	h := newHarness(t, analysisReply)
	h.slack.Err = errors.New("channel_not_found")

	if _, err := h.p.AnalyzeSheet(context.Background(), testSession, "https://docs.google.com/spreadsheets/d/abc/edit"); err != nil {
		t.Errorf("AnalyzeSheet: %v", err)
	}
}

func TestReanalyzeSource(t *testing.T) {
	h := newHarness(t, analysisReply)
	ctx := context.Background()

	src, err := h.store.Sources.Create(ctx, testSession, &models.FeedbackSource{
		Name:      "Support inbox",
		SourceURL: "https://docs.google.com/spreadsheets/d/inbox/edit",
	})
	if err != nil {
		t.Fatalf("Create source: %v", err)
	}

	out, err := h.p.ReanalyzeSource(ctx, testSession, src.ID)
	if err != nil {
		t.Fatalf("ReanalyzeSource: %v", err)
	}
	if out.SourceID != src.ID || out.TasksCreated != 2 {
		t.Errorf("outcome = %+v", out)
	}
	got, _ := h.store.Sources.Get(ctx, src.ID)
	if got.LastAnalyzedAt == nil || !got.LastAnalyzedAt.Equal(fixedNow) {
		t.Errorf("last_analyzed_at = %v, want %v", got.LastAnalyzedAt, fixedNow)
	}
	if got.Name != "Support inbox" {
		t.Errorf("name changed to %q", got.Name)
	}
}

func TestReanalyzeSource_Rejections(t *testing.T) {
	h := newHarness(t, analysisReply)
	ctx := context.Background()

	noURL, _ := h.store.Sources.Create(ctx, testSession, &models.FeedbackSource{Name: "manual"})
	archived, _ := h.store.Sources.Create(ctx, testSession, &models.FeedbackSource{
		Name: "old", SourceURL: "https://docs.google.com/spreadsheets/d/old/edit", Status: models.SourceArchived,
	})

	tests := []struct {
		id   string
		want apperr.Kind
	}{
		{noURL.ID, apperr.InvalidInput},
		{archived.ID, apperr.Conflict},
		{"missing", apperr.NotFound},
	}
	for _, tt := range tests {
		_, err := h.p.ReanalyzeSource(ctx, testSession, tt.id)
		if got := apperr.KindOf(err); got != tt.want {
			t.Errorf("ReanalyzeSource(%s) kind = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func createTask(t *testing.T, h *harness) *models.TaskCandidate {
	t.Helper()
	task, err := h.store.Tasks.Create(context.Background(), testSession, &models.TaskCandidate{Title: "Faster search"})
	if err != nil {
		t.Fatalf("Create task: %v", err)
	}
	return task
}

func TestGeneratePRD(t *testing.T) {
	reply := "[SECTION:background]Users wait.[/SECTION]\n[SECTION:solution]Add an index.[/SECTION]"
	h := newHarness(t, reply)
	task := createTask(t, h)

	res, err := h.p.GeneratePRD(context.Background(), testSession, task.ID)
	if err != nil {
		t.Fatalf("GeneratePRD: %v", err)
	}
	prd := res.PRD
	if res.Confidence != airesp.ConfidenceStrict {
		t.Errorf("confidence = %q, want strict", res.Confidence)
	}
	if prd.Title != "Faster search" || prd.Version != 1 || prd.Status != models.DocDraft {
		t.Errorf("prd = %+v", prd)
	}
	if prd.Background != "Users wait." || prd.Solution != "Add an index." || prd.Problem != "" {
		t.Errorf("sections = %q / %q / %q", prd.Background, prd.Problem, prd.Solution)
	}
	if prd.TaskID == nil || *prd.TaskID != task.ID {
		t.Errorf("task_id = %v", prd.TaskID)
	}
	stored, _ := h.store.PRDs.Get(context.Background(), prd.ID)
	if stored.RawResponse != reply {
		t.Error("raw response should be stored")
	}
	if h.gen.Calls[0].Settings.MaxOutputTokens != 4096 {
		t.Errorf("prd max tokens = %d, want 4096", h.gen.Calls[0].Settings.MaxOutputTokens)
	}
}

func TestGeneratePRD_NoSectionsFound(t *testing.T) {
	h := newHarness(t, "I could not write this document.")
	task := createTask(t, h)

	res, err := h.p.GeneratePRD(context.Background(), testSession, task.ID)
	if err != nil {
		t.Fatalf("GeneratePRD: %v", err)
	}
	if res.Confidence != airesp.ConfidenceNone {
		t.Errorf("confidence = %q, want none", res.Confidence)
	}
	for _, name := range models.SectionNames {
		if s := res.PRD.Section(name); s != "" {
			t.Errorf("section %s = %q, want empty", name, s)
		}
	}
}

func TestGeneratePRD_UnknownTask(t *testing.T) {
	h := newHarness(t, "x")
	if _, err := h.p.GeneratePRD(context.Background(), testSession, "nope"); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("err = %v, want NotFound", err)
	}
}

func createPRD(t *testing.T, h *harness) *models.PRDDraft {
	t.Helper()
	prd, err := h.store.PRDs.Create(context.Background(), testSession, &models.PRDDraft{
		Title: "Faster search", Background: "old background", Problem: "slow",
	})
	if err != nil {
		t.Fatalf("Create prd: %v", err)
	}
	return prd
}

func TestChatPRD_UpdatesSections(t *testing.T) {
	h := newHarness(t, "Sure, tightened it.\n[UPDATED_SECTION:background]New background.[/UPDATED_SECTION]")
	prd := createPRD(t, h)
	ctx := context.Background()

	reply, err := h.p.ChatPRD(ctx, testSession, prd.ID, "  make the background shorter ")
	if err != nil {
		t.Fatalf("ChatPRD: %v", err)
	}
	if reply.Reply != "Sure, tightened it." {
		t.Errorf("reply = %q", reply.Reply)
	}
	if len(reply.Updated) != 1 || reply.Updated[0] != models.SectionBackground {
		t.Errorf("updated = %v", reply.Updated)
	}
	if reply.PRD.Background != "New background." || reply.PRD.Problem != "slow" {
		t.Errorf("prd = %+v", reply.PRD)
	}

	turns, err := h.p.ChatHistory(ctx, prd.ID)
	if err != nil {
		t.Fatalf("ChatHistory: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("turns = %d, want 2", len(turns))
	}
	if turns[0].Role != models.RoleUser || turns[0].Content != "make the background shorter" {
		t.Errorf("user turn = %+v", turns[0])
	}
	if turns[1].Role != models.RoleAssistant || turns[1].Content != "Sure, tightened it." {
		t.Errorf("assistant turn = %+v", turns[1])
	}
}

func TestChatPRD_OnlyMarkersFallsBackToAcknowledgement(t *testing.T) {
	h := newHarness(t, "[UPDATED_SECTION:problem]Search is slow.[/UPDATED_SECTION]")
	prd := createPRD(t, h)

	reply, err := h.p.ChatPRD(context.Background(), testSession, prd.ID, "rewrite problem")
	if err != nil {
		t.Fatalf("ChatPRD: %v", err)
	}
	if reply.Reply != chatAcknowledgement {
		t.Errorf("reply = %q, want %q", reply.Reply, chatAcknowledgement)
	}
	if reply.PRD.Problem != "Search is slow." {
		t.Errorf("problem = %q", reply.PRD.Problem)
	}
}

func TestChatPRD_HeadingsDoNotUpdate(t *testing.T) {
	h := newHarness(t, "Background\nI think the background is fine as is.")
	prd := createPRD(t, h)

	reply, err := h.p.ChatPRD(context.Background(), testSession, prd.ID, "is the background ok?")
	if err != nil {
		t.Fatalf("ChatPRD: %v", err)
	}
	if len(reply.Updated) != 0 || reply.PRD.Background != "old background" {
		t.Errorf("prd should be unchanged, updated = %v background = %q", reply.Updated, reply.PRD.Background)
	}
}

func TestChatPRD_HistoryInPrompt(t *testing.T) {
	h := newHarness(t, "first answer", "second answer")
	prd := createPRD(t, h)
	ctx := context.Background()

	if _, err := h.p.ChatPRD(ctx, testSession, prd.ID, "first question"); err != nil {
		t.Fatalf("ChatPRD: %v", err)
	}
	if _, err := h.p.ChatPRD(ctx, testSession, prd.ID, "second question"); err != nil {
		t.Fatalf("ChatPRD: %v", err)
	}
	p := h.gen.LastPrompt()
	if !strings.Contains(p, "first question") || !strings.Contains(p, "first answer") {
		t.Errorf("prompt missing history:\n%s", p)
	}
}

func TestChatPRD_Validation(t *testing.T) {
	h := newHarness(t, "x")
	prd := createPRD(t, h)

	if _, err := h.p.ChatPRD(context.Background(), testSession, prd.ID, "   "); !apperr.Is(err, apperr.InvalidInput) {
		t.Errorf("empty message err = %v, want InvalidInput", err)
	}
	if _, err := h.p.ChatPRD(context.Background(), testSession, "missing", "hi"); !apperr.Is(err, apperr.NotFound) {
		t.Errorf("missing prd err = %v, want NotFound", err)
	}
}

func TestGenerateLaunchContent(t *testing.T) {
	h := newHarness(t, "Q: Is search faster?\nA: Yes.", "New search banner")
	task := createTask(t, h)
	ctx := context.Background()
	prd, _ := h.store.PRDs.Create(ctx, testSession, &models.PRDDraft{Title: "Faster search", TaskID: &task.ID})

	res, err := h.p.GenerateLaunchContent(ctx, testSession, prd.ID, "faq")
	if err != nil {
		t.Fatalf("GenerateLaunchContent: %v", err)
	}
	if res.Label != "FAQ" || res.Asset.Type != models.ContentFAQ {
		t.Errorf("label = %q type = %q", res.Label, res.Asset.Type)
	}
	if res.Asset.PRDID == nil || *res.Asset.PRDID != prd.ID || res.Asset.TaskID == nil || *res.Asset.TaskID != task.ID {
		t.Errorf("asset links = %v / %v", res.Asset.PRDID, res.Asset.TaskID)
	}
	if res.Launch.GeneratedContent["FAQ"] != "Q: Is search faster?\nA: Yes." {
		t.Errorf("generated content = %v", res.Launch.GeneratedContent)
	}

	res2, err := h.p.GenerateLaunchContent(ctx, testSession, prd.ID, "배너 메시지")
	if err != nil {
		t.Fatalf("GenerateLaunchContent: %v", err)
	}
	if res2.Launch.ID != res.Launch.ID {
		t.Error("second generation should reuse the launch")
	}
	if len(res2.Launch.GeneratedContent) != 2 || res2.Asset.Type != models.ContentBanner {
		t.Errorf("content = %v type = %q", res2.Launch.GeneratedContent, res2.Asset.Type)
	}
}

func TestGenerateLaunchContent_UsesImages(t *testing.T) {
	h := newHarness(t, "copy")
	ctx := context.Background()
	prd := createPRD(t, h)
	launch, _ := h.store.Launches.GetOrCreate(ctx, testSession, prd.ID)
	if _, err := h.p.UploadLaunchImage(ctx, launch.ID, 0, "hero.PNG", strings.NewReader("png-bytes")); err != nil {
		t.Fatalf("UploadLaunchImage: %v", err)
	}

	if _, err := h.p.GenerateLaunchContent(ctx, testSession, prd.ID, "Notification"); err != nil {
		t.Fatalf("GenerateLaunchContent: %v", err)
	}
	want := "http://lp.test/media/" + launch.ID + "_image_1.png"
	if !strings.Contains(h.gen.LastPrompt(), want) {
		t.Errorf("prompt missing image URL %q", want)
	}
}

func TestGenerateLaunchContent_UnknownLabelIsAnnouncement(t *testing.T) {
	h := newHarness(t, "copy")
	prd := createPRD(t, h)

	res, err := h.p.GenerateLaunchContent(context.Background(), testSession, prd.ID, "Press release")
	if err != nil {
		t.Fatalf("GenerateLaunchContent: %v", err)
	}
	if res.Asset.Type != models.ContentAnnouncement || res.Label != "Press release" {
		t.Errorf("label = %q type = %q", res.Label, res.Asset.Type)
	}
}

func TestGenerateLaunchContent_EmptyLabel(t *testing.T) {
	h := newHarness(t, "copy")
	prd := createPRD(t, h)
	if _, err := h.p.GenerateLaunchContent(context.Background(), testSession, prd.ID, " "); !apperr.Is(err, apperr.InvalidInput) {
		t.Errorf("err = %v, want InvalidInput", err)
	}
}

func TestUploadLaunchImage_Overwrites(t *testing.T) {
	h := newHarness(t, "x")
	ctx := context.Background()
	prd := createPRD(t, h)
	launch, _ := h.store.Launches.GetOrCreate(ctx, testSession, prd.ID)

	if _, err := h.p.UploadLaunchImage(ctx, launch.ID, 2, "a.jpg", strings.NewReader("first")); err != nil {
		t.Fatalf("upload: %v", err)
	}
	updated, err := h.p.UploadLaunchImage(ctx, launch.ID, 2, "b.jpg", strings.NewReader("second"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	key := ImageKey(launch.ID, 2, "jpg")
	if updated.Image3URL != "http://lp.test/media/"+key {
		t.Errorf("image_3_url = %q", updated.Image3URL)
	}
	data, err := os.ReadFile(filepath.Join(h.mediaDir, key))
	if err != nil || string(data) != "second" {
		t.Errorf("stored = %q, %v", data, err)
	}
}

func TestUploadLaunchImage_Validation(t *testing.T) {
	h := newHarness(t, "x")
	ctx := context.Background()
	prd := createPRD(t, h)
	launch, _ := h.store.Launches.GetOrCreate(ctx, testSession, prd.ID)

	tests := []struct {
		name     string
		launchID string
		slot     int
		filename string
		want     apperr.Kind
	}{
		{"slot too high", launch.ID, 3, "a.png", apperr.InvalidInput},
		{"negative slot", launch.ID, -1, "a.png", apperr.InvalidInput},
		{"no extension", launch.ID, 0, "image", apperr.InvalidInput},
		{"not an image", launch.ID, 0, "notes.txt", apperr.InvalidInput},
		{"unknown launch", "missing", 0, "a.png", apperr.NotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.p.UploadLaunchImage(ctx, tt.launchID, tt.slot, tt.filename, strings.NewReader("x"))
			if got := apperr.KindOf(err); got != tt.want {
				t.Errorf("kind = %q, want %q (err %v)", got, tt.want, err)
			}
		})
	}
}

func TestImageKey(t *testing.T) {
	if got := ImageKey("l1", 0, "png"); got != "l1_image_1.png" {
		t.Errorf("ImageKey = %q, want l1_image_1.png", got)
	}
}

func createAsset(t *testing.T, h *harness, channel *string) *models.ContentAsset {
	t.Helper()
	a, err := h.store.Content.Create(context.Background(), testSession, &models.ContentAsset{
		Type: models.ContentBanner, Title: "Search banner", Content: "Search is 3x faster", TargetChannel: channel,
	})
	if err != nil {
		t.Fatalf("Create asset: %v", err)
	}
	return a
}

func TestPublishContent(t *testing.T) {
	h := newHarness(t, "x")
	ch := models.ChannelSlack
	asset := createAsset(t, h, &ch)

	got, err := h.p.PublishContent(context.Background(), asset.ID)
	if err != nil {
		t.Fatalf("PublishContent: %v", err)
	}
	if got.Status != models.DocPublished || got.OutputURL != "https://chat.example/msg/1" {
		t.Errorf("asset = %+v", got)
	}
	msg, _ := h.slack.Last()
	if msg.Title != "Search banner" || msg.Text != "Search is 3x faster" {
		t.Errorf("message = %+v", msg)
	}

	if _, err := h.p.PublishContent(context.Background(), asset.ID); !apperr.Is(err, apperr.Conflict) {
		t.Errorf("republish err = %v, want Conflict", err)
	}
	if h.slack.Count() != 1 {
		t.Errorf("sent = %d, want 1", h.slack.Count())
	}
}

func TestPublishContent_DefaultAndUnconfiguredChannel(t *testing.T) {
	h := newHarness(t, "x")

	if _, err := h.p.PublishContent(context.Background(), createAsset(t, h, nil).ID); err != nil {
		t.Errorf("default channel: %v", err)
	}

	blog := models.ChannelBlog
	_, err := h.p.PublishContent(context.Background(), createAsset(t, h, &blog).ID)
	if !apperr.Is(err, apperr.InvalidInput) {
		t.Errorf("blog channel err = %v, want InvalidInput", err)
	}
}

func TestPublishPRD(t *testing.T) {
	h := newHarness(t, "x")
	ctx := context.Background()
	prd := createPRD(t, h)

	if _, err := h.p.PublishPRD(ctx, prd.ID); !apperr.Is(err, apperr.Conflict) {
		t.Errorf("draft publish err = %v, want Conflict", err)
	}
	if err := h.store.PRDs.UpdateStatus(ctx, prd.ID, models.DocApproved); err != nil {
		t.Fatalf("approve: %v", err)
	}

	got, err := h.p.PublishPRD(ctx, prd.ID)
	if err != nil {
		t.Fatalf("PublishPRD: %v", err)
	}
	if got.Status != models.DocPublished || got.OutputURL != h.publisher.url {
		t.Errorf("prd = %+v", got)
	}
	if len(h.publisher.published) != 1 {
		t.Errorf("published = %v", h.publisher.published)
	}
}

func TestPublishPRD_PublisherFailureKeepsApproved(t *testing.T) {
	h := newHarness(t, "x")
	ctx := context.Background()
	prd := createPRD(t, h)
	_ = h.store.PRDs.UpdateStatus(ctx, prd.ID, models.DocApproved)
	h.publisher.err = apperr.New(apperr.AccessDenied, "no access")

	if _, err := h.p.PublishPRD(ctx, prd.ID); !apperr.Is(err, apperr.AccessDenied) {
		t.Errorf("err = %v, want AccessDenied", err)
	}
	got, _ := h.store.PRDs.Get(ctx, prd.ID)
	if got.Status != models.DocApproved {
		t.Errorf("status = %q, want approved", got.Status)
	}
}
