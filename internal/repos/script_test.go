package repos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yungbote/scriptforge-backend/internal/logger"
	"github.com/yungbote/scriptforge-backend/internal/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&types.Script{}, &types.Conversation{}, &types.Message{}); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	return db
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func seedScript(t *testing.T, repo ScriptRepo, title, genre, status string, size int64, createdAt time.Time) *types.Script {
	t.Helper()
	script := &types.Script{
		ID:           uuid.New(),
		Title:        title,
		OriginalName: title + ".txt",
		StorageKey:   "scripts/" + uuid.NewString() + ".txt",
		SizeBytes:    size,
		MimeType:     "text/plain",
		Content:      "content of " + title,
		Genre:        genre,
		Author:       "Unknown",
		Status:       status,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
	if _, err := repo.Create(context.Background(), nil, script); err != nil {
		t.Fatalf("Create(%s): %v", title, err)
	}
	return script
}

func TestScriptRepoCreateAndGetRoundTrip(t *testing.T) {
	repo := NewScriptRepo(newTestDB(t), newTestLogger(t))
	created := seedScript(t, repo, "Heist", "Thriller", types.ScriptStatusUploaded, 42, time.Now())

	got, err := repo.GetByID(context.Background(), nil, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Title != "Heist" || got.Genre != "Thriller" || got.Status != types.ScriptStatusUploaded {
		t.Fatalf("round trip: got=%+v", got)
	}
	if got.Content != "content of Heist" {
		t.Fatalf("content: want=%q got=%q", "content of Heist", got.Content)
	}
}

func TestScriptRepoUpdatesStatus(t *testing.T) {
	repo := NewScriptRepo(newTestDB(t), newTestLogger(t))
	created := seedScript(t, repo, "Noir", "Crime", types.ScriptStatusUploaded, 10, time.Now())

	err := repo.Updates(context.Background(), nil, created.ID, map[string]interface{}{
		"status":     types.ScriptStatusProcessing,
		"updated_at": time.Now(),
	})
	if err != nil {
		t.Fatalf("Updates: %v", err)
	}
	got, err := repo.GetByID(context.Background(), nil, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != types.ScriptStatusProcessing {
		t.Fatalf("status: want=%q got=%q", types.ScriptStatusProcessing, got.Status)
	}
}

func TestScriptRepoDeleteReportsExistence(t *testing.T) {
	repo := NewScriptRepo(newTestDB(t), newTestLogger(t))
	created := seedScript(t, repo, "Gone", "Drama", types.ScriptStatusUploaded, 10, time.Now())

	found, err := repo.DeleteByID(context.Background(), nil, created.ID)
	if err != nil {
		t.Fatalf("DeleteByID: %v", err)
	}
	if !found {
		t.Fatalf("DeleteByID: want found=true")
	}
	found, err = repo.DeleteByID(context.Background(), nil, created.ID)
	if err != nil {
		t.Fatalf("DeleteByID second: %v", err)
	}
	if found {
		t.Fatalf("DeleteByID second: want found=false")
	}
}

func TestScriptRepoListFiltersAndPaginates(t *testing.T) {
	repo := NewScriptRepo(newTestDB(t), newTestLogger(t))
	base := time.Now().Add(-time.Hour)
	seedScript(t, repo, "A", "Drama", types.ScriptStatusProcessing, 10, base)
	seedScript(t, repo, "B", "Drama", types.ScriptStatusTrained, 20, base.Add(time.Minute))
	seedScript(t, repo, "C", "Comedy", types.ScriptStatusProcessing, 30, base.Add(2*time.Minute))

	scripts, total, err := repo.List(context.Background(), nil, ScriptListFilter{Status: types.ScriptStatusProcessing})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 || len(scripts) != 2 {
		t.Fatalf("filtered list: want total=2 got total=%d len=%d", total, len(scripts))
	}
	if scripts[0].Title != "C" {
		t.Fatalf("ordering: want newest first got=%q", scripts[0].Title)
	}
	if scripts[0].Content != "" {
		t.Fatalf("list content: want omitted got=%q", scripts[0].Content)
	}

	page, total, err := repo.List(context.Background(), nil, ScriptListFilter{Page: 2, Limit: 2})
	if err != nil {
		t.Fatalf("List page 2: %v", err)
	}
	if total != 3 || len(page) != 1 {
		t.Fatalf("pagination: want total=3 len=1 got total=%d len=%d", total, len(page))
	}
}

func TestScriptRepoSearchIsCaseInsensitive(t *testing.T) {
	repo := NewScriptRepo(newTestDB(t), newTestLogger(t))
	now := time.Now()
	seedScript(t, repo, "Space Opera", "SciFi", types.ScriptStatusProcessing, 10, now)
	seedScript(t, repo, "Kitchen Sink", "Drama", types.ScriptStatusProcessing, 10, now)

	results, total, err := repo.Search(context.Background(), nil, "SPACE", 1, 20)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if total != 1 || len(results) != 1 {
		t.Fatalf("search: want 1 hit got total=%d len=%d", total, len(results))
	}
	if results[0].Title != "Space Opera" {
		t.Fatalf("search hit: want=%q got=%q", "Space Opera", results[0].Title)
	}

	results, total, err = repo.Search(context.Background(), nil, "content of kitchen", 1, 20)
	if err != nil {
		t.Fatalf("Search content: %v", err)
	}
	if total != 1 {
		t.Fatalf("content search: want 1 hit got=%d", total)
	}
}

func TestScriptRepoStatsAggregates(t *testing.T) {
	repo := NewScriptRepo(newTestDB(t), newTestLogger(t))
	now := time.Now()
	seedScript(t, repo, "A", "Drama", types.ScriptStatusProcessing, 100, now)
	seedScript(t, repo, "B", "Drama", types.ScriptStatusTrained, 200, now)
	seedScript(t, repo, "C", "Comedy", types.ScriptStatusTrained, 300, now)

	stats, err := repo.Stats(context.Background(), nil)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalScripts != 3 {
		t.Fatalf("total scripts: want=3 got=%d", stats.TotalScripts)
	}
	if stats.TotalSize != 600 {
		t.Fatalf("total size: want=600 got=%d", stats.TotalSize)
	}
	if stats.AvgSize != 200 {
		t.Fatalf("avg size: want=200 got=%d", stats.AvgSize)
	}
	if stats.ByStatus[types.ScriptStatusTrained] != 2 {
		t.Fatalf("by status: want trained=2 got=%d", stats.ByStatus[types.ScriptStatusTrained])
	}
	if stats.ByGenre["Drama"] != 2 {
		t.Fatalf("by genre: want Drama=2 got=%d", stats.ByGenre["Drama"])
	}
}
