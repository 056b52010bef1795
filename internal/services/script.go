package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/scriptforge-backend/internal/apierr"
	"github.com/yungbote/scriptforge-backend/internal/logger"
	"github.com/yungbote/scriptforge-backend/internal/repos"
	"github.com/yungbote/scriptforge-backend/internal/types"
)

// MaxUploadBytes caps the accepted payload size, checked before any blob
// write.
const MaxUploadBytes = 10 << 20

var allowedExtensions = map[string]bool{
	".txt":  true,
	".pdf":  true,
	".doc":  true,
	".docx": true,
}

type IngestInput struct {
	OriginalName string
	MimeType     string
	SizeBytes    int64
	Reader       io.Reader

	Title  string
	Genre  string
	Year   *int
	Author string
}

type ScriptMetadataUpdate struct {
	Title  *string
	Genre  *string
	Year   *int
	Author *string
}

// ScriptService owns script creation and every status transition driven by
// ingestion. Ingest reconciles the blob write, the record write and the
// remote training call into one queryable status:
//
//	uploaded -> processing  (training submission accepted)
//	uploaded -> error       (training submission failed; upload stands)
//	processing -> trained   (training-complete callback only)
//	error -> processing     (explicit resubmit only)
//
// A training failure does not roll back the upload: the script and its bytes
// stay valid and inspectable, so Ingest returns the script alongside the
// service error and the caller reports the two outcomes independently.
type ScriptService interface {
	Ingest(ctx context.Context, in IngestInput) (*types.Script, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Script, error)
	List(ctx context.Context, filter repos.ScriptListFilter) ([]*types.Script, int64, error)
	Search(ctx context.Context, query string, page, limit int) ([]*types.Script, int64, error)
	Stats(ctx context.Context) (*repos.ScriptStats, error)
	UpdateMetadata(ctx context.Context, id uuid.UUID, upd ScriptMetadataUpdate) (*types.Script, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Download(ctx context.Context, id uuid.UUID) (*types.Script, io.ReadCloser, error)
	CompleteTraining(ctx context.Context, id uuid.UUID, payload []byte) (*types.Script, error)
	Resubmit(ctx context.Context, id uuid.UUID) (*types.Script, error)
}

type scriptService struct {
	log           *logger.Logger
	scriptRepo    repos.ScriptRepo
	bucketService BucketService
	aiClient      AIClient
}

func NewScriptService(
	baseLog *logger.Logger,
	scriptRepo repos.ScriptRepo,
	bucketService BucketService,
	aiClient AIClient,
) ScriptService {
	serviceLog := baseLog.With("service", "ScriptService")
	return &scriptService{
		log:           serviceLog,
		scriptRepo:    scriptRepo,
		bucketService: bucketService,
		aiClient:      aiClient,
	}
}

func (ss *scriptService) Ingest(ctx context.Context, in IngestInput) (*types.Script, error) {
	if in.Reader == nil || strings.TrimSpace(in.OriginalName) == "" {
		return nil, apierr.Validation(fmt.Errorf("no file uploaded"))
	}
	ext := strings.ToLower(filepath.Ext(in.OriginalName))
	if !allowedExtensions[ext] {
		return nil, apierr.Validation(fmt.Errorf("invalid file type %q, only .txt, .pdf, .doc, .docx files are allowed", ext))
	}
	if in.SizeBytes > MaxUploadBytes {
		return nil, apierr.Validation(fmt.Errorf("file too large, maximum size is %d bytes", MaxUploadBytes))
	}

	raw, err := io.ReadAll(io.LimitReader(in.Reader, MaxUploadBytes+1))
	if err != nil {
		return nil, apierr.Storage(fmt.Errorf("read upload: %w", err))
	}
	if len(raw) > MaxUploadBytes {
		return nil, apierr.Validation(fmt.Errorf("file too large, maximum size is %d bytes", MaxUploadBytes))
	}

	scriptID := uuid.New()
	storageKey := fmt.Sprintf("scripts/%s%s", scriptID.String(), ext)

	if err := ss.bucketService.UploadFile(ctx, storageKey, bytes.NewReader(raw)); err != nil {
		ss.log.Error("blob write failed", "storage_key", storageKey, "error", err)
		return nil, apierr.Storage(fmt.Errorf("store upload: %w", err))
	}

	now := time.Now()
	script := &types.Script{
		ID:           scriptID,
		Title:        defaultTitle(in.Title, in.OriginalName),
		OriginalName: in.OriginalName,
		StorageKey:   storageKey,
		SizeBytes:    int64(len(raw)),
		MimeType:     in.MimeType,
		Content:      decodeContent(raw, ext, in.MimeType),
		Genre:        defaultString(in.Genre, "Unknown"),
		Year:         in.Year,
		Author:       defaultString(in.Author, "Unknown"),
		Status:       types.ScriptStatusUploaded,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := ss.scriptRepo.Create(ctx, nil, script); err != nil {
		ss.log.Error("script record create failed, cleaning up blob", "script_id", scriptID, "error", err)
		if delErr := ss.bucketService.DeleteFile(ctx, storageKey); delErr != nil {
			ss.log.Error("blob cleanup failed after record create failure", "storage_key", storageKey, "error", delErr)
		}
		return nil, apierr.Storage(fmt.Errorf("persist script record: %w", err))
	}

	return ss.submitForTraining(ctx, script)
}

// submitForTraining drives the uploaded -> processing|error transition. It
// always returns the script; a non-nil error alongside it means the upload
// stands but training did not start.
func (ss *scriptService) submitForTraining(ctx context.Context, script *types.Script) (*types.Script, error) {
	metadata := TrainMetadata{
		Genre:  script.Genre,
		Year:   script.Year,
		Author: script.Author,
	}
	trainErr := ss.aiClient.Train(ctx, script.ID, script.Content, metadata)
	if trainErr != nil {
		ss.log.Error("training submission failed", "script_id", script.ID, "error", trainErr)
		if err := ss.setStatus(ctx, script.ID, types.ScriptStatusError); err != nil {
			ss.log.Error("failed to persist error status", "script_id", script.ID, "error", err)
		}
		script.Status = types.ScriptStatusError
		return script, apierr.Service(fmt.Errorf("script uploaded but training failed: %w", trainErr))
	}

	if err := ss.setStatus(ctx, script.ID, types.ScriptStatusProcessing); err != nil {
		ss.log.Error("failed to persist processing status", "script_id", script.ID, "error", err)
		return script, apierr.Storage(fmt.Errorf("persist processing status: %w", err))
	}
	script.Status = types.ScriptStatusProcessing
	ss.log.Info("script submitted for training", "script_id", script.ID, "status", script.Status)
	return script, nil
}

func (ss *scriptService) setStatus(ctx context.Context, id uuid.UUID, status string) error {
	return ss.scriptRepo.Updates(ctx, nil, id, map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	})
}

func (ss *scriptService) Get(ctx context.Context, id uuid.UUID) (*types.Script, error) {
	script, err := ss.scriptRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("script")
		}
		return nil, apierr.Storage(fmt.Errorf("load script: %w", err))
	}
	if script.StorageKey != "" {
		script.FileURL = ss.bucketService.GetPublicURL(script.StorageKey)
	}
	return script, nil
}

func (ss *scriptService) List(ctx context.Context, filter repos.ScriptListFilter) ([]*types.Script, int64, error) {
	scripts, total, err := ss.scriptRepo.List(ctx, nil, filter)
	if err != nil {
		return nil, 0, apierr.Storage(fmt.Errorf("list scripts: %w", err))
	}
	return scripts, total, nil
}

func (ss *scriptService) Search(ctx context.Context, query string, page, limit int) ([]*types.Script, int64, error) {
	scripts, total, err := ss.scriptRepo.Search(ctx, nil, query, page, limit)
	if err != nil {
		return nil, 0, apierr.Storage(fmt.Errorf("search scripts: %w", err))
	}
	return scripts, total, nil
}

func (ss *scriptService) Stats(ctx context.Context) (*repos.ScriptStats, error) {
	stats, err := ss.scriptRepo.Stats(ctx, nil)
	if err != nil {
		return nil, apierr.Storage(fmt.Errorf("script stats: %w", err))
	}
	return stats, nil
}

// UpdateMetadata touches title and metadata only; status, storage key and
// provenance fields are never part of the update map.
func (ss *scriptService) UpdateMetadata(ctx context.Context, id uuid.UUID, upd ScriptMetadataUpdate) (*types.Script, error) {
	if _, err := ss.Get(ctx, id); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if upd.Title != nil {
		updates["title"] = *upd.Title
	}
	if upd.Genre != nil {
		updates["genre"] = *upd.Genre
	}
	if upd.Year != nil {
		updates["year"] = *upd.Year
	}
	if upd.Author != nil {
		updates["author"] = *upd.Author
	}
	if len(updates) > 0 {
		updates["updated_at"] = time.Now()
		if err := ss.scriptRepo.Updates(ctx, nil, id, updates); err != nil {
			return nil, apierr.Storage(fmt.Errorf("update script: %w", err))
		}
	}
	return ss.Get(ctx, id)
}

// Delete removes the blob best-effort and the record authoritatively. A blob
// deletion failure is logged and never blocks the record deletion.
func (ss *scriptService) Delete(ctx context.Context, id uuid.UUID) error {
	script, err := ss.Get(ctx, id)
	if err != nil {
		return err
	}
	if script.StorageKey != "" {
		if err := ss.bucketService.DeleteFile(ctx, script.StorageKey); err != nil {
			ss.log.Error("blob delete failed, continuing with record delete", "script_id", id, "storage_key", script.StorageKey, "error", err)
		}
	}
	found, err := ss.scriptRepo.DeleteByID(ctx, nil, id)
	if err != nil {
		return apierr.Storage(fmt.Errorf("delete script record: %w", err))
	}
	if !found {
		return apierr.NotFound("script")
	}
	ss.log.Info("script deleted", "script_id", id)
	return nil
}

func (ss *scriptService) Download(ctx context.Context, id uuid.UUID) (*types.Script, io.ReadCloser, error) {
	script, err := ss.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := ss.bucketService.DownloadFile(ctx, script.StorageKey)
	if err != nil {
		ss.log.Error("blob missing for script", "script_id", id, "storage_key", script.StorageKey, "error", err)
		return nil, nil, apierr.NotFound("script file")
	}
	return script, rc, nil
}

// CompleteTraining is how a script ever reaches trained: an explicit callback
// from the generation service (or an operator) once training finishes.
func (ss *scriptService) CompleteTraining(ctx context.Context, id uuid.UUID, payload []byte) (*types.Script, error) {
	script, err := ss.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if script.Status == types.ScriptStatusError {
		return nil, apierr.Conflict(fmt.Errorf("script %s is in error status, resubmit before completing training", id))
	}
	updates := map[string]interface{}{
		"status":     types.ScriptStatusTrained,
		"updated_at": time.Now(),
	}
	if len(payload) > 0 {
		updates["training_data"] = datatypes.JSON(payload)
	}
	if err := ss.scriptRepo.Updates(ctx, nil, id, updates); err != nil {
		return nil, apierr.Storage(fmt.Errorf("persist trained status: %w", err))
	}
	return ss.Get(ctx, id)
}

// Resubmit is the explicit retry: it re-drives the training submission for a
// script whose previous submission failed. Any other status is rejected so a
// processing or trained script cannot be demoted.
func (ss *scriptService) Resubmit(ctx context.Context, id uuid.UUID) (*types.Script, error) {
	script, err := ss.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if script.Status != types.ScriptStatusError {
		return nil, apierr.Conflict(fmt.Errorf("script %s has status %q, only error-status scripts can be resubmitted", id, script.Status))
	}
	return ss.submitForTraining(ctx, script)
}

func defaultTitle(title, originalName string) string {
	if strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title)
	}
	base := filepath.Base(originalName)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func defaultString(val, fallback string) string {
	if strings.TrimSpace(val) == "" {
		return fallback
	}
	return strings.TrimSpace(val)
}

// decodeContent extracts the text content when the upload is plausibly text;
// binary document formats get a placeholder marker instead, which is not an
// ingestion failure.
func decodeContent(raw []byte, ext, mimeType string) string {
	isText := ext == ".txt" || strings.HasPrefix(mimeType, "text/")
	if isText && utf8.Valid(raw) {
		return string(raw)
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return fmt.Sprintf("[Binary file content - %s]", mimeType)
}
