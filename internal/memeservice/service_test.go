package memeservice

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/fele-systems/memendex/internal/apperr"
	"github.com/fele-systems/memendex/internal/models"
	"github.com/fele-systems/memendex/internal/storage"
	"github.com/fele-systems/memendex/internal/testutil"
	"github.com/fele-systems/memendex/internal/thumbnail"
)

func newService(t *testing.T) (*Service, string) {
	t.Helper()
	db := testutil.TestDB(t)
	uploadDir, store := testutil.TestStore(t)
	thumbs, err := thumbnail.NewCache(t.TempDir(), store)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	return New(db, store, thumbs), uploadDir
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func strptr(s string) *string { return &s }

func TestSaveFile_RoundTrip(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	content := pngBytes(t, 4, 4)

	meme, err := svc.SaveFile(ctx, "cat.png", "a cat", "image/png", bytes.NewReader(content))
	if err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	if meme.Kind != models.KindFile {
		t.Errorf("kind = %v, want file", meme.Kind)
	}
	if meme.Extension == nil || *meme.Extension != "png" {
		t.Errorf("extension = %v, want png", meme.Extension)
	}

	rc, name, err := svc.Download(ctx, meme.ID)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if !bytes.Equal(got, content) {
		t.Error("downloaded bytes differ from upload")
	}
	if name != "cat.png" {
		t.Errorf("download name = %q, want original display name", name)
	}
}

func TestSaveFile_UnknownTypeFallsBackToNameExtension(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	meme, err := svc.SaveFile(ctx, "notes.txt", "", "text/plain", bytes.NewReader([]byte("hi")))
	if err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	if meme.Extension == nil || *meme.Extension != "txt" {
		t.Errorf("extension = %v, want txt", meme.Extension)
	}

	bare, err := svc.SaveFile(ctx, "mystery", "", "application/octet-stream", bytes.NewReader([]byte("hi")))
	if err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	if bare.Extension == nil || *bare.Extension != "dat" {
		t.Errorf("extension = %v, want dat fallback", bare.Extension)
	}
}

func TestSaveFile_RequiresNameAndType(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.SaveFile(ctx, "", "", "image/png", bytes.NewReader(nil))
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("missing name: err = %v, want ErrInvalidInput", err)
	}
	_, err = svc.SaveFile(ctx, "x.png", "", "", bytes.NewReader(nil))
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("missing type: err = %v, want ErrInvalidInput", err)
	}
}

func TestSaveLinkAndNote(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	link, err := svc.SaveLink(ctx, "front page", "https://example.com")
	if err != nil {
		t.Fatalf("SaveLink: %v", err)
	}
	if link.Kind != models.KindLink || link.FileName != "https://example.com" {
		t.Errorf("link = %+v", link)
	}
	if link.Extension != nil {
		t.Error("links must not carry an extension")
	}

	note, err := svc.SaveNote(ctx, "remember this", "shopping")
	if err != nil {
		t.Fatalf("SaveNote: %v", err)
	}
	if note.Kind != models.KindNote || note.FileName != "shopping" {
		t.Errorf("note = %+v", note)
	}

	if _, err := svc.SaveLink(ctx, "", ""); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("empty link: err = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.SaveNote(ctx, "", ""); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("empty title: err = %v, want ErrInvalidInput", err)
	}
}

func TestList_HasNext(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := svc.SaveNote(ctx, "", "note"); err != nil {
			t.Fatal(err)
		}
	}

	page1, err := svc.List(ctx, 1, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page1.Count != 2 || page1.TotalCount != 5 || !page1.HasNext {
		t.Errorf("page1 = %+v", page1)
	}

	page3, err := svc.List(ctx, 3, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page3.Count != 1 || page3.HasNext {
		t.Errorf("page3 = %+v, want last page without next", page3)
	}
}

func TestList_NormalizesPaging(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	svc.SaveNote(ctx, "", "only")

	page, err := svc.List(ctx, 0, 5000)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Page != 1 {
		t.Errorf("page = %d, want 0 normalized to 1", page.Page)
	}
	if page.PageSize != 100 {
		t.Errorf("size = %d, want oversized request clamped to default 100", page.PageSize)
	}
}

func TestSearch_ShortQueryReturnsEmptyPage(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	svc.SaveNote(ctx, "ab something", "ab")

	page, err := svc.Search(ctx, "ab", 1, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if page.Count != 0 || page.HasNext {
		t.Errorf("page = %+v, want empty", page)
	}
	if page.Data == nil {
		t.Error("empty page must carry a non-nil data slice")
	}
}

func TestSearch_TrimsExtraRowForHasNext(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		svc.SaveNote(ctx, "drake approves", "drake meme")
	}

	page, err := svc.Search(ctx, "drake", 1, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if page.Count != 2 || !page.HasNext {
		t.Errorf("page = %+v, want 2 rows with hasNext", page)
	}
	if page.TotalCount != -1 {
		t.Errorf("totalCount = %d, want -1 for search", page.TotalCount)
	}
}

func TestUpdate_PatchAndTouch(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	note, _ := svc.SaveNote(ctx, "old body", "old title")

	patched, err := svc.Update(ctx, note.ID, models.MemePatch{FileName: strptr("new title")}, nil)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if patched.FileName != "new title" || patched.Description != "old body" {
		t.Errorf("patched = %+v", patched)
	}
	if patched.UpdatedAt == nil {
		t.Error("patch must stamp updated_at")
	}

	touched, err := svc.Update(ctx, note.ID, models.MemePatch{}, &[]string{"#funny"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if touched.FileName != "new title" {
		t.Error("tag-only update must not change fields")
	}
	if len(touched.Tags) != 1 || touched.Tags[0] != "#funny" {
		t.Errorf("tags = %v, want [#funny]", touched.Tags)
	}
}

func TestUpdate_TagsAreTriState(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	note, _ := svc.SaveNote(ctx, "", "tagged")
	if _, err := svc.Update(ctx, note.ID, models.MemePatch{}, &[]string{"#keep", "#funny/dark"}); err != nil {
		t.Fatal(err)
	}

	// nil leaves links alone.
	got, err := svc.Update(ctx, note.ID, models.MemePatch{Description: strptr("body")}, nil)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(got.Tags) != 2 {
		t.Errorf("tags = %v, nil must leave them untouched", got.Tags)
	}

	// empty slice removes them all.
	got, err = svc.Update(ctx, note.ID, models.MemePatch{}, &[]string{})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(got.Tags) != 0 {
		t.Errorf("tags = %v, empty set must remove every link", got.Tags)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Update(context.Background(), 404, models.MemePatch{}, nil)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdate_ExtensionChangeRenamesContent(t *testing.T) {
	svc, uploadDir := newService(t)
	ctx := context.Background()

	meme, err := svc.SaveFile(ctx, "pic.png", "", "image/png", bytes.NewReader(pngBytes(t, 4, 4)))
	if err != nil {
		t.Fatalf("SaveFile: %v", err)
	}

	if _, err := svc.Update(ctx, meme.ID, models.MemePatch{Extension: strptr("gif")}, nil); err != nil {
		t.Fatalf("Update: %v", err)
	}

	oldPath := filepath.Join(uploadDir, storage.PhysicalName(meme.ID, "png"))
	newPath := filepath.Join(uploadDir, storage.PhysicalName(meme.ID, "gif"))
	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Error("old physical file must be gone after extension change")
	}
	if _, err := os.Stat(newPath); err != nil {
		t.Errorf("renamed file missing: %v", err)
	}

	got, _ := svc.Get(ctx, meme.ID)
	if got.Extension == nil || *got.Extension != "gif" {
		t.Errorf("extension = %v, want gif", got.Extension)
	}
}

func TestThumbnail_RejectsNonFileMemes(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	note, _ := svc.SaveNote(ctx, "", "no pixels here")

	if _, _, err := svc.Thumbnail(ctx, note.ID); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestThumbnail_AlwaysJPEG(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	meme, err := svc.SaveFile(ctx, "pic.png", "", "image/png", bytes.NewReader(pngBytes(t, 50, 25)))
	if err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	data, contentType, err := svc.Thumbnail(ctx, meme.ID)
	if err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}
	if contentType != "image/jpeg" {
		t.Errorf("content type = %q, want image/jpeg", contentType)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode thumbnail: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("format = %q, want jpeg", format)
	}
	if cfg.Height != 100 || cfg.Width != 200 {
		t.Errorf("thumbnail = %dx%d, want 200x100", cfg.Width, cfg.Height)
	}
}

func TestDownload_RejectsMemesWithoutContent(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	link, _ := svc.SaveLink(ctx, "", "https://example.com")

	if _, _, err := svc.Download(ctx, link.ID); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestSuggestTags_BlankTermReturnsTop(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	a, _ := svc.SaveNote(ctx, "", "a")
	b, _ := svc.SaveNote(ctx, "", "b")
	svc.Update(ctx, a.ID, models.MemePatch{}, &[]string{"#popular", "#rare"})
	svc.Update(ctx, b.ID, models.MemePatch{}, &[]string{"#popular"})

	top, err := svc.SuggestTags(ctx, "  ", 10)
	if err != nil {
		t.Fatalf("SuggestTags: %v", err)
	}
	if len(top) != 2 || top[0].Tag != "#popular" || top[0].Count != 2 {
		t.Errorf("top = %+v, want #popular first with count 2", top)
	}

	filtered, err := svc.SuggestTags(ctx, "rare", 10)
	if err != nil {
		t.Fatalf("SuggestTags: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Tag != "#rare" {
		t.Errorf("filtered = %+v, want just #rare", filtered)
	}
}
