package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tradehub/internal/config"
	"tradehub/internal/models"
	"tradehub/internal/storage"
	"tradehub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestUploadService_Upload(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(storage.Config{BasePath: dir, BaseURL: "/uploads"})
	require.NoError(t, err)
	svc := NewUploadService(store, &config.Config{UploadMaxSizeMB: 1})
	ctx := context.Background()

	_, err = svc.Upload(ctx, UploadImageInput{UserID: 7, Filename: "a.png"})
	assertCode(t, err, models.CodeValidation)

	_, err = svc.Upload(ctx, UploadImageInput{UserID: 7, Filename: "a.txt", Content: []byte("just some text")})
	assertCode(t, err, models.CodeValidation)

	big := make([]byte, svc.MaxUploadSize()+1)
	copy(big, pngHeader)
	_, err = svc.Upload(ctx, UploadImageInput{UserID: 7, Filename: "big.png", Content: big})
	assertCode(t, err, models.CodeValidation)

	result, err := svc.Upload(ctx, UploadImageInput{UserID: 7, Filename: "a.png", Content: pngHeader})
	require.NoError(t, err)
	assert.Equal(t, "image/png", result.ContentType)
	assert.True(t, strings.HasPrefix(result.URL, "/uploads/7/"))
	assert.True(t, strings.HasSuffix(result.URL, ".png"))

	stored := filepath.Join(dir, strings.TrimPrefix(result.URL, "/uploads/"))
	_, err = os.Stat(stored)
	require.NoError(t, err)
}

func TestLifecycle_DeleteReleasesAttachments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(storage.Config{BasePath: dir, BaseURL: "/uploads"})
	require.NoError(t, err)
	env.lifecycle.storage = store

	upload, err := NewUploadService(store, nil).Upload(ctx, UploadImageInput{UserID: env.alice.ID, Content: pngHeader})
	require.NoError(t, err)

	trade, err := env.trades.Create(ctx, testutil.Caller(env.alice), CreateTradeInput{
		ItemOffered: "Hat",
		Category:    "gear",
		Images:      []string{upload.URL, "https://cdn.example.com/external.png"},
	})
	require.NoError(t, err)

	exists, err := store.Exists(ctx, upload.URL)
	require.NoError(t, err)
	require.True(t, exists)

	require.NoError(t, env.trades.Delete(ctx, testutil.Caller(env.alice), trade.ID))

	exists, err = store.Exists(ctx, upload.URL)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLifecycle_ForeignUploadsAreNotAttachedOrReleased(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	store, err := storage.NewLocalStorage(storage.Config{BasePath: t.TempDir(), BaseURL: "/uploads"})
	require.NoError(t, err)
	env.lifecycle.storage = store
	uploads := NewUploadService(store, nil)

	bobs, err := uploads.Upload(ctx, UploadImageInput{UserID: env.bob.ID, Content: pngHeader})
	require.NoError(t, err)

	_, err = env.trades.Create(ctx, testutil.Caller(env.alice), CreateTradeInput{
		ItemOffered: "Hat",
		Category:    "gear",
		Images:      []string{bobs.URL},
	})
	assertReason(t, err, models.CodeForbidden, models.ReasonNotOwner)

	// A path that walks out of the owner's directory is judged by where it lands.
	sneaky := fmt.Sprintf("/uploads/%d/../%s", env.alice.ID, strings.TrimPrefix(bobs.URL, "/uploads/"))
	_, err = env.trades.Create(ctx, testutil.Caller(env.alice), CreateTradeInput{
		ItemOffered: "Hat",
		Category:    "gear",
		Images:      []string{sneaky},
	})
	assertReason(t, err, models.CodeForbidden, models.ReasonNotOwner)

	trade := env.createTrade(t, env.alice, "Fedora")
	_, err = env.trades.Update(ctx, testutil.Caller(env.alice), trade.ID, UpdateTradeInput{Images: &[]string{bobs.URL}})
	assertReason(t, err, models.CodeForbidden, models.ReasonNotOwner)

	// Rows written before the check existed still must not release Bob's file.
	require.NoError(t, env.db.Model(&models.Trade{}).Where("id = ?", trade.ID).
		Update("images", models.ImageList([]string{bobs.URL})).Error)
	require.NoError(t, env.trades.Delete(ctx, testutil.Caller(env.alice), trade.ID))

	exists, err := store.Exists(ctx, bobs.URL)
	require.NoError(t, err)
	assert.True(t, exists)
}
