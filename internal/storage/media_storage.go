package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
)

// Категории файлов в хранилище, каждая живёт в своём каталоге.
const (
	KindOrderPhoto  = "orders"
	KindReviewPhoto = "reviews"
	KindChatImage   = "chat"
	KindChatVoice   = "voice"
	KindAvatar      = "avatars"
)

// MediaStorage отвечает за файловое хранилище: фото до/после уборки,
// фотографии отзывов, вложения чата и аватары. Тип файла проверяется
// по содержимому, не по расширению.
type MediaStorage struct {
	rootPath       string
	maxUploadBytes int64
}

// NewMediaStorage создаёт файловое хранилище.
func NewMediaStorage(rootPath string, maxUploadMB int64) (*MediaStorage, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог %s: %w", rootPath, err)
	}

	return &MediaStorage{
		rootPath:       rootPath,
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}, nil
}

// SaveImage сохраняет изображение и возвращает относительный путь.
// Принимаются только jpeg, png и webp.
func (s *MediaStorage) SaveImage(ctx context.Context, kind string, ownerID uuid.UUID, originalName string, r io.Reader) (string, int64, error) {
	return s.save(ctx, kind, ownerID, originalName, r, isImage)
}

// SaveAudio сохраняет голосовое сообщение. Принимаются mp3, ogg и m4a.
func (s *MediaStorage) SaveAudio(ctx context.Context, ownerID uuid.UUID, originalName string, r io.Reader) (string, int64, error) {
	return s.save(ctx, KindChatVoice, ownerID, originalName, r, isAudio)
}

func (s *MediaStorage) save(ctx context.Context, kind string, ownerID uuid.UUID, originalName string, r io.Reader, accept func([]byte) bool) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	// Заголовка в 262 байта достаточно для определения типа.
	head := make([]byte, 262)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return "", 0, fmt.Errorf("storage: не удалось прочитать файл: %w", err)
	}
	head = head[:n]

	if !accept(head) {
		return "", 0, fmt.Errorf("storage: недопустимый тип файла")
	}

	safeName := sanitizeFilename(originalName)
	fileName := fmt.Sprintf("%s_%d%s", ownerID.String(), time.Now().UnixNano(), filepath.Ext(safeName))

	dir := filepath.Join(s.rootPath, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("storage: не удалось создать каталог: %w", err)
	}

	targetPath := filepath.Join(dir, fileName)
	tempPath := targetPath + ".tmp"

	f, err := os.Create(tempPath)
	if err != nil {
		return "", 0, fmt.Errorf("storage: не удалось создать файл: %w", err)
	}
	defer f.Close()

	limited := io.LimitedReader{R: io.MultiReader(bytes.NewReader(head), r), N: s.maxUploadBytes + 1}
	written, err := io.Copy(f, &limited)
	if err != nil {
		_ = os.Remove(tempPath)
		return "", 0, fmt.Errorf("storage: ошибка записи файла: %w", err)
	}

	if written > s.maxUploadBytes {
		_ = os.Remove(tempPath)
		return "", 0, fmt.Errorf("storage: размер файла превышает лимит %d байт", s.maxUploadBytes)
	}

	if err := f.Close(); err != nil {
		return "", 0, fmt.Errorf("storage: ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		return "", 0, fmt.Errorf("storage: не удалось переименовать файл: %w", err)
	}

	return filepath.Join(kind, fileName), written, nil
}

// Delete удаляет файл из хранилища.
func (s *MediaStorage) Delete(ctx context.Context, relativePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := filepath.Join(s.rootPath, filepath.Clean(relativePath))
	if !strings.HasPrefix(target, s.rootPath) {
		return fmt.Errorf("storage: путь вне хранилища")
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: не удалось удалить файл: %w", err)
	}
	return nil
}

func isImage(head []byte) bool {
	t, err := filetype.Match(head)
	if err != nil {
		return false
	}
	switch t {
	case matchers.TypeJpeg, matchers.TypePng, matchers.TypeWebp:
		return true
	}
	return false
}

func isAudio(head []byte) bool {
	t, err := filetype.Match(head)
	if err != nil {
		return false
	}
	switch t {
	case matchers.TypeMp3, matchers.TypeOgg, matchers.TypeM4a:
		return true
	}
	return false
}

// sanitizeFilename удаляет потенциально опасные символы.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	if name == "" {
		name = "file"
	}
	return name
}
