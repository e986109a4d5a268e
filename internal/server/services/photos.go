package services

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/vistoria/internal/common"
	"github.com/dmitrijs2005/vistoria/internal/dbx"
	"github.com/dmitrijs2005/vistoria/internal/logging"
	sc "github.com/dmitrijs2005/vistoria/internal/server/config"
	"github.com/dmitrijs2005/vistoria/internal/server/models"
	"github.com/dmitrijs2005/vistoria/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/vistoria/internal/server/storage"
)

var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
	"image/heic": "heic",
	"image/heif": "heif",
}

// PhotoService stores uploaded photos and records their metadata.
type PhotoService struct {
	db          dbx.DB
	repomanager repomanager.RepositoryManager
	store       storage.Store
	maxSize     int64
	logger      logging.Logger

	now    func() time.Time
	random func() (string, error)
	newID  func() string
}

func NewPhotoService(db dbx.DB, repomanager repomanager.RepositoryManager, store storage.Store, config *sc.Config, logger logging.Logger) *PhotoService {
	return &PhotoService{
		db:          db,
		repomanager: repomanager,
		store:       store,
		maxSize:     config.MaxUploadSize,
		logger:      logger.With("module", "photos"),
		now:         time.Now,
		random:      func() (string, error) { return common.MakeRandHexString(8) },
		newID:       uuid.NewString,
	}
}

// fileExtension picks the stored extension: the client's if it is short and
// alphanumeric, else one derived from the MIME type, else "bin".
func fileExtension(clientName, mimeType string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(clientName), "."))
	if ext != "" && len(ext) <= 8 && isAlnum(ext) {
		return ext
	}

	mt, _, err := mime.ParseMediaType(mimeType)
	if err == nil {
		if e, ok := imageExtensions[mt]; ok {
			return e
		}
		if exts, err := mime.ExtensionsByType(mt); err == nil && len(exts) > 0 {
			return strings.TrimPrefix(exts[0], ".")
		}
	}
	return "bin"
}

func isAlnum(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// storedName builds photo_<random>_<unix>.<ext>; the client name only
// contributes its extension.
func (s *PhotoService) storedName(clientName, mimeType string) (string, error) {
	token, err := s.random()
	if err != nil {
		return "", fmt.Errorf("random token: %w", err)
	}
	return fmt.Sprintf("photo_%s_%d.%s", token, s.now().Unix(), fileExtension(clientName, mimeType)), nil
}

// Upload writes the photo content first and then, in one transaction, gets
// or creates the card-inspection row and inserts the photo row, so a failed
// write never leaves metadata behind.
func (s *PhotoService) Upload(ctx context.Context, up models.PhotoUpload, content io.Reader) (*models.Photo, error) {
	up.InspectionID = strings.TrimSpace(up.InspectionID)
	up.CardID = strings.TrimSpace(up.CardID)
	if up.InspectionID == "" || up.CardID == "" {
		return nil, common.Validationf("inspection_id and card_id are required")
	}
	if content == nil || up.Size <= 0 {
		return nil, common.Validationf("no file provided")
	}
	if s.maxSize > 0 && up.Size > s.maxSize {
		return nil, common.Validationf("file exceeds the %d byte limit", s.maxSize)
	}

	if _, err := s.repomanager.Inspections(s.db).Get(ctx, up.InspectionID); err != nil {
		return nil, fmt.Errorf("upload photo: %w", err)
	}
	if err := s.checkCard(ctx, up.CardID); err != nil {
		return nil, err
	}

	name, err := s.storedName(up.FileName, up.MimeType)
	if err != nil {
		return nil, fmt.Errorf("upload photo: %w: %w", common.ErrStorageWrite, err)
	}

	written, err := s.store.Put(ctx, name, content, up.Size, up.MimeType)
	if err != nil {
		return nil, fmt.Errorf("upload photo: %w", err)
	}
	if written <= 0 {
		written = up.Size
	}

	photo := &models.Photo{
		ID:       s.newID(),
		FileName: name,
		FileSize: written,
		MimeType: up.MimeType,
	}
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		ciID, err := s.repomanager.CardInspections(tx).GetOrCreate(ctx, up.InspectionID, up.CardID)
		if err != nil {
			return err
		}
		photo.CardInspectionID = ciID
		return s.repomanager.Photos(tx).Create(ctx, photo)
	})
	if err != nil {
		s.logger.Error(ctx, "photo metadata not recorded, stored file is orphaned", "file", name, "error", err)
		return nil, fmt.Errorf("record photo: %w", err)
	}

	photo.URL = s.store.URL(name)
	s.logger.Info(ctx, "photo stored", "inspection_id", up.InspectionID, "card_id", up.CardID, "file", name, "size", written)
	return photo, nil
}

func (s *PhotoService) checkCard(ctx context.Context, cardID string) error {
	cards, err := s.repomanager.Cards(s.db).List(ctx)
	if err != nil {
		return fmt.Errorf("upload photo: %w", err)
	}
	for _, c := range cards {
		if c.ID == cardID {
			return nil
		}
	}
	return common.Errorf(common.ErrReferenceNotFound, "unknown card %s", cardID)
}
