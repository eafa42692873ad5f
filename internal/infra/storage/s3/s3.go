package s3

import (
	"context"
	"fmt"
	"log"
	"mime"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/EgorLis/asset-catalog/internal/domain"
)

const defaultExt = "jpg"

type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	PathStyle bool

	// База ссылок, которые сохраняются в продуктах: <base>/<kind>/upload/v<ver>/<id>.<ext>
	PublicBaseURL string
	DownloadTTL   time.Duration
}

// Storage — шлюз к S3/MinIO. Ключ объекта в бакете совпадает с его идентификатором
// (папка + public id, без расширения), тип и расширение лежат в метаданных.
type Storage struct {
	cl          *minio.Client
	bucket      string
	publicBase  string
	downloadTTL time.Duration
	logger      *log.Logger
	obs         Observer
	now         func() time.Time
}

var _ domain.AssetGateway = (*Storage)(nil)

func New(ctx context.Context, cfg Config, logger *log.Logger, obs Observer) (*Storage, error) {
	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	}
	if cfg.PathStyle {
		opts.BucketLookup = minio.BucketLookupPath
	}
	cl, err := minio.New(cfg.Endpoint, opts)
	if err != nil {
		return nil, err
	}
	if obs == nil {
		obs = nopObserver{}
	}
	ttl := cfg.DownloadTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Storage{
		cl:          cl,
		bucket:      cfg.Bucket,
		publicBase:  strings.TrimRight(cfg.PublicBaseURL, "/"),
		downloadTTL: ttl,
		logger:      logger,
		obs:         obs,
		now:         time.Now,
	}, nil
}

// Ping проверяет, что бакет доступен (readiness).
func (s *Storage) Ping(ctx context.Context) error {
	ok, err := s.cl.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bucket %q does not exist", s.bucket)
	}
	return nil
}

// Upload загружает поток и возвращает ссылку для сохранения в продукте.
func (s *Storage) Upload(ctx context.Context, req domain.UploadRequest) (domain.StoredObject, error) {
	start := time.Now()
	kind := domain.KindFromContentType(req.ContentType)
	ext := extFromFilename(req.Filename)
	folder := req.Folder
	if folder == "" {
		folder = domain.ProductsFolder
	}
	now := s.now()
	objectID := folder + "/" + newPublicID(now)

	size := req.Size
	if size <= 0 {
		size = -1
	}
	ct := req.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	info, err := s.cl.PutObject(ctx, s.bucket, objectID, req.Body, size, minio.PutObjectOptions{
		ContentType: ct,
		UserMetadata: map[string]string{
			"kind": string(kind),
			"ext":  ext,
		},
	})
	s.obs.RecordUpload(kind, time.Since(start), info.Size, err)
	if err != nil {
		s.logger.Printf("put %s failed after %s: %v", objectID, time.Since(start), err)
		return domain.StoredObject{}, fmt.Errorf("%w: put %s: %v", domain.ErrStorageUnavailable, objectID, err)
	}

	ref := BuildReference(s.publicBase, kind, "v"+strconv.FormatInt(now.Unix(), 10), objectID, ext)
	s.logger.Printf("put ok in %s key=%s kind=%s size=%d", time.Since(start), objectID, kind, info.Size)
	return domain.StoredObject{Reference: ref, Kind: kind}, nil
}

// Delete удаляет объект. Отсутствующий объект — domain.ErrNotFound.
func (s *Storage) Delete(ctx context.Context, objectID string, kind domain.ResourceKind) error {
	start := time.Now()
	_, err := s.cl.StatObject(ctx, s.bucket, objectID, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			s.obs.RecordDelete(kind, time.Since(start), nil)
			return fmt.Errorf("%w: object %s", domain.ErrNotFound, objectID)
		}
		s.obs.RecordDelete(kind, time.Since(start), err)
		return fmt.Errorf("%w: stat %s: %v", domain.ErrStorageUnavailable, objectID, err)
	}

	err = s.cl.RemoveObject(ctx, s.bucket, objectID, minio.RemoveObjectOptions{})
	s.obs.RecordDelete(kind, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("%w: remove %s: %v", domain.ErrStorageUnavailable, objectID, err)
	}
	s.logger.Printf("remove ok in %s key=%s kind=%s", time.Since(start), objectID, kind)
	return nil
}

// DownloadURL выдаёт presigned-ссылку с Content-Disposition: attachment,
// чтобы браузер скачал файл под человекочитаемым именем.
func (s *Storage) DownloadURL(ctx context.Context, req domain.DownloadRequest) (string, error) {
	start := time.Now()
	params := url.Values{}
	params.Set("response-content-disposition", contentDisposition(req.Filename))
	if ct := mime.TypeByExtension("." + req.Extension); ct != "" {
		params.Set("response-content-type", ct)
	}

	u, err := s.cl.PresignedGetObject(ctx, s.bucket, req.ObjectID, s.downloadTTL, params)
	s.obs.RecordDownloadURL(req.Kind, time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("%w: presign %s: %v", domain.ErrStorageUnavailable, req.ObjectID, err)
	}
	return u.String(), nil
}

// BuildReference собирает ссылку в формате, который понимает domain.ParseAssetRef.
func BuildReference(base string, kind domain.ResourceKind, version, objectID, ext string) string {
	ref := strings.TrimRight(base, "/") + "/" + string(kind) + "/upload/" + version + "/" + objectID
	if ext != "" {
		ref += "." + ext
	}
	return ref
}

// <unix-millis>-<6 символов>
func newPublicID(now time.Time) string {
	rnd := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%d-%s", now.UnixMilli(), rnd[:6])
}

func extFromFilename(name string) string {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
	if ext == "" {
		return defaultExt
	}
	return ext
}

func contentDisposition(filename string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return "attachment"
}

func isNoSuchKey(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}
