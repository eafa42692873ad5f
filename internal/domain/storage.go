package domain

import (
	"context"
	"io"
	"strings"
)

// Тип ресурса в хранилище
type ResourceKind string

const (
	KindImage ResourceKind = "image"
	KindVideo ResourceKind = "video"
	KindRaw   ResourceKind = "raw"
)

// Папка, в которую складываются файлы продуктов
const ProductsFolder = "products"

// KindFromContentType: video/* -> video, image/* -> image, всё остальное (pdf, zip, docx) -> raw.
func KindFromContentType(ct string) ResourceKind {
	ct = strings.ToLower(strings.TrimSpace(ct))
	switch {
	case strings.HasPrefix(ct, "video"):
		return KindVideo
	case strings.HasPrefix(ct, "image"):
		return KindImage
	default:
		return KindRaw
	}
}

type UploadRequest struct {
	Body        io.Reader
	Filename    string // исходное имя, из него берётся расширение
	ContentType string
	Size        int64 // -1 если неизвестен
	Folder      string
}

// Результат загрузки: ссылка, которую сохраняем в продукте
type StoredObject struct {
	Reference string
	Kind      ResourceKind
}

type DownloadRequest struct {
	ObjectID  string
	Kind      ResourceKind
	Extension string
	Filename  string // имя файла в Content-Disposition: attachment
}

// AssetTarget — что именно удалить из хранилища. Ключ идемпотентности ObjectID+Kind.
type AssetTarget struct {
	ObjectID string
	Kind     ResourceKind
}

func (t AssetTarget) Key() string { return string(t.Kind) + "|" + t.ObjectID }

// Шлюз к объектному хранилищу (S3/MinIO)
type AssetGateway interface {
	Upload(ctx context.Context, req UploadRequest) (StoredObject, error)
	// Delete возвращает ErrNotFound, если объекта уже нет.
	Delete(ctx context.Context, objectID string, kind ResourceKind) error
	DownloadURL(ctx context.Context, req DownloadRequest) (string, error)
}
