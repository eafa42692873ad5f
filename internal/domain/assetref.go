package domain

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// Разбор ссылки вида <base>/<kind>/upload/v<version>/<path>.<ext>.
// Ссылка хранится как строка; структура каждый раз извлекается заново.

const uploadMarker = "upload"

var versionRe = regexp.MustCompile(`^v\d+$`)

// Варианты ошибок разбора. Все оборачивают ErrMalformedReference.
var (
	ErrNoUploadMarker  = fmt.Errorf("%w: upload segment not found", ErrMalformedReference)
	ErrNoVersionMarker = fmt.Errorf("%w: version segment not found", ErrMalformedReference)
	ErrEmptyObjectPath = fmt.Errorf("%w: empty object path", ErrMalformedReference)
)

type RefParseError struct {
	Ref string
	Err error
}

func (e *RefParseError) Error() string { return fmt.Sprintf("parse asset ref %q: %v", e.Ref, e.Err) }
func (e *RefParseError) Unwrap() error { return e.Err }

type AssetRef struct {
	Kind       ResourceKind
	Version    string // "v1712345678"
	ObjectPath string // "products/abc123.png"
	ObjectID   string // "products/abc123"
	Extension  string // "png"; пусто, если в пути нет расширения
}

// ParseAssetRef разбирает ссылку на объект хранилища.
func ParseAssetRef(ref string) (AssetRef, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return AssetRef{}, &RefParseError{Ref: ref, Err: fmt.Errorf("%w: %v", ErrMalformedReference, err)}
	}

	parts := strings.Split(u.Path, "/")
	uploadIdx := -1
	for i, s := range parts {
		if s == uploadMarker {
			uploadIdx = i
			break
		}
	}
	if uploadIdx <= 0 {
		return AssetRef{}, &RefParseError{Ref: ref, Err: ErrNoUploadMarker}
	}

	kind := ResourceKind(parts[uploadIdx-1])
	if kind == "" {
		kind = KindImage
	}

	after := parts[uploadIdx+1:]
	versionIdx := -1
	for i, s := range after {
		if versionRe.MatchString(s) {
			versionIdx = i
			break
		}
	}
	if versionIdx == -1 {
		return AssetRef{}, &RefParseError{Ref: ref, Err: ErrNoVersionMarker}
	}

	full := strings.Join(after[versionIdx+1:], "/")
	if full == "" {
		return AssetRef{}, &RefParseError{Ref: ref, Err: ErrEmptyObjectPath}
	}

	ext := extension(full)
	id := full
	if ext != "" {
		id = strings.TrimSuffix(full, "."+ext)
	}

	return AssetRef{
		Kind:       kind,
		Version:    after[versionIdx],
		ObjectPath: full,
		ObjectID:   id,
		Extension:  ext,
	}, nil
}

// расширение берётся только из последнего сегмента пути
func extension(p string) string {
	base := path.Base(p)
	i := strings.LastIndex(base, ".")
	if i < 0 || i == len(base)-1 {
		return ""
	}
	return base[i+1:]
}

// InferKind: эвристика по расширению: .mp4/.webm/.ogg это видео, всё остальное картинка.
// Содержимое объекта, query и fragment не учитываются.
func InferKind(ref string) ResourceKind {
	p := refPath(ref)
	for _, suf := range []string{".mp4", ".webm", ".ogg"} {
		if strings.HasSuffix(p, suf) {
			return KindVideo
		}
	}
	return KindImage
}

// ReclaimTargetFor строит цель удаления для ссылки продукта.
// Если ссылку не удалось разобрать, идентификатор собирается из имени файла
// без расширения внутри папки products.
func ReclaimTargetFor(ref string) AssetTarget {
	t := AssetTarget{Kind: InferKind(ref)}
	if parsed, err := ParseAssetRef(ref); err == nil {
		t.ObjectID = parsed.ObjectID
		return t
	}
	base := refPath(ref)
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndex(base, "."); i >= 0 {
		base = base[:i]
	}
	t.ObjectID = ProductsFolder + "/" + base
	return t
}

func refPath(ref string) string {
	if u, err := url.Parse(ref); err == nil {
		return u.Path
	}
	return ref
}
