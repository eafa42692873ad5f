package domain

import "context"

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

type ProductFilter struct {
	Search     string // подстрока имени, без учёта регистра
	CategoryID *CategoryID
	Page       int
	Limit      int
}

type CategoryFilter struct {
	Search string
	Page   int
	Limit  int
}

// Normalize приводит page/limit к допустимым значениям.
func Normalize(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// Точечное обновление: nil означает "поле не трогаем".
// Media == nil оставляет прежний список, File на "" очищает файл.
type ProductUpdate struct {
	Name       *string
	FileType   *string
	CategoryID *CategoryID
	FileSize   *float64
	Thumbnail  *string
	Media      []string
	File       *string
}

type CategoryUpdate struct {
	Name        *string
	Description *string
}

type ProductsRepo interface {
	CreateProduct(ctx context.Context, p Product) (Product, error)
	// Возвращает продукт с подставленной категорией; ErrNotFound если нет.
	ProductByID(ctx context.Context, id ProductID) (Product, error)
	// Возвращает страницу и общее количество по фильтру.
	ListProducts(ctx context.Context, f ProductFilter) ([]Product, int, error)
	UpdateProduct(ctx context.Context, id ProductID, u ProductUpdate) (Product, error)
	// Удаляет и возвращает удалённую запись.
	DeleteProduct(ctx context.Context, id ProductID) (Product, error)
	// Атомарный инкремент на стороне БД.
	IncrementDownloadCount(ctx context.Context, id ProductID) (Product, error)
	CountProductsByCategory(ctx context.Context, id CategoryID) (int, error)
}

type CategoriesRepo interface {
	CreateCategory(ctx context.Context, c Category) (Category, error)
	CategoryByID(ctx context.Context, id CategoryID) (Category, error)
	ListCategories(ctx context.Context, f CategoryFilter) ([]Category, int, error)
	UpdateCategory(ctx context.Context, id CategoryID, u CategoryUpdate) (Category, error)
	DeleteCategory(ctx context.Context, id CategoryID) error
}

// Store — полный контракт хранилища данных (postgres или gorm).
type Store interface {
	ProductsRepo
	CategoriesRepo
	Ping(context.Context) error
	Close()
}
