package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/EgorLis/asset-catalog/internal/domain"
)

// колонки продукта вместе с краткой категорией
var productCols = []string{
	"p.id", "p.name", "p.thumbnail", "p.media", "COALESCE(p.file, '')", "p.file_type",
	"p.category_id", "COALESCE(c.name, '')", "p.file_size", "p.download_count",
	"p.created_at", "p.updated_at",
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Thumbnail, &p.Media, &p.File, &p.FileType,
		&p.Category.ID, &p.Category.Name, &p.FileSize, &p.DownloadCount,
		&p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// withCategory оборачивает мутирующий запрос с RETURNING * в CTE и подставляет категорию.
func (r *PGRepo) withCategory(inner string) string {
	return "WITH p AS (" + inner + ") SELECT " + strings.Join(productCols, ", ") +
		" FROM p LEFT JOIN " + r.table("categories") + " c ON c.id = p.category_id"
}

func nullableRef(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (r *PGRepo) CreateProduct(ctx context.Context, in domain.Product) (domain.Product, error) {
	q := r.qb().Insert(r.table("products")).
		Columns("name", "thumbnail", "media", "file", "file_type", "category_id", "file_size").
		Values(in.Name, in.Thumbnail, in.Media, nullableRef(in.File), in.FileType, in.Category.ID, in.FileSize).
		Suffix("RETURNING *")

	inner, args, err := q.ToSql()
	if err != nil {
		return domain.Product{}, err
	}
	sqlStr := r.withCategory(inner)
	r.logSQL("CreateProduct", sqlStr, args)

	start := time.Now()
	out, err := scanProduct(r.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		r.logger.Printf("CreateProduct scan error after %s: %v", time.Since(start), err)
		return domain.Product{}, mapPgErr(err)
	}
	r.logger.Printf("CreateProduct ok in %s id=%s name=%q", time.Since(start), out.ID, out.Name)
	return out, nil
}

func (r *PGRepo) ProductByID(ctx context.Context, id domain.ProductID) (domain.Product, error) {
	sb := r.qb().Select(productCols...).
		From(r.table("products") + " p").
		LeftJoin(r.table("categories") + " c ON c.id = p.category_id").
		Where(sq.Eq{"p.id": id})

	sqlStr, args, _ := sb.ToSql()
	r.logSQL("ProductByID", sqlStr, args)

	start := time.Now()
	out, err := scanProduct(r.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		r.logger.Printf("ProductByID scan error after %s: %v", time.Since(start), err)
		return domain.Product{}, mapPgErr(err)
	}
	return out, nil
}

func (r *PGRepo) ListProducts(ctx context.Context, f domain.ProductFilter) ([]domain.Product, int, error) {
	page, limit := domain.Normalize(f.Page, f.Limit)

	where := sq.And{}
	if s := strings.TrimSpace(f.Search); s != "" {
		where = append(where, sq.ILike{"p.name": "%" + escapeLike(s) + "%"})
	}
	if f.CategoryID != nil {
		where = append(where, sq.Eq{"p.category_id": *f.CategoryID})
	}

	cq := r.qb().Select("count(*)").From(r.table("products") + " p").Where(where)
	sqlStr, args, _ := cq.ToSql()
	r.logSQL("ListProducts.count", sqlStr, args)

	var total int
	if err := r.pool.QueryRow(ctx, sqlStr, args...).Scan(&total); err != nil {
		r.logger.Printf("ListProducts count error: %v", err)
		return nil, 0, err
	}

	sb := r.qb().Select(productCols...).
		From(r.table("products") + " p").
		LeftJoin(r.table("categories") + " c ON c.id = p.category_id").
		Where(where).
		OrderBy("p.created_at DESC", "p.id DESC").
		Limit(uint64(limit)).
		Offset(uint64((page - 1) * limit))

	sqlStr, args, _ = sb.ToSql()
	r.logSQL("ListProducts", sqlStr, args)

	start := time.Now()
	rows, err := r.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		r.logger.Printf("ListProducts query error after %s: %v", time.Since(start), err)
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]domain.Product, 0, limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			r.logger.Printf("ListProducts scan error: %v", err)
			return nil, 0, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	r.logger.Printf("ListProducts ok in %s rows=%d total=%d", time.Since(start), len(out), total)
	return out, total, nil
}

func (r *PGRepo) UpdateProduct(ctx context.Context, id domain.ProductID, u domain.ProductUpdate) (domain.Product, error) {
	ub := r.qb().Update(r.table("products")).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id})

	if u.Name != nil {
		ub = ub.Set("name", *u.Name)
	}
	if u.FileType != nil {
		ub = ub.Set("file_type", *u.FileType)
	}
	if u.CategoryID != nil {
		ub = ub.Set("category_id", *u.CategoryID)
	}
	if u.FileSize != nil {
		ub = ub.Set("file_size", *u.FileSize)
	}
	if u.Thumbnail != nil {
		ub = ub.Set("thumbnail", *u.Thumbnail)
	}
	if u.Media != nil {
		ub = ub.Set("media", u.Media)
	}
	if u.File != nil {
		ub = ub.Set("file", nullableRef(*u.File))
	}

	inner, args, err := ub.Suffix("RETURNING *").ToSql()
	if err != nil {
		return domain.Product{}, err
	}
	sqlStr := r.withCategory(inner)
	r.logSQL("UpdateProduct", sqlStr, args)

	start := time.Now()
	out, err := scanProduct(r.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		r.logger.Printf("UpdateProduct scan error after %s: %v", time.Since(start), err)
		return domain.Product{}, mapPgErr(err)
	}
	r.logger.Printf("UpdateProduct ok in %s id=%s", time.Since(start), out.ID)
	return out, nil
}

func (r *PGRepo) DeleteProduct(ctx context.Context, id domain.ProductID) (domain.Product, error) {
	inner, args, _ := r.qb().Delete(r.table("products")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING *").
		ToSql()
	sqlStr := r.withCategory(inner)
	r.logSQL("DeleteProduct", sqlStr, args)

	start := time.Now()
	out, err := scanProduct(r.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		r.logger.Printf("DeleteProduct error after %s: %v", time.Since(start), err)
		return domain.Product{}, mapPgErr(err)
	}
	r.logger.Printf("DeleteProduct ok in %s id=%s", time.Since(start), out.ID)
	return out, nil
}

// IncrementDownloadCount: инкремент выполняется одним UPDATE, без чтения-изменения-записи.
func (r *PGRepo) IncrementDownloadCount(ctx context.Context, id domain.ProductID) (domain.Product, error) {
	inner, args, _ := r.qb().Update(r.table("products")).
		Set("download_count", sq.Expr("download_count + 1")).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING *").
		ToSql()
	sqlStr := r.withCategory(inner)
	r.logSQL("IncrementDownloadCount", sqlStr, args)

	out, err := scanProduct(r.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		r.logger.Printf("IncrementDownloadCount error: %v", err)
		return domain.Product{}, mapPgErr(err)
	}
	return out, nil
}

func (r *PGRepo) CountProductsByCategory(ctx context.Context, id domain.CategoryID) (int, error) {
	sqlStr, args, _ := r.qb().Select("count(*)").
		From(r.table("products")).
		Where(sq.Eq{"category_id": id}).
		ToSql()
	r.logSQL("CountProductsByCategory", sqlStr, args)

	var n int
	if err := r.pool.QueryRow(ctx, sqlStr, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
