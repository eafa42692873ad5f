package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/EgorLis/asset-catalog/internal/domain"
)

var categoryCols = []string{"id", "name", "description", "created_at", "updated_at"}

func scanCategory(row pgx.Row) (domain.Category, error) {
	var c domain.Category
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *PGRepo) CreateCategory(ctx context.Context, in domain.Category) (domain.Category, error) {
	sqlStr, args, _ := r.qb().Insert(r.table("categories")).
		Columns("name", "description").
		Values(in.Name, in.Description).
		Suffix("RETURNING " + strings.Join(categoryCols, ", ")).
		ToSql()
	r.logSQL("CreateCategory", sqlStr, args)

	start := time.Now()
	out, err := scanCategory(r.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		r.logger.Printf("CreateCategory error after %s: %v", time.Since(start), err)
		return domain.Category{}, mapPgErr(err)
	}
	r.logger.Printf("CreateCategory ok in %s id=%s name=%q", time.Since(start), out.ID, out.Name)
	return out, nil
}

func (r *PGRepo) CategoryByID(ctx context.Context, id domain.CategoryID) (domain.Category, error) {
	sqlStr, args, _ := r.qb().Select(categoryCols...).
		From(r.table("categories")).
		Where(sq.Eq{"id": id}).
		ToSql()
	r.logSQL("CategoryByID", sqlStr, args)

	out, err := scanCategory(r.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		return domain.Category{}, mapPgErr(err)
	}
	return out, nil
}

func (r *PGRepo) ListCategories(ctx context.Context, f domain.CategoryFilter) ([]domain.Category, int, error) {
	page, limit := domain.Normalize(f.Page, f.Limit)

	where := sq.And{}
	if s := strings.TrimSpace(f.Search); s != "" {
		where = append(where, sq.ILike{"name": "%" + escapeLike(s) + "%"})
	}

	sqlStr, args, _ := r.qb().Select("count(*)").From(r.table("categories")).Where(where).ToSql()
	r.logSQL("ListCategories.count", sqlStr, args)

	var total int
	if err := r.pool.QueryRow(ctx, sqlStr, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sqlStr, args, _ = r.qb().Select(categoryCols...).
		From(r.table("categories")).
		Where(where).
		OrderBy("name ASC").
		Limit(uint64(limit)).
		Offset(uint64((page - 1) * limit)).
		ToSql()
	r.logSQL("ListCategories", sqlStr, args)

	rows, err := r.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]domain.Category, 0, limit)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *PGRepo) UpdateCategory(ctx context.Context, id domain.CategoryID, u domain.CategoryUpdate) (domain.Category, error) {
	ub := r.qb().Update(r.table("categories")).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id})
	if u.Name != nil {
		ub = ub.Set("name", *u.Name)
	}
	if u.Description != nil {
		ub = ub.Set("description", *u.Description)
	}

	sqlStr, args, _ := ub.Suffix("RETURNING " + strings.Join(categoryCols, ", ")).ToSql()
	r.logSQL("UpdateCategory", sqlStr, args)

	out, err := scanCategory(r.pool.QueryRow(ctx, sqlStr, args...))
	if err != nil {
		r.logger.Printf("UpdateCategory error: %v", err)
		return domain.Category{}, mapPgErr(err)
	}
	return out, nil
}

func (r *PGRepo) DeleteCategory(ctx context.Context, id domain.CategoryID) error {
	sqlStr, args, _ := r.qb().Delete(r.table("categories")).Where(sq.Eq{"id": id}).ToSql()
	r.logSQL("DeleteCategory", sqlStr, args)

	start := time.Now()
	tag, err := r.pool.Exec(ctx, sqlStr, args...)
	if err != nil {
		// ON DELETE RESTRICT: продукт появился между проверкой и удалением
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return domain.ErrConflict
		}
		r.logger.Printf("DeleteCategory exec error after %s: %v", time.Since(start), err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.Printf("DeleteCategory ok in %s id=%s", time.Since(start), id)
	return nil
}
