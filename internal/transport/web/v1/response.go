package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/EgorLis/asset-catalog/internal/domain"
	"github.com/EgorLis/asset-catalog/internal/transport/web/mw"
)

// MapDomainError решает HTTP-статус + error.code/text для конверта.
// Для 4xx текст берётся из ошибки, для 5xx отдаётся общий текст, детали только в логе.
func MapDomainError(err error) (httpStatus int, env domain.APIEnvelope) {
	switch {
	case errors.Is(err, domain.ErrBadParams):
		return http.StatusBadRequest, domain.Fail(domain.ErrCodeBadParams, err.Error())
	case errors.Is(err, domain.ErrUnauth):
		return http.StatusUnauthorized, domain.Fail(domain.ErrCodeUnauth, "unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, domain.Fail(domain.ErrCodeForbidden, "forbidden")
	case errors.Is(err, domain.ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed, domain.Fail(domain.ErrCodeMethodNotAllowed, "method not allowed")
	case errors.Is(err, domain.ErrInvalidReference):
		return http.StatusBadRequest, domain.Fail(domain.ErrCodeInvalidReference, err.Error())
	case errors.Is(err, domain.ErrMissingAsset):
		return http.StatusBadRequest, domain.Fail(domain.ErrCodeMissingAsset, err.Error())
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, domain.Fail(domain.ErrCodeValidation, validationText(err))
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, domain.Fail(domain.ErrCodeNotFound, "not found")
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, domain.Fail(domain.ErrCodeConflict, "category still has products")
	case errors.Is(err, domain.ErrMalformedReference):
		return http.StatusInternalServerError, domain.Fail(domain.ErrCodeMalformedRef, "stored file reference is invalid")
	case errors.Is(err, domain.ErrStorageUnavailable):
		return http.StatusBadGateway, domain.Fail(domain.ErrCodeStorage, "storage unavailable")
	default:
		// таймауты и отмены тоже 500
		return http.StatusInternalServerError, domain.Fail(domain.ErrCodeUnexpected, "unexpected")
	}
}

// ошибки создания приходят как errors.Join(ErrCreateFailed, cause): в ответ идёт только причина
func validationText(err error) string {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		for _, e := range joined.Unwrap() {
			if errors.Is(e, domain.ErrValidation) {
				return e.Error()
			}
		}
	}
	return err.Error()
}

// WriteEnvelope пишет конверт; для HEAD — без тела
func WriteEnvelope(w http.ResponseWriter, r *http.Request, status int, env domain.APIEnvelope) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(mw.HeaderRequestID, mw.RequestIDFromCtx(r.Context()))
	// кодируем до WriteHeader: после него статус уже не поменять
	body, err := json.Marshal(env)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(domain.Fail(domain.ErrCodeUnexpected, "unexpected"))
	}
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(append(body, '\n'))
}

// Шорткаты успеха
func WriteOKData(w http.ResponseWriter, r *http.Request, data any) {
	WriteEnvelope(w, r, http.StatusOK, domain.OkData(data))
}
func WriteCreated(w http.ResponseWriter, r *http.Request, data any) {
	WriteEnvelope(w, r, http.StatusCreated, domain.OkData(data))
}
func WriteOKResponse(w http.ResponseWriter, r *http.Request, resp any) {
	WriteEnvelope(w, r, http.StatusOK, domain.OkResponse(resp))
}

// Шорткаты ошибок
func WriteDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, env := MapDomainError(err)
	WriteEnvelope(w, r, status, env)
}

// PathUUID разбирает {name} из шаблона маршрута.
func PathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", domain.ErrBadParams, name)
	}
	return id, nil
}

// Paging читает page/limit; пустые значения берутся по умолчанию, мусор даёт ErrBadParams.
func Paging(r *http.Request) (page, limit int, err error) {
	q := r.URL.Query()
	if page, err = optInt(q.Get("page")); err != nil {
		return 0, 0, fmt.Errorf("%w: invalid page", domain.ErrBadParams)
	}
	if limit, err = optInt(q.Get("limit")); err != nil {
		return 0, 0, fmt.Errorf("%w: invalid limit", domain.ErrBadParams)
	}
	page, limit = domain.Normalize(page, limit)
	return page, limit, nil
}

func optInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
