package domain

import "errors"

// Бизнес-ошибки (маппятся на HTTP коды в transport/web/v1)
var (
	ErrInvalidReference   = errors.New("invalid_reference")   // 400: категория не существует
	ErrMissingAsset       = errors.New("missing_asset")       // 400: нет обязательного файла или неверное количество
	ErrNotFound           = errors.New("not_found")           // 404
	ErrConflict           = errors.New("conflict")            // 409: у категории есть продукты
	ErrMalformedReference = errors.New("malformed_reference") // 500: ссылку на файл не удалось разобрать
	ErrValidation         = errors.New("validation_failed")   // 400
	ErrStorageUnavailable = errors.New("storage_unavailable") // 502
	ErrCreateFailed       = errors.New("create_failed")       // обёртка для ошибок создания продукта

	ErrBadParams        = errors.New("bad_params")         // 400
	ErrUnauth           = errors.New("unauthorized")       // 401
	ErrForbidden        = errors.New("forbidden")          // 403
	ErrMethodNotAllowed = errors.New("method_not_allowed") // 405
	ErrUnexpected       = errors.New("unexpected")         // 500
)

// Коды error.code в конверте ответа
const (
	ErrCodeBadParams        = 1000
	ErrCodeUnauth           = 1001
	ErrCodeForbidden        = 1003
	ErrCodeNotFound         = 1004
	ErrCodeMethodNotAllowed = 1005
	ErrCodeConflict         = 1009
	ErrCodeInvalidReference = 1010
	ErrCodeMissingAsset     = 1011
	ErrCodeValidation       = 1012
	ErrCodeMalformedRef     = 1020
	ErrCodeStorage          = 1021
	ErrCodeUnexpected       = 1500
)
