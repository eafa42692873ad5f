package domain

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

const (
	MaxProductNameLen   = 100
	MaxCategoryNameLen  = 50
	MaxCategoryDescrLen = 200
	MaxMediaPerProduct  = 4
	MaxFilesPerProduct  = 6 // 1 thumbnail + 4 media + 1 file
	MaxUploadFileBytes  = 100 << 20
)

func NormalizeProductName(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: product name is required", ErrValidation)
	}
	if utf8.RuneCountInString(s) > MaxProductNameLen {
		return "", fmt.Errorf("%w: product name must not exceed %d characters", ErrValidation, MaxProductNameLen)
	}
	return s, nil
}

func ValidateFileSize(size float64) error {
	if math.IsNaN(size) || math.IsInf(size, 0) {
		return fmt.Errorf("%w: file size must be a finite number", ErrValidation)
	}
	if size < 0 {
		return fmt.Errorf("%w: file size must not be negative", ErrValidation)
	}
	return nil
}

func NormalizeFileType(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultFileType
	}
	return s
}

func NormalizeCategoryName(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: category name is required", ErrValidation)
	}
	if utf8.RuneCountInString(s) > MaxCategoryNameLen {
		return "", fmt.Errorf("%w: category name must not exceed %d characters", ErrValidation, MaxCategoryNameLen)
	}
	return s, nil
}

func NormalizeCategoryDescription(s string) (string, error) {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > MaxCategoryDescrLen {
		return "", fmt.Errorf("%w: category description must not exceed %d characters", ErrValidation, MaxCategoryDescrLen)
	}
	return s, nil
}
