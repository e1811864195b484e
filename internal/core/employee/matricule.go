package employee

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MaxMatriculeNumber は社員番号の数値部の上限です。
const MaxMatriculeNumber = 99999

var (
	matriculePattern       = regexp.MustCompile(`^[A-Z][0-9]{5}$`)
	matriculeSuffixPattern = regexp.MustCompile(`^[0-9]{1,5}$`)
	matriculePrefixPattern = regexp.MustCompile(`^[A-Z]?$`)
)

// NextMatricule は直近の社員番号の数値部 last から次の社員番号を採番します。
// found が false の場合は 1 から採番します。プレフィックスは last の由来に関わらず prefix を使います。
func NextMatricule(last string, found bool, prefix string) (string, error) {
	if len(prefix) != 1 || prefix[0] < 'A' || prefix[0] > 'Z' {
		return "", ErrInvalidPosition
	}

	next := 1
	if found {
		trimmed := strings.TrimSpace(last)
		if !matriculeSuffixPattern.MatchString(trimmed) {
			return "", fmt.Errorf("last matricule %q: %w", last, ErrInvalidMatricule)
		}
		n, err := strconv.Atoi(trimmed)
		if err != nil {
			return "", fmt.Errorf("last matricule %q: %w", last, ErrInvalidMatricule)
		}
		next = n + 1
	}

	if next > MaxMatriculeNumber {
		return "", ErrMatriculeLimitReached
	}

	return fmt.Sprintf("%s%05d", prefix, next), nil
}

// ParseMatricule は社員番号を正規化し形式を検証します。
func ParseMatricule(raw string) (string, error) {
	m := strings.ToUpper(strings.TrimSpace(raw))
	if !matriculePattern.MatchString(m) {
		return "", ErrInvalidMatricule
	}
	return m, nil
}

// MatriculeSuffix は社員番号の数値部を返します。
func MatriculeSuffix(matricule string) string {
	if len(matricule) < 2 {
		return ""
	}
	return matricule[1:]
}

// ParseMatriculePrefix は一覧の絞り込みに使うプレフィックスを正規化します。空文字は絞り込みなしです。
func ParseMatriculePrefix(raw string) (string, error) {
	prefix := strings.ToUpper(strings.TrimSpace(raw))
	if !matriculePrefixPattern.MatchString(prefix) {
		return "", fmt.Errorf("prefix %q: %w", raw, ErrInvalidMatricule)
	}
	return prefix, nil
}
