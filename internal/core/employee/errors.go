package employee

import "errors"

var (
	ErrInvalidMatricule      = errors.New("employee: invalid matricule")
	ErrInvalidLastName       = errors.New("employee: invalid last name")
	ErrInvalidFirstName      = errors.New("employee: invalid first name")
	ErrInvalidPosition       = errors.New("employee: invalid position")
	ErrInvalidEducationLevel = errors.New("employee: invalid education level")
	ErrInvalidPartTimeRatio  = errors.New("employee: part-time ratio must be in (0, 1]")
	ErrInvalidRevenue        = errors.New("employee: revenue must not be negative")
	ErrInvalidTarget         = errors.New("employee: revenue target must not be negative")
	ErrNotCommercial         = errors.New("employee: matricule must start with C")
	ErrInvalidRaise          = errors.New("employee: raise percentage must not be negative")
	ErrInvalidPageSize       = errors.New("employee: invalid page size")
	ErrInvalidPageToken      = errors.New("employee: invalid page token")
	ErrEmployeeNotFound      = errors.New("employee: not found")

	// ErrMatriculeLimitReached は採番上限に達した業務エラーです。
	ErrMatriculeLimitReached = errors.New("employee: limit of 100000 matricules reached")
	// ErrMatriculeAlreadyExists は採番した社員番号が既に登録済みであることを示す整合性エラーです。
	ErrMatriculeAlreadyExists = errors.New("employee: matricule already exists")
)
