package employee

import "context"

// Repository は社員永続化の抽象です。
type Repository interface {
	// FindLastMatricule は登録済み社員番号のうち最大の数値部を返します。社員がいない場合 found は false です。
	FindLastMatricule(ctx context.Context) (suffix string, found bool, err error)
	FindByMatricule(ctx context.Context, matricule string) (*Employee, error)
	// FindByMatriculeForUpdate は現在のトランザクションが終わるまで行をロックして取得します。
	// 更新前の読み取りに使い、キャッシュを経由してはいけません。
	FindByMatriculeForUpdate(ctx context.Context, matricule string) (*Employee, error)
	// Save は ID が空なら新規登録、そうでなければ更新します。
	Save(ctx context.Context, employee *Employee) (*Employee, error)
	DeleteAll(ctx context.Context) error
	AveragePerformance(ctx context.Context, matriculePrefix string) (avg float64, found bool, err error)
	List(ctx context.Context, filter ListEmployeesFilter) ([]*Employee, string, error)
	// LockMatriculeAllocation は現在のトランザクションが終わるまで採番を直列化します。
	LockMatriculeAllocation(ctx context.Context) error
}

// ListEmployeesFilter は一覧取得用フィルタです。
type ListEmployeesFilter struct {
	MatriculePrefix string
	Limit           int
	Offset          int
}
