package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ogurasousui/grpc-hr-clean-arch/internal/core/employee"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	keyPrefix  = "hr:employee:"
	defaultTTL = 5 * time.Minute
)

// RedisClient は EmployeeCache が利用する go-redis のコマンドです。
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Keys(ctx context.Context, pattern string) *redis.StringSliceCmd
}

// EmployeeCache は社員番号単位で社員を Redis にキャッシュする Repository のデコレータです。
// Redis の障害は警告ログに留め、常に下位の Repository へフォールバックします。
type EmployeeCache struct {
	employee.Repository
	client RedisClient
	ttl    time.Duration
	logger *zap.Logger
}

// NewEmployeeCache は EmployeeCache を生成します。
func NewEmployeeCache(next employee.Repository, client RedisClient, ttl time.Duration, logger *zap.Logger) *EmployeeCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmployeeCache{Repository: next, client: client, ttl: ttl, logger: logger}
}

type cachedEmployee struct {
	ID            string     `json:"id"`
	LastName      string     `json:"last_name"`
	FirstName     string     `json:"first_name"`
	Matricule     string     `json:"matricule"`
	HireDate      *time.Time `json:"hire_date,omitempty"`
	Salary        string     `json:"salary"`
	Performance   int        `json:"performance"`
	PartTimeRatio string     `json:"part_time_ratio"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// FindByMatricule はキャッシュを優先して社員を取得します。
func (c *EmployeeCache) FindByMatricule(ctx context.Context, matricule string) (*employee.Employee, error) {
	if emp, ok := c.get(ctx, matricule); ok {
		return emp, nil
	}

	emp, err := c.Repository.FindByMatricule(ctx, matricule)
	if err != nil {
		return nil, err
	}
	c.set(ctx, emp)
	return emp, nil
}

// FindByMatriculeForUpdate は更新前の読み取りです。キャッシュを参照も更新もせず下位の Repository に委譲します。
func (c *EmployeeCache) FindByMatriculeForUpdate(ctx context.Context, matricule string) (*employee.Employee, error) {
	return c.Repository.FindByMatriculeForUpdate(ctx, matricule)
}

// Save は下位の Repository に保存し、該当社員のキャッシュを破棄します。
func (c *EmployeeCache) Save(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	saved, err := c.Repository.Save(ctx, e)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, saved.Matricule)
	return saved, nil
}

// DeleteAll は全社員を削除し、キャッシュも破棄します。
func (c *EmployeeCache) DeleteAll(ctx context.Context) error {
	if err := c.Repository.DeleteAll(ctx); err != nil {
		return err
	}

	keys, err := c.client.Keys(ctx, keyPrefix+"*").Result()
	if err != nil {
		c.logger.Warn("redis: list employee keys failed", zap.Error(err))
		return nil
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("redis: delete employee keys failed", zap.Error(err))
	}
	return nil
}

func (c *EmployeeCache) get(ctx context.Context, matricule string) (*employee.Employee, bool) {
	raw, err := c.client.Get(ctx, keyPrefix+matricule).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("redis: get employee failed", zap.String("matricule", matricule), zap.Error(err))
		}
		return nil, false
	}

	emp, err := decodeEmployee(raw)
	if err != nil {
		c.logger.Warn("redis: decode employee failed", zap.String("matricule", matricule), zap.Error(err))
		return nil, false
	}
	return emp, true
}

// set は読み取り経路専用です。書き込み経路は invalidate を使います。
func (c *EmployeeCache) set(ctx context.Context, emp *employee.Employee) {
	raw, err := encodeEmployee(emp)
	if err != nil {
		c.logger.Warn("redis: encode employee failed", zap.String("matricule", emp.Matricule), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, keyPrefix+emp.Matricule, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("redis: set employee failed", zap.String("matricule", emp.Matricule), zap.Error(err))
	}
}

func (c *EmployeeCache) invalidate(ctx context.Context, matricule string) {
	if err := c.client.Del(ctx, keyPrefix+matricule).Err(); err != nil {
		c.logger.Warn("redis: invalidate employee failed", zap.String("matricule", matricule), zap.Error(err))
	}
}

func encodeEmployee(emp *employee.Employee) ([]byte, error) {
	return json.Marshal(cachedEmployee{
		ID:            emp.ID,
		LastName:      emp.LastName,
		FirstName:     emp.FirstName,
		Matricule:     emp.Matricule,
		HireDate:      emp.HireDate,
		Salary:        emp.Salary.String(),
		Performance:   emp.Performance,
		PartTimeRatio: emp.PartTimeRatio.String(),
		CreatedAt:     emp.CreatedAt,
		UpdatedAt:     emp.UpdatedAt,
	})
}

func decodeEmployee(raw []byte) (*employee.Employee, error) {
	var c cachedEmployee
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, err
	}

	salary, err := decimal.NewFromString(c.Salary)
	if err != nil {
		return nil, fmt.Errorf("salary: %w", err)
	}
	ratio, err := decimal.NewFromString(c.PartTimeRatio)
	if err != nil {
		return nil, fmt.Errorf("part_time_ratio: %w", err)
	}

	return &employee.Employee{
		ID:            c.ID,
		LastName:      c.LastName,
		FirstName:     c.FirstName,
		Matricule:     c.Matricule,
		HireDate:      c.HireDate,
		Salary:        salary,
		Performance:   c.Performance,
		PartTimeRatio: ratio,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}, nil
}
