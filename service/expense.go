package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ledger/logger"
	"ledger/models"
	"ledger/store"

	"github.com/google/uuid"
)

// BatchNotifier 支付批次完成后的通知
type BatchNotifier interface {
	BatchPaid(ctx context.Context, entry HistoryEntry) error
}

// ExpenseService 串行执行 读取 -> 计算 -> 写回
type ExpenseService struct {
	mu            sync.Mutex
	store         store.Store
	now           func() time.Time
	newID         func() string
	allowEditPaid bool
	notifier      BatchNotifier
}

// Option 服务选项
type Option func(*ExpenseService)

// WithClock 指定时间来源
func WithClock(now func() time.Time) Option {
	return func(s *ExpenseService) { s.now = now }
}

// WithIDGenerator 指定记录 ID 与批次号生成器
func WithIDGenerator(gen func() string) Option {
	return func(s *ExpenseService) { s.newID = gen }
}

// WithEditPaidPolicy 是否允许修改已支付记录
func WithEditPaidPolicy(allow bool) Option {
	return func(s *ExpenseService) { s.allowEditPaid = allow }
}

// WithNotifier 设置批次通知
func WithNotifier(n BatchNotifier) Option {
	return func(s *ExpenseService) { s.notifier = n }
}

// NewExpenseService 创建消费记录服务
func NewExpenseService(st store.Store, opts ...Option) *ExpenseService {
	s := &ExpenseService{
		store: st,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AllowEditPaid 当前的已支付记录修改策略
func (s *ExpenseService) AllowEditPaid() bool {
	return s.allowEditPaid
}

func (s *ExpenseService) load(ctx context.Context) ([]models.Expense, error) {
	records, err := s.store.LoadAll(ctx)
	if err != nil {
		logger.Log.Error().Err(err).Msg("读取记录失败")
		return nil, fmt.Errorf("%w: %w", ErrStoreIO, err)
	}
	return records, nil
}

func (s *ExpenseService) save(ctx context.Context, records []models.Expense) error {
	if err := s.store.SaveAll(ctx, records); err != nil {
		logger.Log.Error().Err(err).Int("records", len(records)).Msg("保存记录失败")
		return fmt.Errorf("%w: %w", ErrStoreIO, err)
	}
	return nil
}

func (s *ExpenseService) newBatch() Batch {
	return Batch{ID: s.newID(), At: s.now()}
}

// List 全部记录，按创建时间升序
func (s *ExpenseService) List(ctx context.Context) ([]models.Expense, error) {
	records, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	sortByAdded(records)
	return records, nil
}

// Get 按 ID 查询
func (s *ExpenseService) Get(ctx context.Context, id string) (models.Expense, error) {
	records, err := s.load(ctx)
	if err != nil {
		return models.Expense{}, err
	}
	i := indexOf(records, id)
	if i < 0 {
		return models.Expense{}, fmt.Errorf("%w: 记录 %s 不存在", ErrNotFound, id)
	}
	return records[i], nil
}

// UnpaidReport 按人汇总的未支付报表
func (s *ExpenseService) UnpaidReport(ctx context.Context) (map[string]PersonReport, error) {
	records, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return UnpaidReport(records), nil
}

// History 支付历史
func (s *ExpenseService) History(ctx context.Context) ([]HistoryEntry, error) {
	records, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return History(records), nil
}

// Add 新增一条消费记录
func (s *ExpenseService) Add(ctx context.Context, person, item, cost string) (models.Expense, error) {
	in, err := ParseInput(person, item, cost)
	if err != nil {
		return models.Expense{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return models.Expense{}, err
	}
	next, rec := Append(records, in, s.newID(), s.now())
	if err := s.save(ctx, next); err != nil {
		return models.Expense{}, err
	}

	logger.Log.Info().Str("id", rec.ID).Str("person", rec.Person).Str("cost", rec.Cost.String()).Msg("新增消费记录")
	return rec, nil
}

// Edit 修改姓名、项目和金额
func (s *ExpenseService) Edit(ctx context.Context, id, person, item, cost string) (models.Expense, error) {
	in, err := ParseInput(person, item, cost)
	if err != nil {
		return models.Expense{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return models.Expense{}, err
	}
	next, rec, err := ApplyEdit(records, id, in, s.allowEditPaid)
	if err != nil {
		return models.Expense{}, err
	}
	if err := s.save(ctx, next); err != nil {
		return models.Expense{}, err
	}

	logger.Log.Info().Str("id", id).Msg("修改消费记录")
	return rec, nil
}

// Delete 删除一条记录
func (s *ExpenseService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return err
	}
	next, rec, err := Remove(records, id)
	if err != nil {
		return err
	}
	if err := s.save(ctx, next); err != nil {
		return err
	}

	logger.Log.Info().Str("id", id).Str("person", rec.Person).Msg("删除消费记录")
	return nil
}

// PayByPerson 结清某人全部未支付记录
func (s *ExpenseService) PayByPerson(ctx context.Context, person string) (HistoryEntry, error) {
	entry, err := s.payByPerson(ctx, person)
	if err != nil {
		return HistoryEntry{}, err
	}
	s.notify(ctx, entry)
	return entry, nil
}

func (s *ExpenseService) payByPerson(ctx context.Context, person string) (HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return HistoryEntry{}, err
	}
	batch := s.newBatch()
	next, paid, err := PayByPerson(records, person, batch)
	if err != nil {
		return HistoryEntry{}, err
	}
	if err := s.save(ctx, next); err != nil {
		return HistoryEntry{}, err
	}

	entry := HistoryEntry{BatchID: batch.ID, Person: person, PaidAt: batch.At, Items: paid, Total: sum(paid)}
	logger.Log.Info().Str("batch", batch.ID).Str("person", person).Int("items", len(paid)).
		Str("total", entry.Total.String()).Msg("按人结清")
	return entry, nil
}

// PayByItem 结清单条记录
func (s *ExpenseService) PayByItem(ctx context.Context, id string) (HistoryEntry, error) {
	entry, err := s.payByItem(ctx, id)
	if err != nil {
		return HistoryEntry{}, err
	}
	s.notify(ctx, entry)
	return entry, nil
}

func (s *ExpenseService) payByItem(ctx context.Context, id string) (HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return HistoryEntry{}, err
	}
	batch := s.newBatch()
	next, rec, err := PayByItem(records, id, batch)
	if err != nil {
		return HistoryEntry{}, err
	}
	if err := s.save(ctx, next); err != nil {
		return HistoryEntry{}, err
	}

	logger.Log.Info().Str("batch", batch.ID).Str("id", id).Msg("单条结清")
	return singleEntry(rec), nil
}

// TogglePaid 切换支付状态
func (s *ExpenseService) TogglePaid(ctx context.Context, id string) (models.Expense, error) {
	rec, err := s.togglePaid(ctx, id)
	if err != nil {
		return models.Expense{}, err
	}
	if rec.IsPaid() {
		s.notify(ctx, singleEntry(rec))
	}
	return rec, nil
}

func (s *ExpenseService) togglePaid(ctx context.Context, id string) (models.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return models.Expense{}, err
	}
	next, rec, err := TogglePaid(records, id, s.newBatch())
	if err != nil {
		return models.Expense{}, err
	}
	if err := s.save(ctx, next); err != nil {
		return models.Expense{}, err
	}

	logger.Log.Info().Str("id", id).Str("status", string(rec.Status)).Msg("切换支付状态")
	return rec, nil
}

func singleEntry(rec models.Expense) HistoryEntry {
	return HistoryEntry{
		BatchID: *rec.PaidBatchID,
		Person:  rec.Person,
		PaidAt:  *rec.PaidAt,
		Items:   []models.Expense{rec},
		Total:   rec.Cost,
	}
}

// notify 在释放锁之后调用，通知失败只记录日志，不影响已完成的支付
func (s *ExpenseService) notify(ctx context.Context, entry HistoryEntry) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.BatchPaid(ctx, entry); err != nil {
		logger.Log.Warn().Err(err).Str("batch", entry.BatchID).Msg("发送支付通知失败")
	}
}
