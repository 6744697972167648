package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"ledger/models"

	"github.com/shopspring/decimal"
)

// 以下函数只在传入的记录集上计算，不修改入参，返回新的记录集

// ExpenseInput 经过校验的消费输入
type ExpenseInput struct {
	Person string
	Item   string
	Cost   decimal.Decimal
}

// Batch 一次支付动作共享的批次号与时间
type Batch struct {
	ID string
	At time.Time
}

// PersonReport 某人的未支付汇总
type PersonReport struct {
	Person string           `json:"person"`
	Items  []models.Expense `json:"items"`
	Total  decimal.Decimal  `json:"total" swaggertype:"string"`
}

// HistoryEntry 一个支付批次
type HistoryEntry struct {
	BatchID string           `json:"batch_id"`
	Person  string           `json:"person"`
	PaidAt  time.Time        `json:"paid_at"`
	Items   []models.Expense `json:"items"`
	Total   decimal.Decimal  `json:"total" swaggertype:"string"`
}

// 金额上限与小数位数与 decimal(20,6) 列保持一致
const (
	maxCostScale    = 6
	maxCostExponent = 30
)

var maxCost = decimal.New(1, 12)

// ParseCost 解析金额，支持逗号作为小数点
func ParseCost(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: 金额不能为空", ErrInvalidInput)
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: 金额格式错误: %q", ErrInvalidInput, raw)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: 金额必须大于 0", ErrInvalidInput)
	}
	// 指数范围先于数值比较检查
	if exp := d.Exponent(); exp > maxCostExponent || exp < -maxCostExponent {
		return decimal.Zero, fmt.Errorf("%w: 金额超出范围: %q", ErrInvalidInput, raw)
	}
	if !d.LessThan(maxCost) {
		return decimal.Zero, fmt.Errorf("%w: 金额不能超过 %s", ErrInvalidInput, maxCost.String())
	}
	t := d.Truncate(maxCostScale)
	if !t.Equal(d) {
		return decimal.Zero, fmt.Errorf("%w: 金额最多保留 %d 位小数", ErrInvalidInput, maxCostScale)
	}
	return t, nil
}

// ParseInput 校验并规整消费输入
func ParseInput(person, item, cost string) (ExpenseInput, error) {
	person = strings.TrimSpace(person)
	item = strings.TrimSpace(item)
	if person == "" {
		return ExpenseInput{}, fmt.Errorf("%w: 姓名不能为空", ErrInvalidInput)
	}
	if item == "" {
		return ExpenseInput{}, fmt.Errorf("%w: 消费项目不能为空", ErrInvalidInput)
	}
	d, err := ParseCost(cost)
	if err != nil {
		return ExpenseInput{}, err
	}
	return ExpenseInput{Person: person, Item: item, Cost: d}, nil
}

// sortByAdded 按创建时间升序，时间相同保持原有顺序
func sortByAdded(records []models.Expense) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].AddedAt.Before(records[j].AddedAt)
	})
}

func sum(records []models.Expense) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Cost)
	}
	return total
}

func indexOf(records []models.Expense, id string) int {
	for i := range records {
		if records[i].ID == id {
			return i
		}
	}
	return -1
}

func markPaid(r *models.Expense, batch Batch) {
	at := batch.At
	id := batch.ID
	r.Status = models.StatusPaid
	r.PaidAt = &at
	r.PaidBatchID = &id
}

func markUnpaid(r *models.Expense) {
	r.Status = models.StatusUnpaid
	r.PaidAt = nil
	r.PaidBatchID = nil
}

// UnpaidReport 按人汇总未支付记录
func UnpaidReport(records []models.Expense) map[string]PersonReport {
	grouped := make(map[string][]models.Expense)
	for _, r := range records {
		if r.Status != models.StatusUnpaid {
			continue
		}
		grouped[r.Person] = append(grouped[r.Person], r.Clone())
	}

	report := make(map[string]PersonReport, len(grouped))
	for person, items := range grouped {
		sortByAdded(items)
		report[person] = PersonReport{Person: person, Items: items, Total: sum(items)}
	}
	return report
}

// ReportPeople 返回排序后的人名，便于稳定展示
func ReportPeople(report map[string]PersonReport) []string {
	people := make([]string, 0, len(report))
	for p := range report {
		people = append(people, p)
	}
	sort.Strings(people)
	return people
}

// GrandTotal 全部未支付金额
func GrandTotal(report map[string]PersonReport) decimal.Decimal {
	total := decimal.Zero
	for _, r := range report {
		total = total.Add(r.Total)
	}
	return total
}

// History 按批次号分组已支付记录，最近支付的在前
func History(records []models.Expense) []HistoryEntry {
	grouped := make(map[string][]models.Expense)
	var order []string
	for _, r := range records {
		if r.Status != models.StatusPaid || r.PaidBatchID == nil || r.PaidAt == nil {
			continue
		}
		id := *r.PaidBatchID
		if _, ok := grouped[id]; !ok {
			order = append(order, id)
		}
		grouped[id] = append(grouped[id], r.Clone())
	}

	entries := make([]HistoryEntry, 0, len(order))
	for _, id := range order {
		items := grouped[id]
		sortByAdded(items)
		entries = append(entries, HistoryEntry{
			BatchID: id,
			Person:  items[0].Person,
			PaidAt:  *items[0].PaidAt,
			Items:   items,
			Total:   sum(items),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].PaidAt.After(entries[j].PaidAt)
	})
	return entries
}

// Append 追加一条未支付记录
func Append(records []models.Expense, in ExpenseInput, id string, now time.Time) ([]models.Expense, models.Expense) {
	rec := models.Expense{
		ID:      id,
		Person:  in.Person,
		Item:    in.Item,
		Cost:    in.Cost,
		Status:  models.StatusUnpaid,
		AddedAt: now,
	}
	out := append(models.CloneExpenses(records), rec)
	return out, rec.Clone()
}

// PayByPerson 将某人全部未支付记录标记为同一批次
func PayByPerson(records []models.Expense, person string, batch Batch) ([]models.Expense, []models.Expense, error) {
	out := models.CloneExpenses(records)
	var paid []models.Expense
	for i := range out {
		if out[i].Person != person || out[i].Status != models.StatusUnpaid {
			continue
		}
		markPaid(&out[i], batch)
		paid = append(paid, out[i].Clone())
	}
	if len(paid) == 0 {
		return nil, nil, fmt.Errorf("%w: %s 没有未支付记录", ErrNotFound, person)
	}
	sortByAdded(paid)
	return out, paid, nil
}

// PayByItem 单条记录支付，生成只含一条记录的批次
func PayByItem(records []models.Expense, id string, batch Batch) ([]models.Expense, models.Expense, error) {
	i := indexOf(records, id)
	if i < 0 {
		return nil, models.Expense{}, fmt.Errorf("%w: 记录 %s 不存在", ErrNotFound, id)
	}
	if records[i].IsPaid() {
		return nil, models.Expense{}, fmt.Errorf("%w: 记录 %s 已支付", ErrAlreadyPaid, id)
	}
	out := models.CloneExpenses(records)
	markPaid(&out[i], batch)
	return out, out[i].Clone(), nil
}

// TogglePaid 切换支付状态；改回未支付时清空批次信息
func TogglePaid(records []models.Expense, id string, batch Batch) ([]models.Expense, models.Expense, error) {
	i := indexOf(records, id)
	if i < 0 {
		return nil, models.Expense{}, fmt.Errorf("%w: 记录 %s 不存在", ErrNotFound, id)
	}
	out := models.CloneExpenses(records)
	if out[i].IsPaid() {
		markUnpaid(&out[i])
	} else {
		markPaid(&out[i], batch)
	}
	return out, out[i].Clone(), nil
}

// ApplyEdit 只修改姓名、项目和金额
func ApplyEdit(records []models.Expense, id string, in ExpenseInput, allowEditPaid bool) ([]models.Expense, models.Expense, error) {
	i := indexOf(records, id)
	if i < 0 {
		return nil, models.Expense{}, fmt.Errorf("%w: 记录 %s 不存在", ErrNotFound, id)
	}
	if records[i].IsPaid() && !allowEditPaid {
		return nil, models.Expense{}, fmt.Errorf("%w: 已支付记录不可修改", ErrConflict)
	}
	out := models.CloneExpenses(records)
	out[i].Person = in.Person
	out[i].Item = in.Item
	out[i].Cost = in.Cost
	return out, out[i].Clone(), nil
}

// Remove 删除一条记录，同批次的其他记录不受影响
func Remove(records []models.Expense, id string) ([]models.Expense, models.Expense, error) {
	i := indexOf(records, id)
	if i < 0 {
		return nil, models.Expense{}, fmt.Errorf("%w: 记录 %s 不存在", ErrNotFound, id)
	}
	out := make([]models.Expense, 0, len(records)-1)
	for j, r := range records {
		if j != i {
			out = append(out, r.Clone())
		}
	}
	return out, records[i].Clone(), nil
}
