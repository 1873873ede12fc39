package usecase

import (
	"context"
	"strconv"
	"time"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/domain"
)

const (
	// DefaultChartDays 圖表預設天數
	DefaultChartDays = 14
	// MaxChartDays 以 days 參數查詢時的上限
	MaxChartDays = 90
	// MaxChartSpan 以起迄日查詢時的上限
	MaxChartSpan = 180
)

// DateRange 以日期為單位的閉區間 [Start, End]
type DateRange struct {
	Start time.Time
	End   time.Time
}

// From 區間起點 (Start 當日 00:00)
func (r DateRange) From() time.Time { return startOfDay(r.Start) }

// To 區間終點 (End 隔日 00:00，不含)
func (r DateRange) To() time.Time { return startOfDay(r.End).AddDate(0, 0, 1) }

// Days 區間天數
func (r DateRange) Days() int {
	return int(r.To().Sub(r.From()).Hours()/24 + 0.5)
}

func (r DateRange) StartString() string { return r.Start.Format(time.DateOnly) }
func (r DateRange) EndString() string   { return r.End.Format(time.DateOnly) }

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// PresetRange day: 今天；week: 含今天的最近 7 天；month: 本月
// 其他值回傳 false
func PresetRange(now time.Time, key string) (DateRange, bool) {
	today := startOfDay(now)
	switch key {
	case "day":
		return DateRange{Start: today, End: today}, true
	case "week":
		return DateRange{Start: today.AddDate(0, 0, -6), End: today}, true
	case "month":
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		return DateRange{Start: first, End: first.AddDate(0, 1, -1)}, true
	}
	return DateRange{}, false
}

// ResolveRange 先套用 range 預設區間 (未指定為今天)，再以合法的 start / end 覆寫
func ResolveRange(now time.Time, key, start, end string) DateRange {
	r, ok := PresetRange(now, key)
	if !ok {
		r, _ = PresetRange(now, "day")
	}
	if t, err := time.ParseInLocation(time.DateOnly, start, now.Location()); err == nil {
		r.Start = t
	}
	if t, err := time.ParseInLocation(time.DateOnly, end, now.Location()); err == nil {
		r.End = t
	}
	if r.End.Before(r.Start) {
		r.Start, r.End = r.End, r.Start
	}
	return r
}

// Totals 存提款筆數與金額
type Totals struct {
	DepositCount    int
	DepositTotal    int64
	WithdrawalCount int
	WithdrawalTotal int64
}

func (t *Totals) add(tran *domain.Transaction) {
	switch tran.Type {
	case domain.TransactionTypeDeposit:
		t.DepositCount++
		t.DepositTotal += tran.Amount
	case domain.TransactionTypeWithdrawal:
		t.WithdrawalCount++
		t.WithdrawalTotal += tran.Amount
	}
}

// Net 存款減提款
func (t Totals) Net() int64 { return t.DepositTotal - t.WithdrawalTotal }

// Report 區間交易報表 (依時間遞增)
type Report struct {
	Range  DateRange
	Rows   []domain.TransactionView
	Totals Totals
}

// AdminDashboard 管理員儀表板
type AdminDashboard struct {
	Overview
	Today     DateRange
	TodaySum  Totals
	Week      DateRange
	WeekSum   Totals
	Month     DateRange
	MonthSum  Totals
	Generated time.Time
}

// DailySeries 每日存款 (pemasukan) 與提款 (pengeluaran) 金額
type DailySeries struct {
	Labels      []string `json:"labels"`
	Deposits    []int64  `json:"pemasukan"`
	Withdrawals []int64  `json:"pengeluaran"`
}

// ReportService 報表、儀表板與圖表資料
type ReportService struct {
	txs   TransactionReader
	stats StatsStore
	now   func() time.Time
}

func NewReportService(txs TransactionReader, stats StatsStore) *ReportService {
	return &ReportService{txs: txs, stats: stats, now: time.Now}
}

// Now 報表使用的目前時間
func (s *ReportService) Now() time.Time { return s.now() }

// Report 區間內的交易與合計
func (s *ReportService) Report(ctx context.Context, r DateRange) (*Report, error) {
	rows, err := s.txs.TransactionsBetween(ctx, r.From(), r.To())
	if err != nil {
		return nil, classifyStorageError(err)
	}
	rep := &Report{Range: r, Rows: rows}
	for i := range rows {
		rep.Totals.add(&rows[i].Transaction)
	}
	return rep, nil
}

// AdminDashboard 總餘額、學生數、出納數，以及今日、本週、本月的存提款合計
func (s *ReportService) AdminDashboard(ctx context.Context) (*AdminDashboard, error) {
	now := s.now()
	ov, err := s.stats.Overview(ctx)
	if err != nil {
		return nil, classifyStorageError(err)
	}
	dash := &AdminDashboard{Overview: ov, Generated: now}
	dash.Today, _ = PresetRange(now, "day")
	dash.Week, _ = PresetRange(now, "week")
	dash.Month, _ = PresetRange(now, "month")

	// 一次取出涵蓋三個區間的資料
	from := dash.Week.From()
	if dash.Month.From().Before(from) {
		from = dash.Month.From()
	}
	to := dash.Month.To()
	if dash.Today.To().After(to) {
		to = dash.Today.To()
	}
	rows, err := s.txs.TransactionsBetween(ctx, from, to)
	if err != nil {
		return nil, classifyStorageError(err)
	}
	for i := range rows {
		t := &rows[i].Transaction
		if within(t.CreatedAt, dash.Today) {
			dash.TodaySum.add(t)
		}
		if within(t.CreatedAt, dash.Week) {
			dash.WeekSum.add(t)
		}
		if within(t.CreatedAt, dash.Month) {
			dash.MonthSum.add(t)
		}
	}
	return dash, nil
}

func within(t time.Time, r DateRange) bool {
	return !t.Before(r.From()) && t.Before(r.To())
}

// Daily 每日圖表資料：有 range / start / end 時以區間計算 (最多 MaxChartSpan 天)，
// 否則取最近 days 天 (預設 DefaultChartDays，最多 MaxChartDays)
func (s *ReportService) Daily(ctx context.Context, key, start, end, days string) (*DailySeries, error) {
	now := s.now()
	var r DateRange
	if _, ok := PresetRange(now, key); ok || start != "" || end != "" {
		r = ResolveRange(now, key, start, end)
		if r.Days() > MaxChartSpan {
			r.End = r.Start.AddDate(0, 0, MaxChartSpan-1)
		}
	} else {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			n = DefaultChartDays
		}
		if n > MaxChartDays {
			n = MaxChartDays
		}
		today := startOfDay(now)
		r = DateRange{Start: today.AddDate(0, 0, -(n - 1)), End: today}
	}

	rows, err := s.txs.TransactionsBetween(ctx, r.From(), r.To())
	if err != nil {
		return nil, classifyStorageError(err)
	}
	n := r.Days()
	series := &DailySeries{
		Labels:      make([]string, n),
		Deposits:    make([]int64, n),
		Withdrawals: make([]int64, n),
	}
	index := make(map[string]int, n)
	for i := 0; i < n; i++ {
		label := r.From().AddDate(0, 0, i).Format(time.DateOnly)
		series.Labels[i] = label
		index[label] = i
	}
	for i := range rows {
		t := &rows[i].Transaction
		pos, ok := index[t.CreatedAt.In(now.Location()).Format(time.DateOnly)]
		if !ok {
			continue
		}
		if t.Type == domain.TransactionTypeDeposit {
			series.Deposits[pos] += t.Amount
		} else {
			series.Withdrawals[pos] += t.Amount
		}
	}
	return series, nil
}
