package memory

import (
	"context"
	"sort"
	"time"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/domain"
	"github.com/JoeShih716/tabungan-santri/internal/app/core/usecase"
)

// memTx 暫存單一交易內的異動，fn 成功後才套用到 Store
type memTx struct {
	s        *Store
	balances map[int64]int64
	inserts  []*domain.Transaction
	deletes  map[int64]struct{}
}

// WithinTx 持有寫鎖執行 fn；fn 失敗或 ctx 逾時則捨棄所有暫存異動
//
// 參數:
//
//	ctx: 上下文 (逾時視為提交失敗)
//	fn: 交易內的業務邏輯
//
// 回傳:
//
//	error: fn 的錯誤或 ctx 錯誤
func (s *Store) WithinTx(ctx context.Context, fn func(tx usecase.LedgerTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &memTx{
		s:        s,
		balances: make(map[int64]int64),
		deletes:  make(map[int64]struct{}),
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	tx.apply()
	return nil
}

// apply 套用暫存異動 (呼叫端持有寫鎖)
func (tx *memTx) apply() {
	for id, balance := range tx.balances {
		if st, ok := tx.s.students[id]; ok {
			st.Balance = balance
		}
	}
	for id := range tx.deletes {
		delete(tx.s.transactions, id)
	}
	for _, t := range tx.inserts {
		tx.s.transactions[t.ID] = t
	}
}

func (tx *memTx) LockStudent(ctx context.Context, studentID int64) (*domain.Student, error) {
	st, ok := tx.s.students[studentID]
	if !ok {
		return nil, domain.ErrStudentNotFound
	}
	cp := *st
	if b, ok := tx.balances[studentID]; ok {
		cp.Balance = b
	}
	return &cp, nil
}

func (tx *memTx) SetBalance(ctx context.Context, studentID int64, balance int64) error {
	if _, ok := tx.s.students[studentID]; !ok {
		return domain.ErrStudentNotFound
	}
	tx.balances[studentID] = balance
	return nil
}

func (tx *memTx) InsertTransaction(ctx context.Context, tran *domain.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := tx.s.students[tran.StudentID]; !ok {
		return domain.ErrStudentNotFound
	}
	for id, t := range tx.s.transactions {
		if _, gone := tx.deletes[id]; !gone && t.TrxNo == tran.TrxNo {
			return domain.ErrDuplicateTrxNo
		}
	}
	for _, t := range tx.inserts {
		if t.TrxNo == tran.TrxNo {
			return domain.ErrDuplicateTrxNo
		}
	}
	if tran.CreatedAt.IsZero() {
		tran.CreatedAt = tx.s.now()
	}
	tx.s.seq.transaction++
	tran.ID = tx.s.seq.transaction
	cp := *tran
	tx.inserts = append(tx.inserts, &cp)
	return nil
}

func (tx *memTx) visible(fn func(t *domain.Transaction)) {
	for id, t := range tx.s.transactions {
		if _, gone := tx.deletes[id]; !gone {
			fn(t)
		}
	}
	for _, t := range tx.inserts {
		fn(t)
	}
}

func (tx *memTx) FindTransactions(ctx context.Context, ref domain.TrxRef) ([]domain.Transaction, error) {
	var matches []domain.Transaction
	tx.visible(func(t *domain.Transaction) {
		if ref.Matches(t.TrxNo) {
			matches = append(matches, *t)
		}
	})
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	return matches, nil
}

func (tx *memTx) LockTransaction(ctx context.Context, id int64) (*domain.Transaction, error) {
	var found *domain.Transaction
	tx.visible(func(t *domain.Transaction) {
		if t.ID == id {
			found = t
		}
	})
	if found == nil {
		return nil, domain.ErrTransactionNotFound
	}
	cp := *found
	return &cp, nil
}

func (tx *memTx) DeleteTransaction(ctx context.Context, id int64) error {
	for i, t := range tx.inserts {
		if t.ID == id {
			tx.inserts = append(tx.inserts[:i], tx.inserts[i+1:]...)
			return nil
		}
	}
	if _, ok := tx.s.transactions[id]; !ok {
		return domain.ErrTransactionNotFound
	}
	if _, gone := tx.deletes[id]; gone {
		return domain.ErrTransactionNotFound
	}
	tx.deletes[id] = struct{}{}
	return nil
}

// AttachReceipt 回寫收據路徑
func (s *Store) AttachReceipt(ctx context.Context, trxNo string, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.transactions {
		if t.TrxNo == trxNo {
			t.ReceiptPath = path
			return nil
		}
	}
	return domain.ErrTransactionNotFound
}

// view 組合學生與經手人資訊 (呼叫端持有讀鎖)
func (s *Store) view(t *domain.Transaction) domain.TransactionView {
	v := domain.TransactionView{Transaction: *t}
	if st, ok := s.students[t.StudentID]; ok {
		v.StudentNIS = st.NIS
		v.StudentName = st.Name
		v.StudentClass = st.Class
	}
	if t.UserID != nil {
		if u, ok := s.users[*t.UserID]; ok {
			v.CashierName = u.FullName
		}
	}
	return v
}

func (s *Store) GetTransaction(ctx context.Context, trxNo string) (*domain.TransactionView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.transactions {
		if t.TrxNo == trxNo {
			v := s.view(t)
			return &v, nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

// StudentTransactions 學生交易，新到舊
func (s *Store) StudentTransactions(ctx context.Context, studentID int64, limit int) ([]domain.TransactionView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var list []domain.TransactionView
	for _, t := range s.transactions {
		if t.StudentID == studentID {
			list = append(list, s.view(t))
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID > list[j].ID
	})
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// TransactionsBetween [from, to) 區間內的交易，舊到新
func (s *Store) TransactionsBetween(ctx context.Context, from, to time.Time) ([]domain.TransactionView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var list []domain.TransactionView
	for _, t := range s.transactions {
		if !t.CreatedAt.Before(from) && t.CreatedAt.Before(to) {
			list = append(list, s.view(t))
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

// TransactionsOfStudent 依建立順序列出學生全部交易
func (s *Store) TransactionsOfStudent(ctx context.Context, studentID int64) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var list []domain.Transaction
	for _, t := range s.transactions {
		if t.StudentID == studentID {
			list = append(list, *t)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}
