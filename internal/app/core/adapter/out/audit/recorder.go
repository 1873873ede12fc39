package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/domain"
	"github.com/JoeShih716/tabungan-santri/internal/app/core/usecase"
	"github.com/JoeShih716/tabungan-santri/pkg/wal"
)

// Publisher 發佈稽核事件；*nats.Conn 即符合此介面
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Recorder 稽核寫入：主要寫入資料庫，失敗時暫存到本機 WAL，
// 另外 (若有設定) 發佈到訊息佇列。全部皆為盡力而為
type Recorder struct {
	primary   usecase.AuditSink
	spool     *wal.WAL
	publisher Publisher
	subject   string
	logger    *slog.Logger
	now       func() time.Time
}

// Option 設定 Recorder
type Option func(*Recorder)

// WithSpool 主要寫入失敗時暫存到 WAL
func WithSpool(spool *wal.WAL) Option {
	return func(r *Recorder) {
		r.spool = spool
	}
}

// WithPublisher 每筆紀錄另外發佈到 subject
func WithPublisher(p Publisher, subject string) Option {
	return func(r *Recorder) {
		r.publisher = p
		r.subject = subject
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewRecorder(primary usecase.AuditSink, opts ...Option) *Recorder {
	r := &Recorder{primary: primary, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record 寫入稽核紀錄
// 只有在資料庫與暫存都失敗時才回傳錯誤
func (r *Recorder) Record(ctx context.Context, entry domain.AuditEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now()
	}
	r.publish(entry)

	err := r.primary.Record(ctx, entry)
	if err == nil {
		return nil
	}
	if r.spool == nil {
		return err
	}
	if spoolErr := r.spool.Write(entry); spoolErr != nil {
		return errors.Join(err, fmt.Errorf("spool audit entry: %w", spoolErr))
	}
	r.logger.Warn("audit entry spooled",
		slog.String("action", entry.Action),
		slog.String("entity", entry.Entity),
		slog.String("entity_id", entry.EntityID),
		slog.Any("error", err))
	return nil
}

func (r *Recorder) publish(entry domain.AuditEntry) {
	if r.publisher == nil {
		return
	}
	data, err := json.Marshal(entry)
	if err == nil {
		err = r.publisher.Publish(r.subject, data)
	}
	if err != nil {
		r.logger.Warn("publish audit entry failed", slog.String("subject", r.subject), slog.Any("error", err))
	}
}

// ReplaySpool 將暫存的紀錄重新寫入資料庫，全部成功後清空暫存
//
// 回傳:
//
//	int: 成功重送的筆數
//	error: 重送中斷的原因 (未送出的紀錄保留在暫存)
func (r *Recorder) ReplaySpool(ctx context.Context) (int, error) {
	if r.spool == nil {
		return 0, nil
	}
	n, err := r.spool.Drain(func(raw []byte) error {
		var entry domain.AuditEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			// 無法解析的紀錄直接略過，避免卡住後續重送
			r.logger.Error("drop malformed spooled audit entry", slog.String("raw", string(raw)), slog.Any("error", err))
			return nil
		}
		return r.primary.Record(ctx, entry)
	})
	if err != nil {
		return n, fmt.Errorf("replay audit spool: %w", err)
	}
	if n > 0 {
		r.logger.Info("audit spool replayed", slog.Int("entries", n))
	}
	return n, nil
}

var _ usecase.AuditSink = (*Recorder)(nil)
