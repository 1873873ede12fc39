package mysql

import (
	"context"
	"strings"

	"gorm.io/gorm/clause"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/domain"
	"github.com/JoeShih716/tabungan-santri/internal/app/core/usecase"
)

// likeEscaper 跳脫 LIKE 的萬用字元
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *Store) ListStudents(ctx context.Context, filter usecase.StudentFilter) ([]domain.Student, error) {
	q := s.db(ctx).Model(&sqlStudent{})
	if filter.Query != "" {
		pattern := likeEscaper.Replace(filter.Query) + "%"
		if !filter.Prefix {
			pattern = "%" + pattern
		}
		if filter.NameOnly {
			q = q.Where("name LIKE ?", pattern)
		} else {
			q = q.Where("name LIKE ? OR nis LIKE ? OR class LIKE ? OR group_name LIKE ?", pattern, pattern, pattern, pattern)
		}
	}
	q = q.Order("name ASC, id ASC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	var rows []sqlStudent
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	list := make([]domain.Student, len(rows))
	for i := range rows {
		list[i] = rows[i].toDomain()
	}
	return list, nil
}

func (s *Store) GetStudent(ctx context.Context, id int64) (*domain.Student, error) {
	var row sqlStudent
	if err := s.db(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, translateError(err, domain.ErrStudentNotFound)
	}
	st := row.toDomain()
	return &st, nil
}

func (s *Store) CreateStudent(ctx context.Context, profile domain.StudentProfile, photoPath string) (*domain.Student, error) {
	row := newSQLStudent(profile)
	row.PhotoPath = photoPath
	if err := s.db(ctx).Create(&row).Error; err != nil {
		return nil, translateError(err, domain.ErrStudentNotFound)
	}
	st := row.toDomain()
	return &st, nil
}

// UpdateStudent 只更新資料欄位
func (s *Store) UpdateStudent(ctx context.Context, id int64, profile domain.StudentProfile) error {
	row := newSQLStudent(profile)
	res := s.db(ctx).Model(&sqlStudent{ID: id}).Select(profileColumns).Updates(&row)
	if err := translateError(res.Error, domain.ErrStudentNotFound); err != nil {
		return err
	}
	if res.RowsAffected == 0 {
		return s.mustExist(ctx, id)
	}
	return nil
}

// mustExist 更新 0 列時區分「不存在」與「值未變」
func (s *Store) mustExist(ctx context.Context, id int64) error {
	var count int64
	if err := s.db(ctx).Model(&sqlStudent{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return domain.ErrStudentNotFound
	}
	return nil
}

func (s *Store) SetStudentPhoto(ctx context.Context, id int64, photoPath string) error {
	res := s.db(ctx).Model(&sqlStudent{}).Where("id = ?", id).Update("photo_path", photoPath)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return s.mustExist(ctx, id)
	}
	return nil
}

// DeleteStudent 交易由外鍵 ON DELETE CASCADE 一併刪除
func (s *Store) DeleteStudent(ctx context.Context, id int64) error {
	res := s.db(ctx).Where("id = ?", id).Delete(&sqlStudent{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrStudentNotFound
	}
	return nil
}

// UpsertStudent INSERT ... ON DUPLICATE KEY UPDATE，保留餘額與照片
// MySQL 回報的影響列數：新增為 1，更新為 2，值未變為 0
func (s *Store) UpsertStudent(ctx context.Context, profile domain.StudentProfile) (bool, error) {
	row := newSQLStudent(profile)
	res := s.db(ctx).Clauses(clause.OnConflict{
		DoUpdates: clause.AssignmentColumns(profileColumns[1:]),
	}).Create(&row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
