package memory

import (
	"context"
	"strings"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/domain"
	"github.com/JoeShih716/tabungan-santri/internal/app/core/usecase"
)

func matchStudent(st *domain.Student, f usecase.StudentFilter) bool {
	if f.Query == "" {
		return true
	}
	q := strings.ToLower(f.Query)
	match := func(v string) bool {
		v = strings.ToLower(v)
		if f.Prefix {
			return strings.HasPrefix(v, q)
		}
		return strings.Contains(v, q)
	}
	if match(st.Name) {
		return true
	}
	if f.NameOnly {
		return false
	}
	return match(st.NIS) || match(st.Class) || match(st.Group)
}

func (s *Store) ListStudents(ctx context.Context, filter usecase.StudentFilter) ([]domain.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]domain.Student, 0)
	for _, st := range s.students {
		if matchStudent(st, filter) {
			list = append(list, *st)
		}
	}
	sortStudents(list)
	if filter.Limit > 0 && len(list) > filter.Limit {
		list = list[:filter.Limit]
	}
	return list, nil
}

func (s *Store) GetStudent(ctx context.Context, id int64) (*domain.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.students[id]
	if !ok {
		return nil, domain.ErrStudentNotFound
	}
	cp := *st
	return &cp, nil
}

// nisTaken 呼叫端持有鎖
func (s *Store) nisTaken(nis string, exceptID int64) bool {
	for id, st := range s.students {
		if id != exceptID && st.NIS == nis {
			return true
		}
	}
	return false
}

func (s *Store) CreateStudent(ctx context.Context, profile domain.StudentProfile, photoPath string) (*domain.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nisTaken(profile.NIS, 0) {
		return nil, domain.ErrDuplicateKey
	}
	s.seq.student++
	st := &domain.Student{
		ID:             s.seq.student,
		StudentProfile: profile,
		PhotoPath:      photoPath,
		CreatedAt:      s.now(),
	}
	s.students[st.ID] = st
	cp := *st
	return &cp, nil
}

func (s *Store) UpdateStudent(ctx context.Context, id int64, profile domain.StudentProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.students[id]
	if !ok {
		return domain.ErrStudentNotFound
	}
	if s.nisTaken(profile.NIS, id) {
		return domain.ErrDuplicateKey
	}
	st.StudentProfile = profile
	return nil
}

func (s *Store) SetStudentPhoto(ctx context.Context, id int64, photoPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.students[id]
	if !ok {
		return domain.ErrStudentNotFound
	}
	st.PhotoPath = photoPath
	return nil
}

// DeleteStudent 連帶刪除交易
func (s *Store) DeleteStudent(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[id]; !ok {
		return domain.ErrStudentNotFound
	}
	delete(s.students, id)
	for tid, t := range s.transactions {
		if t.StudentID == id {
			delete(s.transactions, tid)
		}
	}
	return nil
}

// UpsertStudent 依 NIS 新增或更新，更新時保留餘額與照片
func (s *Store) UpsertStudent(ctx context.Context, profile domain.StudentProfile) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.students {
		if st.NIS == profile.NIS {
			st.StudentProfile = profile
			return false, nil
		}
	}
	s.seq.student++
	s.students[s.seq.student] = &domain.Student{
		ID:             s.seq.student,
		StudentProfile: profile,
		CreatedAt:      s.now(),
	}
	return true, nil
}
