package web

import (
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/adapter/out/filestore"
	"github.com/JoeShih716/tabungan-santri/internal/app/core/adapter/out/sheet"
	"github.com/JoeShih716/tabungan-santri/internal/app/core/domain"
	"github.com/JoeShih716/tabungan-santri/internal/app/core/usecase"
)

// maxPhotoSize 照片上限 2 MB
const maxPhotoSize = 2 << 20

var photoTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// studentJSON 搜尋 API 的輸出
type studentJSON struct {
	ID      int64  `json:"id"`
	NIS     string `json:"nis"`
	Name    string `json:"nama"`
	Class   string `json:"kelas"`
	Group   string `json:"kelompok"`
	Photo   string `json:"foto_path"`
	Balance int64  `json:"saldo"`
}

func toStudentJSON(list []domain.Student) []studentJSON {
	out := make([]studentJSON, 0, len(list))
	for _, st := range list {
		out = append(out, studentJSON{
			ID:      st.ID,
			NIS:     st.NIS,
			Name:    st.Name,
			Class:   st.Class,
			Group:   st.Group,
			Photo:   st.PhotoPath,
			Balance: st.Balance,
		})
	}
	return out
}

func profileFromForm(c *fiber.Ctx) domain.StudentProfile {
	return domain.StudentProfile{
		NIS:           c.FormValue("nis"),
		Name:          c.FormValue("nama"),
		Class:         c.FormValue("kelas"),
		Group:         c.FormValue("kelompok"),
		BirthDate:     usecase.ParseBirthDate(c.FormValue("tanggal_lahir")),
		Address:       c.FormValue("alamat"),
		GuardianPhone: c.FormValue("hp_wali"),
	}
}

// savePhoto 儲存上傳的照片；沒有上傳時回傳空字串
func (s *Server) savePhoto(c *fiber.Ctx) (string, error) {
	fh, err := c.FormFile("foto")
	if err != nil || fh == nil || fh.Size == 0 {
		return "", nil
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if _, ok := photoTypes[ext]; !ok {
		return "", domain.NewValidationError("foto", "foto harus JPG atau PNG")
	}
	if fh.Size > maxPhotoSize {
		return "", domain.NewValidationError("foto", "ukuran foto maksimal 2 MB")
	}
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	return s.svc.Files.Save(filestore.PhotosDir, ext, f)
}

func (s *Server) listStudents(c *fiber.Ctx) error {
	q := c.Query("q")
	list, err := s.svc.Students.List(c.UserContext(), q)
	if err != nil {
		s.logFailure(c, err)
		setFlashNow(c, flashError, messageOf(err))
	}
	return render(c, "students/list", "Data Santri", fiber.Map{"Students": list, "Query": q})
}

func (s *Server) searchStudentsAdmin(c *fiber.Ctx) error {
	list, err := s.svc.Students.SearchForAdmin(c.UserContext(), c.Query("q"), c.QueryInt("limit", usecase.DefaultSearchLimit))
	if err != nil {
		return s.failJSON(c, err)
	}
	return c.JSON(toStudentJSON(list))
}

func (s *Server) newStudent(c *fiber.Ctx) error {
	return render(c, "students/form", "Tambah Santri", fiber.Map{"Student": &domain.Student{}, "Action": "/santri/new"})
}

func (s *Server) createStudent(c *fiber.Ctx) error {
	actor, _ := currentActor(c)
	photo, err := s.savePhoto(c)
	if err != nil {
		return s.fail(c, err, "/santri/new")
	}
	st, err := s.svc.Students.Create(c.UserContext(), actor, profileFromForm(c), photo)
	if err != nil {
		if photo != "" {
			s.svc.Files.Remove(photo)
		}
		return s.fail(c, err, "/santri/new")
	}
	setFlash(c, flashSuccess, fmt.Sprintf("Santri %s berhasil ditambahkan.", st.Name))
	return c.Redirect("/santri")
}

func (s *Server) editStudent(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	st, err := s.svc.Students.Get(c.UserContext(), id)
	if err != nil {
		return s.fail(c, err, "/santri")
	}
	return render(c, "students/form", "Edit Santri", fiber.Map{"Student": st, "Action": fmt.Sprintf("/santri/%d/edit", id)})
}

func (s *Server) updateStudent(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	actor, _ := currentActor(c)
	back := fmt.Sprintf("/santri/%d/edit", id)
	if err := s.svc.Students.Update(c.UserContext(), actor, id, profileFromForm(c)); err != nil {
		return s.fail(c, err, back)
	}
	photo, err := s.savePhoto(c)
	if err != nil {
		return s.fail(c, err, back)
	}
	if photo != "" {
		if err := s.svc.Students.ReplacePhoto(c.UserContext(), actor, id, photo); err != nil {
			s.svc.Files.Remove(photo)
			return s.fail(c, err, back)
		}
	}
	setFlash(c, flashSuccess, "Data santri diperbarui.")
	return c.Redirect("/santri")
}

func (s *Server) deleteStudent(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	actor, _ := currentActor(c)
	if err := s.svc.Students.Delete(c.UserContext(), actor, id); err != nil {
		return s.fail(c, err, "/santri")
	}
	setFlash(c, flashSuccess, "Santri dihapus beserta transaksinya.")
	return c.Redirect("/santri")
}

func (s *Server) showStudent(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	detail, err := s.svc.Students.Detail(c.UserContext(), id)
	if err != nil {
		actor, _ := currentActor(c)
		return s.fail(c, err, homeFor(actor.Role))
	}
	return render(c, "students/detail", "Detail Santri", fiber.Map{"Detail": detail})
}

func (s *Server) studentPhoto(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	st, err := s.svc.Students.Get(c.UserContext(), id)
	if err != nil {
		return fiber.ErrNotFound
	}
	if st.PhotoPath == "" {
		return fiber.ErrNotFound
	}
	f, err := s.svc.Files.Open(st.PhotoPath)
	if err != nil {
		return fiber.ErrNotFound
	}
	if ct, ok := photoTypes[strings.ToLower(filepath.Ext(st.PhotoPath))]; ok {
		c.Set(fiber.HeaderContentType, ct)
	}
	return c.SendStream(f)
}

// --- import ---

func (s *Server) showImport(c *fiber.Ctx) error {
	return render(c, "students/import", "Import Santri", fiber.Map{})
}

func (s *Server) fetchSheet(c *fiber.Ctx) ([][]string, error) {
	link := strings.TrimSpace(c.FormValue("url"))
	if link == "" {
		return nil, domain.NewValidationError("url", "URL Google Sheets wajib diisi")
	}
	records, err := s.svc.Sheets.Fetch(c.UserContext(), link, c.FormValue("sheet"))
	if errors.Is(err, sheet.ErrInvalidSheetURL) {
		return nil, domain.NewValidationError("url", err.Error())
	}
	if err != nil {
		return nil, domain.NewValidationError("url", "gagal mengambil data: "+err.Error())
	}
	return records, nil
}

func (s *Server) previewSheetImport(c *fiber.Ctx) error {
	records, err := s.fetchSheet(c)
	if err != nil {
		return s.fail(c, err, "/santri/import")
	}
	preview, err := usecase.PreviewImport(records)
	if err != nil {
		return s.fail(c, err, "/santri/import")
	}
	return render(c, "students/import", "Import Santri", fiber.Map{
		"Preview": preview,
		"URL":     c.FormValue("url"),
		"Sheet":   c.FormValue("sheet"),
	})
}

func (s *Server) runSheetImport(c *fiber.Ctx) error {
	records, err := s.fetchSheet(c)
	if err != nil {
		return s.fail(c, err, "/santri/import")
	}
	return s.runImport(c, "gsheet", records)
}

// readUpload 讀取上傳的 .xlsx (第一個工作表) 或 .csv
func readUpload(fh *multipart.FileHeader) ([][]string, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var records [][]string
	switch strings.ToLower(filepath.Ext(fh.Filename)) {
	case ".xlsx":
		records, _, err = sheet.ReadXLSX(f)
	case ".csv":
		records, err = sheet.ReadCSV(f)
	default:
		return nil, domain.NewValidationError("excel", "format file harus .xlsx atau .csv")
	}
	if err != nil {
		return nil, domain.NewValidationError("excel", "file tidak dapat dibaca: "+err.Error())
	}
	return records, nil
}

func (s *Server) uploadedRecords(c *fiber.Ctx) ([][]string, string, error) {
	fh, err := c.FormFile("excel")
	if err != nil {
		return nil, "", domain.NewValidationError("excel", "file wajib diunggah")
	}
	records, err := readUpload(fh)
	return records, fh.Filename, err
}

func (s *Server) previewFileImport(c *fiber.Ctx) error {
	records, name, err := s.uploadedRecords(c)
	if err != nil {
		return s.fail(c, err, "/santri/import")
	}
	preview, err := usecase.PreviewImport(records)
	if err != nil {
		return s.fail(c, err, "/santri/import")
	}
	return render(c, "students/import", "Import Santri", fiber.Map{"Preview": preview, "FileName": name})
}

func (s *Server) runFileImport(c *fiber.Ctx) error {
	records, name, err := s.uploadedRecords(c)
	if err != nil {
		return s.fail(c, err, "/santri/import")
	}
	return s.runImport(c, "file:"+name, records)
}

func (s *Server) runImport(c *fiber.Ctx, source string, records [][]string) error {
	actor, _ := currentActor(c)
	res, err := s.svc.Students.Import(c.UserContext(), actor, source, records)
	if err != nil {
		return s.fail(c, err, "/santri/import")
	}
	setFlash(c, flashSuccess, "Import selesai. "+res.String())
	return c.Redirect("/santri")
}
