package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/gestao-escolar/school-hub/internal/domain/shared"
	"github.com/gestao-escolar/school-hub/internal/domain/student"
	"github.com/gestao-escolar/school-hub/internal/domain/task"
	"github.com/gestao-escolar/school-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST PAYLOADS
// ══════════════════════════════════════════════════════════════════════════════

type nameRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

type studentRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Age         int    `json:"age" validate:"required,min=1,max=150"`
	Scholarship bool   `json:"scholarship"`
	ClassID     int64  `json:"class_id" validate:"required,gt=0"`
}

func (r studentRequest) toStudent() student.Student {
	return student.Student{Name: r.Name, Age: r.Age, Scholarship: r.Scholarship, ClassID: r.ClassID}
}

type studentBatchRequest struct {
	Students []studentRequest `json:"students" validate:"required,min=1,dive"`
}

type taskRequest struct {
	Name      string `json:"name" validate:"required,max=255"`
	SubjectID int64  `json:"subject_id" validate:"required,gt=0"`
	StudentID int64  `json:"student_id" validate:"required,gt=0"`
}

type classTaskRequest struct {
	Name      string `json:"name" validate:"required,max=255"`
	SubjectID int64  `json:"subject_id" validate:"required,gt=0"`
}

type subjectIDsRequest struct {
	SubjectIDs []int64 `json:"subject_ids" validate:"required,min=1,dive,gt=0"`
}

// ══════════════════════════════════════════════════════════════════════════════
// CLASS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleCreateClass(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !s.decode(w, r, &req) {
		return
	}
	c, err := s.deps.Services.Classes.Create(r.Context(), req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, c)
}

func (s *Server) handleListClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := s.deps.Services.Classes.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeList(w, r, classes)
}

func (s *Server) handleListClassesWithStudents(w http.ResponseWriter, r *http.Request) {
	classes, err := s.deps.Services.Classes.ListWithStudents(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeList(w, r, classes)
}

func (s *Server) handleGetClass(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	c, err := s.deps.Services.Classes.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, c)
}

func (s *Server) handleUpdateClass(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var req nameRequest
	if !s.decode(w, r, &req) {
		return
	}
	c, err := s.deps.Services.Classes.Update(r.Context(), id, req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, c)
}

func (s *Server) handleDeleteClass(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.deps.Services.Classes.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListClassStudents(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	students, err := s.deps.Services.Classes.ListStudents(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeList(w, r, students)
}

func (s *Server) handleAssignSubjectsToClass(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var req subjectIDsRequest
	if !s.decode(w, r, &req) {
		return
	}
	result, err := s.deps.Services.Subjects.AssignToClass(r.Context(), id, req.SubjectIDs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

func (s *Server) handleAssignTaskToClass(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var req classTaskRequest
	if !s.decode(w, r, &req) {
		return
	}
	result, err := s.deps.Services.Tasks.AssignToClass(r.Context(), id, req.Name, req.SubjectID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	var req studentRequest
	if !s.decode(w, r, &req) {
		return
	}
	st, err := s.deps.Services.Students.Create(r.Context(), req.toStudent())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, st)
}

func (s *Server) handleCreateStudentBatch(w http.ResponseWriter, r *http.Request) {
	var req studentBatchRequest
	if !s.decode(w, r, &req) {
		return
	}
	in := make([]student.Student, len(req.Students))
	for i, row := range req.Students {
		in[i] = row.toStudent()
	}
	created, err := s.deps.Services.Students.CreateBatch(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, created)
}

func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := s.deps.Services.Students.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeList(w, r, students)
}

func (s *Server) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	st, err := s.deps.Services.Students.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, st)
}

func (s *Server) handleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var req studentRequest
	if !s.decode(w, r, &req) {
		return
	}
	st, err := s.deps.Services.Students.Update(r.Context(), id, req.toStudent())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, st)
}

func (s *Server) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.deps.Services.Students.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListStudentSubjects(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	subjects, err := s.deps.Services.Students.ListSubjects(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeList(w, r, subjects)
}

func (s *Server) handleEnrollStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	subjectID, ok := s.pathID(w, r, "subject_id")
	if !ok {
		return
	}
	added, err := s.deps.Services.Students.Enroll(r.Context(), id, subjectID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	writeJSON(w, r, status, student.Membership{StudentID: id, SubjectID: subjectID})
}

func (s *Server) handleListStudentTasks(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	tasks, err := s.deps.Services.Tasks.ListForStudent(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeList(w, r, tasks)
}

func (s *Server) handleAssignTaskToStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var req classTaskRequest
	if !s.decode(w, r, &req) {
		return
	}
	t, err := s.deps.Services.Tasks.AssignToStudent(r.Context(), id, req.Name, req.SubjectID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, t)
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBJECT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleCreateSubject(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !s.decode(w, r, &req) {
		return
	}
	sub, err := s.deps.Services.Subjects.Create(r.Context(), req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, sub)
}

func (s *Server) handleListSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := s.deps.Services.Subjects.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeList(w, r, subjects)
}

func (s *Server) handleGetSubject(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	sub, err := s.deps.Services.Subjects.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sub)
}

func (s *Server) handleUpdateSubject(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var req nameRequest
	if !s.decode(w, r, &req) {
		return
	}
	sub, err := s.deps.Services.Subjects.Update(r.Context(), id, req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sub)
}

func (s *Server) handleDeleteSubject(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.deps.Services.Subjects.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListSubjectStudents(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	students, err := s.deps.Services.Subjects.ListStudents(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeList(w, r, students)
}

// ══════════════════════════════════════════════════════════════════════════════
// TASK HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if !s.decode(w, r, &req) {
		return
	}
	t, err := s.deps.Services.Tasks.Create(r.Context(), task.Task{
		Name:      req.Name,
		SubjectID: req.SubjectID,
		StudentID: req.StudentID,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, t)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.deps.Services.Tasks.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeList(w, r, tasks)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	t, err := s.deps.Services.Tasks.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, t)
}

func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	t, err := s.deps.Services.Tasks.MarkComplete(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, t)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.deps.Services.Tasks.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ══════════════════════════════════════════════════════════════════════════════
// RANKING HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleStudentsByPendingTasks(w http.ResponseWriter, r *http.Request) {
	rows, err := s.deps.Services.Students.RankByPendingTasks(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeList(w, r, rows)
}

func (s *Server) handleSubjectsByEnrollment(w http.ResponseWriter, r *http.Request) {
	rows, err := s.deps.Services.Subjects.RankByEnrollment(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeList(w, r, rows)
}

func (s *Server) handleClassesByScholarshipHolders(w http.ResponseWriter, r *http.Request) {
	rows, err := s.deps.Services.Classes.RankByScholarshipHolders(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeList(w, r, rows)
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		code := http.StatusOK
		if !status.Healthy {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, r, code, status)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": s.deps.Version,
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST & ERROR HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// validate wraps a validator that reports fields by their JSON names.
type validate struct {
	v *validator.Validate
}

func newValidate() *validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &validate{v: v}
}

// check validates req and converts the first failing field into a
// validation failure.
func (v *validate) check(req any) error {
	err := v.v.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		field := fe.Field()
		if ns := fe.Namespace(); strings.Contains(ns, ".") {
			_, field, _ = strings.Cut(ns, ".")
		}
		return shared.Validation(field, "failed on '"+fe.Tag()+"' rule").
			WithDetail("rule", fe.Tag())
	}
	return shared.Validation("body", err.Error())
}

// decode reads a JSON body into dst and validates it. It writes the error
// response itself and reports whether the handler may continue.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSONError(w, r, http.StatusBadRequest, "invalid_json", "Request body is not valid JSON", map[string]any{
			"reason": err.Error(),
		})
		return false
	}
	if err := s.validate.check(dst); err != nil {
		s.writeError(w, r, err)
		return false
	}
	return true
}

// pathID parses a positive integer path parameter.
func (s *Server) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeJSONError(w, r, http.StatusBadRequest, "invalid_id", "Path parameter must be a positive integer", map[string]any{
			"param": name,
			"value": raw,
		})
		return 0, false
	}
	return id, true
}

// statusFor maps a failure kind to its HTTP status.
func statusFor(kind shared.Kind) int {
	switch kind {
	case shared.KindNotFound:
		return http.StatusNotFound
	case shared.KindValidation, shared.KindBusinessRule:
		return http.StatusBadRequest
	case shared.KindDatabase, shared.KindConnection, shared.KindIntegrity, shared.KindUnknown:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err. Storage and unknown failures are logged and their
// cause is not exposed.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	e, ok := shared.AsError(err)
	if !ok {
		s.logger.Error("unhandled error",
			logger.Err(err),
			logger.String("path", r.URL.Path),
			logger.RequestID(getRequestID(r.Context())),
		)
		writeJSONError(w, r, http.StatusInternalServerError, "internal_server_error", "An unexpected error occurred", nil)
		return
	}

	status := statusFor(e.Kind)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			logger.Err(err),
			logger.String("path", r.URL.Path),
			logger.RequestID(getRequestID(r.Context())),
		)
	}
	writeJSONError(w, r, status, e.Kind.String(), e.Message, e.Details)
}
