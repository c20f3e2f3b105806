package services

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	domainagg "github.com/yungbote/skillbharat-backend/internal/domain/aggregates"
	"github.com/yungbote/skillbharat-backend/internal/domain/learning"
	"github.com/yungbote/skillbharat-backend/internal/pkg/dbctx"
	"github.com/yungbote/skillbharat-backend/internal/platform/logger"
)

const completionDateLayout = "January 2, 2006"

// CertificateData is the flat record handed to the certificate renderer.
type CertificateData struct {
	CertificateNumber string    `json:"certificate_number"`
	StudentName       string    `json:"student_name"`
	CourseTitle       string    `json:"course_title"`
	InstructorName    string    `json:"instructor_name"`
	CompletedAt       time.Time `json:"completed_at"`
	IssuedAt          time.Time `json:"issued_at"`
	DurationMinutes   int       `json:"duration_minutes"`
	Issuer            string    `json:"issuer"`
	Template          string    `json:"template"`
	Title             string    `json:"title"`
	Body              string    `json:"body"`
}

type CertificateService interface {
	Assemble(ctx context.Context, userID, courseID uuid.UUID, template string) (*CertificateData, error)
}

type CertificateDeps struct {
	Log          *logger.Logger
	Users        UserReader
	Trees        CourseTreeReader
	Enrollments  EnrollmentReader
	Certificates CertificateStore
	Templates    *TemplateCatalog
	Issuer       string
	Now          func() time.Time
}

type certificateService struct {
	log          *logger.Logger
	users        UserReader
	trees        CourseTreeReader
	enrollments  EnrollmentReader
	certificates CertificateStore
	templates    *TemplateCatalog
	issuer       string
	now          func() time.Time
}

func NewCertificateService(deps CertificateDeps) (CertificateService, error) {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.Templates == nil {
		cat, err := LoadTemplateCatalog("")
		if err != nil {
			return nil, err
		}
		deps.Templates = cat
	}
	if strings.TrimSpace(deps.Issuer) == "" {
		deps.Issuer = "Skill Bharat"
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	return &certificateService{
		log:          deps.Log.With("service", "CertificateService"),
		users:        deps.Users,
		trees:        deps.Trees,
		enrollments:  deps.Enrollments,
		certificates: deps.Certificates,
		templates:    deps.Templates,
		issuer:       deps.Issuer,
		now:          deps.Now,
	}, nil
}

// NewCertificateNumber formats SB-<completion YYYYMMDD>-<8 upper hex>.
func NewCertificateNumber(completedAt time.Time) string {
	id := uuid.New()
	return fmt.Sprintf("SB-%s-%s", completedAt.UTC().Format("20060102"), strings.ToUpper(hex.EncodeToString(id[:4])))
}

func (s *certificateService) Assemble(ctx context.Context, userID, courseID uuid.UUID, template string) (*CertificateData, error) {
	const op = "certificate.assemble"
	if userID == uuid.Nil {
		return nil, domainagg.ErrUnauthenticated
	}
	tpl, ok := s.templates.Get(template)
	if !ok {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("unknown template %q", template), nil)
	}
	dbc := dbctx.New(ctx)

	enr, err := s.enrollments.GetByUserAndCourse(dbc, userID, courseID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if enr == nil || !enr.Completed {
		return nil, domainagg.NewError(domainagg.CodePreconditionFailed, op, "course not completed", nil)
	}
	tree, err := s.trees.GetTree(dbc, courseID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if tree == nil || tree.Course == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "course not found", nil)
	}
	u, err := s.users.GetByID(dbc, userID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if u == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, "user not found", nil)
	}

	completedAt := enr.UpdatedAt
	if enr.CompletedAt != nil {
		completedAt = *enr.CompletedAt
	}
	duration := 0
	for _, m := range tree.Modules {
		duration += m.DurationMinutes()
	}
	data := &CertificateData{
		StudentName:     u.FullName(),
		CourseTitle:     tree.Course.Title,
		InstructorName:  tree.Course.InstructorName,
		CompletedAt:     completedAt.UTC(),
		DurationMinutes: duration,
		Issuer:          s.issuer,
		Template:        tpl.Name,
		Title:           tpl.Title,
	}

	cert, err := s.issue(dbc, userID, courseID, tpl.Name, data)
	if err != nil {
		return nil, err
	}
	data.CertificateNumber = cert.CertificateNumber
	data.IssuedAt = cert.IssuedAt.UTC()
	data.Body = RenderCertificateBody(tpl.Body, data)
	return data, nil
}

// issue returns the stored certificate, creating it on first request.
func (s *certificateService) issue(dbc dbctx.Context, userID, courseID uuid.UUID, template string, data *CertificateData) (*learning.Certificate, error) {
	const op = "certificate.issue"
	existing, err := s.certificates.GetByUserAndCourse(dbc, userID, courseID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if existing != nil {
		return existing, nil
	}
	issuedAt := s.now()
	snapshot := *data
	snapshot.CertificateNumber = NewCertificateNumber(data.CompletedAt)
	snapshot.IssuedAt = issuedAt
	raw, err := sonic.Marshal(snapshot)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	row, created, err := s.certificates.CreateIfAbsent(dbc, &learning.Certificate{
		UserID:            userID,
		CourseID:          courseID,
		CertificateNumber: snapshot.CertificateNumber,
		Template:          template,
		Data:              datatypes.JSON(raw),
		IssuedAt:          issuedAt,
	})
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if created {
		s.log.Info("Certificate issued",
			"user_id", userID,
			"course_id", courseID,
			"certificate_number", row.CertificateNumber,
		)
	}
	return row, nil
}

// RenderCertificateBody substitutes the {{placeholder}} fields of body.
func RenderCertificateBody(body string, d *CertificateData) string {
	if d == nil {
		return body
	}
	r := strings.NewReplacer(
		"{{student_name}}", d.StudentName,
		"{{course_title}}", d.CourseTitle,
		"{{instructor_name}}", d.InstructorName,
		"{{completion_date}}", d.CompletedAt.Format(completionDateLayout),
		"{{certificate_number}}", d.CertificateNumber,
		"{{issuer}}", d.Issuer,
		"{{duration_hours}}", fmt.Sprintf("%.1f", float64(d.DurationMinutes)/60),
	)
	return strings.TrimSpace(r.Replace(body))
}
