package cv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"talenthub/internal/domain/assessment"
	"talenthub/internal/domain/auth"
	"talenthub/internal/domain/core"
)

var ErrForbidden = errors.New("forbidden")

type UserSource interface {
	GetUser(ctx context.Context, userID string) (core.User, error)
}

type AssessmentSource interface {
	LatestCompleted(ctx context.Context, userID string) (assessment.View, bool, error)
}

// Sealer encrypts archived files when a key is configured.
type Sealer interface {
	Configured() bool
	Seal(plain []byte) ([]byte, error)
}

type Service struct {
	users       UserSource
	assessments AssessmentSource
	// Dir, when set, receives a copy of every generated CV.
	Dir    string
	Sealer Sealer
	now    func() time.Time
}

func NewService(users UserSource, assessments AssessmentSource, dir string) *Service {
	return &Service{users: users, assessments: assessments, Dir: dir, now: time.Now}
}

// Generate renders the CV of userID. Users may generate their own; ADMIN/HR
// may generate anyone's.
func (s *Service) Generate(ctx context.Context, actor auth.UserContext, userID string) ([]byte, string, error) {
	if userID == "" {
		userID = actor.UserID
	}
	if userID != actor.UserID && !actor.IsReviewer() {
		return nil, "", ErrForbidden
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	view, ok, err := s.assessments.LatestCompleted(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	data, err := Render(BuildDocument(user, view, ok, s.now()))
	if err != nil {
		return nil, "", err
	}
	name := FileName(user.FullName)
	if s.Dir != "" {
		if err := s.archive(user.ID, data); err != nil {
			slog.Warn("cv archive failed", "userId", user.ID, "err", err)
		}
	}
	return data, name, nil
}

func (s *Service) archive(userID string, data []byte) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(s.Dir, fmt.Sprintf("%s-%s.pdf", userID, s.now().Format("20060102-150405")))
	if s.Sealer != nil && s.Sealer.Configured() {
		sealed, err := s.Sealer.Seal(data)
		if err != nil {
			return err
		}
		data, path = sealed, path+".enc"
	}
	return os.WriteFile(path, data, 0o600)
}

// FileName turns a person's name into a safe download name.
func FileName(fullName string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(fullName)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	name := strings.Trim(b.String(), "-")
	if name == "" {
		name = "cv"
	}
	return "cv-" + name + ".pdf"
}
