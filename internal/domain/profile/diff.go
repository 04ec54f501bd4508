package profile

import (
	"fmt"
	"strings"
	"time"
)

// Normalize trims text fields and validates formats.
func Normalize(c Changes) (Changes, error) {
	trim := func(p *string) *string {
		if p == nil {
			return nil
		}
		v := strings.TrimSpace(*p)
		return &v
	}
	c.FullName = trim(c.FullName)
	c.Phone = trim(c.Phone)
	c.Address = trim(c.Address)
	c.DateOfBirth = trim(c.DateOfBirth)
	c.JobTitle = trim(c.JobTitle)
	c.Summary = trim(c.Summary)

	if c.FullName != nil && *c.FullName == "" {
		return c, fmt.Errorf("%w: fullName cannot be empty", ErrInvalidField)
	}
	if c.Phone != nil && len(*c.Phone) > 32 {
		return c, fmt.Errorf("%w: phone is too long", ErrInvalidField)
	}
	if c.DateOfBirth != nil && *c.DateOfBirth != "" {
		dob, err := time.Parse(dateLayout, *c.DateOfBirth)
		if err != nil {
			return c, fmt.Errorf("%w: dateOfBirth must be YYYY-MM-DD", ErrInvalidField)
		}
		if !dob.Before(time.Now()) {
			return c, fmt.Errorf("%w: dateOfBirth must be in the past", ErrInvalidField)
		}
	}
	if c.Skills != nil {
		skills := make([]string, 0, len(*c.Skills))
		seen := map[string]bool{}
		for _, s := range *c.Skills {
			s = strings.TrimSpace(s)
			key := strings.ToLower(s)
			if s == "" || seen[key] {
				continue
			}
			seen[key] = true
			skills = append(skills, s)
		}
		c.Skills = &skills
	}
	return c, nil
}

// Diff keeps only the requested fields whose value differs from current and
// returns the previous values of exactly those fields.
func Diff(current Profile, requested Changes) (Changes, Changes) {
	var changed, previous Changes
	str := func(req *string, cur string, dst, prev **string) {
		if req == nil || *req == cur {
			return
		}
		v, p := *req, cur
		*dst, *prev = &v, &p
	}
	str(requested.FullName, current.FullName, &changed.FullName, &previous.FullName)
	str(requested.Phone, current.Phone, &changed.Phone, &previous.Phone)
	str(requested.Address, current.Address, &changed.Address, &previous.Address)
	str(requested.DateOfBirth, formatDate(current.DateOfBirth), &changed.DateOfBirth, &previous.DateOfBirth)
	str(requested.JobTitle, current.JobTitle, &changed.JobTitle, &previous.JobTitle)
	str(requested.Summary, current.Summary, &changed.Summary, &previous.Summary)
	if requested.Skills != nil && !equalStrings(*requested.Skills, current.Skills) {
		v := append([]string{}, *requested.Skills...)
		p := append([]string{}, current.Skills...)
		changed.Skills, previous.Skills = &v, &p
	}
	return changed, previous
}

func (c Changes) Empty() bool {
	return c.FullName == nil && c.Phone == nil && c.Address == nil && c.DateOfBirth == nil &&
		c.JobTitle == nil && c.Summary == nil && c.Skills == nil
}

// Fields lists the names of the fields c touches.
func (c Changes) Fields() []string {
	var out []string
	add := func(set bool, name string) {
		if set {
			out = append(out, name)
		}
	}
	add(c.FullName != nil, "fullName")
	add(c.Phone != nil, "phone")
	add(c.Address != nil, "address")
	add(c.DateOfBirth != nil, "dateOfBirth")
	add(c.JobTitle != nil, "jobTitle")
	add(c.Summary != nil, "summary")
	add(c.Skills != nil, "skills")
	return out
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
