package model

import (
	"errors"
	"fmt"
	"strings"
)

// Content is the structured resume document produced by generation and
// stored verbatim on a generated resume.
type Content struct {
	PersonalInfo   PersonalInfo    `json:"personalInfo"`
	Summary        string          `json:"summary"`
	Experience     []Experience    `json:"experience"`
	Education      []Education     `json:"education"`
	Skills         Skills          `json:"skills"`
	Certifications []Certification `json:"certifications,omitempty"`
	Languages      []Language      `json:"languages,omitempty"`
	Projects       []Project       `json:"projects,omitempty"`
	Publications   []Publication   `json:"publications,omitempty"`
	Volunteer      []Volunteer     `json:"volunteer,omitempty"`
	Awards         []Award         `json:"awards,omitempty"`
}

// PersonalInfo captures top-of-resume contact details.
type PersonalInfo struct {
	FullName string `json:"fullName"`
	Title    string `json:"title,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	Website  string `json:"website,omitempty"`
}

// Skills maps a category name to its ordered skill list.
type Skills map[string][]string

type Experience struct {
	Title        string   `json:"title"`
	Company      string   `json:"company"`
	Location     string   `json:"location,omitempty"`
	StartDate    string   `json:"startDate,omitempty"`
	EndDate      string   `json:"endDate,omitempty"`
	Current      bool     `json:"current,omitempty"`
	Description  string   `json:"description,omitempty"`
	Achievements []string `json:"achievements,omitempty"`
}

type Education struct {
	Degree         string   `json:"degree"`
	Institution    string   `json:"institution"`
	Location       string   `json:"location,omitempty"`
	GraduationDate string   `json:"graduationDate,omitempty"`
	GPA            string   `json:"gpa,omitempty"`
	Honors         []string `json:"honors,omitempty"`
}

type Certification struct {
	Name   string `json:"name"`
	Issuer string `json:"issuer,omitempty"`
	Date   string `json:"date,omitempty"`
}

type Language struct {
	Language    string `json:"language"`
	Proficiency string `json:"proficiency,omitempty"`
}

type Project struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
	Link         string   `json:"link,omitempty"`
}

type Publication struct {
	Title     string `json:"title"`
	Publisher string `json:"publisher,omitempty"`
	Date      string `json:"date,omitempty"`
	Link      string `json:"link,omitempty"`
}

type Volunteer struct {
	Organization string `json:"organization"`
	Role         string `json:"role,omitempty"`
	Description  string `json:"description,omitempty"`
	StartDate    string `json:"startDate,omitempty"`
	EndDate      string `json:"endDate,omitempty"`
}

type Award struct {
	Title       string `json:"title"`
	Issuer      string `json:"issuer,omitempty"`
	Date        string `json:"date,omitempty"`
	Description string `json:"description,omitempty"`
}

// ErrEmptyContent is returned when a document carries no resume sections at all.
var ErrEmptyContent = errors.New("resume content is empty")

// Validate checks the structural rules every stored document must satisfy.
func (c Content) Validate() error {
	if strings.TrimSpace(c.Summary) == "" && len(c.Experience) == 0 && len(c.Education) == 0 && len(c.Skills) == 0 {
		return ErrEmptyContent
	}
	for i, exp := range c.Experience {
		if strings.TrimSpace(exp.Title) == "" && strings.TrimSpace(exp.Company) == "" {
			return fmt.Errorf("experience[%d] requires a title or company", i)
		}
	}
	for i, edu := range c.Education {
		if strings.TrimSpace(edu.Institution) == "" && strings.TrimSpace(edu.Degree) == "" {
			return fmt.Errorf("education[%d] requires an institution or degree", i)
		}
	}
	for category := range c.Skills {
		if strings.TrimSpace(category) == "" {
			return errors.New("skills category name is required")
		}
	}
	return nil
}

// WithPersonalInfo returns a copy of c whose personal info fields are replaced
// by the non-empty fields of override.
func (c Content) WithPersonalInfo(override *PersonalInfo) Content {
	if override == nil {
		return c
	}
	merge := func(dst *string, src string) {
		if v := strings.TrimSpace(src); v != "" {
			*dst = v
		}
	}
	p := c.PersonalInfo
	merge(&p.FullName, override.FullName)
	merge(&p.Title, override.Title)
	merge(&p.Email, override.Email)
	merge(&p.Phone, override.Phone)
	merge(&p.Location, override.Location)
	merge(&p.LinkedIn, override.LinkedIn)
	merge(&p.Website, override.Website)
	c.PersonalInfo = p
	return c
}
