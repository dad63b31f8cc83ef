package testutil

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/justsurfingit/jobboard/internal/models"
)

// Org inserts an organization with the given id and name.
func Org(t testing.TB, db *gorm.DB, id, name string) models.Organization {
	t.Helper()
	org := models.Organization{ID: id, Name: name}
	if err := db.Create(&org).Error; err != nil {
		t.Fatalf("create organization %s: %v", id, err)
	}
	return org
}

// Listing inserts a listing owned by org. mutate may adjust fields before insert.
func Listing(t testing.TB, db *gorm.DB, org models.Organization, id string, mutate func(*models.JobListing)) models.JobListing {
	t.Helper()
	posted := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	job := models.JobListing{
		ID:               id,
		OrganizationID:   org.ID,
		OrganizationName: org.Name,
		Title:            fmt.Sprintf("Job %s", id),
		URL:              "https://example.com/" + id,
		Status:           models.StatusPublished,
		DatePosted:       &posted,
		EmploymentTypes:  []models.EmploymentType{models.EmploymentFullTime},
		KeySkills:        []string{},
	}
	if mutate != nil {
		mutate(&job)
	}
	if err := db.Create(&job).Error; err != nil {
		t.Fatalf("create listing %s: %v", id, err)
	}
	return job
}

func Ptr[T any](v T) *T { return &v }
