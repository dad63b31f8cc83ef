package models

import "fmt"

type WorkArrangement string

const (
	WorkOnSite WorkArrangement = "On-site"
	WorkRemote WorkArrangement = "Remote"
	WorkHybrid WorkArrangement = "Hybrid"
)

// ParseWorkArrangement accepts the exact enum spelling only.
func ParseWorkArrangement(s string) (WorkArrangement, bool) {
	switch w := WorkArrangement(s); w {
	case WorkOnSite, WorkRemote, WorkHybrid:
		return w, true
	}
	return "", false
}

type EmploymentType string

const (
	EmploymentFullTime   EmploymentType = "FULL_TIME"
	EmploymentPartTime   EmploymentType = "PART_TIME"
	EmploymentContract   EmploymentType = "CONTRACT"
	EmploymentInternship EmploymentType = "INTERNSHIP"
)

func ParseEmploymentType(s string) (EmploymentType, bool) {
	switch e := EmploymentType(s); e {
	case EmploymentFullTime, EmploymentPartTime, EmploymentContract, EmploymentInternship:
		return e, true
	}
	return "", false
}

// ListingStatus is the listing lifecycle. Only published listings are public.
type ListingStatus string

const (
	StatusDraft     ListingStatus = "draft"
	StatusPublished ListingStatus = "published"
	StatusDelisted  ListingStatus = "delisted"
)

func ParseListingStatus(s string) (ListingStatus, error) {
	switch st := ListingStatus(s); st {
	case StatusDraft, StatusPublished, StatusDelisted:
		return st, nil
	}
	return "", fmt.Errorf("unknown listing status %q", s)
}
