package models

import (
	"time"

	"gorm.io/datatypes"
)

type Organization struct {
	ID        string    `gorm:"primaryKey;type:varchar(255)" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Name    string  `gorm:"type:varchar(255);not null;index" json:"name"`
	LogoURL *string `gorm:"column:logo_url" json:"logoUrl"`
}

type Location struct {
	ID        string    `gorm:"primaryKey;type:varchar(255)" json:"id"` // loc_<country>_<city>
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Country   string   `gorm:"type:varchar(255);not null;uniqueIndex:locations_country_city_key;index:idx_locations_country" json:"country"`
	City      string   `gorm:"type:varchar(255);not null;uniqueIndex:locations_country_city_key;index:idx_locations_city" json:"city"`
	Region    *string  `json:"region"`
	Timezone  *string  `json:"timezone"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`

	// Recomputed by maintenance, not kept in step with listing writes.
	JobCount int `gorm:"not null;default:0" json:"jobCount"`
}

type JobListing struct {
	ID        string    `gorm:"primaryKey;type:varchar(255)" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	OrganizationID string        `gorm:"type:varchar(255);not null;index" json:"organizationId"`
	Organization   *Organization `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"organization,omitempty"`

	// Copied from the organization at write time so list pages skip the join.
	OrganizationName string  `gorm:"type:varchar(255);not null;index" json:"organizationName"`
	OrganizationLogo *string `json:"organizationLogo"`
	OrganizationURL  *string `gorm:"column:organization_url" json:"organizationUrl"`

	Title           string  `gorm:"type:varchar(255);not null" json:"title"`
	URL             string  `gorm:"column:url;not null" json:"url"`
	DescriptionHTML *string `gorm:"column:description_html;type:text" json:"descriptionHtml"`

	City        *string   `gorm:"index" json:"city"`
	Region      *string   `json:"region"`
	Country     *string   `gorm:"index" json:"country"`
	Location    *string   `json:"location"`
	LocationID  *string   `gorm:"type:varchar(255);index" json:"locationId"`
	LocationRef *Location `gorm:"foreignKey:LocationID;constraint:OnDelete:SET NULL" json:"-"`

	SalaryMin                 *int                                `gorm:"column:ai_salary_min_value" json:"aiSalaryMinValue"`
	SalaryMax                 *int                                `gorm:"column:ai_salary_max_value" json:"aiSalaryMaxValue"`
	SalaryCurrency            *string                             `gorm:"column:ai_salary_currency" json:"aiSalaryCurrency"`
	ExperienceLevel           *string                             `gorm:"column:ai_experience_level" json:"aiExperienceLevel"`
	WorkArrangement           *WorkArrangement                    `gorm:"column:ai_work_arrangement;type:varchar(16);index" json:"aiWorkArrangement"`
	WorkArrangementOfficeDays *int                                `gorm:"column:ai_work_arrangement_office_days" json:"aiWorkArrangementOfficeDays"`
	RemoteLocation            *string                             `gorm:"column:ai_remote_location" json:"aiRemoteLocation"`
	KeySkills                 datatypes.JSONSlice[string]         `gorm:"column:ai_key_skills" json:"aiKeySkills"`
	CoreResponsibilities      *string                             `gorm:"column:ai_core_responsibilities;type:text" json:"aiCoreResponsibilities"`
	RequirementsSummary       *string                             `gorm:"column:ai_requirements_summary;type:text" json:"aiRequirementsSummary"`
	WorkingHours              *int                                `gorm:"column:ai_working_hours" json:"aiWorkingHours"`
	EmploymentTypes           datatypes.JSONSlice[EmploymentType] `gorm:"column:ai_employment_type" json:"aiEmploymentType"`
	JobLanguage               *string                             `gorm:"column:ai_job_language" json:"aiJobLanguage"`
	VisaSponsorship           bool                                `gorm:"column:ai_visa_sponsorship;not null;default:false" json:"aiVisaSponsorship"`
	Benefits                  *string                             `gorm:"column:ai_benefits;type:text" json:"aiBenefits"`

	// Company graph enrichment.
	OrgEmployees    *int                        `gorm:"column:linkedin_org_employees" json:"linkedinOrgEmployees"`
	OrgSize         *string                     `gorm:"column:linkedin_org_size" json:"linkedinOrgSize"`
	OrgSlogan       *string                     `gorm:"column:linkedin_org_slogan" json:"linkedinOrgSlogan"`
	OrgIndustry     *string                     `gorm:"column:linkedin_org_industry" json:"linkedinOrgIndustry"`
	OrgFoundedDate  *string                     `gorm:"column:linkedin_org_founded_date" json:"linkedinOrgFoundedDate"`
	OrgHeadquarters *string                     `gorm:"column:linkedin_org_headquarters" json:"linkedinOrgHeadquarters"`
	OrgSpecialties  datatypes.JSONSlice[string] `gorm:"column:linkedin_org_specialties" json:"linkedinOrgSpecialties"`
	OrgDescription  *string                     `gorm:"column:linkedin_org_description;type:text" json:"linkedinOrgDescription"`

	Status     ListingStatus `gorm:"type:varchar(16);not null;default:'published';index" json:"status"`
	IsFeatured bool          `gorm:"not null;default:false" json:"isFeatured"`
	DatePosted *time.Time    `json:"datePosted"`
}

// All returns every model in migration order.
func All() []interface{} {
	return []interface{}{&Organization{}, &Location{}, &JobListing{}}
}
