package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/justsurfingit/jobboard/internal/models"
)

// Record is one scraped dataset item. Providers send loosely shaped JSON,
// so fields are looked up by name through fixed fallback chains.
type Record map[string]any

type RecordKind string

const (
	KindJob     RecordKind = "job"
	KindProfile RecordKind = "profile"
	KindCompany RecordKind = "company"
	KindUnknown RecordKind = "unknown"
)

// A record needs this many populated job fields to count as a posting.
const minJobFields = 3

const maxColumnLength = 255

var jobFields = []string{
	"jobTitle", "title", "position", "positionTitle",
	"company", "companyName", "employer",
	"description", "jobDescription", "descriptionHtml",
	"location", "jobLocation", "city",
	"salary", "wage", "compensation",
	"jobUrl", "url", "link", "applyUrl",
}

var knownSkills = []string{
	"JavaScript", "TypeScript", "React", "Node.js", "Python", "Java", "PHP", "CSS", "HTML",
	"Vue.js", "Angular", "Laravel", "Symfony", "Docker", "Kubernetes", "AWS", "Azure",
	"PostgreSQL", "MySQL", "MongoDB", "Redis", "Git", "Jenkins", "CI/CD",
}

var salaryNumber = regexp.MustCompile(`\d+[\d\s,.]*`)

var ErrMissingRequired = errors.New("record has no title or organization name")

// Classify decides what kind of entity a scraped record describes.
func Classify(r Record) RecordKind {
	populated := 0
	for _, f := range jobFields {
		if r.String(f) != "" {
			populated++
		}
	}
	switch {
	case populated >= minJobFields:
		return KindJob
	case r.String("name") != "" && r.String("profileUrl") != "":
		return KindProfile
	case r.String("companyName") != "" || r.String("company") != "":
		return KindCompany
	default:
		return KindUnknown
	}
}

// String returns the trimmed value of key when it holds a string.
func (r Record) String(key string) string {
	s, ok := r[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// First returns the first non-empty string among keys.
func (r Record) First(keys ...string) string {
	for _, k := range keys {
		if v := r.String(k); v != "" {
			return v
		}
	}
	return ""
}

// Text joins string and string-array values of keys, for keyword scans.
func (r Record) Text(keys ...string) string {
	var parts []string
	for _, k := range keys {
		switch v := r[k].(type) {
		case string:
			parts = append(parts, v)
		case []any:
			for _, e := range v {
				if s, ok := e.(string); ok {
					parts = append(parts, s)
				}
			}
		}
	}
	return strings.Join(parts, " ")
}

// ID returns the first id-like value among keys. Numeric ids are accepted.
func (r Record) ID(keys ...string) string {
	for _, k := range keys {
		switch v := r[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case json.Number:
			return v.String()
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// ExtractedJob holds the normalized listing fields of one record before the
// organization and location are resolved.
type ExtractedJob struct {
	ID               string
	Title            string
	OrganizationName string
	OrganizationLogo *string
	OrganizationURL  *string
	URL              string
	DescriptionHTML  *string

	City     *string
	Region   *string
	Country  *string
	Location *string

	SalaryMin       *int
	SalaryMax       *int
	SalaryCurrency  *string
	ExperienceLevel *string
	WorkArrangement *models.WorkArrangement
	EmploymentTypes []models.EmploymentType
	KeySkills       []string

	DatePosted time.Time
}

// Extractor turns Records into ExtractedJobs. The zero value is not usable;
// start from DefaultExtractor.
type Extractor struct {
	TitlePlaceholder        string
	OrganizationPlaceholder string
	DefaultCountry          string
	DefaultCurrency         string
	PlaceholderURLBase      string
	Now                     func() time.Time
}

func DefaultExtractor() Extractor {
	return Extractor{
		TitlePlaceholder:        "Untitled position",
		OrganizationPlaceholder: "Unknown company",
		DefaultCountry:          "France",
		DefaultCurrency:         "EUR",
		PlaceholderURLBase:      "https://example.com/job/",
		Now:                     time.Now,
	}
}

// ListingID derives the stable listing key. fallback is used when the record
// carries no id of its own.
func ListingID(r Record, fallback string) string {
	base := r.ID("id", "jobId")
	if base == "" {
		base = fallback
	}
	return "job_apify_" + base
}

// Extract applies the fallback chains to r. ErrMissingRequired is returned
// when title or organization stays empty after fallback.
func (e Extractor) Extract(r Record, fallbackID string) (*ExtractedJob, error) {
	job := &ExtractedJob{
		ID:               ListingID(r, fallbackID),
		Title:            truncate(firstNonEmpty(r.First("jobTitle", "title", "position", "positionTitle"), e.TitlePlaceholder), maxColumnLength),
		OrganizationName: truncate(firstNonEmpty(r.First("company", "companyName", "employer"), e.OrganizationPlaceholder), maxColumnLength),
		OrganizationLogo: optional(r.First("companyLogo", "logo")),
		OrganizationURL:  optional(r.First("companyUrl", "companyWebsite")),
		ExperienceLevel:  optional(r.First("experienceLevel", "experience")),
		WorkArrangement:  workArrangement(r),
		EmploymentTypes:  employmentTypes(r),
		KeySkills:        skills(r),
		DatePosted:       e.postedAt(r),
	}
	if job.Title == "" || job.OrganizationName == "" {
		return nil, ErrMissingRequired
	}

	if desc := r.First("description", "jobDescription", "descriptionHtml"); desc != "" {
		html := descriptionHTML(desc)
		job.DescriptionHTML = &html
	}

	job.URL = r.First("jobUrl", "url", "link", "applyUrl")
	if job.URL == "" {
		job.URL = e.PlaceholderURLBase + url.PathEscape(job.ID)
	}

	e.extractLocation(r, job)

	salary := r.First("salary", "wage", "compensation", "salaryRange")
	if lo, hi, ok := salaryRange(salary); ok {
		cur := currency(salary, e.DefaultCurrency)
		job.SalaryMin = &lo
		job.SalaryMax = &hi
		job.SalaryCurrency = &cur
	}

	return job, nil
}

func (e Extractor) extractLocation(r Record, job *ExtractedJob) {
	combined := r.First("location", "jobLocation")

	city := r.First("city", "jobCity")
	if city == "" && combined != "" {
		city = strings.TrimSpace(strings.SplitN(combined, ",", 2)[0])
	}
	country := firstNonEmpty(r.First("country", "jobCountry"), e.DefaultCountry)

	location := combined
	if location == "" {
		if city != "" {
			location = fmt.Sprintf("%s, %s", city, country)
		} else {
			location = country
		}
	}

	job.City = optional(city)
	job.Country = optional(country)
	job.Region = optional(r.First("region", "state"))
	job.Location = optional(location)
}

var postedDateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func (e Extractor) postedAt(r Record) time.Time {
	raw := r.First("postedAt", "datePosted", "publishedAt", "postedDate")
	for _, layout := range postedDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return e.Now().UTC()
}

func descriptionHTML(desc string) string {
	if strings.Contains(desc, "<") {
		return desc
	}
	return "<p>" + strings.ReplaceAll(desc, "\n", "</p><p>") + "</p>"
}

// salaryRange reads every number in text. Separators inside a number
// ("45 000", "45.000") are dropped.
func salaryRange(text string) (lo, hi int, ok bool) {
	for _, m := range salaryNumber.FindAllString(text, -1) {
		digits := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, m)
		n, err := strconv.Atoi(digits)
		if err != nil {
			continue
		}
		if !ok || n < lo {
			lo = n
		}
		if !ok || n > hi {
			hi = n
		}
		ok = true
	}
	return lo, hi, ok
}

func currency(text, fallback string) string {
	upper := strings.ToUpper(text)
	switch {
	case strings.Contains(text, "€") || strings.Contains(upper, "EUR"):
		return "EUR"
	case strings.Contains(text, "$") || strings.Contains(upper, "USD"):
		return "USD"
	case strings.Contains(text, "£") || strings.Contains(upper, "GBP"):
		return "GBP"
	default:
		return fallback
	}
}

func skills(r Record) []string {
	text := strings.ToLower(r.Text("skills", "requirements", "technologies", "qualifications"))
	out := []string{}
	if text == "" {
		return out
	}
	for _, s := range knownSkills {
		if strings.Contains(text, strings.ToLower(s)) {
			out = append(out, s)
		}
	}
	return out
}

func workArrangement(r Record) *models.WorkArrangement {
	text := strings.ToLower(r.First("workArrangement", "remote", "location"))
	if b, ok := r["remote"].(bool); ok && b && r.String("workArrangement") == "" {
		text = "remote"
	}

	var wa models.WorkArrangement
	switch {
	case strings.Contains(text, "remote") || strings.Contains(text, "télétravail"):
		wa = models.WorkRemote
	case strings.Contains(text, "hybrid") || strings.Contains(text, "hybride"):
		wa = models.WorkHybrid
	case strings.Contains(text, "on-site") || strings.Contains(text, "bureau") || strings.Contains(text, "présentiel"):
		wa = models.WorkOnSite
	default:
		return nil
	}
	return &wa
}

var employmentKeywords = []struct {
	t        models.EmploymentType
	keywords []string
}{
	{models.EmploymentFullTime, []string{"cdi", "full-time", "full time", "temps plein"}},
	{models.EmploymentPartTime, []string{"cdd", "part-time", "part time", "temps partiel"}},
	{models.EmploymentInternship, []string{"stage", "intern"}},
	{models.EmploymentContract, []string{"freelance", "contract", "consultant"}},
}

// employmentTypes returns every type whose keywords appear, FULL_TIME when none do.
func employmentTypes(r Record) []models.EmploymentType {
	text := strings.ToLower(r.First("employmentType", "contractType", "type"))
	var out []models.EmploymentType
	for _, k := range employmentKeywords {
		for _, kw := range k.keywords {
			if strings.Contains(text, kw) {
				out = append(out, k.t)
				break
			}
		}
	}
	if len(out) == 0 {
		out = []models.EmploymentType{models.EmploymentFullTime}
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
