package tsengine

import "time"

// Blog categories.
const (
	CategoryExitTips     = "Exit Tips"
	CategoryOwnerStories = "Owner Stories"
	CategoryNews         = "News"
	CategoryGuides       = "Guides"
)

// Categories lists every accepted BlogPost category.
var Categories = []string{CategoryExitTips, CategoryOwnerStories, CategoryNews, CategoryGuides}

// Lead sources.
const (
	SourceCostCalculator        = "cost-calculator"
	SourceMaintenanceCalculator = "maintenance-calculator"
	SourceContactForm           = "contact-form"
)

// BlogPost is an article managed from the admin back office and served publicly by slug.
type BlogPost struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Slug            string    `json:"slug"`
	Excerpt         string    `json:"excerpt"`
	Content         string    `json:"content"`
	Category        string    `json:"category"`
	FeaturedImage   string    `json:"featuredImage,omitempty"`
	MetaTitle       string    `json:"metaTitle,omitempty"`
	MetaDescription string    `json:"metaDescription,omitempty"`
	PublishedAt     time.Time `json:"publishedAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Link is the public path of the post.
func (p BlogPost) Link() string {
	return "/blog/" + p.Slug
}

// LastModified is the most recent of UpdatedAt and PublishedAt.
func (p BlogPost) LastModified() time.Time {
	if p.UpdatedAt.After(p.PublishedAt) {
		return p.UpdatedAt
	}
	return p.PublishedAt
}

// Lead is a calculator or contact-form submission. Leads are never
// modified after they are created.
type Lead struct {
	ID                   string    `json:"id"`
	Source               string    `json:"source"`
	Name                 string    `json:"name"`
	Email                string    `json:"email"`
	Phone                string    `json:"phone,omitempty"`
	Message              string    `json:"message,omitempty"`
	ResortName           string    `json:"resortName,omitempty"`
	AnnualMaintenanceFee *int64    `json:"annualMaintenanceFee,omitempty"`
	PurchasePrice        *int64    `json:"purchasePrice,omitempty"`
	YearsOwned           *int64    `json:"yearsOwned,omitempty"`
	Location             string    `json:"location,omitempty"`
	CalculatorResults    string    `json:"calculatorResults,omitempty"`
	CreatedAt            time.Time `json:"createdAt"`
}

// Setting is one row of the key/value settings table.
type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}
