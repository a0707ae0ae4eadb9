package domain

import (
	"time"

	"github.com/google/uuid"
)

// Section names in declaration order. Submit re-validates them in this order
// and reports the first failing one.
const (
	SectionCompanyDetails       = "companyDetails"
	SectionProductSpecs         = "productSpecs"
	SectionBudgetFinancing      = "budgetFinancing"
	SectionDeliveryRequirements = "deliveryRequirements"
	SectionFileUploads          = "fileUploads"
)

// SectionOrder lists the wizard sections in step order
var SectionOrder = []string{
	SectionCompanyDetails,
	SectionProductSpecs,
	SectionBudgetFinancing,
	SectionDeliveryRequirements,
	SectionFileUploads,
}

// CompanyDetails is step 1 of the quote wizard
type CompanyDetails struct {
	CompanyName              string   `json:"companyName"`
	CompanyType              string   `json:"companyType"`
	TaxID                    string   `json:"taxId"`
	CompanySize              string   `json:"companySize"`
	Address                  string   `json:"address"`
	City                     string   `json:"city"`
	State                    string   `json:"state"`
	ZipCode                  string   `json:"zipCode"`
	Country                  string   `json:"country"`
	ContactName              string   `json:"contactName"`
	JobTitle                 string   `json:"jobTitle"`
	Email                    string   `json:"email"`
	Phone                    string   `json:"phone"`
	ContactPreference        string   `json:"contactPreference"`
	Certifications           []string `json:"certifications"`
	AdditionalCertifications string   `json:"additionalCertifications"`
}

// ProductSpecs is step 2 of the quote wizard
type ProductSpecs struct {
	EquipmentItems         []EquipmentItem `json:"equipmentItems"`
	Urgency                string          `json:"urgency"`
	DeliveryDate           string          `json:"deliveryDate"`
	Specifications         []string        `json:"specifications"`
	AdditionalRequirements string          `json:"additionalRequirements"`
}

// BudgetFinancing is step 3 of the quote wizard. Financing and trade-in
// sub-fields are conditionally relevant but never mandatory.
type BudgetFinancing struct {
	BudgetRange        string   `json:"budgetRange"`
	SpecificBudget     string   `json:"specificBudget"`
	PaymentTerms       string   `json:"paymentTerms"`
	DownPayment        string   `json:"downPayment"`
	FinancingOptions   []string `json:"financingOptions"`
	FinancingType      string   `json:"financingType"`
	TermLength         string   `json:"termLength"`
	CreditScore        string   `json:"creditScore"`
	AnnualRevenue      string   `json:"annualRevenue"`
	TradeInType        string   `json:"tradeInType"`
	TradeInModel       string   `json:"tradeInModel"`
	TradeInYear        string   `json:"tradeInYear"`
	TradeInHours       string   `json:"tradeInHours"`
	TradeInValue       string   `json:"tradeInValue"`
	AuthorizationLevel string   `json:"authorizationLevel"`
	ApprovalTimeline   string   `json:"approvalTimeline"`
	FinancialNotes     string   `json:"financialNotes"`
}

// DeliveryRequirements is step 4 of the quote wizard
type DeliveryRequirements struct {
	LocationType        string   `json:"locationType"`
	SiteName            string   `json:"siteName"`
	DeliveryAddress     string   `json:"deliveryAddress"`
	City                string   `json:"city"`
	State               string   `json:"state"`
	ZipCode             string   `json:"zipCode"`
	GpsCoordinates      string   `json:"gpsCoordinates"`
	SiteContact         string   `json:"siteContact"`
	SiteContactPhone    string   `json:"siteContactPhone"`
	OperatingHours      string   `json:"operatingHours"`
	AccessLimitations   string   `json:"accessLimitations"`
	MaxWeight           string   `json:"maxWeight"`
	MaxHeight           string   `json:"maxHeight"`
	RoadWidth           string   `json:"roadWidth"`
	TurningRadius       string   `json:"turningRadius"`
	SpecialAccess       string   `json:"specialAccess"`
	LogisticsPartner    string   `json:"logisticsPartner"`
	PreferredDate       string   `json:"preferredDate"`
	LatestDate          string   `json:"latestDate"`
	TimePreferences     string   `json:"timePreferences"`
	AdditionalServices  []string `json:"additionalServices"`
	SpecialInstructions string   `json:"specialInstructions"`
}

// FileUploads is step 5 of the quote wizard; opaque to the pipeline
type FileUploads struct {
	UploadedFiles []UploadedFile `json:"uploadedFiles"`
}

// QuoteDraft is one wizard session. It lives in the draft store until the
// quote is submitted successfully or the draft expires.
type QuoteDraft struct {
	ID          uuid.UUID `json:"id"`
	CurrentStep int       `json:"currentStep"`

	// CompletedSections drives progress display only; submit always
	// re-validates every section regardless of what is recorded here.
	CompletedSections []string `json:"completedSections"`

	// EmailVerified is set by a successful OTP verification for
	// VerifiedEmail. Advancement past the company step requires it to
	// match the email currently entered in CompanyDetails.
	EmailVerified bool   `json:"emailVerified"`
	VerifiedEmail string `json:"verifiedEmail"`

	// SubmissionKey is attached to every submission attempt for this
	// draft so retries after a persistence failure cannot double-insert.
	SubmissionKey string `json:"submissionKey"`

	CompanyDetails       CompanyDetails       `json:"companyDetails"`
	ProductSpecs         ProductSpecs         `json:"productSpecs"`
	BudgetFinancing      BudgetFinancing      `json:"budgetFinancing"`
	DeliveryRequirements DeliveryRequirements `json:"deliveryRequirements"`
	FileUploads          FileUploads          `json:"fileUploads"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TotalSteps is the number of wizard steps: five sections plus review
const TotalSteps = 6

// SectionForStep maps a step number to the section it edits.
// The review step has no section of its own.
func SectionForStep(step int) (string, bool) {
	if step >= 1 && step <= len(SectionOrder) {
		return SectionOrder[step-1], true
	}
	return "", false
}

// StepForSection maps a section name back to its wizard step
func StepForSection(section string) (int, bool) {
	for i, name := range SectionOrder {
		if name == section {
			return i + 1, true
		}
	}
	return 0, false
}

// MarkSectionCompleted records a section in the completed set exactly once
func (d *QuoteDraft) MarkSectionCompleted(section string) {
	for _, s := range d.CompletedSections {
		if s == section {
			return
		}
	}
	d.CompletedSections = append(d.CompletedSections, section)
}

// PrefilledProduct seeds a draft's first equipment item from a deep link.
// A deep link must at least name the equipment category.
type PrefilledProduct struct {
	Category  string `json:"category" validate:"required"`
	Brand     string `json:"brand"`
	Model     string `json:"model"`
	Condition string `json:"condition"`
}

// SendOtpRequest is the body of POST /api/send-otp
type SendOtpRequest struct {
	Email string `json:"email" validate:"required"`
}

// VerifyOtpRequest is the body of POST /api/verify-otp. DraftId is optional;
// when present a successful verification is also recorded on that draft.
type VerifyOtpRequest struct {
	Email   string `json:"email" validate:"required"`
	Otp     string `json:"otp" validate:"required"`
	DraftID string `json:"draftId,omitempty"`
}

// CreateDraftRequest is the body of POST /api/drafts
type CreateDraftRequest struct {
	Product *PrefilledProduct `json:"product,omitempty"`
}

// MessageResponse is a simple confirmation payload
type MessageResponse struct {
	Message string `json:"message"`
}

// ValidationResult is the outcome of validating one wizard section
type ValidationResult struct {
	Errors   map[string]string `json:"errors"`
	Warnings map[string]string `json:"warnings"`
}

// Valid reports whether the section passed validation.
// Warnings never block.
func (r ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}
