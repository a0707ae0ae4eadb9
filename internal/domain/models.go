package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// QuoteStatus is the lifecycle status of a submitted quote request
type QuoteStatus string

const (
	QuoteStatusNew         QuoteStatus = "new"
	QuoteStatusInReview    QuoteStatus = "in_review"
	QuoteStatusQuoted      QuoteStatus = "quoted"
	QuoteStatusNegotiating QuoteStatus = "negotiating"
	QuoteStatusWon         QuoteStatus = "won"
	QuoteStatusLost        QuoteStatus = "lost"
)

// QuotePriority is the handling priority assigned to a quote request
type QuotePriority string

const (
	QuotePriorityLow    QuotePriority = "low"
	QuotePriorityNormal QuotePriority = "normal"
	QuotePriorityHigh   QuotePriority = "high"
	QuotePriorityUrgent QuotePriority = "urgent"
)

// EquipmentItem is a single requested machine on a quote
type EquipmentItem struct {
	ID             int64  `json:"id,omitempty" mapstructure:"id"`
	Type           string `json:"type" mapstructure:"type"`
	Brand          string `json:"brand" mapstructure:"brand"`
	Model          string `json:"model" mapstructure:"model"`
	Quantity       int    `json:"quantity" mapstructure:"quantity"`
	Condition      string `json:"condition" mapstructure:"condition"`
	Specifications string `json:"specifications" mapstructure:"specifications"`
}

// UploadedFile is an opaque reference to a stored attachment
type UploadedFile struct {
	Name        string `json:"name" mapstructure:"name"`
	Size        int64  `json:"size" mapstructure:"size"`
	ContentType string `json:"contentType" mapstructure:"content_type"`
	URL         string `json:"url" mapstructure:"url"`
}

// Communication is a single entry in a quote's contact log
type Communication struct {
	Timestamp time.Time `json:"timestamp" mapstructure:"timestamp"`
	Author    string    `json:"author" mapstructure:"author"`
	Message   string    `json:"message" mapstructure:"message"`
}

// EquipmentItemList stores equipment items as a JSON column
type EquipmentItemList []EquipmentItem

func (l EquipmentItemList) Value() (driver.Value, error) {
	if l == nil {
		l = EquipmentItemList{}
	}
	return json.Marshal(l)
}

func (l *EquipmentItemList) Scan(value interface{}) error {
	return scanJSON(value, l)
}

// UploadedFileList stores uploaded file references as a JSON column
type UploadedFileList []UploadedFile

func (l UploadedFileList) Value() (driver.Value, error) {
	if l == nil {
		l = UploadedFileList{}
	}
	return json.Marshal(l)
}

func (l *UploadedFileList) Scan(value interface{}) error {
	return scanJSON(value, l)
}

// CommunicationList stores the contact log as a JSON column
type CommunicationList []Communication

func (l CommunicationList) Value() (driver.Value, error) {
	if l == nil {
		l = CommunicationList{}
	}
	return json.Marshal(l)
}

func (l *CommunicationList) Scan(value interface{}) error {
	return scanJSON(value, l)
}

func scanJSON(value interface{}, target interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, target)
	case string:
		return json.Unmarshal([]byte(v), target)
	default:
		return fmt.Errorf("unsupported column type %T", value)
	}
}

// Quote is a submitted quote request, stored flat the way the store expects it.
// Column names follow the snake_case wire format produced by the normalizer.
type Quote struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id" mapstructure:"-"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt" mapstructure:"-"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt" mapstructure:"-"`

	// Company details
	CompanyName              string         `gorm:"type:varchar(200);not null;index" json:"companyName" mapstructure:"company_name"`
	CompanyType              string         `gorm:"type:varchar(100)" json:"companyType" mapstructure:"company_type"`
	TaxID                    string         `gorm:"type:varchar(50);column:tax_id" json:"taxId" mapstructure:"tax_id"`
	CompanySize              string         `gorm:"type:varchar(50)" json:"companySize" mapstructure:"company_size"`
	Address                  string         `gorm:"type:varchar(500)" json:"address" mapstructure:"address"`
	City                     string         `gorm:"type:varchar(100)" json:"city" mapstructure:"city"`
	State                    string         `gorm:"type:varchar(100)" json:"state" mapstructure:"state"`
	ZipCode                  string         `gorm:"type:varchar(20)" json:"zipCode" mapstructure:"zip_code"`
	Country                  string         `gorm:"type:varchar(100)" json:"country" mapstructure:"country"`
	ContactName              string         `gorm:"type:varchar(200)" json:"contactName" mapstructure:"contact_name"`
	JobTitle                 string         `gorm:"type:varchar(100)" json:"jobTitle" mapstructure:"job_title"`
	Email                    string         `gorm:"type:varchar(255);not null;index" json:"email" mapstructure:"email"`
	Phone                    string         `gorm:"type:varchar(50)" json:"phone" mapstructure:"phone"`
	ContactPreference        string         `gorm:"type:varchar(50)" json:"contactPreference" mapstructure:"contact_preference"`
	Certifications           pq.StringArray `gorm:"type:text[]" json:"certifications" mapstructure:"certifications"`
	AdditionalCertifications string         `gorm:"type:text" json:"additionalCertifications" mapstructure:"additional_certifications"`

	// Product specs
	EquipmentItems         EquipmentItemList `gorm:"type:jsonb" json:"equipmentItems" mapstructure:"equipment_items"`
	Urgency                string            `gorm:"type:varchar(50)" json:"urgency" mapstructure:"urgency"`
	DeliveryDate           *string           `gorm:"type:varchar(50)" json:"deliveryDate" mapstructure:"delivery_date"`
	Specifications         pq.StringArray    `gorm:"type:text[]" json:"specifications" mapstructure:"specifications"`
	AdditionalRequirements string            `gorm:"type:text" json:"additionalRequirements" mapstructure:"additional_requirements"`

	// Budget and financing
	BudgetRange        string         `gorm:"type:varchar(50)" json:"budgetRange" mapstructure:"budget_range"`
	SpecificBudget     *float64       `json:"specificBudget" mapstructure:"specific_budget"`
	PaymentTerms       string         `gorm:"type:varchar(50)" json:"paymentTerms" mapstructure:"payment_terms"`
	DownPayment        *float64       `json:"downPayment" mapstructure:"down_payment"`
	FinancingOptions   pq.StringArray `gorm:"type:text[]" json:"financingOptions" mapstructure:"financing_options"`
	FinancingType      string         `gorm:"type:varchar(50)" json:"financingType" mapstructure:"financing_type"`
	TermLength         *float64       `json:"termLength" mapstructure:"term_length"`
	CreditScore        *float64       `json:"creditScore" mapstructure:"credit_score"`
	AnnualRevenue      *float64       `json:"annualRevenue" mapstructure:"annual_revenue"`
	TradeInType        string         `gorm:"type:varchar(50)" json:"tradeInType" mapstructure:"trade_in_type"`
	TradeInModel       string         `gorm:"type:varchar(200)" json:"tradeInModel" mapstructure:"trade_in_model"`
	TradeInYear        *int           `json:"tradeInYear" mapstructure:"trade_in_year"`
	TradeInHours       *int           `json:"tradeInHours" mapstructure:"trade_in_hours"`
	TradeInValue       *float64       `json:"tradeInValue" mapstructure:"trade_in_value"`
	AuthorizationLevel string         `gorm:"type:varchar(100)" json:"authorizationLevel" mapstructure:"authorization_level"`
	ApprovalTimeline   string         `gorm:"type:varchar(100)" json:"approvalTimeline" mapstructure:"approval_timeline"`
	FinancialNotes     string         `gorm:"type:text" json:"financialNotes" mapstructure:"financial_notes"`

	// Delivery requirements
	LocationType        string         `gorm:"type:varchar(50)" json:"locationType" mapstructure:"location_type"`
	SiteName            string         `gorm:"type:varchar(200)" json:"siteName" mapstructure:"site_name"`
	DeliveryAddress     string         `gorm:"type:varchar(500)" json:"deliveryAddress" mapstructure:"delivery_address"`
	GpsCoordinates      string         `gorm:"type:varchar(100)" json:"gpsCoordinates" mapstructure:"gps_coordinates"`
	SiteContact         string         `gorm:"type:varchar(200)" json:"siteContact" mapstructure:"site_contact"`
	SiteContactPhone    string         `gorm:"type:varchar(50)" json:"siteContactPhone" mapstructure:"site_contact_phone"`
	OperatingHours      string         `gorm:"type:varchar(100)" json:"operatingHours" mapstructure:"operating_hours"`
	AccessLimitations   string         `gorm:"type:text" json:"accessLimitations" mapstructure:"access_limitations"`
	MaxWeight           *float64       `json:"maxWeight" mapstructure:"max_weight"`
	MaxHeight           *float64       `json:"maxHeight" mapstructure:"max_height"`
	RoadWidth           *float64       `json:"roadWidth" mapstructure:"road_width"`
	TurningRadius       *float64       `json:"turningRadius" mapstructure:"turning_radius"`
	SpecialAccess       string         `gorm:"type:text" json:"specialAccess" mapstructure:"special_access"`
	LogisticsPartner    string         `gorm:"type:varchar(200)" json:"logisticsPartner" mapstructure:"logistics_partner"`
	PreferredDate       *string        `gorm:"type:varchar(50)" json:"preferredDate" mapstructure:"preferred_date"`
	LatestDate          *string        `gorm:"type:varchar(50)" json:"latestDate" mapstructure:"latest_date"`
	TimePreferences     string         `gorm:"type:varchar(100)" json:"timePreferences" mapstructure:"time_preferences"`
	AdditionalServices  pq.StringArray `gorm:"type:text[]" json:"additionalServices" mapstructure:"additional_services"`
	SpecialInstructions string         `gorm:"type:text" json:"specialInstructions" mapstructure:"special_instructions"`

	// Attachments
	UploadedFiles UploadedFileList `gorm:"type:jsonb" json:"uploadedFiles" mapstructure:"uploaded_files"`

	// Lifecycle stamps
	SubmissionDate time.Time         `gorm:"not null" json:"submissionDate" mapstructure:"submission_date"`
	Status         QuoteStatus       `gorm:"type:varchar(50);not null;default:'new';index" json:"status" mapstructure:"status"`
	Priority       QuotePriority     `gorm:"type:varchar(50);not null;default:'normal'" json:"priority" mapstructure:"priority"`
	Communications CommunicationList `gorm:"type:jsonb" json:"communications" mapstructure:"communications"`
	LastActivity   time.Time         `json:"lastActivity" mapstructure:"last_activity"`

	// SubmissionKey makes submissions idempotent per wizard draft. Keyless
	// storefront records store NULL so the unique index never matches them.
	SubmissionKey *string `gorm:"type:varchar(64);uniqueIndex" json:"submissionKey" mapstructure:"submission_key"`
}

// BeforeCreate assigns an ID when the database does not
func (q *Quote) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}
