// Package validation implements the per-section checks of the quote wizard.
// Every check for a section runs independently so the user sees all problems
// at once; validation never short-circuits on the first failure.
package validation

import (
	"regexp"

	"github.com/mekrok/quote-api/internal/domain"
)

// strictEmailPattern is deliberately tighter than the shape check applied at
// OTP issuance: it constrains label lengths and character classes.
var strictEmailPattern = regexp.MustCompile(
	`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`,
)

// ValidateSection runs the rules for one named section of the draft and
// returns field-keyed error and warning maps. Unknown sections (including
// fileUploads, which has no required fields) validate clean. The warning map
// is always present; the current rule set never populates it.
func ValidateSection(section string, draft *domain.QuoteDraft) domain.ValidationResult {
	result := domain.ValidationResult{
		Errors:   make(map[string]string),
		Warnings: make(map[string]string),
	}

	switch section {
	case domain.SectionCompanyDetails:
		validateCompanyDetails(&draft.CompanyDetails, result.Errors)
	case domain.SectionProductSpecs:
		validateProductSpecs(&draft.ProductSpecs, result.Errors)
	case domain.SectionBudgetFinancing:
		validateBudgetFinancing(&draft.BudgetFinancing, result.Errors)
	case domain.SectionDeliveryRequirements:
		validateDeliveryRequirements(&draft.DeliveryRequirements, result.Errors)
	}

	return result
}

// ValidateAll re-runs every section in declaration order and returns the
// name and result of the first failing one. Cached completion marks are
// never consulted here.
func ValidateAll(draft *domain.QuoteDraft) (string, domain.ValidationResult, bool) {
	for _, section := range domain.SectionOrder {
		result := ValidateSection(section, draft)
		if !result.Valid() {
			return section, result, false
		}
	}
	return "", domain.ValidationResult{
		Errors:   make(map[string]string),
		Warnings: make(map[string]string),
	}, true
}

func validateCompanyDetails(c *domain.CompanyDetails, errs map[string]string) {
	if c.CompanyName == "" {
		errs["companyName"] = "Company name is required"
	}
	if c.CompanyType == "" {
		errs["companyType"] = "Company type is required"
	}
	if c.Address == "" {
		errs["address"] = "Address is required"
	}
	if c.City == "" {
		errs["city"] = "City is required"
	}
	if c.State == "" {
		errs["state"] = "State is required"
	}
	if c.ZipCode == "" {
		errs["zipCode"] = "ZIP code is required"
	}
	if c.Country == "" {
		errs["country"] = "Country is required"
	}
	if c.ContactName == "" {
		errs["contactName"] = "Contact name is required"
	}
	if c.JobTitle == "" {
		errs["jobTitle"] = "Job title is required"
	}
	if c.Email == "" {
		errs["email"] = "Email is required"
	} else if !strictEmailPattern.MatchString(c.Email) {
		errs["email"] = "Please enter a valid email address"
	}
	if c.Phone == "" {
		errs["phone"] = "Phone number is required"
	}
}

func validateProductSpecs(p *domain.ProductSpecs, errs map[string]string) {
	if len(p.EquipmentItems) == 0 {
		errs["equipmentItems"] = "At least one equipment item is required"
	}
	for _, item := range p.EquipmentItems {
		if item.Quantity < 1 {
			errs["equipmentItems"] = "Equipment quantity must be a positive number"
			break
		}
	}
	if p.Urgency == "" {
		errs["urgency"] = "Timeline urgency is required"
	}
}

func validateBudgetFinancing(b *domain.BudgetFinancing, errs map[string]string) {
	if b.BudgetRange == "" {
		errs["budgetRange"] = "Budget range is required"
	}
	if b.PaymentTerms == "" {
		errs["paymentTerms"] = "Payment terms are required"
	}
}

func validateDeliveryRequirements(d *domain.DeliveryRequirements, errs map[string]string) {
	if d.LocationType == "" {
		errs["locationType"] = "Location type is required"
	}
	if d.SiteName == "" {
		errs["siteName"] = "Site name is required"
	}
	if d.DeliveryAddress == "" {
		errs["deliveryAddress"] = "Delivery address is required"
	}
	if d.City == "" {
		errs["city"] = "City is required"
	}
	if d.State == "" {
		errs["state"] = "State is required"
	}
	if d.ZipCode == "" {
		errs["zipCode"] = "ZIP code is required"
	}
	if d.SiteContact == "" {
		errs["siteContact"] = "Site contact is required"
	}
	if d.SiteContactPhone == "" {
		errs["siteContactPhone"] = "Site contact phone is required"
	}
	if d.AccessLimitations == "" {
		errs["accessLimitations"] = "Access limitations must be specified"
	}
}
