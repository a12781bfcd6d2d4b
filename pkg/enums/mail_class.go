package enums

import "fmt"

// MailClass identifies a USPS shipping service tier.
type MailClass string

const (
	MailClassPriority        MailClass = "PRIORITY_MAIL"
	MailClassPriorityExpress MailClass = "PRIORITY_MAIL_EXPRESS"
	MailClassGroundAdvantage MailClass = "USPS_GROUND_ADVANTAGE"
	MailClassFirstClass      MailClass = "FIRST-CLASS_PACKAGE_SERVICE"
)

var validMailClasses = []MailClass{
	MailClassPriority,
	MailClassPriorityExpress,
	MailClassGroundAdvantage,
	MailClassFirstClass,
}

var mailClassDisplayNames = map[MailClass]string{
	MailClassPriority:        "USPS Priority Mail",
	MailClassPriorityExpress: "USPS Priority Mail Express",
	MailClassGroundAdvantage: "USPS Ground Advantage",
	MailClassFirstClass:      "USPS First-Class Package Service",
}

// String implements fmt.Stringer.
func (m MailClass) String() string {
	return string(m)
}

// IsValid reports whether the mail class is recognized.
func (m MailClass) IsValid() bool {
	for _, candidate := range validMailClasses {
		if candidate == m {
			return true
		}
	}
	return false
}

// DisplayName returns the customer-facing service name.
func (m MailClass) DisplayName() string {
	if name, ok := mailClassDisplayNames[m]; ok {
		return name
	}
	return string(m)
}

// ParseMailClass converts a raw string into a MailClass.
func ParseMailClass(value string) (MailClass, error) {
	for _, candidate := range validMailClasses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid mail class %q", value)
}
