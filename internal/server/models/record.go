package models

import "time"

// Allowed values for enumerated record fields.
var (
	Genders         = []string{"Male", "Female", "Other"}
	AlcoholOrSmokes = []string{"Yes", "No"}
)

// HealthRecord is one intake form submitted by a user.
//
// MedicalReportPath and MedicalReportName are either both nil or both set;
// the database enforces the same rule with a CHECK constraint.
type HealthRecord struct {
	ID     string `json:"_id"`
	UserID string `json:"userId"`

	// required
	FullName          string    `json:"fullName"`
	Age               int       `json:"age"`
	Gender            string    `json:"gender"`
	MobileNumber      string    `json:"mobileNumber"`
	Height            float64   `json:"height"`
	Weight            float64   `json:"weight"`
	BloodType         string    `json:"bloodType"`
	AlcoholOrSmoke    string    `json:"alcoholOrSmoke"`
	Purpose           string    `json:"purpose"`
	HealthCheckupDate time.Time `json:"healthCheckupDate"`

	// optional free text
	Allergies          string `json:"allergies"`
	Surgeries          string `json:"surgeries"`
	MedicalTreatment   string `json:"medicalTreatment"`
	DietarySupplements string `json:"dietarySupplements"`

	MedicalReportPath *string `json:"medicalReportPath,omitempty"`
	MedicalReportName *string `json:"medicalReportName,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasAttachment reports whether a medical report is associated with the record.
func (r *HealthRecord) HasAttachment() bool {
	return r.MedicalReportPath != nil && *r.MedicalReportPath != ""
}

// SetAttachment associates a stored blob with the record.
func (r *HealthRecord) SetAttachment(path, name string) {
	r.MedicalReportPath = &path
	r.MedicalReportName = &name
}
