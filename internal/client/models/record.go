// Package models defines the record API payloads as seen by the CLI.
package models

import (
	"fmt"
	"strings"
	"time"
)

// Record mirrors a health record returned by the server.
type Record struct {
	ID                 string    `json:"_id"`
	UserID             string    `json:"userId"`
	FullName           string    `json:"fullName"`
	Age                int       `json:"age"`
	Gender             string    `json:"gender"`
	MobileNumber       string    `json:"mobileNumber"`
	Height             float64   `json:"height"`
	Weight             float64   `json:"weight"`
	BloodType          string    `json:"bloodType"`
	AlcoholOrSmoke     string    `json:"alcoholOrSmoke"`
	Purpose            string    `json:"purpose"`
	HealthCheckupDate  time.Time `json:"healthCheckupDate"`
	Allergies          string    `json:"allergies"`
	Surgeries          string    `json:"surgeries"`
	MedicalTreatment   string    `json:"medicalTreatment"`
	DietarySupplements string    `json:"dietarySupplements"`
	MedicalReportName  string    `json:"medicalReportName,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// HasReport reports whether the record carries a medical report.
func (r Record) HasReport() bool {
	return r.MedicalReportName != ""
}

// String renders the one-line summary used by list.
func (r Record) String() string {
	report := ""
	if r.HasReport() {
		report = " [report: " + r.MedicalReportName + "]"
	}
	return fmt.Sprintf("%s  %s  %s  %s%s", r.ID, r.HealthCheckupDate.Format(time.DateOnly), r.FullName, r.Purpose, report)
}

// Details renders every field, one per line.
func (r Record) Details() string {
	var b strings.Builder
	row := func(name string, value any) {
		fmt.Fprintf(&b, "%-20s %v\n", name+":", value)
	}

	row("ID", r.ID)
	row("Full name", r.FullName)
	row("Age", r.Age)
	row("Gender", r.Gender)
	row("Mobile number", r.MobileNumber)
	row("Height", r.Height)
	row("Weight", r.Weight)
	row("Blood type", r.BloodType)
	row("Alcohol or smoke", r.AlcoholOrSmoke)
	row("Purpose", r.Purpose)
	row("Checkup date", r.HealthCheckupDate.Format(time.DateOnly))
	row("Allergies", r.Allergies)
	row("Surgeries", r.Surgeries)
	row("Medical treatment", r.MedicalTreatment)
	row("Supplements", r.DietarySupplements)
	if r.HasReport() {
		row("Medical report", r.MedicalReportName)
	}
	row("Created", r.CreatedAt.Local().Format(time.DateTime))
	row("Updated", r.UpdatedAt.Local().Format(time.DateTime))

	return b.String()
}

// RecordField describes one form field the CLI prompts for.
type RecordField struct {
	Key      string
	Prompt   string
	Required bool
}

// RecordFields lists the record form in prompt order.
var RecordFields = []RecordField{
	{Key: "fullName", Prompt: "Full name", Required: true},
	{Key: "age", Prompt: "Age", Required: true},
	{Key: "gender", Prompt: "Gender (Male/Female/Other)", Required: true},
	{Key: "mobileNumber", Prompt: "Mobile number", Required: true},
	{Key: "height", Prompt: "Height (cm)", Required: true},
	{Key: "weight", Prompt: "Weight (kg)", Required: true},
	{Key: "bloodType", Prompt: "Blood type", Required: true},
	{Key: "alcoholOrSmoke", Prompt: "Alcohol or smoke (Yes/No)", Required: true},
	{Key: "purpose", Prompt: "Purpose", Required: true},
	{Key: "healthCheckupDate", Prompt: "Health checkup date (YYYY-MM-DD)", Required: true},
	{Key: "allergies", Prompt: "Allergies (optional)"},
	{Key: "surgeries", Prompt: "Surgeries (optional)"},
	{Key: "medicalTreatment", Prompt: "Medical treatment (optional)"},
	{Key: "dietarySupplements", Prompt: "Dietary supplements (optional)"},
}
