package domain

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// ComponentType selects how a salary component is evaluated
type ComponentType string

const (
	ComponentFixed      ComponentType = "fixed"
	ComponentPercentage ComponentType = "percentage"
	ComponentFormula    ComponentType = "formula"
)

// Valid reports whether t is a known component type
func (t ComponentType) Valid() bool {
	switch t {
	case ComponentFixed, ComponentPercentage, ComponentFormula:
		return true
	}
	return false
}

// Component is one named earning line of a salary template
type Component struct {
	Name       string        `json:"name" validate:"required,max=64"`
	Type       ComponentType `json:"type" validate:"required,oneof=fixed percentage formula"`
	Expression string        `json:"expression" validate:"required,max=512"`
}

// Components keeps template order and is stored as JSONB
type Components []Component

// Value implements driver.Valuer
func (c Components) Value() (driver.Value, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c)
}

// Scan implements sql.Scanner
func (c *Components) Scan(src interface{}) error {
	return scanJSON(src, c)
}

// Names returns the component names in template order
func (c Components) Names() []string {
	names := make([]string, len(c))
	for i, comp := range c {
		names[i] = comp.Name
	}
	return names
}

// SalaryTemplate maps a base salary onto named monthly components
type SalaryTemplate struct {
	ID         string     `db:"id" json:"id"`
	Name       string     `db:"name" json:"name"`
	Components Components `db:"components" json:"components"`
	// OvertimeExpression, when set, derives the overtime hourly rate from `hourly`
	OvertimeExpression *string   `db:"overtime_expression" json:"overtime_expression,omitempty"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}
