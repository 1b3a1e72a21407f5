package domain

import "time"

// Employee is the payroll view of a staff member
type Employee struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	ShiftID    string    `db:"shift_id" json:"shift_id"`
	TemplateID *string   `db:"template_id" json:"template_id,omitempty"`
	BaseSalary float64   `db:"base_salary" json:"base_salary"`
	Active     bool      `db:"active" json:"active"`
	JoinedAt   time.Time `db:"joined_at" json:"joined_at"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
