// Package formula validates and evaluates salary template components.
//
// Components are compiled once: every expression is parsed, checked against
// the vocabulary (salary plus the component names), checked for self and
// circular references, and ordered so that each component is evaluated after
// the components it depends on. Evaluation is then a single pass.
package formula

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/shiftpay/shiftpay-backend/internal/payroll/domain"
	"github.com/shiftpay/shiftpay-backend/pkg/errors"
)

// Salary is the root variable, always bound to the base salary
const Salary = "salary"

// Hourly is the variable available to overtime expressions
const Hourly = "hourly"

// Values maps component name to its evaluated monthly amount
type Values map[string]float64

// Total sums every component
func (v Values) Total() float64 {
	var total float64
	for _, amount := range v {
		total += amount
	}
	return total
}

type compiled struct {
	component domain.Component
	literal   float64
	expr      *Expression
}

// Program is a validated, dependency-ordered template
type Program struct {
	components map[string]compiled
	order      []string
}

// Compile validates components and orders them for evaluation
func Compile(components domain.Components) (*Program, error) {
	if len(components) == 0 {
		return nil, errors.Invalid("template must define at least one component")
	}

	details := make(map[string]string)
	byName := make(map[string]compiled, len(components))
	for _, c := range components {
		switch {
		case !IsIdentifier(c.Name):
			details[c.Name] = "component name must be an identifier"
			continue
		case c.Name == Salary:
			details[c.Name] = "salary is reserved"
			continue
		}
		if _, dup := byName[c.Name]; dup {
			details[c.Name] = "duplicate component name"
			continue
		}
		byName[c.Name] = compiled{component: c}
	}

	for name, cc := range byName {
		if err := cc.prepare(byName); err != nil {
			details[name] = err.Error()
			continue
		}
		byName[name] = cc
	}
	if len(details) > 0 {
		return nil, errors.Validation(details)
	}

	order, err := topoOrder(byName)
	if err != nil {
		return nil, err
	}
	return &Program{components: byName, order: order}, nil
}

func (cc *compiled) prepare(known map[string]compiled) error {
	c := cc.component
	switch c.Type {
	case domain.ComponentFixed:
		v, err := strconv.ParseFloat(strings.TrimSpace(c.Expression), 64)
		if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
			return fmt.Errorf("fixed amount must be a number")
		}
		if v < 0 {
			return fmt.Errorf("fixed amount must not be negative")
		}
		cc.literal = v
	case domain.ComponentPercentage:
		v, err := strconv.ParseFloat(strings.TrimSpace(c.Expression), 64)
		if err != nil || math.IsNaN(v) {
			return fmt.Errorf("percentage must be a number")
		}
		if v < 0 || v > 100 {
			return fmt.Errorf("percentage must be between 0 and 100")
		}
		cc.literal = v
	case domain.ComponentFormula:
		expr, err := Parse(c.Expression)
		if err != nil {
			return err
		}
		var unknown []string
		for _, ref := range expr.References() {
			if ref == c.Name {
				return fmt.Errorf("component references itself")
			}
			if _, ok := known[ref]; !ok && ref != Salary {
				unknown = append(unknown, ref)
			}
		}
		if len(unknown) > 0 {
			return fmt.Errorf("unknown variable(s): %s", strings.Join(unknown, ", "))
		}
		cc.expr = expr
	default:
		return fmt.Errorf("unknown component type %q", c.Type)
	}
	return nil
}

func (cc *compiled) dependencies() []string {
	if cc.expr == nil {
		return nil
	}
	deps := make([]string, 0, len(cc.expr.refs))
	for _, ref := range cc.expr.refs {
		if ref != Salary {
			deps = append(deps, ref)
		}
	}
	return deps
}

// topoOrder walks the reference graph depth first. A node met again while
// still on the recursion stack closes a cycle.
func topoOrder(components map[string]compiled) ([]string, error) {
	const (
		unvisited = iota
		onStack
		done
	)

	names := make([]string, 0, len(components))
	for name := range components {
		names = append(names, name)
	}
	sort.Strings(names)

	state := make(map[string]int, len(components))
	order := make([]string, 0, len(components))
	var stack []string

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case done:
			return nil
		case onStack:
			start := 0
			for i, n := range stack {
				if n == name {
					start = i
					break
				}
			}
			path := append(append([]string{}, stack[start:]...), name)
			return errors.Invalid("circular dependency: " + strings.Join(path, " -> "))
		}

		state[name] = onStack
		stack = append(stack, name)
		cc := components[name]
		for _, dep := range cc.dependencies() {
			if err := visit(dep); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = done
		order = append(order, name)
		return nil
	}

	for _, name := range names {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// Order returns component names in evaluation order
func (p *Program) Order() []string {
	return p.order
}

// Evaluate computes every component against salary. Any non-finite result
// rejects the whole template.
func (p *Program) Evaluate(salary float64) (Values, error) {
	if math.IsNaN(salary) || math.IsInf(salary, 0) {
		return nil, errors.Invalid("salary must be a finite number")
	}

	vars := make(map[string]float64, len(p.order)+1)
	vars[Salary] = salary
	values := make(Values, len(p.order))
	for _, name := range p.order {
		cc := p.components[name]
		var v float64
		switch cc.component.Type {
		case domain.ComponentFixed:
			v = cc.literal
		case domain.ComponentPercentage:
			v = cc.literal / 100 * salary
		case domain.ComponentFormula:
			v = cc.expr.Eval(vars)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.Validation(map[string]string{name: "evaluates to a non-finite value"})
		}
		vars[name] = v
		values[name] = v
	}
	return values, nil
}

// ValidateAgainstSalary rejects component amounts that together exceed base
func ValidateAgainstSalary(values Values, base float64) error {
	total := values.Total()
	if total > base+1e-6 {
		return errors.Validation(map[string]string{
			"components": fmt.Sprintf("components total %.2f exceeds base salary %.2f", total, base),
		})
	}
	return nil
}

// CompileOvertime parses an overtime rate expression over the hourly variable
func CompileOvertime(src string) (*Expression, error) {
	expr, err := Parse(src)
	if err != nil {
		return nil, errors.Validation(map[string]string{"overtime_expression": err.Error()})
	}
	var unknown []string
	for _, ref := range expr.References() {
		if ref != Hourly {
			unknown = append(unknown, ref)
		}
	}
	if len(unknown) > 0 {
		return nil, errors.Validation(map[string]string{
			"overtime_expression": "unknown variable(s): " + strings.Join(unknown, ", "),
		})
	}
	return expr, nil
}

// EvaluateOvertimeRate computes the overtime hourly rate from the base hourly rate
func EvaluateOvertimeRate(expr *Expression, hourly float64) (float64, error) {
	v := expr.Eval(map[string]float64{Hourly: hourly})
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.Validation(map[string]string{"overtime_expression": "evaluates to a non-finite value"})
	}
	return v, nil
}
